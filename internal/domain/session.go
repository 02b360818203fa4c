package domain

// State is a step of the per-user conversation.
type State string

const (
	StateChooseLanguage   State = "choose_language"
	StateMenu             State = "menu"
	StateSendName         State = "send_name"
	StateSendOrganization State = "send_organization"
	StateSendPhoneNumber  State = "send_phone_number"
	StateSendDate         State = "send_date"
	StateSendHotelInfo    State = "send_hotel_info"
	StateChooseSpeaker    State = "choose_speaker"
	StateSendQuestion     State = "send_question"
)

// Locale is the language a user picked for the conversation.
type Locale string

const (
	LocaleUnset Locale = ""
	LocaleRU    Locale = "ru"
	LocaleUZ    Locale = "uz"
)

// DefaultLocale is used to render texts before the user has chosen a language.
const DefaultLocale = LocaleRU

// Form field names accumulated while the user walks through the flows.
const (
	FieldName         = "name"
	FieldOrganization = "organization"
	FieldPhoneNumber  = "phone_number"
	FieldDate         = "date"
	FieldSpeaker      = "speaker"
)

// Session is the per-conversation record kept by the session store.
type Session struct {
	State  State             `json:"state"`
	Fields map[string]string `json:"fields"`
	Locale Locale            `json:"locale,omitempty"`
}

// NewSession returns the session of a conversation that has never been seen.
func NewSession() Session {
	return Session{
		State:  StateChooseLanguage,
		Fields: map[string]string{},
	}
}

// Clone returns a copy whose Fields map can be mutated independently.
func (s Session) Clone() Session {
	fields := make(map[string]string, len(s.Fields))
	for k, v := range s.Fields {
		fields[k] = v
	}
	s.Fields = fields
	if s.State == "" {
		s.State = StateChooseLanguage
	}
	return s
}

// EffectiveLocale resolves an unset locale to DefaultLocale.
func (s Session) EffectiveLocale() Locale {
	if s.Locale == LocaleUnset {
		return DefaultLocale
	}
	return s.Locale
}
