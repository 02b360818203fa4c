// Package conversation implements the per-user conversation: language choice, seminar
// registration, the seminar plan and the question hand-off to the organizers.
//
// A step is a function of (Session, Message) returning the next Session and the
// outbound actions to execute. Nothing is sent from this package.
package conversation

import (
	"context"
	"errors"
	"regexp"
	"time"

	"github.com/google/uuid"

	"seminar-bot/internal/domain"
	"seminar-bot/internal/i18n"
)

const (
	defaultNameMaxLength     = 512
	defaultQuestionMaxLength = 4000
	startCommand             = "/start"
)

var phoneNumberPattern = regexp.MustCompile(`^\+998[0-9]{9}$`)

// DefaultSpeakers is the seminar speaker roster offered for questions.
var DefaultSpeakers = []string{
	"Hosameldin Abdelhafez",
	"Mohamed Ali",
	"Gintaras Budginas",
	"Tigran Aydinyan",
	"Norbert Mischke",
	"Slausgalvis Virginijus",
}

type languageOption struct {
	label  string
	locale domain.Locale
}

var languageOptions = []languageOption{
	{label: "🇷🇺Русский", locale: domain.LocaleRU},
	{label: "🇺🇿O'zbekcha", locale: domain.LocaleUZ},
}

var (
	// ErrRegistrationLookup wraps record store failures of the "already registered" check.
	ErrRegistrationLookup = errors.New("conversation: registration lookup failed")
	// ErrRegistrationCommit wraps record store failures while saving an application.
	ErrRegistrationCommit = errors.New("conversation: registration not accepted")
	// ErrModeration wraps failures of the question moderator.
	ErrModeration = errors.New("conversation: moderation failed")
)

// Texts resolves localized texts. It must never fail.
type Texts interface {
	Text(locale domain.Locale, key string) string
}

// Registrations is the record store of completed applications.
type Registrations interface {
	Exists(ctx context.Context, userID int64) (bool, error)
	Insert(ctx context.Context, rec domain.RegistrationRecord) error
}

// Moderator flags questions that must not be relayed.
type Moderator interface {
	Moderate(ctx context.Context, input string) (bool, error)
}

// Config is the immutable configuration of a Machine.
type Config struct {
	Speakers          []string
	PlanMedia         map[domain.Locale][]string
	NameMaxLength     int
	QuestionMaxLength int
}

// Input is a single inbound message with the conversation's current session.
type Input struct {
	Session domain.Session
	Message domain.Message
}

// Output is the next session and the actions to execute, in order.
type Output struct {
	Session domain.Session
	Actions []domain.Action
}

type stateHandler func(m *Machine, t *turn) error

// Machine dispatches inbound messages to the handler of the session's state.
type Machine struct {
	texts         Texts
	registrations Registrations
	moderator     Moderator
	cfg           Config
	handlers      map[domain.State]stateHandler
	speakers      map[string]struct{}
	newID         func() string
	now           func() time.Time
}

// Option customizes a Machine.
type Option func(*Machine)

// WithModerator gates relayed questions through mod.
func WithModerator(mod Moderator) Option {
	return func(m *Machine) {
		m.moderator = mod
	}
}

// NewMachine builds the conversation machine.
func NewMachine(texts Texts, registrations Registrations, cfg Config, opts ...Option) (*Machine, error) {
	if texts == nil {
		return nil, errors.New("conversation: texts must not be nil")
	}
	if registrations == nil {
		return nil, errors.New("conversation: registrations must not be nil")
	}
	if len(cfg.Speakers) == 0 {
		cfg.Speakers = DefaultSpeakers
	}
	if cfg.NameMaxLength <= 0 {
		cfg.NameMaxLength = defaultNameMaxLength
	}
	if cfg.QuestionMaxLength <= 0 {
		cfg.QuestionMaxLength = defaultQuestionMaxLength
	}

	m := &Machine{
		texts:         texts,
		registrations: registrations,
		cfg:           cfg,
		speakers:      make(map[string]struct{}, len(cfg.Speakers)),
		newID:         uuid.NewString,
		now:           time.Now,
	}
	for _, s := range cfg.Speakers {
		m.speakers[s] = struct{}{}
	}
	m.handlers = map[domain.State]stateHandler{
		domain.StateChooseLanguage:   (*Machine).chooseLanguage,
		domain.StateMenu:             (*Machine).menu,
		domain.StateSendName:         (*Machine).sendName,
		domain.StateSendOrganization: (*Machine).sendOrganization,
		domain.StateSendPhoneNumber:  (*Machine).sendPhoneNumber,
		domain.StateSendDate:         (*Machine).sendDate,
		domain.StateSendHotelInfo:    (*Machine).sendHotelInfo,
		domain.StateChooseSpeaker:    (*Machine).chooseSpeaker,
		domain.StateSendQuestion:     (*Machine).sendQuestion,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Step handles one message. On error the returned Output must be discarded.
func (m *Machine) Step(ctx context.Context, in Input) (Output, error) {
	t := &turn{
		ctx:     ctx,
		m:       m,
		msg:     in.Message,
		session: in.Session.Clone(),
	}
	_, known := m.handlers[t.session.State]
	if !known {
		// Unknown state from an older deployment: start over, keeping the language.
		t.session = domain.NewSession()
		t.session.Locale = in.Session.Locale
	}

	switch text := in.Message.Text; {
	case text == startCommand || text == t.text(i18n.KeyButtonChangeLang):
		if err := t.move(evChangeLanguage); err != nil {
			return Output{}, err
		}
		t.reply(i18n.KeyChooseLanguage, languageKeyboard())
	case text == t.text(i18n.KeyButtonCancel):
		if err := t.move(evCancel); err != nil {
			return Output{}, err
		}
		t.reply(i18n.KeyCancelled, t.menuKeyboard())
	case !known:
		t.reply(i18n.KeyChooseLanguage, languageKeyboard())
	default:
		if err := m.handlers[t.session.State](m, t); err != nil {
			return Output{}, err
		}
	}

	return Output{Session: t.session, Actions: t.actions}, nil
}
