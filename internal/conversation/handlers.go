package conversation

import (
	"errors"
	"fmt"
	"slices"
	"unicode/utf8"

	"seminar-bot/internal/domain"
	"seminar-bot/internal/i18n"
)

var registrationFields = []string{
	domain.FieldName,
	domain.FieldOrganization,
	domain.FieldPhoneNumber,
	domain.FieldDate,
}

func (m *Machine) chooseLanguage(t *turn) error {
	for _, opt := range languageOptions {
		if t.msg.Text != opt.label {
			continue
		}
		if err := t.move(evLanguageChosen); err != nil {
			return err
		}
		t.session.Locale = opt.locale
		t.reply(i18n.KeyWelcome, t.menuKeyboard())
		return nil
	}
	t.reply(i18n.KeyInvalidLanguage, languageKeyboard())
	return nil
}

func (m *Machine) menu(t *turn) error {
	switch t.msg.Text {
	case t.text(i18n.KeyButtonPlan):
		media := m.cfg.PlanMedia[t.locale()]
		if len(media) == 0 {
			t.reply(i18n.KeyPlanUnavailable, t.menuKeyboard())
			return nil
		}
		t.sendMedia(media)
		return nil

	case t.text(i18n.KeyButtonRegister):
		registered, err := m.registrations.Exists(t.ctx, t.msg.SenderID())
		if err != nil {
			return fmt.Errorf("%w: %w", ErrRegistrationLookup, err)
		}
		if registered {
			t.reply(i18n.KeyAlreadyRegistered, t.menuKeyboard())
			return nil
		}
		if err := t.move(evStartRegistration); err != nil {
			return err
		}
		t.reply(i18n.KeyEnterName, t.cancelKeyboard())
		return nil

	case t.text(i18n.KeyButtonAsk):
		if err := t.move(evAskQuestion); err != nil {
			return err
		}
		t.reply(i18n.KeyChooseSpeaker, t.speakerKeyboard(m.cfg.Speakers))
		return nil
	}

	t.reply(i18n.KeyInvalidMenuOption, t.menuKeyboard())
	return nil
}

func (m *Machine) sendName(t *turn) error {
	name := t.msg.Text
	switch {
	case name == "":
		t.reply(i18n.KeyEnterName, t.cancelKeyboard())
		return nil
	case utf8.RuneCountInString(name) > m.cfg.NameMaxLength:
		t.reply(i18n.KeyNameTooLong, t.cancelKeyboard())
		return nil
	}
	if err := t.move(evNameAccepted); err != nil {
		return err
	}
	t.set(domain.FieldName, name)
	t.reply(i18n.KeyEnterOrganization, t.cancelKeyboard())
	return nil
}

func (m *Machine) sendOrganization(t *turn) error {
	org := t.msg.Text
	switch {
	case org == "":
		t.reply(i18n.KeyEnterOrganization, t.cancelKeyboard())
		return nil
	case utf8.RuneCountInString(org) > m.cfg.NameMaxLength:
		t.reply(i18n.KeyOrgTooLong, t.cancelKeyboard())
		return nil
	}
	if err := t.move(evOrgAccepted); err != nil {
		return err
	}
	t.set(domain.FieldOrganization, org)
	t.reply(i18n.KeyEnterPhone, t.phoneKeyboard())
	return nil
}

func (m *Machine) sendPhoneNumber(t *turn) error {
	var phone string
	switch {
	case t.msg.Contact != nil && t.msg.Contact.PhoneNumber != "":
		phone = t.msg.Contact.PhoneNumber
	case phoneNumberPattern.MatchString(t.msg.Text):
		phone = t.msg.Text
	default:
		t.reply(i18n.KeyInvalidPhone, t.phoneKeyboard())
		return nil
	}
	if err := t.move(evPhoneAccepted); err != nil {
		return err
	}
	t.set(domain.FieldPhoneNumber, phone)
	t.reply(i18n.KeyChooseDate, t.dateKeyboard())
	return nil
}

func (m *Machine) sendDate(t *turn) error {
	if !slices.Contains(t.dateOptions(), t.msg.Text) {
		t.reply(i18n.KeyInvalidOption, t.dateKeyboard())
		return nil
	}
	if err := t.move(evDateAccepted); err != nil {
		return err
	}
	t.set(domain.FieldDate, t.msg.Text)
	t.reply(i18n.KeyNeedHotel, t.hotelKeyboard())
	return nil
}

func (m *Machine) sendHotelInfo(t *turn) error {
	var wantsHotel bool
	switch t.msg.Text {
	case t.text(i18n.KeyButtonYes):
		wantsHotel = true
	case t.text(i18n.KeyButtonNo):
	default:
		t.reply(i18n.KeyInvalidOption, t.hotelKeyboard())
		return nil
	}

	rec := domain.RegistrationRecord{
		ID:           m.newID(),
		UserID:       t.msg.SenderID(),
		Username:     t.msg.SenderUsername(),
		DisplayName:  t.session.Fields[domain.FieldName],
		Organization: t.session.Fields[domain.FieldOrganization],
		PhoneNumber:  t.session.Fields[domain.FieldPhoneNumber],
		EventDate:    t.session.Fields[domain.FieldDate],
		WantsHotel:   wantsHotel,
		CreatedAt:    m.now().UTC(),
	}

	if err := m.registrations.Insert(t.ctx, rec); err != nil {
		if !errors.Is(err, domain.ErrDuplicateRegistration) {
			return fmt.Errorf("%w: %w", ErrRegistrationCommit, err)
		}
		// Registered from another device in the meantime. The session stays put;
		// cancel leads back to the menu.
		t.reply(i18n.KeyAlreadyRegistered, t.hotelKeyboard())
		return nil
	}

	if err := t.move(evRegistrationDone); err != nil {
		return err
	}
	for _, f := range registrationFields {
		delete(t.session.Fields, f)
	}
	t.reply(i18n.KeyRegistrationDone, t.menuKeyboard())
	return nil
}

func (m *Machine) chooseSpeaker(t *turn) error {
	if _, ok := m.speakers[t.msg.Text]; !ok {
		t.reply(i18n.KeyInvalidSpeaker, t.speakerKeyboard(m.cfg.Speakers))
		return nil
	}
	if err := t.move(evSpeakerChosen); err != nil {
		return err
	}
	t.set(domain.FieldSpeaker, t.msg.Text)
	t.reply(i18n.KeyEnterQuestion, t.cancelKeyboard())
	return nil
}

func (m *Machine) sendQuestion(t *turn) error {
	body := t.msg.Text
	switch {
	case body == "":
		t.reply(i18n.KeyEnterQuestion, t.cancelKeyboard())
		return nil
	case utf8.RuneCountInString(body) > m.cfg.QuestionMaxLength:
		t.reply(i18n.KeyQuestionTooLong, t.cancelKeyboard())
		return nil
	}

	if m.moderator != nil {
		flagged, err := m.moderator.Moderate(t.ctx, body)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrModeration, err)
		}
		if flagged {
			t.reply(i18n.KeyQuestionRejected, t.cancelKeyboard())
			return nil
		}
	}

	if err := t.move(evQuestionRelayed); err != nil {
		return err
	}
	t.relay(domain.RelayEnvelope{
		SourceUserID: t.msg.SenderID(),
		Speaker:      t.session.Fields[domain.FieldSpeaker],
		Body:         body,
	})
	delete(t.session.Fields, domain.FieldSpeaker)
	t.reply(i18n.KeyQuestionSent, t.menuKeyboard())
	return nil
}
