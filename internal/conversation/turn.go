package conversation

import (
	"context"

	"seminar-bot/internal/domain"
	"seminar-bot/internal/i18n"
)

// turn is the working state of one Step.
type turn struct {
	ctx     context.Context
	m       *Machine
	msg     domain.Message
	session domain.Session
	actions []domain.Action
}

func (t *turn) locale() domain.Locale {
	return t.session.EffectiveLocale()
}

func (t *turn) text(key string) string {
	return t.m.texts.Text(t.locale(), key)
}

func (t *turn) reply(key string, kb *domain.Keyboard) {
	t.actions = append(t.actions, domain.Action{
		Kind:    domain.ActionSendText,
		ChatID:  t.msg.Chat.ID,
		Text:    t.text(key),
		Options: domain.SendOptions{Keyboard: kb},
	})
}

func (t *turn) sendMedia(media []string) {
	t.actions = append(t.actions, domain.Action{
		Kind:   domain.ActionSendMediaGroup,
		ChatID: t.msg.Chat.ID,
		Media:  media,
	})
}

func (t *turn) relay(env domain.RelayEnvelope) {
	t.actions = append(t.actions, domain.Action{
		Kind:     domain.ActionRelay,
		Envelope: &env,
	})
}

func (t *turn) move(event string) error {
	next, err := transition(t.ctx, t.session.State, event)
	if err != nil {
		return err
	}
	t.session.State = next
	return nil
}

func (t *turn) set(field, value string) {
	t.session.Fields[field] = value
}

func (t *turn) dateOptions() []string {
	return []string{t.text(i18n.KeyDateFirst), t.text(i18n.KeyDateSecond)}
}
