package telegram

import (
	"encoding/json"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"seminar-bot/internal/domain"
)

// DecodeUpdate parses a webhook request body.
func DecodeUpdate(body []byte) (domain.Update, error) {
	var raw tgbotapi.Update
	if err := json.Unmarshal(body, &raw); err != nil {
		return domain.Update{}, fmt.Errorf("telegram: decode update: %w", err)
	}
	return toUpdate(raw), nil
}

func toUpdate(u tgbotapi.Update) domain.Update {
	return domain.Update{UpdateID: int64(u.UpdateID), Message: toMessage(u.Message)}
}

func toMessage(m *tgbotapi.Message) *domain.Message {
	if m == nil {
		return nil
	}
	out := &domain.Message{
		MessageID:       int64(m.MessageID),
		Text:            m.Text,
		Caption:         m.Caption,
		Entities:        toEntities(m.Entities),
		CaptionEntities: toEntities(m.CaptionEntities),
		ReplyToMessage:  toMessage(m.ReplyToMessage),
	}
	if m.From != nil {
		out.From = &domain.User{
			ID:        m.From.ID,
			IsBot:     m.From.IsBot,
			FirstName: m.From.FirstName,
			Username:  m.From.UserName,
		}
	}
	if m.Chat != nil {
		out.Chat = domain.Chat{ID: m.Chat.ID, Type: m.Chat.Type}
	}
	if m.Contact != nil {
		out.Contact = &domain.Contact{
			PhoneNumber: m.Contact.PhoneNumber,
			FirstName:   m.Contact.FirstName,
			UserID:      m.Contact.UserID,
		}
	}
	return out
}

func toEntities(in []tgbotapi.MessageEntity) []domain.Entity {
	if len(in) == 0 {
		return nil
	}
	out := make([]domain.Entity, len(in))
	for i, e := range in {
		out[i] = domain.Entity{Type: e.Type, Offset: e.Offset, Length: e.Length}
	}
	return out
}
