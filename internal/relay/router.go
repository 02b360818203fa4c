package relay

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log/slog"

	"seminar-bot/internal/domain"
)

// Status replies posted into the administrator chat.
const (
	replyNoTag          = "Не удалось извлечь ID для ответа!"
	replyMalformedTag   = "Некорректный ID для ответа!"
	replyDeliveryFailed = "Не удалось ответить на сообщение"
	replyDelivered      = "Сообщение доставлено"
)

// Sender is the part of the transport the router needs.
type Sender interface {
	SendText(ctx context.Context, chatID int64, text string, opts domain.SendOptions) error
	CopyMessage(ctx context.Context, toChatID, fromChatID, messageID int64) error
}

// Router moves messages between end users and the administrator chat.
type Router struct {
	sender      Sender
	adminChatID int64
	logger      *slog.Logger
}

func NewRouter(sender Sender, adminChatID int64, logger *slog.Logger) (*Router, error) {
	if sender == nil {
		return nil, errors.New("relay: sender must not be nil")
	}
	if adminChatID == 0 {
		return nil, errors.New("relay: admin chat id must not be zero")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{sender: sender, adminChatID: adminChatID, logger: logger}, nil
}

// IsAdminChat reports whether chatID is the administrator chat.
func (r *Router) IsAdminChat(chatID int64) bool {
	return chatID == r.adminChatID
}

// FormatEnvelope renders a question for the administrator chat as HTML, ending with
// the sender's address tag.
func FormatEnvelope(env domain.RelayEnvelope) string {
	text := html.EscapeString(env.Body)
	if env.Speaker != "" {
		text = fmt.Sprintf("Спикер: %s\n\n%s", html.EscapeString(env.Speaker), text)
	}
	return AppendTag(text, env.SourceUserID)
}

// Forward delivers an envelope to the administrator chat.
func (r *Router) Forward(ctx context.Context, env domain.RelayEnvelope) error {
	err := r.sender.SendText(ctx, r.adminChatID, FormatEnvelope(env), domain.SendOptions{ParseMode: domain.ParseModeHTML})
	if err != nil {
		return fmt.Errorf("relay: Forward: %w", err)
	}
	return nil
}

// HandleAdminReply copies an administrator reply to the user addressed by the tag of
// the replied-to message. Addressing and delivery failures are answered in the admin
// chat and logged; only a failure to post that status reply is returned.
func (r *Router) HandleAdminReply(ctx context.Context, msg domain.Message) error {
	if msg.ReplyToMessage == nil {
		return nil
	}
	text, entities := msg.ReplyToMessage.Body()
	userID, err := Decode(text, entities)
	switch {
	case errors.Is(err, ErrNoTag):
		r.logger.Info("admin reply without address tag", "message_id", msg.MessageID)
		return r.status(ctx, msg, replyNoTag)
	case errors.Is(err, ErrMalformedTag):
		r.logger.Info("admin reply with malformed address tag", "message_id", msg.MessageID)
		return r.status(ctx, msg, replyMalformedTag)
	case err != nil:
		return fmt.Errorf("relay: HandleAdminReply decode: %w", err)
	}

	if err := r.sender.CopyMessage(ctx, userID, msg.Chat.ID, msg.MessageID); err != nil {
		r.logger.Warn("failed to deliver admin reply", "user_id", userID, "err", err)
		return r.status(ctx, msg, replyDeliveryFailed)
	}
	return r.status(ctx, msg, replyDelivered)
}

func (r *Router) status(ctx context.Context, msg domain.Message, text string) error {
	err := r.sender.SendText(ctx, msg.Chat.ID, text, domain.SendOptions{ReplyToMessageID: msg.MessageID})
	if err != nil {
		return fmt.Errorf("relay: status reply: %w", err)
	}
	return nil
}
