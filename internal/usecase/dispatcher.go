package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"seminar-bot/internal/conversation"
	"seminar-bot/internal/domain"
	"seminar-bot/internal/i18n"
)

const privateChat = "private"

type SessionStore interface {
	GetSession(ctx context.Context, chatID int64) (domain.Session, error)
	PutSession(ctx context.Context, chatID int64, s domain.Session) error
}

type Transport interface {
	SendText(ctx context.Context, chatID int64, text string, opts domain.SendOptions) error
	SendMediaGroup(ctx context.Context, chatID int64, media []string) error
}

// Locker serializes work per conversation key. The returned func releases the lock.
type Locker interface {
	Lock(ctx context.Context, key string) (func(), error)
}

type Stepper interface {
	Step(ctx context.Context, in conversation.Input) (conversation.Output, error)
}

type AdminRouter interface {
	IsAdminChat(chatID int64) bool
	HandleAdminReply(ctx context.Context, msg domain.Message) error
	Forward(ctx context.Context, env domain.RelayEnvelope) error
}

type httpStatusCoder interface {
	HTTPStatusCode() int
}

// Dispatcher applies inbound Telegram updates: administrator replies go to the relay
// router, everything else runs one conversation step under the chat's lock.
type Dispatcher struct {
	sessions  SessionStore
	stepper   Stepper
	router    AdminRouter
	transport Transport
	locker    Locker
	texts     conversation.Texts
	logger    *slog.Logger
}

func NewDispatcher(sessions SessionStore, stepper Stepper, router AdminRouter, transport Transport, locker Locker, texts conversation.Texts, logger *slog.Logger) (*Dispatcher, error) {
	if sessions == nil {
		return nil, errors.New("usecase: session store must not be nil")
	}
	if stepper == nil {
		return nil, errors.New("usecase: stepper must not be nil")
	}
	if router == nil {
		return nil, errors.New("usecase: router must not be nil")
	}
	if transport == nil {
		return nil, errors.New("usecase: transport must not be nil")
	}
	if locker == nil {
		return nil, errors.New("usecase: locker must not be nil")
	}
	if texts == nil {
		return nil, errors.New("usecase: texts must not be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		sessions:  sessions,
		stepper:   stepper,
		router:    router,
		transport: transport,
		locker:    locker,
		texts:     texts,
		logger:    logger,
	}, nil
}

// Handle processes one update. Updates without a message are ignored. A returned error
// is always a *Error; the update must not be retried.
func (d *Dispatcher) Handle(ctx context.Context, upd domain.Update) error {
	if upd.Message == nil {
		d.logger.DebugContext(ctx, "update ignored", "update_id", upd.UpdateID)
		return nil
	}
	msg := *upd.Message
	logger := d.logger.With("update_id", upd.UpdateID, "chat_id", msg.Chat.ID)

	if d.router.IsAdminChat(msg.Chat.ID) {
		if msg.ReplyToMessage == nil {
			logger.DebugContext(ctx, "admin chat message is not a reply")
			return nil
		}
		if err := d.router.HandleAdminReply(ctx, msg); err != nil {
			return newError(ErrorDelivery, "admin_status_error", err)
		}
		return nil
	}
	if msg.Chat.Type != "" && msg.Chat.Type != privateChat {
		logger.DebugContext(ctx, "non-private chat ignored", "chat_type", msg.Chat.Type)
		return nil
	}
	if msg.Chat.ID == 0 {
		return newError(ErrorInvalidInput, "missing_chat", nil)
	}

	unlock, err := d.locker.Lock(ctx, conversationKey(msg.Chat.ID))
	if err != nil {
		return newError(ErrorInternal, "lock_error", err)
	}
	defer unlock()

	session, err := d.sessions.GetSession(ctx, msg.Chat.ID)
	if err != nil {
		d.notify(ctx, logger, msg.Chat.ID, domain.DefaultLocale, i18n.KeySomethingWrong)
		return newError(ErrorStore, "session_read_error", err)
	}

	out, err := d.stepper.Step(ctx, conversation.Input{Session: session, Message: msg})
	if err != nil {
		uerr := stepError(err)
		d.notify(ctx, logger, msg.Chat.ID, session.EffectiveLocale(), failureNotice(err))
		return uerr
	}

	for i, action := range out.Actions {
		if err := d.execute(ctx, action); err != nil {
			logger.WarnContext(ctx, "action failed, session not advanced",
				"action", i, "kind", action.Kind, "err", err, "status", upstreamStatus(err))
			d.notify(ctx, logger, msg.Chat.ID, session.EffectiveLocale(), i18n.KeySomethingWrong)
			return newError(ErrorDelivery, "send_error", err)
		}
	}

	if err := d.sessions.PutSession(ctx, msg.Chat.ID, out.Session); err != nil {
		d.notify(ctx, logger, msg.Chat.ID, out.Session.EffectiveLocale(), i18n.KeySomethingWrong)
		return newError(ErrorStore, "session_write_error", err)
	}
	logger.InfoContext(ctx, "step applied",
		"from", session.State, "to", out.Session.State, "actions", len(out.Actions))
	return nil
}

func (d *Dispatcher) execute(ctx context.Context, a domain.Action) error {
	switch a.Kind {
	case domain.ActionSendText:
		return d.transport.SendText(ctx, a.ChatID, a.Text, a.Options)
	case domain.ActionSendMediaGroup:
		return d.transport.SendMediaGroup(ctx, a.ChatID, a.Media)
	case domain.ActionRelay:
		if a.Envelope == nil {
			return errors.New("usecase: relay action without envelope")
		}
		return d.router.Forward(ctx, *a.Envelope)
	default:
		return fmt.Errorf("usecase: unknown action kind %d", a.Kind)
	}
}

func (d *Dispatcher) notify(ctx context.Context, logger *slog.Logger, chatID int64, locale domain.Locale, key string) {
	if err := d.transport.SendText(ctx, chatID, d.texts.Text(locale, key), domain.SendOptions{}); err != nil {
		logger.WarnContext(ctx, "failure notice not delivered", "err", err)
	}
}

func stepError(err error) *Error {
	switch {
	case errors.Is(err, conversation.ErrRegistrationCommit):
		return newError(ErrorStore, "registration_commit_error", err)
	case errors.Is(err, conversation.ErrRegistrationLookup):
		return newError(ErrorStore, "registration_lookup_error", err)
	case errors.Is(err, conversation.ErrModeration):
		return newError(ErrorInternal, "moderation_error", err)
	default:
		return newError(ErrorInternal, "step_error", err)
	}
}

func failureNotice(err error) string {
	if errors.Is(err, conversation.ErrRegistrationCommit) {
		return i18n.KeyRegistrationFailed
	}
	return i18n.KeySomethingWrong
}

func conversationKey(chatID int64) string {
	return "conv:" + strconv.FormatInt(chatID, 10)
}

func upstreamStatus(err error) int {
	var statusErr httpStatusCoder
	if !errors.As(err, &statusErr) {
		return 0
	}
	return statusErr.HTTPStatusCode()
}
