// Package telegram adapts the Bot API SDK to the calls the bot makes: sending texts
// and photo albums, copying messages and long polling.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/time/rate"

	"seminar-bot/internal/domain"
)

const (
	defaultBaseURL = "https://api.telegram.org"
	defaultRate    = 25
	maxAlbumSize   = 10
)

// APIError is a Bot API call that Telegram answered with ok=false.
type APIError struct {
	Method      string
	StatusCode  int
	Description string
	RetryAfter  time.Duration
}

func (e *APIError) Error() string {
	return fmt.Sprintf("telegram: %s failed with status %d: %s", e.Method, e.StatusCode, e.Description)
}

func (e *APIError) HTTPStatusCode() int {
	return e.StatusCode
}

// Client calls the Bot API for a single bot token.
type Client struct {
	api        *tgbotapi.BotAPI
	token      string
	httpClient *http.Client
	limiter    *rate.Limiter
}

type Option func(*Client)

func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
		if baseURL == "" {
			baseURL = defaultBaseURL
		}
		c.api.SetAPIEndpoint(baseURL + "/bot%s/%s")
	}
}

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithRateLimit caps outgoing calls per second. A non-positive value disables the cap.
func WithRateLimit(perSecond float64) Option {
	return func(c *Client) {
		if perSecond <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), max(1, int(perSecond)))
	}
}

// NewClient creates a client without contacting Telegram.
func NewClient(token string, opts ...Option) (*Client, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, errors.New("telegram: token must not be empty")
	}
	// NewBotAPI would call getMe on every cold start.
	api := &tgbotapi.BotAPI{Token: token, Buffer: 100}
	api.SetAPIEndpoint(tgbotapi.APIEndpoint)

	c := &Client{
		api:        api,
		token:      token,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		limiter:    rate.NewLimiter(rate.Limit(defaultRate), defaultRate),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// ctxDoer binds one call's context to the SDK's context-free requests.
type ctxDoer struct {
	ctx    context.Context
	client *http.Client
}

func (d ctxDoer) Do(req *http.Request) (*http.Response, error) {
	return d.client.Do(req.WithContext(d.ctx))
}

// bot waits for the rate limiter and returns an SDK handle bound to ctx.
func (c *Client) bot(ctx context.Context, method string) (*tgbotapi.BotAPI, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("telegram: %s: rate limit: %w", method, err)
	}
	api := *c.api
	api.Client = ctxDoer{ctx: ctx, client: c.httpClient}
	return &api, nil
}

// SendText sends text to chatID. A keyboard in opts replaces the user's reply keyboard.
func (c *Client) SendText(ctx context.Context, chatID int64, text string, opts domain.SendOptions) error {
	const method = "sendMessage"
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = opts.ParseMode
	if opts.Keyboard != nil {
		msg.ReplyMarkup = replyKeyboard(opts.Keyboard)
	}
	if opts.ReplyToMessageID != 0 {
		msg.ReplyToMessageID = int(opts.ReplyToMessageID)
		msg.AllowSendingWithoutReply = true
	}

	api, err := c.bot(ctx, method)
	if err != nil {
		return err
	}
	_, err = api.Request(msg)
	return c.wrap(method, err)
}

func replyKeyboard(kb *domain.Keyboard) tgbotapi.ReplyKeyboardMarkup {
	rows := make([][]tgbotapi.KeyboardButton, 0, len(kb.Rows))
	for _, r := range kb.Rows {
		buttons := make([]tgbotapi.KeyboardButton, 0, len(r))
		for _, b := range r {
			if b.RequestContact {
				buttons = append(buttons, tgbotapi.NewKeyboardButtonContact(b.Text))
				continue
			}
			buttons = append(buttons, tgbotapi.NewKeyboardButton(b.Text))
		}
		rows = append(rows, tgbotapi.NewKeyboardButtonRow(buttons...))
	}
	return tgbotapi.NewReplyKeyboard(rows...)
}

// SendMediaGroup sends photos (file ids or URLs) as albums of at most ten. A single
// photo goes out with sendPhoto since albums need two items.
func (c *Client) SendMediaGroup(ctx context.Context, chatID int64, media []string) error {
	if len(media) == 0 {
		return errors.New("telegram: SendMediaGroup: no media")
	}
	for start := 0; start < len(media); start += maxAlbumSize {
		chunk := media[start:min(start+maxAlbumSize, len(media))]
		if len(chunk) == 1 {
			api, err := c.bot(ctx, "sendPhoto")
			if err != nil {
				return err
			}
			_, err = api.Request(tgbotapi.NewPhoto(chatID, tgbotapi.FileID(chunk[0])))
			if err := c.wrap("sendPhoto", err); err != nil {
				return err
			}
			continue
		}

		items := make([]any, len(chunk))
		for i, m := range chunk {
			items[i] = tgbotapi.NewInputMediaPhoto(tgbotapi.FileID(m))
		}
		api, err := c.bot(ctx, "sendMediaGroup")
		if err != nil {
			return err
		}
		_, err = api.Request(tgbotapi.NewMediaGroup(chatID, items))
		if err := c.wrap("sendMediaGroup", err); err != nil {
			return err
		}
	}
	return nil
}

// CopyMessage re-sends messageID from fromChatID into toChatID without a forward header.
func (c *Client) CopyMessage(ctx context.Context, toChatID, fromChatID, messageID int64) error {
	const method = "copyMessage"
	api, err := c.bot(ctx, method)
	if err != nil {
		return err
	}
	_, err = api.CopyMessage(tgbotapi.NewCopyMessage(toChatID, fromChatID, int(messageID)))
	return c.wrap(method, err)
}

// GetUpdates long-polls for message updates with ids >= offset. The HTTP client's
// timeout must exceed pollTimeout.
func (c *Client) GetUpdates(ctx context.Context, offset int64, pollTimeout time.Duration) ([]domain.Update, error) {
	const method = "getUpdates"
	cfg := tgbotapi.NewUpdate(int(offset))
	cfg.Timeout = int(pollTimeout / time.Second)
	cfg.AllowedUpdates = []string{"message"}

	api, err := c.bot(ctx, method)
	if err != nil {
		return nil, err
	}
	raw, err := api.GetUpdates(cfg)
	if err := c.wrap(method, err); err != nil {
		return nil, err
	}
	updates := make([]domain.Update, len(raw))
	for i, u := range raw {
		updates[i] = toUpdate(u)
	}
	return updates, nil
}

// DeleteWebhook switches the bot to getUpdates delivery.
func (c *Client) DeleteWebhook(ctx context.Context) error {
	const method = "deleteWebhook"
	api, err := c.bot(ctx, method)
	if err != nil {
		return err
	}
	_, err = api.Request(tgbotapi.DeleteWebhookConfig{})
	return c.wrap(method, err)
}

// wrap turns SDK failures into *APIError or a token-free transport error.
func (c *Client) wrap(method string, err error) error {
	if err == nil {
		return nil
	}
	var sdkErr *tgbotapi.Error
	if errors.As(err, &sdkErr) {
		return &APIError{
			Method:      method,
			StatusCode:  sdkErr.Code,
			Description: sdkErr.Message,
			RetryAfter:  time.Duration(sdkErr.RetryAfter) * time.Second,
		}
	}
	// The request URL carries the token.
	return fmt.Errorf("telegram: %s: %w", method, redact(err, c.token))
}

type redactedError struct {
	msg string
	err error
}

func (e *redactedError) Error() string { return e.msg }
func (e *redactedError) Unwrap() error { return e.err }

func redact(err error, token string) error {
	msg := err.Error()
	if !strings.Contains(msg, token) {
		return err
	}
	return &redactedError{msg: strings.ReplaceAll(msg, token, "<token>"), err: err}
}
