package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"seminar-bot/internal/domain"
)

type recordedCall struct {
	method string
	params map[string]string
}

// jsonParam decodes a form field the SDK sends as JSON.
func (c recordedCall) jsonParam(t *testing.T, key string) any {
	t.Helper()
	var v any
	require.NoError(t, json.Unmarshal([]byte(c.params[key]), &v))
	return v
}

type botServer struct {
	mu      sync.Mutex
	calls   []recordedCall
	respond func(method string) (int, string)
}

func (s *botServer) handler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))
		parts := strings.Split(r.URL.Path, "/")
		method := parts[len(parts)-1]
		require.Equal(t, "bot123:abc", parts[len(parts)-2])

		require.NoError(t, r.ParseForm())
		params := make(map[string]string, len(r.PostForm))
		for k := range r.PostForm {
			params[k] = r.PostForm.Get(k)
		}

		s.mu.Lock()
		s.calls = append(s.calls, recordedCall{method: method, params: params})
		respond := s.respond
		s.mu.Unlock()

		status, payload := http.StatusOK, `{"ok":true,"result":true}`
		if respond != nil {
			status, payload = respond(method)
		}
		w.WriteHeader(status)
		_, _ = io.WriteString(w, payload)
	}
}

func newTestClient(t *testing.T, s *botServer) *Client {
	t.Helper()
	srv := httptest.NewServer(s.handler(t))
	t.Cleanup(srv.Close)
	c, err := NewClient("123:abc", WithBaseURL(srv.URL+"/"), WithHTTPClient(srv.Client()), WithRateLimit(0))
	require.NoError(t, err)
	return c
}

// ---------------------------------------------------------------------------
// NewClient
// ---------------------------------------------------------------------------

func TestNewClient_EmptyToken(t *testing.T) {
	_, err := NewClient("  ")
	require.Error(t, err)
}

func TestNewClient_DoesNotCallTelegram(t *testing.T) {
	s := &botServer{}
	c := newTestClient(t, s)
	require.Equal(t, "123:abc", c.api.Token)
	require.Empty(t, s.calls)
}

// ---------------------------------------------------------------------------
// SendText
// ---------------------------------------------------------------------------

func TestSendText_WithKeyboardAndReply(t *testing.T) {
	s := &botServer{}
	c := newTestClient(t, s)

	err := c.SendText(context.Background(), 42, "<b>hi</b>", domain.SendOptions{
		ParseMode:        domain.ParseModeHTML,
		ReplyToMessageID: 7,
		Keyboard: &domain.Keyboard{Rows: [][]domain.Button{
			{{Text: "Send contact", RequestContact: true}},
			{{Text: "Cancel"}},
		}},
	})
	require.NoError(t, err)
	require.Len(t, s.calls, 1)

	call := s.calls[0]
	require.Equal(t, "sendMessage", call.method)
	require.Equal(t, "42", call.params["chat_id"])
	require.Equal(t, "<b>hi</b>", call.params["text"])
	require.Equal(t, "HTML", call.params["parse_mode"])
	require.Equal(t, "7", call.params["reply_to_message_id"])
	require.Equal(t, "true", call.params["allow_sending_without_reply"])

	markup := call.jsonParam(t, "reply_markup").(map[string]any)
	require.Equal(t, true, markup["resize_keyboard"])
	rows := markup["keyboard"].([]any)
	require.Len(t, rows, 2)
	first := rows[0].([]any)[0].(map[string]any)
	require.Equal(t, true, first["request_contact"])
	second := rows[1].([]any)[0].(map[string]any)
	require.NotContains(t, second, "request_contact")
}

func TestSendText_PlainOmitsOptionalFields(t *testing.T) {
	s := &botServer{}
	c := newTestClient(t, s)

	require.NoError(t, c.SendText(context.Background(), 42, "hi", domain.SendOptions{}))
	params := s.calls[0].params
	require.NotContains(t, params, "reply_markup")
	require.NotContains(t, params, "parse_mode")
	require.NotContains(t, params, "reply_to_message_id")
}

func TestSendText_APIError(t *testing.T) {
	s := &botServer{respond: func(string) (int, string) {
		return http.StatusTooManyRequests, `{"ok":false,"error_code":429,"description":"Too Many Requests: retry after 3","parameters":{"retry_after":3}}`
	}}
	c := newTestClient(t, s)

	err := c.SendText(context.Background(), 42, "hi", domain.SendOptions{})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusTooManyRequests, apiErr.HTTPStatusCode())
	require.Equal(t, 3*time.Second, apiErr.RetryAfter)
	require.Equal(t, "sendMessage", apiErr.Method)
}

func TestSendText_BlockedByUser(t *testing.T) {
	s := &botServer{respond: func(string) (int, string) {
		return http.StatusForbidden, `{"ok":false,"error_code":403,"description":"Forbidden: bot was blocked by the user"}`
	}}
	c := newTestClient(t, s)

	err := c.SendText(context.Background(), 42, "hi", domain.SendOptions{})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusForbidden, apiErr.StatusCode)
	require.Contains(t, apiErr.Error(), "blocked")
}

func TestSendText_NonJSONErrorBody(t *testing.T) {
	s := &botServer{respond: func(string) (int, string) {
		return http.StatusBadGateway, "<html>bad gateway</html>"
	}}
	c := newTestClient(t, s)

	err := c.SendText(context.Background(), 42, "hi", domain.SendOptions{})
	require.ErrorContains(t, err, "telegram: sendMessage")
	var apiErr *APIError
	require.False(t, errors.As(err, &apiErr))
}

func TestCall_TransportErrorHidesToken(t *testing.T) {
	c, err := NewClient("123:abc", WithBaseURL("http://127.0.0.1:1"), WithRateLimit(0))
	require.NoError(t, err)

	err = c.SendText(context.Background(), 1, "hi", domain.SendOptions{})
	require.Error(t, err)
	require.NotContains(t, err.Error(), "123:abc")
}

func TestCall_HonoursContextCancellation(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(func() {
		close(release)
		srv.Close()
	})
	c, err := NewClient("123:abc", WithBaseURL(srv.URL), WithHTTPClient(srv.Client()), WithRateLimit(0))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err = c.SendText(ctx, 1, "hi", domain.SendOptions{})
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

// ---------------------------------------------------------------------------
// SendMediaGroup
// ---------------------------------------------------------------------------

func TestSendMediaGroup_Chunks(t *testing.T) {
	cases := []struct {
		name    string
		count   int
		methods []string
	}{
		{name: "single photo", count: 1, methods: []string{"sendPhoto"}},
		{name: "album", count: 3, methods: []string{"sendMediaGroup"}},
		{name: "two albums", count: 20, methods: []string{"sendMediaGroup", "sendMediaGroup"}},
		{name: "album and straggler", count: 11, methods: []string{"sendMediaGroup", "sendPhoto"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := &botServer{}
			c := newTestClient(t, s)
			media := make([]string, tc.count)
			for i := range media {
				media[i] = "file-" + string(rune('a'+i))
			}

			require.NoError(t, c.SendMediaGroup(context.Background(), 42, media))
			var methods []string
			for _, call := range s.calls {
				methods = append(methods, call.method)
			}
			require.Equal(t, tc.methods, methods)
		})
	}
}

func TestSendMediaGroup_Payload(t *testing.T) {
	s := &botServer{}
	c := newTestClient(t, s)

	require.NoError(t, c.SendMediaGroup(context.Background(), 42, []string{"p1", "p2"}))
	require.Equal(t, "42", s.calls[0].params["chat_id"])
	items := s.calls[0].jsonParam(t, "media").([]any)
	require.Len(t, items, 2)
	first := items[0].(map[string]any)
	require.Equal(t, "photo", first["type"])
	require.Equal(t, "p1", first["media"])
}

func TestSendMediaGroup_SinglePhotoByFileID(t *testing.T) {
	s := &botServer{}
	c := newTestClient(t, s)

	require.NoError(t, c.SendMediaGroup(context.Background(), 42, []string{"only"}))
	require.Equal(t, "sendPhoto", s.calls[0].method)
	require.Equal(t, "only", s.calls[0].params["photo"])
}

func TestSendMediaGroup_Empty(t *testing.T) {
	c := newTestClient(t, &botServer{})
	require.Error(t, c.SendMediaGroup(context.Background(), 42, nil))
}

// ---------------------------------------------------------------------------
// CopyMessage, GetUpdates, DeleteWebhook
// ---------------------------------------------------------------------------

func TestCopyMessage(t *testing.T) {
	s := &botServer{respond: func(string) (int, string) {
		return http.StatusOK, `{"ok":true,"result":{"message_id":99}}`
	}}
	c := newTestClient(t, s)

	require.NoError(t, c.CopyMessage(context.Background(), 777, -100, 55))
	require.Equal(t, "copyMessage", s.calls[0].method)
	require.Equal(t, "777", s.calls[0].params["chat_id"])
	require.Equal(t, "-100", s.calls[0].params["from_chat_id"])
	require.Equal(t, "55", s.calls[0].params["message_id"])
}

func TestGetUpdates(t *testing.T) {
	s := &botServer{respond: func(string) (int, string) {
		return http.StatusOK, `{"ok":true,"result":[
			{"update_id":10,"message":{"message_id":1,"from":{"id":5,"first_name":"U","username":"u"},"chat":{"id":5,"type":"private"},"date":1,"text":"hi"}},
			{"update_id":11}
		]}`
	}}
	c := newTestClient(t, s)

	updates, err := c.GetUpdates(context.Background(), 10, 30*time.Second)
	require.NoError(t, err)
	require.Len(t, updates, 2)
	require.Equal(t, int64(10), updates[0].UpdateID)
	require.Equal(t, "hi", updates[0].Message.Text)
	require.Equal(t, "u", updates[0].Message.SenderUsername())
	require.Nil(t, updates[1].Message)

	params := s.calls[0].params
	require.Equal(t, "10", params["offset"])
	require.Equal(t, "30", params["timeout"])
	require.Equal(t, []any{"message"}, s.calls[0].jsonParam(t, "allowed_updates"))
}

func TestGetUpdates_BadResult(t *testing.T) {
	s := &botServer{respond: func(string) (int, string) {
		return http.StatusOK, `{"ok":true,"result":{"not":"a list"}}`
	}}
	c := newTestClient(t, s)

	_, err := c.GetUpdates(context.Background(), 0, time.Second)
	require.ErrorContains(t, err, "telegram: getUpdates")
}

func TestDeleteWebhook(t *testing.T) {
	s := &botServer{}
	c := newTestClient(t, s)
	require.NoError(t, c.DeleteWebhook(context.Background()))
	require.Equal(t, "deleteWebhook", s.calls[0].method)
	require.NotContains(t, s.calls[0].params, "drop_pending_updates")
}

func TestCall_RateLimitRespectsContext(t *testing.T) {
	s := &botServer{}
	c := newTestClient(t, s)
	WithRateLimit(0.001)(c)

	require.NoError(t, c.DeleteWebhook(context.Background()))
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	err := c.DeleteWebhook(ctx)
	require.Error(t, err)
	require.Len(t, s.calls, 1)
}

// ---------------------------------------------------------------------------
// TokenFromParamStore
// ---------------------------------------------------------------------------

type fakeGetter struct {
	val  string
	err  error
	name string
}

func (f *fakeGetter) GetParameter(_ context.Context, name string) (string, error) {
	f.name = name
	return f.val, f.err
}

func TestTokenFromParamStore(t *testing.T) {
	g := &fakeGetter{val: `{"token":"123:abc"}`}
	token, err := TokenFromParamStore(context.Background(), g, " /seminar-bot/telegram-token ")
	require.NoError(t, err)
	require.Equal(t, "123:abc", token)
	require.Equal(t, "/seminar-bot/telegram-token", g.name)
}

func TestTokenFromParamStore_Errors(t *testing.T) {
	cases := []struct {
		name   string
		getter Getter
		param  string
	}{
		{name: "nil getter", getter: nil, param: "/p"},
		{name: "empty name", getter: &fakeGetter{}, param: " "},
		{name: "ssm error", getter: &fakeGetter{err: errors.New("denied")}, param: "/p"},
		{name: "not json", getter: &fakeGetter{val: "123:abc"}, param: "/p"},
		{name: "empty token", getter: &fakeGetter{val: `{"token":""}`}, param: "/p"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := TokenFromParamStore(context.Background(), tc.getter, tc.param)
			require.Error(t, err)
		})
	}
}
