package openai

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// fakeGetter is a minimal paramstore.Getter stub for use within this package.
type fakeGetter struct {
	val   string
	err   error
	calls int
}

func (f *fakeGetter) GetParameter(_ context.Context, _ string) (string, error) {
	f.calls++
	return f.val, f.err
}

func newTestClient(t *testing.T, srv *httptest.Server, opts ...Option) *Client {
	t.Helper()
	opts = append([]Option{WithBaseURL(srv.URL), WithHTTPClient(srv.Client())}, opts...)
	c, err := NewClient(&fakeGetter{val: `{"token":"sk-test"}`}, "/seminar-bot/open-ai-token", opts...)
	require.NoError(t, err)
	return c
}

func respondWith(status int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}
}

// ---------------------------------------------------------------------------
// NewClient
// ---------------------------------------------------------------------------

func TestNewClient_Validation(t *testing.T) {
	_, err := NewClient(nil, "/p")
	require.ErrorContains(t, err, "nil")

	_, err = NewClient(&fakeGetter{}, " ")
	require.ErrorContains(t, err, "token parameter")

	c, err := NewClient(&fakeGetter{}, "/p", WithHTTPClient(nil))
	require.NoError(t, err)
	require.Equal(t, defaultBaseURL, c.baseURL)
	require.NotNil(t, c.httpClient)
}

func TestModerationURL(t *testing.T) {
	cases := []struct {
		base string
		want string
	}{
		{"https://api.openai.com/v1", "https://api.openai.com/v1/moderations"},
		{"https://api.openai.com/v1/", "https://api.openai.com/v1/moderations"},
		{"http://localhost:8080", "http://localhost:8080/v1/moderations"},
		{"", "https://api.openai.com/v1/moderations"},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, moderationURL(tc.base), "base=%q", tc.base)
	}
}

// ---------------------------------------------------------------------------
// Client.Moderate
// ---------------------------------------------------------------------------

func TestClient_Moderate_RequestShape(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/moderations", r.URL.Path)
		require.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		var req moderationRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "omni-moderation-latest", req.Model)
		require.Equal(t, "When does the seminar start?", req.Input)
		_, _ = io.WriteString(w, `{"results":[{"flagged":false}]}`)
	}))
	defer srv.Close()
	c := newTestClient(t, srv, WithModel("omni-moderation-latest"))

	flagged, err := c.Moderate(context.Background(), "When does the seminar start?")
	require.NoError(t, err)
	require.False(t, flagged)
}

func TestClient_Moderate_Flagged(t *testing.T) {
	srv := httptest.NewServer(respondWith(http.StatusOK, `{"results":[{"flagged":true,"categories":{"harassment":true}}]}`))
	defer srv.Close()
	c := newTestClient(t, srv)

	flagged, err := c.Moderate(context.Background(), "some unsafe content")
	require.NoError(t, err)
	require.True(t, flagged)
}

func TestClient_Moderate_Categories(t *testing.T) {
	srv := httptest.NewServer(respondWith(http.StatusOK, `{"results":[{"flagged":true,"categories":{"harassment":true,"violence":false}}]}`))
	defer srv.Close()

	c := newTestClient(t, srv, WithCategories("violence"))
	flagged, err := c.Moderate(context.Background(), "x")
	require.NoError(t, err)
	require.False(t, flagged)

	c = newTestClient(t, srv, WithCategories("violence", "harassment"))
	flagged, err = c.Moderate(context.Background(), "x")
	require.NoError(t, err)
	require.True(t, flagged)
}

func TestClient_Moderate_StatusErrors(t *testing.T) {
	for _, status := range []int{http.StatusTooManyRequests, http.StatusInternalServerError} {
		srv := httptest.NewServer(respondWith(status, `{"error":"nope"}`))
		c := newTestClient(t, srv)

		_, err := c.Moderate(context.Background(), "hello")
		var statusErr *HTTPStatusError
		require.ErrorAs(t, err, &statusErr)
		require.Equal(t, status, statusErr.HTTPStatusCode())
		srv.Close()
	}
}

func TestClient_Moderate_MalformedResponse(t *testing.T) {
	srv := httptest.NewServer(respondWith(http.StatusOK, `not-json`))
	defer srv.Close()
	c := newTestClient(t, srv)

	_, err := c.Moderate(context.Background(), "hello")
	require.ErrorContains(t, err, "decode")
}

func TestClient_Moderate_EmptyResults(t *testing.T) {
	srv := httptest.NewServer(respondWith(http.StatusOK, `{"results":[]}`))
	defer srv.Close()
	c := newTestClient(t, srv)

	_, err := c.Moderate(context.Background(), "hello")
	require.ErrorContains(t, err, "no results")
}

func TestClient_Moderate_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(100 * time.Millisecond)
		_, _ = io.WriteString(w, `{"results":[{"flagged":false}]}`)
	}))
	defer srv.Close()
	c := newTestClient(t, srv, WithHTTPClient(&http.Client{Timeout: 10 * time.Millisecond}))

	_, err := c.Moderate(context.Background(), "hello")
	require.Error(t, err)
}

// ---------------------------------------------------------------------------
// API token
// ---------------------------------------------------------------------------

func TestClient_APIKeyErrors(t *testing.T) {
	cases := []struct {
		name   string
		getter *fakeGetter
		want   string
	}{
		{name: "getter error", getter: &fakeGetter{err: errors.New("denied")}, want: "fetch token"},
		{name: "malformed json", getter: &fakeGetter{val: "sk-raw"}, want: "unmarshal"},
		{name: "missing token", getter: &fakeGetter{val: `{"other":"x"}`}, want: "empty"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, err := NewClient(tc.getter, "/p", WithBaseURL("http://127.0.0.1:1"))
			require.NoError(t, err)
			_, err = c.Moderate(context.Background(), "hello")
			require.ErrorContains(t, err, tc.want)
		})
	}
}

func TestClient_ReadsTokenPerCall(t *testing.T) {
	srv := httptest.NewServer(respondWith(http.StatusOK, `{"results":[{"flagged":false}]}`))
	defer srv.Close()
	g := &fakeGetter{val: `{"token":"sk-test"}`}
	c, err := NewClient(g, "/p", WithBaseURL(srv.URL), WithHTTPClient(srv.Client()))
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		_, err := c.Moderate(context.Background(), "hello")
		require.NoError(t, err)
	}
	require.Equal(t, 2, g.calls)
}
