// Package handler adapts API Gateway webhook calls from Telegram to the dispatcher.
package handler

import (
	"context"
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/google/uuid"

	"seminar-bot/internal/domain"
	"seminar-bot/internal/integrations/telegram"
	"seminar-bot/internal/usecase"
)

const (
	correlationHeader = "X-Correlation-Id"
	secretHeader      = "X-Telegram-Bot-Api-Secret-Token"
	codeUnauthorized  = "UNAUTHORIZED"
	codeNotAllowed    = "METHOD_NOT_ALLOWED"
)

// UpdateHandler applies one Telegram update.
type UpdateHandler interface {
	Handle(ctx context.Context, upd domain.Update) error
}

type ackResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type Handler struct {
	uc     UpdateHandler
	secret string
	logger *slog.Logger
}

// NewHandler creates the webhook handler. An empty secret disables the secret token
// check.
func NewHandler(uc UpdateHandler, secret string, logger *slog.Logger) (*Handler, error) {
	if uc == nil {
		return nil, errors.New("handler: update handler must not be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{uc: uc, secret: secret, logger: logger}, nil
}

// Handle answers every well-formed, authorized update with 200 so Telegram does not
// redeliver it; processing failures are reported in the body and the logs only.
func (h *Handler) Handle(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	correlationID := header(req.Headers, correlationHeader)
	if correlationID == "" {
		correlationID = uuid.NewString()
	}
	logger := h.logger.With("correlation_id", correlationID)

	if req.HTTPMethod != "" && req.HTTPMethod != http.MethodPost {
		return respond(http.StatusMethodNotAllowed, correlationID, errorResponse{Error: codeNotAllowed}), nil
	}
	if !h.authorized(req.Headers) {
		logger.WarnContext(ctx, "webhook secret mismatch")
		return respond(http.StatusUnauthorized, correlationID, errorResponse{Error: codeUnauthorized}), nil
	}

	body := req.Body
	if req.IsBase64Encoded {
		decoded, err := base64.StdEncoding.DecodeString(body)
		if err != nil {
			return respond(http.StatusBadRequest, correlationID, errorResponse{Error: string(usecase.ErrorInvalidInput)}), nil
		}
		body = string(decoded)
	}

	upd, err := telegram.DecodeUpdate([]byte(body))
	if err != nil {
		logger.WarnContext(ctx, "invalid update body", "err", err)
		return respond(http.StatusBadRequest, correlationID, errorResponse{Error: string(usecase.ErrorInvalidInput)}), nil
	}

	if err := h.uc.Handle(ctx, upd); err != nil {
		code := usecase.CodeOf(err)
		logger.ErrorContext(ctx, "update failed",
			"update_id", upd.UpdateID, "code", code, "reason", usecase.ReasonOf(err), "err", err)
		return respond(http.StatusOK, correlationID, ackResponse{OK: false, Error: string(code)}), nil
	}
	return respond(http.StatusOK, correlationID, ackResponse{OK: true}), nil
}

func (h *Handler) authorized(headers map[string]string) bool {
	if h.secret == "" {
		return true
	}
	got := header(headers, secretHeader)
	return subtle.ConstantTimeCompare([]byte(got), []byte(h.secret)) == 1
}

func header(headers map[string]string, name string) string {
	if v, ok := headers[name]; ok {
		return strings.TrimSpace(v)
	}
	for k, v := range headers {
		if strings.EqualFold(k, name) {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

func respond(status int, correlationID string, payload any) events.APIGatewayProxyResponse {
	body, err := json.Marshal(payload)
	if err != nil {
		body = []byte(`{"error":"INTERNAL_ERROR"}`)
		status = http.StatusInternalServerError
	}
	return events.APIGatewayProxyResponse{
		StatusCode: status,
		Headers: map[string]string{
			"Content-Type":    "application/json",
			correlationHeader: correlationID,
		},
		Body: string(body),
	}
}
