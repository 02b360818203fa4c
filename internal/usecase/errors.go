package usecase

import (
	"errors"
	"fmt"
)

// ErrorCode classifies why an update could not be applied.
type ErrorCode string

const (
	// ErrorInvalidInput: the update cannot be attributed to a conversation.
	ErrorInvalidInput ErrorCode = "INVALID_INPUT"
	// ErrorDelivery: Telegram rejected a send; the session was not advanced.
	ErrorDelivery ErrorCode = "DELIVERY_ERROR"
	// ErrorStore: the session or registration store failed.
	ErrorStore    ErrorCode = "STORE_ERROR"
	ErrorInternal ErrorCode = "INTERNAL_ERROR"
)

// Error is returned by Dispatcher.Handle. Reason is a stable snake_case tag for logs.
type Error struct {
	Code   ErrorCode
	Reason string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err == nil {
		return fmt.Sprintf("usecase: %s (%s)", e.Code, e.Reason)
	}
	return fmt.Sprintf("usecase: %s (%s): %v", e.Code, e.Reason, e.Err)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// CodeOf returns the code carried by err, or ErrorInternal for foreign errors.
func CodeOf(err error) ErrorCode {
	var uerr *Error
	if errors.As(err, &uerr) && uerr != nil {
		return uerr.Code
	}
	return ErrorInternal
}

// ReasonOf returns the reason carried by err, or "".
func ReasonOf(err error) string {
	var uerr *Error
	if errors.As(err, &uerr) && uerr != nil {
		return uerr.Reason
	}
	return ""
}

func newError(code ErrorCode, reason string, err error) *Error {
	return &Error{Code: code, Reason: reason, Err: err}
}
