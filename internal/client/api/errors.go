package api

import (
	"encoding/json"
	"errors"
	"fmt"

	apperrors "focusblock/internal/errors"
)

// Sentinels for errors.Is checks. The controller decides how to react by
// category, never by HTTP status.
var (
	ErrConflict          = errors.New("another session is already active")
	ErrInvalidTransition = errors.New("invalid session transition")
	ErrInvalidInput      = errors.New("invalid input")
	ErrNotFound          = errors.New("session not found")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrNetwork           = errors.New("network error")
)

// APIError carries the server's structured error body. Unwrap maps the
// wire code to a sentinel so callers can use errors.Is.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
	Details    json.RawMessage
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return e.Code
}

func (e *APIError) Unwrap() error {
	switch e.Code {
	case apperrors.CodeConflict:
		return ErrConflict
	case apperrors.CodeInvalidTransition:
		return ErrInvalidTransition
	case apperrors.CodeInvalidInput:
		return ErrInvalidInput
	case apperrors.CodeNotFound:
		return ErrNotFound
	case apperrors.CodeUnauthorized:
		return ErrUnauthorized
	}
	return nil
}

type errorEnvelope struct {
	Error struct {
		Code    string          `json:"code"`
		Message string          `json:"message"`
		Details json.RawMessage `json:"details"`
	} `json:"error"`
}

func parseAPIError(statusCode int, raw []byte) error {
	var envelope errorEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil || envelope.Error.Code == "" {
		return &APIError{
			StatusCode: statusCode,
			Code:       apperrors.CodeInternal,
			Message:    fmt.Sprintf("unexpected response (status %d)", statusCode),
		}
	}
	return &APIError{
		StatusCode: statusCode,
		Code:       envelope.Error.Code,
		Message:    envelope.Error.Message,
		Details:    envelope.Error.Details,
	}
}
