package errors

import "net/http"

// Wire error codes shared with the client.
const (
	CodeConflict          = "conflict"
	CodeInvalidTransition = "invalid_transition"
	CodeInvalidInput      = "invalid_input"
	CodeNotFound          = "not_found"
	CodeUnauthorized      = "unauthorized"
	CodeInternal          = "internal_error"
)

type APIError struct {
	Status  int         `json:"-"`
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

func (e *APIError) Error() string {
	return e.Message
}

func New(status int, code, message string) *APIError {
	return &APIError{
		Status:  status,
		Code:    code,
		Message: message,
	}
}

func Internal(message string) *APIError {
	if message == "" {
		message = "internal server error"
	}
	return New(http.StatusInternalServerError, CodeInternal, message)
}

func InvalidInput(message string) *APIError {
	return New(http.StatusBadRequest, CodeInvalidInput, message)
}

func Unauthorized(message string) *APIError {
	if message == "" {
		message = "unauthorized"
	}
	return New(http.StatusUnauthorized, CodeUnauthorized, message)
}

func NotFound(message string) *APIError {
	return New(http.StatusNotFound, CodeNotFound, message)
}

func Conflict(message string, details interface{}) *APIError {
	err := New(http.StatusConflict, CodeConflict, message)
	err.Details = details
	return err
}

// InvalidTransition marks a state-machine guard violation: the session is
// not in a status the requested operation accepts.
func InvalidTransition(message string, details interface{}) *APIError {
	err := New(http.StatusUnprocessableEntity, CodeInvalidTransition, message)
	err.Details = details
	return err
}
