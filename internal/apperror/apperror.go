package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an Error for the HTTP edge.
type Kind string

const (
	KindAuth       Kind = "auth"
	KindValidation Kind = "validation"
	KindUpstream   Kind = "upstream"
	KindTransport  Kind = "transport"
)

// Message constants rendered to clients.
const (
	MsgWrongToken     = "Wrong API token"
	MsgMissingFields  = "Missing required fields"
	MsgInvalidBody    = "Invalid JSON body"
	MsgWeatherFailure = "Internal error while fetching weather data"
)

// Error carries the status code and client-facing message of a failed request.
// Err holds the underlying cause and is never rendered to clients.
type Error struct {
	Kind       Kind
	StatusCode int
	Message    string
	Err        error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s (%d): %s: %v", e.Kind, e.StatusCode, e.Message, e.Err)
	}
	return fmt.Sprintf("%s (%d): %s", e.Kind, e.StatusCode, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Auth returns a 403 for a shared-token mismatch.
func Auth() *Error {
	return &Error{Kind: KindAuth, StatusCode: http.StatusForbidden, Message: MsgWrongToken}
}

// Validation returns a 400 with the given message.
func Validation(message string) *Error {
	return &Error{Kind: KindValidation, StatusCode: http.StatusBadRequest, Message: message}
}

// Upstream propagates a provider's status code and raw body.
func Upstream(status int, body string) *Error {
	return &Error{Kind: KindUpstream, StatusCode: status, Message: body}
}

// Transport returns the generic 500 for a failed weather fetch. cause is kept for logs.
func Transport(cause error) *Error {
	return &Error{Kind: KindTransport, StatusCode: http.StatusInternalServerError, Message: MsgWeatherFailure, Err: cause}
}

// From extracts an *Error from err's chain. Anything else becomes a transport error.
func From(err error) *Error {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return Transport(err)
}
