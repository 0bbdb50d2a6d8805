package api

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrUnauthorized classifies a 401 from the backend. The session has
	// already been told about it by the time the caller sees this error.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrRedirectLimit is returned when a replayed request is redirected again.
	ErrRedirectLimit = errors.New("redirect limit reached")
)

// APIError carries everything needed to diagnose a failed call.
type APIError struct {
	Status    int
	Detail    string
	Body      []byte
	Method    string
	URL       string
	RequestID string
	Err       error
}

func (e *APIError) Error() string {
	msg := fmt.Sprintf("%s %s: %d %s", e.Method, e.URL, e.Status, http.StatusText(e.Status))
	if len(e.Detail) > 0 {
		msg = fmt.Sprintf("%s: %s", msg, e.Detail)
	}
	return msg
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// Message returns the server supplied detail, or the fallback when the
// server did not send one.
func (e *APIError) Message(fallback string) string {
	if len(e.Detail) > 0 {
		return e.Detail
	}
	return fallback
}

// StatusOf returns the HTTP status behind err, or 0 if err did not come
// from a response.
func StatusOf(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

// RequestIDOf returns the id of the request behind err, or "" if err did
// not come from a response.
func RequestIDOf(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.RequestID
	}
	return ""
}

// DetailOf returns the server detail behind err, or fallback.
func DetailOf(err error, fallback string) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message(fallback)
	}
	return fallback
}
