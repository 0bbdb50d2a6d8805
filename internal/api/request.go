package api

import (
	"net/http"
	"strings"
)

const (
	HeaderRequestID   = "X-Request-ID"
	HeaderContentType = "Content-Type"
	HeaderLocation    = "Location"

	ContentTypeJSON = "application/json"

	// MaxRedirects is how many times a single request may be replayed
	// after a temporary redirect.
	MaxRedirects = 1
)

// Request describes one outbound call. It is passed by value; a replay is
// a copy with Attempt incremented.
type Request struct {
	Method string
	Path   string // relative to the base url, or absolute
	Query  map[string]string

	// Body is sent as JSON. Form is sent as multipart form data and takes
	// precedence over Body.
	Body any
	Form map[string]string

	// Result receives the decoded body of a successful response
	Result any

	Attempt int
}

func (r Request) IsMultipart() bool {
	return len(r.Form) > 0
}

func (r Request) GetMethod() string {
	if len(r.Method) == 0 {
		return http.MethodGet
	}
	return strings.ToUpper(r.Method)
}

func (r Request) CanReplay() bool {
	return r.Attempt < MaxRedirects
}

// Replay returns the request retargeted at location for its next attempt.
func (r Request) Replay(location string) Request {
	next := r
	next.Path = location
	if strings.Contains(location, "?") {
		// the location already carries the query
		next.Query = nil
	}
	next.Attempt = r.Attempt + 1
	return next
}

// Response is the subset of the HTTP response callers care about.
type Response struct {
	Status    int
	Header    http.Header
	Body      []byte
	URL       string
	RequestID string
	Attempt   int
}

func isReplayableRedirect(status int) bool {
	return status == http.StatusTemporaryRedirect || status == http.StatusPermanentRedirect
}
