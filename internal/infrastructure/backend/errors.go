package backend

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/minimart/storefront/internal/domain/shared"
)

// APIError is a non-2xx response from the store backend.
type APIError struct {
	StatusCode int
	Message    string
	Method     string
	Route      string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend %s %s: status %d", e.Method, e.Route, e.StatusCode)
	}
	return fmt.Sprintf("backend %s %s: status %d: %s", e.Method, e.Route, e.StatusCode, e.Message)
}

// Unwrap maps the status code to the matching domain error, so callers can
// use errors.Is(err, shared.ErrUnauthorized) and friends.
func (e *APIError) Unwrap() error {
	switch {
	case e.StatusCode == http.StatusUnauthorized:
		return shared.ErrUnauthorized
	case e.StatusCode == http.StatusForbidden:
		return shared.ErrForbidden
	case e.StatusCode == http.StatusNotFound:
		return shared.ErrNotFound
	case e.StatusCode == http.StatusConflict:
		return shared.ErrConflict
	case e.StatusCode == http.StatusBadRequest, e.StatusCode == http.StatusUnprocessableEntity:
		return shared.ErrInvalidInput
	case e.StatusCode >= 500:
		return shared.ErrUnavailable
	default:
		return shared.ErrBackend
	}
}

// DecodeError is a 2xx response whose body could not be decoded.
type DecodeError struct {
	Method string
	Route  string
	Status int
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("backend %s %s: decoding status %d response: %v", e.Method, e.Route, e.Status, e.Err)
}

// Unwrap reports the failure as shared.ErrBackend and keeps the decoder error.
func (e *DecodeError) Unwrap() []error {
	return []error{shared.ErrBackend, e.Err}
}

// BackendMessage returns the message the backend supplied, if any.
func (e *APIError) BackendMessage() string {
	return e.Message
}

// parseErrorMessage extracts a human-readable message from an error body.
// The backend is not consistent about the field name, so message, error and
// msg are tried in that order. Non-JSON bodies are used verbatim when short.
func parseErrorMessage(body []byte) string {
	var fields struct {
		Message json.RawMessage `json:"message"`
		Error   json.RawMessage `json:"error"`
		Msg     json.RawMessage `json:"msg"`
	}
	if err := json.Unmarshal(body, &fields); err != nil {
		text := strings.TrimSpace(string(body))
		if len(text) > 200 || strings.HasPrefix(text, "<") {
			return ""
		}
		return text
	}
	for _, raw := range []json.RawMessage{fields.Message, fields.Error, fields.Msg} {
		var s string
		if json.Unmarshal(raw, &s) == nil && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s)
		}
	}
	return ""
}
