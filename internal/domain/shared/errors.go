package shared

import "errors"

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// Is matches any DomainError with the same code, so errors built with
// ValidationError still satisfy errors.Is(err, ErrInvalidInput).
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	return ok && t.Code == e.Code
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common domain errors
var (
	ErrNotFound      = NewDomainError("NOT_FOUND", "Resource not found")
	ErrInvalidInput  = NewDomainError("INVALID_INPUT", "Invalid input provided")
	ErrUnauthorized  = NewDomainError("UNAUTHORIZED", "Not authorized to perform this action")
	ErrLoginRequired = NewDomainError("LOGIN_REQUIRED", "Your session has expired. Please login again.")
	ErrForbidden     = NewDomainError("FORBIDDEN", "Access to this resource is forbidden")
	ErrConflict      = NewDomainError("CONFLICT", "Operation conflicts with an operation in progress")
	ErrBackend       = NewDomainError("BACKEND_ERROR", "The store backend rejected the request")
	ErrUnavailable   = NewDomainError("BACKEND_UNAVAILABLE", "The store backend is unavailable")
)

// MessageCarrier is implemented by errors that carry a human-readable message
// supplied by the store backend.
type MessageCarrier interface {
	BackendMessage() string
}

// BackendMessage returns the backend-provided message carried by err, or
// fallback when err carries none.
func BackendMessage(err error, fallback string) string {
	var mc MessageCarrier
	if errors.As(err, &mc) {
		if msg := mc.BackendMessage(); msg != "" {
			return msg
		}
	}
	return fallback
}

// IsUnauthorized reports whether err means the bearer token was rejected.
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}

// ValidationError reports an input problem with a user-facing message.
func ValidationError(message string) *DomainError {
	return NewDomainError(ErrInvalidInput.Code, message)
}
