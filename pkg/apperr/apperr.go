package apperr

import (
	"errors"
	"net/http"
)

// Kind classifies a domain error so the HTTP boundary can map it to a status
// code without inspecting error text.
type Kind int

const (
	Validation Kind = iota
	Unauthenticated
	Forbidden
	NotFound
	Conflict
	InvalidTransition
	IncompleteApprovalChain
	RateLimited
	Store
)

// Error is a domain error carrying a classification and a client-safe message.
type Error struct {
	Kind    Kind
	Message string
	Err     error // underlying cause, never shown to clients
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a domain error with a client-facing message.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap attaches a cause to a domain error. The cause is kept for logging but
// is not part of the client-facing message.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf extracts the Kind from an error chain. Unclassified errors are
// treated as Store failures.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Store
}

// HTTPStatus maps an error to the status code the boundary should respond with.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case Validation, InvalidTransition, IncompleteApprovalChain:
		return http.StatusBadRequest
	case Unauthenticated:
		return http.StatusUnauthorized
	case Forbidden:
		return http.StatusForbidden
	case NotFound:
		return http.StatusNotFound
	case Conflict:
		return http.StatusConflict
	case RateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// ClientMessage returns the message safe to show to API clients. Store
// failures are replaced with a generic message so internal error text never
// leaks.
func ClientMessage(err error) string {
	if KindOf(err) == Store {
		return "Internal server error"
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}
