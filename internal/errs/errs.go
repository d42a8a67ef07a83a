// Package errs defines the error taxonomy shared by all services.
// Every error carries a stable machine-readable kind next to its
// human-readable message, so clients can branch on the kind while the
// message stays free-form.
package errs

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error.
type Kind string

const (
	NotFound     Kind = "not_found"
	Conflict     Kind = "conflict"
	Validation   Kind = "validation"
	Unauthorized Kind = "unauthorized"
	RateLimited  Kind = "rate_limited"
	Internal     Kind = "internal"
)

// Error is a kinded error. It supports errors.As and %w wrapping.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// New returns a kinded error with the given message.
func New(kind Kind, message string) error {
	return &Error{Kind: kind, Message: message}
}

// Newf returns a kinded error with a formatted message.
func Newf(kind Kind, format string, args ...any) error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a kind and message to an underlying error.
func Wrap(kind Kind, message string, err error) error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf extracts the kind of err, unwrapping as needed. Errors without
// a kind report Internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// HTTPStatus maps an error to the HTTP status code of its kind.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case NotFound:
		return http.StatusNotFound
	case Conflict:
		return http.StatusConflict
	case Validation:
		return http.StatusBadRequest
	case Unauthorized:
		return http.StatusUnauthorized
	case RateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
