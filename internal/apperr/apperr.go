// Package apperr defines the error kinds the service layer reports and the
// HTTP layer maps to responses.
package apperr

import (
	"errors"
	"fmt"
)

// Kinds. Anything that does not unwrap to one of these is unexpected.
var (
	ErrNotFound       = errors.New("not found")
	ErrValidation     = errors.New("validation failed")
	ErrDuplicateEmail = errors.New("email already registered")
	ErrAuthentication = errors.New("authentication failed")
	ErrForbidden      = errors.New("forbidden")
	// ErrPrecondition marks a request that is well-formed but cannot run
	// because the tenant is missing required configuration.
	ErrPrecondition = errors.New("precondition failed")
)

// Error carries a human-readable message alongside its kind.
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Kind }

func newf(kind error, format string, args ...any) error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func NotFound(format string, args ...any) error {
	return newf(ErrNotFound, format, args...)
}

func Validation(format string, args ...any) error {
	return newf(ErrValidation, format, args...)
}

func DuplicateEmail(format string, args ...any) error {
	return newf(ErrDuplicateEmail, format, args...)
}

func Authentication(format string, args ...any) error {
	return newf(ErrAuthentication, format, args...)
}

func Forbidden(format string, args ...any) error {
	return newf(ErrForbidden, format, args...)
}

func Precondition(format string, args ...any) error {
	return newf(ErrPrecondition, format, args...)
}

// Message returns the user-facing message of the outermost *Error in the
// chain, or the kind's own text when err is a bare kind sentinel.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}

	return err.Error()
}
