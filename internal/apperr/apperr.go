// Package apperr defines the error kinds every operation reports through.
//
// Services return errors built by the constructors below; callers classify
// them with errors.Is against the Err* sentinels and read the client-safe
// message with Message.
package apperr

import (
	"errors"
	"fmt"
)

var (
	ErrValidation      = errors.New("validation_error")
	ErrConflict        = errors.New("conflict")
	ErrUnauthenticated = errors.New("authentication_error")
	ErrForbidden       = errors.New("authorization_error")
	ErrNotFound        = errors.New("not_found")
	ErrRateLimited     = errors.New("rate_limited")
)

// Error carries a kind sentinel and a message that is safe to show clients.
type Error struct {
	kind    error
	message string
}

func (e *Error) Error() string {
	return e.kind.Error() + ": " + e.message
}

func (e *Error) Unwrap() error {
	return e.kind
}

func newError(kind error, format string, args ...any) error {
	return &Error{kind: kind, message: fmt.Sprintf(format, args...)}
}

func Validation(format string, args ...any) error {
	return newError(ErrValidation, format, args...)
}

func Conflict(format string, args ...any) error {
	return newError(ErrConflict, format, args...)
}

func Unauthenticated(format string, args ...any) error {
	return newError(ErrUnauthenticated, format, args...)
}

func Forbidden(format string, args ...any) error {
	return newError(ErrForbidden, format, args...)
}

func NotFound(format string, args ...any) error {
	return newError(ErrNotFound, format, args...)
}

func RateLimited(format string, args ...any) error {
	return newError(ErrRateLimited, format, args...)
}

// Code returns the machine-readable kind of err, or "internal_error".
func Code(err error) string {
	for _, kind := range []error{ErrValidation, ErrConflict, ErrUnauthenticated, ErrForbidden, ErrNotFound, ErrRateLimited} {
		if errors.Is(err, kind) {
			return kind.Error()
		}
	}
	return "internal_error"
}

// Message returns the client-safe message of the outermost *Error in err's
// chain. Unclassified errors yield a generic message.
func Message(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.message
	}
	return "internal server error"
}
