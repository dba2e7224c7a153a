// Package apperrors classifies failures into the categories the API
// reports to clients and maps each category to an HTTP status.
package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind is the client-facing category of an error. Its string value is the
// "error" field of the response envelope.
type Kind string

const (
	KindValidation      Kind = "Validation failed"
	KindUnauthorized    Kind = "Unauthorized"
	KindForbidden       Kind = "Forbidden"
	KindNotFound        Kind = "Not Found"
	KindConflict        Kind = "Conflict"
	KindTooManyRequests Kind = "Too Many Requests"
	KindInternal        Kind = "Internal Server Error"
)

// HTTPStatus returns the status code for the kind.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindValidation:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindTooManyRequests:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// Error is a classified error with a client-safe message and an optional
// underlying cause.
type Error struct {
	Kind    Kind
	Message string
	cause   error
	generic bool
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.cause
}

// Is reports whether target is the generic sentinel of e's kind, so
// errors.Is(err, ErrNotFound) matches every not-found error while specific
// sentinels only match themselves.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.generic && t.Kind == e.Kind
}

// HTTPStatus returns the status code for the error's kind.
func (e *Error) HTTPStatus() int {
	return e.Kind.HTTPStatus()
}

var (
	ErrValidation      = &Error{Kind: KindValidation, Message: "validation failed", generic: true}
	ErrUnauthorized    = &Error{Kind: KindUnauthorized, Message: "unauthorized", generic: true}
	ErrForbidden       = &Error{Kind: KindForbidden, Message: "forbidden", generic: true}
	ErrNotFound        = &Error{Kind: KindNotFound, Message: "not found", generic: true}
	ErrConflict        = &Error{Kind: KindConflict, Message: "conflict", generic: true}
	ErrTooManyRequests = &Error{Kind: KindTooManyRequests, Message: "too many requests", generic: true}
	ErrInternal        = &Error{Kind: KindInternal, Message: "internal error", generic: true}
)

func Validation(msg string) *Error {
	return &Error{Kind: KindValidation, Message: msg}
}

func Validationf(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func Unauthorized(msg string) *Error {
	return &Error{Kind: KindUnauthorized, Message: msg}
}

func Forbidden(msg string) *Error {
	return &Error{Kind: KindForbidden, Message: msg}
}

func NotFound(msg string) *Error {
	return &Error{Kind: KindNotFound, Message: msg}
}

func Conflict(msg string) *Error {
	return &Error{Kind: KindConflict, Message: msg}
}

func TooManyRequests(msg string) *Error {
	return &Error{Kind: KindTooManyRequests, Message: msg}
}

// Internal wraps cause as an internal error. The message is never shown to
// clients outside development.
func Internal(msg string, cause error) *Error {
	return &Error{Kind: KindInternal, Message: msg, cause: cause}
}

// Wrap attaches cause to a new error of the given kind.
func Wrap(err error, kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg, cause: err}
}

// KindOf returns the kind of the first *Error in err's chain, or
// KindInternal when there is none.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// MessageOf returns the client-safe message of the first *Error in err's
// chain, or fallback.
func MessageOf(err error, fallback string) string {
	var appErr *Error
	if errors.As(err, &appErr) && appErr.Kind != KindInternal {
		return appErr.Message
	}
	return fallback
}
