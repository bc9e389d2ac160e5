package util

import (
	"fmt"
	"net/http"

	"github.com/pkg/errors"
)

type ErrorKind int

const (
	KindInternal ErrorKind = iota
	KindValidation
	KindBusiness
	KindUnauthorized
	KindForbidden
	KindNotFound
)

// FieldError is one entry of a validation failure.
type FieldError struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// Error is a classified failure that the HTTP layer turns into a response.
type Error struct {
	Kind    ErrorKind
	Message string
	Details any
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Status maps the error kind to an HTTP status code.
func (e *Error) Status() int {
	switch e.Kind {
	case KindValidation, KindBusiness:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func Invalid(fields []FieldError) *Error {
	return &Error{Kind: KindValidation, Message: "Validation failed", Details: fields}
}

func BadRequest(message string) *Error {
	return &Error{Kind: KindBusiness, Message: message}
}

func BadRequestWith(message string, details any) *Error {
	return &Error{Kind: KindBusiness, Message: message, Details: details}
}

func Unauthorized(message string) *Error {
	return &Error{Kind: KindUnauthorized, Message: message}
}

func Forbidden(message string) *Error {
	return &Error{Kind: KindForbidden, Message: message}
}

func NotFound(message string) *Error {
	return &Error{Kind: KindNotFound, Message: message}
}

// Internal wraps an unexpected failure. Its cause is logged, never shown.
func Internal(err error, context string) *Error {
	return &Error{Kind: KindInternal, Message: "Something went wrong", Err: errors.Wrap(err, context)}
}

// AsError returns the classified error in err's chain, or an internal error.
func AsError(err error) *Error {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return &Error{Kind: KindInternal, Message: "Something went wrong", Err: err}
}

// IsKind reports whether err is classified as kind.
func IsKind(err error, kind ErrorKind) bool {
	var appErr *Error
	return errors.As(err, &appErr) && appErr.Kind == kind
}
