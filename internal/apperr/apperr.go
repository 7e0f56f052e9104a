// Package apperr defines the error taxonomy shared by services and the HTTP layer
package apperr

import (
	"errors"
	"net/http"
)

type Kind uint8

const (
	Internal Kind = iota
	Validation
	NotFound
	Forbidden
	Conflict
	Unauthenticated
	ExpiredCode
	InvalidCode
	CodeMismatch
	Upstream
)

var kindNames = [...]string{
	Internal:        "internal",
	Validation:      "validation",
	NotFound:        "not_found",
	Forbidden:       "forbidden",
	Conflict:        "conflict",
	Unauthenticated: "unauthenticated",
	ExpiredCode:     "expired_code",
	InvalidCode:     "invalid_code",
	CodeMismatch:    "code_mismatch",
	Upstream:        "upstream",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}

	return "unknown"
}

// HTTPStatus maps a kind to the status code the API answers with
func (k Kind) HTTPStatus() int {
	switch k {
	case Validation, ExpiredCode, InvalidCode, CodeMismatch:
		return http.StatusBadRequest
	case NotFound:
		return http.StatusNotFound
	case Forbidden:
		return http.StatusForbidden
	case Conflict:
		return http.StatusConflict
	case Unauthenticated:
		return http.StatusUnauthorized
	case Upstream:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Error is a domain failure. Msg is safe to show to clients, Err is the
// underlying cause and is only ever logged.
type Error struct {
	Kind   Kind
	Msg    string
	Fields map[string]string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}

	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

func New(k Kind, msg string) *Error {
	return &Error{Kind: k, Msg: msg}
}

func Wrap(k Kind, msg string, err error) *Error {
	return &Error{Kind: k, Msg: msg, Err: err}
}

// Invalid builds a validation error carrying per-field messages
func Invalid(msg string, fields map[string]string) *Error {
	return &Error{Kind: Validation, Msg: msg, Fields: fields}
}

// KindOf reports the kind of the first *Error in err's chain. Anything that
// isn't an *Error is Internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}

	return Internal
}

// As is a shorthand for errors.As with an *Error target
func As(err error) (*Error, bool) {
	var e *Error
	ok := errors.As(err, &e)
	return e, ok
}
