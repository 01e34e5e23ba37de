// Package apperr classifies failures so the HTTP boundary can turn them into
// a status code and a message without inspecting driver errors.
package apperr

import (
	"errors"
	"net/http"
)

type Kind int

const (
	KindUpstream Kind = iota
	KindNotFound
	KindValidation
	KindUnauthorized
	KindForbidden
)

type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil && e.Message != "" {
		return e.Message + ": " + e.Err.Error()
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func NotFound(message string) *Error {
	return &Error{Kind: KindNotFound, Message: message}
}

func Validation(message string) *Error {
	return &Error{Kind: KindValidation, Message: message}
}

func Unauthorized(message string) *Error {
	return &Error{Kind: KindUnauthorized, Message: message}
}

func Forbidden(message string) *Error {
	return &Error{Kind: KindForbidden, Message: message}
}

// Upstream wraps a store or provider failure. The message is logged, never
// returned to clients.
func Upstream(message string, err error) *Error {
	return &Error{Kind: KindUpstream, Message: message, Err: err}
}

// KindOf reports the kind of err; unclassified errors are upstream failures.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUpstream
}

func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// Public returns the HTTP status, a machine code and the client-facing message.
func Public(err error) (int, string, string) {
	var e *Error
	if !errors.As(err, &e) || e.Kind == KindUpstream {
		return http.StatusInternalServerError, "internal_error", "internal error"
	}
	switch e.Kind {
	case KindNotFound:
		return http.StatusNotFound, "not_found", e.Message
	case KindValidation:
		return http.StatusBadRequest, "validation_failed", e.Message
	case KindUnauthorized:
		return http.StatusUnauthorized, "unauthorized", e.Message
	case KindForbidden:
		return http.StatusForbidden, "forbidden", e.Message
	default:
		return http.StatusInternalServerError, "internal_error", "internal error"
	}
}
