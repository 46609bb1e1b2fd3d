// Package apperr defines the error kinds surfaced to API clients.
package apperr

import (
	"errors"
	"net/http"
)

type Kind uint8

const (
	Unexpected Kind = iota
	Validation
	Conflict
	NotFound
	Unauthorized
	Forbidden
)

// GenericMessage is shown for every Unexpected failure.
const GenericMessage = "there was an error"

func (k Kind) String() string {
	switch k {
	case Validation:
		return "validation"
	case Conflict:
		return "conflict"
	case NotFound:
		return "not_found"
	case Unauthorized:
		return "unauthorized"
	case Forbidden:
		return "forbidden"
	default:
		return "unexpected"
	}
}

func (k Kind) Status() int {
	switch k {
	case Validation:
		return http.StatusBadRequest
	case Conflict:
		return http.StatusConflict
	case NotFound:
		return http.StatusNotFound
	case Unauthorized:
		return http.StatusUnauthorized
	case Forbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// Error carries a client-facing message. Err holds the cause and is never rendered.
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

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap turns an unexpected failure into an Unexpected error with a short
// operation description for the logs.
func Wrap(err error, op string) *Error {
	if err == nil {
		return nil
	}
	return &Error{Kind: Unexpected, Message: op, Err: err}
}

// KindOf returns the kind of the first *Error in err's chain, or Unexpected.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Unexpected
}

// PublicMessage returns the message safe to show to a client.
func PublicMessage(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Kind != Unexpected {
		return e.Message
	}
	return GenericMessage
}
