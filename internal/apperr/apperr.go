// Package apperr holds the failure taxonomy shared by every pipeline stage.
//
// Message is always safe to show to the caller. Err keeps the underlying
// cause for logs only.
package apperr

import (
	"errors"
	"net/http"
)

type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindExtraction
	KindGeneration
)

const InternalMessage = "Internal server error"

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindExtraction:
		return "extraction"
	case KindGeneration:
		return "generation"
	default:
		return "internal"
	}
}

// HTTPStatus maps every kind to the status a front end responds with.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindValidation:
		return http.StatusBadRequest
	case KindExtraction, KindGeneration:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

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

func (e *Error) Unwrap() error {
	return e.Err
}

func Validation(message string) *Error {
	return &Error{Kind: KindValidation, Message: message}
}

func Extraction(message string, err error) *Error {
	return &Error{Kind: KindExtraction, Message: message, Err: err}
}

func Generation(message string, err error) *Error {
	return &Error{Kind: KindGeneration, Message: message, Err: err}
}

func Internal(err error) *Error {
	return &Error{Kind: KindInternal, Message: InternalMessage, Err: err}
}

// From returns err as *Error, coercing anything unclassified to an internal
// failure so no raw detail reaches the caller.
func From(err error) *Error {
	if err == nil {
		return nil
	}

	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}

	return Internal(err)
}
