package core

import (
	"errors"
	"net/http"
)

var (
	// ErrInvalidOptions indicates the caller supplied missing or insufficient input
	ErrInvalidOptions = NewError(http.StatusBadRequest, "Invalid options")

	// ErrNotImplemented indicates an operation that is deliberately not available
	ErrNotImplemented = NewError(http.StatusNotImplemented, "Not implemented")
)

// Error is a domain error that carries the HTTP status it maps to.
// Package-level sentinels are *Error values, so errors.Is matches by identity
// even after wrapping with fmt.Errorf("%w").
type Error struct {
	Status  int
	Message string
}

// NewError creates a status-carrying error
func NewError(status int, message string) *Error {
	return &Error{Status: status, Message: message}
}

func (e *Error) Error() string {
	return e.Message
}

// StatusCode returns the HTTP status of the first *Error in err's chain,
// or 500 when err carries none.
func StatusCode(err error) int {
	if err == nil {
		return http.StatusOK
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Status
	}
	return http.StatusInternalServerError
}

// Message returns the user-facing message of the first *Error in err's chain.
// ok is false when err carries no *Error, in which case the caller decides
// whether the raw text may be shown.
func Message(err error) (msg string, ok bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Message, true
	}
	return "", false
}
