// Package apperr defines the error taxonomy shared by handlers, repositories
// and the storage client. Handlers never inspect status codes; they return an
// *Error and pkg/response maps its kind to HTTP.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an error for response mapping.
type Kind int

const (
	// KindValidation is malformed or missing input (400).
	KindValidation Kind = iota
	// KindNotFound is a missing entity (404).
	KindNotFound
	// KindConflict is a unique-constraint violation (409).
	KindConflict
	// KindStore is an unexpected database failure (500).
	KindStore
	// KindStorage is an unexpected object-storage failure (500).
	KindStorage
	// KindConfig is unusable configuration; startup-fatal, 500 if it leaks
	// into a request.
	KindConfig
)

// Error carries a kind, a user-facing message and an optional cause.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

// Unwrap exposes the cause for errors.Is/As.
func (e *Error) Unwrap() error { return e.Err }

// New creates an error of the given kind.
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

// Wrap creates an error of the given kind with a cause.
func Wrap(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// Validation creates a 400-mapped error.
func Validation(msg string) *Error { return New(KindValidation, msg) }

// NotFound creates a 404-mapped error.
func NotFound(msg string) *Error { return New(KindNotFound, msg) }

// Conflict creates a 409-mapped error.
func Conflict(msg string) *Error { return New(KindConflict, msg) }

// Storef creates a store error wrapping the underlying database failure.
func Storef(err error, format string, args ...interface{}) *Error {
	return Wrap(KindStore, fmt.Sprintf(format, args...), err)
}

// Storagef creates a storage error wrapping the underlying transport failure.
func Storagef(err error, format string, args ...interface{}) *Error {
	return Wrap(KindStorage, fmt.Sprintf(format, args...), err)
}

// Config creates a configuration error.
func Config(msg string) *Error { return New(KindConfig, msg) }

// KindOf returns the kind of err, or KindStore for unclassified errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindStore
}

// Message returns the user-facing message of err without the wrapped cause,
// falling back to err.Error() for unclassified errors.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Msg
	}
	return err.Error()
}
