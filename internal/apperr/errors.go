// Package apperr defines the error taxonomy shared by repositories, services
// and the state controller.
package apperr

import (
	"errors"
	"fmt"
)

// Sentinel kinds. Match them with errors.Is.
var (
	// ErrNotFound covers both "absent" and "owned by someone else".
	ErrNotFound   = errors.New("not found")
	ErrValidation = errors.New("validation failed")
	ErrConflict   = errors.New("conflict")
	ErrStore      = errors.New("store failure")
)

// Error carries a kind, a human-readable message and an optional cause.
type Error struct {
	Kind error
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	return e.Kind.Error()
}

// Is reports whether target is the kind of e.
func (e *Error) Is(target error) bool {
	return target == e.Kind
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NotFound builds an ErrNotFound error with the given message.
func NotFound(format string, args ...any) error {
	return &Error{Kind: ErrNotFound, Msg: fmt.Sprintf(format, args...)}
}

// Invalid builds an ErrValidation error with the given message.
func Invalid(format string, args ...any) error {
	return &Error{Kind: ErrValidation, Msg: fmt.Sprintf(format, args...)}
}

// Conflict builds an ErrConflict error with the given message.
func Conflict(format string, args ...any) error {
	return &Error{Kind: ErrConflict, Msg: fmt.Sprintf(format, args...)}
}

// Store wraps cause as an ErrStore error. A nil cause returns nil.
// Errors that already carry a kind are returned unchanged.
func Store(msg string, cause error) error {
	if cause == nil {
		return nil
	}
	var ae *Error
	if errors.As(cause, &ae) {
		return cause
	}
	return &Error{Kind: ErrStore, Msg: msg, Err: cause}
}

// Message returns the user-facing text for err.
// Store failures never expose the driver error.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var ae *Error
	if errors.As(err, &ae) {
		if ae.Kind == ErrStore {
			return "storage unavailable, please retry"
		}
		return ae.Error()
	}
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrValidation), errors.Is(err, ErrConflict):
		return err.Error()
	}
	return "unexpected error, please retry"
}

// Expected reports whether err is an outcome the caller caused (not found,
// validation, conflict) rather than a failure of the system.
func Expected(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, ErrValidation) || errors.Is(err, ErrConflict)
}
