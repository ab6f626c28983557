package store

import (
	"fmt"
	"net/http"
)

// Error is a persistence error with an HTTP status code.
type Error struct {
	Code    int    // HTTP status code
	Message string // User-facing message
	Err     error  // Underlying error (optional)
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is lets the specific sentinels match their generic parent:
// ErrHabitNotFound is ErrNotFound, ErrEmailExists is ErrAlreadyExists.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return (t == ErrNotFound || t == ErrAlreadyExists) && t.Code == e.Code
}

// HTTPCode returns the HTTP status code associated with this error.
func (e *Error) HTTPCode() int { return e.Code }

// WithMessage returns a new error with a custom message.
func (e *Error) WithMessage(msg string) *Error {
	return &Error{Code: e.Code, Message: msg, Err: e.Err}
}

// WithCause wraps an underlying error.
func (e *Error) WithCause(err error) *Error {
	return &Error{Code: e.Code, Message: e.Message, Err: err}
}

// Sentinel errors.
var (
	ErrNotFound = &Error{
		Code:    http.StatusNotFound,
		Message: "resource not found",
	}

	ErrAlreadyExists = &Error{
		Code:    http.StatusConflict,
		Message: "resource already exists",
	}

	ErrHabitNotFound = ErrNotFound.WithMessage("habit not found")
	ErrUserNotFound  = ErrNotFound.WithMessage("user not found")
	ErrHabitExists   = ErrAlreadyExists.WithMessage("habit already exists")
	ErrUserExists    = ErrAlreadyExists.WithMessage("user already exists")
	ErrEmailExists   = ErrAlreadyExists.WithMessage("email already in use")
)
