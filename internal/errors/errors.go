// Package errors provides coded domain errors for the StreakUp API.
//
// Usage:
//
//	// In the domain or services, return typed errors
//	if name == "" {
//	    return domainerrors.Validation("habit name cannot be empty")
//	}
//
//	// Callers match by code with errors.Is
//	if errors.Is(err, domainerrors.ErrDuplicateCompletion) {
//	    // already completed today
//	}
//
//	// Or switch on the code directly
//	var domainErr *domainerrors.Error
//	if errors.As(err, &domainErr) {
//	    switch domainErr.Code {
//	    case domainerrors.CodeOwnership:
//	        // 403
//	    case domainerrors.CodeNotFound:
//	        // 404
//	    }
//	}
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code represents a machine-readable error code.
type Code string

// Error codes used throughout the application.
const (
	CodeNotFound            Code = "NOT_FOUND"
	CodeAlreadyExists       Code = "ALREADY_EXISTS"
	CodeUnauthorized        Code = "UNAUTHORIZED"
	CodeForbidden           Code = "FORBIDDEN"
	CodeOwnership           Code = "OWNERSHIP"
	CodeValidation          Code = "VALIDATION"
	CodeDuplicateCompletion Code = "DUPLICATE_COMPLETION"
	CodeConflict            Code = "CONFLICT"
	CodeInternal            Code = "INTERNAL"
	CodeInvalidCredentials  Code = "INVALID_CREDENTIALS"
	CodeTokenExpired        Code = "TOKEN_EXPIRED"
)

// HTTPStatus returns the appropriate HTTP status code for an error code.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeNotFound:
		return http.StatusNotFound
	case CodeAlreadyExists, CodeConflict, CodeDuplicateCompletion:
		return http.StatusConflict
	case CodeUnauthorized, CodeInvalidCredentials, CodeTokenExpired:
		return http.StatusUnauthorized
	case CodeForbidden, CodeOwnership:
		return http.StatusForbidden
	case CodeValidation:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// Error is a domain error with a code, message, and optional details.
type Error struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
	cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.cause
}

// Is reports whether target is an *Error with the same Code.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

// HTTPStatus returns the HTTP status code for this error.
func (e *Error) HTTPStatus() int {
	return e.Code.HTTPStatus()
}

// WithDetails returns a copy of the error carrying details.
func (e *Error) WithDetails(details any) *Error {
	return &Error{
		Code:    e.Code,
		Message: e.Message,
		Details: details,
		cause:   e.cause,
	}
}

// Sentinel errors for use with errors.Is().
var (
	ErrNotFound            = &Error{Code: CodeNotFound, Message: "not found"}
	ErrAlreadyExists       = &Error{Code: CodeAlreadyExists, Message: "already exists"}
	ErrOwnership           = &Error{Code: CodeOwnership, Message: OwnershipMessage}
	ErrValidation          = &Error{Code: CodeValidation, Message: "validation error"}
	ErrDuplicateCompletion = &Error{Code: CodeDuplicateCompletion, Message: "habit already completed on this day"}
	ErrTokenExpired        = &Error{Code: CodeTokenExpired, Message: "token expired"}
)

// OwnershipMessage is the only message an ownership failure ever carries.
// It must not reveal whether the resource exists.
const OwnershipMessage = "you do not have permission to access this habit"

// NotFound creates a not found error.
func NotFound(msg string) *Error {
	return &Error{Code: CodeNotFound, Message: msg}
}

// AlreadyExists creates an already exists error.
func AlreadyExists(msg string) *Error {
	return &Error{Code: CodeAlreadyExists, Message: msg}
}

// Unauthorized creates an unauthorized error.
func Unauthorized(msg string) *Error {
	return &Error{Code: CodeUnauthorized, Message: msg}
}

// Ownership creates an ownership error. The message is fixed.
func Ownership() *Error {
	return &Error{Code: CodeOwnership, Message: OwnershipMessage}
}

// Validation creates a validation error.
func Validation(msg string) *Error {
	return &Error{Code: CodeValidation, Message: msg}
}

// Validationf creates a validation error with formatted message.
func Validationf(format string, args ...any) *Error {
	return &Error{Code: CodeValidation, Message: fmt.Sprintf(format, args...)}
}

// ValidationWithDetails creates a validation error with details.
func ValidationWithDetails(msg string, details any) *Error {
	return &Error{Code: CodeValidation, Message: msg, Details: details}
}

// DuplicateCompletion creates a duplicate completion error for the given calendar day.
func DuplicateCompletion(day string) *Error {
	return &Error{
		Code:    CodeDuplicateCompletion,
		Message: "habit already completed on " + day,
		Details: map[string]string{"day": day},
	}
}

// Wrap wraps an error with a code and message.
func Wrap(err error, code Code, msg string) *Error {
	return &Error{Code: code, Message: msg, cause: err}
}

// InvalidCredentials creates an invalid credentials error.
func InvalidCredentials(msg string) *Error {
	return &Error{Code: CodeInvalidCredentials, Message: msg}
}

// TokenExpired creates a token expired error.
func TokenExpired(msg string) *Error {
	return &Error{Code: CodeTokenExpired, Message: msg}
}
