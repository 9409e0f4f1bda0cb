// Package errors defines the coded error taxonomy shared by the engine's
// components. Callers import it as apperrors.
package errors

import (
	"errors"
	"fmt"
)

// Standard error codes for the application.
const (
	CodeUnknown     = "UNKNOWN"
	CodeBanned      = "BANNED"
	CodeFlooded     = "FLOODED"
	CodeValidation  = "VALIDATION"
	CodeUnreachable = "UNREACHABLE"
	CodeTransient   = "TRANSIENT"
	CodeDatabase    = "DATABASE"
	CodeConfig      = "CONFIG"
)

// ApplicationError is the interface that all our custom errors implement.
type ApplicationError interface {
	error
	Code() string
	Unwrap() error
}

// Error represents a basic application error.
type Error struct {
	code    string
	message string
	err     error
}

func (e *Error) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %v", e.message, e.err)
	}

	return e.message
}

func (e *Error) Code() string {
	return e.code
}

func (e *Error) Unwrap() error {
	return e.err
}

// Is matches any *Error carrying the same code, so errors.Is(err, ErrBanned)
// works for every banned error regardless of message.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.message == "" && t.err == nil && t.code == e.code
}

// Code returns the code of the first ApplicationError in err's chain,
// or CodeUnknown if it doesn't carry one.
func Code(err error) string {
	var appErr ApplicationError
	if errors.As(err, &appErr) {
		return appErr.Code()
	}

	return CodeUnknown
}

// Code-only sentinels for errors.Is checks.
var (
	ErrBanned      = &Error{code: CodeBanned}
	ErrFlooded     = &Error{code: CodeFlooded}
	ErrValidation  = &Error{code: CodeValidation}
	ErrUnreachable = &Error{code: CodeUnreachable}
	ErrTransient   = &Error{code: CodeTransient}
	ErrDatabase    = &Error{code: CodeDatabase}
	ErrConfig      = &Error{code: CodeConfig}
)

func newError(code, message string, cause error) error {
	return &Error{code: code, message: message, err: cause}
}

func NewBannedError(message string) error {
	return newError(CodeBanned, message, nil)
}

func NewFloodedError(message string) error {
	return newError(CodeFlooded, message, nil)
}

func NewValidationError(message string, cause error) error {
	return newError(CodeValidation, message, cause)
}

func NewUnreachableError(message string, cause error) error {
	return newError(CodeUnreachable, message, cause)
}

func NewTransientError(message string, cause error) error {
	return newError(CodeTransient, message, cause)
}

func NewDatabaseError(message string, cause error) error {
	return newError(CodeDatabase, message, cause)
}

func NewConfigError(message string, cause error) error {
	return newError(CodeConfig, message, cause)
}
