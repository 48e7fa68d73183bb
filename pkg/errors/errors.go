// Package errors provides structured error types for kvtools.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across the CLI, the HTTP server and graph nodes
//   - Machine-readable error codes for programmatic handling
//   - A clean separation between "not found" and "forbidden" outcomes
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Error codes follow a hierarchical naming convention:
//   - INVALID_*: Input validation failures (bad references, formats, input)
//   - NOT_FOUND / FILE_NOT_FOUND: Well-formed references naming nothing
//   - FORBIDDEN: A computed path left its sandbox root
//   - MALFORMED_STORE / VALIDATION: Store files that are not JSON objects
//   - CONFIGURATION / INTERNAL: Startup and unexpected failures
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidReference, "empty key")
//	if errors.Is(err, errors.ErrCodeForbidden) {
//	    // Reject with 403, never as not-found
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeConfiguration, origErr, "create root %s", dir)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input validation errors
	ErrCodeInvalidInput     Code = "INVALID_INPUT"
	ErrCodeInvalidReference Code = "INVALID_REFERENCE"
	ErrCodeInvalidFormat    Code = "INVALID_FORMAT"

	// Resource not found errors
	ErrCodeNotFound     Code = "NOT_FOUND"
	ErrCodeFileNotFound Code = "FILE_NOT_FOUND"

	// Sandbox errors
	ErrCodeForbidden Code = "FORBIDDEN"

	// Store content errors
	ErrCodeMalformedStore Code = "MALFORMED_STORE"
	ErrCodeValidation     Code = "VALIDATION"

	// Internal errors
	ErrCodeConfiguration Code = "CONFIGURATION"
	ErrCodeInternal      Code = "INTERNAL_ERROR"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error with a matching code.
// Only the outermost *Error is consulted.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// IsNotFound reports whether err is one of the not-found codes.
func IsNotFound(err error) bool {
	code := GetCode(err)
	return code == ErrCodeNotFound || code == ErrCodeFileNotFound
}
