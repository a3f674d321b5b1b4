// Package errors provides structured error types for the dismantle engine.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across CLI, HTTP API, and library callers
//   - Machine-readable error codes for programmatic handling
//   - User-friendly error messages
//   - Error wrapping with context preservation
//
// # Error Codes
//
// The codes follow the engine's failure taxonomy:
//   - INVALID_*: malformed or inconsistent input (fatal, no partial result)
//   - NON_CONVERGENCE: solver stopped at the iteration cap (not fatal)
//   - DEGENERATE_SUBGRAPH: a partition step could not split further
//     (absorbed internally by fallback rules, surfaced only as diagnostics)
//   - RESOURCE_EXHAUSTED: memory/time budget exceeded (fatal, surfaced
//     together with any partial sequence computed so far)
//   - INTERNAL_*: unexpected internal errors
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidInput, "edge references node %d, graph has %d nodes", v, n)
//	if errors.Is(err, errors.ErrCodeInvalidInput) {
//	    // Handle validation error
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeResourceExhausted, ctx.Err(), "run deadline hit after %d removals", k)
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
	ErrCodeInvalidInput    Code = "INVALID_INPUT"
	ErrCodeInvalidEdge     Code = "INVALID_EDGE"
	ErrCodeInvalidOptions  Code = "INVALID_OPTIONS"
	ErrCodeInvalidStrategy Code = "INVALID_STRATEGY"
	ErrCodeInvalidSequence Code = "INVALID_SEQUENCE"

	// Solver outcomes. These are diagnostic flags, not failures: no
	// operation returns an error with them. NON_CONVERGENCE classifies a
	// result produced at the iteration cap (Result.Converged reports it),
	// DEGENERATE_SUBGRAPH classifies a partition step absorbed by the
	// highest-degree fallback (Result.FallbackSteps counts them). They
	// exist so logs, stored results and API clients share one vocabulary
	// for these conditions.
	ErrCodeNonConvergence     Code = "NON_CONVERGENCE"
	ErrCodeDegenerateSubgraph Code = "DEGENERATE_SUBGRAPH"

	// Budget violations
	ErrCodeResourceExhausted Code = "RESOURCE_EXHAUSTED"

	// Resource not found errors
	ErrCodeNotFound Code = "NOT_FOUND"

	// Internal errors
	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
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
