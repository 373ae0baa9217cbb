// Package domainerrors defines coded domain errors shared across features.
//
// Services translate sentinel infrastructure errors and validation failures
// into coded errors; the HTTP layer maps codes to status lines without ever
// leaking internal detail for CodeInternal.
package domainerrors

import (
	"errors"
	"fmt"
)

// Code classifies a domain error for transport mapping and caller branching.
type Code string

const (
	CodeInvalidInput     Code = "invalid_input"
	CodeNotFound         Code = "not_found"
	CodeInvalidState     Code = "invalid_state"
	CodeInsufficientData Code = "insufficient_data"
	CodeTimeout          Code = "timeout"
	CodeUnavailable      Code = "unavailable"
	CodeInternal         Code = "internal_error"
)

// Error is a coded domain error. Description is safe to surface to callers
// for every code except CodeInternal.
type Error struct {
	Code        Code
	Description string
	cause       error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Description, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Description)
}

func (e *Error) Unwrap() error { return e.cause }

// New constructs a coded error with a caller-safe description.
func New(code Code, description string) *Error {
	return &Error{Code: code, Description: description}
}

// Wrap constructs a coded error that preserves the underlying cause for
// errors.Is/errors.As chains and logging.
func Wrap(code Code, description string, cause error) *Error {
	return &Error{Code: code, Description: description, cause: cause}
}

// CodeOf extracts the code from err, or CodeInternal for uncoded errors.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// HasCode reports whether err carries the given code.
func HasCode(err error, code Code) bool {
	return CodeOf(err) == code
}
