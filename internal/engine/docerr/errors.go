// Package docerr defines the error kinds shared by the document model.
//
// Three kinds exist:
//
//   - InvariantError: a structural precondition of a tree operation was
//     violated. The caller passed a block map that cannot be transformed the
//     way it asked. These are programmer errors and must not be retried.
//   - ValidationError: input from outside the engine (interchange data, block
//     construction arguments) is malformed. No partial result is produced.
//   - ErrNotApplicable: the requested edit does not apply to the current
//     selection or block. Callers treat it as a no-op.
package docerr

import (
	"errors"
	"fmt"
)

// Sentinel errors.
var (
	// ErrInvariant is wrapped by every InvariantError.
	ErrInvariant = errors.New("invariant violation")

	// ErrValidation is wrapped by every ValidationError.
	ErrValidation = errors.New("validation failed")

	// ErrNotApplicable reports an edit that has nothing to do.
	ErrNotApplicable = errors.New("not applicable")
)

// InvariantError is returned when a tree precondition does not hold.
type InvariantError struct {
	Op  string // operation name, e.g. "updateAsSiblingsChild"
	Key string // offending block key, may be empty
	Msg string
}

// Error implements error.
func (e *InvariantError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Msg)
	}
	return fmt.Sprintf("%s %s: %s", e.Op, e.Key, e.Msg)
}

// Unwrap returns ErrInvariant.
func (e *InvariantError) Unwrap() error {
	return ErrInvariant
}

// Invariant creates an InvariantError.
func Invariant(op, key, msg string) *InvariantError {
	return &InvariantError{Op: op, Key: key, Msg: msg}
}

// Invariantf creates an InvariantError with a formatted message.
func Invariantf(op, key, format string, args ...any) *InvariantError {
	return &InvariantError{Op: op, Key: key, Msg: fmt.Sprintf(format, args...)}
}

// ValidationError is returned for malformed external input.
type ValidationError struct {
	Path string // location inside the input, e.g. "blocks[2].entityRanges[0]"
	Msg  string
	Err  error // optional cause
}

// Error implements error.
func (e *ValidationError) Error() string {
	var s string
	if e.Path == "" {
		s = e.Msg
	} else {
		s = e.Path + ": " + e.Msg
	}
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}

// Unwrap returns the cause if present, otherwise ErrValidation.
func (e *ValidationError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrValidation, e.Err}
	}
	return []error{ErrValidation}
}

// Validation creates a ValidationError.
func Validation(path, msg string) *ValidationError {
	return &ValidationError{Path: path, Msg: msg}
}

// Validationf creates a ValidationError with a formatted message.
func Validationf(path, format string, args ...any) *ValidationError {
	return &ValidationError{Path: path, Msg: fmt.Sprintf(format, args...)}
}

// IsInvariant reports whether err is an invariant violation.
func IsInvariant(err error) bool {
	return errors.Is(err, ErrInvariant)
}

// IsValidation reports whether err is a validation failure.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsNotApplicable reports whether err signals a no-op edit.
func IsNotApplicable(err error) bool {
	return errors.Is(err, ErrNotApplicable)
}
