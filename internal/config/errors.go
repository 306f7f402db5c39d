package config

import (
	"errors"
	"fmt"

	"github.com/dshills/inkblock/internal/config/loader"
)

// Errors returned by configuration operations.
var (
	// ErrTypeMismatch indicates the value type doesn't match the setting.
	ErrTypeMismatch = errors.New("type mismatch")

	// ErrValidationFailed indicates a value outside the allowed range.
	ErrValidationFailed = errors.New("validation failed")
)

// ParseError represents an error while parsing a configuration file.
type ParseError = loader.ParseError

// ValidationError describes an invalid setting.
type ValidationError struct {
	// Path is the setting path, e.g. "editor.maxDepth".
	Path string
	// Message describes the problem.
	Message string
	// Value is the rejected value.
	Value any
	// Err is ErrTypeMismatch or ErrValidationFailed.
	Err error
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid setting %s (%v): %s", e.Path, e.Value, e.Message)
}

// Unwrap returns the error category.
func (e *ValidationError) Unwrap() error {
	return e.Err
}
