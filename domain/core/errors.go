package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Input errors
	ErrParse  = errors.New("parse error")
	ErrSchema = errors.New("schema error")

	// Data sufficiency errors
	ErrInsufficientData = errors.New("insufficient data")

	// Configuration errors
	ErrConfig = errors.New("config error")

	// Artifact errors
	ErrDeserialization = errors.New("deserialization error")
)

// NewParseError reports an unreadable or malformed input file.
func NewParseError(path string, reason string) error {
	return fmt.Errorf("%w: %s: %s", ErrParse, path, reason)
}

// NewParseErrorf is NewParseError with an underlying cause.
func NewParseErrorf(path string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrParse, path, err)
}

// NewSchemaError reports a required column that is absent from a record set.
func NewSchemaError(column string) error {
	return fmt.Errorf("%w: required column %q missing", ErrSchema, column)
}

// NewInsufficientDataError reports data that is too small for the requested operation.
func NewInsufficientDataError(reason string) error {
	return fmt.Errorf("%w: %s", ErrInsufficientData, reason)
}

// NewConfigError reports an invalid setting or option value.
func NewConfigError(field string, reason string) error {
	return fmt.Errorf("%w: %s: %s", ErrConfig, field, reason)
}

// NewDeserializationError reports a corrupt or incompatible persisted model.
func NewDeserializationError(path string, reason string) error {
	return fmt.Errorf("%w: %s: %s", ErrDeserialization, path, reason)
}

// Error checking helpers
func IsParseError(err error) bool {
	return errors.Is(err, ErrParse)
}

func IsSchemaError(err error) bool {
	return errors.Is(err, ErrSchema)
}

func IsInsufficientDataError(err error) bool {
	return errors.Is(err, ErrInsufficientData)
}

func IsConfigError(err error) bool {
	return errors.Is(err, ErrConfig)
}

func IsDeserializationError(err error) bool {
	return errors.Is(err, ErrDeserialization)
}

// ExitCode maps an error to the process exit status used by the CLI.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case IsParseError(err):
		return 2
	case IsSchemaError(err):
		return 3
	case IsInsufficientDataError(err):
		return 4
	case IsConfigError(err):
		return 5
	case IsDeserializationError(err):
		return 6
	default:
		return 1
	}
}
