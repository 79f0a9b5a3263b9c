package errors

import (
	"fmt"

	"eosphase/domain/core"
)

// AppError represents a structured application error
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// New creates a new AppError
func New(code, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an error with additional context. The code of a wrapped
// AppError is kept; domain errors get the code of their category.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	if appErr, ok := err.(*AppError); ok {
		return &AppError{
			Code:    appErr.Code,
			Message: message,
			Cause:   appErr,
		}
	}
	return &AppError{
		Code:    codeFor(err),
		Message: message,
		Cause:   err,
	}
}

// Wrapf wraps an error with formatted additional context
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return Wrap(err, fmt.Sprintf(format, args...))
}

// WithCode adds an error code to an existing error
func WithCode(code string, err error) error {
	if err == nil {
		return nil
	}
	if appErr, ok := err.(*AppError); ok {
		return &AppError{
			Code:    code,
			Message: appErr.Message,
			Cause:   appErr.Cause,
		}
	}
	return &AppError{
		Code:    code,
		Message: err.Error(),
		Cause:   err,
	}
}

// IsAppError checks if an error is an AppError
func IsAppError(err error) bool {
	_, ok := err.(*AppError)
	return ok
}

// GetCode returns the error code if it's an AppError, otherwise returns "UNKNOWN"
func GetCode(err error) string {
	if appErr, ok := err.(*AppError); ok {
		return appErr.Code
	}
	return "UNKNOWN"
}

// Predefined error codes
const (
	CodeConfigInvalid   = "CONFIG_INVALID"
	CodeDatabaseError   = "DATABASE_ERROR"
	CodeParseError      = "PARSE_ERROR"
	CodeSchemaError     = "SCHEMA_ERROR"
	CodeInsufficient    = "INSUFFICIENT_DATA"
	CodeDeserialization = "DESERIALIZATION_ERROR"
	CodeNotFound        = "NOT_FOUND"
	CodeInternalError   = "INTERNAL_ERROR"
	CodeInvalidInput    = "INVALID_INPUT"
)

func codeFor(err error) string {
	switch {
	case core.IsParseError(err):
		return CodeParseError
	case core.IsSchemaError(err):
		return CodeSchemaError
	case core.IsInsufficientDataError(err):
		return CodeInsufficient
	case core.IsConfigError(err):
		return CodeConfigInvalid
	case core.IsDeserializationError(err):
		return CodeDeserialization
	default:
		return CodeInternalError
	}
}

// ExitCode maps an error to a process exit status. Domain categories found
// anywhere in the chain win over the AppError code.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	if code := core.ExitCode(err); code != 1 {
		return code
	}
	switch GetCode(err) {
	case CodeConfigInvalid, CodeInvalidInput:
		return core.ExitCode(core.ErrConfig)
	default:
		return 1
	}
}

// Common error constructors
func NotFound(resource string) *AppError {
	return New(CodeNotFound, fmt.Sprintf("%s not found", resource))
}

func InvalidInput(message string) *AppError {
	return New(CodeInvalidInput, message)
}
