package errors

import (
	"fmt"
)

// AppError is the structured error carried across the service and API
// layers. Code is a stable machine-readable identifier; Message is for
// humans; Cause preserves the underlying error chain.
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

// New creates a new AppError.
func New(code, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an error with additional context, preserving an existing
// AppError's code.
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
		Code:    CodeInternalError,
		Message: message,
		Cause:   err,
	}
}

// Wrapf wraps an error with formatted additional context.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return Wrap(err, fmt.Sprintf(format, args...))
}

// WithCode stamps an error code onto an existing error.
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

// IsAppError checks whether an error is an AppError.
func IsAppError(err error) bool {
	_, ok := err.(*AppError)
	return ok
}

// GetCode returns the error code, or "UNKNOWN" for plain errors.
func GetCode(err error) string {
	if appErr, ok := err.(*AppError); ok {
		return appErr.Code
	}
	return "UNKNOWN"
}

// Error codes.
const (
	CodeConfigInvalid     = "CONFIG_INVALID"
	CodeDatabaseError     = "DATABASE_ERROR"
	CodeValidationError   = "VALIDATION_ERROR"
	CodeNotFound          = "NOT_FOUND"
	CodeInvalidInput      = "INVALID_INPUT"
	CodeUnsupportedFormat = "UNSUPPORTED_FORMAT"
	CodeMappingError      = "MAPPING_ERROR"
	CodeAnalysisError     = "ANALYSIS_ERROR"
	CodeInternalError     = "INTERNAL_ERROR"
)

// Common constructors.
func ConfigInvalid(message string) *AppError {
	return New(CodeConfigInvalid, message)
}

func DatabaseError(message string) *AppError {
	return New(CodeDatabaseError, message)
}

func ValidationError(message string) *AppError {
	return New(CodeValidationError, message)
}

func NotFound(resource string) *AppError {
	return New(CodeNotFound, fmt.Sprintf("%s not found", resource))
}

func InvalidInput(message string) *AppError {
	return New(CodeInvalidInput, message)
}

// UnsupportedFormat reports an upload whose file type no reader handles.
func UnsupportedFormat(format string) *AppError {
	return New(CodeUnsupportedFormat, fmt.Sprintf("unsupported file format %q", format))
}

// MappingError marks failures in the schema mapping pipeline.
func MappingError(message string, cause error) *AppError {
	return &AppError{
		Code:    CodeMappingError,
		Message: message,
		Cause:   cause,
	}
}

// AnalysisError marks failures in the analysis pipelines (RFM, sales,
// sentiment).
func AnalysisError(kind string, cause error) *AppError {
	return &AppError{
		Code:    CodeAnalysisError,
		Message: fmt.Sprintf("%s analysis failed", kind),
		Cause:   cause,
	}
}

func InternalError(message string) *AppError {
	return New(CodeInternalError, message)
}
