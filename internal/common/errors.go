package common

import (
	"errors"
	"fmt"
)

// AppError represents application-specific errors
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Common application errors
var (
	ErrNotFound         = errors.New("resource not found")
	ErrInvalidInput     = errors.New("invalid input")
	ErrValidation       = errors.New("validation failed")
	ErrUnknownTemplate  = errors.New("unknown template")
	ErrInvalidSchema    = errors.New("invalid schema")
	ErrModelUnavailable = errors.New("generative model unavailable")
)

// Error codes carried by AppError.
const (
	CodeConfig          = "CONFIG_ERROR"
	CodeInvalidInput    = "INVALID_INPUT"
	CodeUnknownTemplate = "UNKNOWN_TEMPLATE"
	CodeInvalidSchema   = "INVALID_SCHEMA"
	CodeNoTemplate      = "NO_TEMPLATE"
	CodeModel           = "MODEL_ERROR"
	CodeExport          = "EXPORT_ERROR"
)

// Error constructors
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// UnknownTemplateError is returned when a caller names a template that is not
// registered. suggestion, when set, names the closest registered one.
func UnknownTemplateError(id, suggestion string) error {
	msg := fmt.Sprintf("unknown template %q", id)
	if suggestion != "" {
		msg += fmt.Sprintf("; did you mean %q?", suggestion)
	}
	return NewAppError(CodeUnknownTemplate, msg, ErrUnknownTemplate)
}

// InvalidSchemaError wraps a structural problem found in a custom template schema.
func InvalidSchemaError(message string, cause error) error {
	if cause == nil {
		cause = ErrInvalidSchema
	} else {
		cause = fmt.Errorf("%w: %w", ErrInvalidSchema, cause)
	}
	return NewAppError(CodeInvalidSchema, message, cause)
}

// ErrorCode returns the AppError code in err's chain, or "" if there is none.
func ErrorCode(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}
