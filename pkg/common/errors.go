package common

import (
	"errors"
	"fmt"
)

// Error codes classifying every failure the service produces. The bus
// consumer and the HTTP layer both dispatch on these.
const (
	CodeValidation  = "validation"
	CodeDuplicate   = "duplicate"
	CodeNotFound    = "not_found"
	CodeReferential = "referential"
	CodeInternal    = "internal"
)

// AppError is the service-level error carrying a taxonomy code
type AppError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap exposes the underlying cause to errors.Is/errors.As
func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError creates an AppError with the given code and message
func NewAppError(code, message string) *AppError {
	return &AppError{Code: code, Message: message}
}

// WrapError attaches a cause to a new AppError
func WrapError(code, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

// Validationf creates a validation error with a formatted message
func Validationf(format string, args ...interface{}) *AppError {
	return &AppError{Code: CodeValidation, Message: fmt.Sprintf(format, args...)}
}

// CodeOf returns the taxonomy code of err, or CodeInternal for plain errors
func CodeOf(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeInternal
}
