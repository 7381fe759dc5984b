package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorType represents the type of error
type ErrorType string

const (
	ErrTypeDiscoveryEmpty ErrorType = "DISCOVERY_EMPTY"
	ErrTypeParsing        ErrorType = "PARSING"
	ErrTypeLoad           ErrorType = "LOAD"
	ErrTypeAssemblyEmpty  ErrorType = "ASSEMBLY_EMPTY"
	ErrTypeStorage        ErrorType = "STORAGE"
	ErrTypeExtraction     ErrorType = "EXTRACTION"
	ErrTypeValidation     ErrorType = "VALIDATION"
	ErrTypeNotFound       ErrorType = "NOT_FOUND"
	ErrTypeConfig         ErrorType = "CONFIG"
)

// AppError represents an application-specific error
type AppError struct {
	Type    ErrorType
	Message string
	Cause   error
	Context map[string]interface{}
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap allows errors.Is and errors.As to work with AppError
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithContext adds context to the error
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// Fatal reports whether an error of this type ends a consolidation run.
// Parse and load errors are scoped to a single file.
func (e *AppError) Fatal() bool {
	switch e.Type {
	case ErrTypeParsing, ErrTypeLoad:
		return false
	default:
		return true
	}
}

// NewAppError creates a new application error
func NewAppError(errType ErrorType, message string, cause error) *AppError {
	return &AppError{
		Type:    errType,
		Message: message,
		Cause:   cause,
		Context: make(map[string]interface{}),
	}
}

// IsType reports whether any AppError in err's chain has the given type.
func IsType(err error, errType ErrorType) bool {
	var appErr *AppError
	for err != nil {
		if !stderrors.As(err, &appErr) {
			return false
		}
		if appErr.Type == errType {
			return true
		}
		err = appErr.Cause
	}
	return false
}

// TypeOf returns the type of the outermost AppError in err's chain, or "".
func TypeOf(err error) ErrorType {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Type
	}
	return ""
}

// Helper functions for common error types

// NewDiscoveryEmptyError reports that no period files were found in dir.
func NewDiscoveryEmptyError(dir string) *AppError {
	return NewAppError(ErrTypeDiscoveryEmpty, "no period files found", nil).
		WithContext("dir", dir)
}

// NewParsingError creates a parsing-related error
func NewParsingError(message string, cause error) *AppError {
	return NewAppError(ErrTypeParsing, message, cause)
}

// NewLoadError creates an error for a period file that could not be read.
func NewLoadError(path string, cause error) *AppError {
	return NewAppError(ErrTypeLoad, "failed to load period file", cause).
		WithContext("path", path)
}

// NewAssemblyEmptyError reports that every discovered file failed.
func NewAssemblyEmptyError() *AppError {
	return NewAppError(ErrTypeAssemblyEmpty, "no period file could be loaded", nil)
}

// NewStorageError creates a storage-related error
func NewStorageError(message string, cause error) *AppError {
	return NewAppError(ErrTypeStorage, message, cause)
}

// NewExtractionError creates an error for a failed dashboard export.
func NewExtractionError(message string, cause error) *AppError {
	return NewAppError(ErrTypeExtraction, message, cause)
}

// NewValidationError creates a validation error for AppError type
func NewValidationError(message string) *AppError {
	return NewAppError(ErrTypeValidation, message, nil)
}

// NewNotFoundError creates a not found error
func NewNotFoundError(resource string) *AppError {
	return NewAppError(ErrTypeNotFound, fmt.Sprintf("%s not found", resource), nil)
}

// NewConfigError creates a configuration error
func NewConfigError(message string, cause error) *AppError {
	return NewAppError(ErrTypeConfig, message, cause)
}
