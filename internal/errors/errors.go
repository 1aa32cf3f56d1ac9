// Package errors provides unified error handling with structured error codes
// shared across the capture, pipeline, and storage layers.
package errors

import (
	"errors"
	"fmt"
)

// ErrorCode classifies an error for callers that need to branch on cause.
type ErrorCode string

const (
	CodeUnknown        ErrorCode = "UNKNOWN"
	CodeInternal       ErrorCode = "INTERNAL"
	CodeConfigInvalid  ErrorCode = "CONFIG_INVALID"
	CodeCaptureFailed  ErrorCode = "CAPTURE_FAILED"
	CodeOCRFailed      ErrorCode = "OCR_FAILED"
	CodeOCRUnavailable ErrorCode = "OCR_UNAVAILABLE"
	CodeAreaInvalid    ErrorCode = "AREA_INVALID"
	CodeAlreadyRunning ErrorCode = "ALREADY_RUNNING"
	CodeNotRunning     ErrorCode = "NOT_RUNNING"
	CodeStorageFailed  ErrorCode = "STORAGE_FAILED"
)

// AppError is the base error type with structured error code and metadata.
type AppError struct {
	Code     ErrorCode
	Message  string
	Metadata map[string]string
	Cause    error
}

// Error implements the error interface.
func (e *AppError) Error() string {
	s := fmt.Sprintf("[%s] %s", e.Code, e.Message)
	if len(e.Metadata) > 0 {
		s += fmt.Sprintf(" %v", e.Metadata)
	}
	if e.Cause != nil {
		s += fmt.Sprintf(" caused by: %v", e.Cause)
	}
	return s
}

// Unwrap returns the underlying cause for errors.Is/As.
func (e *AppError) Unwrap() error { return e.Cause }

// New creates a new AppError with the given code and message.
func New(code ErrorCode, msg string) *AppError {
	return &AppError{Code: code, Message: msg}
}

// Newf creates a new AppError with formatted message.
func Newf(code ErrorCode, format string, args ...interface{}) *AppError {
	return &AppError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap wraps an existing error with an AppError.
func Wrap(err error, code ErrorCode, msg string) *AppError {
	return &AppError{Code: code, Message: msg, Cause: err}
}

// Wrapf wraps an existing error with formatted message.
func Wrapf(err error, code ErrorCode, format string, args ...interface{}) *AppError {
	return &AppError{Code: code, Message: fmt.Sprintf(format, args...), Cause: err}
}

// WithMetadata adds metadata to an AppError.
func (e *AppError) WithMetadata(key, value string) *AppError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]string)
	}
	e.Metadata[key] = value
	return e
}

// CodeOf returns the error's code, or CodeUnknown for foreign errors.
func CodeOf(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeUnknown
}

// IsCode checks if an error (anywhere in its chain) has a specific error code.
func IsCode(err error, code ErrorCode) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// IsRetryable returns true if the error is potentially transient.
// The capture loop backs off and tries again on the next tick for these.
func IsRetryable(err error) bool {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		return false
	}
	switch appErr.Code {
	case CodeCaptureFailed, CodeOCRFailed:
		return true
	default:
		return false
	}
}
