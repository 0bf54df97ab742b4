package errors

import (
	"fmt"
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

// Wrap wraps an error with additional context
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

// Wrapf wraps an error with formatted additional context
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return Wrap(err, fmt.Sprintf(format, args...))
}

// GetCode returns the error code if it's an AppError, otherwise "UNKNOWN"
func GetCode(err error) string {
	if appErr, ok := err.(*AppError); ok {
		return appErr.Code
	}
	return "UNKNOWN"
}

// HasCode reports whether err is an AppError carrying the given code.
func HasCode(err error, code string) bool {
	appErr, ok := err.(*AppError)
	return ok && appErr.Code == code
}

// Predefined error codes
const (
	CodeConfigInvalid = "CONFIG_INVALID"
	CodeStoreError    = "STORE_ERROR"
	CodeEventInvalid  = "EVENT_INVALID"
	CodeLockTimeout   = "LOCK_TIMEOUT"
	CodeNotFound      = "NOT_FOUND"
	CodeBatchFailed   = "BATCH_FAILED"
	CodeInternalError = "INTERNAL_ERROR"
)

// Common error constructors

func ConfigInvalid(message string) *AppError {
	return New(CodeConfigInvalid, message)
}

func StoreError(message string, cause error) *AppError {
	return &AppError{Code: CodeStoreError, Message: message, Cause: cause}
}

func EventInvalid(message string, cause error) *AppError {
	return &AppError{Code: CodeEventInvalid, Message: message, Cause: cause}
}

func LockTimeout(key string) *AppError {
	return New(CodeLockTimeout, fmt.Sprintf("timed out waiting for key lock %q", key))
}

func NotFound(resource string) *AppError {
	return New(CodeNotFound, fmt.Sprintf("%s not found", resource))
}

func BatchFailed(message string, cause error) *AppError {
	return &AppError{Code: CodeBatchFailed, Message: message, Cause: cause}
}

func InternalError(message string) *AppError {
	return New(CodeInternalError, message)
}
