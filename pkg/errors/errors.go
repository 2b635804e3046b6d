package errors

import "fmt"

type AppError struct {
	Code    string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func New(code, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

func Wrap(err error, code, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Code returns the code of an AppError, or ErrCodeInternalError for any
// other non-nil error.
func Code(err error) string {
	if err == nil {
		return ""
	}
	if appErr, ok := err.(*AppError); ok {
		return appErr.Code
	}
	return ErrCodeInternalError
}

// Common error codes
const (
	ErrCodeValidationFailed    = "VALIDATION_FAILED"
	ErrCodeNotFound            = "NOT_FOUND"
	ErrCodePermissionDenied    = "PERMISSION_DENIED"
	ErrCodeAlreadyProcessed    = "ALREADY_PROCESSED"
	ErrCodeExpired             = "EXPIRED"
	ErrCodeDuplicateIntent     = "DUPLICATE_INTENT"
	ErrCodeMissingPrerequisite = "MISSING_PREREQUISITE"
	ErrCodeInternalError       = "INTERNAL_ERROR"
	ErrCodeRateLimitExceeded   = "RATE_LIMIT_EXCEEDED"
)
