package errors

import (
	"fmt"
)

type ErrorCode string

const (
	ErrNotFound           ErrorCode = "NOT_FOUND"
	ErrForbidden          ErrorCode = "FORBIDDEN"
	ErrInvalidRole        ErrorCode = "INVALID_ROLE"
	ErrInvalidSubRole     ErrorCode = "INVALID_SUB_ROLE"
	ErrLocked             ErrorCode = "LOCKED"
	ErrConflict           ErrorCode = "CONFLICT"
	ErrTransient          ErrorCode = "TRANSIENT"
	ErrInvalidInput       ErrorCode = "INVALID_INPUT"
	ErrInvalidRequestData ErrorCode = "INVALID_REQUEST_DATA"
	ErrUnauthorized       ErrorCode = "UNAUTHORIZED"
	ErrInternalServer     ErrorCode = "INTERNAL_SERVER"
)

// AppError is the error type returned by services. Code drives the HTTP status.
type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Details any       `json:"details,omitempty"`
	Err     error     `json:"-"`
}

func NewAppError(code ErrorCode, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// WithDetails attaches a payload shown to the caller, e.g. the current lock holder.
func (e *AppError) WithDetails(details any) *AppError {
	e.Details = details
	return e
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}
