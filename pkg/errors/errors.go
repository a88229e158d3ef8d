package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents a unique error code
type ErrorCode int

// AppError represents an application error
type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Err     error     `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Common error codes
const (
	ErrBackend ErrorCode = iota + 1000
	ErrBackendRejected
	ErrProvider
	ErrInvalidRegistration
	ErrStorage
)

// Backend wraps a transport-level failure talking to the notification API.
func Backend(err error) *AppError {
	return &AppError{
		Code:    ErrBackend,
		Message: "notification backend unreachable",
		Err:     err,
	}
}

// BackendRejected carries the server-supplied message from a
// {success: false} envelope. Falls back to a generic message when the
// server sent none.
func BackendRejected(message string) *AppError {
	if message == "" {
		message = "request failed"
	}
	return &AppError{
		Code:    ErrBackendRejected,
		Message: message,
	}
}

// Provider wraps a vendor push SDK failure.
func Provider(name string, err error) *AppError {
	return &AppError{
		Code:    ErrProvider,
		Message: fmt.Sprintf("push provider %s failed", name),
		Err:     err,
	}
}

// InvalidRegistration marks a device registration that failed validation.
func InvalidRegistration(err error) *AppError {
	return &AppError{
		Code:    ErrInvalidRegistration,
		Message: "invalid device registration",
		Err:     err,
	}
}

// Storage wraps a local device-state store failure.
func Storage(err error) *AppError {
	return &AppError{
		Code:    ErrStorage,
		Message: "device state store failed",
		Err:     err,
	}
}

// CodeOf extracts the ErrorCode from err, or 0 when err is not an AppError.
func CodeOf(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return 0
}
