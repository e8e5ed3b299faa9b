// Package signererr defines the closed error taxonomy for signing failures.
// Every fault raised by a signer backend is collapsed into one of these codes
// before it reaches UI or logs, so callers never depend on the wording of a
// specific hardware driver.
package signererr

import "errors"

// Code identifies one kind of signing failure.
type Code string

const (
	CodeQueueFull            Code = "QUEUE_FULL"
	CodeValidation           Code = "VALIDATION"
	CodeDeviceNotConnected   Code = "DEVICE_NOT_CONNECTED"
	CodeSigningAppNotOpen    Code = "SIGNING_APP_NOT_OPEN"
	CodeUserRejected         Code = "USER_REJECTED"
	CodeTransportTimeout     Code = "TRANSPORT_TIMEOUT"
	CodeBluetoothUnavailable Code = "BLUETOOTH_UNAVAILABLE"
	CodeAccount              Code = "ACCOUNT"
	CodeUnknown              Code = "UNKNOWN"
)

// Error is a signing failure with a stable code.
type Error struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`

	cause error
}

// New creates an error with the given code and message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap creates an error that retains the underlying cause for errors.Is/As.
func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, cause: cause}
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Message != "" {
		return e.Message
	}
	return string(e.Code)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

// Is reports whether target is a *Error with the same code, so sentinel-style
// comparisons work across wrapping.
func (e *Error) Is(target error) bool {
	var other *Error
	if !errors.As(target, &other) {
		return false
	}
	return e != nil && other != nil && e.Code == other.Code
}

// FromError extracts a typed signer error from an arbitrary error chain.
func FromError(err error) (*Error, bool) {
	var sErr *Error
	if errors.As(err, &sErr) {
		return sErr, true
	}
	return nil, false
}
