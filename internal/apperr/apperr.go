// Package apperr defines the error taxonomy shared by the scheduling,
// attendance and reporting packages. Every failure surfaced to a caller is an
// *AppError carrying a stable Code so the HTTP layer can render a specific
// message instead of a generic failure.
package apperr

import (
	"errors"
	"fmt"
)

// Code identifies a class of failure.
type Code string

const (
	ClosedDay         Code = "CLOSED_DAY"
	PastClosing       Code = "PAST_CLOSING"
	PrivilegedHour    Code = "PRIVILEGED_HOUR"
	OverCapacity      Code = "OVER_CAPACITY"
	DuplicateCheckIn  Code = "DUPLICATE_CHECK_IN"
	CheckInMissing    Code = "CHECK_IN_MISSING"
	AlreadyCheckedOut Code = "ALREADY_CHECKED_OUT"
	NotFound          Code = "RESERVATION_NOT_FOUND"
	StorageError      Code = "STORAGE_ERROR"

	// Raised at the service edge rather than by the engine rules.
	Validation    Code = "VALIDATION"
	FutureCheckIn Code = "FUTURE_CHECK_IN"
	Cancelled     Code = "RESERVATION_CANCELLED"
	Unauthorized  Code = "UNAUTHORIZED"
	Forbidden     Code = "FORBIDDEN"
)

// AppError is a coded failure. Hour and Remaining are populated for the
// per-hour admission rules; Remaining is only meaningful for OverCapacity.
type AppError struct {
	Code      Code
	Message   string
	Hour      *int
	Remaining *int
	Err       error
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap implements the unwrap interface.
func (e *AppError) Unwrap() error { return e.Err }

// New creates an error with the given code and message.
func New(code Code, message string) *AppError {
	return &AppError{Code: code, Message: message}
}

// AtHour creates a per-hour admission failure.
func AtHour(code Code, hour int, message string) *AppError {
	h := hour
	return &AppError{Code: code, Message: message, Hour: &h}
}

// Capacity creates an OVER_CAPACITY failure reporting the places still free
// at hour.
func Capacity(hour, remaining int) *AppError {
	h, r := hour, remaining
	return &AppError{
		Code:      OverCapacity,
		Message:   fmt.Sprintf("only %d places left at %02d:00", remaining, hour),
		Hour:      &h,
		Remaining: &r,
	}
}

// Storage wraps an unexpected persistence failure.
func Storage(err error) *AppError {
	return &AppError{Code: StorageError, Message: "storage failure", Err: err}
}

// CodeOf extracts the code of err, or StorageError when err is not coded.
func CodeOf(err error) Code {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae.Code
	}
	return StorageError
}

// Is reports whether err carries code.
func Is(err error, code Code) bool {
	var ae *AppError
	return errors.As(err, &ae) && ae.Code == code
}

// ErrNoRecord is returned by stores when a lookup matches nothing.
var ErrNoRecord = errors.New("record not found")

// ErrDuplicate is returned by stores when a unique key is already taken.
var ErrDuplicate = errors.New("duplicate record")
