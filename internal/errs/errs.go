// Package errs defines the error taxonomy surfaced by the API layer.
package errs

import (
	"errors"
	"fmt"
)

var (
	// ErrStudentNotFound is returned when a referenced student id does not exist.
	ErrStudentNotFound = errors.New("student not found")
	// ErrOTPNotFound is returned when no code has been issued for a mobile number.
	ErrOTPNotFound = errors.New("otp not found or expired")
	// ErrOTPExpired is returned when the issued code has passed its expiry.
	ErrOTPExpired = errors.New("otp has expired")
	// ErrInvalidOTP is returned on a code mismatch; the entry stays live for retries.
	ErrInvalidOTP = errors.New("invalid otp")
	// ErrDuplicateEntry covers store-level unique violations that slip past the
	// application checks.
	ErrDuplicateEntry = errors.New("duplicate entry detected")
)

// ValidationError reports missing or malformed input.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// Validationf builds a ValidationError.
func Validationf(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// ExistingStudent identifies the record that caused a uniqueness conflict.
// Similarity is only set for face matches, as a percentage string like "83%".
type ExistingStudent struct {
	Name       string `json:"name"`
	RollNo     string `json:"rollNo"`
	Similarity string `json:"similarity,omitempty"`
}

// DuplicateError reports a uniqueness violation on one of the four identity
// signals: "mobile", "rollNo", "email" or "face".
type DuplicateError struct {
	Field    string
	Message  string
	Existing *ExistingStudent
}

func (e *DuplicateError) Error() string { return e.Message }
