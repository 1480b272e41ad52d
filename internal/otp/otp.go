// Package otp gates registration behind a possession-of-mobile check.
// Codes are handed back to the caller and logged; there is no real
// delivery channel.
package otp

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"rollcall/internal/errs"
	"rollcall/internal/metrics"
	"rollcall/internal/student"
)

// Entry is a live one-time code keyed by mobile number.
type Entry struct {
	Code      string    `json:"code"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Store holds at most one live entry per mobile number. Implementations
// must be safe for concurrent use.
type Store interface {
	Put(ctx context.Context, mobile string, e Entry) error
	Get(ctx context.Context, mobile string) (Entry, bool, error)
	Delete(ctx context.Context, mobile string) error
}

// Directory looks up registered students; satisfied by student.Repository.
type Directory interface {
	FindByMobile(ctx context.Context, mobile string) (*student.Student, error)
}

// Manager issues and verifies one-time codes.
type Manager struct {
	store    Store
	students Directory
	ttl      time.Duration
	now      func() time.Time
}

// NewManager creates a manager. ttl defaults to 5 minutes.
func NewManager(store Store, students Directory, ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Manager{store: store, students: students, ttl: ttl, now: time.Now}
}

// Issue generates a 6-digit code for a mobile number, overwriting any prior
// unconsumed entry. It refuses numbers that already belong to a registered
// student, with the same conflict payload shape as registration.
func (m *Manager) Issue(ctx context.Context, mobile string) (string, error) {
	if len(mobile) < 10 {
		return "", errs.Validationf("invalid mobile number")
	}

	existing, err := m.students.FindByMobile(ctx, mobile)
	if err != nil {
		return "", err
	}
	if existing != nil {
		return "", &errs.DuplicateError{
			Field:   "mobile",
			Message: "This mobile number is already registered",
			Existing: &errs.ExistingStudent{
				Name:   existing.DisplayName(),
				RollNo: existing.RollNo,
			},
		}
	}

	code := fmt.Sprintf("%06d", 100000+rand.Intn(900000))
	if err := m.store.Put(ctx, mobile, Entry{Code: code, ExpiresAt: m.now().Add(m.ttl)}); err != nil {
		return "", err
	}
	metrics.OTPIssued.Inc()
	return code, nil
}

// Verify consumes a code. The entry is deleted on success (one-time use)
// and on detected expiry, but kept on a mismatch so the caller can retry
// within the expiry window.
func (m *Manager) Verify(ctx context.Context, mobile, code string) error {
	if mobile == "" || code == "" {
		return errs.Validationf("mobile number and otp are required")
	}

	entry, ok, err := m.store.Get(ctx, mobile)
	if err != nil {
		return err
	}
	if !ok {
		return errs.ErrOTPNotFound
	}
	if m.now().After(entry.ExpiresAt) {
		_ = m.store.Delete(ctx, mobile)
		return errs.ErrOTPExpired
	}
	if entry.Code != code {
		return errs.ErrInvalidOTP
	}

	if err := m.store.Delete(ctx, mobile); err != nil {
		return err
	}
	metrics.OTPVerified.Inc()
	return nil
}
