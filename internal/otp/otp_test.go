package otp

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rollcall/internal/errs"
	"rollcall/internal/student"
)

type fakeDirectory struct {
	byMobile map[string]*student.Student
}

func (d *fakeDirectory) FindByMobile(_ context.Context, mobile string) (*student.Student, error) {
	return d.byMobile[mobile], nil
}

func newTestManager() (*Manager, *time.Time) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	mgr := NewManager(NewMemoryStore(), &fakeDirectory{byMobile: map[string]*student.Student{}}, 5*time.Minute)
	mgr.now = func() time.Time { return now }
	return mgr, &now
}

func TestIssueValidatesMobile(t *testing.T) {
	mgr, _ := newTestManager()

	for _, mobile := range []string{"", "12345", "999999999"} {
		_, err := mgr.Issue(context.Background(), mobile)
		var validation *errs.ValidationError
		assert.ErrorAs(t, err, &validation, "mobile %q", mobile)
	}
}

func TestIssueRejectsRegisteredMobile(t *testing.T) {
	mgr, _ := newTestManager()
	mgr.students = &fakeDirectory{byMobile: map[string]*student.Student{
		"9999999999": {FirstName: "Asha", LastName: "Rao", RollNo: "R1"},
	}}

	_, err := mgr.Issue(context.Background(), "9999999999")
	var dup *errs.DuplicateError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "mobile", dup.Field)
	assert.Equal(t, "Asha Rao", dup.Existing.Name)
	assert.Equal(t, "R1", dup.Existing.RollNo)
}

func TestVerifyLifecycle(t *testing.T) {
	mgr, _ := newTestManager()
	ctx := context.Background()

	code, err := mgr.Issue(ctx, "9999999999")
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^\d{6}$`), code)

	// mismatch keeps the entry alive for a retry
	assert.ErrorIs(t, mgr.Verify(ctx, "9999999999", "000000"), errs.ErrInvalidOTP)

	// correct code consumes the entry
	require.NoError(t, mgr.Verify(ctx, "9999999999", code))

	// a second attempt with the same code finds nothing
	assert.ErrorIs(t, mgr.Verify(ctx, "9999999999", code), errs.ErrOTPNotFound)
}

func TestVerifyExpiry(t *testing.T) {
	mgr, now := newTestManager()
	ctx := context.Background()

	code, err := mgr.Issue(ctx, "9999999999")
	require.NoError(t, err)

	*now = now.Add(5*time.Minute + time.Second)
	assert.ErrorIs(t, mgr.Verify(ctx, "9999999999", code), errs.ErrOTPExpired)

	// expiry consumed the entry
	assert.ErrorIs(t, mgr.Verify(ctx, "9999999999", code), errs.ErrOTPNotFound)
}

func TestVerifyValidatesInput(t *testing.T) {
	mgr, _ := newTestManager()

	var validation *errs.ValidationError
	assert.ErrorAs(t, mgr.Verify(context.Background(), "", "123456"), &validation)
	assert.ErrorAs(t, mgr.Verify(context.Background(), "9999999999", ""), &validation)
}

func TestIssueOverwritesPriorEntry(t *testing.T) {
	mgr, _ := newTestManager()
	ctx := context.Background()

	first, err := mgr.Issue(ctx, "8888888888")
	require.NoError(t, err)
	second, err := mgr.Issue(ctx, "8888888888")
	require.NoError(t, err)

	if first != second {
		assert.ErrorIs(t, mgr.Verify(ctx, "8888888888", first), errs.ErrInvalidOTP)
	}
	require.NoError(t, mgr.Verify(ctx, "8888888888", second))
}
