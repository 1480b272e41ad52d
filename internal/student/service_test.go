package student

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rollcall/internal/errs"
	"rollcall/internal/face"
	"rollcall/internal/store"
)

func newTestService(t *testing.T) (*Service, *store.DB) {
	t.Helper()
	db, err := store.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, db.Migrate())
	return NewService(NewRepository(db), 0.6), db
}

func candidate(first string) *Student {
	return &Student{
		FirstName: first,
		LastName:  "Kumar",
		Photo:     "data:image/jpeg;base64,/9j/4AAQ",
	}
}

func TestRegisterRequiresNameAndPhoto(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	var validation *errs.ValidationError

	st := candidate("Asha")
	st.FirstName = ""
	_, err := svc.Register(ctx, st)
	assert.ErrorAs(t, err, &validation)

	st = candidate("Asha")
	st.Photo = ""
	_, err = svc.Register(ctx, st)
	assert.ErrorAs(t, err, &validation)
}

func TestRegisterDuplicatePrecedence(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	a := candidate("Asha")
	a.MobileNumber = "9999999999"
	a.RollNo = "R1"
	a.Email = "asha@example.com"
	id, err := svc.Register(ctx, a)
	require.NoError(t, err)
	assert.Greater(t, id, int64(0))

	tests := []struct {
		name      string
		mobile    string
		rollNo    string
		email     string
		wantField string
	}{
		{"all three collide reports mobile", "9999999999", "R1", "asha@example.com", "mobile"},
		{"roll and email collide reports rollNo", "8888888888", "R1", "asha@example.com", "rollNo"},
		{"email collides reports email", "7777777777", "R2", "asha@example.com", "email"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := candidate("Bina")
			b.MobileNumber = tt.mobile
			b.RollNo = tt.rollNo
			b.Email = tt.email

			_, err := svc.Register(ctx, b)
			var dup *errs.DuplicateError
			require.ErrorAs(t, err, &dup)
			assert.Equal(t, tt.wantField, dup.Field)
			require.NotNil(t, dup.Existing)
			assert.Equal(t, "Asha Kumar", dup.Existing.Name)
		})
	}
}

func TestRegisterFaceDuplicate(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	a := candidate("Asha")
	a.RollNo = "R1"
	a.Descriptor = face.Descriptor{0, 0, 0}
	_, err := svc.Register(ctx, a)
	require.NoError(t, err)

	// distance ~0.173 < 0.6: rejected with similarity percentage
	b := candidate("Bina")
	b.RollNo = "R2"
	b.Descriptor = face.Descriptor{0.1, 0.1, 0.1}
	_, err = svc.Register(ctx, b)
	var dup *errs.DuplicateError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "face", dup.Field)
	require.NotNil(t, dup.Existing)
	assert.Equal(t, "Asha Kumar", dup.Existing.Name)
	assert.Equal(t, "R1", dup.Existing.RollNo)
	assert.Equal(t, "83%", dup.Existing.Similarity)

	// distance ~8.66: admitted
	c := candidate("Chitra")
	c.RollNo = "R3"
	c.Descriptor = face.Descriptor{5, 5, 5}
	_, err = svc.Register(ctx, c)
	assert.NoError(t, err)
}

func TestRegisterWithoutDescriptorSkipsFaceScan(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	a := candidate("Asha")
	a.Descriptor = face.Descriptor{0, 0, 0}
	_, err := svc.Register(ctx, a)
	require.NoError(t, err)

	// a student with no stored descriptor never matches anyone
	b := candidate("Bina")
	_, err = svc.Register(ctx, b)
	require.NoError(t, err)

	c := candidate("Chitra")
	_, err = svc.Register(ctx, c)
	assert.NoError(t, err)
}

func TestListDeserializesDescriptors(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	a := candidate("Asha")
	a.Email = "asha@example.com"
	a.Descriptor = face.Descriptor{0.25, -0.5, 1}
	_, err := svc.Register(ctx, a)
	require.NoError(t, err)

	students, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, students, 1)
	assert.Equal(t, face.Descriptor{0.25, -0.5, 1}, students[0].Descriptor)
	assert.Equal(t, "asha@example.com", students[0].Email)
}

func TestFindByEmail(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	a := candidate("Asha")
	a.Email = "asha@example.com"
	_, err := svc.Register(ctx, a)
	require.NoError(t, err)

	found, err := svc.FindByEmail(ctx, "asha@example.com")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "Asha", found.FirstName)

	missing, err := svc.FindByEmail(ctx, "nobody@example.com")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestEmptyOptionalFieldsDoNotCollide(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	// two students with no mobile/roll/email must both be admitted;
	// absence is stored as NULL, not as a shared empty string
	_, err := svc.Register(ctx, candidate("Asha"))
	require.NoError(t, err)
	_, err = svc.Register(ctx, candidate("Bina"))
	assert.NoError(t, err)
}

func TestDeleteCascadesAttendance(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	a := candidate("Asha")
	id, err := svc.Register(ctx, a)
	require.NoError(t, err)

	_, err = db.Client.ExecContext(ctx,
		`INSERT INTO attendance (student_id, date, status) VALUES (?, '03/10/2026', 'Present')`, id)
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, id))

	var count int
	require.NoError(t, db.Client.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM attendance WHERE student_id = ?`, id).Scan(&count))
	assert.Zero(t, count)

	students, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, students)
}
