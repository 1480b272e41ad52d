package student

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"rollcall/internal/face"
	"rollcall/internal/store"
)

const studentColumns = `id, first_name, last_name, mobile_number, dob, roll_no, email, course, photo, descriptor, created_at`

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Repository persists students. All methods run against the repository's
// current querier, which is either the pooled connection or, inside InTx,
// a single transaction.
type Repository struct {
	db *store.DB
	q  querier
}

// NewRepository creates a repo.
func NewRepository(db *store.DB) *Repository {
	return &Repository{db: db, q: db.Client}
}

// InTx runs fn with a repository bound to one transaction, committing on
// nil and rolling back otherwise. The registration check-then-insert
// sequence depends on this to stay race-free.
func (r *Repository) InTx(ctx context.Context, fn func(*Repository) error) error {
	tx, err := r.db.Client.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(&Repository{db: r.db, q: tx}); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// Insert writes a new student and returns the store-assigned id.
func (r *Repository) Insert(ctx context.Context, st *Student) (int64, error) {
	if st.CreatedAt.IsZero() {
		st.CreatedAt = time.Now().UTC()
	}
	row := r.q.QueryRowContext(ctx, r.db.Rebind(`
		INSERT INTO students (first_name, last_name, mobile_number, dob, roll_no, email, course, photo, descriptor, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id
	`), st.FirstName, st.LastName, nullable(st.MobileNumber), nullable(st.DOB),
		nullable(st.RollNo), nullable(st.Email), nullable(st.Course),
		st.Photo, face.Encode(st.Descriptor), st.CreatedAt)
	if err := row.Scan(&st.ID); err != nil {
		return 0, err
	}
	return st.ID, nil
}

// FindByMobile returns the student holding a mobile number, or nil.
func (r *Repository) FindByMobile(ctx context.Context, mobile string) (*Student, error) {
	return r.findBy(ctx, "mobile_number", mobile)
}

// FindByRoll returns the student holding a roll number, or nil.
func (r *Repository) FindByRoll(ctx context.Context, rollNo string) (*Student, error) {
	return r.findBy(ctx, "roll_no", rollNo)
}

// FindByEmail returns the student holding an email, or nil.
func (r *Repository) FindByEmail(ctx context.Context, email string) (*Student, error) {
	return r.findBy(ctx, "email", email)
}

// FindByID returns a student by id, or nil.
func (r *Repository) FindByID(ctx context.Context, id int64) (*Student, error) {
	row := r.q.QueryRowContext(ctx, r.db.Rebind(
		`SELECT `+studentColumns+` FROM students WHERE id = ?`), id)
	return scanStudent(row)
}

func (r *Repository) findBy(ctx context.Context, column, value string) (*Student, error) {
	row := r.q.QueryRowContext(ctx, r.db.Rebind(
		`SELECT `+studentColumns+` FROM students WHERE `+column+` = ?`), value)
	return scanStudent(row)
}

// List returns all students, descriptors deserialized.
func (r *Repository) List(ctx context.Context) ([]Student, error) {
	rows, err := r.q.QueryContext(ctx,
		`SELECT `+studentColumns+` FROM students ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var students []Student
	for rows.Next() {
		st, err := scanStudentRows(rows)
		if err != nil {
			return nil, err
		}
		students = append(students, *st)
	}
	return students, rows.Err()
}

// ListDescriptors returns the identity and descriptor of every student that
// has one stored, for the face-duplicate scan. Loading full rows (photos
// included) would be needlessly heavy here.
func (r *Repository) ListDescriptors(ctx context.Context) ([]DescriptorRef, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT id, first_name, last_name, roll_no, descriptor
		FROM students
		WHERE descriptor != '[]'
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var refs []DescriptorRef
	for rows.Next() {
		var (
			ref        DescriptorRef
			first      string
			last       string
			rollNo     sql.NullString
			descriptor string
		)
		if err := rows.Scan(&ref.ID, &first, &last, &rollNo, &descriptor); err != nil {
			return nil, err
		}
		ref.Name = strings.TrimSpace(first + " " + last)
		ref.RollNo = rollNo.String
		ref.Descriptor = face.Decode(descriptor)
		if len(ref.Descriptor) == 0 {
			continue
		}
		refs = append(refs, ref)
	}
	return refs, rows.Err()
}

// Delete removes a student and all associated attendance rows.
// Call inside InTx so both deletes land together.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	if _, err := r.q.ExecContext(ctx, r.db.Rebind(
		`DELETE FROM attendance WHERE student_id = ?`), id); err != nil {
		return err
	}
	_, err := r.q.ExecContext(ctx, r.db.Rebind(
		`DELETE FROM students WHERE id = ?`), id)
	return err
}

func scanStudent(row *sql.Row) (*Student, error) {
	st, err := scanStudentRows(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return st, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanStudentRows(s scanner) (*Student, error) {
	var (
		st         Student
		mobile     sql.NullString
		dob        sql.NullString
		rollNo     sql.NullString
		email      sql.NullString
		course     sql.NullString
		descriptor string
	)
	if err := s.Scan(&st.ID, &st.FirstName, &st.LastName, &mobile, &dob,
		&rollNo, &email, &course, &st.Photo, &descriptor, &st.CreatedAt); err != nil {
		return nil, err
	}
	st.MobileNumber = mobile.String
	st.DOB = dob.String
	st.RollNo = rollNo.String
	st.Email = email.String
	st.Course = course.String
	st.Descriptor = face.Decode(descriptor)
	return &st, nil
}

// nullable maps empty strings to NULL so the unique columns treat absence
// as absence rather than as a shared "" value.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
