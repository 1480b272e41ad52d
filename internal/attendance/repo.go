package attendance

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"rollcall/internal/store"
)

// Record is one attendance entry. At most one exists per (student, date);
// that invariant is enforced by the service, not the schema.
type Record struct {
	ID         int64     `json:"id"`
	StudentID  int64     `json:"studentId"`
	Date       string    `json:"date"`
	Status     string    `json:"status"`
	Confidence *float64  `json:"confidence,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Repository persists attendance records.
type Repository struct {
	db *store.DB
	q  querier
}

// NewRepository creates a repo.
func NewRepository(db *store.DB) *Repository {
	return &Repository{db: db, q: db.Client}
}

// InTx runs fn with a repository bound to one transaction.
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

// FindForDate returns the record for (studentID, date), or nil.
func (r *Repository) FindForDate(ctx context.Context, studentID int64, date string) (*Record, error) {
	row := r.q.QueryRowContext(ctx, r.db.Rebind(`
		SELECT id, student_id, date, status, confidence, timestamp
		FROM attendance
		WHERE student_id = ? AND date = ?
	`), studentID, date)
	var rec Record
	if err := row.Scan(&rec.ID, &rec.StudentID, &rec.Date, &rec.Status, &rec.Confidence, &rec.Timestamp); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &rec, nil
}

// StudentExists reports whether a student row exists for id.
func (r *Repository) StudentExists(ctx context.Context, id int64) (bool, error) {
	var found int64
	err := r.q.QueryRowContext(ctx, r.db.Rebind(
		`SELECT id FROM students WHERE id = ?`), id).Scan(&found)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}

// Insert writes a new record and returns it with the store-assigned id.
func (r *Repository) Insert(ctx context.Context, rec Record) (Record, error) {
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now().UTC()
	}
	if rec.Status == "" {
		rec.Status = "Present"
	}
	row := r.q.QueryRowContext(ctx, r.db.Rebind(`
		INSERT INTO attendance (student_id, date, status, confidence, timestamp)
		VALUES (?, ?, ?, ?, ?)
		RETURNING id
	`), rec.StudentID, rec.Date, rec.Status, rec.Confidence, rec.Timestamp)
	if err := row.Scan(&rec.ID); err != nil {
		return Record{}, err
	}
	return rec, nil
}

// ListByDate returns all records for a date string. Unbounded by design;
// one day of a single institution stays small.
func (r *Repository) ListByDate(ctx context.Context, date string) ([]Record, error) {
	rows, err := r.q.QueryContext(ctx, r.db.Rebind(`
		SELECT id, student_id, date, status, confidence, timestamp
		FROM attendance
		WHERE date = ?
		ORDER BY id
	`), date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.ID, &rec.StudentID, &rec.Date, &rec.Status, &rec.Confidence, &rec.Timestamp); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
