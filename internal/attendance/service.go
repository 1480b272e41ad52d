package attendance

import (
	"context"
	"time"

	"rollcall/internal/errs"
	"rollcall/internal/metrics"
)

// DateLayout is the calendar-date key format for attendance records (MM/DD/YYYY).
const DateLayout = "01/02/2006"

// Service records a single daily presence event per student.
type Service struct {
	repo *Repository
	now  func() time.Time
}

// NewService creates a service backed by a repository.
func NewService(repo *Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// Mark records attendance for studentID on today's date. If a record already
// exists for today it is returned unchanged with already=true; marking twice
// is an acknowledgment, not an error.
func (s *Service) Mark(ctx context.Context, studentID int64, status string, confidence *float64) (Record, bool, error) {
	if status == "" {
		status = "Present"
	}
	date := s.now().Format(DateLayout)

	var (
		rec     Record
		already bool
	)
	err := s.repo.InTx(ctx, func(tx *Repository) error {
		existing, err := tx.FindForDate(ctx, studentID, date)
		if err != nil {
			return err
		}
		if existing != nil {
			rec, already = *existing, true
			return nil
		}

		ok, err := tx.StudentExists(ctx, studentID)
		if err != nil {
			return err
		}
		if !ok {
			return errs.ErrStudentNotFound
		}

		rec, err = tx.Insert(ctx, Record{
			StudentID:  studentID,
			Date:       date,
			Status:     status,
			Confidence: confidence,
			Timestamp:  s.now().UTC(),
		})
		return err
	})
	if err != nil {
		return Record{}, false, err
	}
	if !already {
		metrics.AttendanceMarked.Inc()
	}
	return rec, already, nil
}

// List returns records for the given date, or for today when date is empty.
func (s *Service) List(ctx context.Context, date string) ([]Record, error) {
	if date == "" {
		date = s.now().Format(DateLayout)
	}
	return s.repo.ListByDate(ctx, date)
}
