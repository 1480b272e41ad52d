package student

import (
	"context"
	"fmt"
	"log"

	"rollcall/internal/errs"
	"rollcall/internal/face"
	"rollcall/internal/metrics"
	"rollcall/internal/store"
)

// Service decides whether a candidate registration may be admitted,
// enforcing uniqueness across four identity signals: mobile number,
// roll number, email and face descriptor similarity.
type Service struct {
	repo      *Repository
	threshold float64
}

// NewService creates a service. threshold is the Euclidean distance below
// which two face descriptors are considered the same person.
func NewService(repo *Repository, threshold float64) *Service {
	if threshold <= 0 {
		threshold = 0.6
	}
	return &Service{repo: repo, threshold: threshold}
}

// Register runs the integrity checks in fixed order (mobile, roll, email,
// face), short-circuiting on the first violation, and persists the student
// when all pass. The whole check-then-insert sequence runs in one
// transaction so two concurrent registrations cannot both pass the checks.
func (s *Service) Register(ctx context.Context, st *Student) (int64, error) {
	if st.FirstName == "" || st.Photo == "" {
		return 0, errs.Validationf("missing required fields")
	}

	err := s.repo.InTx(ctx, func(tx *Repository) error {
		if st.MobileNumber != "" {
			existing, err := tx.FindByMobile(ctx, st.MobileNumber)
			if err != nil {
				return err
			}
			if existing != nil {
				return duplicate("mobile", "Mobile number already registered", existing, "")
			}
		}

		if st.RollNo != "" {
			existing, err := tx.FindByRoll(ctx, st.RollNo)
			if err != nil {
				return err
			}
			if existing != nil {
				return duplicate("rollNo", "Roll number already registered", existing, "")
			}
		}

		if st.Email != "" {
			existing, err := tx.FindByEmail(ctx, st.Email)
			if err != nil {
				return err
			}
			if existing != nil {
				return duplicate("email", "Email already registered", existing, "")
			}
		}

		if len(st.Descriptor) > 0 {
			refs, err := tx.ListDescriptors(ctx)
			if err != nil {
				return err
			}
			for _, ref := range refs {
				d := face.Distance(st.Descriptor, ref.Descriptor)
				if d < s.threshold {
					return &errs.DuplicateError{
						Field:   "face",
						Message: "This face is already registered in the system",
						Existing: &errs.ExistingStudent{
							Name:       ref.Name,
							RollNo:     ref.RollNo,
							Similarity: fmt.Sprintf("%d%%", face.Similarity(d)),
						},
					}
				}
			}
		}

		_, err := tx.Insert(ctx, st)
		if err != nil && store.IsUniqueViolation(err) {
			// a concurrent writer beat the checks under a different backend;
			// report it as a duplicate rather than a server failure
			return errs.ErrDuplicateEntry
		}
		return err
	})
	if err != nil {
		if dup, ok := err.(*errs.DuplicateError); ok {
			metrics.DuplicateRejections.WithLabelValues(dup.Field).Inc()
		}
		return 0, err
	}

	metrics.RegistrationsTotal.Inc()
	log.Printf("new student registered: %s", st.DisplayName())
	return st.ID, nil
}

// List returns all registered students.
func (s *Service) List(ctx context.Context) ([]Student, error) {
	return s.repo.List(ctx)
}

// FindByEmail looks up a single student by email; nil when absent.
func (s *Service) FindByEmail(ctx context.Context, email string) (*Student, error) {
	return s.repo.FindByEmail(ctx, email)
}

// Delete removes a student and all associated attendance records.
func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.InTx(ctx, func(tx *Repository) error {
		return tx.Delete(ctx, id)
	})
}

func duplicate(field, msg string, existing *Student, similarity string) error {
	return &errs.DuplicateError{
		Field:   field,
		Message: msg,
		Existing: &errs.ExistingStudent{
			Name:       existing.DisplayName(),
			RollNo:     existing.RollNo,
			Similarity: similarity,
		},
	}
}
