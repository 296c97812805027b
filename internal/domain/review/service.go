package review

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/clinic/clinic/internal/platform/db"
)

type Service struct {
	reviews Repository
	doctors DoctorRatings
	tx      db.TxRunner
	log     zerolog.Logger
}

func NewService(reviews Repository, doctors DoctorRatings, tx db.TxRunner, log zerolog.Logger) *Service {
	return &Service{
		reviews: reviews,
		doctors: doctors,
		tx:      tx,
		log:     log.With().Str("component", "review").Logger(),
	}
}

// Submit records the review and refreshes the doctor's average rating in the
// same transaction. Repeat reviews by the same patient are kept as separate
// rows and all count toward the average.
func (s *Service) Submit(ctx context.Context, patientID, doctorID uuid.UUID, rating int, comment *string) (*Review, error) {
	if rating < 1 || rating > 5 {
		return nil, ErrInvalidRating
	}
	rev := &Review{
		PatientID: patientID,
		DoctorID:  doctorID,
		Rating:    rating,
		Comment:   comment,
	}
	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		if err := s.reviews.Create(ctx, rev); err != nil {
			return err
		}
		avg, err := s.reviews.AverageForDoctor(ctx, doctorID)
		if err != nil {
			return err
		}
		return s.doctors.UpdateAverageRating(ctx, doctorID, avg)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("doctor_id", doctorID.String()).
		Int("rating", rating).
		Msg("review submitted")
	return rev, nil
}

func (s *Service) ListForDoctor(ctx context.Context, doctorID uuid.UUID, limit, offset int) ([]*Review, int, error) {
	return s.reviews.ListByDoctor(ctx, doctorID, limit, offset)
}
