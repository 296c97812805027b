package review

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Repository interface {
	Create(ctx context.Context, r *Review) error
	ListByDoctor(ctx context.Context, doctorID uuid.UUID, limit, offset int) ([]*Review, int, error)
	AverageForDoctor(ctx context.Context, doctorID uuid.UUID) (decimal.Decimal, error)
}

// DoctorRatings writes the recomputed average back to the doctor profile.
type DoctorRatings interface {
	UpdateAverageRating(ctx context.Context, doctorID uuid.UUID, average decimal.Decimal) error
}
