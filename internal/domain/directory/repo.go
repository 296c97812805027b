package directory

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type DoctorRepository interface {
	Create(ctx context.Context, d *Doctor) error
	GetByID(ctx context.Context, id uuid.UUID) (*Doctor, error)
	GetByUserID(ctx context.Context, userID uuid.UUID) (*Doctor, error)
	Update(ctx context.Context, d *Doctor) error
	List(ctx context.Context, limit, offset int) ([]*Doctor, int, error)
	TopRated(ctx context.Context, limit int) ([]*Doctor, error)
	ConsultationFee(ctx context.Context, id uuid.UUID) (decimal.Decimal, error)
	IncrementTotalPatients(ctx context.Context, id uuid.UUID) error
	UpdateAverageRating(ctx context.Context, id uuid.UUID, average decimal.Decimal) error
	CreditBalance(ctx context.Context, id uuid.UUID, amount decimal.Decimal) error
	ReplaceSpecialties(ctx context.Context, doctorID uuid.UUID, specialtyIDs []uuid.UUID) error
	ListSpecialties(ctx context.Context, doctorID uuid.UUID) ([]*Specialty, error)
	// CascadeDelete removes the doctor together with their schedules,
	// appointments, payments, reviews, favorites and specialty links.
	CascadeDelete(ctx context.Context, id uuid.UUID) error
	Count(ctx context.Context) (int, error)
}

type PatientRepository interface {
	Create(ctx context.Context, p *Patient) error
	GetByID(ctx context.Context, id uuid.UUID) (*Patient, error)
	GetByUserID(ctx context.Context, userID uuid.UUID) (*Patient, error)
	Update(ctx context.Context, p *Patient) error
	List(ctx context.Context, limit, offset int) ([]*Patient, int, error)
	Balance(ctx context.Context, id uuid.UUID) (decimal.Decimal, error)
	DebitBalance(ctx context.Context, id uuid.UUID, amount decimal.Decimal) error
	AddFavorite(ctx context.Context, patientID, doctorID uuid.UUID) error
	RemoveFavorite(ctx context.Context, patientID, doctorID uuid.UUID) error
	IsFavorite(ctx context.Context, patientID, doctorID uuid.UUID) (bool, error)
	ListFavorites(ctx context.Context, patientID uuid.UUID) ([]*Doctor, error)
	Count(ctx context.Context) (int, error)
}

type SpecialtyRepository interface {
	Create(ctx context.Context, s *Specialty) error
	List(ctx context.Context) ([]*Specialty, error)
	Update(ctx context.Context, s *Specialty) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// AvailabilityResolver reports the doctor's earliest bookable slot; it is
// attached to doctor listings so patients can pick without opening each
// profile.
type AvailabilityResolver interface {
	NextAvailableSlot(ctx context.Context, doctorID uuid.UUID) (time.Time, error)
}

// AppointmentCounter and RevenueSource feed the admin dashboard.
type AppointmentCounter interface {
	Count(ctx context.Context) (int, error)
}

type RevenueSource interface {
	ConfirmedRevenue(ctx context.Context) (decimal.Decimal, error)
}
