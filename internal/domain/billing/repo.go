package billing

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/clinic/clinic/internal/domain/scheduling"
)

type Repository interface {
	Create(ctx context.Context, p *Payment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Payment, error)
	// GetByIDForUpdate locks the payment row for the rest of the transaction
	// so concurrent confirmations serialize on it.
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*Payment, error)
	MarkConfirmed(ctx context.Context, id uuid.UUID, at time.Time) error
	ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Payment, int, error)
	PurgeByAppointment(ctx context.Context, appointmentID uuid.UUID) error
	ConfirmedRevenue(ctx context.Context) (decimal.Decimal, error)
}

// AppointmentLedger is the slice of the appointment store settlement needs.
type AppointmentLedger interface {
	GetByID(ctx context.Context, id uuid.UUID) (*scheduling.Appointment, error)
	SetPaymentTransaction(ctx context.Context, id, paymentID uuid.UUID) error
	MarkPaid(ctx context.Context, id uuid.UUID) error
}

// WalletLedger moves balances between patients and doctors.
type WalletLedger interface {
	PatientBalance(ctx context.Context, patientID uuid.UUID) (decimal.Decimal, error)
	DebitPatient(ctx context.Context, patientID uuid.UUID, amount decimal.Decimal) error
	CreditDoctor(ctx context.Context, doctorID uuid.UUID, amount decimal.Decimal) error
}
