package scheduling

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type ScheduleRepository interface {
	// Replace swaps the doctor's whole weekly schedule for the given entries.
	Replace(ctx context.Context, doctorID uuid.UUID, entries []*ScheduleEntry) error
	ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]*ScheduleEntry, error)
}

type AppointmentRepository interface {
	Create(ctx context.Context, a *Appointment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, limit, offset int) ([]*Appointment, int, error)
	ListByDoctor(ctx context.Context, doctorID uuid.UUID, limit, offset int) ([]*Appointment, int, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Appointment, int, error)
	// ListActiveByDoctor returns the doctor's non-cancelled appointments that
	// overlap [from, to).
	ListActiveByDoctor(ctx context.Context, doctorID uuid.UUID, from, to time.Time) ([]*Appointment, error)
	// FindConflict returns a non-cancelled appointment of the doctor that
	// overlaps [start, end), or nil when the slot is free.
	FindConflict(ctx context.Context, doctorID uuid.UUID, start, end time.Time) (*Appointment, error)
	// LockDoctor takes a transaction-scoped advisory lock on the doctor so
	// concurrent bookings for the same doctor serialize.
	LockDoctor(ctx context.Context, doctorID uuid.UUID) error
	// ListStartingBetween returns non-cancelled appointments whose start time
	// falls in [from, to), across all doctors.
	ListStartingBetween(ctx context.Context, from, to time.Time) ([]*Appointment, error)
	ListUpcomingByPatient(ctx context.Context, patientID uuid.UUID, from, to time.Time) ([]*Appointment, error)
	// SetPaymentTransaction stamps the payment that was opened for the
	// appointment; MarkPaid flips the paid flag once that payment settles.
	SetPaymentTransaction(ctx context.Context, id, paymentID uuid.UUID) error
	MarkPaid(ctx context.Context, id uuid.UUID) error
	Count(ctx context.Context) (int, error)
}

// DoctorDirectory is the slice of the doctor registry the booking flow needs.
type DoctorDirectory interface {
	ConsultationFee(ctx context.Context, doctorID uuid.UUID) (decimal.Decimal, error)
	IncrementTotalPatients(ctx context.Context, doctorID uuid.UUID) error
}

// PaymentPurger removes payment records tied to an appointment so the
// appointment row can be deleted without dangling references.
type PaymentPurger interface {
	PurgeByAppointment(ctx context.Context, appointmentID uuid.UUID) error
}
