package scheduling

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Appointment statuses.
const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusCancelled = "cancelled"
)

// Appointment types.
const (
	TypeRegular   = "regular"
	TypeFollowUp  = "follow_up"
	TypeEmergency = "emergency"
)

// ScheduleEntry is one recurring working window in a doctor's week. A doctor
// has at most one consulted entry per weekday; a missing entry means the whole
// day is open, a blocked entry closes the day.
type ScheduleEntry struct {
	ID        uuid.UUID    `db:"id" json:"id"`
	DoctorID  uuid.UUID    `db:"doctor_id" json:"doctor_id"`
	Day       time.Weekday `db:"day" json:"day"`
	Start     string       `db:"start_time" json:"start"` // "HH:MM"
	End       string       `db:"end_time" json:"end"`     // "HH:MM"
	IsBlocked bool         `db:"is_blocked" json:"is_blocked"`
	CreatedAt time.Time    `db:"created_at" json:"created_at"`
}

type Appointment struct {
	ID                   uuid.UUID       `db:"id" json:"id"`
	PatientID            uuid.UUID       `db:"patient_id" json:"patient_id"`
	DoctorID             uuid.UUID       `db:"doctor_id" json:"doctor_id"`
	StartTime            time.Time       `db:"start_time" json:"start_time"`
	EndTime              time.Time       `db:"end_time" json:"end_time"`
	Status               string          `db:"status" json:"status"`
	AppointmentType      string          `db:"appointment_type" json:"appointment_type"`
	Fee                  decimal.Decimal `db:"fee" json:"fee"`
	Notes                *string         `db:"notes" json:"notes,omitempty"`
	IsPaid               bool            `db:"is_paid" json:"is_paid"`
	PaymentTransactionID *uuid.UUID      `db:"payment_transaction_id" json:"payment_transaction_id,omitempty"`
	CreatedAt            time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt            time.Time       `db:"updated_at" json:"updated_at"`
}

var (
	ErrNotFound         = errors.New("appointment not found")
	ErrInvalidTimeRange = errors.New("end time must be after start time")
	ErrForbidden        = errors.New("appointment does not belong to the caller")
)

// SlotUnavailableError reports the window of the appointment that blocks a
// requested booking, so callers can pick another slot.
type SlotUnavailableError struct {
	ConflictStart time.Time
	ConflictEnd   time.Time
}

func (e *SlotUnavailableError) Error() string {
	return fmt.Sprintf("time slot not available: overlaps existing appointment %s to %s",
		e.ConflictStart.Format("15:04"), e.ConflictEnd.Format("15:04"))
}
