package review

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Review is a patient's rating of a doctor. Every submission is kept; the
// doctor's average is recomputed over all of them.
type Review struct {
	ID        uuid.UUID `db:"id" json:"id"`
	PatientID uuid.UUID `db:"patient_id" json:"patient_id"`
	DoctorID  uuid.UUID `db:"doctor_id" json:"doctor_id"`
	Rating    int       `db:"rating" json:"rating"`
	Comment   *string   `db:"comment" json:"comment,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

var ErrInvalidRating = errors.New("rating must be between 1 and 5")
