package directory

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Doctor struct {
	ID              uuid.UUID       `db:"id" json:"id"`
	UserID          uuid.UUID       `db:"user_id" json:"user_id"`
	FullName        string          `db:"full_name" json:"full_name"`
	Biography       *string         `db:"biography" json:"biography,omitempty"`
	ExperienceYears int             `db:"experience_years" json:"experience_years"`
	ConsultationFee decimal.Decimal `db:"consultation_fee" json:"consultation_fee"`
	PhotoURL        *string         `db:"photo_url" json:"photo_url,omitempty"`
	AverageRating   decimal.Decimal `db:"average_rating" json:"average_rating"`
	TotalPatients   int             `db:"total_patients" json:"total_patients"`
	Balance         decimal.Decimal `db:"balance" json:"balance"`
	CreatedAt       time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time       `db:"updated_at" json:"updated_at"`

	Specialties []*Specialty `db:"-" json:"specialties,omitempty"`
}

type Patient struct {
	ID          uuid.UUID       `db:"id" json:"id"`
	UserID      uuid.UUID       `db:"user_id" json:"user_id"`
	FullName    string          `db:"full_name" json:"full_name"`
	Gender      *string         `db:"gender" json:"gender,omitempty"`
	DateOfBirth *time.Time      `db:"date_of_birth" json:"date_of_birth,omitempty"`
	PhoneNumber *string         `db:"phone_number" json:"phone_number,omitempty"`
	Address     *string         `db:"address" json:"address,omitempty"`
	BloodType   *string         `db:"blood_type" json:"blood_type,omitempty"`
	Height      *float64        `db:"height" json:"height,omitempty"`
	Weight      *float64        `db:"weight" json:"weight,omitempty"`
	Allergies   *string         `db:"allergies" json:"allergies,omitempty"`
	Balance     decimal.Decimal `db:"balance" json:"balance"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time       `db:"updated_at" json:"updated_at"`
}

type Specialty struct {
	ID   uuid.UUID `db:"id" json:"id"`
	Name string    `db:"name" json:"name"`
}

// DashboardStats is the admin overview of the clinic.
type DashboardStats struct {
	Doctors          int             `json:"doctors"`
	Patients         int             `json:"patients"`
	Appointments     int             `json:"appointments"`
	ConfirmedRevenue decimal.Decimal `json:"confirmed_revenue"`
}

var (
	ErrDoctorNotFound    = errors.New("doctor not found")
	ErrPatientNotFound   = errors.New("patient not found")
	ErrSpecialtyNotFound = errors.New("specialty not found")
)
