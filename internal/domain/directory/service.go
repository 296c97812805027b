package directory

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/clinic/clinic/internal/platform/db"
)

// New patients start with one of these wallet balances so the payment flow
// can be exercised without a top-up feature.
var signupBalances = []string{"5000", "3700", "1500", "900", "250"}

// DoctorListing is a doctor plus their earliest bookable slot.
type DoctorListing struct {
	*Doctor
	NextAvailable *time.Time `json:"next_available,omitempty"`
}

type Service struct {
	doctors      DoctorRepository
	patients     PatientRepository
	specialties  SpecialtyRepository
	availability AvailabilityResolver
	appointments AppointmentCounter
	revenue      RevenueSource
	tx           db.TxRunner
	log          zerolog.Logger
}

func NewService(doctors DoctorRepository, patients PatientRepository, specialties SpecialtyRepository,
	availability AvailabilityResolver, appointments AppointmentCounter, revenue RevenueSource,
	tx db.TxRunner, log zerolog.Logger) *Service {
	return &Service{
		doctors:      doctors,
		patients:     patients,
		specialties:  specialties,
		availability: availability,
		appointments: appointments,
		revenue:      revenue,
		tx:           tx,
		log:          log.With().Str("component", "directory").Logger(),
	}
}

// CreatePatientProfile sets up the patient record for a new user with a
// seeded wallet balance.
func (s *Service) CreatePatientProfile(ctx context.Context, userID uuid.UUID, fullName string) (*Patient, error) {
	if fullName == "" {
		return nil, fmt.Errorf("full name is required")
	}
	p := &Patient{
		UserID:   userID,
		FullName: fullName,
		Balance:  decimal.RequireFromString(signupBalances[rand.Intn(len(signupBalances))]),
	}
	if err := s.patients.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) CreateDoctorProfile(ctx context.Context, userID uuid.UUID, fullName string) (*Doctor, error) {
	if fullName == "" {
		return nil, fmt.Errorf("full name is required")
	}
	d := &Doctor{UserID: userID, FullName: fullName}
	if err := s.doctors.Create(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

func (s *Service) PatientIDForUser(ctx context.Context, userID uuid.UUID) (uuid.UUID, error) {
	p, err := s.patients.GetByUserID(ctx, userID)
	if err != nil {
		return uuid.Nil, err
	}
	return p.ID, nil
}

func (s *Service) DoctorIDForUser(ctx context.Context, userID uuid.UUID) (uuid.UUID, error) {
	d, err := s.doctors.GetByUserID(ctx, userID)
	if err != nil {
		return uuid.Nil, err
	}
	return d.ID, nil
}

func (s *Service) GetDoctor(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	d, err := s.doctors.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	specialties, err := s.doctors.ListSpecialties(ctx, id)
	if err != nil {
		return nil, err
	}
	d.Specialties = specialties
	return d, nil
}

// ListDoctors returns the doctor roster with each doctor's next bookable
// slot attached. An availability failure drops the slot, not the doctor.
func (s *Service) ListDoctors(ctx context.Context, limit, offset int) ([]*DoctorListing, int, error) {
	doctors, total, err := s.doctors.List(ctx, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	listings := make([]*DoctorListing, 0, len(doctors))
	for _, d := range doctors {
		listing := &DoctorListing{Doctor: d}
		if slot, err := s.availability.NextAvailableSlot(ctx, d.ID); err != nil {
			s.log.Warn().Err(err).Str("doctor_id", d.ID.String()).Msg("failed to resolve next available slot")
		} else {
			listing.NextAvailable = &slot
		}
		listings = append(listings, listing)
	}
	return listings, total, nil
}

func (s *Service) TopRatedDoctors(ctx context.Context) ([]*Doctor, error) {
	return s.doctors.TopRated(ctx, 5)
}

func (s *Service) UpdateDoctor(ctx context.Context, d *Doctor) error {
	if d.FullName == "" {
		return fmt.Errorf("full name is required")
	}
	if d.ConsultationFee.IsNegative() {
		return fmt.Errorf("consultation fee cannot be negative")
	}
	return s.doctors.Update(ctx, d)
}

func (s *Service) SetDoctorSpecialties(ctx context.Context, doctorID uuid.UUID, specialtyIDs []uuid.UUID) error {
	if _, err := s.doctors.GetByID(ctx, doctorID); err != nil {
		return err
	}
	return s.tx.WithTx(ctx, func(ctx context.Context) error {
		return s.doctors.ReplaceSpecialties(ctx, doctorID, specialtyIDs)
	})
}

// DeleteDoctor removes the doctor and everything tied to them in one
// transaction.
func (s *Service) DeleteDoctor(ctx context.Context, id uuid.UUID) error {
	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		return s.doctors.CascadeDelete(ctx, id)
	})
	if err != nil {
		return err
	}
	s.log.Info().Str("doctor_id", id.String()).Msg("doctor deleted")
	return nil
}

func (s *Service) GetPatient(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return s.patients.GetByID(ctx, id)
}

func (s *Service) GetPatientByUser(ctx context.Context, userID uuid.UUID) (*Patient, error) {
	return s.patients.GetByUserID(ctx, userID)
}

func (s *Service) UpdatePatient(ctx context.Context, p *Patient) error {
	if p.FullName == "" {
		return fmt.Errorf("full name is required")
	}
	return s.patients.Update(ctx, p)
}

func (s *Service) ListPatients(ctx context.Context, limit, offset int) ([]*Patient, int, error) {
	return s.patients.List(ctx, limit, offset)
}

// ToggleFavorite adds the doctor to the patient's favorites, or removes them
// if already present. It reports whether the doctor ended up favorited.
func (s *Service) ToggleFavorite(ctx context.Context, patientID, doctorID uuid.UUID) (bool, error) {
	if _, err := s.doctors.GetByID(ctx, doctorID); err != nil {
		return false, err
	}
	favorited, err := s.patients.IsFavorite(ctx, patientID, doctorID)
	if err != nil {
		return false, err
	}
	if favorited {
		return false, s.patients.RemoveFavorite(ctx, patientID, doctorID)
	}
	return true, s.patients.AddFavorite(ctx, patientID, doctorID)
}

func (s *Service) ListFavorites(ctx context.Context, patientID uuid.UUID) ([]*Doctor, error) {
	return s.patients.ListFavorites(ctx, patientID)
}

func (s *Service) CreateSpecialty(ctx context.Context, name string) (*Specialty, error) {
	if name == "" {
		return nil, fmt.Errorf("name is required")
	}
	sp := &Specialty{Name: name}
	if err := s.specialties.Create(ctx, sp); err != nil {
		return nil, err
	}
	return sp, nil
}

func (s *Service) ListSpecialties(ctx context.Context) ([]*Specialty, error) {
	return s.specialties.List(ctx)
}

func (s *Service) UpdateSpecialty(ctx context.Context, id uuid.UUID, name string) (*Specialty, error) {
	if name == "" {
		return nil, fmt.Errorf("name is required")
	}
	sp := &Specialty{ID: id, Name: name}
	if err := s.specialties.Update(ctx, sp); err != nil {
		return nil, err
	}
	return sp, nil
}

func (s *Service) DeleteSpecialty(ctx context.Context, id uuid.UUID) error {
	return s.tx.WithTx(ctx, func(ctx context.Context) error {
		return s.specialties.Delete(ctx, id)
	})
}

// Dashboard aggregates headline numbers for the admin overview.
func (s *Service) Dashboard(ctx context.Context) (*DashboardStats, error) {
	doctors, err := s.doctors.Count(ctx)
	if err != nil {
		return nil, err
	}
	patients, err := s.patients.Count(ctx)
	if err != nil {
		return nil, err
	}
	appointments, err := s.appointments.Count(ctx)
	if err != nil {
		return nil, err
	}
	revenue, err := s.revenue.ConfirmedRevenue(ctx)
	if err != nil {
		return nil, err
	}
	return &DashboardStats{
		Doctors:          doctors,
		Patients:         patients,
		Appointments:     appointments,
		ConfirmedRevenue: revenue,
	}, nil
}
