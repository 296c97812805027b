package scheduling

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/clinic/clinic/internal/platform/db"
)

var validAppointmentTypes = map[string]bool{
	TypeRegular:   true,
	TypeFollowUp:  true,
	TypeEmergency: true,
}

// BookingRequest carries everything needed to place an appointment. A zero
// BaseFee means the doctor's consultation fee is used.
type BookingRequest struct {
	PatientID       uuid.UUID
	DoctorID        uuid.UUID
	Start           time.Time
	End             time.Time
	AppointmentType string
	BaseFee         decimal.Decimal
	Notes           *string
}

type Service struct {
	schedules    ScheduleRepository
	appointments AppointmentRepository
	doctors      DoctorDirectory
	payments     PaymentPurger
	tx           db.TxRunner
	log          zerolog.Logger
}

func NewService(schedules ScheduleRepository, appointments AppointmentRepository,
	doctors DoctorDirectory, payments PaymentPurger, tx db.TxRunner, log zerolog.Logger) *Service {
	return &Service{
		schedules:    schedules,
		appointments: appointments,
		doctors:      doctors,
		payments:     payments,
		tx:           tx,
		log:          log.With().Str("component", "scheduling").Logger(),
	}
}

// SetSchedule replaces the doctor's weekly schedule. Blocked entries need no
// times; open entries must carry a valid "HH:MM" window with start before end.
func (s *Service) SetSchedule(ctx context.Context, doctorID uuid.UUID, entries []*ScheduleEntry) error {
	if doctorID == uuid.Nil {
		return fmt.Errorf("doctor id is required")
	}
	for _, e := range entries {
		if e.Day < time.Sunday || e.Day > time.Saturday {
			return fmt.Errorf("invalid day %d", e.Day)
		}
		if e.IsBlocked {
			continue
		}
		start, err := parseClock(e.Start)
		if err != nil {
			return err
		}
		end, err := parseClock(e.End)
		if err != nil {
			return err
		}
		if end <= start {
			return fmt.Errorf("schedule window for %s must end after it starts", e.Day)
		}
	}
	return s.tx.WithTx(ctx, func(ctx context.Context) error {
		return s.schedules.Replace(ctx, doctorID, entries)
	})
}

func (s *Service) WeeklySchedule(ctx context.Context, doctorID uuid.UUID) ([]*ScheduleEntry, error) {
	return s.schedules.ListByDoctor(ctx, doctorID)
}

// Book places a pending appointment after checking the slot is free. The
// conflict check and insert run under a per-doctor advisory lock so two
// concurrent requests for the same window cannot both succeed.
func (s *Service) Book(ctx context.Context, req BookingRequest) (*Appointment, error) {
	if req.PatientID == uuid.Nil || req.DoctorID == uuid.Nil {
		return nil, fmt.Errorf("patient id and doctor id are required")
	}
	if req.AppointmentType == "" {
		req.AppointmentType = TypeRegular
	}
	if !validAppointmentTypes[req.AppointmentType] {
		return nil, fmt.Errorf("invalid appointment type: %s", req.AppointmentType)
	}
	if !req.End.After(req.Start) {
		return nil, ErrInvalidTimeRange
	}

	baseFee := req.BaseFee
	if baseFee.IsZero() {
		fee, err := s.doctors.ConsultationFee(ctx, req.DoctorID)
		if err != nil {
			return nil, fmt.Errorf("resolve consultation fee: %w", err)
		}
		baseFee = fee
	}

	appt := &Appointment{
		PatientID:       req.PatientID,
		DoctorID:        req.DoctorID,
		StartTime:       req.Start,
		EndTime:         req.End,
		Status:          StatusPending,
		AppointmentType: req.AppointmentType,
		Fee:             ComputeFee(req.AppointmentType, baseFee),
		Notes:           req.Notes,
	}

	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		if err := s.appointments.LockDoctor(ctx, req.DoctorID); err != nil {
			return err
		}
		conflict, err := s.appointments.FindConflict(ctx, req.DoctorID, req.Start, req.End)
		if err != nil {
			return err
		}
		if conflict != nil {
			return &SlotUnavailableError{ConflictStart: conflict.StartTime, ConflictEnd: conflict.EndTime}
		}
		return s.appointments.Create(ctx, appt)
	})
	if err != nil {
		return nil, err
	}

	// The counter is informational, so a failure here must not undo the
	// committed booking.
	if err := s.doctors.IncrementTotalPatients(ctx, req.DoctorID); err != nil {
		s.log.Warn().Err(err).
			Str("doctor_id", req.DoctorID.String()).
			Str("appointment_id", appt.ID.String()).
			Msg("failed to increment total patients")
	}

	s.log.Info().
		Str("appointment_id", appt.ID.String()).
		Str("doctor_id", req.DoctorID.String()).
		Time("start", req.Start).
		Msg("appointment booked")
	return appt, nil
}

// Actor identifies the caller of an appointment operation. Patients act on
// their own appointments, doctors on theirs, and admins on any.
type Actor struct {
	Role      string
	SubjectID uuid.UUID
}

func (a Actor) owns(appt *Appointment) bool {
	switch a.Role {
	case "admin":
		return true
	case "patient":
		return appt.PatientID == a.SubjectID
	case "doctor":
		return appt.DoctorID == a.SubjectID
	}
	return false
}

// GetFor returns the appointment when the actor is allowed to see it.
func (s *Service) GetFor(ctx context.Context, id uuid.UUID, actor Actor) (*Appointment, error) {
	appt, err := s.appointments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.owns(appt) {
		return nil, ErrForbidden
	}
	return appt, nil
}

func (s *Service) Confirm(ctx context.Context, id uuid.UUID, actor Actor) (*Appointment, error) {
	return s.setStatus(ctx, id, actor, StatusConfirmed)
}

func (s *Service) Cancel(ctx context.Context, id uuid.UUID, actor Actor) (*Appointment, error) {
	return s.setStatus(ctx, id, actor, StatusCancelled)
}

func (s *Service) setStatus(ctx context.Context, id uuid.UUID, actor Actor, status string) (*Appointment, error) {
	appt, err := s.appointments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.owns(appt) {
		return nil, ErrForbidden
	}
	if err := s.appointments.UpdateStatus(ctx, id, status); err != nil {
		return nil, err
	}
	return s.appointments.GetByID(ctx, id)
}

// Delete removes an appointment together with any payment opened for it.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.appointments.GetByID(ctx, id); err != nil {
		return err
	}
	return s.tx.WithTx(ctx, func(ctx context.Context) error {
		if err := s.payments.PurgeByAppointment(ctx, id); err != nil {
			return err
		}
		return s.appointments.Delete(ctx, id)
	})
}

func (s *Service) List(ctx context.Context, limit, offset int) ([]*Appointment, int, error) {
	return s.appointments.List(ctx, limit, offset)
}

func (s *Service) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Appointment, int, error) {
	return s.appointments.ListByPatient(ctx, patientID, limit, offset)
}

func (s *Service) ListByDoctor(ctx context.Context, doctorID uuid.UUID, limit, offset int) ([]*Appointment, int, error) {
	return s.appointments.ListByDoctor(ctx, doctorID, limit, offset)
}

// UpcomingForPatient lists the patient's non-cancelled appointments starting
// within the next three days.
func (s *Service) UpcomingForPatient(ctx context.Context, patientID uuid.UUID) ([]*Appointment, error) {
	now := time.Now()
	return s.appointments.ListUpcomingByPatient(ctx, patientID, now, now.AddDate(0, 0, 3))
}

// NextAvailableSlot finds the earliest bookable slot for the doctor within
// the next seven days.
func (s *Service) NextAvailableSlot(ctx context.Context, doctorID uuid.UUID) (time.Time, error) {
	now := time.Now()
	entries, err := s.schedules.ListByDoctor(ctx, doctorID)
	if err != nil {
		return time.Time{}, err
	}
	appts, err := s.appointments.ListActiveByDoctor(ctx, doctorID, now, now.AddDate(0, 0, 8))
	if err != nil {
		return time.Time{}, err
	}
	return NextAvailableSlot(now, entries, appts), nil
}

// AvailabilityCalendar reports the doctor's free slots per day between from
// and to, inclusive.
func (s *Service) AvailabilityCalendar(ctx context.Context, doctorID uuid.UUID, from, to time.Time) ([]DayAvailability, error) {
	if to.Before(from) {
		return nil, ErrInvalidTimeRange
	}
	entries, err := s.schedules.ListByDoctor(ctx, doctorID)
	if err != nil {
		return nil, err
	}
	appts, err := s.appointments.ListActiveByDoctor(ctx, doctorID, from, to.AddDate(0, 0, 1))
	if err != nil {
		return nil, err
	}
	return Calendar(from, to, entries, appts), nil
}

// ConsultationFeeFor exposes the priced fee for a prospective appointment
// type without booking it.
func (s *Service) ConsultationFeeFor(ctx context.Context, doctorID uuid.UUID, appointmentType string) (decimal.Decimal, error) {
	if appointmentType == "" {
		appointmentType = TypeRegular
	}
	if !validAppointmentTypes[appointmentType] {
		return decimal.Zero, fmt.Errorf("invalid appointment type: %s", appointmentType)
	}
	baseFee, err := s.doctors.ConsultationFee(ctx, doctorID)
	if err != nil {
		return decimal.Zero, err
	}
	return ComputeFee(appointmentType, baseFee), nil
}
