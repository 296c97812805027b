package scheduling

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

type mockScheduleRepo struct {
	entries map[uuid.UUID][]*ScheduleEntry
}

func newMockScheduleRepo() *mockScheduleRepo {
	return &mockScheduleRepo{entries: make(map[uuid.UUID][]*ScheduleEntry)}
}

func (m *mockScheduleRepo) Replace(_ context.Context, doctorID uuid.UUID, entries []*ScheduleEntry) error {
	m.entries[doctorID] = entries
	return nil
}

func (m *mockScheduleRepo) ListByDoctor(_ context.Context, doctorID uuid.UUID) ([]*ScheduleEntry, error) {
	return m.entries[doctorID], nil
}

type mockAppointmentRepo struct {
	appts     map[uuid.UUID]*Appointment
	lockCalls int
}

func newMockAppointmentRepo() *mockAppointmentRepo {
	return &mockAppointmentRepo{appts: make(map[uuid.UUID]*Appointment)}
}

func (m *mockAppointmentRepo) Create(_ context.Context, a *Appointment) error {
	a.ID = uuid.New()
	m.appts[a.ID] = a
	return nil
}

func (m *mockAppointmentRepo) GetByID(_ context.Context, id uuid.UUID) (*Appointment, error) {
	a, ok := m.appts[id]
	if !ok {
		return nil, ErrNotFound
	}
	return a, nil
}

func (m *mockAppointmentRepo) UpdateStatus(_ context.Context, id uuid.UUID, status string) error {
	a, ok := m.appts[id]
	if !ok {
		return ErrNotFound
	}
	a.Status = status
	return nil
}

func (m *mockAppointmentRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := m.appts[id]; !ok {
		return ErrNotFound
	}
	delete(m.appts, id)
	return nil
}

func (m *mockAppointmentRepo) List(_ context.Context, _, _ int) ([]*Appointment, int, error) {
	var out []*Appointment
	for _, a := range m.appts {
		out = append(out, a)
	}
	return out, len(out), nil
}

func (m *mockAppointmentRepo) ListByDoctor(_ context.Context, doctorID uuid.UUID, _, _ int) ([]*Appointment, int, error) {
	var out []*Appointment
	for _, a := range m.appts {
		if a.DoctorID == doctorID {
			out = append(out, a)
		}
	}
	return out, len(out), nil
}

func (m *mockAppointmentRepo) ListByPatient(_ context.Context, patientID uuid.UUID, _, _ int) ([]*Appointment, int, error) {
	var out []*Appointment
	for _, a := range m.appts {
		if a.PatientID == patientID {
			out = append(out, a)
		}
	}
	return out, len(out), nil
}

func (m *mockAppointmentRepo) ListActiveByDoctor(_ context.Context, doctorID uuid.UUID, from, to time.Time) ([]*Appointment, error) {
	var out []*Appointment
	for _, a := range m.appts {
		if a.DoctorID == doctorID && a.Status != StatusCancelled &&
			a.StartTime.Before(to) && from.Before(a.EndTime) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *mockAppointmentRepo) FindConflict(_ context.Context, doctorID uuid.UUID, start, end time.Time) (*Appointment, error) {
	for _, a := range m.appts {
		if a.DoctorID == doctorID && a.Status != StatusCancelled &&
			a.StartTime.Before(end) && start.Before(a.EndTime) {
			return a, nil
		}
	}
	return nil, nil
}

func (m *mockAppointmentRepo) LockDoctor(_ context.Context, _ uuid.UUID) error {
	m.lockCalls++
	return nil
}

func (m *mockAppointmentRepo) ListStartingBetween(_ context.Context, from, to time.Time) ([]*Appointment, error) {
	var out []*Appointment
	for _, a := range m.appts {
		if a.Status != StatusCancelled && !a.StartTime.Before(from) && a.StartTime.Before(to) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *mockAppointmentRepo) ListUpcomingByPatient(_ context.Context, patientID uuid.UUID, from, to time.Time) ([]*Appointment, error) {
	var out []*Appointment
	for _, a := range m.appts {
		if a.PatientID == patientID && a.Status != StatusCancelled &&
			!a.StartTime.Before(from) && a.StartTime.Before(to) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *mockAppointmentRepo) SetPaymentTransaction(_ context.Context, id, paymentID uuid.UUID) error {
	a, ok := m.appts[id]
	if !ok {
		return ErrNotFound
	}
	a.PaymentTransactionID = &paymentID
	return nil
}

func (m *mockAppointmentRepo) Count(_ context.Context) (int, error) {
	return len(m.appts), nil
}

func (m *mockAppointmentRepo) MarkPaid(_ context.Context, id uuid.UUID) error {
	a, ok := m.appts[id]
	if !ok {
		return ErrNotFound
	}
	a.IsPaid = true
	return nil
}

type mockDirectory struct {
	fee        decimal.Decimal
	increments int
	incErr     error
}

func (m *mockDirectory) ConsultationFee(_ context.Context, _ uuid.UUID) (decimal.Decimal, error) {
	return m.fee, nil
}

func (m *mockDirectory) IncrementTotalPatients(_ context.Context, _ uuid.UUID) error {
	if m.incErr != nil {
		return m.incErr
	}
	m.increments++
	return nil
}

type mockPurger struct {
	purged []uuid.UUID
}

func (m *mockPurger) PurgeByAppointment(_ context.Context, appointmentID uuid.UUID) error {
	m.purged = append(m.purged, appointmentID)
	return nil
}

type passthroughTx struct{}

func (passthroughTx) WithTx(ctx context.Context, fn func(context.Context) error) error {
	return fn(ctx)
}

func newTestService() (*Service, *mockScheduleRepo, *mockAppointmentRepo, *mockDirectory, *mockPurger) {
	schedules := newMockScheduleRepo()
	appts := newMockAppointmentRepo()
	dir := &mockDirectory{fee: decimal.NewFromInt(100)}
	purger := &mockPurger{}
	svc := NewService(schedules, appts, dir, purger, passthroughTx{}, zerolog.Nop())
	return svc, schedules, appts, dir, purger
}

func bookingAt(start time.Time, apptType string) BookingRequest {
	return BookingRequest{
		PatientID:       uuid.New(),
		DoctorID:        uuid.New(),
		Start:           start,
		End:             start.Add(30 * time.Minute),
		AppointmentType: apptType,
	}
}

func TestBook_Succeeds(t *testing.T) {
	svc, _, appts, dir, _ := newTestService()
	start := time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC)

	appt, err := svc.Book(context.Background(), bookingAt(start, TypeRegular))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if appt.Status != StatusPending {
		t.Errorf("expected pending status, got %s", appt.Status)
	}
	if !appt.Fee.Equal(decimal.NewFromInt(100)) {
		t.Errorf("expected fee 100, got %s", appt.Fee)
	}
	if appts.lockCalls != 1 {
		t.Errorf("expected doctor lock taken once, got %d", appts.lockCalls)
	}
	if dir.increments != 1 {
		t.Errorf("expected total patients incremented once, got %d", dir.increments)
	}
}

func TestBook_EmergencyFee(t *testing.T) {
	svc, _, _, _, _ := newTestService()
	start := time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC)

	appt, err := svc.Book(context.Background(), bookingAt(start, TypeEmergency))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !appt.Fee.Equal(decimal.NewFromInt(150)) {
		t.Errorf("expected emergency fee 150, got %s", appt.Fee)
	}
}

func TestBook_RejectsInvalidRange(t *testing.T) {
	svc, _, _, _, _ := newTestService()
	start := time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC)
	req := bookingAt(start, TypeRegular)
	req.End = req.Start

	if _, err := svc.Book(context.Background(), req); !errors.Is(err, ErrInvalidTimeRange) {
		t.Errorf("expected ErrInvalidTimeRange, got %v", err)
	}
}

func TestBook_RejectsUnknownType(t *testing.T) {
	svc, _, _, _, _ := newTestService()
	start := time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC)

	if _, err := svc.Book(context.Background(), bookingAt(start, "walk_in")); err == nil {
		t.Error("expected error for unknown appointment type")
	}
}

func TestBook_OverlapReturnsSlotUnavailable(t *testing.T) {
	svc, _, _, _, _ := newTestService()
	start := time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC)
	first := bookingAt(start, TypeRegular)
	if _, err := svc.Book(context.Background(), first); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	second := first
	second.Start = start.Add(15 * time.Minute)
	second.End = second.Start.Add(30 * time.Minute)
	_, err := svc.Book(context.Background(), second)

	var slotErr *SlotUnavailableError
	if !errors.As(err, &slotErr) {
		t.Fatalf("expected SlotUnavailableError, got %v", err)
	}
	if !slotErr.ConflictStart.Equal(start) {
		t.Errorf("expected conflict start %s, got %s", start, slotErr.ConflictStart)
	}
}

func TestBook_BackToBackAllowed(t *testing.T) {
	svc, _, _, _, _ := newTestService()
	start := time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC)
	first := bookingAt(start, TypeRegular)
	if _, err := svc.Book(context.Background(), first); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	second := first
	second.Start = first.End
	second.End = second.Start.Add(30 * time.Minute)
	if _, err := svc.Book(context.Background(), second); err != nil {
		t.Errorf("expected back-to-back booking to succeed, got %v", err)
	}
}

func TestBook_CancelledSlotReusable(t *testing.T) {
	svc, _, _, _, _ := newTestService()
	start := time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC)
	first := bookingAt(start, TypeRegular)
	appt, err := svc.Book(context.Background(), first)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.Cancel(context.Background(), appt.ID, Actor{Role: "patient", SubjectID: first.PatientID}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := svc.Book(context.Background(), first); err != nil {
		t.Errorf("expected cancelled slot to be bookable, got %v", err)
	}
}

func TestBook_CounterFailureDoesNotFailBooking(t *testing.T) {
	svc, _, _, dir, _ := newTestService()
	dir.incErr = errors.New("doctor registry down")
	start := time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC)

	if _, err := svc.Book(context.Background(), bookingAt(start, TypeRegular)); err != nil {
		t.Errorf("expected booking to succeed despite counter failure, got %v", err)
	}
}

func TestSetSchedule_RejectsInvertedWindow(t *testing.T) {
	svc, _, _, _, _ := newTestService()
	entries := []*ScheduleEntry{{Day: time.Monday, Start: "12:00", End: "09:00"}}
	if err := svc.SetSchedule(context.Background(), uuid.New(), entries); err == nil {
		t.Error("expected error for inverted window")
	}
}

func TestSetSchedule_RejectsMalformedClock(t *testing.T) {
	svc, _, _, _, _ := newTestService()
	entries := []*ScheduleEntry{{Day: time.Monday, Start: "9am", End: "12:00"}}
	if err := svc.SetSchedule(context.Background(), uuid.New(), entries); err == nil {
		t.Error("expected error for malformed clock")
	}
}

func TestSetSchedule_BlockedEntryNeedsNoTimes(t *testing.T) {
	svc, schedules, _, _, _ := newTestService()
	doctorID := uuid.New()
	entries := []*ScheduleEntry{{Day: time.Monday, IsBlocked: true}}
	if err := svc.SetSchedule(context.Background(), doctorID, entries); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(schedules.entries[doctorID]) != 1 {
		t.Error("expected schedule to be stored")
	}
}

func TestDelete_PurgesLinkedPayment(t *testing.T) {
	svc, _, appts, _, purger := newTestService()
	start := time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC)
	appt, err := svc.Book(context.Background(), bookingAt(start, TypeRegular))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := svc.Delete(context.Background(), appt.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(purger.purged) != 1 || purger.purged[0] != appt.ID {
		t.Errorf("expected payment purge for %s, got %v", appt.ID, purger.purged)
	}
	if _, err := appts.GetByID(context.Background(), appt.ID); !errors.Is(err, ErrNotFound) {
		t.Error("expected appointment to be deleted")
	}
}

func TestCancel_NotFound(t *testing.T) {
	svc, _, _, _, _ := newTestService()
	actor := Actor{Role: "admin"}
	if _, err := svc.Cancel(context.Background(), uuid.New(), actor); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestCancel_ForeignPatientRejected(t *testing.T) {
	svc, _, appts, _, _ := newTestService()
	start := time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC)
	appt, err := svc.Book(context.Background(), bookingAt(start, TypeRegular))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	foreign := Actor{Role: "patient", SubjectID: uuid.New()}
	if _, err := svc.Cancel(context.Background(), appt.ID, foreign); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	stored, _ := appts.GetByID(context.Background(), appt.ID)
	if stored.Status != StatusPending {
		t.Errorf("expected status unchanged, got %s", stored.Status)
	}
}

func TestCancel_OwnerSucceeds(t *testing.T) {
	svc, _, _, _, _ := newTestService()
	start := time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC)
	req := bookingAt(start, TypeRegular)
	appt, err := svc.Book(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	owner := Actor{Role: "patient", SubjectID: req.PatientID}
	cancelled, err := svc.Cancel(context.Background(), appt.ID, owner)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cancelled.Status != StatusCancelled {
		t.Errorf("expected cancelled status, got %s", cancelled.Status)
	}
}

func TestCancel_DoctorOwnsAppointment(t *testing.T) {
	svc, _, _, _, _ := newTestService()
	start := time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC)
	req := bookingAt(start, TypeRegular)
	appt, err := svc.Book(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	otherDoctor := Actor{Role: "doctor", SubjectID: uuid.New()}
	if _, err := svc.Cancel(context.Background(), appt.ID, otherDoctor); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden for another doctor, got %v", err)
	}
	if _, err := svc.Cancel(context.Background(), appt.ID, Actor{Role: "doctor", SubjectID: req.DoctorID}); err != nil {
		t.Errorf("expected own doctor cancel to succeed, got %v", err)
	}
}

func TestConfirm_SetsStatus(t *testing.T) {
	svc, _, _, _, _ := newTestService()
	start := time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC)
	req := bookingAt(start, TypeRegular)
	appt, err := svc.Book(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	confirmed, err := svc.Confirm(context.Background(), appt.ID, Actor{Role: "doctor", SubjectID: req.DoctorID})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if confirmed.Status != StatusConfirmed {
		t.Errorf("expected confirmed status, got %s", confirmed.Status)
	}
}

func TestConfirm_ForeignDoctorRejected(t *testing.T) {
	svc, _, _, _, _ := newTestService()
	start := time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC)
	appt, err := svc.Book(context.Background(), bookingAt(start, TypeRegular))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	foreign := Actor{Role: "doctor", SubjectID: uuid.New()}
	if _, err := svc.Confirm(context.Background(), appt.ID, foreign); !errors.Is(err, ErrForbidden) {
		t.Errorf("expected ErrForbidden, got %v", err)
	}
}

func TestGetFor_ScopesToOwner(t *testing.T) {
	svc, _, _, _, _ := newTestService()
	start := time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC)
	req := bookingAt(start, TypeRegular)
	appt, err := svc.Book(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := svc.GetFor(context.Background(), appt.ID, Actor{Role: "patient", SubjectID: req.PatientID}); err != nil {
		t.Errorf("expected owner to read their appointment, got %v", err)
	}
	if _, err := svc.GetFor(context.Background(), appt.ID, Actor{Role: "patient", SubjectID: uuid.New()}); !errors.Is(err, ErrForbidden) {
		t.Errorf("expected ErrForbidden for foreign patient, got %v", err)
	}
	if _, err := svc.GetFor(context.Background(), appt.ID, Actor{Role: "admin"}); err != nil {
		t.Errorf("expected admin to read any appointment, got %v", err)
	}
}
