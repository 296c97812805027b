package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/clinic/clinic/internal/domain/scheduling"
)

type mockLister struct {
	appts []*scheduling.Appointment
	err   error
	from  time.Time
	to    time.Time
}

func (m *mockLister) ListStartingBetween(_ context.Context, from, to time.Time) ([]*scheduling.Appointment, error) {
	m.from, m.to = from, to
	return m.appts, m.err
}

func TestSweep_CountsUpcoming(t *testing.T) {
	lister := &mockLister{appts: []*scheduling.Appointment{
		{ID: uuid.New(), PatientID: uuid.New(), DoctorID: uuid.New(), StartTime: time.Now().Add(time.Hour)},
		{ID: uuid.New(), PatientID: uuid.New(), DoctorID: uuid.New(), StartTime: time.Now().Add(2 * time.Hour)},
	}}
	r := NewReminder(lister, zerolog.Nop())

	n, err := r.Sweep(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 reminders, got %d", n)
	}
}

func TestSweep_UsesDayWindow(t *testing.T) {
	lister := &mockLister{}
	r := NewReminder(lister, zerolog.Nop())

	if _, err := r.Sweep(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	window := lister.to.Sub(lister.from)
	if window != 24*time.Hour {
		t.Errorf("expected 24h window, got %s", window)
	}
}

func TestSweep_PropagatesError(t *testing.T) {
	lister := &mockLister{err: errors.New("db down")}
	r := NewReminder(lister, zerolog.Nop())

	if _, err := r.Sweep(context.Background()); err == nil {
		t.Error("expected error")
	}
}
