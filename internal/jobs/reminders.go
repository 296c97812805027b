package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/clinic/clinic/internal/domain/scheduling"
)

// UpcomingLister is the slice of the appointment store the reminder sweep
// reads from.
type UpcomingLister interface {
	ListStartingBetween(ctx context.Context, from, to time.Time) ([]*scheduling.Appointment, error)
}

// Reminder logs upcoming appointments on a schedule so a notification
// channel can be attached later without touching the sweep.
type Reminder struct {
	appointments UpcomingLister
	window       time.Duration
	log          zerolog.Logger
}

func NewReminder(appointments UpcomingLister, log zerolog.Logger) *Reminder {
	return &Reminder{
		appointments: appointments,
		window:       24 * time.Hour,
		log:          log.With().Str("component", "reminders").Logger(),
	}
}

// Sweep finds appointments starting within the window and logs one reminder
// per appointment. It returns how many it found.
func (r *Reminder) Sweep(ctx context.Context) (int, error) {
	now := time.Now()
	appts, err := r.appointments.ListStartingBetween(ctx, now, now.Add(r.window))
	if err != nil {
		return 0, err
	}
	for _, a := range appts {
		r.log.Info().
			Str("appointment_id", a.ID.String()).
			Str("patient_id", a.PatientID.String()).
			Str("doctor_id", a.DoctorID.String()).
			Time("start", a.StartTime).
			Msg("appointment reminder")
	}
	return len(appts), nil
}

// Schedule registers the sweep with the cron runner under the given spec.
func (r *Reminder) Schedule(c *cron.Cron, spec string) error {
	_, err := c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if _, err := r.Sweep(ctx); err != nil {
			r.log.Error().Err(err).Msg("reminder sweep failed")
		}
	})
	return err
}
