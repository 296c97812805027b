package scheduling

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinic/clinic/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

const scheduleColumns = "id, doctor_id, day, start_time, end_time, is_blocked, created_at"

const appointmentColumns = `id, patient_id, doctor_id, start_time, end_time, status,
	appointment_type, fee, notes, is_paid, payment_transaction_id, created_at, updated_at`

type scheduleRepoPG struct {
	pool *pgxpool.Pool
}

func NewScheduleRepoPG(pool *pgxpool.Pool) ScheduleRepository {
	return &scheduleRepoPG{pool: pool}
}

func (r *scheduleRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

func (r *scheduleRepoPG) Replace(ctx context.Context, doctorID uuid.UUID, entries []*ScheduleEntry) error {
	c := r.conn(ctx)
	if _, err := c.Exec(ctx, `DELETE FROM doctor_schedules WHERE doctor_id = $1`, doctorID); err != nil {
		return fmt.Errorf("clear schedule: %w", err)
	}
	for _, e := range entries {
		e.ID = uuid.New()
		e.DoctorID = doctorID
		_, err := c.Exec(ctx, `
			INSERT INTO doctor_schedules (id, doctor_id, day, start_time, end_time, is_blocked)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			e.ID, e.DoctorID, int(e.Day), e.Start, e.End, e.IsBlocked)
		if err != nil {
			return fmt.Errorf("insert schedule entry: %w", err)
		}
	}
	return nil
}

func (r *scheduleRepoPG) ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]*ScheduleEntry, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+scheduleColumns+`
		FROM doctor_schedules WHERE doctor_id = $1 ORDER BY day`, doctorID)
	if err != nil {
		return nil, fmt.Errorf("list schedule: %w", err)
	}
	defer rows.Close()

	var entries []*ScheduleEntry
	for rows.Next() {
		var e ScheduleEntry
		var day int16
		if err := rows.Scan(&e.ID, &e.DoctorID, &day, &e.Start, &e.End, &e.IsBlocked, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan schedule entry: %w", err)
		}
		e.Day = time.Weekday(day)
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}

type appointmentRepoPG struct {
	pool *pgxpool.Pool
}

func NewAppointmentRepoPG(pool *pgxpool.Pool) AppointmentRepository {
	return &appointmentRepoPG{pool: pool}
}

func (r *appointmentRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	err := row.Scan(&a.ID, &a.PatientID, &a.DoctorID, &a.StartTime, &a.EndTime, &a.Status,
		&a.AppointmentType, &a.Fee, &a.Notes, &a.IsPaid, &a.PaymentTransactionID,
		&a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan appointment: %w", err)
	}
	return &a, nil
}

func collectAppointments(rows pgx.Rows) ([]*Appointment, error) {
	defer rows.Close()
	var appts []*Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		appts = append(appts, a)
	}
	return appts, rows.Err()
}

func (r *appointmentRepoPG) Create(ctx context.Context, a *Appointment) error {
	a.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO appointments (id, patient_id, doctor_id, start_time, end_time,
			status, appointment_type, fee, notes, is_paid)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		a.ID, a.PatientID, a.DoctorID, a.StartTime, a.EndTime,
		a.Status, a.AppointmentType, a.Fee, a.Notes, a.IsPaid)
	if err != nil {
		return fmt.Errorf("insert appointment: %w", err)
	}
	return nil
}

func (r *appointmentRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	row := r.conn(ctx).QueryRow(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments WHERE id = $1`, id)
	return scanAppointment(row)
}

func (r *appointmentRepoPG) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE appointments SET status = $2, updated_at = NOW() WHERE id = $1`, id, status)
	if err != nil {
		return fmt.Errorf("update appointment status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *appointmentRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM appointments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete appointment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *appointmentRepoPG) List(ctx context.Context, limit, offset int) ([]*Appointment, int, error) {
	c := r.conn(ctx)
	var total int
	if err := c.QueryRow(ctx, `SELECT COUNT(*) FROM appointments`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count appointments: %w", err)
	}
	rows, err := c.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		ORDER BY start_time DESC
		LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list appointments: %w", err)
	}
	appts, err := collectAppointments(rows)
	if err != nil {
		return nil, 0, err
	}
	return appts, total, nil
}

func (r *appointmentRepoPG) ListByDoctor(ctx context.Context, doctorID uuid.UUID, limit, offset int) ([]*Appointment, int, error) {
	return r.list(ctx, "doctor_id", doctorID, limit, offset)
}

func (r *appointmentRepoPG) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Appointment, int, error) {
	return r.list(ctx, "patient_id", patientID, limit, offset)
}

func (r *appointmentRepoPG) list(ctx context.Context, col string, id uuid.UUID, limit, offset int) ([]*Appointment, int, error) {
	c := r.conn(ctx)
	var total int
	err := c.QueryRow(ctx, `SELECT COUNT(*) FROM appointments WHERE `+col+` = $1`, id).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count appointments: %w", err)
	}
	rows, err := c.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments WHERE `+col+` = $1
		ORDER BY start_time DESC
		LIMIT $2 OFFSET $3`, id, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list appointments: %w", err)
	}
	appts, err := collectAppointments(rows)
	if err != nil {
		return nil, 0, err
	}
	return appts, total, nil
}

func (r *appointmentRepoPG) ListActiveByDoctor(ctx context.Context, doctorID uuid.UUID, from, to time.Time) ([]*Appointment, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE doctor_id = $1 AND status <> 'cancelled'
		  AND start_time < $3 AND end_time > $2
		ORDER BY start_time`, doctorID, from, to)
	if err != nil {
		return nil, fmt.Errorf("list active appointments: %w", err)
	}
	return collectAppointments(rows)
}

func (r *appointmentRepoPG) FindConflict(ctx context.Context, doctorID uuid.UUID, start, end time.Time) (*Appointment, error) {
	row := r.conn(ctx).QueryRow(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE doctor_id = $1 AND status <> 'cancelled'
		  AND start_time < $3 AND end_time > $2
		LIMIT 1`, doctorID, start, end)
	a, err := scanAppointment(row)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	return a, err
}

func (r *appointmentRepoPG) LockDoctor(ctx context.Context, doctorID uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`, doctorID.String())
	if err != nil {
		return fmt.Errorf("lock doctor: %w", err)
	}
	return nil
}

func (r *appointmentRepoPG) ListStartingBetween(ctx context.Context, from, to time.Time) ([]*Appointment, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE status <> 'cancelled' AND start_time >= $1 AND start_time < $2
		ORDER BY start_time`, from, to)
	if err != nil {
		return nil, fmt.Errorf("list appointments by start: %w", err)
	}
	return collectAppointments(rows)
}

func (r *appointmentRepoPG) SetPaymentTransaction(ctx context.Context, id, paymentID uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE appointments SET payment_transaction_id = $2, updated_at = NOW() WHERE id = $1`, id, paymentID)
	if err != nil {
		return fmt.Errorf("set payment transaction: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *appointmentRepoPG) MarkPaid(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE appointments SET is_paid = TRUE, updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("mark appointment paid: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *appointmentRepoPG) Count(ctx context.Context) (int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM appointments`).Scan(&total); err != nil {
		return 0, fmt.Errorf("count appointments: %w", err)
	}
	return total, nil
}

func (r *appointmentRepoPG) ListUpcomingByPatient(ctx context.Context, patientID uuid.UUID, from, to time.Time) ([]*Appointment, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE patient_id = $1 AND status <> 'cancelled'
		  AND start_time >= $2 AND start_time < $3
		ORDER BY start_time`, patientID, from, to)
	if err != nil {
		return nil, fmt.Errorf("list upcoming appointments: %w", err)
	}
	return collectAppointments(rows)
}
