package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/clinic/clinic/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

const paymentColumns = "id, appointment_id, patient_id, amount, method, paid_at, is_confirmed, confirmed_at"

type repoPG struct {
	pool *pgxpool.Pool
}

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

func scanPayment(row pgx.Row) (*Payment, error) {
	var p Payment
	err := row.Scan(&p.ID, &p.AppointmentID, &p.PatientID, &p.Amount, &p.Method,
		&p.PaidAt, &p.IsConfirmed, &p.ConfirmedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan payment: %w", err)
	}
	return &p, nil
}

func (r *repoPG) Create(ctx context.Context, p *Payment) error {
	p.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO payments (id, appointment_id, patient_id, amount, method, paid_at, is_confirmed)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		p.ID, p.AppointmentID, p.PatientID, p.Amount, p.Method, p.PaidAt, p.IsConfirmed)
	if err != nil {
		return fmt.Errorf("insert payment: %w", err)
	}
	return nil
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Payment, error) {
	row := r.conn(ctx).QueryRow(ctx, `
		SELECT `+paymentColumns+` FROM payments WHERE id = $1`, id)
	return scanPayment(row)
}

func (r *repoPG) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*Payment, error) {
	row := r.conn(ctx).QueryRow(ctx, `
		SELECT `+paymentColumns+` FROM payments WHERE id = $1 FOR UPDATE`, id)
	return scanPayment(row)
}

func (r *repoPG) MarkConfirmed(ctx context.Context, id uuid.UUID, at time.Time) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE payments SET is_confirmed = TRUE, confirmed_at = $2 WHERE id = $1`, id, at)
	if err != nil {
		return fmt.Errorf("confirm payment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Payment, int, error) {
	c := r.conn(ctx)
	var total int
	err := c.QueryRow(ctx, `SELECT COUNT(*) FROM payments WHERE patient_id = $1`, patientID).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count payments: %w", err)
	}
	rows, err := c.Query(ctx, `
		SELECT `+paymentColumns+`
		FROM payments WHERE patient_id = $1
		ORDER BY paid_at DESC
		LIMIT $2 OFFSET $3`, patientID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list payments: %w", err)
	}
	defer rows.Close()

	var payments []*Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, 0, err
		}
		payments = append(payments, p)
	}
	return payments, total, rows.Err()
}

func (r *repoPG) PurgeByAppointment(ctx context.Context, appointmentID uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM payments WHERE appointment_id = $1`, appointmentID)
	if err != nil {
		return fmt.Errorf("purge payments: %w", err)
	}
	return nil
}

func (r *repoPG) ConfirmedRevenue(ctx context.Context) (decimal.Decimal, error) {
	var revenue decimal.Decimal
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT COALESCE(SUM(amount), 0) FROM payments WHERE is_confirmed`).Scan(&revenue)
	if err != nil {
		return decimal.Zero, fmt.Errorf("sum confirmed revenue: %w", err)
	}
	return revenue, nil
}
