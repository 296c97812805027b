package review

import (
	"context"
	"fmt"

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

const reviewColumns = "id, patient_id, doctor_id, rating, comment, created_at"

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

func (r *repoPG) Create(ctx context.Context, rev *Review) error {
	rev.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO reviews (id, patient_id, doctor_id, rating, comment)
		VALUES ($1, $2, $3, $4, $5)`,
		rev.ID, rev.PatientID, rev.DoctorID, rev.Rating, rev.Comment)
	if err != nil {
		return fmt.Errorf("insert review: %w", err)
	}
	return nil
}

func (r *repoPG) ListByDoctor(ctx context.Context, doctorID uuid.UUID, limit, offset int) ([]*Review, int, error) {
	c := r.conn(ctx)
	var total int
	err := c.QueryRow(ctx, `SELECT COUNT(*) FROM reviews WHERE doctor_id = $1`, doctorID).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count reviews: %w", err)
	}
	rows, err := c.Query(ctx, `
		SELECT `+reviewColumns+`
		FROM reviews WHERE doctor_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`, doctorID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list reviews: %w", err)
	}
	defer rows.Close()

	var reviews []*Review
	for rows.Next() {
		var rev Review
		if err := rows.Scan(&rev.ID, &rev.PatientID, &rev.DoctorID, &rev.Rating, &rev.Comment, &rev.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan review: %w", err)
		}
		reviews = append(reviews, &rev)
	}
	return reviews, total, rows.Err()
}

func (r *repoPG) AverageForDoctor(ctx context.Context, doctorID uuid.UUID) (decimal.Decimal, error) {
	var avg decimal.Decimal
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT COALESCE(AVG(rating), 0) FROM reviews WHERE doctor_id = $1`, doctorID).Scan(&avg)
	if err != nil {
		return decimal.Zero, fmt.Errorf("average rating: %w", err)
	}
	return avg, nil
}
