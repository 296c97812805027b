package review

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

type mockReviewRepo struct {
	reviews []*Review
}

func (m *mockReviewRepo) Create(_ context.Context, r *Review) error {
	r.ID = uuid.New()
	m.reviews = append(m.reviews, r)
	return nil
}

func (m *mockReviewRepo) ListByDoctor(_ context.Context, doctorID uuid.UUID, _, _ int) ([]*Review, int, error) {
	var out []*Review
	for _, r := range m.reviews {
		if r.DoctorID == doctorID {
			out = append(out, r)
		}
	}
	return out, len(out), nil
}

func (m *mockReviewRepo) AverageForDoctor(_ context.Context, doctorID uuid.UUID) (decimal.Decimal, error) {
	sum, n := 0, 0
	for _, r := range m.reviews {
		if r.DoctorID == doctorID {
			sum += r.Rating
			n++
		}
	}
	if n == 0 {
		return decimal.Zero, nil
	}
	return decimal.NewFromInt(int64(sum)).Div(decimal.NewFromInt(int64(n))), nil
}

type mockRatings struct {
	averages map[uuid.UUID]decimal.Decimal
}

func (m *mockRatings) UpdateAverageRating(_ context.Context, doctorID uuid.UUID, average decimal.Decimal) error {
	m.averages[doctorID] = average
	return nil
}

type passthroughTx struct{}

func (passthroughTx) WithTx(ctx context.Context, fn func(context.Context) error) error {
	return fn(ctx)
}

func newTestService() (*Service, *mockReviewRepo, *mockRatings) {
	reviews := &mockReviewRepo{}
	ratings := &mockRatings{averages: make(map[uuid.UUID]decimal.Decimal)}
	svc := NewService(reviews, ratings, passthroughTx{}, zerolog.Nop())
	return svc, reviews, ratings
}

func TestSubmit_FirstReviewSetsAverage(t *testing.T) {
	svc, _, ratings := newTestService()
	doctorID := uuid.New()

	if _, err := svc.Submit(context.Background(), uuid.New(), doctorID, 5, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ratings.averages[doctorID].Equal(decimal.NewFromInt(5)) {
		t.Errorf("expected average 5, got %s", ratings.averages[doctorID])
	}
}

func TestSubmit_RecomputesMean(t *testing.T) {
	svc, _, ratings := newTestService()
	doctorID := uuid.New()

	for _, rating := range []int{3, 5, 4} {
		if _, err := svc.Submit(context.Background(), uuid.New(), doctorID, rating, nil); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if !ratings.averages[doctorID].Equal(decimal.NewFromInt(4)) {
		t.Errorf("expected average 4, got %s", ratings.averages[doctorID])
	}
}

func TestSubmit_RepeatReviewsAllCount(t *testing.T) {
	svc, reviews, ratings := newTestService()
	doctorID := uuid.New()
	patientID := uuid.New()

	if _, err := svc.Submit(context.Background(), patientID, doctorID, 2, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.Submit(context.Background(), patientID, doctorID, 4, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(reviews.reviews) != 2 {
		t.Errorf("expected both reviews kept, got %d", len(reviews.reviews))
	}
	if !ratings.averages[doctorID].Equal(decimal.NewFromInt(3)) {
		t.Errorf("expected average 3, got %s", ratings.averages[doctorID])
	}
}

func TestSubmit_RejectsOutOfRangeRating(t *testing.T) {
	svc, _, _ := newTestService()
	for _, rating := range []int{0, 6, -1} {
		if _, err := svc.Submit(context.Background(), uuid.New(), uuid.New(), rating, nil); !errors.Is(err, ErrInvalidRating) {
			t.Errorf("rating %d: expected ErrInvalidRating, got %v", rating, err)
		}
	}
}
