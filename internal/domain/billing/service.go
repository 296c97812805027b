package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/clinic/clinic/internal/domain/scheduling"
	"github.com/clinic/clinic/internal/platform/db"
)

// InitiateRequest opens a payment for an appointment. Card details are only
// required for card methods.
type InitiateRequest struct {
	AppointmentID uuid.UUID
	Method        string
	Card          *CardDetails
}

type Service struct {
	payments     Repository
	appointments AppointmentLedger
	wallets      WalletLedger
	tx           db.TxRunner
	log          zerolog.Logger
}

func NewService(payments Repository, appointments AppointmentLedger, wallets WalletLedger,
	tx db.TxRunner, log zerolog.Logger) *Service {
	return &Service{
		payments:     payments,
		appointments: appointments,
		wallets:      wallets,
		tx:           tx,
		log:          log.With().Str("component", "billing").Logger(),
	}
}

// Initiate validates the method, charges nothing, and records an unconfirmed
// payment for the appointment's fee. Card payments are validated against the
// card network before anything is written.
func (s *Service) Initiate(ctx context.Context, patientID uuid.UUID, req InitiateRequest) (*Payment, error) {
	if !validMethods[req.Method] {
		return nil, fmt.Errorf("%w: %s", ErrInvalidMethod, req.Method)
	}
	if req.Method == MethodCreditCard || req.Method == MethodDebitCard {
		if req.Card == nil {
			return nil, ErrInvalidCardNumber
		}
		if err := ValidateCard(*req.Card, time.Now()); err != nil {
			return nil, err
		}
	}

	appt, err := s.appointments.GetByID(ctx, req.AppointmentID)
	if err != nil {
		if errors.Is(err, scheduling.ErrNotFound) {
			return nil, ErrAppointmentMissing
		}
		return nil, err
	}

	payment := &Payment{
		AppointmentID: appt.ID,
		PatientID:     patientID,
		Amount:        appt.Fee,
		Method:        req.Method,
		PaidAt:        time.Now(),
	}

	err = s.tx.WithTx(ctx, func(ctx context.Context) error {
		if err := s.payments.Create(ctx, payment); err != nil {
			return err
		}
		return s.appointments.SetPaymentTransaction(ctx, appt.ID, payment.ID)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("payment_id", payment.ID.String()).
		Str("appointment_id", appt.ID.String()).
		Str("method", payment.Method).
		Msg("payment initiated")
	return payment, nil
}

// Confirm settles an initiated payment: it debits the patient, credits the
// doctor, and marks both the payment and the appointment paid, all in one
// transaction. The payment row is locked first so two concurrent confirms
// cannot both move money. A non-nil actorPatientID restricts confirmation to
// that patient's own payments; admins pass uuid.Nil.
func (s *Service) Confirm(ctx context.Context, paymentID, actorPatientID uuid.UUID) (*Payment, error) {
	var confirmed *Payment
	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		p, err := s.payments.GetByIDForUpdate(ctx, paymentID)
		if err != nil {
			return err
		}
		if actorPatientID != uuid.Nil && p.PatientID != actorPatientID {
			return ErrForbidden
		}
		if p.IsConfirmed {
			return ErrAlreadyConfirmed
		}
		appt, err := s.appointments.GetByID(ctx, p.AppointmentID)
		if err != nil {
			if errors.Is(err, scheduling.ErrNotFound) {
				return ErrAppointmentMissing
			}
			return err
		}
		balance, err := s.wallets.PatientBalance(ctx, p.PatientID)
		if err != nil {
			return err
		}
		if balance.LessThan(p.Amount) {
			return ErrInsufficientBalance
		}
		if err := s.wallets.DebitPatient(ctx, p.PatientID, p.Amount); err != nil {
			return err
		}
		if err := s.wallets.CreditDoctor(ctx, appt.DoctorID, p.Amount); err != nil {
			return err
		}
		now := time.Now()
		if err := s.payments.MarkConfirmed(ctx, p.ID, now); err != nil {
			return err
		}
		if err := s.appointments.MarkPaid(ctx, appt.ID); err != nil {
			return err
		}
		p.IsConfirmed = true
		p.ConfirmedAt = &now
		confirmed = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("payment_id", confirmed.ID.String()).
		Str("amount", confirmed.Amount.String()).
		Msg("payment confirmed")
	return confirmed, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Payment, error) {
	return s.payments.GetByID(ctx, id)
}

func (s *Service) HistoryForPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Payment, int, error) {
	return s.payments.ListByPatient(ctx, patientID, limit, offset)
}

// ConfirmedRevenue totals every confirmed payment across the clinic.
func (s *Service) ConfirmedRevenue(ctx context.Context) (decimal.Decimal, error) {
	return s.payments.ConfirmedRevenue(ctx)
}
