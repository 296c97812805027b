package billing

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Payment methods.
const (
	MethodCash           = "cash"
	MethodCreditCard     = "credit_card"
	MethodDebitCard      = "debit_card"
	MethodOnlineTransfer = "online_transfer"
	MethodMobilePayment  = "mobile_payment"
)

var validMethods = map[string]bool{
	MethodCash:           true,
	MethodCreditCard:     true,
	MethodDebitCard:      true,
	MethodOnlineTransfer: true,
	MethodMobilePayment:  true,
}

// Payment is one settlement attempt for an appointment. It is created
// unconfirmed; money only moves when the payment is confirmed.
type Payment struct {
	ID            uuid.UUID       `db:"id" json:"id"`
	AppointmentID uuid.UUID       `db:"appointment_id" json:"appointment_id"`
	PatientID     uuid.UUID       `db:"patient_id" json:"patient_id"`
	Amount        decimal.Decimal `db:"amount" json:"amount"`
	Method        string          `db:"method" json:"method"`
	PaidAt        time.Time       `db:"paid_at" json:"paid_at"`
	IsConfirmed   bool            `db:"is_confirmed" json:"is_confirmed"`
	ConfirmedAt   *time.Time      `db:"confirmed_at" json:"confirmed_at,omitempty"`
}

var (
	ErrNotFound            = errors.New("payment not found")
	ErrInvalidMethod       = errors.New("invalid payment method")
	ErrAppointmentMissing  = errors.New("appointment not found for payment")
	ErrAlreadyConfirmed    = errors.New("payment already confirmed")
	ErrInsufficientBalance = errors.New("insufficient patient balance")
	ErrForbidden           = errors.New("payment does not belong to the caller")
)
