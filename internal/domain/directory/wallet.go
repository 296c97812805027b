package directory

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Wallet exposes patient and doctor balances as a single ledger for
// settlement to move money through.
type Wallet struct {
	doctors  DoctorRepository
	patients PatientRepository
}

func NewWallet(doctors DoctorRepository, patients PatientRepository) *Wallet {
	return &Wallet{doctors: doctors, patients: patients}
}

func (w *Wallet) PatientBalance(ctx context.Context, patientID uuid.UUID) (decimal.Decimal, error) {
	return w.patients.Balance(ctx, patientID)
}

func (w *Wallet) DebitPatient(ctx context.Context, patientID uuid.UUID, amount decimal.Decimal) error {
	return w.patients.DebitBalance(ctx, patientID, amount)
}

func (w *Wallet) CreditDoctor(ctx context.Context, doctorID uuid.UUID, amount decimal.Decimal) error {
	return w.doctors.CreditBalance(ctx, doctorID, amount)
}
