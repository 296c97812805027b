package scheduling

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestComputeFee_Emergency(t *testing.T) {
	fee := ComputeFee(TypeEmergency, decimal.NewFromInt(100))
	if !fee.Equal(decimal.NewFromInt(150)) {
		t.Errorf("expected 150, got %s", fee)
	}
}

func TestComputeFee_FollowUp(t *testing.T) {
	fee := ComputeFee(TypeFollowUp, decimal.NewFromInt(100))
	if !fee.Equal(decimal.NewFromInt(80)) {
		t.Errorf("expected 80, got %s", fee)
	}
}

func TestComputeFee_Regular(t *testing.T) {
	fee := ComputeFee(TypeRegular, decimal.NewFromInt(100))
	if !fee.Equal(decimal.NewFromInt(100)) {
		t.Errorf("expected 100, got %s", fee)
	}
}

func TestComputeFee_ExactDecimal(t *testing.T) {
	fee := ComputeFee(TypeFollowUp, decimal.RequireFromString("33.50"))
	if !fee.Equal(decimal.RequireFromString("26.80")) {
		t.Errorf("expected 26.80, got %s", fee)
	}
}
