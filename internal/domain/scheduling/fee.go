package scheduling

import "github.com/shopspring/decimal"

var (
	emergencyRate = decimal.RequireFromString("1.5")
	followUpRate  = decimal.RequireFromString("0.8")
)

// ComputeFee prices an appointment from the doctor's base consultation fee.
// Emergency visits cost half again as much, follow-ups get a 20% discount,
// everything else is charged at the base fee.
func ComputeFee(appointmentType string, baseFee decimal.Decimal) decimal.Decimal {
	switch appointmentType {
	case TypeEmergency:
		return baseFee.Mul(emergencyRate)
	case TypeFollowUp:
		return baseFee.Mul(followUpRate)
	default:
		return baseFee
	}
}
