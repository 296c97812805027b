package billing

import (
	"errors"
	"fmt"
	"time"
)

// CardDetails is what a patient submits when paying by card. Expiry uses the
// "MM/yyyy" form printed on cards.
type CardDetails struct {
	Number string `json:"number"`
	CVV    string `json:"cvv"`
	Expiry string `json:"expiry"`
}

var (
	ErrInvalidCardNumber = errors.New("card number must be 16 digits")
	ErrInvalidCVV        = errors.New("cvv must be 3 digits")
	ErrInvalidExpiry     = errors.New("expiry must be MM/yyyy")
	ErrCardExpired       = errors.New("card is expired")
	ErrCardDeclined      = errors.New("card declined")
)

type issuedCard struct {
	cvv   string
	month time.Month
	year  int
}

// Cards the simulated card network knows about. Anything else is declined.
var issuedCards = map[string]issuedCard{
	"1234567812345678": {cvv: "887", month: time.November, year: 2027},
	"8765432187654321": {cvv: "123", month: time.May, year: 2026},
	"1111222233334444": {cvv: "444", month: time.August, year: 2029},
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// ValidateCard checks the submitted card against the simulated network:
// format first, then expiry, then whether the issuer recognizes the card.
func ValidateCard(card CardDetails, now time.Time) error {
	if len(card.Number) != 16 || !allDigits(card.Number) {
		return ErrInvalidCardNumber
	}
	if len(card.CVV) != 3 || !allDigits(card.CVV) {
		return ErrInvalidCVV
	}
	exp, err := time.Parse("01/2006", card.Expiry)
	if err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidExpiry, card.Expiry)
	}
	// A card is valid through the last day of its expiry month.
	endOfMonth := exp.AddDate(0, 1, 0)
	if !now.Before(endOfMonth) {
		return ErrCardExpired
	}
	issued, ok := issuedCards[card.Number]
	if !ok || issued.cvv != card.CVV || issued.month != exp.Month() || issued.year != exp.Year() {
		return ErrCardDeclined
	}
	return nil
}
