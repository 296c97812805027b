package billing

import (
	"errors"
	"testing"
	"time"
)

var cardTestNow = time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)

func TestValidateCard_KnownCard(t *testing.T) {
	card := CardDetails{Number: "1234567812345678", CVV: "887", Expiry: "11/2027"}
	if err := ValidateCard(card, cardTestNow); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestValidateCard_ShortNumber(t *testing.T) {
	card := CardDetails{Number: "12345678", CVV: "887", Expiry: "11/2027"}
	if err := ValidateCard(card, cardTestNow); !errors.Is(err, ErrInvalidCardNumber) {
		t.Errorf("expected ErrInvalidCardNumber, got %v", err)
	}
}

func TestValidateCard_NonNumericCVV(t *testing.T) {
	card := CardDetails{Number: "1234567812345678", CVV: "88x", Expiry: "11/2027"}
	if err := ValidateCard(card, cardTestNow); !errors.Is(err, ErrInvalidCVV) {
		t.Errorf("expected ErrInvalidCVV, got %v", err)
	}
}

func TestValidateCard_MalformedExpiry(t *testing.T) {
	card := CardDetails{Number: "1234567812345678", CVV: "887", Expiry: "2027-11"}
	if err := ValidateCard(card, cardTestNow); !errors.Is(err, ErrInvalidExpiry) {
		t.Errorf("expected ErrInvalidExpiry, got %v", err)
	}
}

func TestValidateCard_Expired(t *testing.T) {
	card := CardDetails{Number: "8765432187654321", CVV: "123", Expiry: "05/2026"}
	if err := ValidateCard(card, cardTestNow); !errors.Is(err, ErrCardExpired) {
		t.Errorf("expected ErrCardExpired, got %v", err)
	}
}

func TestValidateCard_ValidThroughExpiryMonth(t *testing.T) {
	card := CardDetails{Number: "1111222233334444", CVV: "444", Expiry: "08/2029"}
	endOfMonth := time.Date(2029, 8, 31, 23, 0, 0, 0, time.UTC)
	if err := ValidateCard(card, endOfMonth); err != nil {
		t.Errorf("expected card valid through its expiry month, got %v", err)
	}
}

func TestValidateCard_UnknownCardDeclined(t *testing.T) {
	card := CardDetails{Number: "9999999999999999", CVV: "111", Expiry: "11/2027"}
	if err := ValidateCard(card, cardTestNow); !errors.Is(err, ErrCardDeclined) {
		t.Errorf("expected ErrCardDeclined, got %v", err)
	}
}

func TestValidateCard_WrongCVVDeclined(t *testing.T) {
	card := CardDetails{Number: "1234567812345678", CVV: "888", Expiry: "11/2027"}
	if err := ValidateCard(card, cardTestNow); !errors.Is(err, ErrCardDeclined) {
		t.Errorf("expected ErrCardDeclined, got %v", err)
	}
}
