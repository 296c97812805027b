package billing

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/clinic/clinic/internal/platform/auth"
)

type mockResolver struct {
	patients map[uuid.UUID]uuid.UUID
}

func (m *mockResolver) PatientIDForUser(_ context.Context, userID uuid.UUID) (uuid.UUID, error) {
	id, ok := m.patients[userID]
	if !ok {
		return uuid.Nil, errors.New("no patient profile")
	}
	return id, nil
}

func confirmContext(t *testing.T, paymentID, userID uuid.UUID, role string) echo.Context {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/payments/"+paymentID.String()+"/confirm", nil)
	ctx := context.WithValue(req.Context(), auth.UserIDKey, userID)
	ctx = context.WithValue(ctx, auth.UserRoleKey, role)
	req = req.WithContext(ctx)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(paymentID.String())
	return c
}

func TestConfirmHandler_ForeignPatientCannotSettle(t *testing.T) {
	f := newFixture(100, 500)
	p, err := f.svc.Initiate(context.Background(), f.patientID, InitiateRequest{
		AppointmentID: f.apptID,
		Method:        MethodCash,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ownerUser, foreignUser := uuid.New(), uuid.New()
	h := NewHandler(f.svc, &mockResolver{patients: map[uuid.UUID]uuid.UUID{
		ownerUser:   f.patientID,
		foreignUser: uuid.New(),
	}})

	err = h.Confirm(confirmContext(t, p.ID, foreignUser, "patient"))
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for foreign patient, got %v", err)
	}
	if !f.wallets.patients[f.patientID].Equal(decimal.NewFromInt(500)) {
		t.Error("expected owner balance untouched")
	}

	if err := h.Confirm(confirmContext(t, p.ID, ownerUser, "patient")); err != nil {
		t.Fatalf("expected owner confirm to succeed, got %v", err)
	}
	if !f.wallets.patients[f.patientID].Equal(decimal.NewFromInt(400)) {
		t.Error("expected owner debited after their own confirm")
	}
}

func TestConfirmHandler_AdminSettlesAnyPayment(t *testing.T) {
	f := newFixture(100, 500)
	p, err := f.svc.Initiate(context.Background(), f.patientID, InitiateRequest{
		AppointmentID: f.apptID,
		Method:        MethodCash,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	h := NewHandler(f.svc, &mockResolver{patients: map[uuid.UUID]uuid.UUID{}})
	if err := h.Confirm(confirmContext(t, p.ID, uuid.New(), "admin")); err != nil {
		t.Fatalf("expected admin confirm to succeed, got %v", err)
	}
	if !f.wallets.patients[f.patientID].Equal(decimal.NewFromInt(400)) {
		t.Error("expected patient debited")
	}
}
