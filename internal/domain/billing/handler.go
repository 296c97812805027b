package billing

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/clinic/clinic/internal/platform/auth"
	"github.com/clinic/clinic/pkg/pagination"
)

// PatientResolver maps an authenticated user to their patient profile id.
type PatientResolver interface {
	PatientIDForUser(ctx context.Context, userID uuid.UUID) (uuid.UUID, error)
}

type Handler struct {
	svc      *Service
	patients PatientResolver
}

func NewHandler(svc *Service, patients PatientResolver) *Handler {
	return &Handler{svc: svc, patients: patients}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	patient := api.Group("", auth.RequireRole("patient"))
	patient.POST("/payments", h.Initiate)
	patient.POST("/payments/:id/confirm", h.Confirm)
	patient.GET("/payments/mine", h.History)

	admin := api.Group("", auth.RequireRole("admin"))
	admin.GET("/payments/:id", h.Get)
	admin.GET("/admin/revenue", h.Revenue)
}

type initiatePaymentRequest struct {
	AppointmentID uuid.UUID    `json:"appointment_id"`
	Method        string       `json:"method"`
	Card          *CardDetails `json:"card"`
}

func (h *Handler) Initiate(c echo.Context) error {
	var req initiatePaymentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	ctx := c.Request().Context()
	patientID, err := h.patients.PatientIDForUser(ctx, auth.UserIDFromContext(ctx))
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "patient profile not found")
	}
	payment, err := h.svc.Initiate(ctx, patientID, InitiateRequest{
		AppointmentID: req.AppointmentID,
		Method:        req.Method,
		Card:          req.Card,
	})
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusCreated, payment)
}

func (h *Handler) Confirm(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payment id")
	}
	ctx := c.Request().Context()
	actor := uuid.Nil
	if auth.RoleFromContext(ctx) != "admin" {
		actor, err = h.patients.PatientIDForUser(ctx, auth.UserIDFromContext(ctx))
		if err != nil {
			return echo.NewHTTPError(http.StatusNotFound, "patient profile not found")
		}
	}
	payment, err := h.svc.Confirm(ctx, id, actor)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, payment)
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payment id")
	}
	payment, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, payment)
}

func (h *Handler) History(c echo.Context) error {
	ctx := c.Request().Context()
	patientID, err := h.patients.PatientIDForUser(ctx, auth.UserIDFromContext(ctx))
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "patient profile not found")
	}
	p := pagination.FromContext(c)
	payments, total, err := h.svc.HistoryForPatient(ctx, patientID, p.Limit, p.Offset)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(payments, total, p.Limit, p.Offset))
}

func (h *Handler) Revenue(c echo.Context) error {
	revenue, err := h.svc.ConfirmedRevenue(c.Request().Context())
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, map[string]any{"confirmed_revenue": revenue})
}

func mapError(err error) error {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrAppointmentMissing):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrForbidden):
		return echo.NewHTTPError(http.StatusForbidden, err.Error())
	case errors.Is(err, ErrAlreadyConfirmed):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, ErrInsufficientBalance):
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, ErrInvalidMethod),
		errors.Is(err, ErrInvalidCardNumber),
		errors.Is(err, ErrInvalidCVV),
		errors.Is(err, ErrInvalidExpiry),
		errors.Is(err, ErrCardExpired),
		errors.Is(err, ErrCardDeclined):
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}
