package scheduling

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/clinic/clinic/internal/platform/auth"
	"github.com/clinic/clinic/pkg/pagination"
)

// SubjectResolver maps an authenticated user to their patient or doctor
// profile id.
type SubjectResolver interface {
	PatientIDForUser(ctx context.Context, userID uuid.UUID) (uuid.UUID, error)
	DoctorIDForUser(ctx context.Context, userID uuid.UUID) (uuid.UUID, error)
}

type Handler struct {
	svc      *Service
	subjects SubjectResolver
}

func NewHandler(svc *Service, subjects SubjectResolver) *Handler {
	return &Handler{svc: svc, subjects: subjects}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	patient := api.Group("", auth.RequireRole("patient"))
	patient.POST("/appointments", h.Book)
	patient.GET("/appointments/mine", h.MyAppointments)
	patient.GET("/appointments/upcoming", h.UpcomingAppointments)

	actors := api.Group("", auth.RequireRole("patient", "doctor"))
	actors.POST("/appointments/:id/cancel", h.CancelAppointment)
	actors.GET("/appointments/:id", h.GetAppointment)
	actors.GET("/doctors/:id/availability", h.AvailabilityCalendar)
	actors.GET("/doctors/:id/next-available", h.NextAvailableSlot)
	actors.GET("/doctors/:id/schedule", h.GetSchedule)
	actors.GET("/doctors/:id/fee", h.ConsultationFee)

	doctor := api.Group("", auth.RequireRole("doctor"))
	doctor.POST("/appointments/:id/confirm", h.ConfirmAppointment)
	doctor.GET("/doctor/appointments", h.DoctorAppointments)
	doctor.PUT("/doctor/schedule", h.SetSchedule)

	admin := api.Group("", auth.RequireRole("admin"))
	admin.GET("/admin/appointments", h.AllAppointments)
	admin.DELETE("/appointments/:id", h.DeleteAppointment)
}

type bookAppointmentRequest struct {
	DoctorID        uuid.UUID       `json:"doctor_id"`
	StartTime       time.Time       `json:"start_time"`
	EndTime         time.Time       `json:"end_time"`
	AppointmentType string          `json:"appointment_type"`
	BaseFee         decimal.Decimal `json:"base_fee"`
	Notes           *string         `json:"notes"`
}

func (h *Handler) Book(c echo.Context) error {
	var req bookAppointmentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	ctx := c.Request().Context()
	patientID, err := h.subjects.PatientIDForUser(ctx, auth.UserIDFromContext(ctx))
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "patient profile not found")
	}
	appt, err := h.svc.Book(ctx, BookingRequest{
		PatientID:       patientID,
		DoctorID:        req.DoctorID,
		Start:           req.StartTime,
		End:             req.EndTime,
		AppointmentType: req.AppointmentType,
		BaseFee:         req.BaseFee,
		Notes:           req.Notes,
	})
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusCreated, appt)
}

func (h *Handler) MyAppointments(c echo.Context) error {
	ctx := c.Request().Context()
	patientID, err := h.subjects.PatientIDForUser(ctx, auth.UserIDFromContext(ctx))
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "patient profile not found")
	}
	p := pagination.FromContext(c)
	appts, total, err := h.svc.ListByPatient(ctx, patientID, p.Limit, p.Offset)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(appts, total, p.Limit, p.Offset))
}

func (h *Handler) UpcomingAppointments(c echo.Context) error {
	ctx := c.Request().Context()
	patientID, err := h.subjects.PatientIDForUser(ctx, auth.UserIDFromContext(ctx))
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "patient profile not found")
	}
	appts, err := h.svc.UpcomingForPatient(ctx, patientID)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, appts)
}

func (h *Handler) DoctorAppointments(c echo.Context) error {
	ctx := c.Request().Context()
	doctorID, err := h.subjects.DoctorIDForUser(ctx, auth.UserIDFromContext(ctx))
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "doctor profile not found")
	}
	p := pagination.FromContext(c)
	appts, total, err := h.svc.ListByDoctor(ctx, doctorID, p.Limit, p.Offset)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(appts, total, p.Limit, p.Offset))
}

func (h *Handler) AllAppointments(c echo.Context) error {
	p := pagination.FromContext(c)
	appts, total, err := h.svc.List(c.Request().Context(), p.Limit, p.Offset)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(appts, total, p.Limit, p.Offset))
}

// actor resolves the caller's role and profile id for ownership checks.
func (h *Handler) actor(ctx context.Context) (Actor, error) {
	role := auth.RoleFromContext(ctx)
	actor := Actor{Role: role}
	var err error
	switch role {
	case "patient":
		actor.SubjectID, err = h.subjects.PatientIDForUser(ctx, auth.UserIDFromContext(ctx))
	case "doctor":
		actor.SubjectID, err = h.subjects.DoctorIDForUser(ctx, auth.UserIDFromContext(ctx))
	}
	if err != nil {
		return Actor{}, echo.NewHTTPError(http.StatusNotFound, "profile not found")
	}
	return actor, nil
}

func (h *Handler) GetAppointment(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid appointment id")
	}
	ctx := c.Request().Context()
	actor, err := h.actor(ctx)
	if err != nil {
		return err
	}
	appt, err := h.svc.GetFor(ctx, id, actor)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, appt)
}

func (h *Handler) ConfirmAppointment(c echo.Context) error {
	return h.updateStatus(c, h.svc.Confirm)
}

func (h *Handler) CancelAppointment(c echo.Context) error {
	return h.updateStatus(c, h.svc.Cancel)
}

func (h *Handler) updateStatus(c echo.Context, fn func(context.Context, uuid.UUID, Actor) (*Appointment, error)) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid appointment id")
	}
	ctx := c.Request().Context()
	actor, err := h.actor(ctx)
	if err != nil {
		return err
	}
	appt, err := fn(ctx, id, actor)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, appt)
}

func (h *Handler) DeleteAppointment(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid appointment id")
	}
	if err := h.svc.Delete(c.Request().Context(), id); err != nil {
		return mapError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

type setScheduleRequest struct {
	Entries []scheduleEntryRequest `json:"entries"`
}

type scheduleEntryRequest struct {
	Day       int    `json:"day"`
	Start     string `json:"start"`
	End       string `json:"end"`
	IsBlocked bool   `json:"is_blocked"`
}

func (h *Handler) SetSchedule(c echo.Context) error {
	var req setScheduleRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	ctx := c.Request().Context()
	doctorID, err := h.subjects.DoctorIDForUser(ctx, auth.UserIDFromContext(ctx))
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "doctor profile not found")
	}
	entries := make([]*ScheduleEntry, 0, len(req.Entries))
	for _, e := range req.Entries {
		entries = append(entries, &ScheduleEntry{
			Day:       time.Weekday(e.Day),
			Start:     e.Start,
			End:       e.End,
			IsBlocked: e.IsBlocked,
		})
	}
	if err := h.svc.SetSchedule(ctx, doctorID, entries); err != nil {
		return mapError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) GetSchedule(c echo.Context) error {
	doctorID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid doctor id")
	}
	entries, err := h.svc.WeeklySchedule(c.Request().Context(), doctorID)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, entries)
}

func (h *Handler) ConsultationFee(c echo.Context) error {
	doctorID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid doctor id")
	}
	fee, err := h.svc.ConsultationFeeFor(c.Request().Context(), doctorID, c.QueryParam("type"))
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, map[string]any{"fee": fee})
}

func (h *Handler) NextAvailableSlot(c echo.Context) error {
	doctorID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid doctor id")
	}
	slot, err := h.svc.NextAvailableSlot(c.Request().Context(), doctorID)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, map[string]any{"next_available": slot})
}

func (h *Handler) AvailabilityCalendar(c echo.Context) error {
	doctorID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid doctor id")
	}
	from, err := time.Parse("2006-01-02", c.QueryParam("from"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "from must be YYYY-MM-DD")
	}
	to, err := time.Parse("2006-01-02", c.QueryParam("to"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "to must be YYYY-MM-DD")
	}
	days, err := h.svc.AvailabilityCalendar(c.Request().Context(), doctorID, from, to)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, days)
}

func mapError(err error) error {
	var slot *SlotUnavailableError
	switch {
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.As(err, &slot):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, ErrForbidden):
		return echo.NewHTTPError(http.StatusForbidden, err.Error())
	case errors.Is(err, ErrInvalidTimeRange):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}
