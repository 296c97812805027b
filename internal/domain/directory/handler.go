package directory

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/clinic/clinic/internal/platform/auth"
	"github.com/clinic/clinic/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	actors := api.Group("", auth.RequireRole("patient", "doctor"))
	actors.GET("/doctors", h.ListDoctors)
	actors.GET("/doctors/top", h.TopRatedDoctors)
	actors.GET("/doctors/:id", h.GetDoctor)
	actors.GET("/specialties", h.ListSpecialties)

	patient := api.Group("", auth.RequireRole("patient"))
	patient.GET("/profile", h.MyProfile)
	patient.PUT("/profile", h.UpdateMyProfile)
	patient.POST("/doctors/:id/favorite", h.ToggleFavorite)
	patient.GET("/favorites", h.ListFavorites)

	doctor := api.Group("", auth.RequireRole("doctor"))
	doctor.PUT("/doctor/profile", h.UpdateDoctorProfile)
	doctor.PUT("/doctor/specialties", h.SetDoctorSpecialties)

	admin := api.Group("", auth.RequireRole("admin"))
	admin.GET("/admin/dashboard", h.Dashboard)
	admin.GET("/admin/patients", h.ListPatients)
	admin.DELETE("/admin/doctors/:id", h.DeleteDoctor)
	admin.POST("/admin/specialties", h.CreateSpecialty)
	admin.PUT("/admin/specialties/:id", h.UpdateSpecialty)
	admin.DELETE("/admin/specialties/:id", h.DeleteSpecialty)
}

func (h *Handler) ListDoctors(c echo.Context) error {
	p := pagination.FromContext(c)
	listings, total, err := h.svc.ListDoctors(c.Request().Context(), p.Limit, p.Offset)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(listings, total, p.Limit, p.Offset))
}

func (h *Handler) TopRatedDoctors(c echo.Context) error {
	doctors, err := h.svc.TopRatedDoctors(c.Request().Context())
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, doctors)
}

func (h *Handler) GetDoctor(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid doctor id")
	}
	d, err := h.svc.GetDoctor(c.Request().Context(), id)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) ListSpecialties(c echo.Context) error {
	specialties, err := h.svc.ListSpecialties(c.Request().Context())
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, specialties)
}

func (h *Handler) MyProfile(c echo.Context) error {
	ctx := c.Request().Context()
	p, err := h.svc.GetPatientByUser(ctx, auth.UserIDFromContext(ctx))
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, p)
}

type updatePatientRequest struct {
	FullName    string     `json:"full_name"`
	Gender      *string    `json:"gender"`
	DateOfBirth *time.Time `json:"date_of_birth"`
	PhoneNumber *string    `json:"phone_number"`
	Address     *string    `json:"address"`
	BloodType   *string    `json:"blood_type"`
	Height      *float64   `json:"height"`
	Weight      *float64   `json:"weight"`
	Allergies   *string    `json:"allergies"`
}

func (h *Handler) UpdateMyProfile(c echo.Context) error {
	var req updatePatientRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	ctx := c.Request().Context()
	p, err := h.svc.GetPatientByUser(ctx, auth.UserIDFromContext(ctx))
	if err != nil {
		return mapError(err)
	}
	p.FullName = req.FullName
	p.Gender = req.Gender
	p.DateOfBirth = req.DateOfBirth
	p.PhoneNumber = req.PhoneNumber
	p.Address = req.Address
	p.BloodType = req.BloodType
	p.Height = req.Height
	p.Weight = req.Weight
	p.Allergies = req.Allergies
	if err := h.svc.UpdatePatient(ctx, p); err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, p)
}

type updateDoctorRequest struct {
	FullName        string          `json:"full_name"`
	Biography       *string         `json:"biography"`
	ExperienceYears int             `json:"experience_years"`
	ConsultationFee decimal.Decimal `json:"consultation_fee"`
	PhotoURL        *string         `json:"photo_url"`
}

func (h *Handler) UpdateDoctorProfile(c echo.Context) error {
	var req updateDoctorRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	ctx := c.Request().Context()
	doctorID, err := h.svc.DoctorIDForUser(ctx, auth.UserIDFromContext(ctx))
	if err != nil {
		return mapError(err)
	}
	d, err := h.svc.GetDoctor(ctx, doctorID)
	if err != nil {
		return mapError(err)
	}
	d.FullName = req.FullName
	d.Biography = req.Biography
	d.ExperienceYears = req.ExperienceYears
	d.ConsultationFee = req.ConsultationFee
	d.PhotoURL = req.PhotoURL
	if err := h.svc.UpdateDoctor(ctx, d); err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, d)
}

type setSpecialtiesRequest struct {
	SpecialtyIDs []uuid.UUID `json:"specialty_ids"`
}

func (h *Handler) SetDoctorSpecialties(c echo.Context) error {
	var req setSpecialtiesRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	ctx := c.Request().Context()
	doctorID, err := h.svc.DoctorIDForUser(ctx, auth.UserIDFromContext(ctx))
	if err != nil {
		return mapError(err)
	}
	if err := h.svc.SetDoctorSpecialties(ctx, doctorID, req.SpecialtyIDs); err != nil {
		return mapError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) ToggleFavorite(c echo.Context) error {
	doctorID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid doctor id")
	}
	ctx := c.Request().Context()
	patientID, err := h.svc.PatientIDForUser(ctx, auth.UserIDFromContext(ctx))
	if err != nil {
		return mapError(err)
	}
	favorited, err := h.svc.ToggleFavorite(ctx, patientID, doctorID)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, map[string]any{"favorited": favorited})
}

func (h *Handler) ListFavorites(c echo.Context) error {
	ctx := c.Request().Context()
	patientID, err := h.svc.PatientIDForUser(ctx, auth.UserIDFromContext(ctx))
	if err != nil {
		return mapError(err)
	}
	doctors, err := h.svc.ListFavorites(ctx, patientID)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, doctors)
}

func (h *Handler) Dashboard(c echo.Context) error {
	stats, err := h.svc.Dashboard(c.Request().Context())
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, stats)
}

func (h *Handler) ListPatients(c echo.Context) error {
	p := pagination.FromContext(c)
	patients, total, err := h.svc.ListPatients(c.Request().Context(), p.Limit, p.Offset)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(patients, total, p.Limit, p.Offset))
}

func (h *Handler) DeleteDoctor(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid doctor id")
	}
	if err := h.svc.DeleteDoctor(c.Request().Context(), id); err != nil {
		return mapError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

type specialtyRequest struct {
	Name string `json:"name"`
}

func (h *Handler) CreateSpecialty(c echo.Context) error {
	var req specialtyRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	sp, err := h.svc.CreateSpecialty(c.Request().Context(), req.Name)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusCreated, sp)
}

func (h *Handler) UpdateSpecialty(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid specialty id")
	}
	var req specialtyRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	sp, err := h.svc.UpdateSpecialty(c.Request().Context(), id, req.Name)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, sp)
}

func (h *Handler) DeleteSpecialty(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid specialty id")
	}
	if err := h.svc.DeleteSpecialty(c.Request().Context(), id); err != nil {
		return mapError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func mapError(err error) error {
	switch {
	case errors.Is(err, ErrDoctorNotFound),
		errors.Is(err, ErrPatientNotFound),
		errors.Is(err, ErrSpecialtyNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}
