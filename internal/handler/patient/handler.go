package patient

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-api/internal/handler"
	"github.com/jwalitptl/clinic-api/internal/middleware"
	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/service/patient"
	apperrors "github.com/jwalitptl/clinic-api/pkg/errors"
)

type Handler struct {
	service  *patient.Service
	validate handler.StructValidator
}

func NewHandler(service *patient.Service, validate handler.StructValidator) *Handler {
	return &Handler{service: service, validate: validate}
}

func (h *Handler) RegisterRoutes(r gin.IRouter) {
	patients := r.Group("/patients")
	{
		patients.POST("", h.CreatePatient)
		patients.GET("", h.ListPatients)
		patients.GET("/:id", h.GetPatient)
		patients.PUT("/:id", h.UpdatePatient)
		patients.DELETE("/:id", h.DeletePatient)
	}
}

// patientID answers 400 for a malformed id, unlike the other resources.
func patientID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		handler.Fail(c, apperrors.InvalidInput("Invalid patient id"))
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) CreatePatient(c *gin.Context) {
	var req model.CreatePatientRequest
	if !handler.Bind(c, h.validate, &req) {
		return
	}

	p, err := h.service.Create(c.Request.Context(), middleware.DoctorID(c), &req)
	if err != nil {
		handler.Fail(c, err)
		return
	}
	handler.Created(c, p)
}

func (h *Handler) ListPatients(c *gin.Context) {
	filter := model.PatientFilter{
		Search:     c.Query("search"),
		ListParams: handler.ListParams(c),
	}

	patients, total, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		handler.Fail(c, err)
		return
	}
	handler.List(c, patients, total, filter.ListParams)
}

func (h *Handler) GetPatient(c *gin.Context) {
	id, ok := patientID(c)
	if !ok {
		return
	}
	p, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		handler.Fail(c, err)
		return
	}
	handler.OK(c, p)
}

func (h *Handler) UpdatePatient(c *gin.Context) {
	id, ok := patientID(c)
	if !ok {
		return
	}
	var req model.UpdatePatientRequest
	if !handler.Bind(c, h.validate, &req) {
		return
	}

	p, err := h.service.Update(c.Request.Context(), middleware.DoctorID(c), id, &req)
	if err != nil {
		handler.Fail(c, err)
		return
	}
	handler.OK(c, p)
}

func (h *Handler) DeletePatient(c *gin.Context) {
	id, ok := patientID(c)
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), middleware.DoctorID(c), id); err != nil {
		handler.Fail(c, err)
		return
	}
	handler.Message(c, "Patient deleted successfully")
}
