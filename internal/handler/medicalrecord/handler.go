package medicalrecord

import (
	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/clinic-api/internal/handler"
	"github.com/jwalitptl/clinic-api/internal/middleware"
	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/service/medical"
)

type Handler struct {
	service  *medical.Service
	validate handler.StructValidator
}

func NewHandler(service *medical.Service, validate handler.StructValidator) *Handler {
	return &Handler{service: service, validate: validate}
}

func (h *Handler) RegisterRoutes(r gin.IRouter) {
	records := r.Group("/medical-records")
	{
		records.POST("", h.CreateRecord)
		records.GET("", h.ListRecords)
		records.GET("/patient/:id/history", h.GetHistory)
		records.GET("/:id", h.GetRecord)
		records.PUT("/:id", h.UpdateRecord)
		records.DELETE("/:id", h.DeleteRecord)
	}
}

func (h *Handler) CreateRecord(c *gin.Context) {
	var req model.CreateMedicalRecordRequest
	if !handler.Bind(c, h.validate, &req) {
		return
	}

	rec, err := h.service.Create(c.Request.Context(), middleware.DoctorID(c), &req)
	if err != nil {
		handler.Fail(c, err)
		return
	}
	handler.Created(c, rec)
}

// ListRecords ignores patient and doctor filters that are not ids.
func (h *Handler) ListRecords(c *gin.Context) {
	filter := model.MedicalRecordFilter{
		PatientID:  handler.QueryID(c, "patient"),
		DoctorID:   handler.QueryID(c, "doctor"),
		ListParams: handler.ListParams(c),
	}

	records, total, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		handler.Fail(c, err)
		return
	}
	handler.List(c, records, total, filter.ListParams)
}

func (h *Handler) GetRecord(c *gin.Context) {
	id, ok := handler.PathID(c)
	if !ok {
		return
	}
	rec, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		handler.Fail(c, err)
		return
	}
	handler.OK(c, rec)
}

// UpdateRecord decides ownership before decoding or validating the body.
func (h *Handler) UpdateRecord(c *gin.Context) {
	id, ok := handler.PathID(c)
	if !ok {
		return
	}
	// Ownership is settled before the body is read.
	if err := h.service.AuthorizeUpdate(c.Request.Context(), middleware.DoctorID(c), id); err != nil {
		handler.Fail(c, err)
		return
	}
	var req model.UpdateMedicalRecordRequest
	if !handler.Decode(c, &req) {
		return
	}

	rec, err := h.service.Update(c.Request.Context(), middleware.DoctorID(c), id, &req)
	if err != nil {
		handler.Fail(c, err)
		return
	}
	handler.OK(c, rec)
}

func (h *Handler) DeleteRecord(c *gin.Context) {
	id, ok := handler.PathID(c)
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), middleware.DoctorID(c), id); err != nil {
		handler.Fail(c, err)
		return
	}
	handler.Message(c, "Medical record deleted successfully")
}

func (h *Handler) GetHistory(c *gin.Context) {
	id, ok := handler.PathID(c)
	if !ok {
		return
	}
	history, err := h.service.History(c.Request.Context(), id)
	if err != nil {
		handler.Fail(c, err)
		return
	}
	handler.Counted(c, len(history.Records), history)
}
