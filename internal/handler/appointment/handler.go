package appointment

import (
	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/clinic-api/internal/handler"
	"github.com/jwalitptl/clinic-api/internal/middleware"
	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/service/appointment"
)

type Handler struct {
	service  *appointment.Service
	validate handler.StructValidator
}

func NewHandler(service *appointment.Service, validate handler.StructValidator) *Handler {
	return &Handler{service: service, validate: validate}
}

func (h *Handler) RegisterRoutes(r gin.IRouter) {
	appointments := r.Group("/appointments")
	{
		appointments.POST("", h.CreateAppointment)
		appointments.GET("", h.ListAppointments)
		appointments.GET("/doctor/:id/schedule", h.GetSchedule)
		appointments.GET("/:id", h.GetAppointment)
		appointments.PUT("/:id", h.UpdateAppointment)
		appointments.DELETE("/:id", h.DeleteAppointment)
	}
}

func (h *Handler) CreateAppointment(c *gin.Context) {
	var req model.CreateAppointmentRequest
	if !handler.Bind(c, h.validate, &req) {
		return
	}

	a, err := h.service.Create(c.Request.Context(), middleware.DoctorID(c), &req)
	if err != nil {
		handler.Fail(c, err)
		return
	}
	handler.Created(c, a)
}

func (h *Handler) GetAppointment(c *gin.Context) {
	id, ok := handler.PathID(c)
	if !ok {
		return
	}

	a, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		handler.Fail(c, err)
		return
	}
	handler.OK(c, a)
}

func (h *Handler) ListAppointments(c *gin.Context) {
	filter := model.AppointmentFilter{
		PatientID:  handler.QueryID(c, "patient"),
		DoctorID:   handler.QueryID(c, "doctor"),
		Date:       c.Query("date"),
		Status:     model.AppointmentStatus(c.Query("status")),
		ListParams: handler.ListParams(c),
	}

	appointments, total, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		handler.Fail(c, err)
		return
	}
	handler.List(c, appointments, total, filter.ListParams)
}

func (h *Handler) UpdateAppointment(c *gin.Context) {
	id, ok := handler.PathID(c)
	if !ok {
		return
	}
	var req model.UpdateAppointmentRequest
	if !handler.Bind(c, h.validate, &req) {
		return
	}

	a, err := h.service.Update(c.Request.Context(), middleware.DoctorID(c), id, &req)
	if err != nil {
		handler.Fail(c, err)
		return
	}
	handler.OK(c, a)
}

func (h *Handler) DeleteAppointment(c *gin.Context) {
	id, ok := handler.PathID(c)
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), middleware.DoctorID(c), id); err != nil {
		handler.Fail(c, err)
		return
	}
	handler.Message(c, "Appointment deleted successfully")
}

func (h *Handler) GetSchedule(c *gin.Context) {
	id, ok := handler.PathID(c)
	if !ok {
		return
	}

	schedule, err := h.service.GetSchedule(c.Request.Context(), id, c.Query("date"))
	if err != nil {
		handler.Fail(c, err)
		return
	}
	handler.Counted(c, len(schedule.Appointments), schedule)
}
