package doctor

import (
	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/clinic-api/internal/handler"
	"github.com/jwalitptl/clinic-api/internal/middleware"
	"github.com/jwalitptl/clinic-api/internal/service/doctor"
)

type Handler struct {
	service  *doctor.Service
	validate handler.StructValidator
}

func NewHandler(service *doctor.Service, validate handler.StructValidator) *Handler {
	return &Handler{service: service, validate: validate}
}

type statusRequest struct {
	IsActive *bool `json:"isActive" validate:"required"`
}

func (h *Handler) RegisterRoutes(r gin.IRouter) {
	doctors := r.Group("/doctors")
	{
		doctors.GET("", h.ListDoctors)
		doctors.GET("/:id", h.GetDoctor)
		doctors.PATCH("/:id/status", h.SetStatus)
	}
}

func (h *Handler) ListDoctors(c *gin.Context) {
	params := handler.ListParams(c)
	doctors, total, err := h.service.List(c.Request.Context(), params)
	if err != nil {
		handler.Fail(c, err)
		return
	}
	handler.List(c, doctors, total, params)
}

func (h *Handler) GetDoctor(c *gin.Context) {
	id, ok := handler.PathID(c)
	if !ok {
		return
	}
	d, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		handler.Fail(c, err)
		return
	}
	handler.OK(c, d)
}

// SetStatus is restricted to admins by the service.
func (h *Handler) SetStatus(c *gin.Context) {
	id, ok := handler.PathID(c)
	if !ok {
		return
	}
	var req statusRequest
	if !handler.Bind(c, h.validate, &req) {
		return
	}

	p, _ := middleware.CurrentPrincipal(c)
	d, err := h.service.SetActive(c.Request.Context(), p.Doctor, id, *req.IsActive)
	if err != nil {
		handler.Fail(c, err)
		return
	}
	handler.OK(c, d)
}
