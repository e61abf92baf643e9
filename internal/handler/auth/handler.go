package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/clinic-api/internal/handler"
	"github.com/jwalitptl/clinic-api/internal/middleware"
	"github.com/jwalitptl/clinic-api/internal/model"
	authsvc "github.com/jwalitptl/clinic-api/internal/service/auth"
)

type Handler struct {
	service  *authsvc.Service
	validate handler.StructValidator
}

func NewHandler(service *authsvc.Service, validate handler.StructValidator) *Handler {
	return &Handler{service: service, validate: validate}
}

type sessionResponse struct {
	Success bool          `json:"success"`
	Token   string        `json:"token"`
	Data    *model.Doctor `json:"data"`
}

// RegisterRoutes mounts the public routes on r and the rest on protected.
func (h *Handler) RegisterRoutes(r gin.IRouter, protected gin.IRouter) {
	r.POST("/auth/register", h.Register)
	r.POST("/auth/login", h.Login)

	protected.GET("/auth/me", h.Me)
	protected.POST("/auth/logout", h.Logout)
}

func (h *Handler) Register(c *gin.Context) {
	var req model.RegisterRequest
	if !handler.Bind(c, h.validate, &req) {
		return
	}

	session, err := h.service.Register(c.Request.Context(), &req)
	if err != nil {
		handler.Fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, sessionResponse{Success: true, Token: session.Token, Data: session.Doctor})
}

func (h *Handler) Login(c *gin.Context) {
	var req model.LoginRequest
	if !handler.Bind(c, h.validate, &req) {
		return
	}

	session, err := h.service.Login(c.Request.Context(), &req)
	if err != nil {
		handler.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, sessionResponse{Success: true, Token: session.Token, Data: session.Doctor})
}

func (h *Handler) Me(c *gin.Context) {
	p, _ := middleware.CurrentPrincipal(c)
	handler.OK(c, p.Doctor)
}

func (h *Handler) Logout(c *gin.Context) {
	p, _ := middleware.CurrentPrincipal(c)
	if err := h.service.Logout(c.Request.Context(), p); err != nil {
		handler.Fail(c, err)
		return
	}
	handler.Message(c, "Logged out successfully")
}
