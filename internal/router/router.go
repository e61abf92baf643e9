package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/jwalitptl/clinic-api/internal/handler"
	"github.com/jwalitptl/clinic-api/internal/handler/appointment"
	"github.com/jwalitptl/clinic-api/internal/handler/auth"
	"github.com/jwalitptl/clinic-api/internal/handler/doctor"
	"github.com/jwalitptl/clinic-api/internal/handler/health"
	"github.com/jwalitptl/clinic-api/internal/handler/medicalrecord"
	"github.com/jwalitptl/clinic-api/internal/handler/patient"
	"github.com/jwalitptl/clinic-api/internal/handler/prometheus"
	"github.com/jwalitptl/clinic-api/internal/middleware"
	apperrors "github.com/jwalitptl/clinic-api/pkg/errors"
)

type Handlers struct {
	Auth          *auth.Handler
	Doctor        *doctor.Handler
	Patient       *patient.Handler
	Appointment   *appointment.Handler
	MedicalRecord *medicalrecord.Handler
	Health        *health.Handler
	Metrics       *prometheus.Handler
}

type RouterConfig struct {
	Mode           string
	RateLimit      rate.Limit
	RateBurst      int
	RequestTimeout time.Duration
	MaxBodySize    int64
	CORSConfig     middleware.CORSConfig
}

type Router struct {
	engine   *gin.Engine
	auth     *middleware.AuthMiddleware
	handlers Handlers
}

func NewRouter(auth *middleware.AuthMiddleware, handlers Handlers, config RouterConfig) *Router {
	if config.Mode != "" {
		gin.SetMode(config.Mode)
	}

	engine := gin.New()
	engine.HandleMethodNotAllowed = false

	engine.Use(
		middleware.RequestID(),
		middleware.Logger(),
		middleware.Recovery(),
		middleware.ErrorHandler(),
	)
	if handlers.Metrics != nil {
		engine.Use(handlers.Metrics.Middleware())
	}
	engine.Use(
		middleware.SecurityHeaders(middleware.DefaultSecurityConfig()),
		middleware.CORS(config.CORSConfig),
	)
	if config.RateLimit > 0 {
		limiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
			Rate:  config.RateLimit,
			Burst: config.RateBurst,
		})
		engine.Use(limiter.RateLimit())
	}
	maxBody := config.MaxBodySize
	if maxBody <= 0 {
		maxBody = middleware.DefaultMaxBodySize
	}
	engine.Use(
		middleware.SizeLimit(maxBody),
		middleware.Timeout(config.RequestTimeout),
	)

	return &Router{
		engine:   engine,
		auth:     auth,
		handlers: handlers,
	}
}

// Setup registers every route under /api, plus /health at the root.
func (r *Router) Setup() *gin.Engine {
	api := r.engine.Group("/api")

	// Health is also served outside /api.
	r.handlers.Health.RegisterRoutes(r.engine)
	r.handlers.Health.RegisterRoutes(api)
	if r.handlers.Metrics != nil {
		api.GET("/metrics", r.handlers.Metrics.Handler())
	}

	protected := api.Group("")
	protected.Use(r.auth.Authenticate())

	r.handlers.Auth.RegisterRoutes(api, protected)
	r.handlers.Doctor.RegisterRoutes(protected)
	r.handlers.Patient.RegisterRoutes(protected)
	r.handlers.Appointment.RegisterRoutes(protected)
	r.handlers.MedicalRecord.RegisterRoutes(protected)

	r.engine.NoRoute(func(c *gin.Context) {
		handler.Fail(c, apperrors.NotFound("Route "+c.Request.URL.Path))
	})

	return r.engine
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}
