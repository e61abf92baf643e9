package health

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/clinic-api/internal/repository"
)

type Handler struct {
	checks map[string]repository.HealthChecker
	now    func() time.Time
}

// NewHandler reports readiness from every named checker, e.g. "store" and
// "redis".
func NewHandler(checks map[string]repository.HealthChecker) *Handler {
	return &Handler{
		checks: checks,
		now:    time.Now,
	}
}

func (h *Handler) RegisterRoutes(r gin.IRouter) {
	health := r.Group("/health")
	{
		health.GET("", h.LivenessCheck)
		health.GET("/ready", h.ReadinessCheck)
	}
}

func (h *Handler) LivenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"message":   "Server is running",
		"timestamp": h.now().UTC().Format(time.RFC3339),
	})
}

func (h *Handler) ReadinessCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := make(map[string]string, len(h.checks))
	ready := true
	for name, check := range h.checks {
		if err := check.Ping(ctx); err != nil {
			log.Ctx(ctx).Warn().Err(err).Str("dependency", name).Msg("readiness check failed")
			status[name] = "down"
			ready = false
			continue
		}
		status[name] = "up"
	}

	code := http.StatusOK
	if !ready {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, gin.H{
		"success": ready,
		"data":    status,
	})
}
