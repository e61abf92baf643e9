package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	apperrors "github.com/jwalitptl/clinic-api/pkg/errors"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// ErrorHandler writes the last error attached with c.Error. It is the only
// place that turns errors into responses.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		err := c.Errors.Last().Err
		resp := apperrors.Normalize(err)

		l := log.Ctx(c.Request.Context())
		if resp.StatusCode >= http.StatusInternalServerError {
			l.Error().
				Err(err).
				Str("path", c.Request.URL.Path).
				Str("method", c.Request.Method).
				Msg("Request failed")
		} else {
			l.Debug().
				Err(err).
				Str("kind", apperrors.KindOf(err).String()).
				Int("status", resp.StatusCode).
				Msg("Request rejected")
		}

		if c.Writer.Written() {
			return
		}
		c.AbortWithStatusJSON(resp.StatusCode, ErrorResponse{Message: resp.Message})
	}
}
