package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const DefaultMaxBodySize int64 = 1 << 20

// SizeLimit rejects bodies larger than maxBytes, whether announced in
// Content-Length or discovered while reading.
func SizeLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxBytes {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, ErrorResponse{
				Message: "Request body too large",
			})
			return
		}
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		}
		c.Next()
	}
}
