package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-api/internal/model"
	authsvc "github.com/jwalitptl/clinic-api/internal/service/auth"
	apperrors "github.com/jwalitptl/clinic-api/pkg/errors"
)

const (
	ContextPrincipal = "principal"
	ContextDoctorID  = "doctor_id"
)

// Authenticator resolves a bearer token to the doctor behind it.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*authsvc.Principal, error)
}

type AuthMiddleware struct {
	auth Authenticator
}

func NewAuthMiddleware(auth Authenticator) *AuthMiddleware {
	return &AuthMiddleware{auth: auth}
}

// Authenticate requires a valid "Bearer <token>" header and stores the
// principal on the gin context.
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			c.Error(apperrors.Unauthenticated(authsvc.MsgNoToken))
			c.Abort()
			return
		}

		p, err := m.auth.Authenticate(c.Request.Context(), token)
		if err != nil {
			c.Error(err)
			c.Abort()
			return
		}

		c.Set(ContextPrincipal, p)
		c.Set(ContextDoctorID, p.Doctor.ID.String())
		c.Next()
	}
}

// RequireRole must run after Authenticate.
func (m *AuthMiddleware) RequireRole(roles ...model.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := CurrentPrincipal(c)
		if !ok {
			c.Error(apperrors.Unauthenticated(authsvc.MsgNoToken))
			c.Abort()
			return
		}
		for _, r := range roles {
			if p.Doctor.Role == r {
				c.Next()
				return
			}
		}
		c.Error(apperrors.Forbidden("Not authorized to access this route"))
		c.Abort()
	}
}

func bearerToken(header string) (string, bool) {
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(prefix):])
	return token, token != ""
}

func CurrentPrincipal(c *gin.Context) (*authsvc.Principal, bool) {
	v, ok := c.Get(ContextPrincipal)
	if !ok {
		return nil, false
	}
	p, ok := v.(*authsvc.Principal)
	return p, ok && p != nil
}

// DoctorID returns the authenticated doctor's id, or uuid.Nil.
func DoctorID(c *gin.Context) uuid.UUID {
	if p, ok := CurrentPrincipal(c); ok {
		return p.Doctor.ID
	}
	return uuid.Nil
}
