package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/jwalitptl/clinic-api/internal/model"
	authsvc "github.com/jwalitptl/clinic-api/internal/service/auth"
	apperrors "github.com/jwalitptl/clinic-api/pkg/errors"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func perform(r http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var body ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return body
}

func TestErrorHandler(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"not found", apperrors.NotFound("Patient"), http.StatusNotFound, "Patient not found"},
		{"forbidden", apperrors.Forbidden("Not authorized to delete this record"), http.StatusForbidden, "Not authorized to delete this record"},
		{"malformed id", apperrors.MalformedID(errors.New("invalid UUID length: 3")), http.StatusNotFound, "Resource not found"},
		{"foreign error keeps its message", errors.New("Unknown error"), http.StatusInternalServerError, "Unknown error"},
		{"unknown kind keeps its message", apperrors.Unknown(errors.New("Unknown error")), http.StatusInternalServerError, "Unknown error"},
		{"unknown kind without a cause", apperrors.Unknown(nil), http.StatusInternalServerError, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.Use(ErrorHandler())
			r.GET("/", func(c *gin.Context) {
				c.Error(tt.err)
				c.Abort()
			})

			w := perform(r, httptest.NewRequest(http.MethodGet, "/", nil))
			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, ErrorResponse{Success: false, Message: tt.message}, decodeError(t, w))
		})
	}
}

func TestErrorHandlerKeepsWrittenResponse(t *testing.T) {
	r := gin.New()
	r.Use(ErrorHandler())
	r.GET("/", func(c *gin.Context) {
		c.Error(errors.New("late failure"))
		c.String(http.StatusAccepted, "done")
	})

	w := perform(r, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, "done", w.Body.String())
}

func TestRecovery(t *testing.T) {
	r := gin.New()
	r.Use(Recovery())
	r.GET("/", func(c *gin.Context) { panic("boom") })

	w := perform(r, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Internal server error", decodeError(t, w).Message)
}

type fakeAuthenticator struct {
	principals map[string]*authsvc.Principal
}

func (f fakeAuthenticator) Authenticate(_ context.Context, token string) (*authsvc.Principal, error) {
	if p, ok := f.principals[token]; ok {
		return p, nil
	}
	return nil, apperrors.Unauthenticated(authsvc.MsgTokenFailed)
}

func authRouter() (*gin.Engine, *authsvc.Principal, *authsvc.Principal) {
	doctor := &authsvc.Principal{Doctor: &model.Doctor{Role: model.RoleDoctor}}
	doctor.Doctor.ID = uuid.New()
	admin := &authsvc.Principal{Doctor: &model.Doctor{Role: model.RoleAdmin}}
	admin.Doctor.ID = uuid.New()

	m := NewAuthMiddleware(fakeAuthenticator{principals: map[string]*authsvc.Principal{
		"doctor-token": doctor,
		"admin-token":  admin,
	}})

	r := gin.New()
	r.Use(ErrorHandler())
	protected := r.Group("/", m.Authenticate())
	protected.GET("/me", func(c *gin.Context) {
		c.String(http.StatusOK, DoctorID(c).String())
	})
	protected.GET("/admin", m.RequireRole(model.RoleAdmin), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return r, doctor, admin
}

func TestAuthenticate(t *testing.T) {
	r, doctor, _ := authRouter()

	tests := []struct {
		name    string
		header  string
		status  int
		message string
	}{
		{"missing header", "", http.StatusUnauthorized, authsvc.MsgNoToken},
		{"no scheme", "doctor-token", http.StatusUnauthorized, authsvc.MsgNoToken},
		{"lowercase scheme", "bearer doctor-token", http.StatusUnauthorized, authsvc.MsgNoToken},
		{"empty token", "Bearer   ", http.StatusUnauthorized, authsvc.MsgNoToken},
		{"rejected token", "Bearer other", http.StatusUnauthorized, authsvc.MsgTokenFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := perform(r, req)
			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.message, decodeError(t, w).Message)
		})
	}

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer doctor-token")
	w := perform(r, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, doctor.Doctor.ID.String(), w.Body.String())
}

func TestRequireRole(t *testing.T) {
	r, _, _ := authRouter()

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer doctor-token")
	w := perform(r, req)
	assert.Equal(t, http.StatusForbidden, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer admin-token")
	assert.Equal(t, http.StatusNoContent, perform(r, req).Code)
}

func TestDoctorIDWithoutPrincipal(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	assert.Equal(t, uuid.Nil, DoctorID(c))
}

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(ContextRequestID))
	})

	w := perform(r, httptest.NewRequest(http.MethodGet, "/", nil))
	generated := w.Header().Get(HeaderXRequestID)
	_, err := uuid.Parse(generated)
	assert.NoError(t, err)
	assert.Equal(t, generated, w.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderXRequestID, "abc-123")
	assert.Equal(t, "abc-123", perform(r, req).Header().Get(HeaderXRequestID))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderXRequestID, strings.Repeat("x", 200))
	assert.NotEqual(t, strings.Repeat("x", 200), perform(r, req).Header().Get(HeaderXRequestID))
}

func TestCORS(t *testing.T) {
	config := DefaultCORSConfig()
	config.AllowOrigins = []string{"https://app.example.com"}

	r := gin.New()
	r.Use(CORS(config))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/", nil)
	req.Header.Set("Origin", "https://app.example.com")
	w := perform(r, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://app.example.com", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "86400", w.Header().Get("Access-Control-Max-Age"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), "Authorization")

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	w = perform(r, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestMatchOriginWildcard(t *testing.T) {
	config := DefaultCORSConfig()

	allowed, ok := matchOrigin(config, "https://any.example.com")
	assert.True(t, ok)
	assert.Equal(t, "*", allowed)

	config.AllowCredentials = true
	allowed, ok = matchOrigin(config, "https://any.example.com")
	assert.True(t, ok)
	assert.Equal(t, "https://any.example.com", allowed)
}

func TestRateLimit(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{Rate: rate.Limit(0.001), Burst: 2})

	r := gin.New()
	r.Use(rl.RateLimit())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	send := func(ip string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = ip + ":1234"
		return perform(r, req)
	}

	assert.Equal(t, http.StatusOK, send("10.0.0.1").Code)
	assert.Equal(t, http.StatusOK, send("10.0.0.1").Code)

	w := send("10.0.0.1")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "1", w.Header().Get("Retry-After"))
	assert.Equal(t, "Too many requests, please try again later", decodeError(t, w).Message)

	assert.Equal(t, http.StatusOK, send("10.0.0.2").Code, "clients are limited separately")
}

func TestSizeLimit(t *testing.T) {
	r := gin.New()
	r.Use(SizeLimit(16))
	r.POST("/", func(c *gin.Context) {
		if _, err := io.ReadAll(c.Request.Body); err != nil {
			var maxErr *http.MaxBytesError
			if errors.As(err, &maxErr) {
				c.Status(http.StatusRequestEntityTooLarge)
				return
			}
			c.Status(http.StatusBadRequest)
			return
		}
		c.Status(http.StatusOK)
	})

	w := perform(r, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"a":1}`)))
	assert.Equal(t, http.StatusOK, w.Code)

	w = perform(r, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(strings.Repeat("a", 64))))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Equal(t, "Request body too large", decodeError(t, w).Message)

	// Unknown length is caught while reading.
	req := httptest.NewRequest(http.MethodPost, "/", io.NopCloser(strings.NewReader(strings.Repeat("a", 64))))
	req.ContentLength = -1
	assert.Equal(t, http.StatusRequestEntityTooLarge, perform(r, req).Code)
}

func TestSecurityHeaders(t *testing.T) {
	r := gin.New()
	r.Use(SecurityHeaders(DefaultSecurityConfig()))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := perform(r, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
	assert.NotEmpty(t, w.Header().Get("Strict-Transport-Security"))
}
