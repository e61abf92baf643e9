package app

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/clinic-api/internal/config"
	"github.com/jwalitptl/clinic-api/internal/repository/memory"
)

type apiResponse struct {
	Code        int             `json:"-"`
	Success     bool            `json:"success"`
	Message     string          `json:"message"`
	Token       string          `json:"token"`
	Count       *int            `json:"count"`
	Total       int             `json:"total"`
	TotalPages  int             `json:"totalPages"`
	CurrentPage string          `json:"currentPage"`
	Data        json.RawMessage `json:"data"`
}

// object decodes Data as a JSON object.
func (r apiResponse) object(t *testing.T) map[string]interface{} {
	t.Helper()
	var m map[string]interface{}
	require.NoError(t, json.Unmarshal(r.Data, &m), string(r.Data))
	return m
}

func (r apiResponse) list(t *testing.T) []map[string]interface{} {
	t.Helper()
	var l []map[string]interface{}
	require.NoError(t, json.Unmarshal(r.Data, &l), string(r.Data))
	return l
}

func (r apiResponse) id(t *testing.T) string {
	t.Helper()
	id, _ := r.object(t)["id"].(string)
	require.NotEmpty(t, id)
	return id
}

type testServer struct {
	t      *testing.T
	engine *gin.Engine
	store  *memory.Store
}

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{Mode: gin.TestMode, RequestTimeout: 5 * time.Second},
		JWT: config.JWTConfig{
			Secret:     "test-secret",
			Issuer:     "clinic-api",
			Expiry:     time.Hour,
			BcryptCost: 4,
		},
	}
}

func newTestServer(t *testing.T) *testServer {
	store := memory.NewStore()
	return &testServer{
		t:      t,
		engine: NewEngine(testConfig(), MemoryDeps(store)),
		store:  store,
	}
}

func (s *testServer) do(method, path string, body interface{}, token string) apiResponse {
	s.t.Helper()
	rec := s.raw(method, path, body, token)
	resp := apiResponse{Code: rec.Code}
	if rec.Body.Len() > 0 {
		require.NoError(s.t, json.Unmarshal(rec.Body.Bytes(), &resp), rec.Body.String())
	}
	return resp
}

func (s *testServer) raw(method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	s.t.Helper()
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		payload, err := json.Marshal(b)
		require.NoError(s.t, err)
		reader = bytes.NewBuffer(payload)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.engine.ServeHTTP(rec, req)
	return rec
}

// register signs up a doctor and returns its token and id.
func (s *testServer) register(name, email, license string) (string, string) {
	s.t.Helper()
	resp := s.do(http.MethodPost, "/api/auth/register", map[string]interface{}{
		"name":           name,
		"email":          email,
		"password":       "password123",
		"specialization": "Cardiology",
		"licenseNumber":  license,
		"phone":          "+1234567890",
	}, "")
	require.Equal(s.t, http.StatusCreated, resp.Code, resp.Message)
	return resp.Token, resp.id(s.t)
}

func (s *testServer) createPatient(token string) string {
	s.t.Helper()
	resp := s.do(http.MethodPost, "/api/patients", map[string]interface{}{
		"firstName":   "Jane",
		"lastName":    "Doe",
		"dateOfBirth": "1990-01-01",
		"gender":      "female",
		"phone":       "+14155550100",
		"bloodGroup":  "O+",
	}, token)
	require.Equal(s.t, http.StatusCreated, resp.Code, resp.Message)
	return resp.id(s.t)
}
