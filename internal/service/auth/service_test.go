package auth

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository/memory"
	"github.com/jwalitptl/clinic-api/internal/service/audit"
	"github.com/jwalitptl/clinic-api/pkg/auth"
	apperrors "github.com/jwalitptl/clinic-api/pkg/errors"
	"github.com/jwalitptl/clinic-api/pkg/metrics"
	"github.com/jwalitptl/clinic-api/pkg/security"
)

type AuthServiceSuite struct {
	suite.Suite
	ctx     context.Context
	store   *memory.Store
	metrics *metrics.Metrics
	svc     *Service
}

func (s *AuthServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = memory.NewStore()
	s.metrics = metrics.New("test", prometheus.NewRegistry())
	s.svc = NewService(
		s.store.Doctors(),
		security.NewBcryptHasher(bcrypt.MinCost),
		auth.NewTokenManager("test-secret", "clinic-api", time.Hour),
		auth.NewMemoryRevoker(time.Minute),
		s.metrics,
		nil,
	)
}

func registerRequest() *model.RegisterRequest {
	return &model.RegisterRequest{
		Name:           "Dr. John Smith",
		Email:          "John.Smith@Hospital.com",
		Password:       "password123",
		Specialization: "Cardiology",
		LicenseNumber:  "LIC123456",
		Phone:          "+1234567890",
	}
}

func (s *AuthServiceSuite) register() *Session {
	session, err := s.svc.Register(s.ctx, registerRequest())
	s.Require().NoError(err)
	return session
}

func (s *AuthServiceSuite) TestRegister() {
	session := s.register()

	s.Len(strings.Split(session.Token, "."), 3)
	s.Equal("john.smith@hospital.com", session.Doctor.Email)
	s.Equal(model.RoleDoctor, session.Doctor.Role)
	s.True(session.Doctor.IsActive)
	s.NotEqual("password123", session.Doctor.PasswordHash)

	_, err := s.svc.Register(s.ctx, registerRequest())
	s.Equal(apperrors.Response{StatusCode: http.StatusBadRequest, Message: "email already exists"}, apperrors.Normalize(err))
}

func (s *AuthServiceSuite) TestRegisterRejectsUndottedDomain() {
	for _, email := range []string{"test@domain", "test@.com", "test@domain."} {
		req := registerRequest()
		req.Email = email
		_, err := s.svc.Register(s.ctx, req)
		s.Equal(apperrors.KindValidation, apperrors.KindOf(err), email)
	}
}

func (s *AuthServiceSuite) TestLogin() {
	s.register()

	session, err := s.svc.Login(s.ctx, &model.LoginRequest{Email: "JOHN.SMITH@hospital.com", Password: "password123"})
	s.Require().NoError(err)
	s.NotEmpty(session.Token)
	s.Equal(1.0, testutil.ToFloat64(s.metrics.AuthAttempts.WithLabelValues(audit.OutcomeSuccess)))
}

func (s *AuthServiceSuite) TestLoginFailuresLookAlike() {
	s.register()

	_, unknown := s.svc.Login(s.ctx, &model.LoginRequest{Email: "wrong@email.com", Password: "password123"})
	_, wrong := s.svc.Login(s.ctx, &model.LoginRequest{Email: "john.smith@hospital.com", Password: "wrongpassword"})

	expected := apperrors.Response{StatusCode: http.StatusUnauthorized, Message: MsgInvalidCredentials}
	s.Equal(expected, apperrors.Normalize(unknown))
	s.Equal(expected, apperrors.Normalize(wrong))
	s.Equal(2.0, testutil.ToFloat64(s.metrics.AuthAttempts.WithLabelValues(audit.OutcomeFailure)))
}

func (s *AuthServiceSuite) TestInactiveDoctor() {
	session := s.register()
	s.Require().NoError(s.store.Doctors().SetActive(s.ctx, session.Doctor.ID, false))

	_, err := s.svc.Login(s.ctx, &model.LoginRequest{Email: "john.smith@hospital.com", Password: "password123"})
	s.Equal(apperrors.Response{StatusCode: http.StatusUnauthorized, Message: MsgInactive}, apperrors.Normalize(err))

	// The token issued before deactivation stops working immediately.
	_, err = s.svc.Authenticate(s.ctx, session.Token)
	s.Equal(apperrors.Response{StatusCode: http.StatusUnauthorized, Message: MsgInactive}, apperrors.Normalize(err))
}

func (s *AuthServiceSuite) TestAuthenticate() {
	session := s.register()

	p, err := s.svc.Authenticate(s.ctx, session.Token)
	s.Require().NoError(err)
	s.Equal(session.Doctor.ID, p.Doctor.ID)
	s.Equal(session.Doctor.ID, p.Claims.DoctorID)

	_, err = s.svc.Authenticate(s.ctx, "")
	s.Equal(MsgNoToken, apperrors.Normalize(err).Message)

	_, err = s.svc.Authenticate(s.ctx, "malformed.token.here")
	s.Equal(apperrors.Response{StatusCode: http.StatusUnauthorized, Message: MsgTokenFailed}, apperrors.Normalize(err))

	other := auth.NewTokenManager("another-secret", "clinic-api", time.Hour)
	forged, err := other.Issue(session.Doctor.ID, "admin")
	s.Require().NoError(err)
	_, err = s.svc.Authenticate(s.ctx, forged)
	s.Equal(MsgTokenFailed, apperrors.Normalize(err).Message)
}

func (s *AuthServiceSuite) TestAuthenticateUnknownDoctor() {
	orphan, err := s.svc.tokens.Issue(uuid.New(), string(model.RoleDoctor))
	s.Require().NoError(err)

	_, err = s.svc.Authenticate(s.ctx, orphan)
	s.Equal(apperrors.Response{StatusCode: http.StatusUnauthorized, Message: MsgDoctorNotFound}, apperrors.Normalize(err))
}

func (s *AuthServiceSuite) TestLogout() {
	session := s.register()
	p, err := s.svc.Authenticate(s.ctx, session.Token)
	s.Require().NoError(err)

	s.Require().NoError(s.svc.Logout(s.ctx, p))

	_, err = s.svc.Authenticate(s.ctx, session.Token)
	s.Equal(apperrors.Response{StatusCode: http.StatusUnauthorized, Message: MsgTokenFailed}, apperrors.Normalize(err))

	fresh, err := s.svc.Login(s.ctx, &model.LoginRequest{Email: "john.smith@hospital.com", Password: "password123"})
	s.Require().NoError(err)
	_, err = s.svc.Authenticate(s.ctx, fresh.Token)
	s.NoError(err, "other sessions are unaffected")
}

func TestAuthServiceSuite(t *testing.T) {
	suite.Run(t, new(AuthServiceSuite))
}

func TestHasDottedDomain(t *testing.T) {
	assert.True(t, hasDottedDomain("a@b.co"))
	assert.False(t, hasDottedDomain("@b.co"))
	assert.False(t, hasDottedDomain("plain"))
	require.False(t, hasDottedDomain("a@b"))
}
