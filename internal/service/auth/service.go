package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository"
	"github.com/jwalitptl/clinic-api/internal/service/audit"
	"github.com/jwalitptl/clinic-api/pkg/auth"
	apperrors "github.com/jwalitptl/clinic-api/pkg/errors"
	"github.com/jwalitptl/clinic-api/pkg/metrics"
	"github.com/jwalitptl/clinic-api/pkg/security"
)

// Messages returned to unauthenticated callers.
const (
	MsgInvalidCredentials = "Invalid credentials"
	MsgInactive           = "Doctor account is inactive"
	MsgNoToken            = "Not authorized, no token"
	MsgTokenFailed        = "Not authorized, token failed"
	MsgDoctorNotFound     = "Not authorized, doctor not found"
)

// Session is a signed token and the doctor it was issued to.
type Session struct {
	Token  string
	Doctor *model.Doctor
}

// Principal is the doctor behind an authenticated request.
type Principal struct {
	Doctor *model.Doctor
	Claims *auth.Claims
}

type Service struct {
	doctors repository.DoctorRepository
	hasher  security.PasswordHasher
	tokens  *auth.TokenManager
	revoker auth.Revoker
	metrics *metrics.Metrics
	auditor *audit.Service
	now     func() time.Time
}

func NewService(
	doctors repository.DoctorRepository,
	hasher security.PasswordHasher,
	tokens *auth.TokenManager,
	revoker auth.Revoker,
	m *metrics.Metrics,
	auditor *audit.Service,
) *Service {
	return &Service{
		doctors: doctors,
		hasher:  hasher,
		tokens:  tokens,
		revoker: revoker,
		metrics: m,
		auditor: auditor,
		now:     time.Now,
	}
}

// Register creates an active doctor account and signs it in.
func (s *Service) Register(ctx context.Context, req *model.RegisterRequest) (*Session, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if !hasDottedDomain(email) {
		return nil, apperrors.Validation(apperrors.FieldError{
			Field:   "email",
			Message: "email must be a valid email address",
		})
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		if errors.Is(err, security.ErrPasswordLength) {
			return nil, apperrors.Validation(apperrors.FieldError{
				Field:   "password",
				Message: fmt.Sprintf("password must be at least %d characters", security.MinPasswordLen),
			})
		}
		return nil, err
	}

	doctor := &model.Doctor{
		Name:           strings.TrimSpace(req.Name),
		Email:          email,
		PasswordHash:   hash,
		Specialization: strings.TrimSpace(req.Specialization),
		LicenseNumber:  strings.TrimSpace(req.LicenseNumber),
		Phone:          req.Phone,
		Role:           model.RoleDoctor,
		IsActive:       true,
	}
	if err := s.doctors.Create(ctx, doctor); err != nil {
		return nil, err
	}

	token, err := s.tokens.Issue(doctor.ID, string(doctor.Role))
	if err != nil {
		return nil, err
	}

	s.auditor.Record(ctx, audit.ActionCreate, "doctor", doctor.ID, doctor.ID)
	return &Session{Token: token, Doctor: doctor}, nil
}

// Login answers the same message for an unknown email and a wrong password.
func (s *Service) Login(ctx context.Context, req *model.LoginRequest) (*Session, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	doctor, err := s.doctors.GetByEmail(ctx, email)
	if err != nil {
		if apperrors.KindOf(err) != apperrors.KindNotFound {
			return nil, err
		}
		return nil, s.failLogin(ctx, email, nil, apperrors.Unauthenticated(MsgInvalidCredentials))
	}

	if err := s.hasher.Compare(doctor.PasswordHash, req.Password); err != nil {
		if !errors.Is(err, security.ErrMismatch) {
			log.Ctx(ctx).Error().Err(err).Str("doctor_id", doctor.ID.String()).Msg("stored password hash is unusable")
		}
		return nil, s.failLogin(ctx, email, doctor, apperrors.Unauthenticated(MsgInvalidCredentials))
	}
	if !doctor.IsActive {
		return nil, s.failLogin(ctx, email, doctor, apperrors.Unauthenticated(MsgInactive))
	}

	token, err := s.tokens.Issue(doctor.ID, string(doctor.Role))
	if err != nil {
		return nil, err
	}

	s.metrics.Login(audit.OutcomeSuccess)
	s.auditor.Login(ctx, email, doctor.ID, nil)
	return &Session{Token: token, Doctor: doctor}, nil
}

func (s *Service) failLogin(ctx context.Context, email string, doctor *model.Doctor, err *apperrors.AppError) error {
	s.metrics.Login(audit.OutcomeFailure)
	id := uuid.Nil
	if doctor != nil {
		id = doctor.ID
	}
	s.auditor.Login(ctx, email, id, err)
	return err
}

// Authenticate verifies token and re-reads the doctor so deactivation takes
// effect on the next request.
func (s *Service) Authenticate(ctx context.Context, token string) (*Principal, error) {
	if token == "" {
		return nil, apperrors.Unauthenticated(MsgNoToken)
	}

	claims, err := s.tokens.Parse(token)
	if err != nil {
		log.Ctx(ctx).Debug().Err(err).Msg("token rejected")
		return nil, apperrors.Unauthenticated(MsgTokenFailed)
	}

	revoked, err := s.revoker.IsRevoked(ctx, claims.TokenID())
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, apperrors.Unauthenticated(MsgTokenFailed)
	}

	doctor, err := s.doctors.Get(ctx, claims.DoctorID)
	if err != nil {
		if apperrors.KindOf(err) == apperrors.KindNotFound {
			return nil, apperrors.Unauthenticated(MsgDoctorNotFound)
		}
		return nil, err
	}
	if !doctor.IsActive {
		return nil, apperrors.Unauthenticated(MsgInactive)
	}

	return &Principal{Doctor: doctor, Claims: claims}, nil
}

// Logout revokes the token for the rest of its lifetime.
func (s *Service) Logout(ctx context.Context, p *Principal) error {
	if err := s.revoker.Revoke(ctx, p.Claims.TokenID(), p.Claims.TTL(s.now())); err != nil {
		return err
	}
	s.auditor.Record(ctx, audit.ActionLogout, "doctor", p.Doctor.ID, p.Doctor.ID)
	return nil
}

// hasDottedDomain rejects addresses such as "user@localhost" that the
// validator's RFC grammar accepts.
func hasDottedDomain(email string) bool {
	at := strings.LastIndexByte(email, '@')
	if at < 1 {
		return false
	}
	domain := email[at+1:]
	dot := strings.IndexByte(domain, '.')
	return dot > 0 && dot < len(domain)-1
}
