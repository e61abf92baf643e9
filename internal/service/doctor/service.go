package doctor

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository"
	"github.com/jwalitptl/clinic-api/internal/service/audit"
	apperrors "github.com/jwalitptl/clinic-api/pkg/errors"
)

type Service struct {
	repo    repository.DoctorRepository
	auditor *audit.Service
}

func NewService(repo repository.DoctorRepository, auditor *audit.Service) *Service {
	return &Service{repo: repo, auditor: auditor}
}

func (s *Service) List(ctx context.Context, params model.ListParams) ([]*model.Doctor, int, error) {
	return s.repo.List(ctx, params)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.Doctor, error) {
	return s.repo.Get(ctx, id)
}

// SetActive enables or disables a doctor account. Only admins may do this and
// an admin cannot deactivate themselves.
func (s *Service) SetActive(ctx context.Context, actor *model.Doctor, id uuid.UUID, active bool) (*model.Doctor, error) {
	if actor.Role != model.RoleAdmin {
		return nil, apperrors.Forbidden("Only administrators can change account status")
	}
	if actor.ID == id && !active {
		return nil, apperrors.InvalidInput("Administrators cannot deactivate their own account")
	}

	if err := s.repo.SetActive(ctx, id, active); err != nil {
		return nil, err
	}

	s.auditor.Record(ctx, audit.ActionUpdate, "doctor", id, actor.ID, zap.Bool("is_active", active))
	return s.repo.Get(ctx, id)
}
