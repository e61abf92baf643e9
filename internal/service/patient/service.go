package patient

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository"
	"github.com/jwalitptl/clinic-api/internal/service/audit"
)

const auditEntity = "patient"

type Service struct {
	repo    repository.PatientRepository
	auditor *audit.Service
}

func NewService(repo repository.PatientRepository, auditor *audit.Service) *Service {
	return &Service{
		repo:    repo,
		auditor: auditor,
	}
}

// Create registers a patient on behalf of the calling doctor.
func (s *Service) Create(ctx context.Context, actor uuid.UUID, req *model.CreatePatientRequest) (*model.Patient, error) {
	patient := &model.Patient{
		FirstName:        strings.TrimSpace(req.FirstName),
		LastName:         strings.TrimSpace(req.LastName),
		DateOfBirth:      req.DateOfBirth,
		Gender:           req.Gender,
		Phone:            req.Phone,
		Email:            strings.ToLower(strings.TrimSpace(req.Email)),
		BloodGroup:       req.BloodGroup,
		Address:          req.Address,
		EmergencyContact: req.EmergencyContact,
		Allergies:        pq.StringArray(req.Allergies),
		RegisteredBy:     actor,
	}
	if patient.Allergies == nil {
		patient.Allergies = pq.StringArray{}
	}

	if err := s.repo.Create(ctx, patient); err != nil {
		return nil, err
	}

	s.auditor.Record(ctx, audit.ActionCreate, auditEntity, patient.ID, actor)
	return patient, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.Patient, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, filter model.PatientFilter) ([]*model.Patient, int, error) {
	filter.Search = strings.TrimSpace(filter.Search)
	return s.repo.List(ctx, filter)
}

// Update applies only the fields present in req.
func (s *Service) Update(ctx context.Context, actor, id uuid.UUID, req *model.UpdatePatientRequest) (*model.Patient, error) {
	patient, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.FirstName != nil {
		patient.FirstName = strings.TrimSpace(*req.FirstName)
	}
	if req.LastName != nil {
		patient.LastName = strings.TrimSpace(*req.LastName)
	}
	if req.DateOfBirth != nil {
		patient.DateOfBirth = *req.DateOfBirth
	}
	if req.Gender != nil {
		patient.Gender = *req.Gender
	}
	if req.Phone != nil {
		patient.Phone = *req.Phone
	}
	if req.Email != nil {
		patient.Email = strings.ToLower(strings.TrimSpace(*req.Email))
	}
	if req.BloodGroup != nil {
		patient.BloodGroup = *req.BloodGroup
	}
	if req.Address != nil {
		patient.Address = req.Address
	}
	if req.EmergencyContact != nil {
		patient.EmergencyContact = req.EmergencyContact
	}
	if req.Allergies != nil {
		patient.Allergies = pq.StringArray(req.Allergies)
	}

	if err := s.repo.Update(ctx, patient); err != nil {
		return nil, err
	}

	s.auditor.Record(ctx, audit.ActionUpdate, auditEntity, patient.ID, actor)
	return patient, nil
}

func (s *Service) Delete(ctx context.Context, actor, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.auditor.Record(ctx, audit.ActionDelete, auditEntity, id, actor)
	return nil
}
