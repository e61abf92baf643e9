package memory

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository"
	apperrors "github.com/jwalitptl/clinic-api/pkg/errors"
)

var _ repository.PatientRepository = (*PatientRepository)(nil)

type PatientRepository struct {
	store *Store
}

func clonePatient(p *model.Patient) *model.Patient {
	c := *p
	if p.Address != nil {
		a := *p.Address
		c.Address = &a
	}
	if p.EmergencyContact != nil {
		e := *p.EmergencyContact
		c.EmergencyContact = &e
	}
	c.Allergies = append([]string(nil), p.Allergies...)
	return &c
}

func (r *PatientRepository) Create(ctx context.Context, patient *model.Patient) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stamp(&patient.Base, true)
	s.patients[patient.ID] = clonePatient(patient)
	return nil
}

func (r *PatientRepository) Get(ctx context.Context, id uuid.UUID) (*model.Patient, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.patients[id]
	if !ok {
		return nil, apperrors.NotFound("Patient")
	}
	return clonePatient(p), nil
}

func (r *PatientRepository) Update(ctx context.Context, patient *model.Patient) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.patients[patient.ID]
	if !ok {
		return apperrors.NotFound("Patient")
	}
	patient.CreatedAt = existing.CreatedAt
	patient.RegisteredBy = existing.RegisteredBy
	s.stamp(&patient.Base, false)
	s.patients[patient.ID] = clonePatient(patient)
	return nil
}

func (r *PatientRepository) Delete(ctx context.Context, id uuid.UUID) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.patients[id]; !ok {
		return apperrors.NotFound("Patient")
	}
	for _, a := range s.appointments {
		if a.PatientID == id {
			return repository.HasDependents("Patient")
		}
	}
	for _, rec := range s.records {
		if rec.PatientID == id {
			return repository.HasDependents("Patient")
		}
	}
	delete(s.patients, id)
	return nil
}

func (r *PatientRepository) List(ctx context.Context, filter model.PatientFilter) ([]*model.Patient, int, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []*model.Patient
	for _, p := range s.patients {
		if filter.Search != "" &&
			!containsFold(p.FirstName, filter.Search) &&
			!containsFold(p.LastName, filter.Search) &&
			!containsFold(p.Email, filter.Search) &&
			!containsFold(p.Phone, filter.Search) {
			continue
		}
		matched = append(matched, clonePatient(p))
	}
	sortByCreatedDesc(matched, func(p *model.Patient) time.Time { return p.CreatedAt })
	return page(matched, filter.ListParams), len(matched), nil
}
