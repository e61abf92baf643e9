package memory

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository"
	apperrors "github.com/jwalitptl/clinic-api/pkg/errors"
)

var _ repository.DoctorRepository = (*DoctorRepository)(nil)

type DoctorRepository struct {
	store *Store
}

func (r *DoctorRepository) Create(ctx context.Context, doctor *model.Doctor) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, d := range s.doctors {
		if strings.EqualFold(d.Email, doctor.Email) {
			return apperrors.Duplicate("email", nil)
		}
		if d.LicenseNumber == doctor.LicenseNumber {
			return apperrors.Duplicate("licenseNumber", nil)
		}
	}

	s.stamp(&doctor.Base, true)
	c := *doctor
	s.doctors[c.ID] = &c
	return nil
}

func (r *DoctorRepository) Get(ctx context.Context, id uuid.UUID) (*model.Doctor, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, ok := s.doctors[id]
	if !ok {
		return nil, apperrors.NotFound("Doctor")
	}
	c := *d
	return &c, nil
}

func (r *DoctorRepository) GetByEmail(ctx context.Context, email string) (*model.Doctor, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, d := range s.doctors {
		if strings.EqualFold(d.Email, email) {
			c := *d
			return &c, nil
		}
	}
	return nil, apperrors.NotFound("Doctor")
}

func (r *DoctorRepository) List(ctx context.Context, params model.ListParams) ([]*model.Doctor, int, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := make([]*model.Doctor, 0, len(s.doctors))
	for _, d := range s.doctors {
		c := *d
		all = append(all, &c)
	}
	sortByCreatedDesc(all, func(d *model.Doctor) time.Time { return d.CreatedAt })
	return page(all, params), len(all), nil
}

func (r *DoctorRepository) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.doctors[id]
	if !ok {
		return apperrors.NotFound("Doctor")
	}
	d.IsActive = active
	s.stamp(&d.Base, false)
	return nil
}
