package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository"
	apperrors "github.com/jwalitptl/clinic-api/pkg/errors"
)

var _ repository.AppointmentRepository = (*AppointmentRepository)(nil)

type AppointmentRepository struct {
	store *Store
}

// interval returns the [start, end) minutes occupied by a on its date.
func interval(a *model.Appointment) (int, int, bool) {
	t, err := time.Parse(model.TimeLayout, a.AppointmentTime)
	if err != nil {
		return 0, 0, false
	}
	start := t.Hour()*60 + t.Minute()
	return start, start + a.Duration, true
}

// checkSlot mirrors the schema's exclusion constraint. Callers hold the write lock.
func (s *Store) checkSlot(a *model.Appointment) error {
	if a.Status == model.AppointmentStatusCancelled {
		return nil
	}
	start, end, ok := interval(a)
	if !ok {
		return apperrors.InvalidInput("Invalid appointment time %q", a.AppointmentTime)
	}
	for _, other := range s.appointments {
		if other.ID == a.ID || other.DoctorID != a.DoctorID ||
			other.AppointmentDate != a.AppointmentDate ||
			other.Status == model.AppointmentStatusCancelled {
			continue
		}
		os, oe, ok := interval(other)
		if ok && start < oe && os < end {
			return apperrors.SlotConflict(fmt.Errorf("overlaps appointment %s", other.ID))
		}
	}
	return nil
}

func (r *AppointmentRepository) Create(ctx context.Context, appointment *model.Appointment) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkSlot(appointment); err != nil {
		return err
	}
	s.stamp(&appointment.Base, true)
	c := *appointment
	s.appointments[c.ID] = &c
	return nil
}

func (r *AppointmentRepository) Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.appointments[id]
	if !ok {
		return nil, apperrors.NotFound("Appointment")
	}
	c := *a
	return &c, nil
}

func (r *AppointmentRepository) Update(ctx context.Context, appointment *model.Appointment) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.appointments[appointment.ID]
	if !ok {
		return apperrors.NotFound("Appointment")
	}
	if err := s.checkSlot(appointment); err != nil {
		return err
	}
	appointment.CreatedAt = existing.CreatedAt
	s.stamp(&appointment.Base, false)
	c := *appointment
	s.appointments[c.ID] = &c
	return nil
}

func (r *AppointmentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.appointments[id]; !ok {
		return apperrors.NotFound("Appointment")
	}
	delete(s.appointments, id)
	for _, rec := range s.records {
		if rec.AppointmentID != nil && *rec.AppointmentID == id {
			rec.AppointmentID = nil
		}
	}
	return nil
}

func (r *AppointmentRepository) List(ctx context.Context, filter model.AppointmentFilter) ([]*model.Appointment, int, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []*model.Appointment
	for _, a := range s.appointments {
		if filter.PatientID != nil && a.PatientID != *filter.PatientID {
			continue
		}
		if filter.DoctorID != nil && a.DoctorID != *filter.DoctorID {
			continue
		}
		if filter.Date != "" && a.AppointmentDate != filter.Date {
			continue
		}
		if filter.Status != "" && a.Status != filter.Status {
			continue
		}
		c := *a
		matched = append(matched, &c)
	}
	sortByDateTime(matched)
	return page(matched, filter.ListParams), len(matched), nil
}

func (r *AppointmentRepository) ListByDoctor(ctx context.Context, doctorID uuid.UUID, date string) ([]*model.Appointment, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := []*model.Appointment{}
	for _, a := range s.appointments {
		if a.DoctorID != doctorID || (date != "" && a.AppointmentDate != date) {
			continue
		}
		c := *a
		matched = append(matched, &c)
	}
	sortByDateTime(matched)
	return matched, nil
}

func sortByDateTime(list []*model.Appointment) {
	sort.SliceStable(list, func(i, j int) bool {
		if list[i].AppointmentDate != list[j].AppointmentDate {
			return list[i].AppointmentDate < list[j].AppointmentDate
		}
		si, _, _ := interval(list[i])
		sj, _, _ := interval(list[j])
		if si != sj {
			return si < sj
		}
		return list[i].CreatedAt.Before(list[j].CreatedAt)
	})
}
