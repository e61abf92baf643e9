package memory

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository"
	apperrors "github.com/jwalitptl/clinic-api/pkg/errors"
)

var _ repository.MedicalRecordRepository = (*MedicalRecordRepository)(nil)

type MedicalRecordRepository struct {
	store *Store
}

func cloneRecord(m *model.MedicalRecord) *model.MedicalRecord {
	c := *m
	if m.AppointmentID != nil {
		id := *m.AppointmentID
		c.AppointmentID = &id
	}
	if m.FollowUpDate != nil {
		t := *m.FollowUpDate
		c.FollowUpDate = &t
	}
	c.Symptoms = append([]string(nil), m.Symptoms...)
	c.Prescriptions = append(model.Prescriptions(nil), m.Prescriptions...)
	return &c
}

func (r *MedicalRecordRepository) Create(ctx context.Context, record *model.MedicalRecord) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.patients[record.PatientID]; !ok {
		return apperrors.NotFound("Patient")
	}
	s.stamp(&record.Base, true)
	s.records[record.ID] = cloneRecord(record)
	return nil
}

func (r *MedicalRecordRepository) Get(ctx context.Context, id uuid.UUID) (*model.MedicalRecord, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.records[id]
	if !ok {
		return nil, apperrors.NotFound("Medical record")
	}
	return cloneRecord(m), nil
}

func (r *MedicalRecordRepository) Update(ctx context.Context, record *model.MedicalRecord) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.records[record.ID]
	if !ok {
		return apperrors.NotFound("Medical record")
	}
	// Ownership and subject are fixed at creation.
	record.DoctorID = existing.DoctorID
	record.PatientID = existing.PatientID
	record.CreatedAt = existing.CreatedAt
	s.stamp(&record.Base, false)
	s.records[record.ID] = cloneRecord(record)
	return nil
}

func (r *MedicalRecordRepository) Delete(ctx context.Context, id uuid.UUID) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[id]; !ok {
		return apperrors.NotFound("Medical record")
	}
	delete(s.records, id)
	return nil
}

func (r *MedicalRecordRepository) List(ctx context.Context, filter model.MedicalRecordFilter) ([]*model.MedicalRecord, int, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []*model.MedicalRecord
	for _, m := range s.records {
		if filter.PatientID != nil && m.PatientID != *filter.PatientID {
			continue
		}
		if filter.DoctorID != nil && m.DoctorID != *filter.DoctorID {
			continue
		}
		matched = append(matched, cloneRecord(m))
	}
	sortByVisitDesc(matched)
	return page(matched, filter.ListParams), len(matched), nil
}

func (r *MedicalRecordRepository) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*model.MedicalRecord, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := []*model.MedicalRecord{}
	for _, m := range s.records {
		if m.PatientID == patientID {
			matched = append(matched, cloneRecord(m))
		}
	}
	sortByVisitDesc(matched)
	return matched, nil
}

func sortByVisitDesc(list []*model.MedicalRecord) {
	sort.SliceStable(list, func(i, j int) bool {
		if !list[i].VisitDate.Equal(list[j].VisitDate) {
			return list[i].VisitDate.After(list[j].VisitDate)
		}
		return list[i].CreatedAt.After(list[j].CreatedAt)
	})
}
