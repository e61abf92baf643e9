// Package memory is an in-process store used for local development and tests.
// It enforces the same uniqueness and slot invariants as the postgres schema.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-api/internal/model"
)

type Store struct {
	mu           sync.RWMutex
	doctors      map[uuid.UUID]*model.Doctor
	patients     map[uuid.UUID]*model.Patient
	appointments map[uuid.UUID]*model.Appointment
	records      map[uuid.UUID]*model.MedicalRecord
	outbox       map[uuid.UUID]*model.OutboxEvent
	now          func() time.Time
}

func NewStore() *Store {
	return &Store{
		doctors:      make(map[uuid.UUID]*model.Doctor),
		patients:     make(map[uuid.UUID]*model.Patient),
		appointments: make(map[uuid.UUID]*model.Appointment),
		records:      make(map[uuid.UUID]*model.MedicalRecord),
		outbox:       make(map[uuid.UUID]*model.OutboxEvent),
		now:          time.Now,
	}
}

func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (s *Store) Doctors() *DoctorRepository {
	return &DoctorRepository{store: s}
}

func (s *Store) Patients() *PatientRepository {
	return &PatientRepository{store: s}
}

func (s *Store) Appointments() *AppointmentRepository {
	return &AppointmentRepository{store: s}
}

func (s *Store) MedicalRecords() *MedicalRecordRepository {
	return &MedicalRecordRepository{store: s}
}

func (s *Store) Outbox() *OutboxRepository {
	return &OutboxRepository{store: s}
}

func (s *Store) stamp(b *model.Base, create bool) {
	now := s.now().UTC()
	if create {
		if b.ID == uuid.Nil {
			b.ID = uuid.New()
		}
		b.CreatedAt = now
	}
	b.UpdatedAt = now
}

func page[T any](items []T, params model.ListParams) []T {
	start := params.Offset()
	if start >= len(items) {
		return []T{}
	}
	end := start + params.Limit
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

func sortByCreatedDesc[T any](items []T, created func(T) time.Time) {
	sort.SliceStable(items, func(i, j int) bool {
		return created(items[i]).After(created(items[j]))
	})
}
