package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-api/internal/model"
)

// All repository interfaces in one file.
//
// Lookups of a missing row return an errors.KindNotFound AppError naming the
// entity. Writes that would double-book a doctor return errors.KindSlotConflict,
// and unique field violations return errors.KindDuplicate.
type (
	DoctorRepository interface {
		Create(ctx context.Context, doctor *model.Doctor) error
		Get(ctx context.Context, id uuid.UUID) (*model.Doctor, error)
		GetByEmail(ctx context.Context, email string) (*model.Doctor, error)
		List(ctx context.Context, params model.ListParams) ([]*model.Doctor, int, error)
		SetActive(ctx context.Context, id uuid.UUID, active bool) error
	}

	PatientRepository interface {
		Create(ctx context.Context, patient *model.Patient) error
		Get(ctx context.Context, id uuid.UUID) (*model.Patient, error)
		Update(ctx context.Context, patient *model.Patient) error
		Delete(ctx context.Context, id uuid.UUID) error
		List(ctx context.Context, filter model.PatientFilter) ([]*model.Patient, int, error)
	}

	AppointmentRepository interface {
		Create(ctx context.Context, appointment *model.Appointment) error
		Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error)
		Update(ctx context.Context, appointment *model.Appointment) error
		Delete(ctx context.Context, id uuid.UUID) error
		List(ctx context.Context, filter model.AppointmentFilter) ([]*model.Appointment, int, error)
		// ListByDoctor returns the doctor's appointments ordered by date and
		// time. An empty date returns every date.
		ListByDoctor(ctx context.Context, doctorID uuid.UUID, date string) ([]*model.Appointment, error)
	}

	MedicalRecordRepository interface {
		Create(ctx context.Context, record *model.MedicalRecord) error
		Get(ctx context.Context, id uuid.UUID) (*model.MedicalRecord, error)
		Update(ctx context.Context, record *model.MedicalRecord) error
		Delete(ctx context.Context, id uuid.UUID) error
		List(ctx context.Context, filter model.MedicalRecordFilter) ([]*model.MedicalRecord, int, error)
		ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*model.MedicalRecord, error)
	}

	// OutboxRepository stores domain events until the relay publishes them.
	OutboxRepository interface {
		Create(ctx context.Context, event *model.OutboxEvent) error
		// ClaimPending returns up to limit pending events due at now, oldest
		// first, and hides them from other claimers until leaseUntil.
		ClaimPending(ctx context.Context, now, leaseUntil time.Time, limit int) ([]*model.OutboxEvent, error)
		MarkPublished(ctx context.Context, id uuid.UUID, at time.Time) error
		// MarkFailed records reason. A nil retryAt gives up on the event.
		MarkFailed(ctx context.Context, id uuid.UUID, reason string, retryAt *time.Time) error
		DeletePublishedBefore(ctx context.Context, before time.Time) (int64, error)
	}

	// HealthChecker reports whether the backing store is reachable.
	HealthChecker interface {
		Ping(ctx context.Context) error
	}
)

// HealthCheckFunc adapts a function to HealthChecker.
type HealthCheckFunc func(ctx context.Context) error

func (f HealthCheckFunc) Ping(ctx context.Context) error {
	return f(ctx)
}
