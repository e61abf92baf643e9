package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/jwalitptl/clinic-api/internal/config"
	"github.com/jwalitptl/clinic-api/internal/repository"
)

func NewDB(ctx context.Context, cfg config.DatabaseConfig) (*sqlx.DB, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// Repositories bundles every repository backed by one connection pool.
type Repositories struct {
	BaseRepository
	Doctors        repository.DoctorRepository
	Patients       repository.PatientRepository
	Appointments   repository.AppointmentRepository
	MedicalRecords repository.MedicalRecordRepository
	Outbox         repository.OutboxRepository
}

func NewRepositories(db *sqlx.DB) *Repositories {
	base := NewBaseRepository(db)
	return &Repositories{
		BaseRepository: base,
		Doctors:        &doctorRepository{base},
		Patients:       &patientRepository{base},
		Appointments:   &appointmentRepository{base},
		MedicalRecords: &medicalRecordRepository{base},
		Outbox:         &outboxRepository{base},
	}
}
