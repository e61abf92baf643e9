package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository"
)

var _ repository.PatientRepository = (*patientRepository)(nil)

type patientRepository struct {
	BaseRepository
}

const patientColumns = `id, first_name, last_name,
	to_char(date_of_birth, 'YYYY-MM-DD') AS date_of_birth,
	gender, phone, email, blood_group, address, emergency_contact, allergies,
	registered_by, created_at, updated_at`

func (r *patientRepository) Create(ctx context.Context, patient *model.Patient) error {
	query := `
		INSERT INTO patients (
			id, first_name, last_name, date_of_birth, gender, phone, email,
			blood_group, address, emergency_contact, allergies, registered_by,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`
	if patient.ID == uuid.Nil {
		patient.ID = uuid.New()
	}
	if patient.Allergies == nil {
		patient.Allergies = pq.StringArray{}
	}
	patient.CreatedAt = time.Now().UTC()
	patient.UpdatedAt = patient.CreatedAt

	_, err := r.db.ExecContext(ctx, query,
		patient.ID,
		patient.FirstName,
		patient.LastName,
		patient.DateOfBirth,
		patient.Gender,
		patient.Phone,
		patient.Email,
		patient.BloodGroup,
		patient.Address,
		patient.EmergencyContact,
		patient.Allergies,
		patient.RegisteredBy,
		patient.CreatedAt,
		patient.UpdatedAt,
	)
	if err != nil {
		return translate(err, "Patient", "create patient")
	}
	return nil
}

func (r *patientRepository) Get(ctx context.Context, id uuid.UUID) (*model.Patient, error) {
	query := `SELECT ` + patientColumns + ` FROM patients WHERE id = $1`
	var patient model.Patient
	if err := r.db.GetContext(ctx, &patient, query, id); err != nil {
		return nil, translate(err, "Patient", "get patient")
	}
	return &patient, nil
}

func (r *patientRepository) Update(ctx context.Context, patient *model.Patient) error {
	query := `
		UPDATE patients
		SET first_name = $1, last_name = $2, date_of_birth = $3, gender = $4,
			phone = $5, email = $6, blood_group = $7, address = $8,
			emergency_contact = $9, allergies = $10, updated_at = $11
		WHERE id = $12
	`
	if patient.Allergies == nil {
		patient.Allergies = pq.StringArray{}
	}
	patient.UpdatedAt = time.Now().UTC()

	result, err := r.db.ExecContext(ctx, query,
		patient.FirstName,
		patient.LastName,
		patient.DateOfBirth,
		patient.Gender,
		patient.Phone,
		patient.Email,
		patient.BloodGroup,
		patient.Address,
		patient.EmergencyContact,
		patient.Allergies,
		patient.UpdatedAt,
		patient.ID,
	)
	if err != nil {
		return translate(err, "Patient", "update patient")
	}
	return expectAffected(result, "Patient")
}

func (r *patientRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM patients WHERE id = $1`, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return repository.HasDependents("Patient")
		}
		return translate(err, "Patient", "delete patient")
	}
	return expectAffected(result, "Patient")
}

func (r *patientRepository) List(ctx context.Context, filter model.PatientFilter) ([]*model.Patient, int, error) {
	var w where
	if filter.Search != "" {
		w.add(`(first_name ILIKE ? OR last_name ILIKE ? OR phone ILIKE ? OR email ILIKE ?)`,
			"%"+filter.Search+"%")
	}

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM patients`+w.String(), w.args...); err != nil {
		return nil, 0, translate(err, "Patient", "count patients")
	}

	limit, args := w.page(filter.Limit, filter.Offset())
	query := `SELECT ` + patientColumns + ` FROM patients` + w.String() + ` ORDER BY created_at DESC` + limit

	patients := []*model.Patient{}
	if err := r.db.SelectContext(ctx, &patients, query, args...); err != nil {
		return nil, 0, translate(err, "Patient", "list patients")
	}
	return patients, total, nil
}
