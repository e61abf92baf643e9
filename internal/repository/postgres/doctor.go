package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository"
)

var _ repository.DoctorRepository = (*doctorRepository)(nil)

type doctorRepository struct {
	BaseRepository
}

const doctorColumns = `id, name, email, password_hash, specialization, license_number,
	phone, role, is_active, created_at, updated_at`

func (r *doctorRepository) Create(ctx context.Context, doctor *model.Doctor) error {
	query := `
		INSERT INTO doctors (
			id, name, email, password_hash, specialization, license_number,
			phone, role, is_active, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	if doctor.ID == uuid.Nil {
		doctor.ID = uuid.New()
	}
	doctor.CreatedAt = time.Now().UTC()
	doctor.UpdatedAt = doctor.CreatedAt

	_, err := r.db.ExecContext(ctx, query,
		doctor.ID,
		doctor.Name,
		doctor.Email,
		doctor.PasswordHash,
		doctor.Specialization,
		doctor.LicenseNumber,
		doctor.Phone,
		doctor.Role,
		doctor.IsActive,
		doctor.CreatedAt,
		doctor.UpdatedAt,
	)
	if err != nil {
		return translate(err, "Doctor", "create doctor")
	}
	return nil
}

func (r *doctorRepository) Get(ctx context.Context, id uuid.UUID) (*model.Doctor, error) {
	query := `SELECT ` + doctorColumns + ` FROM doctors WHERE id = $1`
	var doctor model.Doctor
	if err := r.db.GetContext(ctx, &doctor, query, id); err != nil {
		return nil, translate(err, "Doctor", "get doctor")
	}
	return &doctor, nil
}

func (r *doctorRepository) GetByEmail(ctx context.Context, email string) (*model.Doctor, error) {
	query := `SELECT ` + doctorColumns + ` FROM doctors WHERE lower(email) = lower($1)`
	var doctor model.Doctor
	if err := r.db.GetContext(ctx, &doctor, query, email); err != nil {
		return nil, translate(err, "Doctor", "get doctor by email")
	}
	return &doctor, nil
}

func (r *doctorRepository) List(ctx context.Context, params model.ListParams) ([]*model.Doctor, int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM doctors`); err != nil {
		return nil, 0, translate(err, "Doctor", "count doctors")
	}

	query := `SELECT ` + doctorColumns + ` FROM doctors ORDER BY created_at DESC LIMIT $1 OFFSET $2`
	doctors := []*model.Doctor{}
	if err := r.db.SelectContext(ctx, &doctors, query, params.Limit, params.Offset()); err != nil {
		return nil, 0, translate(err, "Doctor", "list doctors")
	}
	return doctors, total, nil
}

func (r *doctorRepository) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	query := `UPDATE doctors SET is_active = $1, updated_at = NOW() WHERE id = $2`
	result, err := r.db.ExecContext(ctx, query, active, id)
	if err != nil {
		return translate(err, "Doctor", "update doctor status")
	}
	return expectAffected(result, "Doctor")
}
