package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository"
)

var _ repository.AppointmentRepository = (*appointmentRepository)(nil)

type appointmentRepository struct {
	BaseRepository
}

// DATE and TIME columns are rendered as text so they round-trip unchanged.
const appointmentColumns = `id, patient_id, doctor_id,
	to_char(appointment_date, 'YYYY-MM-DD') AS appointment_date,
	to_char(appointment_time, 'HH24:MI') AS appointment_time,
	duration, status, reason, notes, created_by, created_at, updated_at`

func (r *appointmentRepository) Create(ctx context.Context, appointment *model.Appointment) error {
	query := `
		INSERT INTO appointments (
			id, patient_id, doctor_id, appointment_date, appointment_time,
			duration, status, reason, notes, created_by, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	if appointment.ID == uuid.Nil {
		appointment.ID = uuid.New()
	}
	appointment.CreatedAt = time.Now().UTC()
	appointment.UpdatedAt = appointment.CreatedAt

	_, err := r.db.ExecContext(ctx, query,
		appointment.ID,
		appointment.PatientID,
		appointment.DoctorID,
		appointment.AppointmentDate,
		appointment.AppointmentTime,
		appointment.Duration,
		appointment.Status,
		appointment.Reason,
		appointment.Notes,
		appointment.CreatedBy,
		appointment.CreatedAt,
		appointment.UpdatedAt,
	)
	if err != nil {
		return translate(err, "Appointment", "create appointment")
	}
	return nil
}

func (r *appointmentRepository) Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments WHERE id = $1`
	var appointment model.Appointment
	if err := r.db.GetContext(ctx, &appointment, query, id); err != nil {
		return nil, translate(err, "Appointment", "get appointment")
	}
	return &appointment, nil
}

func (r *appointmentRepository) Update(ctx context.Context, appointment *model.Appointment) error {
	query := `
		UPDATE appointments
		SET appointment_date = $1, appointment_time = $2, duration = $3,
			status = $4, reason = $5, notes = $6, updated_at = $7
		WHERE id = $8
	`
	appointment.UpdatedAt = time.Now().UTC()

	result, err := r.db.ExecContext(ctx, query,
		appointment.AppointmentDate,
		appointment.AppointmentTime,
		appointment.Duration,
		appointment.Status,
		appointment.Reason,
		appointment.Notes,
		appointment.UpdatedAt,
		appointment.ID,
	)
	if err != nil {
		return translate(err, "Appointment", "update appointment")
	}
	return expectAffected(result, "Appointment")
}

func (r *appointmentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM appointments WHERE id = $1`, id)
	if err != nil {
		return translate(err, "Appointment", "delete appointment")
	}
	return expectAffected(result, "Appointment")
}

func (r *appointmentRepository) List(ctx context.Context, filter model.AppointmentFilter) ([]*model.Appointment, int, error) {
	var w where
	if filter.PatientID != nil {
		w.add("patient_id = ?", *filter.PatientID)
	}
	if filter.DoctorID != nil {
		w.add("doctor_id = ?", *filter.DoctorID)
	}
	if filter.Date != "" {
		w.add("appointment_date = ?", filter.Date)
	}
	if filter.Status != "" {
		w.add("status = ?", filter.Status)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM appointments`+w.String(), w.args...); err != nil {
		return nil, 0, translate(err, "Appointment", "count appointments")
	}

	limit, args := w.page(filter.Limit, filter.Offset())
	query := `SELECT ` + appointmentColumns + ` FROM appointments` + w.String() +
		` ORDER BY appointment_date, appointment_time, created_at` + limit

	appointments := []*model.Appointment{}
	if err := r.db.SelectContext(ctx, &appointments, query, args...); err != nil {
		return nil, 0, translate(err, "Appointment", "list appointments")
	}
	return appointments, total, nil
}

func (r *appointmentRepository) ListByDoctor(ctx context.Context, doctorID uuid.UUID, date string) ([]*model.Appointment, error) {
	var w where
	w.add("doctor_id = ?", doctorID)
	if date != "" {
		w.add("appointment_date = ?", date)
	}

	query := `SELECT ` + appointmentColumns + ` FROM appointments` + w.String() +
		` ORDER BY appointment_date, appointment_time, created_at`

	appointments := []*model.Appointment{}
	if err := r.db.SelectContext(ctx, &appointments, query, w.args...); err != nil {
		return nil, translate(err, "Appointment", "list doctor appointments")
	}
	return appointments, nil
}
