package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository"
)

var _ repository.MedicalRecordRepository = (*medicalRecordRepository)(nil)

type medicalRecordRepository struct {
	BaseRepository
}

const medicalRecordColumns = `id, patient_id, doctor_id, appointment_id, visit_date,
	chief_complaint, diagnosis, symptoms, vital_signs, prescriptions, notes,
	follow_up_date, created_at, updated_at`

func (r *medicalRecordRepository) Create(ctx context.Context, record *model.MedicalRecord) error {
	query := `
		INSERT INTO medical_records (
			id, patient_id, doctor_id, appointment_id, visit_date,
			chief_complaint, diagnosis, symptoms, vital_signs, prescriptions,
			notes, follow_up_date, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	if record.Symptoms == nil {
		record.Symptoms = pq.StringArray{}
	}
	record.CreatedAt = time.Now().UTC()
	record.UpdatedAt = record.CreatedAt
	if record.VisitDate.IsZero() {
		record.VisitDate = record.CreatedAt
	}

	_, err := r.db.ExecContext(ctx, query,
		record.ID,
		record.PatientID,
		record.DoctorID,
		record.AppointmentID,
		record.VisitDate,
		record.ChiefComplaint,
		record.Diagnosis,
		record.Symptoms,
		record.VitalSigns,
		record.Prescriptions,
		record.Notes,
		record.FollowUpDate,
		record.CreatedAt,
		record.UpdatedAt,
	)
	if err != nil {
		return translate(err, "Medical record", "create medical record")
	}
	return nil
}

func (r *medicalRecordRepository) Get(ctx context.Context, id uuid.UUID) (*model.MedicalRecord, error) {
	query := `SELECT ` + medicalRecordColumns + ` FROM medical_records WHERE id = $1`
	var record model.MedicalRecord
	if err := r.db.GetContext(ctx, &record, query, id); err != nil {
		return nil, translate(err, "Medical record", "get medical record")
	}
	return &record, nil
}

// Update rewrites the clinical fields. Patient and author are never changed.
func (r *medicalRecordRepository) Update(ctx context.Context, record *model.MedicalRecord) error {
	query := `
		UPDATE medical_records
		SET chief_complaint = $1, diagnosis = $2, symptoms = $3, vital_signs = $4,
			prescriptions = $5, notes = $6, follow_up_date = $7, updated_at = $8
		WHERE id = $9
	`
	if record.Symptoms == nil {
		record.Symptoms = pq.StringArray{}
	}
	record.UpdatedAt = time.Now().UTC()

	result, err := r.db.ExecContext(ctx, query,
		record.ChiefComplaint,
		record.Diagnosis,
		record.Symptoms,
		record.VitalSigns,
		record.Prescriptions,
		record.Notes,
		record.FollowUpDate,
		record.UpdatedAt,
		record.ID,
	)
	if err != nil {
		return translate(err, "Medical record", "update medical record")
	}
	return expectAffected(result, "Medical record")
}

func (r *medicalRecordRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM medical_records WHERE id = $1`, id)
	if err != nil {
		return translate(err, "Medical record", "delete medical record")
	}
	return expectAffected(result, "Medical record")
}

func (r *medicalRecordRepository) List(ctx context.Context, filter model.MedicalRecordFilter) ([]*model.MedicalRecord, int, error) {
	var w where
	if filter.PatientID != nil {
		w.add("patient_id = ?", *filter.PatientID)
	}
	if filter.DoctorID != nil {
		w.add("doctor_id = ?", *filter.DoctorID)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM medical_records`+w.String(), w.args...); err != nil {
		return nil, 0, translate(err, "Medical record", "count medical records")
	}

	limit, args := w.page(filter.Limit, filter.Offset())
	query := `SELECT ` + medicalRecordColumns + ` FROM medical_records` + w.String() +
		` ORDER BY visit_date DESC, created_at DESC` + limit

	records := []*model.MedicalRecord{}
	if err := r.db.SelectContext(ctx, &records, query, args...); err != nil {
		return nil, 0, translate(err, "Medical record", "list medical records")
	}
	return records, total, nil
}

func (r *medicalRecordRepository) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*model.MedicalRecord, error) {
	query := `SELECT ` + medicalRecordColumns + ` FROM medical_records
		WHERE patient_id = $1 ORDER BY visit_date DESC, created_at DESC`

	records := []*model.MedicalRecord{}
	if err := r.db.SelectContext(ctx, &records, query, patientID); err != nil {
		return nil, translate(err, "Medical record", "list patient history")
	}
	return records, nil
}
