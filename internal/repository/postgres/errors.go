package postgres

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	apperrors "github.com/jwalitptl/clinic-api/pkg/errors"
)

const slotConstraint = "appointments_no_overlap"

// uniqueFields maps unique constraints to the API field they protect.
var uniqueFields = map[string]string{
	"doctors_email_key":          "email",
	"doctors_license_number_key": "licenseNumber",
}

// foreignEntities maps foreign keys to the entity a failed insert was missing.
var foreignEntities = map[string]string{
	"patients_registered_by_fkey":         "Doctor",
	"appointments_patient_id_fkey":        "Patient",
	"appointments_doctor_id_fkey":         "Doctor",
	"appointments_created_by_fkey":        "Doctor",
	"medical_records_patient_id_fkey":     "Patient",
	"medical_records_doctor_id_fkey":      "Doctor",
	"medical_records_appointment_id_fkey": "Appointment",
}

// translate maps driver errors onto the application taxonomy. Anything it does
// not recognise is wrapped with op.
func translate(err error, entity, op string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return apperrors.NotFound(entity)
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "23P01":
			if pqErr.Constraint == slotConstraint {
				return apperrors.SlotConflict(err)
			}
		case "23505":
			field, ok := uniqueFields[pqErr.Constraint]
			if !ok {
				field = pqErr.Column
			}
			return apperrors.Duplicate(field, err)
		case "22P02":
			return apperrors.MalformedID(err)
		case "23503":
			if missing, ok := foreignEntities[pqErr.Constraint]; ok {
				return apperrors.NotFound(missing)
			}
		}
	}

	return fmt.Errorf("failed to %s: %w", op, err)
}

func isForeignKeyViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23503"
}

func expectAffected(result sql.Result, entity string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return apperrors.NotFound(entity)
	}
	return nil
}
