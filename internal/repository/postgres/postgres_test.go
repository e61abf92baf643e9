package postgres

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/clinic-api/internal/model"
	apperrors "github.com/jwalitptl/clinic-api/pkg/errors"
)

func newMock(t *testing.T) (*Repositories, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})
	return NewRepositories(sqlx.NewDb(db, "postgres")), mock
}

var appointmentRowColumns = []string{
	"id", "patient_id", "doctor_id", "appointment_date", "appointment_time",
	"duration", "status", "reason", "notes", "created_by", "created_at", "updated_at",
}

func TestAppointmentCreate(t *testing.T) {
	repos, mock := newMock(t)
	a := &model.Appointment{
		PatientID:       uuid.New(),
		DoctorID:        uuid.New(),
		AppointmentDate: "2025-12-01",
		AppointmentTime: "10:00",
		Duration:        30,
		Status:          model.AppointmentStatusScheduled,
		Reason:          "checkup",
		CreatedBy:       uuid.New(),
	}

	mock.ExpectExec("INSERT INTO appointments").
		WithArgs(sqlmock.AnyArg(), a.PatientID, a.DoctorID, "2025-12-01", "10:00", 30,
			"scheduled", "checkup", "", a.CreatedBy, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repos.Appointments.Create(context.Background(), a))
	assert.NotEqual(t, uuid.Nil, a.ID)
	assert.False(t, a.CreatedAt.IsZero())
}

func TestAppointmentCreateOverlapConstraint(t *testing.T) {
	repos, mock := newMock(t)

	mock.ExpectExec("INSERT INTO appointments").
		WillReturnError(&pq.Error{Code: "23P01", Constraint: "appointments_no_overlap"})

	err := repos.Appointments.Create(context.Background(), &model.Appointment{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrSlotConflict))
	assert.Equal(t, "Doctor is already booked at this time", apperrors.Normalize(err).Message)
}

func TestAppointmentCreateMissingPatient(t *testing.T) {
	repos, mock := newMock(t)

	mock.ExpectExec("INSERT INTO appointments").
		WillReturnError(&pq.Error{Code: "23503", Constraint: "appointments_patient_id_fkey"})

	err := repos.Appointments.Create(context.Background(), &model.Appointment{})
	assert.Equal(t, apperrors.Response{StatusCode: http.StatusNotFound, Message: "Patient not found"}, apperrors.Normalize(err))
}

func TestAppointmentGet(t *testing.T) {
	repos, mock := newMock(t)
	id := uuid.New()
	now := time.Now()

	mock.ExpectQuery("SELECT (.+) FROM appointments WHERE id = \\$1").
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows(appointmentRowColumns).
			AddRow(id.String(), uuid.NewString(), uuid.NewString(), "2025-12-01", "10:00",
				30, "scheduled", "checkup", "", uuid.NewString(), now, now))

	got, err := repos.Appointments.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, id, got.ID)
	assert.Equal(t, "2025-12-01", got.AppointmentDate)
	assert.Equal(t, "10:00", got.AppointmentTime)
	assert.Equal(t, model.AppointmentStatusScheduled, got.Status)
}

func TestAppointmentGetNotFound(t *testing.T) {
	repos, mock := newMock(t)

	mock.ExpectQuery("SELECT (.+) FROM appointments").
		WillReturnRows(sqlmock.NewRows(appointmentRowColumns))

	_, err := repos.Appointments.Get(context.Background(), uuid.New())
	assert.Equal(t, "Appointment not found", apperrors.Normalize(err).Message)
}

func TestAppointmentUpdateNoRows(t *testing.T) {
	repos, mock := newMock(t)

	mock.ExpectExec("UPDATE appointments").WillReturnResult(sqlmock.NewResult(0, 0))

	err := repos.Appointments.Update(context.Background(), &model.Appointment{})
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

func TestAppointmentListFilters(t *testing.T) {
	repos, mock := newMock(t)
	doctor := uuid.New()

	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM appointments WHERE doctor_id = \\$1 AND status = \\$2").
		WithArgs(doctor, model.AppointmentStatusScheduled).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(11))
	mock.ExpectQuery("FROM appointments WHERE doctor_id = \\$1 AND status = \\$2 ORDER BY (.+) LIMIT \\$3 OFFSET \\$4").
		WithArgs(doctor, model.AppointmentStatusScheduled, 10, 10).
		WillReturnRows(sqlmock.NewRows(appointmentRowColumns).
			AddRow(uuid.NewString(), uuid.NewString(), doctor.String(), "2025-12-01", "10:00",
				30, "scheduled", "checkup", "", uuid.NewString(), time.Now(), time.Now()))

	list, total, err := repos.Appointments.List(context.Background(), model.AppointmentFilter{
		DoctorID:   &doctor,
		Status:     model.AppointmentStatusScheduled,
		ListParams: model.NewListParams(2, 10),
	})
	require.NoError(t, err)
	assert.Equal(t, 11, total)
	assert.Len(t, list, 1)
}

func TestDoctorCreateDuplicate(t *testing.T) {
	tests := []struct {
		constraint string
		message    string
	}{
		{"doctors_email_key", "email already exists"},
		{"doctors_license_number_key", "licenseNumber already exists"},
	}

	for _, tt := range tests {
		t.Run(tt.constraint, func(t *testing.T) {
			repos, mock := newMock(t)
			mock.ExpectExec("INSERT INTO doctors").
				WillReturnError(&pq.Error{Code: "23505", Constraint: tt.constraint})

			err := repos.Doctors.Create(context.Background(), &model.Doctor{})
			resp := apperrors.Normalize(err)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			assert.Equal(t, tt.message, resp.Message)
		})
	}
}

func TestPatientDeleteReferenced(t *testing.T) {
	repos, mock := newMock(t)

	mock.ExpectExec("DELETE FROM patients").
		WillReturnError(&pq.Error{Code: "23503", Constraint: "appointments_patient_id_fkey"})

	err := repos.Patients.Delete(context.Background(), uuid.New())
	resp := apperrors.Normalize(err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, resp.Message, "cannot be deleted")
}

func TestPatientListSearch(t *testing.T) {
	repos, mock := newMock(t)

	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM patients WHERE \\(first_name ILIKE \\$1 OR last_name ILIKE \\$1").
		WithArgs("%doe%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery("FROM patients WHERE (.+) LIMIT \\$2 OFFSET \\$3").
		WithArgs("%doe%", 10, 0).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	list, total, err := repos.Patients.List(context.Background(), model.PatientFilter{
		Search:     "doe",
		ListParams: model.NewListParams(1, 10),
	})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.NotNil(t, list)
	assert.Empty(t, list)
}

func TestMedicalRecordHistoryScan(t *testing.T) {
	repos, mock := newMock(t)
	patient := uuid.New()
	visit := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

	columns := []string{
		"id", "patient_id", "doctor_id", "appointment_id", "visit_date",
		"chief_complaint", "diagnosis", "symptoms", "vital_signs", "prescriptions",
		"notes", "follow_up_date", "created_at", "updated_at",
	}
	mock.ExpectQuery("FROM medical_records\\s+WHERE patient_id = \\$1 ORDER BY visit_date DESC").
		WithArgs(patient).
		WillReturnRows(sqlmock.NewRows(columns).AddRow(
			uuid.NewString(), patient.String(), uuid.NewString(), nil, visit,
			"cough", "flu", []byte(`{cough,fever}`), []byte(`{"heartRate":72}`),
			[]byte(`[{"medication":"paracetamol","dosage":"500mg"}]`),
			"", nil, visit, visit,
		))

	records, err := repos.MedicalRecords.ListByPatient(context.Background(), patient)
	require.NoError(t, err)
	require.Len(t, records, 1)

	r := records[0]
	assert.Nil(t, r.AppointmentID)
	assert.Equal(t, []string{"cough", "fever"}, []string(r.Symptoms))
	require.NotNil(t, r.VitalSigns.HeartRate)
	assert.Equal(t, 72, *r.VitalSigns.HeartRate)
	require.Len(t, r.Prescriptions, 1)
	assert.Equal(t, "paracetamol", r.Prescriptions[0].Medication)
}

func TestTranslateMalformedID(t *testing.T) {
	err := translate(&pq.Error{Code: "22P02"}, "Appointment", "get appointment")
	assert.Equal(t, apperrors.Response{StatusCode: http.StatusNotFound, Message: "Resource not found"}, apperrors.Normalize(err))
}

func TestTranslateUnknownWraps(t *testing.T) {
	cause := errors.New("connection reset")
	err := translate(cause, "Appointment", "list appointments")
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "failed to list appointments: connection reset", err.Error())
}

func TestWithTxRollsBackOnError(t *testing.T) {
	repos, mock := newMock(t)
	boom := errors.New("boom")

	mock.ExpectBegin()
	mock.ExpectRollback()

	err := repos.WithTx(context.Background(), func(tx *sqlx.Tx) error { return boom })
	assert.ErrorIs(t, err, boom)
}
