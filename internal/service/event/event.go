package event

import (
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-api/internal/model"
)

// Topics published by the API.
const (
	TopicAppointmentBooked    = "appointment.booked"
	TopicAppointmentUpdated   = "appointment.updated"
	TopicAppointmentDeleted   = "appointment.deleted"
	TopicMedicalRecordCreated = "medical_record.created"
	TopicMedicalRecordUpdated = "medical_record.updated"
	TopicMedicalRecordDeleted = "medical_record.deleted"
)

// AppointmentPayload describes an appointment after a change.
type AppointmentPayload struct {
	ID              uuid.UUID               `json:"id"`
	Patient         uuid.UUID               `json:"patient"`
	Doctor          uuid.UUID               `json:"doctor"`
	AppointmentDate string                  `json:"appointmentDate"`
	AppointmentTime string                  `json:"appointmentTime"`
	Duration        int                     `json:"duration"`
	Status          model.AppointmentStatus `json:"status"`
	PreviousStatus  model.AppointmentStatus `json:"previousStatus,omitempty"`
	Rescheduled     bool                    `json:"rescheduled,omitempty"`
}

func NewAppointmentPayload(a *model.Appointment) AppointmentPayload {
	return AppointmentPayload{
		ID:              a.ID,
		Patient:         a.PatientID,
		Doctor:          a.DoctorID,
		AppointmentDate: a.AppointmentDate,
		AppointmentTime: a.AppointmentTime,
		Duration:        a.Duration,
		Status:          a.Status,
	}
}

// RecordPayload identifies a medical record. Clinical content never leaves
// the database.
type RecordPayload struct {
	ID          uuid.UUID  `json:"id"`
	Patient     uuid.UUID  `json:"patient"`
	Doctor      uuid.UUID  `json:"doctor"`
	Appointment *uuid.UUID `json:"appointment,omitempty"`
	VisitDate   time.Time  `json:"visitDate"`
}

func NewRecordPayload(r *model.MedicalRecord) RecordPayload {
	return RecordPayload{
		ID:          r.ID,
		Patient:     r.PatientID,
		Doctor:      r.DoctorID,
		Appointment: r.AppointmentID,
		VisitDate:   r.VisitDate,
	}
}

// DeletedPayload is published when an entity is removed.
type DeletedPayload struct {
	ID uuid.UUID `json:"id"`
}
