package model

import "github.com/google/uuid"

type AppointmentStatus string

const (
	AppointmentStatusScheduled AppointmentStatus = "scheduled"
	AppointmentStatusConfirmed AppointmentStatus = "confirmed"
	AppointmentStatusCancelled AppointmentStatus = "cancelled"
	AppointmentStatusCompleted AppointmentStatus = "completed"
)

const (
	DefaultAppointmentDuration = 30
	MinAppointmentDuration     = 15
	MaxAppointmentDuration     = 240
)

type Appointment struct {
	Base
	PatientID       uuid.UUID         `json:"patient" db:"patient_id"`
	DoctorID        uuid.UUID         `json:"doctor" db:"doctor_id"`
	AppointmentDate string            `json:"appointmentDate" db:"appointment_date"`
	AppointmentTime string            `json:"appointmentTime" db:"appointment_time"`
	Duration        int               `json:"duration" db:"duration"`
	Status          AppointmentStatus `json:"status" db:"status"`
	Reason          string            `json:"reason" db:"reason"`
	Notes           string            `json:"notes,omitempty" db:"notes"`
	CreatedBy       uuid.UUID         `json:"createdBy" db:"created_by"`
}

type CreateAppointmentRequest struct {
	Patient         string `json:"patient" validate:"required,uuid"`
	Doctor          string `json:"doctor" validate:"required,uuid"`
	AppointmentDate string `json:"appointmentDate" validate:"required,datetime=2006-01-02"`
	AppointmentTime string `json:"appointmentTime" validate:"required,datetime=15:04"`
	Duration        int    `json:"duration" validate:"omitempty,min=15,max=240"`
	Reason          string `json:"reason" validate:"required,max=500"`
	Notes           string `json:"notes" validate:"max=1000"`
	Status          string `json:"status" validate:"omitempty,oneof=scheduled"`
}

type UpdateAppointmentRequest struct {
	AppointmentDate *string            `json:"appointmentDate" validate:"omitnil,required,datetime=2006-01-02"`
	AppointmentTime *string            `json:"appointmentTime" validate:"omitnil,required,datetime=15:04"`
	Duration        *int               `json:"duration" validate:"omitnil,min=15,max=240"`
	Reason          *string            `json:"reason" validate:"omitnil,required,max=500"`
	Notes           *string            `json:"notes" validate:"omitnil,max=1000"`
	Status          *AppointmentStatus `json:"status" validate:"omitnil,oneof=scheduled confirmed completed cancelled"`
}

// Reschedules reports whether the update moves the appointment in time.
func (r *UpdateAppointmentRequest) Reschedules() bool {
	return r.AppointmentDate != nil || r.AppointmentTime != nil || r.Duration != nil
}

type AppointmentFilter struct {
	PatientID *uuid.UUID
	DoctorID  *uuid.UUID
	Date      string
	Status    AppointmentStatus
	ListParams
}

// Schedule is a doctor's ordered appointment list.
type Schedule struct {
	Doctor       DoctorSummary  `json:"doctor"`
	Appointments []*Appointment `json:"appointments"`
}
