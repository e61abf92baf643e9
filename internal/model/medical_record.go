package model

import (
	"database/sql/driver"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

type VitalSigns struct {
	Temperature      *float64 `json:"temperature,omitempty" validate:"omitnil,gte=25,lte=45"`
	BloodPressure    string   `json:"bloodPressure,omitempty" validate:"omitempty,max=20"`
	HeartRate        *int     `json:"heartRate,omitempty" validate:"omitnil,gte=0,lte=300"`
	RespiratoryRate  *int     `json:"respiratoryRate,omitempty" validate:"omitnil,gte=0,lte=100"`
	OxygenSaturation *float64 `json:"oxygenSaturation,omitempty" validate:"omitnil,gte=0,lte=100"`
	Weight           *float64 `json:"weight,omitempty" validate:"omitnil,gt=0"`
	Height           *float64 `json:"height,omitempty" validate:"omitnil,gt=0"`
}

func (v VitalSigns) Value() (driver.Value, error) { return jsonValue(v) }

func (v *VitalSigns) Scan(src interface{}) error { return scanJSON(src, v) }

type Prescription struct {
	Medication string `json:"medication" validate:"required,max=200"`
	Dosage     string `json:"dosage,omitempty" validate:"max=100"`
	Frequency  string `json:"frequency,omitempty" validate:"max=100"`
	Duration   string `json:"duration,omitempty" validate:"max=100"`
}

type Prescriptions []Prescription

func (p Prescriptions) Value() (driver.Value, error) {
	if p == nil {
		p = Prescriptions{}
	}
	return jsonValue([]Prescription(p))
}

func (p *Prescriptions) Scan(src interface{}) error { return scanJSON(src, p) }

type MedicalRecord struct {
	Base
	PatientID      uuid.UUID      `json:"patient" db:"patient_id"`
	DoctorID       uuid.UUID      `json:"doctor" db:"doctor_id"`
	AppointmentID  *uuid.UUID     `json:"appointment,omitempty" db:"appointment_id"`
	VisitDate      time.Time      `json:"visitDate" db:"visit_date"`
	ChiefComplaint string         `json:"chiefComplaint" db:"chief_complaint"`
	Diagnosis      string         `json:"diagnosis" db:"diagnosis"`
	Symptoms       pq.StringArray `json:"symptoms" db:"symptoms"`
	VitalSigns     VitalSigns     `json:"vitalSigns" db:"vital_signs"`
	Prescriptions  Prescriptions  `json:"prescriptions" db:"prescriptions"`
	Notes          string         `json:"notes" db:"notes"`
	FollowUpDate   *time.Time     `json:"followUpDate,omitempty" db:"follow_up_date"`
}

type CreateMedicalRecordRequest struct {
	Patient        string         `json:"patient" validate:"required,uuid"`
	Appointment    string         `json:"appointment" validate:"omitempty,uuid"`
	VisitDate      *time.Time     `json:"visitDate"`
	ChiefComplaint string         `json:"chiefComplaint" validate:"required,max=500"`
	Diagnosis      string         `json:"diagnosis" validate:"required,max=1000"`
	Symptoms       []string       `json:"symptoms" validate:"omitempty,dive,max=200"`
	VitalSigns     *VitalSigns    `json:"vitalSigns"`
	Prescriptions  []Prescription `json:"prescriptions" validate:"omitempty,dive"`
	Notes          string         `json:"notes" validate:"max=5000"`
	FollowUpDate   *time.Time     `json:"followUpDate"`
}

type UpdateMedicalRecordRequest struct {
	ChiefComplaint *string        `json:"chiefComplaint" validate:"omitnil,required,max=500"`
	Diagnosis      *string        `json:"diagnosis" validate:"omitnil,required,max=1000"`
	Symptoms       []string       `json:"symptoms" validate:"omitempty,dive,max=200"`
	VitalSigns     *VitalSigns    `json:"vitalSigns"`
	Prescriptions  []Prescription `json:"prescriptions" validate:"omitempty,dive"`
	Notes          *string        `json:"notes" validate:"omitnil,max=5000"`
	FollowUpDate   *time.Time     `json:"followUpDate"`
}

type MedicalRecordFilter struct {
	PatientID *uuid.UUID
	DoctorID  *uuid.UUID
	ListParams
}

// PatientHistory is a patient's records, newest visit first.
type PatientHistory struct {
	Patient PatientSummary   `json:"patient"`
	Records []*MedicalRecord `json:"records"`
}
