package model

import (
	"database/sql/driver"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
	GenderOther  Gender = "other"
)

type Address struct {
	Street  string `json:"street,omitempty" validate:"omitempty,max=200"`
	City    string `json:"city,omitempty" validate:"omitempty,max=100"`
	State   string `json:"state,omitempty" validate:"omitempty,max=100"`
	ZipCode string `json:"zipCode,omitempty" validate:"omitempty,max=20"`
	Country string `json:"country,omitempty" validate:"omitempty,max=100"`
}

func (a Address) Value() (driver.Value, error) { return jsonValue(a) }

func (a *Address) Scan(src interface{}) error { return scanJSON(src, a) }

type EmergencyContact struct {
	Name         string `json:"name" validate:"omitempty,max=100"`
	Relationship string `json:"relationship,omitempty" validate:"omitempty,max=50"`
	Phone        string `json:"phone" validate:"omitempty,e164"`
}

func (e EmergencyContact) Value() (driver.Value, error) { return jsonValue(e) }

func (e *EmergencyContact) Scan(src interface{}) error { return scanJSON(src, e) }

type Patient struct {
	Base
	FirstName        string            `json:"firstName" db:"first_name"`
	LastName         string            `json:"lastName" db:"last_name"`
	DateOfBirth      string            `json:"dateOfBirth" db:"date_of_birth"`
	Gender           Gender            `json:"gender" db:"gender"`
	Phone            string            `json:"phone" db:"phone"`
	Email            string            `json:"email,omitempty" db:"email"`
	BloodGroup       string            `json:"bloodGroup" db:"blood_group"`
	Address          *Address          `json:"address,omitempty" db:"address"`
	EmergencyContact *EmergencyContact `json:"emergencyContact,omitempty" db:"emergency_contact"`
	Allergies        pq.StringArray    `json:"allergies" db:"allergies"`
	RegisteredBy     uuid.UUID         `json:"registeredBy" db:"registered_by"`
}

func (p *Patient) FullName() string {
	return p.FirstName + " " + p.LastName
}

// PatientSummary is the patient header returned with a medical history.
type PatientSummary struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	DateOfBirth string    `json:"dateOfBirth"`
	Gender      Gender    `json:"gender"`
	BloodGroup  string    `json:"bloodGroup"`
}

func (p *Patient) Summary() PatientSummary {
	return PatientSummary{
		ID:          p.ID,
		Name:        p.FullName(),
		DateOfBirth: p.DateOfBirth,
		Gender:      p.Gender,
		BloodGroup:  p.BloodGroup,
	}
}

type CreatePatientRequest struct {
	FirstName        string            `json:"firstName" validate:"required,max=50"`
	LastName         string            `json:"lastName" validate:"required,max=50"`
	DateOfBirth      string            `json:"dateOfBirth" validate:"required,datetime=2006-01-02"`
	Gender           Gender            `json:"gender" validate:"required,oneof=male female other"`
	Phone            string            `json:"phone" validate:"required,e164"`
	Email            string            `json:"email" validate:"omitempty,email"`
	BloodGroup       string            `json:"bloodGroup" validate:"omitempty,oneof=A+ A- B+ B- AB+ AB- O+ O-"`
	Address          *Address          `json:"address"`
	EmergencyContact *EmergencyContact `json:"emergencyContact"`
	Allergies        []string          `json:"allergies" validate:"omitempty,dive,max=100"`
}

type UpdatePatientRequest struct {
	FirstName        *string           `json:"firstName" validate:"omitnil,required,max=50"`
	LastName         *string           `json:"lastName" validate:"omitnil,required,max=50"`
	DateOfBirth      *string           `json:"dateOfBirth" validate:"omitnil,required,datetime=2006-01-02"`
	Gender           *Gender           `json:"gender" validate:"omitnil,required,oneof=male female other"`
	Phone            *string           `json:"phone" validate:"omitnil,required,e164"`
	Email            *string           `json:"email" validate:"omitempty,email"`
	BloodGroup       *string           `json:"bloodGroup" validate:"omitempty,oneof=A+ A- B+ B- AB+ AB- O+ O-"`
	Address          *Address          `json:"address"`
	EmergencyContact *EmergencyContact `json:"emergencyContact"`
	Allergies        []string          `json:"allergies" validate:"omitempty,dive,max=100"`
}

type PatientFilter struct {
	Search string
	ListParams
}
