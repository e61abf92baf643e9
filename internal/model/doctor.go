package model

import "github.com/google/uuid"

type Role string

const (
	RoleDoctor Role = "doctor"
	RoleAdmin  Role = "admin"
)

// Doctor is a practitioner account. It is also the authenticated principal.
type Doctor struct {
	Base
	Name           string `json:"name" db:"name"`
	Email          string `json:"email" db:"email"`
	PasswordHash   string `json:"-" db:"password_hash"`
	Specialization string `json:"specialization" db:"specialization"`
	LicenseNumber  string `json:"licenseNumber" db:"license_number"`
	Phone          string `json:"phone" db:"phone"`
	Role           Role   `json:"role" db:"role"`
	IsActive       bool   `json:"isActive" db:"is_active"`
}

// DoctorSummary is the public view of a doctor embedded in schedules.
type DoctorSummary struct {
	ID             uuid.UUID `json:"id"`
	Name           string    `json:"name"`
	Specialization string    `json:"specialization"`
}

func (d *Doctor) Summary() DoctorSummary {
	return DoctorSummary{
		ID:             d.ID,
		Name:           d.Name,
		Specialization: d.Specialization,
	}
}

type RegisterRequest struct {
	Name           string `json:"name" validate:"required,max=100"`
	Email          string `json:"email" validate:"required,email"`
	Password       string `json:"password" validate:"required,min=8,max=72"`
	Specialization string `json:"specialization" validate:"required,max=100"`
	LicenseNumber  string `json:"licenseNumber" validate:"required,max=50"`
	Phone          string `json:"phone" validate:"required,e164"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}
