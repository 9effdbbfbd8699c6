package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

type Patient struct {
	ID               uuid.UUID      `db:"id" json:"id"`
	UserID           uuid.UUID      `db:"user_id" json:"user_id"`
	DateOfBirth      *time.Time     `db:"date_of_birth" json:"date_of_birth,omitempty"`
	Gender           string         `db:"gender" json:"gender,omitempty"`
	BloodGroup       string         `db:"blood_group" json:"blood_group,omitempty"`
	MedicalHistory   pq.StringArray `db:"medical_history" json:"medical_history"`
	EmergencyContact string         `db:"emergency_contact" json:"emergency_contact,omitempty"`
	AvatarURL        string         `db:"avatar_url" json:"avatar_url,omitempty"`
	CreatedAt        time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time      `db:"updated_at" json:"updated_at"`

	// Joined display field
	Name string `db:"name" json:"name,omitempty"`
}

type CreatePatientRequest struct {
	DateOfBirth      *time.Time `json:"date_of_birth"`
	Gender           string     `json:"gender" binding:"omitempty,oneof=male female other"`
	BloodGroup       string     `json:"blood_group" binding:"omitempty,max=5"`
	MedicalHistory   []string   `json:"medical_history"`
	EmergencyContact string     `json:"emergency_contact" binding:"omitempty,max=120"`
}

type UpdatePatientRequest struct {
	Gender           *string  `json:"gender" binding:"omitempty,oneof=male female other"`
	BloodGroup       *string  `json:"blood_group" binding:"omitempty,max=5"`
	MedicalHistory   []string `json:"medical_history"`
	EmergencyContact *string  `json:"emergency_contact" binding:"omitempty,max=120"`
}
