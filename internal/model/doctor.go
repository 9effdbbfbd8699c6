package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type VerificationStatus string

const (
	VerificationPending  VerificationStatus = "pending"
	VerificationApproved VerificationStatus = "approved"
	VerificationRejected VerificationStatus = "rejected"
)

// TimeRange is a start/end pair in "15:04" wall-clock form.
type TimeRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// Availability maps a lowercase weekday name to the ranges a doctor consults in.
// Stored as JSONB.
type Availability map[string][]TimeRange

func (a Availability) Value() (driver.Value, error) {
	if a == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(a)
}

func (a *Availability) Scan(src interface{}) error {
	if src == nil {
		*a = Availability{}
		return nil
	}
	b, ok := src.([]byte)
	if !ok {
		return fmt.Errorf("unsupported availability type %T", src)
	}
	return json.Unmarshal(b, a)
}

type Doctor struct {
	ID             uuid.UUID          `db:"id" json:"id"`
	UserID         uuid.UUID          `db:"user_id" json:"user_id"`
	Specialization string             `db:"specialization" json:"specialization"`
	ExperienceYrs  int                `db:"experience_years" json:"experience_years"`
	LicenseNumber  string             `db:"license_number" json:"license_number"`
	Verification   VerificationStatus `db:"verification_status" json:"verification_status"`
	Availability   Availability       `db:"availability" json:"availability"`
	AvatarURL      string             `db:"avatar_url" json:"avatar_url,omitempty"`
	CreatedAt      time.Time          `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time          `db:"updated_at" json:"updated_at"`

	// Joined display field, populated on reads that resolve the user reference.
	Name string `db:"name" json:"name,omitempty"`
}

type CreateDoctorRequest struct {
	Specialization string       `json:"specialization" binding:"required,max=120"`
	ExperienceYrs  int          `json:"experience_years" binding:"gte=0,lte=80"`
	LicenseNumber  string       `json:"license_number" binding:"required,max=60"`
	Availability   Availability `json:"availability"`
}

type UpdateAvailabilityRequest struct {
	Availability Availability `json:"availability" binding:"required"`
}

type VerifyDoctorRequest struct {
	Status VerificationStatus `json:"status" binding:"required,oneof=approved rejected"`
}

type DoctorFilters struct {
	Specialization string
	Page           int
	Limit          int
}
