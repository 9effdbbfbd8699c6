package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type AppointmentStatus string

const (
	AppointmentStatusPending   AppointmentStatus = "pending"
	AppointmentStatusConfirmed AppointmentStatus = "confirmed"
	AppointmentStatusCompleted AppointmentStatus = "completed"
	AppointmentStatusCancelled AppointmentStatus = "cancelled"
)

// ParseAppointmentStatus accepts the three transition targets, case-insensitive.
func ParseAppointmentStatus(s string) (AppointmentStatus, bool) {
	switch strings.ToLower(s) {
	case "confirmed":
		return AppointmentStatusConfirmed, true
	case "cancelled":
		return AppointmentStatusCancelled, true
	case "completed":
		return AppointmentStatusCompleted, true
	}
	return "", false
}

// ParseAppointmentFilter accepts any of the four statuses for list filtering.
func ParseAppointmentFilter(s string) (AppointmentStatus, bool) {
	switch status := AppointmentStatus(strings.ToLower(s)); status {
	case AppointmentStatusPending, AppointmentStatusConfirmed,
		AppointmentStatusCompleted, AppointmentStatusCancelled:
		return status, true
	}
	return "", false
}

// Terminal reports whether no further transition is allowed from the status.
func (s AppointmentStatus) Terminal() bool {
	return s == AppointmentStatusCompleted || s == AppointmentStatusCancelled
}

const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

// Appointment is a booked slot. Slot identity for conflict purposes is
// (doctor, date, start_time); end_time is informational only.
type Appointment struct {
	ID        uuid.UUID         `db:"id" json:"id"`
	DoctorID  uuid.UUID         `db:"doctor_id" json:"doctor_id"`
	PatientID uuid.UUID         `db:"patient_id" json:"patient_id"`
	Date      string            `db:"date" json:"date"`
	StartTime string            `db:"start_time" json:"start_time"`
	EndTime   string            `db:"end_time" json:"end_time"`
	Status    AppointmentStatus `db:"status" json:"status"`
	CreatedAt time.Time         `db:"created_at" json:"created_at"`
	UpdatedAt time.Time         `db:"updated_at" json:"updated_at"`

	// Joined display fields
	PatientName  string `db:"patient_name" json:"patient_name,omitempty"`
	PatientEmail string `db:"patient_email" json:"patient_email,omitempty"`
	DoctorName   string `db:"doctor_name" json:"doctor_name,omitempty"`
}

type BookAppointmentRequest struct {
	DoctorID  string `json:"doctor_id" binding:"required,uuid"`
	Date      string `json:"date" binding:"required,ymd"`
	StartTime string `json:"start_time" binding:"required,hhmm"`
	EndTime   string `json:"end_time" binding:"required,hhmm"`
}

// ValidateSlot checks the date/time formats after the presence checks.
func (r *BookAppointmentRequest) ValidateSlot() error {
	if _, err := time.Parse(DateLayout, r.Date); err != nil {
		return err
	}
	if _, err := time.Parse(TimeLayout, r.StartTime); err != nil {
		return err
	}
	_, err := time.Parse(TimeLayout, r.EndTime)
	return err
}

type UpdateAppointmentStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

type AppointmentFilters struct {
	DoctorID  uuid.UUID
	PatientID uuid.UUID
	Status    AppointmentStatus
	Page      int
	Limit     int
}

// AppointmentPage is a page of appointments, most recent slot first.
type AppointmentPage struct {
	Docs       []*Appointment `json:"docs"`
	TotalDocs  int64          `json:"totalDocs"`
	Page       int            `json:"page"`
	Limit      int            `json:"limit"`
	TotalPages int            `json:"totalPages"`
	Message    string         `json:"message,omitempty"`
}
