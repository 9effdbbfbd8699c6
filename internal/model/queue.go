package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type QueueStatus string

const (
	QueueStatusWaiting    QueueStatus = "waiting"
	QueueStatusInProgress QueueStatus = "in-progress"
	QueueStatusCompleted  QueueStatus = "completed"
)

// ParseQueueStatus normalizes user input; only the two transition targets are
// accepted here, entries are created as waiting internally. The underscored
// spelling is accepted as input but in-progress is the canonical token.
func ParseQueueStatus(s string) (QueueStatus, bool) {
	switch strings.ToLower(strings.ReplaceAll(s, "_", "-")) {
	case "in-progress":
		return QueueStatusInProgress, true
	case "completed":
		return QueueStatusCompleted, true
	}
	return "", false
}

// QueueEntry is a patient's place in a doctor's live waiting list. Positions
// among waiting entries for a doctor are dense, 1..N. Entries are never
// deleted; completed ones stay as history.
type QueueEntry struct {
	ID            uuid.UUID   `db:"id" json:"id"`
	DoctorID      uuid.UUID   `db:"doctor_id" json:"doctor_id"`
	PatientID     uuid.UUID   `db:"patient_id" json:"patient_id"`
	Position      int         `db:"position" json:"position"`
	Status        QueueStatus `db:"status" json:"status"`
	EstimatedTime time.Time   `db:"estimated_time" json:"estimated_time"`
	CreatedAt     time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time   `db:"updated_at" json:"updated_at"`

	// Joined display fields
	PatientName   string `db:"patient_name" json:"patient_name,omitempty"`
	PatientAvatar string `db:"patient_avatar" json:"patient_avatar,omitempty"`
	DoctorName    string `db:"doctor_name" json:"doctor_name,omitempty"`
}

type JoinQueueRequest struct {
	DoctorID string `json:"doctor_id" binding:"required,uuid"`
}

type UpdateQueueStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// QueueView is the reduced per-entry shape returned for a doctor's live queue.
type QueueView struct {
	Position      int         `json:"position"`
	Status        QueueStatus `json:"status"`
	EstimatedTime time.Time   `json:"estimated_time"`
	PatientName   string      `json:"patient_name"`
	PatientAvatar string      `json:"patient_avatar,omitempty"`
}

// MyQueueStatus is the patient-facing view; InQueue false is the "not in
// queue" sentinel, a valid result rather than an error.
type MyQueueStatus struct {
	InQueue bool        `json:"in_queue"`
	Entry   *QueueEntry `json:"entry,omitempty"`
	Message string      `json:"message,omitempty"`
}
