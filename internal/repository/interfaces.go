package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/mediqueue/clinic-api/internal/model"
)

// ErrNotFound is returned by all repositories when the requested row is absent.
var ErrNotFound = errors.New("record not found")

// ErrDuplicate is returned when a uniqueness constraint rejects a write.
var ErrDuplicate = errors.New("duplicate record")

type (
	UserRepository interface {
		Create(ctx context.Context, user *model.User) error
		Get(ctx context.Context, id uuid.UUID) (*model.User, error)
		GetByEmail(ctx context.Context, email string) (*model.User, error)
		List(ctx context.Context, page, limit int) ([]*model.User, int64, error)
	}

	DoctorRepository interface {
		Create(ctx context.Context, doctor *model.Doctor) error
		Get(ctx context.Context, id uuid.UUID) (*model.Doctor, error)
		GetByUserID(ctx context.Context, userID uuid.UUID) (*model.Doctor, error)
		UpdateAvailability(ctx context.Context, id uuid.UUID, availability model.Availability) error
		UpdateVerification(ctx context.Context, id uuid.UUID, status model.VerificationStatus) error
		UpdateAvatar(ctx context.Context, id uuid.UUID, url string) error
		ListApproved(ctx context.Context, filters *model.DoctorFilters) ([]*model.Doctor, int64, error)
	}

	PatientRepository interface {
		Create(ctx context.Context, patient *model.Patient) error
		Get(ctx context.Context, id uuid.UUID) (*model.Patient, error)
		GetByUserID(ctx context.Context, userID uuid.UUID) (*model.Patient, error)
		Update(ctx context.Context, patient *model.Patient) error
		UpdateAvatar(ctx context.Context, id uuid.UUID, url string) error
	}

	// QueueRepository persists queue entries. AppendWaiting assigns the next
	// waiting position and the wait estimate (one slot per patient ahead)
	// atomically with the insert, so concurrent joins on the same doctor
	// never share a position; ErrDuplicate reports an existing non-completed
	// entry for the same doctor and patient. CompleteAndCompact runs the
	// status write and the position compaction of the remaining waiting
	// entries in a single transaction and is a no-op for entries that are
	// already completed.
	QueueRepository interface {
		AppendWaiting(ctx context.Context, entry *model.QueueEntry, slot time.Duration) error
		Get(ctx context.Context, id uuid.UUID) (*model.QueueEntry, error)
		GetJoined(ctx context.Context, id uuid.UUID) (*model.QueueEntry, error)
		FindActive(ctx context.Context, doctorID, patientID uuid.UUID) (*model.QueueEntry, error)
		FindActiveByPatient(ctx context.Context, patientID uuid.UUID) (*model.QueueEntry, error)
		ListActiveByDoctor(ctx context.Context, doctorID uuid.UUID) ([]*model.QueueEntry, error)
		UpdateStatus(ctx context.Context, id uuid.UUID, status model.QueueStatus) error
		CompleteAndCompact(ctx context.Context, entry *model.QueueEntry) error
	}

	// AppointmentRepository persists appointments. CreateIfSlotFree performs
	// the conflict check and the insert inside one transaction and reports
	// ErrDuplicate when the slot is already held by an active appointment.
	AppointmentRepository interface {
		CreateIfSlotFree(ctx context.Context, appointment *model.Appointment) error
		Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error)
		GetJoined(ctx context.Context, id uuid.UUID) (*model.Appointment, error)
		List(ctx context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, int64, error)
		UpdateStatus(ctx context.Context, id uuid.UUID, status model.AppointmentStatus) error
	}

	// TokenRepository stores refresh tokens so logout can revoke them.
	TokenRepository interface {
		Save(ctx context.Context, userID uuid.UUID, token string, ttlSeconds int) error
		Valid(ctx context.Context, userID uuid.UUID, token string) (bool, error)
		Revoke(ctx context.Context, userID uuid.UUID) error
	}
)
