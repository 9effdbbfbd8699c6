package queue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mediqueue/clinic-api/internal/model"
	"github.com/mediqueue/clinic-api/internal/repository"
	"github.com/mediqueue/clinic-api/internal/service/authz"
	apperrors "github.com/mediqueue/clinic-api/pkg/errors"
)

// ServiceTime is the fixed per-patient consultation estimate used to derive
// the wait projection at join time. It is never re-evaluated afterwards.
const ServiceTime = 15 * time.Minute

type Service struct {
	queueRepo   repository.QueueRepository
	doctorRepo  repository.DoctorRepository
	patientRepo repository.PatientRepository
	authz       *authz.Service
}

func NewService(
	queueRepo repository.QueueRepository,
	doctorRepo repository.DoctorRepository,
	patientRepo repository.PatientRepository,
	authzSvc *authz.Service,
) *Service {
	return &Service{
		queueRepo:   queueRepo,
		doctorRepo:  doctorRepo,
		patientRepo: patientRepo,
		authz:       authzSvc,
	}
}

// Join places the actor's patient at the tail of the doctor's waiting list.
// The patient profile must pre-exist and a patient can hold at most one
// non-completed entry per doctor.
func (s *Service) Join(ctx context.Context, doctorID uuid.UUID, actor model.Actor) (*model.QueueEntry, error) {
	patient, err := s.patientRepo.GetByUserID(ctx, actor.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("patient profile")
		}
		return nil, apperrors.Internal(err)
	}

	doctor, err := s.doctorRepo.Get(ctx, doctorID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("doctor")
		}
		return nil, apperrors.Internal(err)
	}

	existing, err := s.queueRepo.FindActive(ctx, doctor.ID, patient.ID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.Internal(err)
	}
	if existing != nil {
		return nil, apperrors.Conflict(
			fmt.Sprintf("already in this doctor's queue at position %d", existing.Position))
	}

	entry := &model.QueueEntry{
		DoctorID:  doctor.ID,
		PatientID: patient.ID,
	}
	if err := s.queueRepo.AppendWaiting(ctx, entry, ServiceTime); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.Conflict("already in this doctor's queue")
		}
		return nil, apperrors.Internal(err)
	}

	joined, err := s.queueRepo.GetJoined(ctx, entry.ID)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return joined, nil
}

// UpdateStatus moves an entry to in-progress or completed. Admins may act on
// any entry; a doctor only on entries of their own queue. Completion compacts
// the positions behind the entry atomically with the status write.
func (s *Service) UpdateStatus(ctx context.Context, entryID uuid.UUID, rawStatus string, actor model.Actor) (*model.QueueEntry, error) {
	status, ok := model.ParseQueueStatus(rawStatus)
	if !ok {
		return nil, apperrors.BadRequest("status must be in-progress or completed")
	}

	entry, err := s.queueRepo.Get(ctx, entryID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("queue entry")
		}
		return nil, apperrors.Internal(err)
	}

	if !s.authz.IsAdmin(actor.Role) {
		owner, err := s.authz.IsOwnerDoctor(ctx, actor.UserID, entry.DoctorID)
		if err != nil {
			return nil, apperrors.Internal(err)
		}
		if !owner {
			return nil, apperrors.Forbidden("not allowed to manage this queue")
		}
	}

	switch status {
	case model.QueueStatusInProgress:
		if entry.Status != model.QueueStatusWaiting {
			return nil, apperrors.BadRequest("cannot start consultation on a patient who is not waiting")
		}
		if err := s.queueRepo.UpdateStatus(ctx, entry.ID, status); err != nil {
			return nil, apperrors.Internal(err)
		}
	case model.QueueStatusCompleted:
		// completion has no prior-state guard but is idempotent: an entry
		// that is already completed must not compact the queue again
		if entry.Status != model.QueueStatusCompleted {
			if err := s.queueRepo.CompleteAndCompact(ctx, entry); err != nil {
				return nil, apperrors.Internal(err)
			}
		}
	}

	joined, err := s.queueRepo.GetJoined(ctx, entry.ID)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return joined, nil
}

// DoctorQueue returns the live queue for a doctor, ascending by position.
// An empty queue is a valid result.
func (s *Service) DoctorQueue(ctx context.Context, doctorID uuid.UUID) ([]*model.QueueView, error) {
	entries, err := s.queueRepo.ListActiveByDoctor(ctx, doctorID)
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	views := make([]*model.QueueView, 0, len(entries))
	for _, e := range entries {
		views = append(views, &model.QueueView{
			Position:      e.Position,
			Status:        e.Status,
			EstimatedTime: e.EstimatedTime,
			PatientName:   e.PatientName,
			PatientAvatar: e.PatientAvatar,
		})
	}
	return views, nil
}

// MyStatus returns the actor's single non-completed entry across all doctors,
// or the "not in queue" sentinel when there is none.
func (s *Service) MyStatus(ctx context.Context, actor model.Actor) (*model.MyQueueStatus, error) {
	patient, err := s.patientRepo.GetByUserID(ctx, actor.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("patient profile")
		}
		return nil, apperrors.Internal(err)
	}

	entry, err := s.queueRepo.FindActiveByPatient(ctx, patient.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return &model.MyQueueStatus{InQueue: false, Message: "not in any queue"}, nil
		}
		return nil, apperrors.Internal(err)
	}
	return &model.MyQueueStatus{InQueue: true, Entry: entry}, nil
}
