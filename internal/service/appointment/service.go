package appointment

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/mediqueue/clinic-api/internal/model"
	"github.com/mediqueue/clinic-api/internal/repository"
	"github.com/mediqueue/clinic-api/internal/service/authz"
	"github.com/mediqueue/clinic-api/internal/service/notification"
	apperrors "github.com/mediqueue/clinic-api/pkg/errors"
)

const (
	DefaultPageLimit = 10
	MaxPageLimit     = 100
)

type Service struct {
	repo        repository.AppointmentRepository
	doctorRepo  repository.DoctorRepository
	patientRepo repository.PatientRepository
	authz       *authz.Service
	notifier    notification.Service
}

func NewService(
	repo repository.AppointmentRepository,
	doctorRepo repository.DoctorRepository,
	patientRepo repository.PatientRepository,
	authzSvc *authz.Service,
	notifier notification.Service,
) *Service {
	return &Service{
		repo:        repo,
		doctorRepo:  doctorRepo,
		patientRepo: patientRepo,
		authz:       authzSvc,
		notifier:    notifier,
	}
}

// Book creates a pending appointment for the actor's patient profile. The
// slot conflict rule matches on (doctor, date, startTime) exactly; overlap
// with a different start time is allowed. The conflict check and the insert
// run in one storage transaction.
func (s *Service) Book(ctx context.Context, req *model.BookAppointmentRequest, actor model.Actor) (*model.Appointment, error) {
	if err := req.ValidateSlot(); err != nil {
		return nil, apperrors.BadRequest("date must be YYYY-MM-DD and times HH:MM")
	}

	doctorID, err := uuid.Parse(req.DoctorID)
	if err != nil {
		return nil, apperrors.BadRequest("invalid doctor id")
	}

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

	appointment := &model.Appointment{
		DoctorID:  doctor.ID,
		PatientID: patient.ID,
		Date:      req.Date,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		Status:    model.AppointmentStatusPending,
	}
	if err := s.repo.CreateIfSlotFree(ctx, appointment); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.Conflict(
				fmt.Sprintf("slot %s %s is already booked for this doctor", req.Date, req.StartTime))
		}
		return nil, apperrors.Internal(err)
	}

	joined, err := s.repo.GetJoined(ctx, appointment.ID)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return joined, nil
}

// ListForUser returns the role-scoped appointment page, most recent slot
// first. Patients and doctors without a profile get an empty page with an
// explanatory message rather than an error.
func (s *Service) ListForUser(ctx context.Context, actor model.Actor, status string, page, limit int) (*model.AppointmentPage, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultPageLimit
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}

	filters := &model.AppointmentFilters{Page: page, Limit: limit}
	if status != "" {
		parsed, ok := model.ParseAppointmentFilter(status)
		if !ok {
			return nil, apperrors.BadRequest("unknown status filter")
		}
		filters.Status = parsed
	}

	switch actor.Role {
	case model.RolePatient:
		patient, err := s.patientRepo.GetByUserID(ctx, actor.UserID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return emptyPage(page, limit, "no patient profile found for this account"), nil
			}
			return nil, apperrors.Internal(err)
		}
		filters.PatientID = patient.ID
	case model.RoleDoctor:
		doctor, err := s.doctorRepo.GetByUserID(ctx, actor.UserID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return emptyPage(page, limit, "no doctor profile found for this account"), nil
			}
			return nil, apperrors.Internal(err)
		}
		filters.DoctorID = doctor.ID
	case model.RoleAdmin:
		// no scoping
	default:
		return nil, apperrors.Forbidden("role may not list appointments")
	}

	docs, total, err := s.repo.List(ctx, filters)
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	return &model.AppointmentPage{
		Docs:       docs,
		TotalDocs:  total,
		Page:       page,
		Limit:      limit,
		TotalPages: totalPages(total, limit),
	}, nil
}

// UpdateStatus drives the state machine: pending → confirmed → completed,
// with cancelled reachable from any non-terminal state. Admins may act on any
// appointment, a doctor only on their own.
func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, rawStatus string, actor model.Actor) (*model.Appointment, error) {
	status, ok := model.ParseAppointmentStatus(rawStatus)
	if !ok {
		return nil, apperrors.BadRequest("status must be confirmed, cancelled or completed")
	}

	appointment, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("appointment")
		}
		return nil, apperrors.Internal(err)
	}

	if !s.authz.IsAdmin(actor.Role) {
		owner, err := s.authz.IsOwnerDoctor(ctx, actor.UserID, appointment.DoctorID)
		if err != nil {
			return nil, apperrors.Internal(err)
		}
		if !owner {
			return nil, apperrors.Forbidden("not allowed to manage this appointment")
		}
	}

	switch status {
	case model.AppointmentStatusConfirmed:
		if appointment.Status != model.AppointmentStatusPending {
			return nil, apperrors.BadRequest("only pending appointments can be confirmed")
		}
	case model.AppointmentStatusCompleted:
		if appointment.Status != model.AppointmentStatusConfirmed {
			return nil, apperrors.BadRequest("only confirmed appointments can be completed")
		}
	case model.AppointmentStatusCancelled:
		// no source-state guard at this layer, deliberately permissive
	}

	if err := s.repo.UpdateStatus(ctx, id, status); err != nil {
		return nil, apperrors.Internal(err)
	}

	joined, err := s.repo.GetJoined(ctx, id)
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	s.notify(joined, status)
	return joined, nil
}

// Cancel is the patient-facing cancellation path: the owning patient, owning
// doctor or an admin may cancel any appointment that is not already terminal.
func (s *Service) Cancel(ctx context.Context, id uuid.UUID, actor model.Actor) (*model.Appointment, error) {
	appointment, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("appointment")
		}
		return nil, apperrors.Internal(err)
	}

	if !s.authz.IsAdmin(actor.Role) {
		ownerPatient, err := s.authz.IsOwnerPatient(ctx, actor.UserID, appointment.PatientID)
		if err != nil {
			return nil, apperrors.Internal(err)
		}
		ownerDoctor := false
		if !ownerPatient {
			ownerDoctor, err = s.authz.IsOwnerDoctor(ctx, actor.UserID, appointment.DoctorID)
			if err != nil {
				return nil, apperrors.Internal(err)
			}
		}
		if !ownerPatient && !ownerDoctor {
			return nil, apperrors.Forbidden("not allowed to cancel this appointment")
		}
	}

	if appointment.Status.Terminal() {
		return nil, apperrors.BadRequest(
			fmt.Sprintf("cannot cancel an appointment that is already %s", appointment.Status))
	}

	if err := s.repo.UpdateStatus(ctx, id, model.AppointmentStatusCancelled); err != nil {
		return nil, apperrors.Internal(err)
	}

	joined, err := s.repo.GetJoined(ctx, id)
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	s.notify(joined, model.AppointmentStatusCancelled)
	return joined, nil
}

// notify sends best-effort email on confirm/cancel; failures are logged by
// the notifier and never surfaced.
func (s *Service) notify(appointment *model.Appointment, status model.AppointmentStatus) {
	if s.notifier == nil || appointment.PatientEmail == "" {
		return
	}
	switch status {
	case model.AppointmentStatusConfirmed:
		s.notifier.AppointmentConfirmed(appointment)
	case model.AppointmentStatusCancelled:
		s.notifier.AppointmentCancelled(appointment)
	}
}

func emptyPage(page, limit int, message string) *model.AppointmentPage {
	return &model.AppointmentPage{
		Docs:       []*model.Appointment{},
		TotalDocs:  0,
		Page:       page,
		Limit:      limit,
		TotalPages: 0,
		Message:    message,
	}
}

func totalPages(total int64, limit int) int {
	return int((total + int64(limit) - 1) / int64(limit))
}
