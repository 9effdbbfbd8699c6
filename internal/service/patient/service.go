package patient

import (
	"context"
	"errors"

	"github.com/mediqueue/clinic-api/internal/model"
	"github.com/mediqueue/clinic-api/internal/repository"
	apperrors "github.com/mediqueue/clinic-api/pkg/errors"
)

type Service struct {
	repo repository.PatientRepository
}

func NewService(repo repository.PatientRepository) *Service {
	return &Service{repo: repo}
}

// CreateProfile creates the patient profile for the acting account. An
// identity gets exactly one profile; a second attempt is a conflict.
func (s *Service) CreateProfile(ctx context.Context, req *model.CreatePatientRequest, actor model.Actor) (*model.Patient, error) {
	patient := &model.Patient{
		UserID:           actor.UserID,
		DateOfBirth:      req.DateOfBirth,
		Gender:           req.Gender,
		BloodGroup:       req.BloodGroup,
		MedicalHistory:   req.MedicalHistory,
		EmergencyContact: req.EmergencyContact,
	}
	if patient.MedicalHistory == nil {
		patient.MedicalHistory = []string{}
	}

	if err := s.repo.Create(ctx, patient); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.Conflict("patient profile already exists for this account")
		}
		return nil, apperrors.Internal(err)
	}

	created, err := s.repo.Get(ctx, patient.ID)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return created, nil
}

func (s *Service) GetOwn(ctx context.Context, actor model.Actor) (*model.Patient, error) {
	patient, err := s.repo.GetByUserID(ctx, actor.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("patient profile")
		}
		return nil, apperrors.Internal(err)
	}
	return patient, nil
}

// Update applies partial changes to the actor's own profile. Medical history
// entries are appended, never removed.
func (s *Service) Update(ctx context.Context, req *model.UpdatePatientRequest, actor model.Actor) (*model.Patient, error) {
	patient, err := s.GetOwn(ctx, actor)
	if err != nil {
		return nil, err
	}

	if req.Gender != nil {
		patient.Gender = *req.Gender
	}
	if req.BloodGroup != nil {
		patient.BloodGroup = *req.BloodGroup
	}
	if req.EmergencyContact != nil {
		patient.EmergencyContact = *req.EmergencyContact
	}
	if len(req.MedicalHistory) > 0 {
		patient.MedicalHistory = append(patient.MedicalHistory, req.MedicalHistory...)
	}

	if err := s.repo.Update(ctx, patient); err != nil {
		return nil, apperrors.Internal(err)
	}
	return patient, nil
}

func (s *Service) UpdateAvatar(ctx context.Context, actor model.Actor, url string) (*model.Patient, error) {
	patient, err := s.GetOwn(ctx, actor)
	if err != nil {
		return nil, err
	}
	if err := s.repo.UpdateAvatar(ctx, patient.ID, url); err != nil {
		return nil, apperrors.Internal(err)
	}
	patient.AvatarURL = url
	return patient, nil
}
