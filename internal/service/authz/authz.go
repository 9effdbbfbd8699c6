package authz

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/mediqueue/clinic-api/internal/model"
	"github.com/mediqueue/clinic-api/internal/repository"
)

// Service holds the ownership predicates shared by the queue and appointment
// services. Record-level checks run after route-level role gating, which the
// auth middleware evaluates before any database access.
type Service struct {
	doctorRepo  repository.DoctorRepository
	patientRepo repository.PatientRepository
}

func NewService(doctorRepo repository.DoctorRepository, patientRepo repository.PatientRepository) *Service {
	return &Service{doctorRepo: doctorRepo, patientRepo: patientRepo}
}

func (s *Service) IsAdmin(role model.Role) bool {
	return role == model.RoleAdmin
}

// IsOwnerDoctor reports whether the actor's doctor profile is the one the
// record references. An actor without a doctor profile owns nothing.
func (s *Service) IsOwnerDoctor(ctx context.Context, actorID, doctorID uuid.UUID) (bool, error) {
	doctor, err := s.doctorRepo.GetByUserID(ctx, actorID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return doctor.ID == doctorID, nil
}

// IsOwnerPatient reports whether the actor's patient profile is the one the
// record references.
func (s *Service) IsOwnerPatient(ctx context.Context, actorID, patientID uuid.UUID) (bool, error) {
	patient, err := s.patientRepo.GetByUserID(ctx, actorID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return patient.ID == patientID, nil
}
