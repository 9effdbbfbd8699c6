package doctor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"

	"github.com/mediqueue/clinic-api/internal/model"
	"github.com/mediqueue/clinic-api/internal/repository"
	apperrors "github.com/mediqueue/clinic-api/pkg/errors"
)

// directoryTTL bounds staleness of the public approved-doctor listing.
const directoryTTL = 30 * time.Second

type directoryPage struct {
	Doctors []*model.Doctor `json:"doctors"`
	Total   int64           `json:"total"`
}

type Service struct {
	repo  repository.DoctorRepository
	cache *gocache.Cache
}

func NewService(repo repository.DoctorRepository) *Service {
	return &Service{
		repo:  repo,
		cache: gocache.New(directoryTTL, 5*time.Minute),
	}
}

// CreateProfile creates the doctor profile for the acting account, starting
// in pending verification. One profile per identity.
func (s *Service) CreateProfile(ctx context.Context, req *model.CreateDoctorRequest, actor model.Actor) (*model.Doctor, error) {
	if err := validateAvailability(req.Availability); err != nil {
		return nil, apperrors.BadRequest(err.Error())
	}

	doctor := &model.Doctor{
		UserID:         actor.UserID,
		Specialization: req.Specialization,
		ExperienceYrs:  req.ExperienceYrs,
		LicenseNumber:  req.LicenseNumber,
		Verification:   model.VerificationPending,
		Availability:   req.Availability,
	}
	if doctor.Availability == nil {
		doctor.Availability = model.Availability{}
	}

	if err := s.repo.Create(ctx, doctor); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.Conflict("doctor profile already exists for this account")
		}
		return nil, apperrors.Internal(err)
	}

	created, err := s.repo.Get(ctx, doctor.ID)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return created, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.Doctor, error) {
	doctor, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("doctor")
		}
		return nil, apperrors.Internal(err)
	}
	return doctor, nil
}

func (s *Service) GetOwn(ctx context.Context, actor model.Actor) (*model.Doctor, error) {
	doctor, err := s.repo.GetByUserID(ctx, actor.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("doctor profile")
		}
		return nil, apperrors.Internal(err)
	}
	return doctor, nil
}

// UpdateAvailability replaces the weekly schedule of the actor's own profile.
func (s *Service) UpdateAvailability(ctx context.Context, req *model.UpdateAvailabilityRequest, actor model.Actor) (*model.Doctor, error) {
	if err := validateAvailability(req.Availability); err != nil {
		return nil, apperrors.BadRequest(err.Error())
	}

	doctor, err := s.GetOwn(ctx, actor)
	if err != nil {
		return nil, err
	}

	if err := s.repo.UpdateAvailability(ctx, doctor.ID, req.Availability); err != nil {
		return nil, apperrors.Internal(err)
	}

	doctor.Availability = req.Availability
	return doctor, nil
}

// Verify is the admin action gating whether a doctor is publicly bookable.
func (s *Service) Verify(ctx context.Context, id uuid.UUID, status model.VerificationStatus) (*model.Doctor, error) {
	if status != model.VerificationApproved && status != model.VerificationRejected {
		return nil, apperrors.BadRequest("verification status must be approved or rejected")
	}

	if err := s.repo.UpdateVerification(ctx, id, status); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("doctor")
		}
		return nil, apperrors.Internal(err)
	}

	s.cache.Flush()
	return s.Get(ctx, id)
}

func (s *Service) UpdateAvatar(ctx context.Context, actor model.Actor, url string) (*model.Doctor, error) {
	doctor, err := s.GetOwn(ctx, actor)
	if err != nil {
		return nil, err
	}
	if err := s.repo.UpdateAvatar(ctx, doctor.ID, url); err != nil {
		return nil, apperrors.Internal(err)
	}
	doctor.AvatarURL = url
	return doctor, nil
}

// ListApproved serves the public directory of verified doctors through a
// short-lived cache; verification changes flush it.
func (s *Service) ListApproved(ctx context.Context, filters *model.DoctorFilters) ([]*model.Doctor, int64, error) {
	if filters.Page < 1 {
		filters.Page = 1
	}
	if filters.Limit < 1 || filters.Limit > 100 {
		filters.Limit = 20
	}

	key := fmt.Sprintf("directory:%s:%d:%d", filters.Specialization, filters.Page, filters.Limit)
	if cached, ok := s.cache.Get(key); ok {
		page := cached.(*directoryPage)
		return page.Doctors, page.Total, nil
	}

	doctors, total, err := s.repo.ListApproved(ctx, filters)
	if err != nil {
		return nil, 0, apperrors.Internal(err)
	}

	s.cache.Set(key, &directoryPage{Doctors: doctors, Total: total}, gocache.DefaultExpiration)
	return doctors, total, nil
}

func validateAvailability(a model.Availability) error {
	validDays := map[string]bool{
		"monday": true, "tuesday": true, "wednesday": true, "thursday": true,
		"friday": true, "saturday": true, "sunday": true,
	}
	for day, ranges := range a {
		if !validDays[day] {
			return fmt.Errorf("unknown weekday %q", day)
		}
		for _, r := range ranges {
			start, err := time.Parse(model.TimeLayout, r.Start)
			if err != nil {
				return fmt.Errorf("invalid start time %q for %s", r.Start, day)
			}
			end, err := time.Parse(model.TimeLayout, r.End)
			if err != nil {
				return fmt.Errorf("invalid end time %q for %s", r.End, day)
			}
			if !end.After(start) {
				return fmt.Errorf("range %s-%s on %s ends before it starts", r.Start, r.End, day)
			}
		}
	}
	return nil
}
