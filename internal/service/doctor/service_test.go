package doctor

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mediqueue/clinic-api/internal/model"
	"github.com/mediqueue/clinic-api/internal/repository/repositorytest"
	apperrors "github.com/mediqueue/clinic-api/pkg/errors"
)

func newService() (*Service, *repositorytest.Store) {
	store := repositorytest.NewStore()
	return NewService(store.Doctors()), store
}

func profileReq() *model.CreateDoctorRequest {
	return &model.CreateDoctorRequest{
		Specialization: "cardiology",
		ExperienceYrs:  10,
		LicenseNumber:  "LIC-1234",
		Availability: model.Availability{
			"monday": {{Start: "09:00", End: "13:00"}},
		},
	}
}

func TestCreateProfileStartsPending(t *testing.T) {
	svc, store := newService()
	user := store.SeedUser("dr-adams", model.RoleDoctor)
	actor := model.Actor{UserID: user.ID, Role: model.RoleDoctor}

	created, err := svc.CreateProfile(context.Background(), profileReq(), actor)
	require.NoError(t, err)
	assert.Equal(t, model.VerificationPending, created.Verification)
	assert.Equal(t, "cardiology", created.Specialization)
}

func TestCreateProfileOncePerAccount(t *testing.T) {
	svc, store := newService()
	user := store.SeedUser("dr-adams", model.RoleDoctor)
	actor := model.Actor{UserID: user.ID, Role: model.RoleDoctor}

	_, err := svc.CreateProfile(context.Background(), profileReq(), actor)
	require.NoError(t, err)

	_, err = svc.CreateProfile(context.Background(), profileReq(), actor)
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrConflict))
}

func TestCreateProfileValidatesAvailability(t *testing.T) {
	svc, store := newService()
	user := store.SeedUser("dr-adams", model.RoleDoctor)
	actor := model.Actor{UserID: user.ID, Role: model.RoleDoctor}

	cases := []model.Availability{
		{"funday": {{Start: "09:00", End: "13:00"}}},
		{"monday": {{Start: "9am", End: "13:00"}}},
		{"monday": {{Start: "13:00", End: "09:00"}}},
	}
	for _, availability := range cases {
		req := profileReq()
		req.Availability = availability
		_, err := svc.CreateProfile(context.Background(), req, actor)
		require.Error(t, err)
		assert.True(t, apperrors.Is(err, apperrors.ErrBadRequest))
	}
}

func TestVerifyGatesDirectoryListing(t *testing.T) {
	svc, store := newService()
	user := store.SeedUser("dr-adams", model.RoleDoctor)
	actor := model.Actor{UserID: user.ID, Role: model.RoleDoctor}

	created, err := svc.CreateProfile(context.Background(), profileReq(), actor)
	require.NoError(t, err)

	doctors, total, err := svc.ListApproved(context.Background(), &model.DoctorFilters{})
	require.NoError(t, err)
	assert.Empty(t, doctors)
	assert.EqualValues(t, 0, total)

	approved, err := svc.Verify(context.Background(), created.ID, model.VerificationApproved)
	require.NoError(t, err)
	assert.Equal(t, model.VerificationApproved, approved.Verification)

	// verification flushes the directory cache, so the listing is fresh
	doctors, total, err = svc.ListApproved(context.Background(), &model.DoctorFilters{})
	require.NoError(t, err)
	require.Len(t, doctors, 1)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, created.ID, doctors[0].ID)
}

func TestVerifyRejectsPendingTarget(t *testing.T) {
	svc, _ := newService()

	_, err := svc.Verify(context.Background(), uuid.New(), model.VerificationPending)
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrBadRequest))
}

func TestVerifyUnknownDoctor(t *testing.T) {
	svc, _ := newService()

	_, err := svc.Verify(context.Background(), uuid.New(), model.VerificationApproved)
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
}

func TestListApprovedFiltersSpecialization(t *testing.T) {
	svc, store := newService()

	for _, specialty := range []string{"cardiology", "dermatology"} {
		user := store.SeedUser("dr-"+specialty, model.RoleDoctor)
		actor := model.Actor{UserID: user.ID, Role: model.RoleDoctor}
		req := profileReq()
		req.Specialization = specialty
		created, err := svc.CreateProfile(context.Background(), req, actor)
		require.NoError(t, err)
		_, err = svc.Verify(context.Background(), created.ID, model.VerificationApproved)
		require.NoError(t, err)
	}

	doctors, total, err := svc.ListApproved(context.Background(), &model.DoctorFilters{Specialization: "cardiology"})
	require.NoError(t, err)
	require.Len(t, doctors, 1)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, "cardiology", doctors[0].Specialization)
}

func TestUpdateAvailability(t *testing.T) {
	svc, store := newService()
	user := store.SeedUser("dr-adams", model.RoleDoctor)
	actor := model.Actor{UserID: user.ID, Role: model.RoleDoctor}

	_, err := svc.CreateProfile(context.Background(), profileReq(), actor)
	require.NoError(t, err)

	updated, err := svc.UpdateAvailability(context.Background(), &model.UpdateAvailabilityRequest{
		Availability: model.Availability{
			"tuesday": {{Start: "14:00", End: "18:00"}},
		},
	}, actor)
	require.NoError(t, err)
	assert.Contains(t, updated.Availability, "tuesday")

	// no profile yet for this account
	stranger := model.Actor{UserID: uuid.New(), Role: model.RoleDoctor}
	_, err = svc.UpdateAvailability(context.Background(), &model.UpdateAvailabilityRequest{
		Availability: model.Availability{},
	}, stranger)
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
}
