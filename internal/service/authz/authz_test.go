package authz

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mediqueue/clinic-api/internal/model"
	"github.com/mediqueue/clinic-api/internal/repository/repositorytest"
)

func TestIsAdmin(t *testing.T) {
	store := repositorytest.NewStore()
	svc := NewService(store.Doctors(), store.Patients())

	assert.True(t, svc.IsAdmin(model.RoleAdmin))
	assert.False(t, svc.IsAdmin(model.RoleDoctor))
	assert.False(t, svc.IsAdmin(model.RolePatient))
}

func TestIsOwnerDoctor(t *testing.T) {
	store := repositorytest.NewStore()
	svc := NewService(store.Doctors(), store.Patients())

	user := store.SeedUser("dr-adams", model.RoleDoctor)
	doctor := store.SeedDoctor(user)

	owner, err := svc.IsOwnerDoctor(context.Background(), user.ID, doctor.ID)
	require.NoError(t, err)
	assert.True(t, owner)

	owner, err = svc.IsOwnerDoctor(context.Background(), user.ID, uuid.New())
	require.NoError(t, err)
	assert.False(t, owner)

	// an account without a doctor profile owns nothing, and that is not an error
	owner, err = svc.IsOwnerDoctor(context.Background(), uuid.New(), doctor.ID)
	require.NoError(t, err)
	assert.False(t, owner)
}

func TestIsOwnerPatient(t *testing.T) {
	store := repositorytest.NewStore()
	svc := NewService(store.Doctors(), store.Patients())

	user := store.SeedUser("alice", model.RolePatient)
	patient := store.SeedPatient(user)

	owner, err := svc.IsOwnerPatient(context.Background(), user.ID, patient.ID)
	require.NoError(t, err)
	assert.True(t, owner)

	owner, err = svc.IsOwnerPatient(context.Background(), uuid.New(), patient.ID)
	require.NoError(t, err)
	assert.False(t, owner)
}
