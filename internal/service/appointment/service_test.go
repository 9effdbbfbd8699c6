package appointment

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mediqueue/clinic-api/internal/model"
	"github.com/mediqueue/clinic-api/internal/repository/repositorytest"
	"github.com/mediqueue/clinic-api/internal/service/authz"
	apperrors "github.com/mediqueue/clinic-api/pkg/errors"
)

type recordingNotifier struct {
	mu        sync.Mutex
	confirmed []uuid.UUID
	cancelled []uuid.UUID
}

func (n *recordingNotifier) AppointmentConfirmed(a *model.Appointment) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.confirmed = append(n.confirmed, a.ID)
}

func (n *recordingNotifier) AppointmentCancelled(a *model.Appointment) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.cancelled = append(n.cancelled, a.ID)
}

type fixture struct {
	store    *repositorytest.Store
	notifier *recordingNotifier
	service  *Service
}

func newFixture() *fixture {
	store := repositorytest.NewStore()
	notifier := &recordingNotifier{}
	authzSvc := authz.NewService(store.Doctors(), store.Patients())
	return &fixture{
		store:    store,
		notifier: notifier,
		service:  NewService(store.Appointments(), store.Doctors(), store.Patients(), authzSvc, notifier),
	}
}

func (f *fixture) seedPatient(name string) (*model.Patient, model.Actor) {
	user := f.store.SeedUser(name, model.RolePatient)
	patient := f.store.SeedPatient(user)
	return patient, model.Actor{UserID: user.ID, Role: model.RolePatient}
}

func (f *fixture) seedDoctor(name string) (*model.Doctor, model.Actor) {
	user := f.store.SeedUser(name, model.RoleDoctor)
	doctor := f.store.SeedDoctor(user)
	return doctor, model.Actor{UserID: user.ID, Role: model.RoleDoctor}
}

func bookReq(doctorID uuid.UUID, date, start, end string) *model.BookAppointmentRequest {
	return &model.BookAppointmentRequest{
		DoctorID:  doctorID.String(),
		Date:      date,
		StartTime: start,
		EndTime:   end,
	}
}

func TestBookCreatesPendingAppointment(t *testing.T) {
	f := newFixture()
	doctor, _ := f.seedDoctor("dr-adams")
	_, actor := f.seedPatient("alice")

	created, err := f.service.Book(context.Background(),
		bookReq(doctor.ID, "2026-09-01", "10:00", "10:30"), actor)
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatusPending, created.Status)
	assert.Equal(t, "alice", created.PatientName)
	assert.Equal(t, "dr-adams", created.DoctorName)
}

func TestBookRejectsTakenSlot(t *testing.T) {
	f := newFixture()
	doctor, _ := f.seedDoctor("dr-adams")
	_, alice := f.seedPatient("alice")
	_, bob := f.seedPatient("bob")

	_, err := f.service.Book(context.Background(),
		bookReq(doctor.ID, "2026-09-01", "10:00", "10:30"), alice)
	require.NoError(t, err)

	_, err = f.service.Book(context.Background(),
		bookReq(doctor.ID, "2026-09-01", "10:00", "10:30"), bob)
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrConflict))
	assert.Contains(t, err.Error(), "2026-09-01 10:00")
}

func TestBookAllowsSameTimeOtherDoctor(t *testing.T) {
	f := newFixture()
	first, _ := f.seedDoctor("dr-adams")
	second, _ := f.seedDoctor("dr-baker")
	_, actor := f.seedPatient("alice")

	_, err := f.service.Book(context.Background(),
		bookReq(first.ID, "2026-09-01", "10:00", "10:30"), actor)
	require.NoError(t, err)

	_, err = f.service.Book(context.Background(),
		bookReq(second.ID, "2026-09-01", "10:00", "10:30"), actor)
	require.NoError(t, err)
}

func TestBookFreesSlotAfterCancellation(t *testing.T) {
	f := newFixture()
	doctor, _ := f.seedDoctor("dr-adams")
	_, alice := f.seedPatient("alice")
	_, bob := f.seedPatient("bob")
	admin := model.Actor{UserID: uuid.New(), Role: model.RoleAdmin}

	created, err := f.service.Book(context.Background(),
		bookReq(doctor.ID, "2026-09-01", "10:00", "10:30"), alice)
	require.NoError(t, err)

	_, err = f.service.Cancel(context.Background(), created.ID, admin)
	require.NoError(t, err)

	_, err = f.service.Book(context.Background(),
		bookReq(doctor.ID, "2026-09-01", "10:00", "10:30"), bob)
	require.NoError(t, err)
}

func TestBookValidatesSlotFormat(t *testing.T) {
	f := newFixture()
	doctor, _ := f.seedDoctor("dr-adams")
	_, actor := f.seedPatient("alice")

	for _, req := range []*model.BookAppointmentRequest{
		bookReq(doctor.ID, "01-09-2026", "10:00", "10:30"),
		bookReq(doctor.ID, "2026-09-01", "10am", "11am"),
		bookReq(doctor.ID, "2026-09-01", "", "10:30"),
	} {
		_, err := f.service.Book(context.Background(), req, actor)
		require.Error(t, err)
		assert.True(t, apperrors.Is(err, apperrors.ErrBadRequest))
	}
}

func TestBookUnknownDoctor(t *testing.T) {
	f := newFixture()
	_, actor := f.seedPatient("alice")

	_, err := f.service.Book(context.Background(),
		bookReq(uuid.New(), "2026-09-01", "10:00", "10:30"), actor)
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
}

func TestConfirmOnlyFromPending(t *testing.T) {
	f := newFixture()
	doctor, doctorActor := f.seedDoctor("dr-adams")
	_, actor := f.seedPatient("alice")

	created, err := f.service.Book(context.Background(),
		bookReq(doctor.ID, "2026-09-01", "10:00", "10:30"), actor)
	require.NoError(t, err)

	confirmed, err := f.service.UpdateStatus(context.Background(), created.ID, "confirmed", doctorActor)
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatusConfirmed, confirmed.Status)

	_, err = f.service.UpdateStatus(context.Background(), created.ID, "confirmed", doctorActor)
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrBadRequest))
}

func TestCompleteOnlyFromConfirmed(t *testing.T) {
	f := newFixture()
	doctor, doctorActor := f.seedDoctor("dr-adams")
	_, actor := f.seedPatient("alice")

	created, err := f.service.Book(context.Background(),
		bookReq(doctor.ID, "2026-09-01", "10:00", "10:30"), actor)
	require.NoError(t, err)

	_, err = f.service.UpdateStatus(context.Background(), created.ID, "completed", doctorActor)
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrBadRequest))

	_, err = f.service.UpdateStatus(context.Background(), created.ID, "confirmed", doctorActor)
	require.NoError(t, err)

	completed, err := f.service.UpdateStatus(context.Background(), created.ID, "completed", doctorActor)
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatusCompleted, completed.Status)
}

func TestUpdateStatusRejectsForeignDoctor(t *testing.T) {
	f := newFixture()
	doctor, _ := f.seedDoctor("dr-adams")
	_, otherDoctor := f.seedDoctor("dr-baker")
	_, actor := f.seedPatient("alice")

	created, err := f.service.Book(context.Background(),
		bookReq(doctor.ID, "2026-09-01", "10:00", "10:30"), actor)
	require.NoError(t, err)

	_, err = f.service.UpdateStatus(context.Background(), created.ID, "confirmed", otherDoctor)
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrForbidden))
}

func TestConfirmSendsNotification(t *testing.T) {
	f := newFixture()
	doctor, doctorActor := f.seedDoctor("dr-adams")
	_, actor := f.seedPatient("alice")

	created, err := f.service.Book(context.Background(),
		bookReq(doctor.ID, "2026-09-01", "10:00", "10:30"), actor)
	require.NoError(t, err)

	_, err = f.service.UpdateStatus(context.Background(), created.ID, "confirmed", doctorActor)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{created.ID}, f.notifier.confirmed)
}

func TestCancelByOwnerPatient(t *testing.T) {
	f := newFixture()
	doctor, _ := f.seedDoctor("dr-adams")
	_, actor := f.seedPatient("alice")

	created, err := f.service.Book(context.Background(),
		bookReq(doctor.ID, "2026-09-01", "10:00", "10:30"), actor)
	require.NoError(t, err)

	cancelled, err := f.service.Cancel(context.Background(), created.ID, actor)
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatusCancelled, cancelled.Status)
	assert.Equal(t, []uuid.UUID{created.ID}, f.notifier.cancelled)
}

func TestCancelByOwnerDoctor(t *testing.T) {
	f := newFixture()
	doctor, doctorActor := f.seedDoctor("dr-adams")
	_, actor := f.seedPatient("alice")

	created, err := f.service.Book(context.Background(),
		bookReq(doctor.ID, "2026-09-01", "10:00", "10:30"), actor)
	require.NoError(t, err)

	// confirmed appointments stay cancellable
	_, err = f.service.UpdateStatus(context.Background(), created.ID, "confirmed", doctorActor)
	require.NoError(t, err)

	cancelled, err := f.service.Cancel(context.Background(), created.ID, doctorActor)
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatusCancelled, cancelled.Status)
}

func TestCancelRejectsStranger(t *testing.T) {
	f := newFixture()
	doctor, _ := f.seedDoctor("dr-adams")
	_, actor := f.seedPatient("alice")
	_, stranger := f.seedPatient("mallory")

	created, err := f.service.Book(context.Background(),
		bookReq(doctor.ID, "2026-09-01", "10:00", "10:30"), actor)
	require.NoError(t, err)

	_, err = f.service.Cancel(context.Background(), created.ID, stranger)
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrForbidden))
}

func TestCancelRejectsTerminalStates(t *testing.T) {
	f := newFixture()
	doctor, doctorActor := f.seedDoctor("dr-adams")
	_, actor := f.seedPatient("alice")

	created, err := f.service.Book(context.Background(),
		bookReq(doctor.ID, "2026-09-01", "10:00", "10:30"), actor)
	require.NoError(t, err)

	_, err = f.service.Cancel(context.Background(), created.ID, actor)
	require.NoError(t, err)

	_, err = f.service.Cancel(context.Background(), created.ID, actor)
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrBadRequest))
	assert.Contains(t, err.Error(), "already cancelled")

	second, err := f.service.Book(context.Background(),
		bookReq(doctor.ID, "2026-09-02", "10:00", "10:30"), actor)
	require.NoError(t, err)
	_, err = f.service.UpdateStatus(context.Background(), second.ID, "confirmed", doctorActor)
	require.NoError(t, err)
	_, err = f.service.UpdateStatus(context.Background(), second.ID, "completed", doctorActor)
	require.NoError(t, err)

	_, err = f.service.Cancel(context.Background(), second.ID, actor)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already completed")
}

func TestListScopesByRole(t *testing.T) {
	f := newFixture()
	doctor, doctorActor := f.seedDoctor("dr-adams")
	other, _ := f.seedDoctor("dr-baker")
	_, alice := f.seedPatient("alice")
	_, bob := f.seedPatient("bob")
	admin := model.Actor{UserID: uuid.New(), Role: model.RoleAdmin}

	_, err := f.service.Book(context.Background(),
		bookReq(doctor.ID, "2026-09-01", "10:00", "10:30"), alice)
	require.NoError(t, err)
	_, err = f.service.Book(context.Background(),
		bookReq(doctor.ID, "2026-09-01", "11:00", "11:30"), bob)
	require.NoError(t, err)
	_, err = f.service.Book(context.Background(),
		bookReq(other.ID, "2026-09-01", "10:00", "10:30"), bob)
	require.NoError(t, err)

	page, err := f.service.ListForUser(context.Background(), alice, "", 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, page.TotalDocs)

	page, err = f.service.ListForUser(context.Background(), doctorActor, "", 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 2, page.TotalDocs)

	page, err = f.service.ListForUser(context.Background(), admin, "", 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 3, page.TotalDocs)
}

func TestListFiltersByStatus(t *testing.T) {
	f := newFixture()
	doctor, doctorActor := f.seedDoctor("dr-adams")
	_, alice := f.seedPatient("alice")

	first, err := f.service.Book(context.Background(),
		bookReq(doctor.ID, "2026-09-01", "10:00", "10:30"), alice)
	require.NoError(t, err)
	_, err = f.service.Book(context.Background(),
		bookReq(doctor.ID, "2026-09-01", "11:00", "11:30"), alice)
	require.NoError(t, err)

	_, err = f.service.UpdateStatus(context.Background(), first.ID, "confirmed", doctorActor)
	require.NoError(t, err)

	page, err := f.service.ListForUser(context.Background(), alice, "pending", 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, page.TotalDocs)

	page, err = f.service.ListForUser(context.Background(), alice, "confirmed", 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, page.TotalDocs)

	_, err = f.service.ListForUser(context.Background(), alice, "bogus", 1, 10)
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrBadRequest))
}

func TestListWithoutProfileReturnsEmptyPage(t *testing.T) {
	f := newFixture()
	user := f.store.SeedUser("fresh", model.RolePatient)

	page, err := f.service.ListForUser(context.Background(),
		model.Actor{UserID: user.ID, Role: model.RolePatient}, "", 1, 10)
	require.NoError(t, err)
	assert.Empty(t, page.Docs)
	assert.Equal(t, "no patient profile found for this account", page.Message)
}

func TestListOrdersMostRecentSlotFirst(t *testing.T) {
	f := newFixture()
	doctor, _ := f.seedDoctor("dr-adams")
	_, alice := f.seedPatient("alice")

	_, err := f.service.Book(context.Background(),
		bookReq(doctor.ID, "2026-09-01", "09:00", "09:30"), alice)
	require.NoError(t, err)
	_, err = f.service.Book(context.Background(),
		bookReq(doctor.ID, "2026-09-02", "08:00", "08:30"), alice)
	require.NoError(t, err)
	_, err = f.service.Book(context.Background(),
		bookReq(doctor.ID, "2026-09-01", "14:00", "14:30"), alice)
	require.NoError(t, err)

	page, err := f.service.ListForUser(context.Background(), alice, "", 1, 10)
	require.NoError(t, err)
	require.Len(t, page.Docs, 3)
	assert.Equal(t, "2026-09-02", page.Docs[0].Date)
	assert.Equal(t, "14:00", page.Docs[1].StartTime)
	assert.Equal(t, "09:00", page.Docs[2].StartTime)
}
