package queue

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mediqueue/clinic-api/internal/middleware"
	"github.com/mediqueue/clinic-api/internal/model"
	"github.com/mediqueue/clinic-api/internal/repository/repositorytest"
	"github.com/mediqueue/clinic-api/internal/service/authz"
	queueService "github.com/mediqueue/clinic-api/internal/service/queue"
	pkgauth "github.com/mediqueue/clinic-api/pkg/auth"
)

type testAPI struct {
	store  *repositorytest.Store
	engine *gin.Engine
	jwt    pkgauth.JWTService
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := repositorytest.NewStore()
	jwtSvc := pkgauth.NewJWTService("access-secret", "refresh-secret", time.Hour, 24*time.Hour)
	authzSvc := authz.NewService(store.Doctors(), store.Patients())
	svc := queueService.NewService(store.Queue(), store.Doctors(), store.Patients(), authzSvc)

	authMW := middleware.NewAuthMiddleware(jwtSvc)
	engine := gin.New()
	protected := engine.Group("")
	protected.Use(authMW.Authenticate())
	NewHandler(svc).RegisterRoutes(protected, authMW)

	return &testAPI{store: store, engine: engine, jwt: jwtSvc}
}

func (a *testAPI) token(t *testing.T, user *model.User) string {
	t.Helper()
	token, err := a.jwt.GenerateAccessToken(user.ID, string(user.Role))
	require.NoError(t, err)
	return token
}

func (a *testAPI) do(t *testing.T, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.engine.ServeHTTP(rec, req)
	return rec
}

type envelope struct {
	StatusCode int             `json:"statusCode"`
	Data       json.RawMessage `json:"data"`
	Message    string          `json:"message"`
	Success    bool            `json:"success"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func TestJoinEndpoint(t *testing.T) {
	api := newTestAPI(t)
	doctorUser := api.store.SeedUser("dr-adams", model.RoleDoctor)
	doctor := api.store.SeedDoctor(doctorUser)
	patientUser := api.store.SeedUser("alice", model.RolePatient)
	api.store.SeedPatient(patientUser)

	body := fmt.Sprintf(`{"doctor_id":%q}`, doctor.ID)
	rec := api.do(t, http.MethodPost, "/queue/join", api.token(t, patientUser), body)

	require.Equal(t, http.StatusCreated, rec.Code)
	env := decode(t, rec)
	assert.True(t, env.Success)
	assert.Equal(t, http.StatusCreated, env.StatusCode)

	var entry model.QueueEntry
	require.NoError(t, json.Unmarshal(env.Data, &entry))
	assert.Equal(t, 1, entry.Position)
	assert.Equal(t, model.QueueStatusWaiting, entry.Status)
	assert.Equal(t, "alice", entry.PatientName)
}

func TestJoinRequiresPatientRole(t *testing.T) {
	api := newTestAPI(t)
	doctorUser := api.store.SeedUser("dr-adams", model.RoleDoctor)
	doctor := api.store.SeedDoctor(doctorUser)

	body := fmt.Sprintf(`{"doctor_id":%q}`, doctor.ID)
	rec := api.do(t, http.MethodPost, "/queue/join", api.token(t, doctorUser), body)

	require.Equal(t, http.StatusForbidden, rec.Code)
	env := decode(t, rec)
	assert.False(t, env.Success)
}

func TestJoinRequiresToken(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, http.MethodPost, "/queue/join", "", `{"doctor_id":"x"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestJoinValidatesBody(t *testing.T) {
	api := newTestAPI(t)
	patientUser := api.store.SeedUser("alice", model.RolePatient)
	api.store.SeedPatient(patientUser)

	rec := api.do(t, http.MethodPost, "/queue/join", api.token(t, patientUser), `{"doctor_id":"not-a-uuid"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestJoinConflictSurfacesAs409(t *testing.T) {
	api := newTestAPI(t)
	doctorUser := api.store.SeedUser("dr-adams", model.RoleDoctor)
	doctor := api.store.SeedDoctor(doctorUser)
	patientUser := api.store.SeedUser("alice", model.RolePatient)
	api.store.SeedPatient(patientUser)

	body := fmt.Sprintf(`{"doctor_id":%q}`, doctor.ID)
	rec := api.do(t, http.MethodPost, "/queue/join", api.token(t, patientUser), body)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = api.do(t, http.MethodPost, "/queue/join", api.token(t, patientUser), body)
	require.Equal(t, http.StatusConflict, rec.Code)
	env := decode(t, rec)
	assert.Contains(t, env.Message, "position 1")
}

func TestDoctorQueueVisibleToAnyRole(t *testing.T) {
	api := newTestAPI(t)
	doctorUser := api.store.SeedUser("dr-adams", model.RoleDoctor)
	doctor := api.store.SeedDoctor(doctorUser)
	patientUser := api.store.SeedUser("alice", model.RolePatient)
	api.store.SeedPatient(patientUser)

	body := fmt.Sprintf(`{"doctor_id":%q}`, doctor.ID)
	rec := api.do(t, http.MethodPost, "/queue/join", api.token(t, patientUser), body)
	require.Equal(t, http.StatusCreated, rec.Code)

	// another patient can watch the queue, names included
	viewerUser := api.store.SeedUser("bob", model.RolePatient)
	rec = api.do(t, http.MethodGet, "/queue/doctor/"+doctor.ID.String(), api.token(t, viewerUser), "")
	require.Equal(t, http.StatusOK, rec.Code)

	var views []model.QueueView
	env := decode(t, rec)
	require.NoError(t, json.Unmarshal(env.Data, &views))
	require.Len(t, views, 1)
	assert.Equal(t, "alice", views[0].PatientName)
}

func TestUpdateStatusRoleGate(t *testing.T) {
	api := newTestAPI(t)
	doctorUser := api.store.SeedUser("dr-adams", model.RoleDoctor)
	doctor := api.store.SeedDoctor(doctorUser)
	patientUser := api.store.SeedUser("alice", model.RolePatient)
	api.store.SeedPatient(patientUser)

	body := fmt.Sprintf(`{"doctor_id":%q}`, doctor.ID)
	rec := api.do(t, http.MethodPost, "/queue/join", api.token(t, patientUser), body)
	require.Equal(t, http.StatusCreated, rec.Code)

	env := decode(t, rec)
	var entry model.QueueEntry
	require.NoError(t, json.Unmarshal(env.Data, &entry))

	path := "/queue/" + entry.ID.String() + "/status"

	rec = api.do(t, http.MethodPatch, path, api.token(t, patientUser), `{"status":"completed"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = api.do(t, http.MethodPatch, path, api.token(t, doctorUser), `{"status":"completed"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	env = decode(t, rec)
	require.NoError(t, json.Unmarshal(env.Data, &entry))
	assert.Equal(t, model.QueueStatusCompleted, entry.Status)
}

func TestMyStatusSentinel(t *testing.T) {
	api := newTestAPI(t)
	patientUser := api.store.SeedUser("alice", model.RolePatient)
	api.store.SeedPatient(patientUser)

	rec := api.do(t, http.MethodGet, "/queue/me", api.token(t, patientUser), "")
	require.Equal(t, http.StatusOK, rec.Code)

	var status model.MyQueueStatus
	env := decode(t, rec)
	require.NoError(t, json.Unmarshal(env.Data, &status))
	assert.False(t, status.InQueue)
	assert.Equal(t, "not in any queue", status.Message)

	rec = api.do(t, http.MethodGet, "/queue/me", uuid.NewString(), "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
