package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseQueueStatus(t *testing.T) {
	cases := []struct {
		in   string
		want QueueStatus
		ok   bool
	}{
		{"in-progress", QueueStatusInProgress, true},
		{"in_progress", QueueStatusInProgress, true},
		{"In-Progress", QueueStatusInProgress, true},
		{"COMPLETED", QueueStatusCompleted, true},
		{"waiting", "", false},
		{"done", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, ok := ParseQueueStatus(tc.in)
		assert.Equal(t, tc.ok, ok, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}
}

func TestQueueStatusToken(t *testing.T) {
	// the hyphenated form is what is stored and returned to clients
	assert.Equal(t, QueueStatus("in-progress"), QueueStatusInProgress)

	body, err := json.Marshal(QueueView{Position: 1, Status: QueueStatusInProgress})
	require.NoError(t, err)
	assert.Contains(t, string(body), `"status":"in-progress"`)
}

func TestParseAppointmentStatus(t *testing.T) {
	// pending is not a transition target
	_, ok := ParseAppointmentStatus("pending")
	assert.False(t, ok)

	got, ok := ParseAppointmentStatus("Confirmed")
	assert.True(t, ok)
	assert.Equal(t, AppointmentStatusConfirmed, got)
}

func TestParseAppointmentFilter(t *testing.T) {
	for _, s := range []string{"pending", "confirmed", "completed", "cancelled"} {
		_, ok := ParseAppointmentFilter(s)
		assert.True(t, ok, s)
	}
	_, ok := ParseAppointmentFilter("archived")
	assert.False(t, ok)
}

func TestAppointmentStatusTerminal(t *testing.T) {
	assert.False(t, AppointmentStatusPending.Terminal())
	assert.False(t, AppointmentStatusConfirmed.Terminal())
	assert.True(t, AppointmentStatusCompleted.Terminal())
	assert.True(t, AppointmentStatusCancelled.Terminal())
}

func TestValidateSlot(t *testing.T) {
	valid := &BookAppointmentRequest{Date: "2026-09-01", StartTime: "10:00", EndTime: "10:30"}
	assert.NoError(t, valid.ValidateSlot())

	for _, req := range []*BookAppointmentRequest{
		{Date: "09/01/2026", StartTime: "10:00", EndTime: "10:30"},
		{Date: "2026-09-01", StartTime: "10:00:00", EndTime: "10:30"},
		{Date: "2026-09-01", StartTime: "10:00", EndTime: "late"},
	} {
		assert.Error(t, req.ValidateSlot())
	}
}

func TestAvailabilityRoundTrip(t *testing.T) {
	availability := Availability{
		"monday": {{Start: "09:00", End: "13:00"}, {Start: "14:00", End: "18:00"}},
	}

	value, err := availability.Value()
	require.NoError(t, err)

	var scanned Availability
	require.NoError(t, scanned.Scan(value))
	assert.Equal(t, availability, scanned)
}

func TestAvailabilityScanNil(t *testing.T) {
	var scanned Availability
	require.NoError(t, scanned.Scan(nil))
	assert.NotNil(t, scanned)
	assert.Empty(t, scanned)
}

func TestRoleValid(t *testing.T) {
	assert.True(t, RolePatient.Valid())
	assert.True(t, RoleDoctor.Valid())
	assert.True(t, RoleAdmin.Valid())
	assert.False(t, Role("superuser").Valid())
}
