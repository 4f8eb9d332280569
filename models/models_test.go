package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNeedsApproval(t *testing.T) {
	assert.True(t, NeedsApproval(RoleDoctor))
	assert.True(t, NeedsApproval(RoleNurse))
	assert.True(t, NeedsApproval(RolePharmacist))
	assert.False(t, NeedsApproval(RoleStudent))
	assert.False(t, NeedsApproval(RoleStaff))
	assert.False(t, NeedsApproval(RoleAdmin))
}

func TestAppointment_CanTransition(t *testing.T) {
	tests := []struct {
		from string
		to   string
		ok   bool
	}{
		{AppointmentPending, AppointmentCheckedIn, true},
		{AppointmentCheckedIn, AppointmentCheckedIn, false},
		{AppointmentPending, AppointmentInProgress, true},
		{AppointmentCheckedIn, AppointmentInProgress, true},
		{AppointmentInProgress, AppointmentInProgress, false},
		{AppointmentInProgress, AppointmentCompleted, true},
		{AppointmentPending, AppointmentCompleted, true},
		{AppointmentCompleted, AppointmentCancelled, false},
		{AppointmentCancelled, AppointmentCompleted, false},
		{AppointmentCheckedIn, AppointmentCancelled, true},
	}
	for _, tt := range tests {
		a := Appointment{Status: tt.from}
		assert.Equal(t, tt.ok, a.CanTransition(tt.to), "%s -> %s", tt.from, tt.to)
	}
}

func TestNewDailyReport(t *testing.T) {
	report := NewDailyReport("2026-03-02", []Appointment{
		{Status: AppointmentPending, Priority: PriorityUrgent},
		{Status: AppointmentCompleted, Priority: PriorityNormal},
		{Status: AppointmentCompleted, Priority: PriorityUrgent},
		{Status: AppointmentCancelled, Priority: PriorityNormal},
	})

	assert.Equal(t, 4, report.Total)
	assert.Equal(t, 1, report.Pending)
	assert.Equal(t, 2, report.Completed)
	assert.Equal(t, 1, report.Cancelled)
	assert.Equal(t, 2, report.Urgent)

	empty := NewDailyReport("2026-03-02", nil)
	assert.NotNil(t, empty.Appointments)
}

func TestDaysBetween(t *testing.T) {
	days, err := DaysBetween("2026-02-27", "2026-03-02")
	require.NoError(t, err)
	assert.Equal(t, 4, days)

	days, err = DaysBetween("2026-05-10", "2026-05-10")
	require.NoError(t, err)
	assert.Equal(t, 1, days)

	_, err = DaysBetween("10/05/2026", "2026-05-10")
	assert.Error(t, err)
}
