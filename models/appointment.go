package models

import (
	"time"
)

// Appointment statuses
const (
	AppointmentPending    = "pending"
	AppointmentCheckedIn  = "checked_in"
	AppointmentInProgress = "in_progress"
	AppointmentCompleted  = "completed"
	AppointmentCancelled  = "cancelled"
)

// Appointment priorities
const (
	PriorityNormal = "normal"
	PriorityUrgent = "urgent"
)

// Appointment represents the appointments table. Date is YYYY-MM-DD and time HH:MM.
type Appointment struct {
	ID                int64        `json:"id"`
	AppointmentNumber int          `json:"appointment_number"`
	UserID            int64        `json:"user_id"`
	AppointmentDate   string       `json:"appointment_date"`
	AppointmentTime   string       `json:"appointment_time"`
	Reason            *string      `json:"reason"`
	Status            string       `json:"status"`
	Priority          string       `json:"priority"`
	CreatedBy         int64        `json:"created_by"`
	MedicalNotes      *string      `json:"medical_notes"`
	LabReports        *string      `json:"lab_reports"`
	CompletedBy       *int64       `json:"completed_by"`
	CheckedInAt       *time.Time   `json:"checked_in_at"`
	CompletedAt       *time.Time   `json:"completed_at"`
	CreatedAt         time.Time    `json:"created_at"`
	UpdatedAt         time.Time    `json:"updated_at"`
	User              *UserSummary `json:"user,omitempty"`
	Creator           *UserSummary `json:"created_by_user,omitempty"`
	Completer         *UserSummary `json:"completed_by_user,omitempty"`
}

// IsTerminal reports whether no further transitions are allowed
func (a *Appointment) IsTerminal() bool {
	return a.Status == AppointmentCompleted || a.Status == AppointmentCancelled
}

// CanTransition reports whether the appointment may move to status
func (a *Appointment) CanTransition(status string) bool {
	switch status {
	case AppointmentCheckedIn:
		return a.Status == AppointmentPending
	case AppointmentInProgress:
		return a.Status == AppointmentPending || a.Status == AppointmentCheckedIn
	case AppointmentCompleted, AppointmentCancelled:
		return !a.IsTerminal()
	case AppointmentPending:
		return a.Status == AppointmentPending
	}
	return false
}

// HasLabReports reports whether the doctor recorded lab results
func (a *Appointment) HasLabReports() bool {
	return a.LabReports != nil && *a.LabReports != ""
}

// Appointment list orderings
const (
	OrderNumberDesc    = "number_desc"
	OrderHistory       = "history"
	OrderQueue         = "queue"
	OrderNumberAsc     = "number_asc"
	OrderCompletedDesc = "completed_desc"
)

// AppointmentFilter narrows appointment listings
type AppointmentFilter struct {
	Statuses      []string
	Date          string
	UserID        int64
	WithLabReport bool
	Order         string
}

// DailyReport summarises a day's appointments
type DailyReport struct {
	Date         string        `json:"date"`
	Total        int           `json:"total"`
	Pending      int           `json:"pending"`
	CheckedIn    int           `json:"checked_in"`
	InProgress   int           `json:"in_progress"`
	Completed    int           `json:"completed"`
	Cancelled    int           `json:"cancelled"`
	Urgent       int           `json:"urgent"`
	Appointments []Appointment `json:"appointments"`
}

// NewDailyReport tallies appts for date
func NewDailyReport(date string, appts []Appointment) DailyReport {
	report := DailyReport{Date: date, Total: len(appts), Appointments: appts}
	for _, a := range appts {
		switch a.Status {
		case AppointmentPending:
			report.Pending++
		case AppointmentCheckedIn:
			report.CheckedIn++
		case AppointmentInProgress:
			report.InProgress++
		case AppointmentCompleted:
			report.Completed++
		case AppointmentCancelled:
			report.Cancelled++
		}
		if a.Priority == PriorityUrgent {
			report.Urgent++
		}
	}
	if report.Appointments == nil {
		report.Appointments = []Appointment{}
	}
	return report
}
