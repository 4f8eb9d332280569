package models

import (
	"time"
)

// Certificate statuses
const (
	CertificatePending  = "pending"
	CertificateApproved = "approved"
	CertificateRejected = "rejected"
)

// MedicalCertificate represents the medical_certificates table
type MedicalCertificate struct {
	ID              int64        `json:"id"`
	UserID          int64        `json:"user_id"`
	DoctorID        *int64       `json:"doctor_id"`
	AppointmentID   *int64       `json:"appointment_id"`
	Reason          string       `json:"reason"`
	StartDate       string       `json:"start_date"`
	EndDate         string       `json:"end_date"`
	DaysRequested   int          `json:"days_requested"`
	Status          string       `json:"status"`
	DoctorNotes     *string      `json:"doctor_notes"`
	RejectionReason *string      `json:"rejection_reason"`
	DocumentPath    *string      `json:"document_path"`
	ApprovedAt      *time.Time   `json:"approved_at"`
	CreatedAt       time.Time    `json:"created_at"`
	UpdatedAt       time.Time    `json:"updated_at"`
	User            *UserSummary `json:"user,omitempty"`
	Doctor          *UserSummary `json:"doctor,omitempty"`
}

// HasDocument reports whether a supporting file was uploaded
func (m *MedicalCertificate) HasDocument() bool {
	return m.DocumentPath != nil && *m.DocumentPath != ""
}

// CertificateFilter narrows certificate listings
type CertificateFilter struct {
	Status   string
	UserType string
	// CreatedFrom and CreatedTo bound the request date, inclusive
	CreatedFrom string
	CreatedTo   string
	Search      string
	UserID      int64
	// PendingOrDoctor lists pending certificates plus those handled by this doctor
	PendingOrDoctor int64
}

// CertificateStats counts certificates by status
type CertificateStats struct {
	Total    int `json:"total"`
	Pending  int `json:"pending"`
	Approved int `json:"approved"`
	Rejected int `json:"rejected"`
}

// DaysBetween returns the inclusive number of days from start to end (YYYY-MM-DD)
func DaysBetween(start, end string) (int, error) {
	s, err := time.Parse(DateLayout, start)
	if err != nil {
		return 0, err
	}
	e, err := time.Parse(DateLayout, end)
	if err != nil {
		return 0, err
	}
	return int(e.Sub(s).Hours()/24) + 1, nil
}
