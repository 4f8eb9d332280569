package models

import (
	"time"
)

// Prescription statuses
const (
	PrescriptionPending   = "pending"
	PrescriptionDispensed = "dispensed"
	PrescriptionCompleted = "completed"
)

// Prescription represents the prescriptions table
type Prescription struct {
	ID                int64        `json:"id"`
	AppointmentID     int64        `json:"appointment_id"`
	PatientID         int64        `json:"patient_id"`
	DoctorID          int64        `json:"doctor_id"`
	Diagnosis         string       `json:"diagnosis"`
	Medications       string       `json:"medications"`
	Instructions      *string      `json:"instructions"`
	Status            string       `json:"status"`
	DispensedBy       *int64       `json:"dispensed_by"`
	DispensedAt       *time.Time   `json:"dispensed_at"`
	CreatedAt         time.Time    `json:"created_at"`
	UpdatedAt         time.Time    `json:"updated_at"`
	AppointmentNumber *int         `json:"appointment_number,omitempty"`
	Patient           *UserSummary `json:"patient,omitempty"`
	Doctor            *UserSummary `json:"doctor,omitempty"`
	Dispenser         *UserSummary `json:"dispensed_by_user,omitempty"`
}

// PrescriptionFilter narrows prescription listings
type PrescriptionFilter struct {
	Status    string
	CreatedOn string
	PatientID int64
	DoctorID  int64
	Ascending bool
}
