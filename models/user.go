package models

import (
	"time"
)

// Roles
const (
	RoleAdmin      = "admin"
	RoleDoctor     = "doctor"
	RoleNurse      = "nurse"
	RolePharmacist = "pharmacist"
	RoleStudent    = "student"
	RoleStaff      = "staff"
)

// User represents the users table
type User struct {
	ID           int64      `json:"id" db:"id"`
	Name         string     `json:"name" db:"name"`
	Email        string     `json:"email" db:"email"`
	Password     string     `json:"-" db:"password"`
	Role         string     `json:"role" db:"role"`
	StaffID      *string    `json:"staff_id" db:"staff_id"`
	Phone        *string    `json:"phone" db:"phone"`
	IsApproved   bool       `json:"is_approved" db:"is_approved"`
	Signature    *string    `json:"-" db:"signature"`
	OTPSecret    *string    `json:"-" db:"otp_secret"`
	OTPExpiresAt *time.Time `json:"-" db:"otp_expires_at"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at" db:"updated_at"`
}

// UserSummary is the subset of a user embedded in other resources
type UserSummary struct {
	ID      int64   `json:"id"`
	Name    string  `json:"name"`
	Email   string  `json:"email,omitempty"`
	Role    string  `json:"role,omitempty"`
	StaffID *string `json:"staff_id,omitempty"`
}

// Summary returns the embeddable view of u
func (u *User) Summary() *UserSummary {
	return &UserSummary{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role, StaffID: u.StaffID}
}

// HasSignature reports whether a signature image is on file
func (u *User) HasSignature() bool {
	return u.Signature != nil && *u.Signature != ""
}

// NeedsApproval reports whether role must be approved by an admin and pass OTP at login
func NeedsApproval(role string) bool {
	switch role {
	case RoleDoctor, RoleNurse, RolePharmacist:
		return true
	}
	return false
}

// IsPatientRole reports whether role identifies a patient by staff id
func IsPatientRole(role string) bool {
	return role == RoleStudent || role == RoleStaff
}

// UserFilter narrows user listings
type UserFilter struct {
	Roles        []string
	ExcludeRoles []string
	Approved     *bool
}
