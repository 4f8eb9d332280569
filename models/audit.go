package models

import (
	"time"
)

// AuditEvent is a security relevant action recorded in audit_logs
type AuditEvent struct {
	ID        int64                  `json:"id"`
	Event     string                 `json:"event"`
	UserID    *int64                 `json:"user_id"`
	Role      *string                `json:"role"`
	IP        string                 `json:"ip"`
	Details   map[string]interface{} `json:"details"`
	CreatedAt time.Time              `json:"created_at"`
}

// Audit event names
const (
	EventLogin            = "login"
	EventLoginFailed      = "login_failed"
	EventOTPVerified      = "otp_verified"
	EventOTPFailed        = "otp_failed"
	EventLogout           = "logout"
	EventPasswordChanged  = "password_changed"
	EventUserApproved     = "user_approved"
	EventUserRejected     = "user_rejected"
	EventAdminSetPassword = "admin_password_changed"
)

// AuditFilter narrows and pages the audit log
type AuditFilter struct {
	Event  string
	UserID int64
	From   string
	To     string
	Page   int
	Limit  int
}
