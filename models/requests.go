package models

// DateLayout is the wire format of calendar dates
const DateLayout = "2006-01-02"

// RegisterRequest is the body of POST /register
type RegisterRequest struct {
	Name                 string `json:"name" validate:"required,max=255"`
	Email                string `json:"email" validate:"required,email,max=255"`
	Password             string `json:"password" validate:"required,min=6"`
	PasswordConfirmation string `json:"password_confirmation" validate:"required,eqfield=Password"`
	Role                 string `json:"role" validate:"required,oneof=doctor nurse pharmacist student staff"`
	StaffID              string `json:"staff_id" validate:"required_if=Role student,required_if=Role staff,max=50"`
	Phone                string `json:"phone" validate:"omitempty,max=20"`
}

// LoginRequest is the body of POST /login
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// VerifyOTPRequest is the body of POST /verify-otp
type VerifyOTPRequest struct {
	UserID  int64  `json:"user_id" validate:"required"`
	OTPCode string `json:"otp_code" validate:"required,len=6,numeric"`
}

// ResendOTPRequest is the body of POST /resend-otp
type ResendOTPRequest struct {
	UserID int64 `json:"user_id" validate:"required"`
}

// ChangePasswordRequest is the body of PUT /change-password
type ChangePasswordRequest struct {
	CurrentPassword         string `json:"current_password" validate:"required"`
	NewPassword             string `json:"new_password" validate:"required,min=6"`
	NewPasswordConfirmation string `json:"new_password_confirmation" validate:"required,eqfield=NewPassword"`
}

// AdminSetPasswordRequest is the body of PUT /admin/change-password/:id
type AdminSetPasswordRequest struct {
	NewPassword string `json:"new_password" validate:"required,min=6"`
}

// SignatureRequest is the body of POST /signature
type SignatureRequest struct {
	Signature string `json:"signature" validate:"required"`
}

// CreateAppointmentRequest is the body of POST /appointments
type CreateAppointmentRequest struct {
	UserID          int64  `json:"user_id" validate:"required"`
	AppointmentDate string `json:"appointment_date" validate:"required,datetime=2006-01-02"`
	AppointmentTime string `json:"appointment_time" validate:"required,datetime=15:04"`
	Reason          string `json:"reason" validate:"omitempty,max=1000"`
	Priority        string `json:"priority" validate:"required,oneof=normal urgent"`
}

// UpdateAppointmentRequest is the body of PUT /appointments/:id; nil fields are left unchanged
type UpdateAppointmentRequest struct {
	AppointmentDate *string `json:"appointment_date" validate:"omitempty,datetime=2006-01-02"`
	AppointmentTime *string `json:"appointment_time" validate:"omitempty,datetime=15:04"`
	Reason          *string `json:"reason" validate:"omitempty,max=1000"`
	Priority        *string `json:"priority" validate:"omitempty,oneof=normal urgent"`
	MedicalNotes    *string `json:"medical_notes"`
}

// CompleteAppointmentRequest is the body of POST /appointments/:id/complete
type CompleteAppointmentRequest struct {
	MedicalNotes string `json:"medical_notes" validate:"required"`
	Diagnosis    string `json:"diagnosis"`
	Medications  string `json:"medications"`
	Instructions string `json:"instructions"`
	LabReports   string `json:"lab_reports"`
}

// CreatePrescriptionRequest is the body of POST /prescriptions
type CreatePrescriptionRequest struct {
	AppointmentID int64  `json:"appointment_id" validate:"required"`
	Diagnosis     string `json:"diagnosis" validate:"required"`
	Medications   string `json:"medications" validate:"required"`
	Instructions  string `json:"instructions"`
}

// CreateCertificateRequest is the form of POST /medical-certificates
type CreateCertificateRequest struct {
	Reason        string `form:"reason" json:"reason" validate:"required,max=1000"`
	StartDate     string `form:"start_date" json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate       string `form:"end_date" json:"end_date" validate:"required,datetime=2006-01-02"`
	AppointmentID int64  `form:"appointment_id" json:"appointment_id"`
}

// ApproveCertificateRequest is the body of POST /medical-certificates/:id/approve
type ApproveCertificateRequest struct {
	DoctorNotes string `json:"doctor_notes" validate:"omitempty,max=1000"`
}

// RejectCertificateRequest is the body of POST /medical-certificates/:id/reject
type RejectCertificateRequest struct {
	RejectionReason string `json:"rejection_reason" validate:"required,max=1000"`
	DoctorNotes     string `json:"doctor_notes" validate:"omitempty,max=1000"`
}

// QRTokenRequest carries a QR check-in token
type QRTokenRequest struct {
	Token string `json:"token"`
}

// QRAppointmentRequest is the body of POST /qr/create-appointment
type QRAppointmentRequest struct {
	Token           string `json:"token" validate:"required"`
	AppointmentDate string `json:"appointment_date" validate:"required,datetime=2006-01-02"`
	AppointmentTime string `json:"appointment_time" validate:"required,datetime=15:04"`
	Reason          string `json:"reason" validate:"omitempty,max=1000"`
	Priority        string `json:"priority" validate:"required,oneof=normal urgent"`
}

// QRUserData is the patient snapshot cached behind a QR token
type QRUserData struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Role    string `json:"role"`
	StaffID string `json:"staff_id"`
	Phone   string `json:"phone,omitempty"`
}
