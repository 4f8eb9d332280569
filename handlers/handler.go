package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/medcenter/clinic-api/auth"
	"github.com/medcenter/clinic-api/cache"
	"github.com/medcenter/clinic-api/mailer"
	"github.com/medcenter/clinic-api/models"
	"github.com/medcenter/clinic-api/storage"
)

// UserStore is the user persistence used by the handlers
type UserStore interface {
	CreateUser(ctx context.Context, u *models.User) error
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	FindPatientByStaffID(ctx context.Context, staffID string) (*models.User, error)
	ListUsers(ctx context.Context, f models.UserFilter) ([]models.User, error)
	ApproveUser(ctx context.Context, id int64) error
	DeleteUser(ctx context.Context, id int64) error
	UpdatePassword(ctx context.Context, id int64, hash string) error
	SetOTP(ctx context.Context, id int64, secret *string, expiresAt *time.Time) error
	SetSignature(ctx context.Context, id int64, signature *string) error
}

// AppointmentStore is the appointment persistence used by the handlers
type AppointmentStore interface {
	CreateAppointment(ctx context.Context, a *models.Appointment) error
	GetAppointment(ctx context.Context, id int64) (*models.Appointment, error)
	ListAppointments(ctx context.Context, f models.AppointmentFilter) ([]models.Appointment, error)
	UpdateAppointment(ctx context.Context, a *models.Appointment) error
	CompleteAppointment(ctx context.Context, a *models.Appointment, rx *models.Prescription) error
	DeleteAppointment(ctx context.Context, id int64) error
}

// PrescriptionStore is the prescription persistence used by the handlers
type PrescriptionStore interface {
	CreatePrescription(ctx context.Context, p *models.Prescription) error
	GetPrescription(ctx context.Context, id int64) (*models.Prescription, error)
	ListPrescriptions(ctx context.Context, f models.PrescriptionFilter) ([]models.Prescription, error)
	UpdatePrescriptionStatus(ctx context.Context, p *models.Prescription) error
}

// CertificateStore is the medical certificate persistence used by the handlers
type CertificateStore interface {
	CreateCertificate(ctx context.Context, m *models.MedicalCertificate) error
	GetCertificate(ctx context.Context, id int64) (*models.MedicalCertificate, error)
	ListCertificates(ctx context.Context, f models.CertificateFilter) ([]models.MedicalCertificate, error)
	UpdateCertificateDecision(ctx context.Context, m *models.MedicalCertificate) error
	CertificateStats(ctx context.Context) (models.CertificateStats, error)
}

// AuditLogStore reads back recorded security events
type AuditLogStore interface {
	ListAuditEvents(ctx context.Context, f models.AuditFilter) ([]models.AuditEvent, int, error)
}

// OTPIssuer generates and checks login codes
type OTPIssuer interface {
	Generate(account string) (secret, code string, err error)
	Validate(code, secret string) bool
}

// Auditor records security events
type Auditor interface {
	Record(c *fiber.Ctx, event string, userID int64, role string, details map[string]interface{})
}

// Deps bundles everything the handlers need
type Deps struct {
	Users         UserStore
	Appointments  AppointmentStore
	Prescriptions PrescriptionStore
	Certificates  CertificateStore
	AuditLog      AuditLogStore
	Cache         cache.Cache
	Mailer        mailer.Mailer
	Files         storage.Store
	Tokens        *auth.TokenManager
	OTP           OTPIssuer
	Audit         Auditor
	OTPTTL        time.Duration
	Now           func() time.Time
}

// Handler serves the REST API
type Handler struct {
	users         UserStore
	appointments  AppointmentStore
	prescriptions PrescriptionStore
	certificates  CertificateStore
	auditLog      AuditLogStore
	cache         cache.Cache
	mailer        mailer.Mailer
	files         storage.Store
	tokens        *auth.TokenManager
	otp           OTPIssuer
	audit         Auditor
	otpTTL        time.Duration
	now           func() time.Time
}

// New creates a Handler
func New(d Deps) *Handler {
	h := &Handler{
		users:         d.Users,
		appointments:  d.Appointments,
		prescriptions: d.Prescriptions,
		certificates:  d.Certificates,
		auditLog:      d.AuditLog,
		cache:         d.Cache,
		mailer:        d.Mailer,
		files:         d.Files,
		tokens:        d.Tokens,
		otp:           d.OTP,
		audit:         d.Audit,
		otpTTL:        d.OTPTTL,
		now:           d.Now,
	}
	if h.otpTTL == 0 {
		h.otpTTL = 5 * time.Minute
	}
	if h.now == nil {
		h.now = time.Now
	}
	return h
}

func (h *Handler) today() string {
	return h.now().Format(models.DateLayout)
}
