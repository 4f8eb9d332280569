package routes

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/medcenter/clinic-api/auth"
	"github.com/medcenter/clinic-api/cache"
	"github.com/medcenter/clinic-api/handlers"
	"github.com/medcenter/clinic-api/middleware"
	"github.com/medcenter/clinic-api/models"
)

// Options carries the shared pieces the middleware chain needs
type Options struct {
	AllowOrigins string
	ServiceName  string
	Version      string
	Tokens       *auth.TokenManager
	Cache        cache.Cache
	// DisableRateLimit turns off request throttling, for tests
	DisableRateLimit bool
}

// SetupRoutes registers the middleware chain and every API route on app
func SetupRoutes(app *fiber.App, h *handlers.Handler, opts Options) {
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.Tracing(opts.ServiceName))
	app.Use(middleware.RequestLogger())
	app.Use(middleware.SecurityHeaders())
	app.Use(cors.New(cors.Config{
		AllowOrigins: opts.AllowOrigins,
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":    "ok",
			"service":   opts.ServiceName,
			"version":   opts.Version,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	})

	api := app.Group("/api")
	authLimit := func(c *fiber.Ctx) error { return c.Next() }
	if !opts.DisableRateLimit {
		api.Use(middleware.CreateRateLimiter(middleware.DefaultRateLimit, opts.Cache))
		authLimit = middleware.CreateRateLimiter(middleware.AuthRateLimit, opts.Cache)
	}

	// public
	api.Post("/register", h.Register)
	api.Post("/login", authLimit, h.Login)
	api.Post("/verify-otp", authLimit, h.VerifyOTP)
	api.Post("/resend-otp", authLimit, h.ResendOTP)

	protected := api.Group("", middleware.JWTMiddleware(opts.Tokens, opts.Cache))

	protected.Post("/logout", h.Logout)
	protected.Get("/me", h.Me)
	protected.Put("/change-password", h.ChangePassword)

	protected.Get("/signature", h.GetSignature)
	protected.Post("/signature", h.SaveSignature)
	protected.Delete("/signature", h.DeleteSignature)

	admin := protected.Group("/admin", middleware.RequireRole(models.RoleAdmin))
	admin.Get("/pending-users", h.PendingUsers)
	admin.Post("/approve-user/:id", h.ApproveUser)
	admin.Delete("/reject-user/:id", h.RejectUser)
	admin.Get("/users", h.ListAllUsers)
	admin.Put("/change-password/:id", h.AdminChangePassword)
	admin.Get("/audit-logs", h.AuditLogs)

	clinicians := middleware.RequireRole(models.RoleAdmin, models.RoleDoctor, models.RoleNurse)
	nurse := middleware.RequireRole(models.RoleNurse)
	doctor := middleware.RequireRole(models.RoleDoctor)
	pharmacist := middleware.RequireRole(models.RolePharmacist)
	patient := middleware.RequireRole(models.RoleStudent, models.RoleStaff)

	appointments := protected.Group("/appointments")
	appointments.Get("/", h.ListAppointments)
	appointments.Get("/search-user", clinicians, h.SearchPatient)
	appointments.Get("/history/:userId", h.PatientHistory)
	appointments.Get("/queue/today", clinicians, h.TodayQueue)
	appointments.Get("/report/daily", clinicians, h.DailyReport)
	appointments.Post("/", nurse, h.CreateAppointment)
	appointments.Get("/:id", h.GetAppointment)
	appointments.Put("/:id", clinicians, h.UpdateAppointment)
	appointments.Delete("/:id", middleware.RequireRole(models.RoleAdmin, models.RoleNurse), h.DeleteAppointment)
	appointments.Post("/:id/check-in", nurse, h.CheckIn)
	appointments.Post("/:id/start", middleware.RequireRole(models.RoleDoctor, models.RoleNurse), h.StartAppointment)
	appointments.Post("/:id/complete", doctor, h.CompleteAppointment)
	appointments.Post("/:id/cancel", clinicians, h.CancelAppointment)

	prescriptions := protected.Group("/prescriptions")
	prescriptions.Get("/", h.ListPrescriptions)
	prescriptions.Get("/my", h.MyPrescriptions)
	prescriptions.Get("/pending/today", pharmacist, h.PendingToday)
	prescriptions.Get("/patient/:staffId",
		middleware.RequireRole(models.RoleAdmin, models.RoleDoctor, models.RoleNurse, models.RolePharmacist),
		h.PatientPrescriptions)
	prescriptions.Post("/", doctor, h.CreatePrescription)
	prescriptions.Get("/:id", h.GetPrescription)
	prescriptions.Get("/:id/download", h.DownloadPrescription)
	prescriptions.Post("/:id/dispense", pharmacist, h.DispensePrescription)
	prescriptions.Post("/:id/complete", pharmacist, h.CompletePrescription)

	certificates := protected.Group("/medical-certificates")
	certificates.Get("/", h.ListCertificates)
	certificates.Get("/stats/overview", middleware.RequireRole(models.RoleAdmin), h.CertificateStats)
	certificates.Post("/", patient, h.CreateCertificate)
	certificates.Get("/:id", h.GetCertificate)
	certificates.Post("/:id/approve", doctor, h.ApproveCertificate)
	certificates.Post("/:id/reject", doctor, h.RejectCertificate)
	certificates.Get("/:id/download", h.DownloadCertificate)
	certificates.Get("/:id/document", h.CertificateDocument)

	labReports := protected.Group("/lab-reports")
	labReports.Get("/", h.ListLabReports)
	labReports.Get("/download/:appointmentId", h.DownloadLabReport)

	qr := protected.Group("/qr")
	qr.Post("/generate", patient, h.GenerateQRCode)
	qr.Get("/download", patient, h.DownloadQRCode)
	qr.Post("/verify", clinicians, h.VerifyQRCode)
	qr.Post("/create-appointment", nurse, h.CreateAppointmentFromQR)

	app.Use(handlers.NotFound)
}
