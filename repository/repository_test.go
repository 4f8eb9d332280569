package repository

import (
	"context"
	"os"
	"sort"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/medcenter/clinic-api/apperrors"
	"github.com/medcenter/clinic-api/config"
	"github.com/medcenter/clinic-api/database"
	"github.com/medcenter/clinic-api/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestStore connects to DATABASE_URL, applies the schema and empties every table.
func newTestStore(t *testing.T) *Store {
	t.Helper()
	url := os.Getenv("DATABASE_URL")
	if url == "" {
		t.Skip("DATABASE_URL not set; skipping integration test")
	}

	ctx := context.Background()
	pool, err := database.Connect(ctx, config.DatabaseConfig{
		URL:             url,
		MaxConns:        10,
		MinConns:        1,
		MaxConnLifetime: time.Hour,
		MaxConnIdleTime: time.Minute,
	})
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, database.Migrate(ctx, pool))
	_, err = pool.Exec(ctx, `TRUNCATE audit_logs, medical_certificates, prescriptions, appointments, users RESTART IDENTITY CASCADE`)
	require.NoError(t, err)

	return New(pool)
}

func strPtr(s string) *string { return &s }

func createUser(t *testing.T, s *Store, email, role string, staffID *string) *models.User {
	t.Helper()
	u := &models.User{
		Name:       "User " + email,
		Email:      email,
		Password:   "hash",
		Role:       role,
		StaffID:    staffID,
		IsApproved: !models.NeedsApproval(role),
	}
	require.NoError(t, s.CreateUser(context.Background(), u))
	return u
}

func TestStore_Users(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	student := createUser(t, s, "student@example.com", models.RoleStudent, strPtr("ST-1"))
	doctor := createUser(t, s, "doctor@example.com", models.RoleDoctor, nil)
	createUser(t, s, "admin@example.com", models.RoleAdmin, nil)

	t.Run("duplicate email", func(t *testing.T) {
		err := s.CreateUser(ctx, &models.User{Name: "x", Email: "STUDENT@example.com", Password: "h", Role: models.RoleStaff})
		appErr, ok := apperrors.As(err)
		if assert.True(t, ok) && appErr.Type == apperrors.ErrorTypeValidation {
			assert.Contains(t, appErr.Fields, "email")
		}
	})

	t.Run("lookup by email and staff id", func(t *testing.T) {
		u, err := s.GetUserByEmail(ctx, "Student@Example.com")
		require.NoError(t, err)
		assert.Equal(t, student.ID, u.ID)

		u, err = s.FindPatientByStaffID(ctx, "ST-1")
		require.NoError(t, err)
		assert.Equal(t, student.ID, u.ID)

		_, err = s.FindPatientByStaffID(ctx, "NOPE")
		assert.True(t, apperrors.IsNotFound(err))
	})

	t.Run("pending medical staff", func(t *testing.T) {
		approved := false
		pending, err := s.ListUsers(ctx, models.UserFilter{
			Roles:    []string{models.RoleDoctor, models.RoleNurse, models.RolePharmacist},
			Approved: &approved,
		})
		require.NoError(t, err)
		require.Len(t, pending, 1)
		assert.Equal(t, doctor.ID, pending[0].ID)

		require.NoError(t, s.ApproveUser(ctx, doctor.ID))
		u, err := s.GetUserByID(ctx, doctor.ID)
		require.NoError(t, err)
		assert.True(t, u.IsApproved)
	})

	t.Run("non admin listing", func(t *testing.T) {
		users, err := s.ListUsers(ctx, models.UserFilter{ExcludeRoles: []string{models.RoleAdmin}})
		require.NoError(t, err)
		assert.Len(t, users, 2)
	})

	t.Run("otp set and clear", func(t *testing.T) {
		exp := time.Now().Add(5 * time.Minute)
		require.NoError(t, s.SetOTP(ctx, doctor.ID, strPtr("SECRET"), &exp))
		u, err := s.GetUserByID(ctx, doctor.ID)
		require.NoError(t, err)
		require.NotNil(t, u.OTPSecret)
		assert.Equal(t, "SECRET", *u.OTPSecret)

		require.NoError(t, s.SetOTP(ctx, doctor.ID, nil, nil))
		u, err = s.GetUserByID(ctx, doctor.ID)
		require.NoError(t, err)
		assert.Nil(t, u.OTPSecret)
		assert.Nil(t, u.OTPExpiresAt)
	})

	t.Run("delete missing user", func(t *testing.T) {
		assert.True(t, apperrors.IsNotFound(s.DeleteUser(ctx, 9999)))
	})
}

func TestStore_AppointmentNumbersAreUnique(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	patient := createUser(t, s, "p@example.com", models.RoleStaff, strPtr("SF-1"))
	nurse := createUser(t, s, "n@example.com", models.RoleNurse, nil)

	const n = 10
	numbers := make([]int, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			a := &models.Appointment{
				UserID: patient.ID, AppointmentDate: "2026-03-02", AppointmentTime: "09:00",
				Status: models.AppointmentPending, Priority: models.PriorityNormal, CreatedBy: nurse.ID,
			}
			assert.NoError(t, s.CreateAppointment(ctx, a))
			numbers[i] = a.AppointmentNumber
		}(i)
	}
	wg.Wait()

	sort.Ints(numbers)
	for i, num := range numbers {
		assert.Equal(t, i+1, num)
	}
}

func TestStore_QueueAndCompletion(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	patient := createUser(t, s, "p@example.com", models.RoleStudent, strPtr("ST-9"))
	nurse := createUser(t, s, "n@example.com", models.RoleNurse, nil)
	doctor := createUser(t, s, "d@example.com", models.RoleDoctor, nil)

	mk := func(priority, at string) *models.Appointment {
		a := &models.Appointment{
			UserID: patient.ID, AppointmentDate: "2026-03-02", AppointmentTime: at,
			Status: models.AppointmentPending, Priority: priority, CreatedBy: nurse.ID,
		}
		require.NoError(t, s.CreateAppointment(ctx, a))
		return a
	}
	first := mk(models.PriorityNormal, "08:00")
	urgent := mk(models.PriorityUrgent, "10:00")
	mk(models.PriorityNormal, "09:00")

	queue, err := s.ListAppointments(ctx, models.AppointmentFilter{
		Date:     "2026-03-02",
		Statuses: []string{models.AppointmentPending, models.AppointmentCheckedIn, models.AppointmentInProgress},
		Order:    models.OrderQueue,
	})
	require.NoError(t, err)
	require.Len(t, queue, 3)
	assert.Equal(t, urgent.ID, queue[0].ID)
	assert.Equal(t, first.ID, queue[1].ID)
	assert.Equal(t, "ST-9", *queue[0].User.StaffID)

	now := time.Now()
	first.Status = models.AppointmentCompleted
	first.MedicalNotes = strPtr("Viral infection")
	first.LabReports = strPtr("CBC normal")
	first.CompletedBy = &doctor.ID
	first.CompletedAt = &now
	rx := &models.Prescription{
		AppointmentID: first.ID, PatientID: patient.ID, DoctorID: doctor.ID,
		Diagnosis: "Viral infection", Medications: "Paracetamol", Status: models.PrescriptionPending,
	}
	require.NoError(t, s.CompleteAppointment(ctx, first, rx))
	assert.NotZero(t, rx.ID)

	reports, err := s.ListAppointments(ctx, models.AppointmentFilter{
		UserID: patient.ID, Statuses: []string{models.AppointmentCompleted}, WithLabReport: true,
		Order: models.OrderCompletedDesc,
	})
	require.NoError(t, err)
	require.Len(t, reports, 1)
	require.NotNil(t, reports[0].Completer)
	assert.Equal(t, doctor.Name, reports[0].Completer.Name)

	got, err := s.GetPrescription(ctx, rx.ID)
	require.NoError(t, err)
	assert.Equal(t, first.AppointmentNumber, *got.AppointmentNumber)
	assert.Equal(t, models.PrescriptionPending, got.Status)
}

func TestStore_Certificates(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	student := createUser(t, s, "s@example.com", models.RoleStudent, strPtr("ST-4"))
	doctor := createUser(t, s, "d@example.com", models.RoleDoctor, nil)

	cert := &models.MedicalCertificate{
		UserID: student.ID, Reason: "Flu", StartDate: "2026-03-02", EndDate: "2026-03-04",
		DaysRequested: 3, Status: models.CertificatePending,
	}
	require.NoError(t, s.CreateCertificate(ctx, cert))

	now := time.Now()
	cert.Status = models.CertificateApproved
	cert.DoctorID = &doctor.ID
	cert.ApprovedAt = &now
	require.NoError(t, s.UpdateCertificateDecision(ctx, cert))

	found, err := s.ListCertificates(ctx, models.CertificateFilter{Search: "ST-4"})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "2026-03-04", found[0].EndDate)
	require.NotNil(t, found[0].Doctor)

	byID, err := s.ListCertificates(ctx, models.CertificateFilter{Search: strconv.FormatInt(cert.ID, 10)})
	require.NoError(t, err)
	assert.Len(t, byID, 1)

	day := 24 * time.Hour
	recent, err := s.ListCertificates(ctx, models.CertificateFilter{
		CreatedFrom: now.Add(-day).Format(models.DateLayout),
		CreatedTo:   now.Add(day).Format(models.DateLayout),
	})
	require.NoError(t, err)
	assert.Len(t, recent, 1)

	older, err := s.ListCertificates(ctx, models.CertificateFilter{CreatedTo: "2000-01-01"})
	require.NoError(t, err)
	assert.Empty(t, older)

	mine, err := s.ListCertificates(ctx, models.CertificateFilter{PendingOrDoctor: doctor.ID})
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	stats, err := s.CertificateStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.CertificateStats{Total: 1, Approved: 1}, stats)
}

func TestStore_AuditLog(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	student := createUser(t, s, "s@example.com", models.RoleStudent, strPtr("ST-5"))

	require.NoError(t, s.InsertAuditEvent(ctx, models.AuditEvent{
		Event: models.EventLogin, UserID: &student.ID, IP: "127.0.0.1",
		Details: map[string]interface{}{"email": student.Email},
	}))
	require.NoError(t, s.InsertAuditEvent(ctx, models.AuditEvent{Event: models.EventLoginFailed, IP: "127.0.0.1"}))

	events, total, err := s.ListAuditEvents(ctx, models.AuditFilter{Event: models.EventLogin, Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, events, 1)
	assert.Equal(t, student.Email, events[0].Details["email"])

	events, total, err = s.ListAuditEvents(ctx, models.AuditFilter{Page: 2, Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, events, 1)
	assert.Equal(t, models.EventLogin, events[0].Event)
}
