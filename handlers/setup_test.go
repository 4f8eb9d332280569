package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/medcenter/clinic-api/auth"
	"github.com/medcenter/clinic-api/cache"
	"github.com/medcenter/clinic-api/documents"
	"github.com/medcenter/clinic-api/handlers"
	"github.com/medcenter/clinic-api/mailer"
	"github.com/medcenter/clinic-api/models"
	"github.com/medcenter/clinic-api/routes"
	"github.com/medcenter/clinic-api/storage"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockUserStore struct {
	mock.Mock
}

func (m *MockUserStore) CreateUser(ctx context.Context, u *models.User) error {
	return m.Called(ctx, u).Error(0)
}

func (m *MockUserStore) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	args := m.Called(ctx, id)
	u, _ := args.Get(0).(*models.User)
	return u, args.Error(1)
}

func (m *MockUserStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	u, _ := args.Get(0).(*models.User)
	return u, args.Error(1)
}

func (m *MockUserStore) FindPatientByStaffID(ctx context.Context, staffID string) (*models.User, error) {
	args := m.Called(ctx, staffID)
	u, _ := args.Get(0).(*models.User)
	return u, args.Error(1)
}

func (m *MockUserStore) ListUsers(ctx context.Context, f models.UserFilter) ([]models.User, error) {
	args := m.Called(ctx, f)
	users, _ := args.Get(0).([]models.User)
	return users, args.Error(1)
}

func (m *MockUserStore) ApproveUser(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockUserStore) DeleteUser(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockUserStore) UpdatePassword(ctx context.Context, id int64, hash string) error {
	return m.Called(ctx, id, hash).Error(0)
}

func (m *MockUserStore) SetOTP(ctx context.Context, id int64, secret *string, expiresAt *time.Time) error {
	return m.Called(ctx, id, secret, expiresAt).Error(0)
}

func (m *MockUserStore) SetSignature(ctx context.Context, id int64, signature *string) error {
	return m.Called(ctx, id, signature).Error(0)
}

type MockAppointmentStore struct {
	mock.Mock
}

func (m *MockAppointmentStore) CreateAppointment(ctx context.Context, a *models.Appointment) error {
	return m.Called(ctx, a).Error(0)
}

func (m *MockAppointmentStore) GetAppointment(ctx context.Context, id int64) (*models.Appointment, error) {
	args := m.Called(ctx, id)
	a, _ := args.Get(0).(*models.Appointment)
	return a, args.Error(1)
}

func (m *MockAppointmentStore) ListAppointments(ctx context.Context, f models.AppointmentFilter) ([]models.Appointment, error) {
	args := m.Called(ctx, f)
	appts, _ := args.Get(0).([]models.Appointment)
	return appts, args.Error(1)
}

func (m *MockAppointmentStore) UpdateAppointment(ctx context.Context, a *models.Appointment) error {
	return m.Called(ctx, a).Error(0)
}

func (m *MockAppointmentStore) CompleteAppointment(ctx context.Context, a *models.Appointment, rx *models.Prescription) error {
	return m.Called(ctx, a, rx).Error(0)
}

func (m *MockAppointmentStore) DeleteAppointment(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

type MockPrescriptionStore struct {
	mock.Mock
}

func (m *MockPrescriptionStore) CreatePrescription(ctx context.Context, p *models.Prescription) error {
	return m.Called(ctx, p).Error(0)
}

func (m *MockPrescriptionStore) GetPrescription(ctx context.Context, id int64) (*models.Prescription, error) {
	args := m.Called(ctx, id)
	p, _ := args.Get(0).(*models.Prescription)
	return p, args.Error(1)
}

func (m *MockPrescriptionStore) ListPrescriptions(ctx context.Context, f models.PrescriptionFilter) ([]models.Prescription, error) {
	args := m.Called(ctx, f)
	list, _ := args.Get(0).([]models.Prescription)
	return list, args.Error(1)
}

func (m *MockPrescriptionStore) UpdatePrescriptionStatus(ctx context.Context, p *models.Prescription) error {
	return m.Called(ctx, p).Error(0)
}

type MockCertificateStore struct {
	mock.Mock
}

func (m *MockCertificateStore) CreateCertificate(ctx context.Context, c *models.MedicalCertificate) error {
	return m.Called(ctx, c).Error(0)
}

func (m *MockCertificateStore) GetCertificate(ctx context.Context, id int64) (*models.MedicalCertificate, error) {
	args := m.Called(ctx, id)
	c, _ := args.Get(0).(*models.MedicalCertificate)
	return c, args.Error(1)
}

func (m *MockCertificateStore) ListCertificates(ctx context.Context, f models.CertificateFilter) ([]models.MedicalCertificate, error) {
	args := m.Called(ctx, f)
	list, _ := args.Get(0).([]models.MedicalCertificate)
	return list, args.Error(1)
}

func (m *MockCertificateStore) UpdateCertificateDecision(ctx context.Context, c *models.MedicalCertificate) error {
	return m.Called(ctx, c).Error(0)
}

func (m *MockCertificateStore) CertificateStats(ctx context.Context) (models.CertificateStats, error) {
	args := m.Called(ctx)
	return args.Get(0).(models.CertificateStats), args.Error(1)
}

type MockAuditLogStore struct {
	mock.Mock
}

func (m *MockAuditLogStore) ListAuditEvents(ctx context.Context, f models.AuditFilter) ([]models.AuditEvent, int, error) {
	args := m.Called(ctx, f)
	events, _ := args.Get(0).([]models.AuditEvent)
	return events, args.Int(1), args.Error(2)
}

type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) Send(ctx context.Context, msg mailer.Message) error {
	return m.Called(ctx, msg).Error(0)
}

// fixedOTP hands out a known secret and code
type fixedOTP struct {
	secret string
	code   string
}

func (o fixedOTP) Generate(string) (string, string, error) {
	return o.secret, o.code, nil
}

func (o fixedOTP) Validate(code, secret string) bool {
	return code == o.code && secret == o.secret
}

type recordingAuditor struct {
	mu     sync.Mutex
	events []string
}

func (r *recordingAuditor) Record(_ *fiber.Ctx, event string, _ int64, _ string, _ map[string]interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *recordingAuditor) recorded() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}

var testNow = time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC)

const testToday = "2026-03-10"

type testServer struct {
	app           *fiber.App
	users         *MockUserStore
	appointments  *MockAppointmentStore
	prescriptions *MockPrescriptionStore
	certificates  *MockCertificateStore
	auditLog      *MockAuditLogStore
	mailer        *MockMailer
	cache         *cache.MemoryCache
	files         *storage.LocalStore
	tokens        *auth.TokenManager
	audit         *recordingAuditor
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	files, err := storage.NewLocalStore(t.TempDir())
	require.NoError(t, err)

	s := &testServer{
		users:         new(MockUserStore),
		appointments:  new(MockAppointmentStore),
		prescriptions: new(MockPrescriptionStore),
		certificates:  new(MockCertificateStore),
		auditLog:      new(MockAuditLogStore),
		mailer:        new(MockMailer),
		cache:         cache.NewMemoryCache(128, time.Hour),
		files:         files,
		tokens:        auth.NewTokenManager("test-secret", time.Hour, "clinic-test"),
		audit:         &recordingAuditor{},
	}

	h := handlers.New(handlers.Deps{
		Users:         s.users,
		Appointments:  s.appointments,
		Prescriptions: s.prescriptions,
		Certificates:  s.certificates,
		AuditLog:      s.auditLog,
		Cache:         s.cache,
		Mailer:        s.mailer,
		Files:         s.files,
		Tokens:        s.tokens,
		OTP:           fixedOTP{secret: "OTPSECRET", code: "123456"},
		Audit:         s.audit,
		OTPTTL:        5 * time.Minute,
		Now:           func() time.Time { return testNow },
	})

	s.app = fiber.New(fiber.Config{ErrorHandler: handlers.ErrorHandler})
	routes.SetupRoutes(s.app, h, routes.Options{
		AllowOrigins:     "*",
		ServiceName:      "clinic-api-test",
		Version:          "test",
		Tokens:           s.tokens,
		Cache:            s.cache,
		DisableRateLimit: true,
	})
	return s
}

func (s *testServer) token(t *testing.T, id int64, role string) string {
	t.Helper()
	token, _, err := s.tokens.Issue(id, role)
	require.NoError(t, err)
	return token
}

func (s *testServer) send(t *testing.T, req *http.Request, token string) *http.Response {
	t.Helper()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

// request sends a JSON request and decodes the JSON response
func (s *testServer) request(t *testing.T, method, path string, body interface{}, token string) (int, map[string]interface{}) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp := s.send(t, req, token)
	defer resp.Body.Close()

	out := map[string]interface{}{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

func strPtr(s string) *string { return &s }

func int64Ptr(v int64) *int64 { return &v }

func patient(id int64, staffID string) *models.User {
	return &models.User{
		ID: id, Name: "Ana Student", Email: "ana@example.com", Role: models.RoleStudent,
		StaffID: strPtr(staffID), IsApproved: true, CreatedAt: testNow,
	}
}

// signatureURI is a small PNG signature encoded as a data URI
func signatureURI(t *testing.T) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 40, 12))
	for x := 0; x < 40; x++ {
		img.Set(x, 6, color.Black)
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return documents.PNGDataURI(buf.Bytes())
}
