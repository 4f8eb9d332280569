package handlers_test

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/medcenter/clinic-api/apperrors"
	"github.com/medcenter/clinic-api/handlers"
	"github.com/medcenter/clinic-api/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestQRCheckIn(t *testing.T) {
	s := newTestServer(t)
	s.users.On("GetUserByID", mock.Anything, int64(3)).Return(patient(3, "ST-3"), nil)

	status, body := s.request(t, "POST", "/api/qr/generate", nil, s.token(t, 3, models.RoleStudent))
	require.Equal(t, 200, status)

	token := body["token"].(string)
	assert.Len(t, token, 64)
	assert.Equal(t, float64(30), body["expires_in"])
	assert.True(t, strings.HasPrefix(body["qr_code"].(string), "data:image/png;base64,"))
	assert.Equal(t, "ST-3", body["user_data"].(map[string]interface{})["staff_id"])

	exists, err := s.cache.Exists(context.Background(), handlers.QRTokenKey(token))
	require.NoError(t, err)
	assert.True(t, exists)

	nurse := s.token(t, 20, models.RoleNurse)

	status, body = s.request(t, "POST", "/api/qr/verify", map[string]string{"token": token}, nurse)
	assert.Equal(t, 200, status)
	assert.Equal(t, float64(3), body["user"].(map[string]interface{})["id"])

	s.appointments.On("CreateAppointment", mock.Anything, mock.MatchedBy(func(a *models.Appointment) bool {
		return a.UserID == 3 && a.CreatedBy == 20
	})).Run(func(args mock.Arguments) {
		args.Get(1).(*models.Appointment).ID = 8
	}).Return(nil)
	s.appointments.On("GetAppointment", mock.Anything, int64(8)).Return(appointment(8, models.AppointmentPending), nil)

	status, _ = s.request(t, "POST", "/api/qr/create-appointment", map[string]string{
		"token": token, "appointment_date": testToday, "appointment_time": "11:15", "priority": "normal",
	}, nurse)
	assert.Equal(t, 201, status)

	status, body = s.request(t, "POST", "/api/qr/verify", map[string]string{"token": token}, nurse)
	assert.Equal(t, 400, status)
	assert.Equal(t, "Invalid or expired QR code", body["message"])
}

func TestQRVerify(t *testing.T) {
	t.Run("token is required", func(t *testing.T) {
		s := newTestServer(t)

		status, _ := s.request(t, "POST", "/api/qr/verify", map[string]string{}, s.token(t, 20, models.RoleNurse))

		assert.Equal(t, 400, status)
	})

	t.Run("deleted user", func(t *testing.T) {
		s := newTestServer(t)
		s.users.On("GetUserByID", mock.Anything, int64(3)).Return(patient(3, "ST-3"), nil).Once()
		s.users.On("GetUserByID", mock.Anything, int64(3)).Return(nil, apperrors.NewNotFoundError("user not found"))

		_, body := s.request(t, "POST", "/api/qr/generate", nil, s.token(t, 3, models.RoleStudent))
		status, _ := s.request(t, "POST", "/api/qr/verify", map[string]string{"token": body["token"].(string)},
			s.token(t, 20, models.RoleNurse))

		assert.Equal(t, 404, status)
	})

	t.Run("patients cannot verify", func(t *testing.T) {
		s := newTestServer(t)

		status, _ := s.request(t, "POST", "/api/qr/verify", map[string]string{"token": "x"}, s.token(t, 3, models.RoleStudent))

		assert.Equal(t, 403, status)
	})
}

func TestQRDownload(t *testing.T) {
	s := newTestServer(t)
	s.users.On("GetUserByID", mock.Anything, int64(4)).Return(patient(4, "SF-4"), nil)

	resp := s.send(t, httptest.NewRequest("GET", "/api/qr/download", nil), s.token(t, 4, models.RoleStaff))
	resp.Body.Close()

	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "medical-qr-code.png")
}
