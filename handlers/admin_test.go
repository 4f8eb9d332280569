package handlers_test

import (
	"testing"

	"github.com/medcenter/clinic-api/auth"
	"github.com/medcenter/clinic-api/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestAdminApproval(t *testing.T) {
	nurse := &models.User{ID: 6, Name: "Nina", Email: "nina@example.com", Role: models.RoleNurse}

	t.Run("pending users are unapproved medical staff", func(t *testing.T) {
		s := newTestServer(t)
		s.users.On("ListUsers", mock.Anything, mock.MatchedBy(func(f models.UserFilter) bool {
			return f.Approved != nil && !*f.Approved && len(f.Roles) == 3
		})).Return([]models.User{*nurse}, nil)

		status, body := s.request(t, "GET", "/api/admin/pending-users", nil, s.token(t, 1, models.RoleAdmin))

		assert.Equal(t, 200, status)
		assert.Len(t, body["users"], 1)
	})

	t.Run("approve sets the flag", func(t *testing.T) {
		s := newTestServer(t)
		s.users.On("GetUserByID", mock.Anything, int64(6)).Return(nurse, nil)
		s.users.On("ApproveUser", mock.Anything, int64(6)).Return(nil)

		status, body := s.request(t, "POST", "/api/admin/approve-user/6", nil, s.token(t, 1, models.RoleAdmin))

		assert.Equal(t, 200, status)
		assert.Equal(t, true, body["user"].(map[string]interface{})["is_approved"])
		assert.Equal(t, []string{models.EventUserApproved}, s.audit.recorded())
		s.users.AssertExpectations(t)
	})

	t.Run("patients need no approval", func(t *testing.T) {
		s := newTestServer(t)
		s.users.On("GetUserByID", mock.Anything, int64(3)).Return(patient(3, "ST-3"), nil)

		status, _ := s.request(t, "DELETE", "/api/admin/reject-user/3", nil, s.token(t, 1, models.RoleAdmin))

		assert.Equal(t, 400, status)
		s.users.AssertNotCalled(t, "DeleteUser", mock.Anything, mock.Anything)
	})

	t.Run("reject deletes", func(t *testing.T) {
		s := newTestServer(t)
		s.users.On("GetUserByID", mock.Anything, int64(6)).Return(nurse, nil)
		s.users.On("DeleteUser", mock.Anything, int64(6)).Return(nil)

		status, _ := s.request(t, "DELETE", "/api/admin/reject-user/6", nil, s.token(t, 1, models.RoleAdmin))

		assert.Equal(t, 200, status)
		s.users.AssertExpectations(t)
	})

	t.Run("non admins are refused", func(t *testing.T) {
		s := newTestServer(t)

		status, _ := s.request(t, "POST", "/api/admin/approve-user/6", nil, s.token(t, 21, models.RoleDoctor))

		assert.Equal(t, 403, status)
	})
}

func TestAdminChangePassword(t *testing.T) {
	t.Run("medical staff only", func(t *testing.T) {
		s := newTestServer(t)
		s.users.On("GetUserByID", mock.Anything, int64(3)).Return(patient(3, "ST-3"), nil)

		status, _ := s.request(t, "PUT", "/api/admin/change-password/3",
			map[string]string{"new_password": "secret9"}, s.token(t, 1, models.RoleAdmin))

		assert.Equal(t, 403, status)
	})

	t.Run("sets a new hash", func(t *testing.T) {
		s := newTestServer(t)
		s.users.On("GetUserByID", mock.Anything, int64(6)).
			Return(&models.User{ID: 6, Name: "Nina", Role: models.RoleNurse}, nil)
		s.users.On("UpdatePassword", mock.Anything, int64(6), mock.MatchedBy(func(hash string) bool {
			return auth.CheckPassword(hash, "secret9")
		})).Return(nil)

		status, _ := s.request(t, "PUT", "/api/admin/change-password/6",
			map[string]string{"new_password": "secret9"}, s.token(t, 1, models.RoleAdmin))

		assert.Equal(t, 200, status)
		s.users.AssertExpectations(t)
	})

	t.Run("short password", func(t *testing.T) {
		s := newTestServer(t)

		status, _ := s.request(t, "PUT", "/api/admin/change-password/6",
			map[string]string{"new_password": "abc"}, s.token(t, 1, models.RoleAdmin))

		assert.Equal(t, 422, status)
	})
}

func TestAuditLogs(t *testing.T) {
	s := newTestServer(t)
	s.auditLog.On("ListAuditEvents", mock.Anything, models.AuditFilter{
		Event: models.EventLoginFailed, Page: 1, Limit: 50,
	}).Return([]models.AuditEvent{{ID: 1, Event: models.EventLoginFailed, IP: "10.0.0.1"}}, 1, nil)

	status, body := s.request(t, "GET", "/api/admin/audit-logs?event=login_failed&limit=1000", nil, s.token(t, 1, models.RoleAdmin))

	require.Equal(t, 200, status)
	assert.Equal(t, float64(1), body["total"])
	assert.Equal(t, float64(50), body["limit"])
	s.auditLog.AssertExpectations(t)
}

func TestSignature(t *testing.T) {
	s := newTestServer(t)
	token := s.token(t, 21, models.RoleDoctor)

	status, body := s.request(t, "POST", "/api/signature", map[string]string{"signature": "not-an-image"}, token)
	assert.Equal(t, 422, status)
	assert.Contains(t, body["errors"], "signature")

	status, _ = s.request(t, "POST", "/api/signature",
		map[string]string{"signature": "data:image/svg+xml;base64,PHN2Zz48L3N2Zz4="}, token)
	assert.Equal(t, 422, status)

	status, _ = s.request(t, "POST", "/api/signature",
		map[string]string{"signature": "data:image/png;base64,iVBORw0KGgo="}, token)
	assert.Equal(t, 422, status)
	s.users.AssertNotCalled(t, "SetSignature", mock.Anything, mock.Anything, mock.Anything)

	sig := signatureURI(t)
	s.users.On("SetSignature", mock.Anything, int64(21), mock.MatchedBy(func(v *string) bool {
		return v != nil && *v == sig
	})).Return(nil)
	status, _ = s.request(t, "POST", "/api/signature", map[string]string{"signature": sig}, token)
	assert.Equal(t, 200, status)

	s.users.On("SetSignature", mock.Anything, int64(21), (*string)(nil)).Return(nil)
	status, _ = s.request(t, "DELETE", "/api/signature", nil, token)
	assert.Equal(t, 200, status)
	s.users.AssertExpectations(t)
}

func TestListAllUsers(t *testing.T) {
	s := newTestServer(t)
	s.users.On("ListUsers", mock.Anything, models.UserFilter{ExcludeRoles: []string{models.RoleAdmin}}).
		Return([]models.User{*patient(3, "ST-3")}, nil)

	status, body := s.request(t, "GET", "/api/admin/users", nil, s.token(t, 1, models.RoleAdmin))

	require.Equal(t, 200, status)
	users := body["users"].([]interface{})
	require.Len(t, users, 1)
	assert.NotContains(t, users[0], "password")
}
