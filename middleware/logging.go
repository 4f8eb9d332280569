package middleware

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/medcenter/clinic-api/apperrors"
	"github.com/medcenter/clinic-api/models"
	"github.com/medcenter/clinic-api/observability"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var sensitiveFields = []string{
	"password", "password_confirmation", "current_password", "new_password",
	"new_password_confirmation", "otp_code", "token", "signature",
}

// RequestLogger logs one line per request with latency and caller identity
func RequestLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		// errors are rendered by the app's ErrorHandler after this returns
		if err != nil {
			status = fiber.StatusInternalServerError
			if appErr, ok := apperrors.As(err); ok {
				status = appErr.HTTPStatus()
			} else if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			}
		}

		logger := observability.LoggerFromContext(c.UserContext())
		event := logger.WithLevel(levelFor(status)).
			Str("method", c.Method()).
			Str("path", c.Path()).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Str("ip", c.IP()).
			Str("user_agent", c.Get(fiber.HeaderUserAgent))

		if rid, ok := c.Locals("requestid").(string); ok {
			event = event.Str("request_id", rid)
		}
		if uid := CurrentUserID(c); uid != 0 {
			event = event.Int64("user_id", uid).Str("role", CurrentRole(c))
		}
		if status >= fiber.StatusBadRequest && isJSONWrite(c) {
			event = event.Str("body", filterSensitiveData(c.Body()))
		}
		event.Msg("request")

		return err
	}
}

func isJSONWrite(c *fiber.Ctx) bool {
	switch c.Method() {
	case fiber.MethodPost, fiber.MethodPut, fiber.MethodPatch:
		return c.Is("json")
	}
	return false
}

func levelFor(status int) zerolog.Level {
	switch {
	case status >= 500:
		return zerolog.ErrorLevel
	case status >= 400:
		return zerolog.WarnLevel
	default:
		return zerolog.InfoLevel
	}
}

// filterSensitiveData masks credential fields and truncates large bodies
func filterSensitiveData(body []byte) string {
	var data map[string]interface{}
	if err := json.Unmarshal(body, &data); err != nil {
		return truncate(string(body))
	}

	for _, field := range sensitiveFields {
		if _, exists := data[field]; exists {
			data[field] = "[FILTERED]"
		}
	}

	filtered, _ := json.Marshal(data)
	return truncate(string(filtered))
}

func truncate(s string) string {
	if len(s) > 1000 {
		return s[:1000] + "...[truncated]"
	}
	return s
}

// AuditStore persists audit events
type AuditStore interface {
	InsertAuditEvent(ctx context.Context, e models.AuditEvent) error
}

// AuditLogger records security events in the background so request latency
// is unaffected by the audit table.
type AuditLogger struct {
	store   AuditStore
	timeout time.Duration
}

// NewAuditLogger creates an AuditLogger
func NewAuditLogger(store AuditStore) *AuditLogger {
	return &AuditLogger{store: store, timeout: 5 * time.Second}
}

// Record queues event for the user on c. userID 0 records an anonymous event.
func (a *AuditLogger) Record(c *fiber.Ctx, event string, userID int64, role string, details map[string]interface{}) {
	e := models.AuditEvent{
		Event:   event,
		IP:      c.IP(),
		Details: details,
	}
	if userID != 0 {
		e.UserID = &userID
	}
	if role != "" {
		e.Role = &role
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
		defer cancel()
		if err := a.store.InsertAuditEvent(ctx, e); err != nil {
			log.Error().Err(err).Str("event", event).Msg("failed to save audit event")
		}
	}()
}
