package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/medcenter/clinic-api/apperrors"
	"github.com/medcenter/clinic-api/observability"
)

// ErrorHandler renders errors returned by handlers and middleware
func ErrorHandler(c *fiber.Ctx, err error) error {
	if appErr, ok := apperrors.As(err); ok {
		status := appErr.HTTPStatus()
		body := fiber.Map{"success": false, "message": appErr.Message}
		if len(appErr.Fields) > 0 {
			body["errors"] = appErr.Fields
		}
		if status >= fiber.StatusInternalServerError {
			observability.LoggerFromContext(c.UserContext()).Error().
				Err(appErr).Str("path", c.Path()).Msg("request failed")
			// internal messages that wrap a cause are not for clients
			if appErr.Type == apperrors.ErrorTypeInternal && appErr.Err != nil {
				body["message"] = "Internal server error"
			}
		}
		return c.Status(status).JSON(body)
	}

	var fe *fiber.Error
	if errors.As(err, &fe) {
		return c.Status(fe.Code).JSON(fiber.Map{"success": false, "message": fe.Message})
	}

	observability.LoggerFromContext(c.UserContext()).Error().
		Err(err).Str("path", c.Path()).Msg("unhandled error")
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"success": false,
		"message": "Internal server error",
	})
}

// NotFound answers requests that matched no route
func NotFound(c *fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
		"success": false,
		"message": "Route not found",
		"path":    c.Path(),
		"method":  c.Method(),
	})
}
