package handlers

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/medcenter/clinic-api/apperrors"
	"github.com/medcenter/clinic-api/auth"
	"github.com/medcenter/clinic-api/cache"
	"github.com/medcenter/clinic-api/documents"
	"github.com/medcenter/clinic-api/middleware"
	"github.com/medcenter/clinic-api/models"
	"github.com/rs/zerolog/log"
)

const (
	qrTokenTTL  = 30 * time.Minute
	qrImageSize = 300
)

// QRTokenKey is the cache key of a QR check-in token
func QRTokenKey(token string) string {
	return "qr_token_" + token
}

func (h *Handler) issueQRToken(c *fiber.Ctx) (string, models.QRUserData, []byte, error) {
	ctx := c.UserContext()
	user, err := h.users.GetUserByID(ctx, middleware.CurrentUserID(c))
	if err != nil {
		return "", models.QRUserData{}, nil, err
	}

	token, err := auth.RandomToken(32)
	if err != nil {
		return "", models.QRUserData{}, nil, apperrors.NewInternalError("failed to generate qr token", err)
	}

	data := models.QRUserData{ID: user.ID, Name: user.Name, Email: user.Email, Role: user.Role}
	if user.StaffID != nil {
		data.StaffID = *user.StaffID
	}
	if user.Phone != nil {
		data.Phone = *user.Phone
	}
	if err := cache.SetJSON(ctx, h.cache, QRTokenKey(token), data, qrTokenTTL); err != nil {
		return "", models.QRUserData{}, nil, apperrors.NewInternalError("failed to store qr token", err)
	}

	png, err := documents.QRCodePNG(token, qrImageSize)
	if err != nil {
		return "", models.QRUserData{}, nil, apperrors.NewInternalError("failed to render qr code", err)
	}
	return token, data, png, nil
}

// GenerateQRCode issues a check-in token for the current patient
func (h *Handler) GenerateQRCode(c *fiber.Ctx) error {
	token, data, png, err := h.issueQRToken(c)
	if err != nil {
		return err
	}
	return ok(c, fiber.StatusOK, fiber.Map{
		"qr_code":    documents.PNGDataURI(png),
		"token":      token,
		"expires_in": int(qrTokenTTL / time.Minute),
		"user_data":  data,
	})
}

// DownloadQRCode issues a check-in token and returns it as a PNG file
func (h *Handler) DownloadQRCode(c *fiber.Ctx) error {
	_, _, png, err := h.issueQRToken(c)
	if err != nil {
		return err
	}
	return sendFile(c, "medical-qr-code.png", "image/png", png)
}

func (h *Handler) lookupQRToken(c *fiber.Ctx, token string) (models.QRUserData, error) {
	var data models.QRUserData
	token = strings.TrimSpace(token)
	if token == "" {
		return data, apperrors.NewBadRequestError("QR token is required")
	}

	err := cache.GetJSON(c.UserContext(), h.cache, QRTokenKey(token), &data)
	if errors.Is(err, cache.ErrCacheMiss) {
		return data, apperrors.NewBadRequestError("Invalid or expired QR code")
	}
	if err != nil {
		return data, apperrors.NewInternalError("failed to read qr token", err)
	}
	return data, nil
}

// VerifyQRCode resolves a scanned token to the patient's current record
func (h *Handler) VerifyQRCode(c *fiber.Ctx) error {
	var req models.QRTokenRequest
	if err := bindOptional(c, &req); err != nil {
		return err
	}
	data, err := h.lookupQRToken(c, req.Token)
	if err != nil {
		return err
	}

	user, err := h.users.GetUserByID(c.UserContext(), data.ID)
	if apperrors.IsNotFound(err) {
		return apperrors.NewNotFoundError("User not found")
	}
	if err != nil {
		return err
	}
	return ok(c, fiber.StatusOK, fiber.Map{
		"message": "QR code verified successfully",
		"user":    newUserResponse(user),
	})
}

// CreateAppointmentFromQR books an appointment for a scanned patient and consumes the token
func (h *Handler) CreateAppointmentFromQR(c *fiber.Ctx) error {
	var req models.QRAppointmentRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	data, err := h.lookupQRToken(c, req.Token)
	if err != nil {
		return err
	}

	ctx := c.UserContext()
	if _, err := h.users.GetUserByID(ctx, data.ID); err != nil {
		if apperrors.IsNotFound(err) {
			return apperrors.NewNotFoundError("User not found")
		}
		return err
	}

	appt, err := h.bookAppointment(c, models.CreateAppointmentRequest{
		UserID:          data.ID,
		AppointmentDate: req.AppointmentDate,
		AppointmentTime: req.AppointmentTime,
		Reason:          req.Reason,
		Priority:        req.Priority,
	})
	if err != nil {
		return err
	}

	if err := h.cache.Delete(ctx, QRTokenKey(strings.TrimSpace(req.Token))); err != nil {
		log.Warn().Err(err).Msg("failed to consume qr token")
	}
	return ok(c, fiber.StatusCreated, fiber.Map{
		"message":     "Appointment created successfully from QR code",
		"appointment": appt,
	})
}
