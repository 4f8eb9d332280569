package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/medcenter/clinic-api/documents"
	"github.com/medcenter/clinic-api/middleware"
	"github.com/medcenter/clinic-api/models"
)

// GetSignature returns the current user's signature image
func (h *Handler) GetSignature(c *fiber.Ctx) error {
	user, err := h.users.GetUserByID(c.UserContext(), middleware.CurrentUserID(c))
	if err != nil {
		return err
	}
	return ok(c, fiber.StatusOK, fiber.Map{
		"signature":     user.Signature,
		"has_signature": user.HasSignature(),
	})
}

// SaveSignature stores a data URI signature image for the current user
func (h *Handler) SaveSignature(c *fiber.Ctx) error {
	var req models.SignatureRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	if err := documents.CheckSignature(req.Signature); err != nil {
		return fieldError("signature", "The signature must be a base64 PNG, JPEG or GIF image data URI.")
	}

	if err := h.users.SetSignature(c.UserContext(), middleware.CurrentUserID(c), &req.Signature); err != nil {
		return err
	}
	return ok(c, fiber.StatusOK, fiber.Map{"message": "Signature saved successfully"})
}

// DeleteSignature removes the current user's signature image
func (h *Handler) DeleteSignature(c *fiber.Ctx) error {
	if err := h.users.SetSignature(c.UserContext(), middleware.CurrentUserID(c), nil); err != nil {
		return err
	}
	return ok(c, fiber.StatusOK, fiber.Map{"message": "Signature deleted successfully"})
}
