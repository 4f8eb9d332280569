package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/medcenter/clinic-api/models"
)

// userResponse is the public view of a user
type userResponse struct {
	ID           int64   `json:"id"`
	Name         string  `json:"name"`
	Email        string  `json:"email"`
	Role         string  `json:"role"`
	StaffID      *string `json:"staff_id"`
	Phone        *string `json:"phone,omitempty"`
	IsApproved   bool    `json:"is_approved"`
	HasSignature bool    `json:"has_signature"`
	CreatedAt    string  `json:"created_at"`
}

func newUserResponse(u *models.User) userResponse {
	return userResponse{
		ID:           u.ID,
		Name:         u.Name,
		Email:        u.Email,
		Role:         u.Role,
		StaffID:      u.StaffID,
		Phone:        u.Phone,
		IsApproved:   u.IsApproved,
		HasSignature: u.HasSignature(),
		CreatedAt:    u.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

func newUserResponses(users []models.User) []userResponse {
	out := make([]userResponse, 0, len(users))
	for i := range users {
		out = append(out, newUserResponse(&users[i]))
	}
	return out
}

// ok writes a success envelope merged with data
func ok(c *fiber.Ctx, status int, data fiber.Map) error {
	body := fiber.Map{"success": true}
	for k, v := range data {
		body[k] = v
	}
	return c.Status(status).JSON(body)
}
