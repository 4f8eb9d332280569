package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/medcenter/clinic-api/apperrors"
	"github.com/medcenter/clinic-api/auth"
	"github.com/medcenter/clinic-api/middleware"
	"github.com/medcenter/clinic-api/models"
)

var medicalRoles = []string{models.RoleDoctor, models.RoleNurse, models.RolePharmacist}

// PendingUsers lists medical staff waiting for approval
func (h *Handler) PendingUsers(c *fiber.Ctx) error {
	approved := false
	users, err := h.users.ListUsers(c.UserContext(), models.UserFilter{Roles: medicalRoles, Approved: &approved})
	if err != nil {
		return err
	}
	return ok(c, fiber.StatusOK, fiber.Map{"users": newUserResponses(users)})
}

// ListAllUsers lists every non-admin account
func (h *Handler) ListAllUsers(c *fiber.Ctx) error {
	users, err := h.users.ListUsers(c.UserContext(), models.UserFilter{ExcludeRoles: []string{models.RoleAdmin}})
	if err != nil {
		return err
	}
	return ok(c, fiber.StatusOK, fiber.Map{"users": newUserResponses(users)})
}

func (h *Handler) approvalTarget(c *fiber.Ctx) (*models.User, error) {
	id, err := paramID(c, "id")
	if err != nil {
		return nil, err
	}
	user, err := h.users.GetUserByID(c.UserContext(), id)
	if err != nil {
		return nil, err
	}
	if !models.NeedsApproval(user.Role) {
		return nil, apperrors.NewBadRequestError("This user does not require approval")
	}
	return user, nil
}

// ApproveUser activates a pending medical staff account
func (h *Handler) ApproveUser(c *fiber.Ctx) error {
	user, err := h.approvalTarget(c)
	if err != nil {
		return err
	}
	if err := h.users.ApproveUser(c.UserContext(), user.ID); err != nil {
		return err
	}
	user.IsApproved = true
	h.audit.Record(c, models.EventUserApproved, middleware.CurrentUserID(c), middleware.CurrentRole(c),
		map[string]interface{}{"target_user_id": user.ID, "target_role": user.Role})

	return ok(c, fiber.StatusOK, fiber.Map{
		"message": "User approved successfully",
		"user":    newUserResponse(user),
	})
}

// RejectUser deletes a pending medical staff account
func (h *Handler) RejectUser(c *fiber.Ctx) error {
	user, err := h.approvalTarget(c)
	if err != nil {
		return err
	}
	if err := h.users.DeleteUser(c.UserContext(), user.ID); err != nil {
		return err
	}
	h.audit.Record(c, models.EventUserRejected, middleware.CurrentUserID(c), middleware.CurrentRole(c),
		map[string]interface{}{"target_user_id": user.ID, "target_email": user.Email})

	return ok(c, fiber.StatusOK, fiber.Map{"message": "User rejected and removed successfully"})
}

// AdminChangePassword resets a medical staff member's password
func (h *Handler) AdminChangePassword(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req models.AdminSetPasswordRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	ctx := c.UserContext()
	user, err := h.users.GetUserByID(ctx, id)
	if err != nil {
		return err
	}
	if !models.NeedsApproval(user.Role) {
		return apperrors.NewForbiddenError("Can only change passwords for medical staff")
	}

	hash, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		return apperrors.NewInternalError("failed to hash password", err)
	}
	if err := h.users.UpdatePassword(ctx, user.ID, hash); err != nil {
		return err
	}
	h.audit.Record(c, models.EventAdminSetPassword, middleware.CurrentUserID(c), middleware.CurrentRole(c),
		map[string]interface{}{"target_user_id": user.ID})

	return ok(c, fiber.StatusOK, fiber.Map{"message": "Password changed successfully for " + user.Name})
}

// AuditLogs pages through recorded security events
func (h *Handler) AuditLogs(c *fiber.Ctx) error {
	filter := models.AuditFilter{
		Event:  c.Query("event"),
		UserID: int64(c.QueryInt("user_id")),
		From:   c.Query("from"),
		To:     c.Query("to"),
		Page:   c.QueryInt("page", 1),
		Limit:  c.QueryInt("limit", 50),
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 || filter.Limit > 200 {
		filter.Limit = 50
	}

	events, total, err := h.auditLog.ListAuditEvents(c.UserContext(), filter)
	if err != nil {
		return err
	}
	return ok(c, fiber.StatusOK, fiber.Map{
		"logs":  events,
		"total": total,
		"page":  filter.Page,
		"limit": filter.Limit,
	})
}
