package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/medcenter/clinic-api/apperrors"
	"github.com/medcenter/clinic-api/auth"
	"github.com/medcenter/clinic-api/mailer"
	"github.com/medcenter/clinic-api/middleware"
	"github.com/medcenter/clinic-api/models"
	"github.com/rs/zerolog/log"
)

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// Register creates an account. Medical staff wait for admin approval.
func (h *Handler) Register(c *fiber.Ctx) error {
	var req models.RegisterRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return apperrors.NewInternalError("failed to hash password", err)
	}

	user := &models.User{
		Name:       strings.TrimSpace(req.Name),
		Email:      strings.ToLower(strings.TrimSpace(req.Email)),
		Password:   hash,
		Role:       req.Role,
		StaffID:    optional(req.StaffID),
		Phone:      optional(req.Phone),
		IsApproved: !models.NeedsApproval(req.Role),
	}
	if err := h.users.CreateUser(c.UserContext(), user); err != nil {
		return err
	}

	message := "Registration successful. You can now log in."
	if !user.IsApproved {
		message = "Registration successful. Your account is pending admin approval."
	}
	return ok(c, fiber.StatusCreated, fiber.Map{
		"message": message,
		"user": fiber.Map{
			"id":          user.ID,
			"name":        user.Name,
			"email":       user.Email,
			"role":        user.Role,
			"is_approved": user.IsApproved,
		},
	})
}

// Login checks credentials. Medical staff receive an emailed OTP instead of a token.
func (h *Handler) Login(c *fiber.Ctx) error {
	var req models.LoginRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	user, err := h.users.GetUserByEmail(c.UserContext(), strings.TrimSpace(req.Email))
	if err != nil && !apperrors.IsNotFound(err) {
		return err
	}
	if user == nil || !auth.CheckPassword(user.Password, req.Password) {
		h.audit.Record(c, models.EventLoginFailed, 0, "", map[string]interface{}{"email": req.Email})
		return apperrors.NewUnauthorizedError("Invalid credentials")
	}

	if !user.IsApproved {
		return apperrors.NewForbiddenError("Your account is pending approval by an administrator.")
	}

	if models.NeedsApproval(user.Role) {
		if err := h.sendOTP(c, user); err != nil {
			return err
		}
		return ok(c, fiber.StatusOK, fiber.Map{
			"requires_otp": true,
			"message":      "OTP sent to your email. Please verify to continue.",
			"user_id":      user.ID,
			"email":        user.Email,
			"role":         user.Role,
		})
	}

	return h.issueToken(c, user, "Login successful", models.EventLogin)
}

// VerifyOTP completes a medical staff login
func (h *Handler) VerifyOTP(c *fiber.Ctx) error {
	var req models.VerifyOTPRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	ctx := c.UserContext()
	user, err := h.users.GetUserByID(ctx, req.UserID)
	if apperrors.IsNotFound(err) {
		return fieldError("user_id", "The selected user id is invalid.")
	}
	if err != nil {
		return err
	}

	if user.OTPSecret == nil || user.OTPExpiresAt == nil {
		return apperrors.NewBadRequestError("No OTP found. Please request a new one.")
	}
	if h.now().After(*user.OTPExpiresAt) {
		if err := h.users.SetOTP(ctx, user.ID, nil, nil); err != nil {
			return err
		}
		return apperrors.NewBadRequestError("OTP has expired. Please request a new one.")
	}
	if !h.otp.Validate(req.OTPCode, *user.OTPSecret) {
		h.audit.Record(c, models.EventOTPFailed, user.ID, user.Role, nil)
		return apperrors.NewUnauthorizedError("Invalid OTP code")
	}

	if err := h.users.SetOTP(ctx, user.ID, nil, nil); err != nil {
		return err
	}
	return h.issueToken(c, user, "Login successful", models.EventOTPVerified)
}

// ResendOTP issues a fresh code to a medical staff member
func (h *Handler) ResendOTP(c *fiber.Ctx) error {
	var req models.ResendOTPRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	user, err := h.users.GetUserByID(c.UserContext(), req.UserID)
	if apperrors.IsNotFound(err) {
		return fieldError("user_id", "The selected user id is invalid.")
	}
	if err != nil {
		return err
	}
	if !models.NeedsApproval(user.Role) {
		return apperrors.NewBadRequestError("OTP is not required for this user.")
	}
	if !user.IsApproved {
		return apperrors.NewForbiddenError("Your account is pending approval by an administrator.")
	}

	if err := h.sendOTP(c, user); err != nil {
		return err
	}
	return ok(c, fiber.StatusOK, fiber.Map{"message": "A new OTP has been sent to your email."})
}

func (h *Handler) sendOTP(c *fiber.Ctx, user *models.User) error {
	secret, code, err := h.otp.Generate(user.Email)
	if err != nil {
		return apperrors.NewInternalError("failed to generate otp", err)
	}
	expiresAt := h.now().Add(h.otpTTL)

	ctx := c.UserContext()
	if err := h.users.SetOTP(ctx, user.ID, &secret, &expiresAt); err != nil {
		return err
	}

	if err := h.mailer.Send(ctx, mailer.OTPMessage(user.Email, user.Name, code, h.otpTTL)); err != nil {
		log.Error().Err(err).Int64("user_id", user.ID).Msg("failed to send otp email")
		return apperrors.NewInternalError("Failed to send OTP email. Please try again.", nil)
	}
	return nil
}

func (h *Handler) issueToken(c *fiber.Ctx, user *models.User, message, event string) error {
	token, _, err := h.tokens.Issue(user.ID, user.Role)
	if err != nil {
		return apperrors.NewInternalError("failed to issue token", err)
	}
	h.audit.Record(c, event, user.ID, user.Role, nil)

	return ok(c, fiber.StatusOK, fiber.Map{
		"message": message,
		"user":    newUserResponse(user),
		"token":   token,
	})
}

// Logout revokes the presented token until it would have expired
func (h *Handler) Logout(c *fiber.Ctx) error {
	claims, err := middleware.CurrentClaims(c)
	if err != nil {
		return apperrors.NewUnauthorizedError("Unauthenticated.")
	}

	ttl := h.tokens.Remaining(claims)
	if ttl > 0 {
		if err := h.cache.Set(c.UserContext(), middleware.RevokedTokenKey(claims.ID), []byte("1"), ttl); err != nil {
			return apperrors.NewInternalError("failed to revoke token", err)
		}
	}
	h.audit.Record(c, models.EventLogout, claims.UserID, claims.Role, nil)

	return ok(c, fiber.StatusOK, fiber.Map{"message": "Logged out successfully"})
}

// Me returns the authenticated user
func (h *Handler) Me(c *fiber.Ctx) error {
	user, err := h.users.GetUserByID(c.UserContext(), middleware.CurrentUserID(c))
	if err != nil {
		return err
	}
	return ok(c, fiber.StatusOK, fiber.Map{"user": newUserResponse(user)})
}

// ChangePassword lets a user replace their own password
func (h *Handler) ChangePassword(c *fiber.Ctx) error {
	var req models.ChangePasswordRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	ctx := c.UserContext()
	user, err := h.users.GetUserByID(ctx, middleware.CurrentUserID(c))
	if err != nil {
		return err
	}
	if !auth.CheckPassword(user.Password, req.CurrentPassword) {
		return apperrors.NewUnauthorizedError("Current password is incorrect")
	}

	hash, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		return apperrors.NewInternalError("failed to hash password", err)
	}
	if err := h.users.UpdatePassword(ctx, user.ID, hash); err != nil {
		return err
	}
	h.audit.Record(c, models.EventPasswordChanged, user.ID, user.Role, nil)

	return ok(c, fiber.StatusOK, fiber.Map{"message": "Password changed successfully"})
}
