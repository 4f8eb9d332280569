package middleware

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/medcenter/clinic-api/apperrors"
	"github.com/medcenter/clinic-api/auth"
	"github.com/medcenter/clinic-api/cache"
	"github.com/rs/zerolog/log"
)

// Locals keys set by JWTMiddleware
const (
	LocalUserID = "user_id"
	LocalRole   = "user_role"
	LocalClaims = "claims"
)

// RevokedTokenKey is the cache key marking a token id as logged out
func RevokedTokenKey(jti string) string {
	return "revoked_jwt_" + jti
}

// JWTMiddleware validates the bearer token and stores its claims in Locals
func JWTMiddleware(tokens *auth.TokenManager, revoked cache.Cache) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		if header == "" {
			return apperrors.NewUnauthorizedError("Unauthenticated.")
		}

		tokenString := strings.TrimPrefix(header, "Bearer ")
		if tokenString == header || tokenString == "" {
			return apperrors.NewUnauthorizedError("Invalid authorization header format")
		}

		claims, err := tokens.Parse(tokenString)
		if err != nil {
			return apperrors.NewUnauthorizedError("Invalid or expired token")
		}

		isRevoked, err := revoked.Exists(c.UserContext(), RevokedTokenKey(claims.ID))
		if err != nil {
			log.Error().Err(err).Msg("token revocation check failed")
			return apperrors.NewInternalError("failed to verify token", err)
		}
		if isRevoked {
			return apperrors.NewUnauthorizedError("Token has been revoked")
		}

		c.Locals(LocalUserID, claims.UserID)
		c.Locals(LocalRole, claims.Role)
		c.Locals(LocalClaims, claims)

		return c.Next()
	}
}

// RequireRole allows the request only for the listed roles
func RequireRole(allowedRoles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		role := CurrentRole(c)
		for _, allowed := range allowedRoles {
			if role == allowed {
				return c.Next()
			}
		}
		return apperrors.NewForbiddenError("Unauthorized. Insufficient permissions.")
	}
}

// CurrentUserID returns the authenticated user's id, or 0
func CurrentUserID(c *fiber.Ctx) int64 {
	id, _ := c.Locals(LocalUserID).(int64)
	return id
}

// CurrentRole returns the authenticated user's role, or ""
func CurrentRole(c *fiber.Ctx) string {
	role, _ := c.Locals(LocalRole).(string)
	return role
}

// CurrentClaims returns the verified token claims
func CurrentClaims(c *fiber.Ctx) (*auth.Claims, error) {
	claims, ok := c.Locals(LocalClaims).(*auth.Claims)
	if !ok {
		return nil, errors.New("no claims in request context")
	}
	return claims, nil
}
