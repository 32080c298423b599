package middleware

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/DibVibe/SmartCropAdvisory-sub000/internal/domain"
)

// ContextKey type for context keys
type ContextKey string

const (
	// Context keys
	ContextKeyUserID  ContextKey = "userID"
	ContextKeyIsStaff ContextKey = "isStaff"
	ContextKeyClaims  ContextKey = "claims"
	ContextKeyToken   ContextKey = "accessToken"
)

// TokenValidator validates access tokens
type TokenValidator interface {
	ValidateJWT(ctx context.Context, token string) (*domain.JWTClaims, error)
}

// AuthMiddleware handles authentication
type AuthMiddleware struct {
	validator TokenValidator
}

// NewAuthMiddleware creates a new auth middleware
func NewAuthMiddleware(validator TokenValidator) *AuthMiddleware {
	return &AuthMiddleware{
		validator: validator,
	}
}

// RequireJWT validates the bearer access token and stores the caller in locals
func (m *AuthMiddleware) RequireJWT() fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := extractBearerToken(c)
		if token == "" {
			return reject(c, fiber.StatusUnauthorized, "UNAUTHORIZED", "Authorization header required")
		}

		claims, err := m.validator.ValidateJWT(c.Context(), token)
		if err != nil {
			return reject(c, fiber.StatusUnauthorized, "UNAUTHORIZED", "Invalid or expired token")
		}

		userID, err := uuid.Parse(claims.UserID)
		if err != nil {
			return reject(c, fiber.StatusUnauthorized, "UNAUTHORIZED", "Invalid user ID in token")
		}

		c.Locals(string(ContextKeyUserID), userID)
		c.Locals(string(ContextKeyIsStaff), claims.IsStaff)
		c.Locals(string(ContextKeyClaims), claims)
		c.Locals(string(ContextKeyToken), token)

		return c.Next()
	}
}

// RequireStaff rejects callers that are not staff. It must run after RequireJWT.
func (m *AuthMiddleware) RequireStaff() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := GetUserID(c); !ok {
			return reject(c, fiber.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		}
		if !IsStaff(c) {
			return reject(c, fiber.StatusForbidden, "FORBIDDEN", "Staff access required")
		}
		return c.Next()
	}
}

// GetUserID gets the authenticated user ID from context
func GetUserID(c *fiber.Ctx) (uuid.UUID, bool) {
	id, ok := c.Locals(string(ContextKeyUserID)).(uuid.UUID)
	return id, ok
}

// IsStaff reports whether the authenticated user is staff
func IsStaff(c *fiber.Ctx) bool {
	staff, _ := c.Locals(string(ContextKeyIsStaff)).(bool)
	return staff
}

// GetClaims gets the validated access token claims from context
func GetClaims(c *fiber.Ctx) (*domain.JWTClaims, bool) {
	claims, ok := c.Locals(string(ContextKeyClaims)).(*domain.JWTClaims)
	return claims, ok && claims != nil
}

// extractBearerToken extracts the bearer token from the Authorization
// header. EventSource clients cannot set headers, so event streams may pass
// it as access_token instead.
func extractBearerToken(c *fiber.Ctx) string {
	auth := c.Get("Authorization")
	if auth == "" {
		if strings.Contains(c.Get(fiber.HeaderAccept), "text/event-stream") {
			return c.Query("access_token")
		}
		return ""
	}

	parts := strings.SplitN(auth, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}

	return strings.TrimSpace(parts[1])
}

func reject(c *fiber.Ctx, status int, code, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"success": false,
		"error":   message,
		"code":    code,
	})
}
