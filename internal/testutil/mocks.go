// Package testutil provides shared test utilities for the SmartCrop API.
package testutil

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/DibVibe/SmartCropAdvisory-sub000/internal/domain"
	"github.com/DibVibe/SmartCropAdvisory-sub000/internal/middleware"
)

// TestUserMiddleware creates a middleware that authenticates every request
// as userID. Use this in tests to skip token validation.
func TestUserMiddleware(userID uuid.UUID) fiber.Handler {
	return testCaller(userID, false)
}

// TestStaffMiddleware authenticates every request as a staff user
func TestStaffMiddleware(userID uuid.UUID) fiber.Handler {
	return testCaller(userID, true)
}

func testCaller(userID uuid.UUID, staff bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals(string(middleware.ContextKeyUserID), userID)
		c.Locals(string(middleware.ContextKeyIsStaff), staff)
		c.Locals(string(middleware.ContextKeyClaims), &domain.JWTClaims{
			UserID:  userID.String(),
			IsStaff: staff,
		})
		return c.Next()
	}
}
