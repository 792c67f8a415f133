package auth

import (
	"strings"

	"github.com/adi-uchiha/jems/pkg/kernel"
	"github.com/gofiber/fiber/v2"
)

const localsUserIDKey = "auth_user_id"

// Middleware validates bearer tokens and stores the caller identity in locals
func Middleware(tokenService *TokenService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "Missing authorization header")
		}

		// Expected format: "Bearer <token>"
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			return fiber.NewError(fiber.StatusUnauthorized, "Invalid authorization format")
		}

		claims, err := tokenService.Validate(parts[1])
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "Invalid or expired token")
		}

		c.Locals(localsUserIDKey, claims.UserID)
		return c.Next()
	}
}

// GetUserID extracts the authenticated user ID from the request context
func GetUserID(c *fiber.Ctx) (kernel.UserID, bool) {
	userID, ok := c.Locals(localsUserIDKey).(kernel.UserID)
	return userID, ok
}
