package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/example/tumar/internal/config"
	"github.com/example/tumar/internal/utils"
)

const customerContextKey = "currentCustomerID"

// AuthMiddleware validates JWT tokens and loads the authenticated
// customer ID into context.
func AuthMiddleware(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "missing authorization header")
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid authorization header")
		}

		customerID, err := utils.ParseToken(cfg.JWTSecret, parts[1])
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid token")
		}

		c.Locals(customerContextKey, customerID)
		return c.Next()
	}
}

// GetCurrentCustomerID extracts the authenticated customer ID from context.
func GetCurrentCustomerID(c *fiber.Ctx) (uuid.UUID, bool) {
	value := c.Locals(customerContextKey)
	if value == nil {
		return uuid.Nil, false
	}

	if id, ok := value.(uuid.UUID); ok {
		return id, true
	}

	return uuid.Nil, false
}
