package middleware

import (
	"strconv"

	"github.com/Mohannad35/market-hub-sub000/internal/service"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const identityKey = "identity"

// NewIdentityMiddleware resolves the caller from the gateway-injected
// X-User-ID header or, for anonymous carts, the X-Session-Token header.
// Authentication itself happens upstream; these headers arrive already
// verified.
func NewIdentityMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var identity service.Identity

		if raw := c.Get("X-User-ID"); raw != "" {
			userID, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"error": "invalid X-User-ID header",
				})
			}
			identity.UserID = &userID
		}

		if raw := c.Get("X-Session-Token"); raw != "" {
			token, err := uuid.Parse(raw)
			if err != nil {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"error": "invalid X-Session-Token header",
				})
			}
			identity.SessionToken = &token
		}

		c.Locals(identityKey, identity)

		return c.Next()
	}
}

// Identity pulls the caller resolved by NewIdentityMiddleware.
func Identity(c *fiber.Ctx) service.Identity {
	identity, _ := c.Locals(identityKey).(service.Identity)
	return identity
}

// RequireUser rejects anonymous callers on endpoints that need an account.
func RequireUser() fiber.Handler {
	return func(c *fiber.Ctx) error {
		identity := Identity(c)
		if identity.UserID == nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "authentication required",
			})
		}

		return c.Next()
	}
}
