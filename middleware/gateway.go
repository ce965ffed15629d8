package middleware

import (
	"crypto/subtle"
	"strings"

	"github.com/gofiber/fiber/v2"

	"chessfam/logger"
)

// GatewayAuth accepts only requests carrying the gateway's bearer token.
// A raw token without the "Bearer " prefix is accepted too.
func GatewayAuth(expectedToken string, log *logger.Logger) fiber.Handler {
	if log == nil {
		log = logger.Nop()
	}
	expected := []byte(expectedToken)

	return func(c *fiber.Ctx) error {
		authHeader := c.Get(fiber.HeaderAuthorization)
		if authHeader == "" {
			log.Warn("missing gateway token", "path", c.Path())
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "gateway authentication token missing",
			})
		}

		token := strings.TrimPrefix(authHeader, "Bearer ")
		if len(expected) == 0 || subtle.ConstantTimeCompare([]byte(token), expected) != 1 {
			log.Warn("invalid gateway token", "path", c.Path())
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "invalid gateway authentication token",
			})
		}
		return c.Next()
	}
}
