package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

const (
	localUserID    = "user_id"
	localUserRoles = "user_roles"

	RoleAdmin = "admin"
)

// UserContext copies the identity the gateway forwards (X-User-ID and
// X-User-Roles) into locals. It never rejects a request.
func UserContext() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var roles []string
		for _, r := range strings.Split(c.Get("X-User-Roles"), ",") {
			if r = strings.TrimSpace(r); r != "" {
				roles = append(roles, r)
			}
		}

		c.Locals(localUserID, strings.TrimSpace(c.Get("X-User-ID")))
		c.Locals(localUserRoles, roles)
		return c.Next()
	}
}

// RequireUser rejects requests without a forwarded user id.
func RequireUser() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if UserID(c) == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "missing X-User-ID",
			})
		}
		return c.Next()
	}
}

// RequireRole rejects users lacking role.
func RequireRole(role string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if UserID(c) == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "missing X-User-ID",
			})
		}
		if !HasRole(c, role) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "insufficient role",
			})
		}
		return c.Next()
	}
}

func UserID(c *fiber.Ctx) string {
	id, _ := c.Locals(localUserID).(string)
	return id
}

func Roles(c *fiber.Ctx) []string {
	roles, _ := c.Locals(localUserRoles).([]string)
	return roles
}

func HasRole(c *fiber.Ctx, role string) bool {
	for _, r := range Roles(c) {
		if strings.EqualFold(r, role) {
			return true
		}
	}
	return false
}
