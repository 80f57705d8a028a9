package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/upmail/upmail/internal/web/session"
)

// LocalPermissions is the fiber.Locals key holding the granted permission names.
const LocalPermissions = "permissions"

const (
	msgUnauthorized = "Unauthorized"
	msgForbidden    = "Forbidden: You don't have permission to access this resource"
	msgInternal     = "Internal Server Error"
)

// deny answers ajax calls with the JSON envelope the admin UI expects and pages with plain text.
func deny(c *fiber.Ctx, status int, message string) error {
	if c.XHR() || strings.HasPrefix(c.Path(), "/ajax/") {
		return c.Status(status).JSON(fiber.Map{
			"success": false,
			"data":    fiber.Map{"message": message},
		})
	}

	return c.Status(status).SendString(message)
}

// RequirePermission creates Fiber middleware that requires a specific permission.
func RequirePermission(authService *Service, permission string) fiber.Handler {
	return RequireAnyPermission(authService, permission)
}

// RequireAnyPermission creates Fiber middleware that requires at least one of the given permissions.
func RequireAnyPermission(authService *Service, permissions ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		_, sessionData, err := session.Current(c)
		if err != nil {
			log.Debug().Err(err).Str("path", c.Path()).Msg("no valid session")
			return deny(c, fiber.StatusUnauthorized, msgUnauthorized)
		}

		hasPermission, err := authService.HasAnyPermission(sessionData.User.ID, permissions)
		if err != nil {
			log.Error().Err(err).Uint64("user_id", sessionData.User.ID).Strs("permissions", permissions).
				Msg("Failed to check permissions")

			return deny(c, fiber.StatusInternalServerError, msgInternal)
		}

		if !hasPermission {
			log.Warn().Uint64("user_id", sessionData.User.ID).Strs("permissions", permissions).
				Msg("User lacks required permission")

			return deny(c, fiber.StatusForbidden, msgForbidden)
		}

		return c.Next()
	}
}

// AddPermissionsToLocals is a Fiber middleware that adds user permissions to fiber.Locals.
// This allows templates to hide navigation entries the user can not open.
func AddPermissionsToLocals(authService *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		_, sessionData, err := session.Current(c)
		if err != nil {
			return c.Next()
		}

		permissions, err := authService.GetUserPermissions(sessionData.User.ID)
		if err != nil {
			log.Error().Err(err).Uint64("user_id", sessionData.User.ID).
				Msg("Failed to get user permissions")

			return c.Next()
		}

		granted := make(map[string]bool, len(permissions))
		for _, perm := range permissions {
			granted[perm] = true
		}

		c.Locals(LocalPermissions, permissions)
		c.Locals("hasPermission", func(perm string) bool { return granted[perm] })

		return c.Next()
	}
}
