package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/upmail/upmail/internal/web/handler"
	"github.com/upmail/upmail/internal/web/session"
)

// publicPrefixes are served without a login session. The relay checks its own token.
var publicPrefixes = []string{ //nolint:gochecknoglobals
	"/static",
	"/checkalive",
	"/metrics",
	"/api/",
	handler.PathLogout,
}

// Middleware is a Fiber middleware that checks for user authentication.
func Middleware(c *fiber.Ctx) error {
	path := strings.ToLower(c.Path())

	for _, prefix := range publicPrefixes {
		if strings.HasPrefix(path, prefix) {
			return c.Next()
		}
	}

	isLoginPage := IsLoginPage(c)

	sessionID, data, err := session.Current(c)
	if err != nil {
		if isLoginPage {
			return c.Next()
		}

		if IsAjax(c) {
			return handler.Failure(c, fiber.StatusUnauthorized, "Your session has expired, please log in again.")
		}

		return c.Redirect(handler.PathLogin)
	}

	if isLoginPage {
		return c.Redirect(handler.PathDashboard)
	}

	c.Locals(handler.LocalSessionID, sessionID)
	c.Locals(handler.LocalCurrentUser, data.User)
	c.Locals(handler.LocalUsername, data.User.Username)

	return c.Next()
}

// IsLoginPage checks if the current request is for the login page.
func IsLoginPage(c *fiber.Ctx) bool {
	return strings.HasPrefix(strings.ToLower(c.Path()), handler.PathLogin)
}

// IsAjax checks if the current request is a control operation.
func IsAjax(c *fiber.Ctx) bool {
	return c.XHR() || strings.HasPrefix(c.Path(), handler.PathAjax+"/")
}
