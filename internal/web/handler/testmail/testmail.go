// Package testmail provides the page for sending a test email.
package testmail

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/upmail/upmail/internal/auth"
	"github.com/upmail/upmail/internal/web/handler"
	"github.com/upmail/upmail/internal/web/navigation"
)

const (
	// Path is the path to the test mail page.
	Path = handler.PathTestMail

	// TemplateName is the name of the test mail template.
	TemplateName = "testmail/testmail"
)

// Service is the test mail handler service.
type Service struct {
	handler.Service
	env *handler.Env
}

// Handler is the test mail handler.
var Handler = Service{}

// Init initializes the test mail handler.
func (s *Service) Init(app *fiber.App, env *handler.Env) error {
	if app == nil || !env.Valid() || env.Store == nil {
		return errors.New(handler.ErrNilACDFatalLogMsg)
	}

	s.env = env

	app.Get(Path,
		auth.RequirePermission(env.Auth, auth.PermMailTest),
		s.Get,
	)

	return nil
}

// Get renders the form. The recipient defaults to the current user's address.
func (s *Service) Get(c *fiber.Ctx) error {
	nav := handler.Nav(c, "Test Mail", navigation.SectionTestMail, "test-mail").
		AddBreadcrumb("Test Mail", Path, true)

	var to string
	if user, ok := handler.CurrentUser(c); ok {
		to = user.Email
	}

	return c.Render(TemplateName, fiber.Map{
		"Navigation": nav,
		"HasAPIKey":  s.env.Store.HasAPIKey(s.env.DB),
		"To":         to,
		"Nonces":     s.env.Nonces(c, handler.ActionSendTest),
	}, handler.BaseLayout)
}
