// Package settings provides the mail settings page and the API key panel.
package settings

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/upmail/upmail/internal/auth"
	"github.com/upmail/upmail/internal/credential"
	"github.com/upmail/upmail/internal/db/controller/mailsettings"
	"github.com/upmail/upmail/internal/web/handler"
	"github.com/upmail/upmail/internal/web/navigation"
)

const (
	// Path is the path to the settings page.
	Path = handler.PathSettings

	// TemplateName is the name of the settings template.
	TemplateName = "settings/settings"

	maskLength = 32
)

// APIKeyPanel describes the stored credential without revealing it.
type APIKeyPanel struct {
	Configured bool
	Mask       string
	Status     credential.Status
	Stale      bool
}

// Service is the settings handler service.
type Service struct {
	handler.Service
	env *handler.Env
}

// Handler is the settings handler.
var Handler = Service{}

// Init initializes the settings handler.
func (s *Service) Init(app *fiber.App, env *handler.Env) error {
	if app == nil || !env.Valid() || env.Store == nil {
		return errors.New(handler.ErrNilACDFatalLogMsg)
	}

	s.env = env

	app.Get(Path,
		auth.RequirePermission(env.Auth, auth.PermSettingsManage),
		s.Get,
	)
	app.Post(Path,
		auth.RequirePermission(env.Auth, auth.PermSettingsManage),
		s.Post,
	)

	return nil
}

func (s *Service) panel() APIKeyPanel {
	var p APIKeyPanel

	if !s.env.Store.HasAPIKey(s.env.DB) {
		return p
	}

	p.Configured = true
	p.Mask = strings.Repeat("•", maskLength)

	status, err := credential.LoadStatus(s.env.DB)
	if err != nil {
		log.Error().Err(err).Msg("failed to load API key status")
	}

	p.Status = status
	p.Stale = credential.NeedsValidation(status, time.Now())

	return p
}

func (s *Service) render(c *fiber.Ctx, status int, settings *mailsettings.Settings, extra fiber.Map) error {
	nav := handler.Nav(c, "Settings", navigation.SectionSettings, "settings").
		AddBreadcrumb("Settings", Path, true)

	bind := fiber.Map{
		"Navigation": nav,
		"Settings":   settings,
		"APIKey":     s.panel(),
		"Nonces": s.env.Nonces(c,
			handler.ActionSaveSettings,
			handler.ActionValidateAPIKey,
			handler.ActionCheckAPIKey,
			handler.ActionResetAPIKey,
		),
	}

	for k, v := range extra {
		bind[k] = v
	}

	return c.Status(status).Render(TemplateName, bind, handler.BaseLayout)
}

// Get handles the settings page rendering.
func (s *Service) Get(c *fiber.Ctx) error {
	settings := &mailsettings.Settings{}
	if err := settings.Load(s.env.DB); err != nil {
		log.Error().Err(err).Msg("failed to load mail settings")

		return c.Status(fiber.StatusInternalServerError).SendString("Failed to load settings")
	}

	return s.render(c, fiber.StatusOK, settings, nil)
}

// Post handles the settings form submission.
func (s *Service) Post(c *fiber.Ctx) error {
	if !s.env.VerifyNonce(c, handler.ActionSaveSettings) {
		return c.Status(fiber.StatusForbidden).SendString("Invalid security token.")
	}

	settings := &mailsettings.Settings{}
	if err := c.BodyParser(settings); err != nil {
		log.Error().Err(err).Msg("failed to parse mail settings form")

		return s.render(c, fiber.StatusBadRequest, settings, fiber.Map{"Error": []string{"Invalid form data"}})
	}

	settings.FromEmail = strings.TrimSpace(settings.FromEmail)
	settings.FromName = strings.TrimSpace(settings.FromName)

	if err := settings.Validate(handler.Validator()); err != nil {
		msgs := handler.Messages(handler.ValidationErrors(err), map[string]string{
			"FromEmail.email": "From email must be a valid email address.",
			"FromEmail.max":   "From email is too long.",
			"FromName.max":    "From name is too long.",
		})

		log.Warn().Err(err).Msg("validation failed for mail settings")

		return s.render(c, fiber.StatusBadRequest, settings, fiber.Map{"Error": msgs})
	}

	if err := settings.Save(s.env.DB); err != nil {
		log.Error().Err(err).Msg("failed to save mail settings")

		return s.render(c, fiber.StatusInternalServerError, settings, fiber.Map{"Error": []string{"Failed to save settings"}})
	}

	log.Info().
		Str("user", handler.Username(c)).
		Str("from_email", settings.FromEmail).
		Bool("force_from_email", settings.ForceFromEmail).
		Bool("force_from_name", settings.ForceFromName).
		Bool("disable_all_emails", settings.DisableAllEmails).
		Msg("mail settings saved")

	return s.render(c, fiber.StatusOK, settings, fiber.Map{"Success": "Settings saved successfully"})
}
