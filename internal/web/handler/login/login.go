package login

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/upmail/upmail/internal/auth"
	"github.com/upmail/upmail/internal/db/models"
	"github.com/upmail/upmail/internal/web/handler"
	"github.com/upmail/upmail/internal/web/session"
)

const (
	// Path is the path to the login page.
	Path = handler.PathLogin

	// TemplateName is the name of the login template.
	TemplateName = "login"
)

// Form is the submitted login form.
type Form struct {
	Username string `form:"username"`
	Password string `form:"password"`
}

// Service is the login handler service.
type Service struct {
	handler.Service
	env   *handler.Env
	local *auth.LocalProvider
}

// Handler is the login handler.
var Handler = Service{}

// Init initializes the login handler.
func (s *Service) Init(app *fiber.App, env *handler.Env) error {
	if app == nil || !env.Valid() {
		return errors.New(handler.ErrNilACDFatalLogMsg)
	}

	s.env = env
	s.local = auth.NewLocalProvider(env.DB)

	app.Get(Path, s.Get)
	app.Post(Path, s.Post)

	return nil
}

// Get handles the login page rendering.
func (s *Service) Get(c *fiber.Ctx) error {
	return c.Render(TemplateName, fiber.Map{"Title": s.env.Cfg.Title})
}

func (s *Service) fail(c *fiber.Ctx, username string, err error) error {
	return c.Render(TemplateName, fiber.Map{
		"Title":    s.env.Cfg.Title,
		"Username": username,
		"error":    err.Error(),
	})
}

// authenticate maps provider errors to what the login page may reveal.
func (s *Service) authenticate(username, password string) (*models.User, error) {
	user, err := s.local.Authenticate(username, password)

	switch {
	case err == nil:
		return user, nil
	case errors.Is(err, auth.ErrUserNotFound), errors.Is(err, auth.ErrInvalidPassword):
		return nil, ErrInvalidCredentials
	case errors.Is(err, auth.ErrUserAccountDisabled):
		return nil, err
	default:
		log.Error().Err(err).Str("user", username).Msg("login failed")
		return nil, ErrInternalServerError
	}
}

// Post handles the login form submission.
func (s *Service) Post(c *fiber.Ctx) error {
	form := new(Form)

	if err := c.BodyParser(form); err != nil {
		return s.fail(c, "", ErrInvalidFormData)
	}

	user, err := s.authenticate(form.Username, form.Password)
	if err != nil {
		log.Warn().Err(err).Str("user", form.Username).Str("ip", c.IP()).Msg("login refused")
		return s.fail(c, form.Username, err)
	}

	sessionID, err := session.GenerateSessionID()
	if err != nil {
		log.Error().Err(err).Msg("failed to generate session ID")
		return s.fail(c, form.Username, ErrInternalServerError)
	}

	expiry := s.env.Cfg.Webserver.Session.ExpiryTime

	if err = session.NewData(user).Write(sessionID, expiry); err != nil {
		log.Error().Err(err).Msg("failed to write session")
		return s.fail(c, form.Username, ErrInternalServerError)
	}

	c.Cookie(&fiber.Cookie{
		Name:     session.CookieName,
		Value:    sessionID,
		MaxAge:   int(expiry.Seconds()),
		Secure:   !s.env.Cfg.DevMode,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})

	log.Info().Str("user", user.Username).Msg("user logged in")

	return c.Redirect(handler.PathDashboard)
}
