// Package relay provides the machine endpoint that hands messages to the dispatch pipeline.
package relay

import (
	"crypto/subtle"
	"encoding/json"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/keyauth"
	"github.com/rs/zerolog/log"

	"github.com/upmail/upmail/internal/mail"
	"github.com/upmail/upmail/internal/web/handler"
)

// Path is the relay endpoint.
const Path = handler.PathRelay

// ErrNoMailer is returned by Init when the environment has no mailer.
var ErrNoMailer = errors.New("relay handler requires a mailer")

// Service is the relay handler service.
type Service struct {
	handler.Service
	env *handler.Env
}

// Handler is the relay handler.
var Handler = Service{}

// Init registers the relay endpoint behind the bearer token check.
// An empty relay token refuses every request.
func (s *Service) Init(app *fiber.App, env *handler.Env) error {
	if app == nil || !env.Valid() {
		return errors.New(handler.ErrNilACDFatalLogMsg)
	}

	if env.Mailer == nil {
		return ErrNoMailer
	}

	s.env = env

	if env.Cfg.Webserver.RelayToken == "" {
		log.Warn().Msg("no relay token configured, the relay endpoint refuses every request")
	}

	app.Post(Path, s.requireToken(), s.Post)

	return nil
}

func (s *Service) requireToken() fiber.Handler {
	token := []byte(s.env.Cfg.Webserver.RelayToken)

	return keyauth.New(keyauth.Config{
		KeyLookup:  "header:" + fiber.HeaderAuthorization,
		AuthScheme: "Bearer",
		Validator: func(_ *fiber.Ctx, key string) (bool, error) {
			if len(token) == 0 {
				return false, keyauth.ErrMissingOrMalformedAPIKey
			}

			return subtle.ConstantTimeCompare(token, []byte(key)) == 1, nil
		},
		ErrorHandler: func(c *fiber.Ctx, _ error) error {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"success": false,
				"message": "invalid or missing relay token",
			})
		},
	})
}

// Post decodes an envelope and dispatches it.
func (s *Service) Post(c *fiber.Ctx) error {
	var env mail.Envelope
	if err := json.Unmarshal(c.Body(), &env); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "malformed message: " + err.Error(),
		})
	}

	ok := s.env.Mailer.Send(c.UserContext(), env)

	log.Debug().Str("to", env.Recipients()).Bool("success", ok).Msg("relayed message")

	return c.JSON(fiber.Map{"success": ok})
}
