package ajax

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/upmail/upmail/internal/web/handler"
)

const msgConfigureKey = "Please configure your API key first."

// TestForm is the test message composed in the admin UI.
type TestForm struct {
	To      string `form:"to"      validate:"required,email"`
	Subject string `form:"subject" validate:"required"`
	Message string `form:"message" validate:"required"`
	HTML    bool   `form:"html"`
}

var testFormMessages = map[string]string{ //nolint:gochecknoglobals
	"To.required":      "Recipient email is required.",
	"To.email":         "Invalid recipient email address.",
	"Subject.required": "Subject is required.",
	"Message.required": "Message is required.",
}

// SendTest dispatches an operator composed message and returns the debug trace.
func (s *Service) SendTest(c *fiber.Ctx) error {
	var form TestForm
	if err := c.BodyParser(&form); err != nil {
		return handler.Failure(c, fiber.StatusBadRequest, "Invalid form data.")
	}

	if errs := handler.Validate(form); len(errs) > 0 {
		return handler.Failure(c, fiber.StatusBadRequest, handler.Messages(errs, testFormMessages)[0])
	}

	if !s.env.Store.HasAPIKey(s.env.DB) {
		return handler.Failure(c, fiber.StatusBadRequest, msgConfigureKey)
	}

	result := s.env.Mailer.SendTest(c.UserContext(), form.To, form.Subject, form.Message, form.HTML)

	log.Info().
		Str("user", handler.Username(c)).
		Str("to", form.To).
		Bool("success", result.Success).
		Msg("test email dispatched")

	data := fiber.Map{"message": result.Message, "debug": result.Debug}
	if !result.Success {
		return handler.FailureData(c, fiber.StatusOK, data)
	}

	return handler.Success(c, data)
}
