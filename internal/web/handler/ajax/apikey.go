package ajax

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/upmail/upmail/internal/credential"
	"github.com/upmail/upmail/internal/web/handler"
)

const (
	msgKeyInvalid   = "API key is invalid. Please check your key and try again."
	msgKeySaved     = "API key validated and saved successfully."
	msgNoKey        = "No API key configured."
	msgKeyReset     = "API key and related data have been reset successfully."
	msgKeyResetFail = "Failed to reset the API key."
)

// ValidateAPIKey checks a new key and stores it encrypted when the API accepts it.
// Every call counts against the caller's attempts, malformed keys included.
func (s *Service) ValidateAPIKey(c *fiber.Ctx) error {
	key := strings.TrimSpace(c.FormValue("api_key"))

	username := handler.Username(c)

	if err := s.env.Limiter.Allow(username); err != nil {
		if errors.Is(err, credential.ErrTooManyAttempts) {
			log.Warn().Str("user", username).Msg("API key validation rate limit reached")

			return handler.Failure(c, fiber.StatusTooManyRequests, err.Error())
		}

		log.Error().Err(err).Msg("failed to count API key validation attempt")

		return handler.Failure(c, fiber.StatusInternalServerError, msgInternal)
	}

	if err := credential.ValidateFormat(key); err != nil {
		return handler.FailureData(c, fiber.StatusBadRequest, fiber.Map{"message": err.Error(), "is_valid": false})
	}

	// the stored key keeps its status until the candidate is accepted
	result := s.env.Validator.Validate(c.UserContext(), s.env.DB, key, false)

	switch {
	case !result.Success:
		return handler.FailureData(c, fiber.StatusBadGateway, fiber.Map{"message": result.Message, "is_valid": false})
	case !result.IsValid:
		return handler.FailureData(c, fiber.StatusOK, fiber.Map{"message": msgKeyInvalid, "is_valid": false})
	}

	if err := s.env.Validator.Accept(s.env.DB, s.env.Store, key); err != nil {
		log.Error().Err(err).Msg("failed to save API key")

		return handler.Failure(c, fiber.StatusInternalServerError, msgInternal)
	}

	if err := s.env.Limiter.Reset(username); err != nil {
		log.Warn().Err(err).Str("user", username).Msg("failed to reset validation attempts")
	}

	log.Info().Str("user", username).Msg("API key saved")

	return handler.Success(c, fiber.Map{"message": msgKeySaved, "is_valid": true})
}

// CheckAPIKey re-validates the stored key and records the outcome.
func (s *Service) CheckAPIKey(c *fiber.Ctx) error {
	key, err := s.env.Store.APIKey(s.env.DB)
	if err != nil {
		log.Error().Err(err).Msg("failed to load API key")

		return handler.Failure(c, fiber.StatusInternalServerError, msgInternal)
	}

	if key == "" {
		return handler.FailureData(c, fiber.StatusOK, fiber.Map{"message": msgNoKey, "is_valid": false})
	}

	result := s.env.Validator.Validate(c.UserContext(), s.env.DB, key, true)
	if !result.Success {
		return handler.FailureData(c, fiber.StatusBadGateway, fiber.Map{"message": result.Message, "is_valid": false})
	}

	return handler.Success(c, fiber.Map{"message": result.Message, "is_valid": result.IsValid})
}

// ResetAPIKey removes the key and its validation status.
func (s *Service) ResetAPIKey(c *fiber.Ctx) error {
	if err := s.env.Store.Reset(s.env.DB); err != nil {
		log.Error().Err(err).Msg("failed to reset API key")

		return handler.Failure(c, fiber.StatusInternalServerError, msgKeyResetFail)
	}

	log.Info().Str("user", handler.Username(c)).Msg("API key reset")

	return handler.Success(c, fiber.Map{"message": msgKeyReset})
}
