package ajax

import (
	"bytes"
	"encoding/json"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/upmail/upmail/internal/db/controller/emaillog"
	"github.com/upmail/upmail/internal/web/handler"
)

const dateTimeLayout = "2006-01-02 15:04:05"

// prettyResponse indents JSON API responses and keeps anything else as is.
func prettyResponse(raw string) string {
	if raw == "" {
		return ""
	}

	var out bytes.Buffer
	if err := json.Indent(&out, []byte(raw), "", "    "); err != nil {
		return raw
	}

	return out.String()
}

// ViewEmail returns one log entry.
func (s *Service) ViewEmail(c *fiber.Ctx) error {
	id := logID(c)
	if id == 0 {
		return handler.Failure(c, fiber.StatusBadRequest, msgInvalidLogID)
	}

	entry, err := emaillog.Get(s.env.DB, id)

	switch {
	case errors.Is(err, emaillog.ErrNotFound):
		return handler.Failure(c, fiber.StatusNotFound, msgLogNotFound)
	case err != nil:
		log.Error().Err(err).Uint64("id", id).Msg("failed to load email log")

		return handler.Failure(c, fiber.StatusInternalServerError, msgInternal)
	}

	return handler.Success(c, fiber.Map{
		"subject":      entry.Subject,
		"to":           entry.ToEmail,
		"message":      entry.Message,
		"status":       entry.Status,
		"date":         entry.CreatedAt.Format(dateTimeLayout),
		"api_response": prettyResponse(entry.APIResponse),
	})
}

// ResendEmail sends a logged message again as a new entry.
func (s *Service) ResendEmail(c *fiber.Ctx) error {
	id := logID(c)
	if id == 0 {
		return handler.Failure(c, fiber.StatusBadRequest, msgInvalidLogID)
	}

	result, err := s.env.Mailer.Resend(c.UserContext(), id)

	switch {
	case errors.Is(err, emaillog.ErrNotFound):
		return handler.Failure(c, fiber.StatusNotFound, msgLogNotFound)
	case err != nil:
		log.Error().Err(err).Uint64("id", id).Msg("failed to resend email")

		return handler.Failure(c, fiber.StatusInternalServerError, msgInternal)
	case !result.Success:
		return handler.Failure(c, fiber.StatusOK, result.Message)
	}

	return handler.Success(c, fiber.Map{"message": result.Message})
}

// DeleteLog removes one log entry.
func (s *Service) DeleteLog(c *fiber.Ctx) error {
	id := logID(c)
	if id == 0 {
		return handler.Failure(c, fiber.StatusBadRequest, msgInvalidLogID)
	}

	if err := emaillog.Delete(s.env.DB, id); err != nil {
		if !errors.Is(err, emaillog.ErrNotFound) {
			log.Error().Err(err).Uint64("id", id).Msg("failed to delete email log")
		}

		return handler.Failure(c, fiber.StatusOK, "Failed to delete log.")
	}

	return handler.Success(c, fiber.Map{"message": "Log deleted successfully."})
}

// DeleteAllLogs empties the log.
func (s *Service) DeleteAllLogs(c *fiber.Ctx) error {
	deleted, err := emaillog.DeleteAll(s.env.DB)
	if err != nil {
		log.Error().Err(err).Msg("failed to delete email logs")

		return handler.Failure(c, fiber.StatusInternalServerError, "Failed to delete logs.")
	}

	log.Info().Str("user", handler.Username(c)).Int64("deleted", deleted).Msg("email log emptied")

	return handler.Success(c, fiber.Map{"message": "All logs deleted successfully.", "deleted": deleted})
}
