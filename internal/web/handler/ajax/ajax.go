// Package ajax provides the control operations of the admin UI.
//
// Every operation is a POST to /ajax/<action>, checks the permission of the
// user and the anti-forgery token of the action, and answers with
//
//	{"success": bool, "data": {...}}
package ajax

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/upmail/upmail/internal/auth"
	"github.com/upmail/upmail/internal/web/handler"
)

const (
	msgInvalidNonce = "Invalid security token."
	msgInvalidLogID = "Invalid log ID."
	msgLogNotFound  = "Log not found."
	msgInternal     = "An internal error occurred, please try again."
)

// ErrMissingDependency is returned by Init when the environment lacks a collaborator.
var ErrMissingDependency = errors.New("ajax handler requires mailer, credential store, validator and limiter")

// Service is the control operation handler service.
type Service struct {
	handler.Service
	env *handler.Env
}

// Handler is the control operation handler.
var Handler = Service{}

// Path returns the route of action.
func Path(action string) string {
	return handler.PathAjax + "/" + action
}

// Init registers every control operation.
func (s *Service) Init(app *fiber.App, env *handler.Env) error {
	if app == nil || !env.Valid() {
		return errors.New(handler.ErrNilACDFatalLogMsg)
	}

	if env.Mailer == nil || env.Store == nil || env.Validator == nil || env.Limiter == nil {
		return ErrMissingDependency
	}

	s.env = env

	routes := []struct {
		action     string
		permission string
		handler    fiber.Handler
	}{
		{handler.ActionValidateAPIKey, auth.PermSettingsManage, s.ValidateAPIKey},
		{handler.ActionCheckAPIKey, auth.PermSettingsManage, s.CheckAPIKey},
		{handler.ActionResetAPIKey, auth.PermSettingsManage, s.ResetAPIKey},
		{handler.ActionSendTest, auth.PermMailTest, s.SendTest},
		{handler.ActionViewEmail, auth.PermLogsView, s.ViewEmail},
		{handler.ActionResendEmail, auth.PermLogsManage, s.ResendEmail},
		{handler.ActionDeleteLog, auth.PermLogsManage, s.DeleteLog},
		{handler.ActionDeleteAllLogs, auth.PermLogsManage, s.DeleteAllLogs},
	}

	for _, r := range routes {
		app.Post(Path(r.action),
			auth.RequirePermission(env.Auth, r.permission),
			s.requireNonce(r.action),
			r.handler,
		)
	}

	return nil
}

func (s *Service) requireNonce(action string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !s.env.VerifyNonce(c, action) {
			return handler.Failure(c, fiber.StatusForbidden, msgInvalidNonce)
		}

		return c.Next()
	}
}

// logID reads the form value "id". Anything but a positive integer is 0.
func logID(c *fiber.Ctx) uint64 {
	id, err := strconv.ParseUint(c.FormValue("id"), 10, 64)
	if err != nil {
		return 0
	}

	return id
}
