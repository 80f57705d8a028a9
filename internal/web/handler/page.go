package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/upmail/upmail/internal/auth"
	"github.com/upmail/upmail/internal/web/navigation"
	"github.com/upmail/upmail/internal/web/session"
)

// Route paths shared between handlers and the menu.
const (
	PathDashboard = RootPath + "dashboard"
	PathSettings  = RootPath + "settings"
	PathTestMail  = RootPath + "test-mail"
	PathEmailLogs = RootPath + "email-logs"
	PathLogin     = RootPath + "login"
	PathLogout    = RootPath + "logout"
	PathAjax      = RootPath + "ajax"
	PathRelay     = RootPath + "api/v1/mail"
)

// Locals set by the session middleware.
const (
	LocalSessionID   = "sessionID"
	LocalCurrentUser = "CurrentUser"
	LocalUsername    = "username"
	LocalPermissions = auth.LocalPermissions
)

// Control operations, each with its own anti-forgery token.
const (
	ActionValidateAPIKey = "validate-api-key"
	ActionCheckAPIKey    = "check-api-key"
	ActionResetAPIKey    = "reset-api-key"
	ActionSendTest       = "send-test"
	ActionViewEmail      = "view-email"
	ActionResendEmail    = "resend-email"
	ActionDeleteLog      = "delete-log"
	ActionDeleteAllLogs  = "delete-all-logs"
	ActionSaveSettings   = "save-settings"
)

// Menu is the main menu of the admin UI.
func Menu() []navigation.MenuItem {
	return []navigation.MenuItem{
		{Title: "Overview", URL: PathDashboard, Section: navigation.SectionOverview, Permission: auth.PermDashboardView},
		{Title: "Settings", URL: PathSettings, Section: navigation.SectionSettings, Permission: auth.PermSettingsManage},
		{Title: "Test Mail", URL: PathTestMail, Section: navigation.SectionTestMail, Permission: auth.PermMailTest},
		{Title: "Email Logs", URL: PathEmailLogs, Section: navigation.SectionLogs, Permission: auth.PermLogsView},
	}
}

// SessionID returns the login session of the request, empty when there is none.
func SessionID(c *fiber.Ctx) string {
	id, _ := c.Locals(LocalSessionID).(string)
	return id
}

// Username returns the logged in user name, empty when there is none.
func Username(c *fiber.Ctx) string {
	name, _ := c.Locals(LocalUsername).(string)
	return name
}

// CurrentUser returns the logged in user.
func CurrentUser(c *fiber.Ctx) (session.User, bool) {
	user, ok := c.Locals(LocalCurrentUser).(session.User)
	return user, ok
}

// Nav builds the navigation context of a page with the menu filtered by the user's permissions.
func Nav(c *fiber.Ctx, title, section, page string) *navigation.Context {
	granted, _ := c.Locals(LocalPermissions).([]string)

	return navigation.NewContext(title, section, page).
		WithMenu(Menu(), granted).
		AddBreadcrumb("Home", PathDashboard, false)
}

// Nonces returns the tokens for actions bound to the request's session.
func (e *Env) Nonces(c *fiber.Ctx, actions ...string) map[string]string {
	if e.NonceIssuer == nil {
		return map[string]string{}
	}

	return e.NonceIssuer.CreateAll(SessionID(c), actions...)
}

// HeaderNonce carries the anti-forgery token of ajax calls.
const HeaderNonce = "X-Upmail-Nonce"

// VerifyNonce checks the token of action sent as form value "nonce" or in HeaderNonce.
func (e *Env) VerifyNonce(c *fiber.Ctx, action string) bool {
	if e.NonceIssuer == nil {
		return false
	}

	token := c.FormValue("nonce")
	if token == "" {
		token = c.Get(HeaderNonce)
	}

	return e.NonceIssuer.Verify(token, SessionID(c), action)
}

// Success answers a control operation.
func Success(c *fiber.Ctx, data fiber.Map) error {
	return c.JSON(fiber.Map{"success": true, "data": data})
}

// Failure answers a failed control operation with status and a message.
func Failure(c *fiber.Ctx, status int, message string) error {
	return FailureData(c, status, fiber.Map{"message": message})
}

// FailureData answers a failed control operation with status and data.
func FailureData(c *fiber.Ctx, status int, data fiber.Map) error {
	return c.Status(status).JSON(fiber.Map{"success": false, "data": data})
}
