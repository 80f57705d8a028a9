package auth

// Permission constants define the available permissions in the system.
const (
	// PermDashboardView allows viewing the overview page and its statistics.
	PermDashboardView = "dashboard.view"

	// PermSettingsManage allows changing mail settings and the API key.
	PermSettingsManage = "settings.manage"

	// PermLogsView allows listing and viewing email log entries.
	PermLogsView = "logs.view"
	// PermLogsManage allows resending and deleting email log entries.
	PermLogsManage = "logs.manage"

	// PermMailTest allows sending test emails.
	PermMailTest = "mail.test"
)

// Definition describes a permission for seeding.
type Definition struct {
	Name        string
	Resource    string
	Action      string
	Description string
}

// Definitions lists every permission the application knows about.
func Definitions() []Definition {
	return []Definition{
		{PermDashboardView, "dashboard", "view", "View the overview page"},
		{PermSettingsManage, "settings", "manage", "Manage mail settings and the API key"},
		{PermLogsView, "logs", "view", "View email logs"},
		{PermLogsManage, "logs", "manage", "Resend and delete email logs"},
		{PermMailTest, "mail", "test", "Send test emails"},
	}
}
