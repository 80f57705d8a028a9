package navigation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewContext(t *testing.T) {
	ctx := NewContext("Email Logs", SectionLogs, "list")

	assert.Equal(t, "Email Logs", ctx.PageTitle)
	assert.Equal(t, SectionLogs, ctx.ActiveSection)
	assert.Equal(t, "list", ctx.ActivePage)
	assert.NotNil(t, ctx.Breadcrumbs)
	assert.Empty(t, ctx.Breadcrumbs)
}

func TestContext_AddBreadcrumb_Chaining(t *testing.T) {
	ctx := NewContext("Settings", SectionSettings, "mail").
		AddBreadcrumb("Home", "/", false).
		AddBreadcrumb("Settings", "/settings", true)

	assert.Len(t, ctx.Breadcrumbs, 2)
	assert.Equal(t, "Home", ctx.Breadcrumbs[0].Title)
	assert.Equal(t, "/", ctx.Breadcrumbs[0].URL)
	assert.False(t, ctx.Breadcrumbs[0].Active)
	assert.True(t, ctx.Breadcrumbs[1].Active)
}

func TestContext_IsSectionActive(t *testing.T) {
	ctx := NewContext("Settings", SectionSettings, "mail")

	assert.True(t, ctx.IsSectionActive(SectionSettings))
	assert.False(t, ctx.IsSectionActive(SectionTestMail))
}

func TestContext_WithMenu(t *testing.T) {
	menu := []MenuItem{
		{Title: "Overview", URL: "/dashboard", Section: SectionOverview, Permission: "dashboard.view"},
		{Title: "Email Logs", URL: "/email-logs", Section: SectionLogs, Permission: "logs.view"},
		{Title: "Help", URL: "/help"},
	}

	ctx := NewContext("Overview", SectionOverview, "overview").WithMenu(menu, []string{"logs.view"})

	assert.Equal(t, []MenuItem{menu[1], menu[2]}, ctx.Menu)

	ctx.WithMenu(menu, nil)
	assert.Equal(t, []MenuItem{menu[2]}, ctx.Menu)
}
