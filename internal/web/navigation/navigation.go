// Package navigation provides utilities for managing navigation state, the menu and breadcrumbs.
package navigation

import "slices"

// Sections of the admin UI.
const (
	SectionOverview = "overview"
	SectionSettings = "settings"
	SectionTestMail = "test-mail"
	SectionLogs     = "email-logs"
)

// BreadcrumbItem represents a single breadcrumb link.
type BreadcrumbItem struct {
	Title  string
	URL    string
	Active bool
}

// MenuItem is one entry of the main menu. Permission is required to see it.
type MenuItem struct {
	Title      string
	URL        string
	Section    string
	Permission string
}

// Context represents the navigation context for a page.
type Context struct {
	ActiveSection string
	ActivePage    string
	Breadcrumbs   []BreadcrumbItem
	PageTitle     string
	Menu          []MenuItem
}

// NewContext creates a new navigation context.
func NewContext(pageTitle, activeSection, activePage string) *Context {
	return &Context{
		PageTitle:     pageTitle,
		ActiveSection: activeSection,
		ActivePage:    activePage,
		Breadcrumbs:   make([]BreadcrumbItem, 0),
	}
}

// AddBreadcrumb adds a breadcrumb item to the context.
func (c *Context) AddBreadcrumb(title, url string, active bool) *Context {
	c.Breadcrumbs = append(c.Breadcrumbs, BreadcrumbItem{
		Title:  title,
		URL:    url,
		Active: active,
	})

	return c
}

// WithMenu keeps the items of menu the granted permissions allow.
func (c *Context) WithMenu(menu []MenuItem, granted []string) *Context {
	c.Menu = make([]MenuItem, 0, len(menu))

	for _, item := range menu {
		if item.Permission == "" || slices.Contains(granted, item.Permission) {
			c.Menu = append(c.Menu, item)
		}
	}

	return c
}

// IsSectionActive checks if the given section is active.
func (c *Context) IsSectionActive(section string) bool {
	return c.ActiveSection == section
}
