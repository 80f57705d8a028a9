// Package emaillogs provides the email log list with filters and pagination.
package emaillogs

import (
	"errors"
	"net/url"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/upmail/upmail/internal/auth"
	"github.com/upmail/upmail/internal/db/controller/emaillog"
	"github.com/upmail/upmail/internal/db/models"
	"github.com/upmail/upmail/internal/web/handler"
	"github.com/upmail/upmail/internal/web/navigation"
)

const (
	// Path is the path to the email logs page.
	Path = handler.PathEmailLogs

	// TemplateName is the name of the email logs template.
	TemplateName = "emaillogs/emaillogs"
)

// Pagination links of the list.
type Pagination struct {
	HasPrevPage bool
	HasNextPage bool
	PrevURL     string
	NextURL     string
}

// Service is the email logs handler service.
type Service struct {
	handler.Service
	env *handler.Env
}

// Handler is the email logs handler.
var Handler = Service{}

// Init initializes the email logs handler.
func (s *Service) Init(app *fiber.App, env *handler.Env) error {
	if app == nil || !env.Valid() {
		return errors.New(handler.ErrNilACDFatalLogMsg)
	}

	s.env = env

	app.Get(Path,
		auth.RequirePermission(env.Auth, auth.PermLogsView),
		s.Get,
	)

	return nil
}

// pageURL links to page keeping the filters of q.
func pageURL(q emaillog.Query, page int) string {
	v := url.Values{}

	if q.Status != "" {
		v.Set("status", string(q.Status))
	}

	if q.StartDate != "" {
		v.Set("start_date", q.StartDate)
	}

	if q.EndDate != "" {
		v.Set("end_date", q.EndDate)
	}

	if q.Search != "" {
		v.Set("search", q.Search)
	}

	if q.PerPage > 0 {
		v.Set("per_page", strconv.Itoa(q.PerPage))
	}

	v.Set("page", strconv.Itoa(page))

	return Path + "?" + v.Encode()
}

func paginate(q emaillog.Query, page *emaillog.Page) Pagination {
	p := Pagination{
		HasPrevPage: page.Page > 1,
		HasNextPage: page.Page < page.TotalPages,
	}

	if p.HasPrevPage {
		p.PrevURL = pageURL(q, page.Page-1)
	}

	if p.HasNextPage {
		p.NextURL = pageURL(q, page.Page+1)
	}

	return p
}

// Get handles the email logs page rendering.
func (s *Service) Get(c *fiber.Ctx) error {
	nav := handler.Nav(c, "Email Logs", navigation.SectionLogs, "email-logs").
		AddBreadcrumb("Email Logs", Path, true)

	bind := fiber.Map{
		"Navigation": nav,
		"Statuses":   models.EmailStatuses,
		"Nonces": s.env.Nonces(c,
			handler.ActionViewEmail,
			handler.ActionResendEmail,
			handler.ActionDeleteLog,
			handler.ActionDeleteAllLogs,
		),
	}

	var q emaillog.Query
	if err := c.QueryParser(&q); err != nil {
		log.Debug().Err(err).Msg("invalid email log query")
	}

	bind["Query"] = q

	page, err := emaillog.List(s.env.DB, q)

	switch {
	case errors.Is(err, emaillog.ErrInvalidStatus), errors.Is(err, emaillog.ErrInvalidDate):
		bind["Error"] = err.Error()
		bind["Page"] = &emaillog.Page{Page: 1, PerPage: emaillog.DefaultPerPage}

		return c.Status(fiber.StatusBadRequest).Render(TemplateName, bind, handler.BaseLayout)
	case err != nil:
		log.Error().Err(err).Msg("failed to list email logs")

		return c.Status(fiber.StatusInternalServerError).SendString("Failed to load email logs")
	}

	bind["Page"] = page
	bind["Pagination"] = paginate(q, page)

	return c.Render(TemplateName, bind, handler.BaseLayout)
}
