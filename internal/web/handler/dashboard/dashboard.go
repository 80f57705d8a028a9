// Package dashboard provides the overview page with the email statistics.
package dashboard

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/upmail/upmail/internal/auth"
	"github.com/upmail/upmail/internal/db/controller/emaillog"
	"github.com/upmail/upmail/internal/web/handler"
	"github.com/upmail/upmail/internal/web/navigation"
)

const (
	// Path is the path to the dashboard page.
	Path = handler.PathDashboard

	// TemplateName is the name of the dashboard template.
	TemplateName = "dashboard/dashboard"

	// ChartMonths is how far back the activity chart reaches.
	ChartMonths = 3

	chartLabelLayout = "Jan 02"
)

// Chart is the series of the activity chart.
type Chart struct {
	Labels     []string `json:"labels"`
	Daily      []int64  `json:"dailyData"`
	Cumulative []int64  `json:"cumulativeData"`
}

// Data represents the complete dashboard data.
type Data struct {
	Overview  *emaillog.OverviewStats
	Failed    *emaillog.FailedStats
	Hourly    *emaillog.HourlyStats
	Chart     Chart
	StartDate string
	EndDate   string
}

// Service is the dashboard handler service.
type Service struct {
	handler.Service
	env *handler.Env
	now func() time.Time
}

// Handler is the dashboard handler.
var Handler = Service{}

// Init initializes the dashboard handler.
func (s *Service) Init(app *fiber.App, env *handler.Env) error {
	if app == nil || !env.Valid() {
		return errors.New(handler.ErrNilACDFatalLogMsg)
	}

	s.env = env
	if s.now == nil {
		s.now = time.Now
	}

	app.Get(Path,
		auth.RequirePermission(env.Auth, auth.PermDashboardView),
		s.Get,
	)
	app.Get(handler.RootPath, func(c *fiber.Ctx) error {
		return c.Redirect(Path)
	})

	return nil
}

// dateRange reads start_date and end_date, defaulting to the current month up to today.
func dateRange(c *fiber.Ctx, now time.Time) (start, end string) {
	start = c.Query("start_date")
	end = c.Query("end_date")

	if _, _, err := emaillog.DayRange(start, end); err != nil || start == "" || end == "" {
		start = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()).Format(emaillog.DateLayout)
		end = now.Format(emaillog.DateLayout)
	}

	return start, end
}

// Load gathers the statistics for the days start to end.
func (s *Service) Load(now time.Time, start, end string) (*Data, error) {
	db := s.env.DB

	overview, err := emaillog.Overview(db, now)
	if err != nil {
		return nil, err
	}

	failed, err := emaillog.Failed(db, start, end)
	if err != nil {
		return nil, err
	}

	hourly, err := emaillog.Hourly(db, emaillog.Query{StartDate: start, EndDate: end})
	if err != nil {
		return nil, err
	}

	points, err := emaillog.Daily(db, now.AddDate(0, -ChartMonths, 0))
	if err != nil {
		return nil, err
	}

	chart := Chart{
		Labels:     make([]string, 0, len(points)),
		Daily:      make([]int64, 0, len(points)),
		Cumulative: make([]int64, 0, len(points)),
	}

	for _, p := range points {
		label := p.Date
		if day, perr := time.Parse(emaillog.DateLayout, p.Date); perr == nil {
			label = day.Format(chartLabelLayout)
		}

		chart.Labels = append(chart.Labels, label)
		chart.Daily = append(chart.Daily, p.Sent)
		chart.Cumulative = append(chart.Cumulative, p.CumulativeSent)
	}

	return &Data{
		Overview:  overview,
		Failed:    failed,
		Hourly:    hourly,
		Chart:     chart,
		StartDate: start,
		EndDate:   end,
	}, nil
}

// Get handles the dashboard page rendering.
func (s *Service) Get(c *fiber.Ctx) error {
	nav := handler.Nav(c, "Overview", navigation.SectionOverview, "overview").
		AddBreadcrumb("Overview", Path, true)

	now := s.now()
	start, end := dateRange(c, now)

	data, err := s.Load(now, start, end)
	if err != nil {
		log.Error().Err(err).Msg("failed to load email statistics")

		return c.Status(fiber.StatusInternalServerError).SendString("Failed to load statistics")
	}

	log.Debug().
		Int64("month_sent", data.Overview.CurrentMonth.Sent).
		Int64("month_failed", data.Overview.CurrentMonth.Failed).
		Str("start", start).
		Str("end", end).
		Msg("overview statistics loaded")

	return c.Render(TemplateName, fiber.Map{
		"Navigation": nav,
		"Data":       data,
	}, handler.BaseLayout)
}
