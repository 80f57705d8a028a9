// Package web wires the admin UI, the control operations and the relay endpoint into one fiber app.
package web

import (
	"encoding/json"
	"errors"
	"html/template"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/filesystem"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/template/html/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/upmail/upmail/internal/auth"
	fiberlog "github.com/upmail/upmail/internal/logger/adapter/fiber"
	"github.com/upmail/upmail/internal/web/handler"
	"github.com/upmail/upmail/internal/web/handler/ajax"
	"github.com/upmail/upmail/internal/web/handler/dashboard"
	"github.com/upmail/upmail/internal/web/handler/emaillogs"
	"github.com/upmail/upmail/internal/web/handler/login"
	"github.com/upmail/upmail/internal/web/handler/logout"
	"github.com/upmail/upmail/internal/web/handler/relay"
	"github.com/upmail/upmail/internal/web/handler/settings"
	"github.com/upmail/upmail/internal/web/handler/testmail"
	authmiddleware "github.com/upmail/upmail/internal/web/middleware/auth"
)

const (
	// PathCheckAlive answers load balancer health checks.
	PathCheckAlive = "/checkalive"
	// PathMetrics exposes the Prometheus metrics.
	PathMetrics = "/metrics"
)

// Service represents the web service.
type Service struct {
	App          *fiber.App
	env          *handler.Env
	fastShutDown bool
	alive        atomic.Bool
}

// Start starts the web service on the given address and blocks until it is shut down.
func (s *Service) Start(addr string) error {
	var doneFiber = make(chan bool)

	go func() {
		if err := s.App.Listen(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Msgf("fiber listen error: %v", err)
		}

		doneFiber <- true
	}()

	<-doneFiber // wait for fiber to stop

	return nil
}

// WaitShutdown blocks until SIGINT or SIGTERM and stops the http server.
func (s *Service) WaitShutdown() {
	irqSig := make(chan os.Signal, 1)
	signal.Notify(irqSig, syscall.SIGINT, syscall.SIGTERM)

	sig := <-irqSig
	log.Info().Msgf("shutdown request (signal: %v)", sig)

	s.Shutdown()
}

// Shutdown fails the health check for ShutDownTime seconds, then stops the http server.
func (s *Service) Shutdown() {
	// let reverse proxies remove this instance before connections are refused
	if !s.fastShutDown {
		log.Info().Msgf(
			"graceful shutdown: return 503 while %d seconds to let LB to remove this pod from active targets",
			s.env.Cfg.Webserver.ShutDownTime,
		)

		s.alive.Store(false)
		time.Sleep(time.Duration(s.env.Cfg.Webserver.ShutDownTime) * time.Second)
	}

	log.Info().Msg("stopping http server ...")

	if err := s.App.Shutdown(); err != nil {
		log.Error().Err(err).Msg("")
	}

	log.Info().Msg("http server was stopped ... good bye...")
}

// SetFastShutDown skips the health check grace period on shutdown.
func (s *Service) SetFastShutDown(fast bool) {
	s.fastShutDown = fast
}

// CheckAlive answers 503 once a shutdown started.
func (s *Service) CheckAlive(c *fiber.Ctx) error {
	if !s.alive.Load() {
		return c.Status(fiber.StatusServiceUnavailable).SendString("shutting down")
	}

	return c.SendString("OK")
}

// TemplateFuncs are the helpers available in every template.
func TemplateFuncs() map[string]any {
	return map[string]any{
		"iterate": func(count int) []int {
			result := make([]int, count)
			for i := range result {
				result[i] = i
			}

			return result
		},
		"add": func(a, b int) int {
			return a + b
		},
		"sub": func(a, b int) int {
			return a - b
		},
		// has reports whether perm is in the granted permissions.
		"has": func(granted []string, perm string) bool {
			return slices.Contains(granted, perm)
		},
		"weekday": func(day int) string {
			return time.Weekday(day).String()[:3]
		},
		"json": func(v any) (template.JS, error) {
			out, err := json.Marshal(v)
			if err != nil {
				return "", err //nolint:wrapcheck
			}

			return template.JS(out), nil //nolint:gosec
		},
	}
}

func newViews(devMode bool) *html.Engine {
	engine := html.NewFileSystem(http.FS(subtree(templateFiles, "templates")), ".gohtml")

	// in dev mode, use local filesystem for templates
	if devMode {
		engine = html.New("./internal/web/templates", ".gohtml")
		engine.ShouldReload = true

		log.Warn().Msg("dev mode enabled: using local filesystem for templates")
	}

	engine.AddFuncMap(TemplateFuncs())

	return engine
}

// New creates the web service and registers every handler.
func New(env *handler.Env) (*Service, error) {
	if !env.Valid() {
		return nil, errors.New(handler.ErrNilACDFatalLogMsg)
	}

	cfg := env.Cfg

	app := fiber.New(
		fiber.Config{
			ReadBufferSize:    8192,
			AppName:           cfg.Title,
			CaseSensitive:     true,
			Prefork:           false,
			Immutable:         true,
			Views:             newViews(cfg.DevMode),
			PassLocalsToViews: true,
		},
	)

	if !cfg.Webserver.DisableRecover {
		app.Use(recover.New(recover.Config{EnableStackTrace: cfg.DevMode}))
	}

	app.Use(fiberlog.New(fiberlog.Config{
		Config:   cfg.Log,
		SkipURIs: []string{PathCheckAlive, PathMetrics},
	}))

	// serve embedded static files
	app.Use("/static",
		filesystem.New(
			filesystem.Config{
				Root:   http.FS(subtree(staticFiles, "static")),
				Browse: cfg.Webserver.BrowseStatic,
			},
		),
	)

	service := &Service{App: app, env: env}
	service.alive.Store(true)

	app.Get(PathCheckAlive, service.CheckAlive)
	app.Get(PathMetrics, adaptor.HTTPHandler(promhttp.Handler()))

	// session check, then the permissions of the user for templates and handlers
	app.Use(authmiddleware.Middleware)
	app.Use(auth.AddPermissionsToLocals(env.Auth))

	// handlers register their own routes with permission checks
	for _, h := range []handler.Service{
		&login.Handler,
		&logout.Handler,
		&dashboard.Handler,
		&settings.Handler,
		&testmail.Handler,
		&emaillogs.Handler,
		&ajax.Handler,
		&relay.Handler,
	} {
		if err := h.Init(app, env); err != nil {
			return nil, err
		}
	}

	return service, nil
}
