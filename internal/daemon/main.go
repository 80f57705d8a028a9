// Package daemon assembles the database, the session storage, the mail pipeline,
// the scheduler and the web service and runs them until a shutdown signal.
package daemon

import (
	"context"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	fibersession "github.com/gofiber/fiber/v2/middleware/session"
	sessionmysql "github.com/gofiber/storage/mysql/v2"
	sessionpostgres "github.com/gofiber/storage/postgres/v3"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/upmail/upmail/internal/auth"
	"github.com/upmail/upmail/internal/config"
	"github.com/upmail/upmail/internal/credential"
	"github.com/upmail/upmail/internal/db"
	"github.com/upmail/upmail/internal/db/dsn"
	"github.com/upmail/upmail/internal/mailer"
	"github.com/upmail/upmail/internal/scheduler"
	"github.com/upmail/upmail/internal/web"
	"github.com/upmail/upmail/internal/web/handler"
	"github.com/upmail/upmail/internal/web/nonce"
	"github.com/upmail/upmail/internal/web/session"
)

const sessionTable = "sessions"

// Daemon represents the main application daemon.
type Daemon struct {
	cfg        *config.Config
	db         *gorm.DB
	storage    fiber.Storage
	webService *web.Service
	scheduler  *scheduler.Scheduler
}

// sessionStorage keeps sessions and validation attempts next to the data.
// sqlite has no fiber storage driver, sessions stay in memory there.
func sessionStorage(cfg *config.Config) fiber.Storage {
	switch cfg.DB.Engine {
	case config.EngineMySQL:
		return sessionmysql.New(sessionmysql.Config{
			ConnectionURI: dsn.Create(cfg),
			Table:         sessionTable,
		})
	case config.EnginePostgres:
		return sessionpostgres.New(sessionpostgres.Config{
			ConnectionURI: dsn.Create(cfg),
			Table:         sessionTable,
		})
	default:
		log.Warn().Str("engine", cfg.DB.Engine).Msg("sessions are kept in memory and lost on restart")
		return fibersession.New().Storage
	}
}

// NewEnv builds the collaborators shared by the handlers.
func NewEnv(cfg *config.Config, gdb *gorm.DB, storage fiber.Storage) (*handler.Env, error) {
	store, err := credential.NewStore(cfg.Mailer.EncryptionSecret)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create credential store")
	}

	if cfg.Webserver.CookieEncryptionKey == "" {
		log.Warn().Msg("no cookie encryption key configured, anti-forgery tokens use the encryption secret")
	}

	nonceKey := cfg.Webserver.CookieEncryptionKey
	if nonceKey == "" {
		nonceKey = cfg.Mailer.EncryptionSecret
	}

	return &handler.Env{
		Cfg:         cfg,
		DB:          gdb,
		Auth:        auth.NewService(gdb),
		Mailer:      mailer.New(gdb, store, cfg.Mailer),
		Store:       store,
		Validator:   &credential.Validator{BaseURL: cfg.Mailer.APIBaseURL, Timeout: cfg.Mailer.ValidateTimeout},
		Limiter:     credential.NewRateLimiter(storage),
		NonceIssuer: nonce.New(nonceKey),
	}, nil
}

// New opens the database, seeds the admin account and builds the services.
func New(cfg *config.Config) (*Daemon, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}

	gdb, err := db.Open(cfg)
	if err != nil {
		return nil, err //nolint:wrapcheck
	}

	storage := sessionStorage(cfg)
	session.Init(storage)

	env, err := NewEnv(cfg, gdb, storage)
	if err != nil {
		return nil, err
	}

	if err = seed(cfg, gdb, env.Auth); err != nil {
		return nil, err
	}

	webService, err := web.New(env)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create web service")
	}

	d := &Daemon{
		cfg:        cfg,
		db:         gdb,
		storage:    storage,
		webService: webService,
	}

	if !cfg.Scheduler.Disabled {
		d.scheduler, err = scheduler.New(cfg.Scheduler.ValidationSchedule, gdb, env.Store, env.Validator)
		if err != nil {
			return nil, err //nolint:wrapcheck
		}
	}

	return d, nil
}

// Run starts the scheduler and the web service and blocks until SIGINT or SIGTERM.
func (d *Daemon) Run() error {
	if d.scheduler != nil {
		d.scheduler.Start()
	}

	done := make(chan error, 1)

	go func() {
		done <- d.webService.Start(fmt.Sprintf(":%d", d.cfg.Webserver.Port))
	}()

	d.webService.WaitShutdown()

	d.Stop()

	return <-done
}

// Stop stops the scheduler and releases the database and session storage.
func (d *Daemon) Stop() {
	if d.scheduler != nil {
		ctx, cancel := context.WithTimeout(context.Background(), time.Duration(d.cfg.Webserver.ShutDownTime)*time.Second)
		d.scheduler.Stop(ctx)
		cancel()
	}

	if err := d.storage.Close(); err != nil {
		log.Error().Err(err).Msg("failed to close session storage")
	}

	if sqlDB, err := d.db.DB(); err == nil {
		if err = sqlDB.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close database")
		}
	}
}
