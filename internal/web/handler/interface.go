package handler

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/upmail/upmail/internal/auth"
	"github.com/upmail/upmail/internal/config"
	"github.com/upmail/upmail/internal/credential"
	"github.com/upmail/upmail/internal/mailer"
	"github.com/upmail/upmail/internal/web/nonce"
)

// Env bundles what handlers need to serve requests.
type Env struct {
	Cfg         *config.Config
	DB          *gorm.DB
	Auth        *auth.Service
	Mailer      *mailer.Mailer
	Store       *credential.Store
	Validator   *credential.Validator
	Limiter     *credential.RateLimiter
	NonceIssuer *nonce.Issuer
}

// Valid reports whether the fields every handler relies on are set.
func (e *Env) Valid() bool {
	return e != nil && e.Cfg != nil && e.DB != nil && e.Auth != nil
}

// Service is the interface for a web handler service.
type Service interface {
	Init(app *fiber.App, env *Env) error
}
