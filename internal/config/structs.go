package config

import (
	"time"

	"github.com/upmail/upmail/internal/logger"
)

// Session settings.
type Session struct {
	ExpiryTime time.Duration
}

// Config overall data structure.
type Config struct {
	DevMode   bool // enable dev mode for development
	DB        DB
	Log       logger.Log
	Mailer    Mailer
	Scheduler Scheduler
	Title     string
	Webserver Webserver
}

// Webserver implement webserver settings.
type Webserver struct {
	BrowseStatic        bool    // enable static file browsing (for development purposes only)
	DisableRecover      bool    // disable recover middleware
	Domain              string  // domain name for the webserver
	Port                int     // listening port for the webserver
	ShutDownTime        int     // wait time for shutdown
	URL                 string  // base url for the webserver
	CookieEncryptionKey string  // key for cookies and anti-forgery tokens
	RelayToken          string  // bearer token accepted by the mail relay endpoint
	Session             Session // session settings
}

// Mailer holds the outbound email API settings.
type Mailer struct {
	APIBaseURL       string        // base url of the transactional email API
	EncryptionSecret string        // secret the stored API key encryption key is derived from
	SendTimeout      time.Duration // timeout of a single send request
	ValidateTimeout  time.Duration // timeout of a single API key validation request
}

// Scheduler holds the recurring job settings.
type Scheduler struct {
	Disabled           bool
	ValidationSchedule string // cron spec of the API key re-validation job
}
