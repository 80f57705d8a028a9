// Package handlertest wires handlers against an in-memory database and a fake email API for tests.
package handlertest

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	fibersession "github.com/gofiber/fiber/v2/middleware/session"
	"github.com/stretchr/testify/require"

	"github.com/upmail/upmail/internal/auth"
	"github.com/upmail/upmail/internal/config"
	"github.com/upmail/upmail/internal/credential"
	"github.com/upmail/upmail/internal/db/models"
	"github.com/upmail/upmail/internal/db/testdb"
	"github.com/upmail/upmail/internal/mailer"
	"github.com/upmail/upmail/internal/web/handler"
	authmiddleware "github.com/upmail/upmail/internal/web/middleware/auth"
	"github.com/upmail/upmail/internal/web/nonce"
	"github.com/upmail/upmail/internal/web/session"
)

// APIKey passes the credential format check.
const APIKey = "abcdefghijklmnopqrstuvwxyz0123456789"

// Views is a Fiber Views engine recording the last render.
type Views struct {
	mu   sync.Mutex
	name string
	data fiber.Map
}

// Load implements fiber.Views.
func (v *Views) Load() error { return nil }

// Render writes the "error" value when present, the template name otherwise.
func (v *Views) Render(w io.Writer, name string, data any, _ ...string) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.name = name
	v.data, _ = data.(fiber.Map)

	if msg, ok := v.data["error"].(string); ok && msg != "" {
		_, err := io.WriteString(w, msg)
		return err
	}

	_, err := io.WriteString(w, name)

	return err
}

// Last returns the template name and bind map of the last render.
func (v *Views) Last() (string, fiber.Map) {
	v.mu.Lock()
	defer v.mu.Unlock()

	return v.name, v.data
}

// API is a fake transactional email API.
type API struct {
	*httptest.Server

	mu            sync.Mutex
	SendStatus    int
	SendBody      string
	ContactStatus int
	sends         []map[string]any
	contacts      int
}

// NewAPI starts a fake API accepting every send and every key.
func NewAPI(t *testing.T) *API {
	t.Helper()

	api := &API{
		SendStatus:    http.StatusOK,
		SendBody:      `{"success":true,"id":"msg_1"}`,
		ContactStatus: http.StatusOK,
	}
	api.Server = httptest.NewServer(http.HandlerFunc(api.serve))
	t.Cleanup(api.Close)

	return api
}

func (a *API) serve(w http.ResponseWriter, r *http.Request) {
	a.mu.Lock()
	defer a.mu.Unlock()

	switch r.URL.Path {
	case "/v1/contacts":
		a.contacts++
		w.WriteHeader(a.ContactStatus)
	case "/v1/send":
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		a.sends = append(a.sends, body)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(a.SendStatus)
		_, _ = io.WriteString(w, a.SendBody)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

// Set changes the canned responses.
func (a *API) Set(sendStatus int, sendBody string, contactStatus int) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.SendStatus, a.SendBody, a.ContactStatus = sendStatus, sendBody, contactStatus
}

// Sends returns the decoded send requests.
func (a *API) Sends() []map[string]any {
	a.mu.Lock()
	defer a.mu.Unlock()

	return append([]map[string]any(nil), a.sends...)
}

// Contacts returns the number of key validation calls.
func (a *API) Contacts() int {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.contacts
}

// Fixture is a handler environment with a seeded admin account.
type Fixture struct {
	Env   *handler.Env
	API   *API
	Views *Views
}

// New builds a Fixture. The session store is reset.
func New(t *testing.T) *Fixture {
	t.Helper()

	api := NewAPI(t)
	db := testdb.New(t)

	cfg := &config.Config{
		Title: "upMail",
		Webserver: config.Webserver{
			URL:                 "http://localhost",
			Port:                3000,
			CookieEncryptionKey: "cookie-key",
			RelayToken:          "relay-token",
			Session:             config.Session{ExpiryTime: time.Minute},
		},
		Mailer: config.Mailer{
			APIBaseURL:       api.URL,
			EncryptionSecret: "encryption-secret",
			SendTimeout:      5 * time.Second,
			ValidateTimeout:  5 * time.Second,
		},
	}

	store, err := credential.NewStore(cfg.Mailer.EncryptionSecret)
	require.NoError(t, err)

	authService := auth.NewService(db)
	_, err = authService.EnsureAdminRole()
	require.NoError(t, err)

	memory := fibersession.New().Storage
	session.Init(memory)

	return &Fixture{
		Env: &handler.Env{
			Cfg:         cfg,
			DB:          db,
			Auth:        authService,
			Mailer:      mailer.New(db, store, cfg.Mailer),
			Store:       store,
			Validator:   &credential.Validator{BaseURL: api.URL, Timeout: cfg.Mailer.ValidateTimeout},
			Limiter:     credential.NewRateLimiter(memory),
			NonceIssuer: nonce.New(cfg.Webserver.CookieEncryptionKey),
		},
		API:   api,
		Views: &Views{},
	}
}

// App returns a fiber app with the session middlewares, rendering into the recording views.
func (f *Fixture) App() *fiber.App {
	app := fiber.New(fiber.Config{Views: f.Views, PassLocalsToViews: true})
	app.Use(authmiddleware.Middleware)
	app.Use(auth.AddPermissionsToLocals(f.Env.Auth))

	return app
}

// CreateUser adds an active account with the admin role, or with a role without permissions.
func (f *Fixture) CreateUser(t *testing.T, username, password string, admin bool) {
	t.Helper()

	role := &models.Role{Name: "guest"}

	if admin {
		var err error

		role, err = f.Env.Auth.EnsureAdminRole()
		require.NoError(t, err)
	} else {
		require.NoError(t, f.Env.DB.Where(models.Role{Name: role.Name}).FirstOrCreate(role).Error)
	}

	_, err := auth.NewLocalProvider(f.Env.DB).CreateUser(username, username+"@example.com", password, role.ID)
	require.NoError(t, err)
}

// Login creates a session for a new account and returns its ID.
func (f *Fixture) Login(t *testing.T, username string, admin bool) string {
	t.Helper()

	f.CreateUser(t, username, "secret", admin)

	user, err := auth.NewLocalProvider(f.Env.DB).Authenticate(username, "secret")
	require.NoError(t, err)

	sessionID, err := session.GenerateSessionID()
	require.NoError(t, err)
	require.NoError(t, session.NewData(user).Write(sessionID, time.Minute))

	return sessionID
}

// StoreKey saves a valid API key.
func (f *Fixture) StoreKey(t *testing.T) {
	t.Helper()

	require.NoError(t, f.Env.Store.SetAPIKey(f.Env.DB, APIKey))
}

// Do runs a request with the session cookie set when sessionID is not empty.
func Do(t *testing.T, app *fiber.App, method, target, sessionID string, form url.Values) *http.Response {
	t.Helper()

	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}

	req := httptest.NewRequest(method, target, body)
	if form != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationForm)
	}

	if sessionID != "" {
		req.AddCookie(&http.Cookie{Name: session.CookieName, Value: sessionID})
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	return resp
}

// Envelope is the decoded answer of a control operation.
type Envelope struct {
	Success bool           `json:"success"`
	Data    map[string]any `json:"data"`
}

// Message returns data.message.
func (e Envelope) Message() string {
	msg, _ := e.Data["message"].(string)
	return msg
}

// Decode reads a control operation answer.
func Decode(t *testing.T, resp *http.Response) Envelope {
	t.Helper()

	defer resp.Body.Close()

	var env Envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))

	return env
}
