// Package mailer is the dispatch pipeline: every message handed to it ends
// as exactly one email log row.
package mailer

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/upmail/upmail/internal/config"
	"github.com/upmail/upmail/internal/credential"
	"github.com/upmail/upmail/internal/db/controller/emaillog"
	"github.com/upmail/upmail/internal/db/controller/mailsettings"
	"github.com/upmail/upmail/internal/db/models"
	"github.com/upmail/upmail/internal/mail"
	"github.com/upmail/upmail/internal/uptools"
)

// Resend subject suffixes.
const (
	SuffixResent        = " (Resent)"
	SuffixResendFailed  = " (Resend Failed)"
	SuffixResendSkipped = " (Resend Skipped)"
)

// MsgNoAPIKey is reported when a test mail is requested without a key.
const MsgNoAPIKey = "API key is not configured. Please configure it in the settings."

var (
	skippedResponse = map[string]any{
		"code":    200, //nolint:mnd
		"status":  "Skipped",
		"message": "Email sending is disabled in settings",
	}

	noKeyError = &uptools.Error{
		Code:    400, //nolint:mnd
		Kind:    uptools.KindConfiguration,
		Message: "API key is not configured",
	}
)

// Mailer dispatches envelopes through the uptools API and logs the outcome.
type Mailer struct {
	db    *gorm.DB
	store *credential.Store
	cfg   config.Mailer
}

// New creates a Mailer.
func New(db *gorm.DB, store *credential.Store, cfg config.Mailer) *Mailer {
	return &Mailer{db: db, store: store, cfg: cfg}
}

// outcome of one dispatch.
type outcome struct {
	status models.EmailStatus
	err    *uptools.Error
}

func (m *Mailer) settings() mailsettings.Settings {
	var s mailsettings.Settings

	if err := s.Load(m.db); err != nil {
		log.Error().Err(err).Msg("failed to load mail settings, using defaults")
	}

	return s
}

// dispatch runs the pipeline and writes one row whose subject is named by the outcome.
func (m *Mailer) dispatch(ctx context.Context, env mail.Envelope, subject func(models.EmailStatus) string) outcome {
	settings := m.settings()

	if settings.DisableAllEmails {
		m.write(env, subject(models.EmailStatusSkipped), models.EmailStatusSkipped, prettyJSON(skippedResponse))

		return outcome{status: models.EmailStatusSkipped}
	}

	key, err := m.store.APIKey(m.db)
	if err != nil {
		log.Error().Err(err).Msg("failed to read API key")
	}

	if key == "" {
		m.write(env, subject(models.EmailStatusFailed), models.EmailStatusFailed, noKeyError.JSON())

		return outcome{status: models.EmailStatusFailed, err: noKeyError}
	}

	env.Headers = settings.FromOverride().Apply(mail.NormalizeHeaders(env.Headers))

	client := uptools.New(m.cfg.APIBaseURL, key, uptools.WithSendTimeout(m.cfg.SendTimeout))

	start := time.Now()
	resp, err := client.Send(ctx, env)
	apiDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		apiErr := uptools.AsError(err)
		log.Warn().Str("to", env.Recipients()).Str("kind", apiErr.Kind).Int("code", apiErr.Code).
			Msg(apiErr.Message)
		m.write(env, subject(models.EmailStatusFailed), models.EmailStatusFailed, apiErr.JSON())

		return outcome{status: models.EmailStatusFailed, err: apiErr}
	}

	m.write(env, subject(models.EmailStatusSent), models.EmailStatusSent, resp.JSON())

	return outcome{status: models.EmailStatusSent}
}

func (m *Mailer) write(env mail.Envelope, subject string, status models.EmailStatus, response string) {
	entry := models.EmailLog{
		ToEmail:     env.Recipients(),
		Subject:     subject,
		Message:     env.Message,
		Status:      status,
		APIResponse: response,
	}

	if err := emaillog.Create(m.db, &entry); err != nil {
		log.Error().Err(err).Str("to", entry.ToEmail).Str("status", string(status)).Msg("failed to write email log")
		return
	}

	emailsTotal.WithLabelValues(string(status)).Inc()
}

func prettyJSON(v any) string {
	out, err := json.MarshalIndent(v, "", "    ")
	if err != nil {
		return "{}"
	}

	return string(out)
}

// Send dispatches env. It returns true for sent and skipped messages.
func (m *Mailer) Send(ctx context.Context, env mail.Envelope) bool {
	o := m.dispatch(ctx, env, func(models.EmailStatus) string { return env.Subject })

	return o.status != models.EmailStatusFailed
}

// Debug traces what SendTest did.
type Debug struct {
	Steps   []string `json:"steps"`
	Headers []string `json:"headers"`
	Error   string   `json:"error,omitempty"`
}

// Result is returned to the admin UI.
type Result struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Debug   *Debug `json:"debug,omitempty"`
}

// SendTest sends an operator composed message through the pipeline.
func (m *Mailer) SendTest(ctx context.Context, to, subject, message string, html bool) Result {
	debug := &Debug{}

	if html {
		debug.Headers = append(debug.Headers, "Content-Type: text/html; charset=UTF-8")
		debug.Steps = append(debug.Steps, "HTML content type set")
	} else {
		debug.Headers = append(debug.Headers, "Content-Type: text/plain; charset=UTF-8")
		debug.Steps = append(debug.Steps, "Plain text content type set")
	}

	settings := m.settings()
	if from := settings.FromHeader(); from != "" {
		debug.Headers = append(debug.Headers, from)
	}

	debug.Steps = append(debug.Steps, "Headers prepared")

	if !m.store.HasAPIKey(m.db) {
		return Result{Message: MsgNoAPIKey, Debug: debug}
	}

	env := mail.Envelope{
		To:      mail.AddressList{to},
		Subject: subject,
		Message: message,
		Headers: mail.HeaderList(debug.Headers),
	}

	o := m.dispatch(ctx, env, func(models.EmailStatus) string { return subject })
	debug.Steps = append(debug.Steps, "Dispatch finished with status "+string(o.status))

	switch o.status {
	case models.EmailStatusSent:
		return Result{Success: true, Message: fmt.Sprintf("Test email sent successfully to %s! Please check your inbox.", to), Debug: debug}
	case models.EmailStatusSkipped:
		return Result{Success: true, Message: "Email sending is disabled in settings, the test email was logged as skipped.", Debug: debug}
	default:
		debug.Error = o.err.JSON()
		return Result{Message: "Failed to send test email: " + o.err.Message, Debug: debug}
	}
}

// Resend sends a logged message again as a new, independent attempt.
// The original row is left untouched.
func (m *Mailer) Resend(ctx context.Context, id uint64) (Result, error) {
	entry, err := emaillog.Get(m.db, id)
	if err != nil {
		return Result{}, err //nolint:wrapcheck
	}

	env := mail.Envelope{
		To:      mail.AddressList(mail.SplitAddresses(entry.ToEmail)),
		Subject: entry.Subject,
		Message: entry.Message,
	}

	o := m.dispatch(ctx, env, func(status models.EmailStatus) string {
		switch status {
		case models.EmailStatusSent:
			return entry.Subject + SuffixResent
		case models.EmailStatusSkipped:
			return entry.Subject + SuffixResendSkipped
		default:
			return entry.Subject + SuffixResendFailed
		}
	})

	switch o.status {
	case models.EmailStatusSent:
		return Result{Success: true, Message: "Email resent successfully."}, nil
	case models.EmailStatusSkipped:
		return Result{Message: "Email sending is disabled in settings."}, nil
	default:
		return Result{Message: o.err.Message}, nil
	}
}
