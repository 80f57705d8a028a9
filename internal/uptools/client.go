// Package uptools is the client of the uptools transactional email API.
package uptools

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/upmail/upmail/internal/mail"
)

const (
	// DefaultBaseURL of the API.
	DefaultBaseURL = "https://mail.api.uptools.io"

	// DefaultSendTimeout bounds POST /v1/send.
	DefaultSendTimeout = 30 * time.Second
	// DefaultValidateTimeout bounds GET /v1/contacts.
	DefaultValidateTimeout = 15 * time.Second

	sendPath     = "/v1/send"
	validatePath = "/v1/contacts"
)

// Request is the body of POST /v1/send. To is a string for one recipient
// and a list for several.
type Request struct {
	To      any      `json:"to"`
	Subject string   `json:"subject"`
	Body    string   `json:"body"`
	HTML    bool     `json:"html"`
	Name    string   `json:"name,omitempty"`
	From    string   `json:"from,omitempty"`
	CC      []string `json:"cc,omitempty"`
	BCC     []string `json:"bcc,omitempty"`
	Reply   string   `json:"reply,omitempty"`
}

// Response is the decoded body of an accepted send.
type Response map[string]any

// JSON returns the pretty-printed response.
func (r Response) JSON() string {
	out, err := json.MarshalIndent(r, "", "    ")
	if err != nil {
		return "{}"
	}

	return string(out)
}

// Client talks to one API base URL with one key.
type Client struct {
	baseURL         string
	apiKey          string
	sendTimeout     time.Duration
	validateTimeout time.Duration
	now             func() time.Time
}

// Option configures a Client.
type Option func(*Client)

// WithSendTimeout overrides DefaultSendTimeout.
func WithSendTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.sendTimeout = d
		}
	}
}

// WithValidateTimeout overrides DefaultValidateTimeout.
func WithValidateTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.validateTimeout = d
		}
	}
}

// WithClock sets the clock stamping error documents.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		c.now = now
	}
}

// New creates a client. An empty baseURL selects DefaultBaseURL.
func New(baseURL, apiKey string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	c := &Client{
		baseURL:         strings.TrimRight(baseURL, "/"),
		apiKey:          apiKey,
		sendTimeout:     DefaultSendTimeout,
		validateTimeout: DefaultValidateTimeout,
		now:             time.Now,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// timeout shortens d to the context deadline.
func timeout(ctx context.Context, d time.Duration) time.Duration {
	if deadline, ok := ctx.Deadline(); ok {
		if left := time.Until(deadline); left < d {
			return left
		}
	}

	return d
}

// ValidateKey reports whether the API accepts the key (HTTP 200 on GET /v1/contacts).
func (c *Client) ValidateKey(ctx context.Context) (bool, error) {
	if c.apiKey == "" {
		return false, ErrAPIKeyRequired
	}

	if err := ctx.Err(); err != nil {
		return false, err //nolint:wrapcheck
	}

	agent := fiber.Get(c.baseURL + validatePath)
	agent.Set(fiber.HeaderAuthorization, "Bearer "+c.apiKey)
	agent.ContentType(fiber.MIMEApplicationJSON)
	agent.Timeout(timeout(ctx, c.validateTimeout))

	code, _, errs := agent.Bytes()
	if len(errs) > 0 {
		return false, errs[0]
	}

	return code == fiber.StatusOK, nil
}

// BuildRequest turns an envelope into the API request.
func BuildRequest(env mail.Envelope) (*Request, error) {
	switch {
	case len(env.To) == 0:
		return nil, &Error{Code: fiber.StatusBadRequest, Kind: KindValidation, Message: "Recipient email is required"}
	case env.Subject == "":
		return nil, &Error{Code: fiber.StatusBadRequest, Kind: KindValidation, Message: "Subject is required"}
	case env.Message == "":
		return nil, &Error{Code: fiber.StatusBadRequest, Kind: KindValidation, Message: "Message content is required"}
	}

	headers := mail.ParseHeaders(env.Headers)

	recipients := make([]string, 0, len(env.To))
	for _, to := range env.To {
		recipients = append(recipients, mail.CleanAddress(to))
	}

	req := &Request{
		To:      recipients,
		Subject: env.Subject,
		Body:    env.Message,
		HTML:    headers.IsHTML(),
		CC:      mail.CleanAddressList(headers.CC),
		BCC:     mail.CleanAddressList(headers.BCC),
	}

	if len(recipients) == 1 {
		req.To = recipients[0]
	}

	if headers.From != "" {
		req.Name, req.From = mail.ParseFrom(headers.From)
	}

	if headers.ReplyTo != "" {
		req.Reply = mail.CleanAddress(headers.ReplyTo)
	}

	return req, nil
}

// Send submits one message. Any outcome other than HTTP 200 with
// "success": true is returned as *Error.
func (c *Client) Send(ctx context.Context, env mail.Envelope) (Response, error) {
	if c.apiKey == "" {
		return nil, &Error{Code: fiber.StatusBadRequest, Kind: KindConfiguration, Message: "API key is required"}
	}

	req, err := BuildRequest(env)
	if err != nil {
		return nil, err
	}

	if err = ctx.Err(); err != nil {
		return nil, &Error{Code: fiber.StatusInternalServerError, Kind: KindConnection, Message: err.Error(), Request: req}
	}

	agent := fiber.Post(c.baseURL + sendPath)
	agent.Set(fiber.HeaderAuthorization, "Bearer "+c.apiKey)
	agent.JSON(req)
	agent.Timeout(timeout(ctx, c.sendTimeout))

	code, raw, errs := agent.Bytes()
	if len(errs) > 0 {
		return nil, &Error{Code: fiber.StatusInternalServerError, Kind: KindConnection, Message: errs[0].Error(), Request: req}
	}

	log.Debug().Int("status", code).Bytes("body", raw).Msg("uptools send response")

	var body map[string]any
	_ = json.Unmarshal(raw, &body) //nolint:errcheck

	if code == fiber.StatusOK && body["success"] == true {
		return body, nil
	}

	apiErr := &Error{
		Code:    code,
		Kind:    KindAPI,
		Message: "Unknown error",
		Time:    c.now().Unix(),
		Request: req,
	}

	if body != nil {
		apiErr.Response = body
	}

	if v, ok := body["code"].(float64); ok {
		apiErr.Code = int(v)
	}

	if v, ok := body["error"].(string); ok && v != "" {
		apiErr.Kind = v
	}

	if v, ok := body["message"].(string); ok && v != "" {
		apiErr.Message = v
	}

	return nil, apiErr
}
