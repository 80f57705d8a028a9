package ajax

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/upmail/upmail/internal/credential"
	"github.com/upmail/upmail/internal/db/controller/emaillog"
	"github.com/upmail/upmail/internal/db/controller/mailsettings"
	"github.com/upmail/upmail/internal/db/models"
	"github.com/upmail/upmail/internal/mailer"
	"github.com/upmail/upmail/internal/web/handler"
	"github.com/upmail/upmail/internal/web/handler/handlertest"
	"github.com/upmail/upmail/internal/web/session"
)

type fixture struct {
	*handlertest.Fixture
	app       *fiber.App
	sessionID string
}

func setup(t *testing.T) *fixture {
	t.Helper()

	fx := handlertest.New(t)
	app := fx.App()

	var s Service
	require.NoError(t, s.Init(app, fx.Env))

	return &fixture{Fixture: fx, app: app, sessionID: fx.Login(t, "admin", true)}
}

// call posts action with a valid token.
func (f *fixture) call(t *testing.T, action string, form url.Values) (*http.Response, handlertest.Envelope) {
	t.Helper()

	if form == nil {
		form = url.Values{}
	}

	form.Set("nonce", f.Env.NonceIssuer.Create(f.sessionID, action))

	resp := handlertest.Do(t, f.app, http.MethodPost, Path(action), f.sessionID, form)

	return resp, handlertest.Decode(t, resp)
}

func (f *fixture) addLog(t *testing.T, status models.EmailStatus, response string) uint64 {
	t.Helper()

	entry := &models.EmailLog{
		ToEmail:     "to@example.com",
		Subject:     "Hello",
		Message:     "Body",
		Status:      status,
		APIResponse: response,
	}
	require.NoError(t, emaillog.Create(f.Env.DB, entry))

	return entry.ID
}

func countLogs(t *testing.T, f *fixture) int64 {
	t.Helper()

	var n int64
	require.NoError(t, f.Env.DB.Model(&models.EmailLog{}).Count(&n).Error)

	return n
}

func TestInitRequiresDependencies(t *testing.T) {
	fx := handlertest.New(t)
	fx.Env.Limiter = nil

	var s Service
	require.ErrorIs(t, s.Init(fiber.New(), fx.Env), ErrMissingDependency)
	require.Error(t, s.Init(nil, fx.Env))
}

func TestNonceAndPermission(t *testing.T) {
	f := setup(t)

	resp := handlertest.Do(t, f.app, http.MethodPost, Path(handler.ActionResetAPIKey), f.sessionID, url.Values{})
	env := handlertest.Decode(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, msgInvalidNonce, env.Message())

	// a token of another action is refused
	resp = handlertest.Do(t, f.app, http.MethodPost, Path(handler.ActionResetAPIKey), f.sessionID, url.Values{
		"nonce": {f.Env.NonceIssuer.Create(f.sessionID, handler.ActionDeleteAllLogs)},
	})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	guest := f.Login(t, "guest", false)
	resp = handlertest.Do(t, f.app, http.MethodPost, Path(handler.ActionDeleteAllLogs), guest, url.Values{
		"nonce": {f.Env.NonceIssuer.Create(guest, handler.ActionDeleteAllLogs)},
	})
	env = handlertest.Decode(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.False(t, env.Success)

	resp = handlertest.Do(t, f.app, http.MethodPost, Path(handler.ActionDeleteAllLogs), "", url.Values{})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestNonceInHeader(t *testing.T) {
	f := setup(t)

	req, err := http.NewRequest(http.MethodPost, Path(handler.ActionResetAPIKey), nil)
	require.NoError(t, err)
	req.Header.Set(handler.HeaderNonce, f.Env.NonceIssuer.Create(f.sessionID, handler.ActionResetAPIKey))
	req.AddCookie(&http.Cookie{Name: session.CookieName, Value: f.sessionID})

	resp, err := f.app.Test(req, -1)
	require.NoError(t, err)

	env := handlertest.Decode(t, resp)
	assert.True(t, env.Success)
}

func TestValidateAPIKey(t *testing.T) {
	f := setup(t)

	resp, env := f.call(t, handler.ActionValidateAPIKey, url.Values{"api_key": {"short"}})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, credential.ErrKeyTooShort.Error(), env.Message())
	assert.Zero(t, f.API.Contacts(), "format errors never reach the API")

	f.API.Set(http.StatusOK, "", http.StatusUnauthorized)

	_, env = f.call(t, handler.ActionValidateAPIKey, url.Values{"api_key": {handlertest.APIKey}})
	assert.False(t, env.Success)
	assert.Equal(t, msgKeyInvalid, env.Message())
	assert.Equal(t, false, env.Data["is_valid"])
	assert.False(t, f.Env.Store.HasAPIKey(f.Env.DB))

	f.API.Set(http.StatusOK, "", http.StatusOK)

	_, env = f.call(t, handler.ActionValidateAPIKey, url.Values{"api_key": {" " + handlertest.APIKey + " "}})
	assert.True(t, env.Success)
	assert.Equal(t, true, env.Data["is_valid"])

	key, err := f.Env.Store.APIKey(f.Env.DB)
	require.NoError(t, err)
	assert.Equal(t, handlertest.APIKey, key)

	status, err := credential.LoadStatus(f.Env.DB)
	require.NoError(t, err)
	assert.True(t, status.IsValid)
}

func TestValidateAPIKeyRateLimit(t *testing.T) {
	f := setup(t)
	f.API.Set(http.StatusOK, "", http.StatusUnauthorized)

	for range credential.MaxAttempts {
		resp, _ := f.call(t, handler.ActionValidateAPIKey, url.Values{"api_key": {handlertest.APIKey}})
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	}

	resp, env := f.call(t, handler.ActionValidateAPIKey, url.Values{"api_key": {handlertest.APIKey}})
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, credential.ErrTooManyAttempts.Error(), env.Message())
	assert.Equal(t, credential.MaxAttempts, f.API.Contacts())
}

func TestValidateAPIKeyMalformedCounts(t *testing.T) {
	f := setup(t)

	for range credential.MaxAttempts {
		resp, _ := f.call(t, handler.ActionValidateAPIKey, url.Values{"api_key": {"short"}})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	}

	resp, _ := f.call(t, handler.ActionValidateAPIKey, url.Values{"api_key": {handlertest.APIKey}})
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Zero(t, f.API.Contacts())
}

func TestValidateAPIKeyRejectedKeepsStoredStatus(t *testing.T) {
	f := setup(t)
	f.StoreKey(t)

	checked := time.Now().Add(-10 * time.Minute).Truncate(time.Second)
	require.NoError(t, credential.StoreStatus(f.Env.DB, credential.Status{IsValid: true, LastCheck: checked}))

	f.API.Set(http.StatusOK, "", http.StatusUnauthorized)

	_, env := f.call(t, handler.ActionValidateAPIKey, url.Values{"api_key": {strings.Repeat("z", 40)}})
	assert.False(t, env.Success)
	assert.Equal(t, msgKeyInvalid, env.Message())

	key, err := f.Env.Store.APIKey(f.Env.DB)
	require.NoError(t, err)
	assert.Equal(t, handlertest.APIKey, key)

	status, err := credential.LoadStatus(f.Env.DB)
	require.NoError(t, err)
	assert.True(t, status.IsValid)
	assert.True(t, status.LastCheck.Equal(checked))
}

func TestCheckAndResetAPIKey(t *testing.T) {
	f := setup(t)

	_, env := f.call(t, handler.ActionCheckAPIKey, nil)
	assert.False(t, env.Success)
	assert.Equal(t, msgNoKey, env.Message())

	f.StoreKey(t)

	_, env = f.call(t, handler.ActionCheckAPIKey, nil)
	assert.True(t, env.Success)
	assert.Equal(t, true, env.Data["is_valid"])

	_, env = f.call(t, handler.ActionResetAPIKey, nil)
	assert.True(t, env.Success)
	assert.Equal(t, msgKeyReset, env.Message())
	assert.False(t, f.Env.Store.HasAPIKey(f.Env.DB))

	status, err := credential.LoadStatus(f.Env.DB)
	require.NoError(t, err)
	assert.Equal(t, credential.Status{}, status)
}

func TestSendTest(t *testing.T) {
	f := setup(t)

	tests := []struct {
		name string
		form url.Values
		want string
	}{
		{"missing recipient", url.Values{"subject": {"s"}, "message": {"m"}}, "Recipient email is required."},
		{"bad recipient", url.Values{"to": {"nope"}, "subject": {"s"}, "message": {"m"}}, "Invalid recipient email address."},
		{"missing subject", url.Values{"to": {"a@example.com"}, "message": {"m"}}, "Subject is required."},
		{"missing message", url.Values{"to": {"a@example.com"}, "subject": {"s"}}, "Message is required."},
		{"no key", url.Values{"to": {"a@example.com"}, "subject": {"s"}, "message": {"m"}}, msgConfigureKey},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, env := f.call(t, handler.ActionSendTest, tt.form)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			assert.Equal(t, tt.want, env.Message())
		})
	}

	assert.Zero(t, countLogs(t, f), "refused test mails are not logged")

	f.StoreKey(t)

	_, env := f.call(t, handler.ActionSendTest, url.Values{
		"to": {"a@example.com"}, "subject": {"Hi"}, "message": {"<b>x</b>"}, "html": {"true"},
	})
	require.True(t, env.Success, env.Message())
	assert.Contains(t, env.Message(), "a@example.com")
	assert.NotNil(t, env.Data["debug"])

	sends := f.API.Sends()
	require.Len(t, sends, 1)
	assert.Equal(t, "Hi", sends[0]["subject"])
	assert.Equal(t, int64(1), countLogs(t, f))

	f.API.Set(http.StatusUnauthorized, `{"message":"bad key"}`, http.StatusOK)

	_, env = f.call(t, handler.ActionSendTest, url.Values{
		"to": {"a@example.com"}, "subject": {"Hi"}, "message": {"x"},
	})
	assert.False(t, env.Success)
	assert.Contains(t, env.Message(), "Failed to send test email")
}

func TestViewEmail(t *testing.T) {
	f := setup(t)
	id := f.addLog(t, models.EmailStatusSent, `{"success":true,"id":"x"}`)

	resp, env := f.call(t, handler.ActionViewEmail, url.Values{"id": {"abc"}})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, msgInvalidLogID, env.Message())

	resp, env = f.call(t, handler.ActionViewEmail, url.Values{"id": {"999"}})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, msgLogNotFound, env.Message())

	_, env = f.call(t, handler.ActionViewEmail, url.Values{"id": {strconv.FormatUint(id, 10)}})
	require.True(t, env.Success)
	assert.Equal(t, "Hello", env.Data["subject"])
	assert.Equal(t, "to@example.com", env.Data["to"])
	assert.Equal(t, "sent", env.Data["status"])
	assert.Equal(t, "{\n    \"success\": true,\n    \"id\": \"x\"\n}", env.Data["api_response"])
}

func TestPrettyResponse(t *testing.T) {
	assert.Empty(t, prettyResponse(""))
	assert.Equal(t, "not json", prettyResponse("not json"))
	assert.Equal(t, "{\n    \"a\": 1\n}", prettyResponse(`{"a":1}`))
}

func TestResendEmail(t *testing.T) {
	f := setup(t)
	f.StoreKey(t)
	id := f.addLog(t, models.EmailStatusFailed, "")

	_, env := f.call(t, handler.ActionResendEmail, url.Values{"id": {strconv.FormatUint(id, 10)}})
	require.True(t, env.Success, env.Message())

	page, err := emaillog.List(f.Env.DB, emaillog.Query{})
	require.NoError(t, err)
	require.Len(t, page.Logs, 2)
	assert.Equal(t, "Hello"+mailer.SuffixResent, page.Logs[0].Subject)
	assert.Equal(t, models.EmailStatusFailed, page.Logs[1].Status, "original row untouched")

	var settings mailsettings.Settings
	settings.DisableAllEmails = true
	require.NoError(t, settings.Save(f.Env.DB))

	_, env = f.call(t, handler.ActionResendEmail, url.Values{"id": {strconv.FormatUint(id, 10)}})
	assert.False(t, env.Success)
	assert.Len(t, f.API.Sends(), 1)

	resp, env := f.call(t, handler.ActionResendEmail, url.Values{"id": {"12345"}})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, msgLogNotFound, env.Message())
}

func TestDeleteLogs(t *testing.T) {
	f := setup(t)
	id := f.addLog(t, models.EmailStatusSent, "")
	f.addLog(t, models.EmailStatusFailed, "")
	f.addLog(t, models.EmailStatusSkipped, "")

	_, env := f.call(t, handler.ActionDeleteLog, url.Values{"id": {strconv.FormatUint(id, 10)}})
	assert.True(t, env.Success)
	assert.Equal(t, "Log deleted successfully.", env.Message())

	_, env = f.call(t, handler.ActionDeleteLog, url.Values{"id": {strconv.FormatUint(id, 10)}})
	assert.False(t, env.Success)
	assert.Equal(t, "Failed to delete log.", env.Message())

	_, env = f.call(t, handler.ActionDeleteAllLogs, nil)
	assert.True(t, env.Success)
	assert.Equal(t, "All logs deleted successfully.", env.Message())
	assert.InDelta(t, 2, env.Data["deleted"], 0)
	assert.Zero(t, countLogs(t, f))
}
