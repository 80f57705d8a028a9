package logout

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/upmail/upmail/internal/web/handler"
	"github.com/upmail/upmail/internal/web/handler/handlertest"
	"github.com/upmail/upmail/internal/web/session"
)

func TestLogoutDeletesSession(t *testing.T) {
	fx := handlertest.New(t)
	app := fx.App()

	var s Service
	require.NoError(t, s.Init(app, fx.Env))

	sessionID := fx.Login(t, "admin", true)

	resp := handlertest.Do(t, app, http.MethodPost, Path, sessionID, nil)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, handler.PathLogin, resp.Header.Get("Location"))
	assert.Contains(t, resp.Header.Get("Set-Cookie"), session.CookieName+"=;")
	assert.ErrorIs(t, new(session.Data).Read(sessionID), session.ErrNoSession)
}
