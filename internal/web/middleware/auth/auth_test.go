package auth_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/upmail/upmail/internal/web/handler"
	"github.com/upmail/upmail/internal/web/handler/handlertest"
	"github.com/upmail/upmail/internal/web/middleware/auth"
)

func setup(t *testing.T) (*handlertest.Fixture, *fiber.App) {
	t.Helper()

	fx := handlertest.New(t)
	app := fx.App()

	echo := func(c *fiber.Ctx) error {
		return c.SendString("user=" + handler.Username(c))
	}

	app.Get("/static/app.css", echo)
	app.Get("/checkalive", echo)
	app.Post("/api/v1/mail", echo)
	app.Get(handler.PathLogin, echo)
	app.Get(handler.PathDashboard, echo)
	app.Post(handler.PathAjax+"/check-api-key", echo)

	return fx, app
}

func TestPublicPaths(t *testing.T) {
	_, app := setup(t)

	for _, target := range []string{"/static/app.css", "/checkalive"} {
		resp := handlertest.Do(t, app, http.MethodGet, target, "", nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode, target)
	}

	resp := handlertest.Do(t, app, http.MethodPost, "/api/v1/mail", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestWithoutSession(t *testing.T) {
	_, app := setup(t)

	resp := handlertest.Do(t, app, http.MethodGet, handler.PathDashboard, "", nil)
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, handler.PathLogin, resp.Header.Get("Location"))

	resp = handlertest.Do(t, app, http.MethodGet, handler.PathDashboard, "unknown-session", nil)
	assert.Equal(t, http.StatusFound, resp.StatusCode)

	resp = handlertest.Do(t, app, http.MethodGet, handler.PathLogin, "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = handlertest.Do(t, app, http.MethodPost, handler.PathAjax+"/check-api-key", "", nil)
	env := handlertest.Decode(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.False(t, env.Success)
	assert.NotEmpty(t, env.Message())
}

func TestWithSession(t *testing.T) {
	fx, app := setup(t)
	sessionID := fx.Login(t, "erin", true)

	resp := handlertest.Do(t, app, http.MethodGet, handler.PathDashboard, sessionID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "user=erin", string(body))

	resp = handlertest.Do(t, app, http.MethodGet, handler.PathLogin, sessionID, nil)
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, handler.PathDashboard, resp.Header.Get("Location"))
}

func TestIsAjax(t *testing.T) {
	app := fiber.New()
	app.All("/*", func(c *fiber.Ctx) error {
		if auth.IsAjax(c) {
			return c.SendStatus(http.StatusAccepted)
		}

		return c.SendStatus(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/settings", nil)
	req.Header.Set(fiber.HeaderXRequestedWith, "XMLHttpRequest")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodPost, "/ajax/send-test", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/settings", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
