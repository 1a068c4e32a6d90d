package middleware_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"snapshare/internal/middleware"
	"snapshare/internal/models"
	"snapshare/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubValidator map[string]*models.Identity

func (s stubValidator) ValidateToken(_ context.Context, token string) (*models.Identity, error) {
	if token == "down" {
		return nil, services.ErrUnavailable
	}
	if id, ok := s[token]; ok {
		return id, nil
	}
	return nil, services.ErrUnauthenticated
}

func newApp() *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if errors.Is(err, services.ErrUnavailable) {
				return c.SendStatus(fiber.StatusServiceUnavailable)
			}
			return fiber.DefaultErrorHandler(c, err)
		},
	})
	validator := stubValidator{"good": {UserID: 1, Username: "alice", Role: models.RoleCreator}}
	app.Use(middleware.LoadSession(validator, zap.NewNop()))

	whoami := func(c *fiber.Ctx) error {
		if id := middleware.CurrentIdentity(c); id != nil {
			return c.SendString(id.Username)
		}
		return c.SendString("anonymous")
	}
	app.Get("/open", whoami)
	app.Get("/api/me", middleware.RequireAPIAuth(), whoami)
	app.Get("/profile", middleware.LoginRequired(), whoami)
	return app
}

func TestLoadSession(t *testing.T) {
	app := newApp()

	req := httptest.NewRequest("GET", "/open", nil)
	req.Header.Set("Authorization", "Bearer good")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	req = httptest.NewRequest("GET", "/api/me", nil)
	req.AddCookie(&http.Cookie{Name: middleware.SessionCookie, Value: "good"})
	resp, err = app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestRequireAPIAuth(t *testing.T) {
	app := newApp()

	resp, err := app.Test(httptest.NewRequest("GET", "/api/me", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	req := httptest.NewRequest("GET", "/api/me", nil)
	req.Header.Set("Authorization", "Bearer revoked")
	resp, err = app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	req = httptest.NewRequest("GET", "/api/me", nil)
	req.Header.Set("Authorization", "Bearer down")
	resp, err = app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)
}

func TestLoginRequiredRedirects(t *testing.T) {
	app := newApp()

	resp, err := app.Test(httptest.NewRequest("GET", "/profile?tab=videos", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Equal(t, "/login?next=%2Fprofile%3Ftab%3Dvideos", resp.Header.Get("Location"))
}

func TestInvalidCookieIsCleared(t *testing.T) {
	app := newApp()

	req := httptest.NewRequest("GET", "/open", nil)
	req.AddCookie(&http.Cookie{Name: middleware.SessionCookie, Value: "stale"})
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Contains(t, resp.Header.Get("Set-Cookie"), middleware.SessionCookie+"=;")
}

type hostList []string

func (h hostList) HostAllowed(host string) bool {
	for _, allowed := range h {
		if allowed == host {
			return true
		}
	}
	return false
}

func TestAllowedHosts(t *testing.T) {
	app := fiber.New()
	app.Use(middleware.AllowedHosts(hostList{"example.com"}))
	app.Get("/", func(c *fiber.Ctx) error { return c.SendString("ok") })

	resp, err := app.Test(httptest.NewRequest("GET", "http://example.com:8080/", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest("GET", "http://evil.test/", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestRequestTimeout(t *testing.T) {
	app := fiber.New()
	app.Use(middleware.RequestTimeout(50 * time.Millisecond))
	app.Get("/", func(c *fiber.Ctx) error {
		deadline, ok := c.UserContext().Deadline()
		if !ok || time.Until(deadline) > 50*time.Millisecond {
			return c.SendStatus(fiber.StatusInternalServerError)
		}
		return c.SendStatus(fiber.StatusNoContent)
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)
}
