package middleware

import (
	"context"
	"errors"
	"net/url"
	"strings"

	"snapshare/internal/models"
	"snapshare/internal/services"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// SessionCookie carries the session token for browsers.
const SessionCookie = "session_token"

const (
	identityKey     = "identity"
	sessionErrorKey = "session_error"
)

// TokenValidator resolves session tokens.
type TokenValidator interface {
	ValidateToken(ctx context.Context, token string) (*models.Identity, error)
}

// TokenFromRequest returns the bearer token of the Authorization header, or
// the session cookie when no header is sent.
func TokenFromRequest(c *fiber.Ctx) string {
	if authHeader := c.Get(fiber.HeaderAuthorization); authHeader != "" {
		// Expected format: "Bearer <token>"
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
		return ""
	}
	return c.Cookies(SessionCookie)
}

// LoadSession resolves the request's session, if any, and stores the
// identity for later handlers. Anonymous requests pass through.
func LoadSession(validator TokenValidator, logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := TokenFromRequest(c)
		if token == "" {
			return c.Next()
		}

		identity, err := validator.ValidateToken(c.UserContext(), token)
		switch {
		case err == nil:
			c.Locals(identityKey, identity)
		case errors.Is(err, services.ErrUnauthenticated):
			if c.Cookies(SessionCookie) != "" {
				ClearSessionCookie(c)
			}
		default:
			logger.Warn("session lookup failed", zap.String("path", c.Path()), zap.Error(err))
			c.Locals(sessionErrorKey, err)
		}
		return c.Next()
	}
}

// CurrentIdentity returns the signed-in user of the request, or nil.
func CurrentIdentity(c *fiber.Ctx) *models.Identity {
	identity, _ := c.Locals(identityKey).(*models.Identity)
	return identity
}

func sessionError(c *fiber.Ctx) error {
	err, _ := c.Locals(sessionErrorKey).(error)
	return err
}

// RequireAPIAuth rejects anonymous API requests with 401.
func RequireAPIAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if CurrentIdentity(c) != nil {
			return c.Next()
		}
		if err := sessionError(c); err != nil {
			return err
		}
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"message": "Authentication credentials were not provided.",
		})
	}
}

// LoginRequired redirects anonymous browsers to the login page, remembering
// where they were going.
func LoginRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if CurrentIdentity(c) != nil {
			return c.Next()
		}
		if err := sessionError(c); err != nil {
			return err
		}
		return c.Redirect("/login?next="+url.QueryEscape(c.OriginalURL()), fiber.StatusFound)
	}
}

// SetSessionCookie stores token in an HttpOnly cookie.
func SetSessionCookie(c *fiber.Ctx, token string, maxAge int, secure bool) {
	c.Cookie(&fiber.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   maxAge,
		Secure:   secure,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

// ClearSessionCookie removes the session cookie from the browser.
func ClearSessionCookie(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}
