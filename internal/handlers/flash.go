package handlers

import (
	"net/url"
	"strings"

	"snapshare/internal/templates"

	"github.com/gofiber/fiber/v2"
)

const flashCookie = "flash"

const (
	flashSuccess = "success"
	flashError   = "danger"
	flashInfo    = "info"
)

// setFlash queues a message for the next rendered page.
func setFlash(c *fiber.Ctx, kind, message string) {
	c.Cookie(&fiber.Cookie{
		Name:     flashCookie,
		Value:    url.QueryEscape(kind + "|" + message),
		Path:     "/",
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

// popFlash returns the queued message, if any, and clears it.
func popFlash(c *fiber.Ctx) *templates.Flash {
	raw := c.Cookies(flashCookie)
	if raw == "" {
		return nil
	}
	c.Cookie(&fiber.Cookie{
		Name:     flashCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})

	decoded, err := url.QueryUnescape(raw)
	if err != nil {
		return nil
	}
	kind, message, ok := strings.Cut(decoded, "|")
	if !ok || message == "" {
		return nil
	}
	switch kind {
	case flashSuccess, flashError, flashInfo:
	default:
		kind = flashInfo
	}
	return &templates.Flash{Kind: kind, Message: message}
}

// flashOf builds a message rendered on the current response.
func flashOf(kind, message string) *templates.Flash {
	return &templates.Flash{Kind: kind, Message: message}
}
