package middleware

import (
	"context"
	"net"
	"time"

	"github.com/gofiber/fiber/v2"
)

// HostChecker decides whether a Host header is served.
type HostChecker interface {
	HostAllowed(host string) bool
}

// AllowedHosts answers 400 to requests whose Host is not configured.
func AllowedHosts(hosts HostChecker) fiber.Handler {
	return func(c *fiber.Ctx) error {
		host := c.Hostname()
		if h, _, err := net.SplitHostPort(host); err == nil {
			host = h
		}
		if !hosts.HostAllowed(host) {
			return c.Status(fiber.StatusBadRequest).SendString("Bad Request (400)")
		}
		return c.Next()
	}
}

// RequestTimeout bounds the user context of every request. Database and
// storage calls made with c.UserContext() fail once it expires.
func RequestTimeout(timeout time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), timeout)
		defer cancel()
		c.SetUserContext(ctx)
		return c.Next()
	}
}
