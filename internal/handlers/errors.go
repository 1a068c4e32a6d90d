package handlers

import (
	"errors"
	"strings"

	"snapshare/internal/middleware"
	"snapshare/internal/services"
	"snapshare/internal/templates"
	"snapshare/internal/validator"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// retryAfterSeconds is sent with every 503.
const retryAfterSeconds = "5"

// statusOf maps an error onto an HTTP status and the message shown to clients.
func statusOf(err error) (int, string) {
	var fiberErr *fiber.Error
	switch {
	case errors.As(err, &fiberErr):
		return fiberErr.Code, fiberErr.Message
	case isValidation(err):
		return fiber.StatusBadRequest, "Validation failed"
	case errors.Is(err, services.ErrInvalidCredentials):
		return fiber.StatusUnauthorized, "Invalid username or password"
	case errors.Is(err, services.ErrUnauthenticated):
		return fiber.StatusUnauthorized, "Authentication credentials were not provided."
	case errors.Is(err, services.ErrForbidden):
		return fiber.StatusForbidden, "You do not have permission to perform this action."
	case errors.Is(err, services.ErrNotFound):
		return fiber.StatusNotFound, "Not found."
	case errors.Is(err, services.ErrUnavailable):
		return fiber.StatusServiceUnavailable, "Service temporarily unavailable. Please try again shortly."
	}
	return fiber.StatusInternalServerError, "Internal server error"
}

func isValidation(err error) bool {
	_, ok := validator.AsValidationErrors(err)
	return ok
}

// wantsJSON reports whether the request is served by the JSON API.
func wantsJSON(c *fiber.Ctx) bool {
	path := c.Path()
	return path == "/api" || strings.HasPrefix(path, "/api/") || strings.HasSuffix(path, "/like")
}

// ErrorHandler renders every error returned by a handler: JSON for API
// routes, an error page otherwise.
func ErrorHandler(logger *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status, message := statusOf(err)
		switch {
		case status == fiber.StatusServiceUnavailable:
			c.Set(fiber.HeaderRetryAfter, retryAfterSeconds)
			logger.Warn("backing service unavailable", zap.String("path", c.Path()), zap.Error(err))
		case status >= fiber.StatusInternalServerError:
			logger.Error("request failed",
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.Error(err),
			)
		}

		if wantsJSON(c) {
			body := fiber.Map{"message": message}
			if ve, ok := validator.AsValidationErrors(err); ok {
				body["errors"] = ve.Fields()
			}
			return c.Status(status).JSON(body)
		}

		renderErr := c.Status(status).Render("errors/error", fiber.Map{
			"PageTitle": message,
			"Status":    status,
			"Message":   message,
			"User":      middleware.CurrentIdentity(c),
		}, templates.Layout)
		if renderErr != nil {
			c.Set(fiber.HeaderContentType, fiber.MIMETextPlainCharsetUTF8)
			return c.Status(status).SendString(message)
		}
		return nil
	}
}
