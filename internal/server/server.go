// Package server assembles the HTTP application.
package server

import (
	"context"
	"strings"
	"time"

	"snapshare/internal/config"
	"snapshare/internal/handlers"
	"snapshare/internal/metrics"
	"snapshare/internal/middleware"
	"snapshare/internal/services"
	"snapshare/internal/templates"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// Deps are the collaborators the HTTP layer is built from.
type Deps struct {
	Config     *config.Config
	Logger     *zap.Logger
	Auth       *services.AuthService
	Videos     *services.VideoService
	Engagement *services.EngagementService
	Metrics    *metrics.Metrics
	Gatherer   prometheus.Gatherer
	// MediaRoot is served under the media URL when set.
	MediaRoot string
	// HealthCheck reports whether the backing stores answer.
	HealthCheck func(ctx context.Context) error
	// AccessLog disables the request logger when false.
	AccessLog bool
}

// New builds the Fiber app with every middleware and route registered.
func New(d Deps) *fiber.App {
	cfg := d.Config
	log := d.Logger
	if log == nil {
		log = zap.NewNop()
	}

	app := fiber.New(fiber.Config{
		AppName:      "snapshare",
		BodyLimit:    cfg.MaxUploadBytes,
		Views:        templates.NewEngine(),
		ErrorHandler: handlers.ErrorHandler(log),
	})

	app.Use(recover.New(recover.Config{EnableStackTrace: cfg.Debug}))
	app.Use(requestid.New())
	if d.AccessLog {
		app.Use(logger.New())
	}
	app.Use(helmet.New(helmet.Config{
		CrossOriginEmbedderPolicy: "unsafe-none",
		CrossOriginResourcePolicy: "cross-origin",
	}))
	app.Use(middleware.AllowedHosts(cfg))
	app.Use(middleware.RequestTimeout(cfg.RequestTimeout))
	app.Use(d.Metrics.Middleware())

	app.Get("/health", healthHandler(d.HealthCheck))
	if d.Gatherer != nil {
		app.Get("/metrics", metrics.Handler(d.Gatherer))
	}
	if d.MediaRoot != "" {
		app.Static(mediaPrefix(cfg.Storage.MediaURL), d.MediaRoot, fiber.Static{ByteRange: true})
	}

	app.Use(middleware.LoadSession(d.Auth, log))

	authHandler := handlers.NewAuthHandler(d.Auth, !cfg.Debug, log)
	videoHandler := handlers.NewVideoHandler(d.Videos, d.Engagement)
	apiHandler := handlers.NewAPIHandler(d.Videos, d.Engagement)

	authHandler.RegisterRoutes(app)
	videoHandler.RegisterRoutes(app)

	api := app.Group("/api")
	authHandler.RegisterAPIRoutes(api)
	apiHandler.RegisterRoutes(api)

	app.Use(func(c *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusNotFound, "Not found.")
	})
	return app
}

func healthHandler(check func(ctx context.Context) error) fiber.Handler {
	return func(c *fiber.Ctx) error {
		status := fiber.Map{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		}
		if check != nil {
			if err := check(c.UserContext()); err != nil {
				status["status"] = "unhealthy"
				status["error"] = err.Error()
				return c.Status(fiber.StatusServiceUnavailable).JSON(status)
			}
		}
		return c.JSON(status)
	}
}

func mediaPrefix(mediaURL string) string {
	prefix := "/" + strings.Trim(mediaURL, "/")
	if prefix == "/" {
		return "/media"
	}
	return prefix
}
