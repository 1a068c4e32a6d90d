package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"snapshare/internal/config"
	"snapshare/internal/metrics"
	"snapshare/internal/repositories"
	"snapshare/internal/server"
	"snapshare/internal/services"
	"snapshare/internal/session"
	"snapshare/internal/storage"
	"snapshare/pkg/rabbitmq"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

// application is the wired server and the resources it holds.
type application struct {
	app     *fiber.App
	closers []func() error
}

func (a *application) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	return errors.Join(errs...)
}

// buildApplication opens every backing service and assembles the HTTP app.
func buildApplication(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*application, error) {
	a := &application{}
	fail := func(err error) (*application, error) {
		a.Close()
		return nil, err
	}

	db, err := repositories.OpenDatabase(cfg.Database, cfg.Debug)
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database handle: %w", err)
	}
	a.closers = append(a.closers, sqlDB.Close)
	if err := repositories.AutoMigrate(db); err != nil {
		return fail(err)
	}

	media, err := storage.New(ctx, cfg.Storage, logger)
	if err != nil {
		return fail(err)
	}

	var sessions session.Store
	if cfg.RedisURL != "" {
		client, err := session.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			return fail(err)
		}
		a.closers = append(a.closers, client.Close)
		sessions = session.NewRedisStore(client)
	} else {
		logger.Warn("REDIS_URL not set, sessions are kept in memory")
		sessions = session.NewMemoryStore()
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	obs := services.Observers{Logger: logger, Metrics: metrics.New(registry)}

	if cfg.RabbitMQURL != "" {
		mqClient, err := rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQURL}, logger)
		if err != nil {
			return fail(err)
		}
		a.closers = append(a.closers, mqClient.Close)
		if err := mqClient.ConsumeEvents(rabbitmq.ActivityLogger(logger.Named("activity"))); err != nil {
			return fail(err)
		}
		obs.Events = mqClient
	}

	userRepo := repositories.NewGORMUserRepository(db)
	videoRepo := repositories.NewGORMVideoRepository(db)
	engagementRepo := repositories.NewGORMEngagementRepository(db)

	deps := server.Deps{
		Config:     cfg,
		Logger:     logger,
		Auth:       services.NewAuthService(userRepo, sessions, media, cfg.SecretKey, cfg.SessionTTL, obs),
		Videos:     services.NewVideoService(videoRepo, engagementRepo, media, obs),
		Engagement: services.NewEngagementService(engagementRepo, videoRepo, obs),
		Metrics:    obs.Metrics,
		Gatherer:   registry,
		HealthCheck: func(ctx context.Context) error {
			return sqlDB.PingContext(ctx)
		},
		AccessLog: true,
	}
	if cfg.Storage.Provider == "local" {
		deps.MediaRoot = cfg.Storage.MediaRoot
	}
	a.app = server.New(deps)
	return a, nil
}

// serve runs the HTTP server until ctx is cancelled, then shuts down gracefully.
func serve(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	a, err := buildApplication(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			logger.Error("failed to release resources", zap.Error(err))
		}
	}()

	listenErr := make(chan error, 1)
	go func() {
		logger.Info("starting server", zap.String("addr", cfg.AppPort), zap.Bool("debug", cfg.Debug))
		listenErr <- a.app.Listen(cfg.AppPort)
	}()

	select {
	case err := <-listenErr:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	if err := a.app.ShutdownWithTimeout(shutdownTimeout); err != nil {
		return fmt.Errorf("error during shutdown: %w", err)
	}
	logger.Info("server gracefully stopped")
	return nil
}
