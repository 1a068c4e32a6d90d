package main

import (
	"context"
	"fmt"
	"os/signal"
	"sync"
	"syscall"

	"snapshare/internal/config"
	"snapshare/internal/logging"
	"snapshare/internal/models"
	"snapshare/internal/repositories"
	"snapshare/internal/services"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type commandContext struct {
	configOnce sync.Once
	config     *config.Config
	logger     *zap.Logger
	configErr  error
}

// ensure loads the configuration and builds the logger once.
func (c *commandContext) ensure() (*config.Config, *zap.Logger, error) {
	c.configOnce.Do(func() {
		cfg, err := config.Load()
		if err != nil {
			c.configErr = err
			return
		}
		logger, err := logging.New(cfg.LogLevel, cfg.Debug)
		if err != nil {
			c.configErr = err
			return
		}
		c.config, c.logger = cfg, logger
	})
	return c.config, c.logger, c.configErr
}

func newRootCommand() *cobra.Command {
	ctx := &commandContext{}

	rootCmd := &cobra.Command{
		Use:           "snapshare",
		Short:         "SnapShare video sharing server",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, ctx)
		},
	}

	rootCmd.AddCommand(newServeCommand(ctx))
	rootCmd.AddCommand(newMigrateCommand(ctx))
	rootCmd.AddCommand(newPromoteCommand(ctx))
	return rootCmd
}

func newServeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server (default)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, ctx)
		},
	}
}

func runServe(cmd *cobra.Command, ctx *commandContext) error {
	cfg, logger, err := ctx.ensure()
	if err != nil {
		return err
	}
	defer logger.Sync()

	runCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return serve(runCtx, cfg, logger)
}

func newMigrateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := ctx.ensure()
			if err != nil {
				return err
			}
			db, err := repositories.OpenDatabase(cfg.Database, cfg.Debug)
			if err != nil {
				return err
			}
			defer closeDatabase(db, logger)
			if err := repositories.AutoMigrate(db); err != nil {
				return err
			}
			logger.Info("database migrated", zap.String("driver", cfg.Database.Driver))
			return nil
		},
	}
}

func newPromoteCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "promote <username> [role]",
		Short: "Change a user's role (creator by default)",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := ctx.ensure()
			if err != nil {
				return err
			}
			role := models.RoleCreator
			if len(args) == 2 {
				role = models.Role(args[1])
			}

			db, err := repositories.OpenDatabase(cfg.Database, cfg.Debug)
			if err != nil {
				return err
			}
			defer closeDatabase(db, logger)
			authService := services.NewAuthService(
				repositories.NewGORMUserRepository(db), nil, nil,
				cfg.SecretKey, cfg.SessionTTL, services.Observers{Logger: logger},
			)
			if err := authService.ChangeRole(commandCtx(cmd), args[0], role); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s is now a %s\n", args[0], role.Label())
			return nil
		},
	}
}

func commandCtx(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func closeDatabase(db *gorm.DB, logger *zap.Logger) {
	sqlDB, err := db.DB()
	if err != nil {
		return
	}
	if err := sqlDB.Close(); err != nil {
		logger.Warn("failed to close database", zap.Error(err))
	}
}
