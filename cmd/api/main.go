package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/JustinStark2022/KingdomKidsSecretPlace/internal/config"
	"github.com/JustinStark2022/KingdomKidsSecretPlace/internal/database"
	"github.com/JustinStark2022/KingdomKidsSecretPlace/internal/handlers"
	"github.com/JustinStark2022/KingdomKidsSecretPlace/internal/jobs"
	"github.com/JustinStark2022/KingdomKidsSecretPlace/internal/log"
	"github.com/JustinStark2022/KingdomKidsSecretPlace/internal/server"
	"github.com/JustinStark2022/KingdomKidsSecretPlace/internal/telemetry"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "kingdomkids-api",
		Short:         "Kingdom Kids family screen-time API",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}

	cmd.AddCommand(newServeCommand())
	cmd.AddCommand(newMigrateCommand())
	return cmd
}

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}
}

func newMigrateCommand() *cobra.Command {
	var status bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger := log.New(cfg.Environment, "kingdomkids-migrate")

			pool, err := database.NewPostgresPool(ctx, cfg.Postgres)
			if err != nil {
				return fmt.Errorf("connect postgres: %w", err)
			}
			defer pool.Close()

			if !status {
				if err := database.Migrate(ctx, pool); err != nil {
					return err
				}
			}
			version, err := database.Version(ctx, pool)
			if err != nil {
				return err
			}
			logger.Info().Int64("version", version).Msg("schema version")
			return nil
		},
	}

	cmd.Flags().BoolVar(&status, "status", false, "Only report the current schema version")
	return cmd
}

func runServe(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := log.New(cfg.Environment, cfg.Telemetry.ServiceName)

	shutdownTracing, wrap, err := telemetry.Init(ctx, cfg.Telemetry)
	if err != nil {
		return err
	}

	a, err := buildApp(ctx, cfg, logger)
	if err != nil {
		if shutdownErr := shutdownTracing(context.Background()); shutdownErr != nil {
			logger.Error().Err(shutdownErr).Msg("tracer shutdown failed")
		}
		return err
	}

	handlerSet := handlers.NewHandlerSet(logger, cfg, a.services, a.checks)
	httpServer := server.NewHTTPServer(cfg, logger, handlerSet, wrap)

	var scheduler *jobs.Scheduler
	if cfg.Jobs.Enabled && a.redis != nil {
		scheduler = jobs.NewScheduler(a.services.Ledger, a.store, a.publisher, cfg.Jobs.OverBudgetCron, log.Component(logger, "jobs"))
		if err := scheduler.Start(); err != nil {
			logger.Error().Err(err).Msg("scheduler start failed")
			scheduler = nil
		}
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.Start()
	}()

	return waitForShutdown(logger, errCh, httpServer, scheduler, a, shutdownTracing)
}

func waitForShutdown(
	logger zerolog.Logger,
	errCh <-chan error,
	srv *server.HTTPServer,
	scheduler *jobs.Scheduler,
	a *app,
	shutdownTracing telemetry.Shutdown,
) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var serveErr error
	select {
	case <-ctx.Done():
		logger.Info().Msg("shutdown signal received")
	case serveErr = <-errCh:
		if serveErr != nil {
			logger.Error().Err(serveErr).Msg("http server failed")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}

	if scheduler != nil {
		scheduler.Stop()
	}

	a.close(logger)
	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("tracer shutdown failed")
	}

	if serveErr != nil {
		return serveErr
	}
	logger.Info().Msg("server exited cleanly")
	return nil
}
