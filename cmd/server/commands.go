package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/spf13/cobra"

	"github.com/anonto42/discussion-tree/backend/internal/metrics"
	"github.com/anonto42/discussion-tree/backend/internal/router"
	"github.com/anonto42/discussion-tree/backend/pkg/config"
	"github.com/anonto42/discussion-tree/backend/validators"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API, the metrics server and the retention sweep",
	RunE:  runServe,
}

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Purge comments deleted longer ago than the retention window, then exit",
	RunE:  runSweep,
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer app.db.Close()

	auth, err := app.authMiddleware(ctx)
	if err != nil {
		return err
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = validators.NewValidator()
	config.SetupMiddleware(e, app.logger)
	router.SetupRoutes(e, router.Deps{
		Comments:      app.commentService,
		Notifications: app.notificationService,
		Users:         app.users,
		Auth:          auth,
		LocalAuth:     app.cfg.AuthProvider == config.AuthProviderJWT,
		JWTSecret:     app.cfg.JWTSecret,
		JWTTTL:        app.cfg.JWTTTL,
		HealthChecks:  app.healthChecks(),
		Logger:        app.logger,
	})

	metricsServer := metrics.NewServer(":"+app.cfg.MetricsPort, app.logger)
	metricsServer.Start()

	sweep := app.newSweeper()
	if err := sweep.Start(ctx); err != nil {
		return err
	}

	serverErr := make(chan error, 1)
	go func() {
		app.logger.Info("starting HTTP server", "port", app.cfg.Port)
		if err := e.Start(":" + app.cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case <-ctx.Done():
		app.logger.Info("shutdown signal received")
	case err = <-serverErr:
		app.logger.Error("HTTP server failed", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	sweep.Stop()
	if err := e.Shutdown(shutdownCtx); err != nil {
		app.logger.Error("HTTP server shutdown", "error", err)
	}
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		app.logger.Error("metrics server shutdown", "error", err)
	}
	return err
}

func runSweep(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer app.db.Close()

	result, err := app.newSweeper().RunNow(ctx)
	if err != nil {
		return err
	}
	app.logger.Info("retention sweep finished",
		"found", result.Found,
		"purged", result.Purged,
		"detached_notifications", result.Detached,
		"duration", result.Duration().String(),
	)
	return nil
}
