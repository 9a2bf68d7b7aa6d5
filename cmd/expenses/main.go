package main

import (
	"context"
	"errors"
	"net/http"
	"os"

	"expenses/internal/cli"
	apphttp "expenses/internal/http"
	applog "expenses/internal/log"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(applog.ComponentApp)
	cfg := cli.LoadAndValidateConfig(logger)

	categories, err := cfg.LoadCategories()
	if err != nil {
		logger.Error("Failed to load categories", "error", err, "file", cfg.CategoriesFile)
		os.Exit(1)
	}

	ctx, stop := cli.GracefulShutdown(logger)
	defer stop()

	be := cli.InitBackend(ctx, logger, cfg)
	defer cli.RunCleanup(logger, "backend", be.Cleanup)

	srv := apphttp.NewServer(be.Service, apphttp.Options{
		Addr:               ":" + cfg.Port,
		Categories:         categories,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		Logger:             logger,
	})

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting expenses server",
			"port", cfg.Port,
			"backend", cfg.DataBackend,
			"amqp", be.Publisher != nil)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			logger.Error("Server error", "error", err, "port", cfg.Port)
			cli.RunCleanup(logger, "backend", be.Cleanup)
			os.Exit(1)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", "error", err)
	}
	logger.Info("Server stopped gracefully")
}
