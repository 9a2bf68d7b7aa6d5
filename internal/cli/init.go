// Package cli provides the start-up and shutdown steps shared by the
// expenses, expenses-worker and expenses-export binaries.
package cli

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"expenses/internal/backend"
	"expenses/internal/config"
	applog "expenses/internal/log"
)

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// SetupLogger installs the default logger from LOG_LEVEL and LOG_FORMAT.
// It runs before configuration validation so validation errors are
// logged in the chosen format.
func SetupLogger(component string) *slog.Logger {
	return applog.Setup(applog.Config{
		Level:     applog.ParseLevel(os.Getenv("LOG_LEVEL")),
		Format:    os.Getenv("LOG_FORMAT"),
		Component: component,
		Output:    os.Stdout,
	})
}

// LoadAndValidateConfig loads configuration and validates it.
// Returns the config or exits the process on validation failure.
func LoadAndValidateConfig(logger *slog.Logger) *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	return cfg
}

// InitBackend assembles the configured backend or exits the process.
func InitBackend(ctx context.Context, logger *slog.Logger, cfg *config.Config) *backend.BackendResult {
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", "error", err)
		os.Exit(1)
	}
	res, err := backend.NewFactory(logger).CreateBackend(ctx, bcfg)
	if err != nil {
		logger.Error("Failed to initialize backend", "error", err, "type", bcfg.Type)
		os.Exit(1)
	}
	return res
}

// GracefulShutdown returns a context cancelled on SIGINT or SIGTERM.
// A second signal restores default handling so it terminates immediately.
func GracefulShutdown(logger *slog.Logger) (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ctx.Done()
		logger.Info("Shutdown signal received")
		stop()
	}()
	return ctx, stop
}

// RunCleanup runs cleanup and logs its error.
func RunCleanup(logger *slog.Logger, name string, cleanup func() error) {
	if cleanup == nil {
		return
	}
	if err := cleanup(); err != nil {
		logger.Error("Cleanup failed", "resource", name, "error", err)
	}
}
