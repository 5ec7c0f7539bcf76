// Package cli provides common initialization utilities shared by
// cmd/ledger-server and cmd/ledger-worker.
package cli

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"ledger/internal/config"
	"ledger/internal/log"
)

// SetupLogger builds the process logger from LOG_LEVEL and installs it as
// the slog default.
func SetupLogger(component string) *log.Logger {
	cfg := log.DefaultConfig()
	cfg.Level = log.ParseLevel(os.Getenv("LOG_LEVEL"))
	cfg.Component = component
	logger := log.New(cfg)
	log.SetDefault(logger)
	return logger
}

// SetupClientLogger logs to stderr at warn unless LOG_LEVEL says
// otherwise, keeping stdout for command output.
func SetupClientLogger() *log.Logger {
	cfg := log.DefaultConfig()
	cfg.Level = slog.LevelWarn
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Level = log.ParseLevel(v)
	}
	cfg.Component = log.ComponentCLI
	cfg.Output = os.Stderr
	return log.New(cfg)
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// Validator is one of the config.Config validation methods.
type Validator func(*config.Config) error

var (
	ServerChecks Validator = (*config.Config).ValidateServer
	WorkerChecks Validator = (*config.Config).ValidateWorker
)

// LoadAndValidateConfig loads configuration and validates it.
// Returns the config or exits the process on validation failure.
func LoadAndValidateConfig(logger *log.Logger, validate Validator) *config.Config {
	cfg := config.Load()
	if validate == nil {
		validate = (*config.Config).Validate
	}
	if err := validate(cfg); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}
	return cfg
}

// SignalContext returns a context cancelled on SIGINT or SIGTERM.
func SignalContext(logger *log.Logger) (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ctx.Done()
		logger.Info("Shutdown signal received", log.FieldOperation, log.OpShutdown)
	}()
	return ctx, stop
}
