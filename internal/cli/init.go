// Package cli holds the startup steps shared by cmd/tutorbill and
// cmd/tutorbill-worker.
package cli

import (
	"context"
	"errors"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"tutorbill/internal/config"
	"tutorbill/internal/log"
)

// LoadConfig reads an optional .env file, then the environment.
func LoadConfig() *config.Config {
	// Missing .env is normal in production and docker.
	_ = godotenv.Load()
	return config.Load()
}

// SetupLogger builds the process logger from the config and installs it as
// the slog default. An unknown level falls back to info; Validate reports it.
func SetupLogger(cfg *config.Config, component string) *log.Logger {
	return setupLogger(cfg, component, os.Stdout)
}

func setupLogger(cfg *config.Config, component string, out io.Writer) *log.Logger {
	level, _ := log.ParseLevel(cfg.LogLevel)
	logger := log.New(log.Config{
		Level:     level,
		Format:    cfg.LogFormat,
		Component: component,
		Output:    out,
	})
	log.SetDefault(logger)
	return logger
}

// Must logs err and exits the process when err is non-nil.
func Must(logger *log.Logger, msg string, err error, args ...any) {
	if err == nil {
		return
	}
	logger.Error(msg, append([]any{log.FieldError, err}, args...)...)
	os.Exit(1)
}

// ShutdownContext is cancelled on SIGINT or SIGTERM.
func ShutdownContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

// IgnoreCanceled maps context.Canceled to nil so that background loops
// stopped by shutdown do not fail an errgroup.
func IgnoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
