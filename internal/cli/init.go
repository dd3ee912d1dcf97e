// Package cli provides common CLI initialization utilities shared by
// cmd/contable and cmd/alert-worker.
package cli

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"contable/internal/config"
	"contable/internal/log"
)

// SetupLogger builds the process logger for component and installs it as
// the slog default.
func SetupLogger(cfg *config.Config, component string) *log.Logger {
	lc := log.DefaultConfig()
	lc.Component = component
	if cfg != nil {
		lc.Level = cfg.SlogLevel()
	}
	logger := log.New(lc)
	log.SetDefault(logger)
	return logger
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration and validates it.
func LoadAndValidateConfig() (*config.Config, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SignalContext returns a context cancelled on SIGINT or SIGTERM.
func SignalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

// ShutdownStep releases one resource within the shutdown deadline.
type ShutdownStep struct {
	Name string
	Fn   func(ctx context.Context) error
}

// GracefulShutdown runs steps in order under a single timeout. Failures are
// logged and joined; later steps still run.
func GracefulShutdown(logger *log.Logger, timeout time.Duration, steps ...ShutdownStep) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	var errs []error
	for _, step := range steps {
		if step.Fn == nil {
			continue
		}
		if err := step.Fn(ctx); err != nil {
			logger.Error("Shutdown step failed", "step", step.Name, log.FieldError, err)
			errs = append(errs, err)
		}
	}
	if ctx.Err() != nil {
		logger.Warn("Shutdown timeout reached")
	} else {
		logger.Info("Shutdown complete")
	}
	return errors.Join(errs...)
}

// Fatal logs err and exits the process.
func Fatal(logger *log.Logger, msg string, err error) {
	logger.Error(msg, log.FieldError, err)
	os.Exit(1)
}
