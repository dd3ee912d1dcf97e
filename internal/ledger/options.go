package ledger

import (
	"log/slog"
	"time"
)

// Option configures an Engine.
type Option func(*Engine)

func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithClock replaces time.Now for item creation timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// WithIDGenerator replaces the default random UUID ids.
func WithIDGenerator(newID func() string) Option {
	return func(e *Engine) {
		if newID != nil {
			e.newID = newID
		}
	}
}
