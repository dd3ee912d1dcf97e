package log

import (
	"context"
	"io"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger and tags every record with a component.
type Logger struct {
	*slog.Logger
	base      slog.Handler
	component string
}

type Config struct {
	Level     slog.Level
	Component string
	Output    io.Writer
	Handler   slog.Handler
}

func DefaultConfig() Config {
	return Config{
		Level:     slog.LevelInfo,
		Component: ComponentApp,
		Output:    os.Stdout,
	}
}

// New builds a text logger on stdout unless a handler or writer is given.
func New(config Config) *Logger {
	handler := config.Handler
	if handler == nil {
		out := config.Output
		if out == nil {
			out = os.Stdout
		}
		handler = slog.NewTextHandler(out, &slog.HandlerOptions{Level: config.Level})
	}
	component := config.Component
	if component == "" {
		component = ComponentApp
	}
	return &Logger{
		Logger:    slog.New(handler).With(FieldComponent, component),
		base:      handler,
		component: component,
	}
}

func (l *Logger) With(args ...any) *Logger {
	return &Logger{Logger: l.Logger.With(args...), base: l.base, component: l.component}
}

// WithComponent derives a logger for another component. Attributes added
// with With are not carried over.
func (l *Logger) WithComponent(component string) *Logger {
	base := l.base
	if base == nil {
		base = l.Logger.Handler()
	}
	return &Logger{
		Logger:    slog.New(base).With(FieldComponent, component),
		base:      base,
		component: component,
	}
}

func (l *Logger) Component() string {
	return l.component
}

// Slog returns the underlying *slog.Logger for packages that take one.
func (l *Logger) Slog() *slog.Logger {
	return l.Logger
}

// SetDefault installs logger as the process-wide slog default.
func SetDefault(logger *Logger) {
	slog.SetDefault(logger.Logger)
}

type ctxKey struct{}

// IntoContext stores logger in ctx.
func IntoContext(ctx context.Context, logger *Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, logger)
}

// FromContext returns the request logger, or one built on slog.Default.
func FromContext(ctx context.Context) *Logger {
	if logger, ok := ctx.Value(ctxKey{}).(*Logger); ok {
		return logger
	}
	return &Logger{Logger: slog.Default(), component: "unknown"}
}
