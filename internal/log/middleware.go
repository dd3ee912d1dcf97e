package log

import (
	"context"
	"log/slog"
	"net/http"
)

// WithRequest stores a request-scoped logger carrying the request id.
func WithRequest(ctx context.Context, logger *Logger, requestID string) context.Context {
	if requestID != "" {
		logger = logger.With(FieldRequestID, requestID)
	}
	return IntoContext(ctx, logger)
}

// LogHTTPEnd logs a completed request at a level derived from its status.
func LogHTTPEnd(ctx context.Context, r *http.Request, statusCode int, durationMs int64, clientIP string) {
	level := slog.LevelInfo
	if statusCode >= 400 && statusCode < 500 {
		level = slog.LevelWarn
	} else if statusCode >= 500 {
		level = slog.LevelError
	}

	fields := NewFields().
		WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, r.Header.Get("User-Agent")).
		WithHTTPResponse(statusCode, durationMs)
	fields[FieldClientIP] = clientIP

	FromContext(ctx).Log(ctx, level, "HTTP request completed", fields.ToSlice()...)
}

// LogError logs an error with component and operation context.
func LogError(ctx context.Context, msg string, err error, operation string, fields LogFields) {
	if fields == nil {
		fields = NewFields()
	}
	fields.WithError(err).WithOperation(operation)
	FromContext(ctx).ErrorContext(ctx, msg, fields.ToSlice()...)
}
