// Package trace assigns request ids and logs request completion.
package trace

import (
	"context"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"contable/internal/log"
)

// ContextKey type for context keys
type ContextKey string

const (
	// RequestIDKey is the context key for request ID
	RequestIDKey ContextKey = "request_id"

	// RequestIDHeader is echoed back and honoured when the client sends one.
	RequestIDHeader = "X-Request-ID"
)

type Middleware struct {
	logger    *log.Logger
	extractIP func(*http.Request) string
	metrics   *Metrics
}

type Metrics struct {
	TotalRequests int64
	ServerErrors  int64
	// LastResponseTime is in microseconds
	LastResponseTime int64
}

func NewMiddleware(logger *log.Logger, extractIP func(*http.Request) string) *Middleware {
	return &Middleware{
		logger:    logger,
		extractIP: extractIP,
		metrics:   &Metrics{},
	}
}

func (m *Middleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		clientIP := ""
		if m.extractIP != nil {
			clientIP = m.extractIP(r)
		}

		requestID := r.Header.Get(RequestIDHeader)
		if requestID == "" || len(requestID) > 64 {
			requestID = GenerateRequestID()
		}
		w.Header().Set(RequestIDHeader, requestID)

		ctx := context.WithValue(r.Context(), RequestIDKey, requestID)
		if m.logger != nil {
			ctx = log.WithRequest(ctx, m.logger, requestID)
		}
		r = r.WithContext(ctx)

		atomic.AddInt64(&m.metrics.TotalRequests, 1)

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		duration := time.Since(start)
		atomic.StoreInt64(&m.metrics.LastResponseTime, duration.Microseconds())
		if rw.statusCode >= 500 {
			atomic.AddInt64(&m.metrics.ServerErrors, 1)
		}

		log.LogHTTPEnd(ctx, r, rw.statusCode, duration.Milliseconds(), clientIP)
	})
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode  int
	wroteHeader bool
}

func (rw *responseWriter) WriteHeader(code int) {
	if rw.wroteHeader {
		return
	}
	rw.wroteHeader = true
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	if !rw.wroteHeader {
		rw.WriteHeader(http.StatusOK)
	}
	return rw.ResponseWriter.Write(b)
}

func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// GenerateRequestID creates a unique request ID for tracing
func GenerateRequestID() string {
	return "req_" + uuid.NewString()
}

// GetRequestID extracts the request ID from context
func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(RequestIDKey).(string); ok {
		return id
	}
	return ""
}

func (m *Middleware) GetMetrics() Metrics {
	return Metrics{
		TotalRequests:    atomic.LoadInt64(&m.metrics.TotalRequests),
		ServerErrors:     atomic.LoadInt64(&m.metrics.ServerErrors),
		LastResponseTime: atomic.LoadInt64(&m.metrics.LastResponseTime),
	}
}
