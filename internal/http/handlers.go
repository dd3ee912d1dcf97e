package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"contable/internal/ledger"
	"contable/internal/log"
	"contable/internal/services"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	OK(map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.started).String(),
	}).Write(w)
}

// handleReady reports whether the storage backend answers and the last write
// went through.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]any)

	if s.health != nil {
		if err := s.health.Ping(ctx); err != nil {
			checks["storage"] = "failed: " + err.Error()
			status = "not_ready"
			httpStatus = http.StatusServiceUnavailable
		} else {
			checks["storage"] = "ok"
		}
	} else {
		checks["storage"] = "not_configured"
	}

	engine := s.books.Engine()
	persistence := map[string]any{"failures": engine.PersistFailures(), "status": "ok"}
	if err := engine.LastPersistError(); err != nil {
		persistence["status"] = "degraded"
		persistence["last_error"] = err.Error()
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	}
	checks["persistence"] = persistence

	checks["rate_limiter"] = map[string]any{
		"active_clients": s.limiter.ActiveClients(),
		"status":         "ok",
	}

	OK(map[string]any{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
	}).Status(httpStatus).Write(w)
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	m := s.tracer.GetMetrics()
	engine := s.books.Engine()
	snap := engine.Snapshot()
	OK(map[string]any{
		"requests_total":        m.TotalRequests,
		"server_errors_total":   m.ServerErrors,
		"last_response_time_us": m.LastResponseTime,
		"rate_limited_total":    s.limiter.Rejected(),
		"persist_failures":      engine.PersistFailures(),
		"inventory_items":       len(snap.Inventory),
		"sales":                 len(snap.Sales),
		"expenses":              len(snap.Expenses),
		"uptime_seconds":        int64(time.Since(s.started).Seconds()),
	}).Write(w)
}

func (s *Server) handleRateLimited(w http.ResponseWriter, r *http.Request) {
	log.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
		log.FieldClientIP, extractClientIP(r), log.FieldPath, r.URL.Path)
	ErrorResponse(http.StatusTooManyRequests, msgRateLimited).Write(w)
}

// writeServiceError maps bookkeeping errors to status codes.
func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, op string, err error) {
	ctx := r.Context()
	switch {
	case errors.Is(err, services.ErrValidation):
		log.FromContext(ctx).InfoContext(ctx, "Validation failed", log.FieldOperation, op, log.FieldError, err)
		UnprocessableEntityError(msgValidation).Write(w)
	case errors.Is(err, ledger.ErrInsufficientStock):
		ConflictError(msgInsufficientStock).Write(w)
	case errors.Is(err, ledger.ErrItemNotFound):
		NotFoundError(msgItemNotFound).Write(w)
	case errors.Is(err, services.ErrNotFound):
		NotFoundError(msgNotFound).Write(w)
	default:
		log.LogError(ctx, "Request failed", err, op, nil)
		InternalServerError(msgInternal).Write(w)
	}
}

// badBody answers a request whose body could not be decoded.
func (s *Server) badBody(w http.ResponseWriter, r *http.Request, op string, err error) {
	ctx := r.Context()
	log.FromContext(ctx).InfoContext(ctx, "Invalid request body", log.FieldOperation, op, log.FieldError, err)
	UnprocessableEntityError(msgValidation).Write(w)
}
