// Package http exposes the bookkeeping operations as a JSON API.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"contable/internal/advisor"
	"contable/internal/log"
	"contable/internal/middleware/ratelimit"
	"contable/internal/middleware/security"
	"contable/internal/middleware/trace"
	"contable/internal/services"
	"contable/internal/storage"
)

// Deps are the collaborators the server needs. Tips and Health are optional.
type Deps struct {
	Books              *services.Bookkeeping
	Tips               advisor.Advisor
	Health             storage.Pinger
	Logger             *log.Logger
	RateLimitPerMinute int
}

type Server struct {
	http.Server

	books   *services.Bookkeeping
	tips    advisor.Advisor
	health  storage.Pinger
	logger  *log.Logger
	tracer  *trace.Middleware
	limiter *ratelimit.Limiter
	started time.Time

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run http.Server.
func NewServer(addr string, deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	logger = logger.WithComponent(log.ComponentHTTP)

	s := &Server{
		Server: http.Server{
			Addr:              addr,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
		books:   deps.Books,
		tips:    deps.Tips,
		health:  deps.Health,
		logger:  logger,
		tracer:  trace.NewMiddleware(logger, extractClientIP),
		limiter: ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: deps.RateLimitPerMinute}),
		started: time.Now(),
	}
	s.Handler = otelhttp.NewHandler(s.routes(), "contable.http")
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(s.tracer.Middleware)
	r.Use(middleware.Recoverer)
	r.Use(security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware)
	r.Use(s.limiter.Middleware(extractClientIP, s.handleRateLimited,
		http.MethodPost, http.MethodPut, http.MethodDelete))

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Get("/metrics", s.handleMetrics)

	r.Route("/api", func(r chi.Router) {
		r.Route("/inventory", func(r chi.Router) {
			r.Get("/", s.handleListInventory)
			r.Post("/", s.handleCreateItem)
			r.Get("/valuation", s.handleValuation)
			r.Put("/{id}", s.handleUpdateItem)
			r.Delete("/{id}", s.handleDeleteItem)
		})
		r.Route("/sales", func(r chi.Router) {
			r.Get("/", s.handleListSales)
			r.Post("/", s.handleCreateSale)
			r.Put("/{id}", s.handleUpdateSale)
			r.Delete("/{id}", s.handleDeleteSale)
		})
		r.Route("/expenses", func(r chi.Router) {
			r.Get("/", s.handleListExpenses)
			r.Post("/", s.handleCreateExpense)
			r.Put("/{id}", s.handleUpdateExpense)
			r.Delete("/{id}", s.handleDeleteExpense)
		})
		r.Get("/categories", s.handleCategories)
		r.Get("/reports/months", s.handleAvailableMonths)
		r.Get("/reports/monthly", s.handleMonthlyReport)
		r.Get("/dashboard", s.handleDashboard)
		r.Get("/tips", s.handleTip)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		NotFoundError(msgNotFound).Write(w)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		ErrorResponse(http.StatusMethodNotAllowed, "Método no permitido.").Write(w)
	})
	return r
}

// RateLimiter exposes the limiter so its idle buckets can be swept.
func (s *Server) RateLimiter() *ratelimit.Limiter {
	return s.limiter
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
