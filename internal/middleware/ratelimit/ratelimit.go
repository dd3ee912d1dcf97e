// Package ratelimit throttles requests per client with token buckets.
package ratelimit

import (
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

// Limiter keeps one token bucket per client key.
type Limiter struct {
	mu      sync.Mutex
	clients map[string]*client
	limit   rate.Limit
	burst   int
	idleTTL time.Duration
	now     func() time.Time

	rejected atomic.Int64
}

type client struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

type Config struct {
	RequestsPerMinute int
	// Burst defaults to RequestsPerMinute.
	Burst int
	// IdleTTL is how long an unused client bucket is kept.
	IdleTTL time.Duration
}

func DefaultConfig() Config {
	return Config{RequestsPerMinute: 60, IdleTTL: 10 * time.Minute}
}

func NewLimiter(config Config) *Limiter {
	if config.RequestsPerMinute <= 0 {
		config.RequestsPerMinute = DefaultConfig().RequestsPerMinute
	}
	if config.Burst <= 0 {
		config.Burst = config.RequestsPerMinute
	}
	if config.IdleTTL <= 0 {
		config.IdleTTL = DefaultConfig().IdleTTL
	}
	return &Limiter{
		clients: make(map[string]*client),
		limit:   rate.Every(time.Minute / time.Duration(config.RequestsPerMinute)),
		burst:   config.Burst,
		idleTTL: config.IdleTTL,
		now:     time.Now,
	}
}

// Allow consumes one token for key.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	now := l.now()
	c, ok := l.clients[key]
	if !ok {
		c = &client{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.clients[key] = c
	}
	c.lastSeen = now
	l.mu.Unlock()

	if c.limiter.AllowN(now, 1) {
		return true
	}
	l.rejected.Add(1)
	return false
}

// CleanExpired drops buckets idle for longer than the TTL and returns how
// many were removed. It satisfies cache.Cleaner so a sweeper can run it.
func (l *Limiter) CleanExpired() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := l.now().Add(-l.idleTTL)
	removed := 0
	for key, c := range l.clients {
		if c.lastSeen.Before(cutoff) {
			delete(l.clients, key)
			removed++
		}
	}
	return removed
}

func (l *Limiter) ActiveClients() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.clients)
}

// Rejected is the number of requests refused since start.
func (l *Limiter) Rejected() int64 {
	return l.rejected.Load()
}

// Middleware limits requests whose method matches one of methods, or every
// request when methods is empty.
func (l *Limiter) Middleware(extractKey func(*http.Request) string, onLimit http.HandlerFunc, methods ...string) func(http.Handler) http.Handler {
	limited := make(map[string]bool, len(methods))
	for _, m := range methods {
		limited[m] = true
	}
	retryAfter := strconv.Itoa(int((time.Duration(float64(time.Second) / float64(l.limit))).Seconds()) + 1)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(limited) > 0 && !limited[r.Method] {
				next.ServeHTTP(w, r)
				return
			}
			if !l.Allow(extractKey(r)) {
				w.Header().Set("Retry-After", retryAfter)
				if onLimit != nil {
					onLimit(w, r)
				} else {
					http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
				}
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
