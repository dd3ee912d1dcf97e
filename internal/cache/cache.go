// Package cache provides a size-bounded LRU cache with per-entry expiry and
// a sweeper that purges expired entries in the background.
package cache

import (
	"context"
	"log/slog"
	"time"
)

// Cache is the read-through surface used by callers.
type Cache[K comparable, V any] interface {
	Get(key K) (V, bool)
	Set(key K, value V)
	Delete(key K)
	Len() int
}

// Cleaner is implemented by caches that can drop expired entries.
type Cleaner interface {
	CleanExpired() int
}

// Sweeper periodically cleans the registered caches.
type Sweeper struct {
	caches []Cleaner
	logger *slog.Logger
}

func NewSweeper(logger *slog.Logger, caches ...Cleaner) *Sweeper {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sweeper{caches: caches, logger: logger}
}

// Register adds a cache to the sweep.
func (s *Sweeper) Register(c Cleaner) {
	s.caches = append(s.caches, c)
}

// Sweep cleans every cache once and returns the number of evicted entries.
func (s *Sweeper) Sweep() int {
	total := 0
	for _, c := range s.caches {
		total += c.CleanExpired()
	}
	return total
}

// Run sweeps every interval until ctx is done.
func (s *Sweeper) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if n := s.Sweep(); n > 0 {
				s.logger.Debug("Expired cache entries removed", "count", n)
			}
		case <-ctx.Done():
			return nil
		}
	}
}
