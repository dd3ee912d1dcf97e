// Package backend builds the storage repository selected by configuration.
package backend

import (
	"context"

	"contable/internal/storage"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// BackendResult contains the repository and the function releasing it.
type BackendResult struct {
	Repository *storage.Repository
	Cleanup    CleanupFunc
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	// Key prefix for the persisted collections
	KeyPrefix string

	// SQLite specific
	SQLiteDBPath string

	// Redis specific
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// BackendType represents the type of backend
type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	RedisBackend  BackendType = "redis"
	MemoryBackend BackendType = "memory"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// Shared reports whether separate processes see the same data through this
// backend. The memory backend lives inside one process.
func (bt BackendType) Shared() bool {
	return bt == SQLiteBackend || bt == RedisBackend
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, RedisBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
