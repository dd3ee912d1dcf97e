// Package storage persists the ledger collections as JSON documents in a
// key-value backend.
package storage

import (
	"context"
	"errors"
	"sync"
)

// ErrNotFound is returned by KV.Get when a key has never been written.
var ErrNotFound = errors.New("key not found")

// KV is a durable key-value store holding one document per key.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Close() error
}

// Pinger is implemented by backends that can report their health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// MemoryKV keeps documents in process memory.
type MemoryKV struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewMemoryKV() *MemoryKV {
	return &MemoryKV{data: make(map[string][]byte)}
}

func (m *MemoryKV) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

func (m *MemoryKV) Put(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = append([]byte(nil), value...)
	return nil
}

func (m *MemoryKV) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (m *MemoryKV) Close() error { return nil }
