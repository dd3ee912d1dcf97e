package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"contable/internal/core"
)

// DefaultKeyPrefix namespaces the collection keys.
const DefaultKeyPrefix = "accounting_"

const (
	KeyInventory = "inventory"
	KeySales     = "sales"
	KeyExpenses  = "expenses"
)

// Repository stores each collection as one JSON array under its own key.
// Every save overwrites the whole collection.
type Repository struct {
	kv     KV
	prefix string
	logger *slog.Logger
	tracer trace.Tracer
}

// NewRepository wraps kv. An empty prefix leaves keys unprefixed.
func NewRepository(kv KV, prefix string, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{
		kv:     kv,
		prefix: prefix,
		logger: logger,
		tracer: otel.Tracer("contable/storage"),
	}
}

func (r *Repository) LoadInventory(ctx context.Context) []core.InventoryItem {
	return load[core.InventoryItem](ctx, r, KeyInventory)
}

func (r *Repository) LoadSales(ctx context.Context) []core.Sale {
	return load[core.Sale](ctx, r, KeySales)
}

func (r *Repository) LoadExpenses(ctx context.Context) []core.Expense {
	return load[core.Expense](ctx, r, KeyExpenses)
}

func (r *Repository) SaveInventory(ctx context.Context, items []core.InventoryItem) error {
	return save(ctx, r, KeyInventory, items)
}

func (r *Repository) SaveSales(ctx context.Context, sales []core.Sale) error {
	return save(ctx, r, KeySales, sales)
}

func (r *Repository) SaveExpenses(ctx context.Context, expenses []core.Expense) error {
	return save(ctx, r, KeyExpenses, expenses)
}

// Ping reports backend health when the backend supports it.
func (r *Repository) Ping(ctx context.Context) error {
	if p, ok := r.kv.(Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}

func (r *Repository) Close() error {
	return r.kv.Close()
}

func (r *Repository) key(name string) string {
	return r.prefix + name
}

// load never fails: a missing key or an unreadable document yields an
// empty collection.
func load[T any](ctx context.Context, r *Repository, name string) []T {
	key := r.key(name)
	ctx, span := r.tracer.Start(ctx, "storage.load",
		trace.WithAttributes(attribute.String("collection.key", key)))
	defer span.End()

	data, err := r.kv.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		span.SetAttributes(attribute.Bool("collection.missing", true))
		return []T{}
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "read failed")
		r.logger.WarnContext(ctx, "Failed to read collection, starting empty", "key", key, "error", err)
		return []T{}
	}

	var out []T
	if err := json.Unmarshal(data, &out); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "malformed document")
		r.logger.WarnContext(ctx, "Malformed collection, starting empty", "key", key, "error", err)
		return []T{}
	}
	if out == nil {
		out = []T{}
	}
	span.SetAttributes(attribute.Int("collection.size", len(out)))
	return out
}

func save[T any](ctx context.Context, r *Repository, name string, items []T) error {
	key := r.key(name)
	ctx, span := r.tracer.Start(ctx, "storage.save",
		trace.WithAttributes(
			attribute.String("collection.key", key),
			attribute.Int("collection.size", len(items)),
		))
	defer span.End()

	if items == nil {
		items = []T{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := r.kv.Put(ctx, key, data); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "write failed")
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}
