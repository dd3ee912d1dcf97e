// Package worker handles low-stock alerts consumed from the message broker.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"contable/internal/amqp"
	"contable/internal/cache"
	"contable/internal/core"
)

// InventoryReader loads the current inventory from the shared store.
type InventoryReader interface {
	LoadInventory(ctx context.Context) []core.InventoryItem
}

// Notifier delivers a confirmed alert to a human.
type Notifier interface {
	Notify(ctx context.Context, alert Alert) error
}

// Alert is a low-stock condition confirmed against stored inventory.
type Alert struct {
	ItemID    string
	ItemName  string
	Stock     int
	Threshold int
}

func (a Alert) String() string {
	return fmt.Sprintf("%s: quedan %d unidades (umbral %d)", a.ItemName, a.Stock, a.Threshold)
}

// LogNotifier writes alerts to the structured log.
type LogNotifier struct {
	Logger *slog.Logger
}

func (n LogNotifier) Notify(ctx context.Context, alert Alert) error {
	logger := n.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.WarnContext(ctx, "Low stock",
		"item_id", alert.ItemID,
		"item_name", alert.ItemName,
		"stock", alert.Stock,
		"threshold", alert.Threshold)
	return nil
}

// AlertWorker re-checks each alert against stored inventory so that stale
// alerts (item restocked or deleted) are dropped, and suppresses repeats of
// the same item and stock level within a window.
type AlertWorker struct {
	inventory InventoryReader
	notifier  Notifier
	seen      *cache.LRUCache[string, struct{}]
}

func NewAlertWorker(inventory InventoryReader, notifier Notifier, dedupeWindow time.Duration) *AlertWorker {
	if dedupeWindow <= 0 {
		dedupeWindow = time.Hour
	}
	return &AlertWorker{
		inventory: inventory,
		notifier:  notifier,
		seen:      cache.NewLRUCache[string, struct{}](1024, dedupeWindow),
	}
}

// Seen exposes the dedupe cache so it can be swept.
func (w *AlertWorker) Seen() cache.Cleaner {
	return w.seen
}

// HandleStockAlert processes one message. Returning an error requeues it.
func (w *AlertWorker) HandleStockAlert(ctx context.Context, msg *amqp.StockAlertMessage) error {
	slog.InfoContext(ctx, "Processing stock alert",
		"item_id", msg.ItemID,
		"stock", msg.Stock,
		"sale_id", msg.SaleID)

	item, ok := w.findItem(ctx, msg.ItemID)
	if !ok {
		slog.InfoContext(ctx, "Dropping alert for deleted item", "item_id", msg.ItemID)
		return nil
	}
	if item.Stock >= msg.Threshold {
		slog.InfoContext(ctx, "Dropping stale alert, item restocked",
			"item_id", item.ID, "stock", item.Stock, "threshold", msg.Threshold)
		return nil
	}

	key := item.ID + "@" + strconv.Itoa(item.Stock)
	if _, dup := w.seen.Get(key); dup {
		slog.DebugContext(ctx, "Duplicate stock alert suppressed", "item_id", item.ID, "stock", item.Stock)
		return nil
	}

	alert := Alert{ItemID: item.ID, ItemName: item.Name, Stock: item.Stock, Threshold: msg.Threshold}
	if err := w.notifier.Notify(ctx, alert); err != nil {
		return fmt.Errorf("notify low stock for %s: %w", item.ID, err)
	}
	w.seen.Set(key, struct{}{})
	return nil
}

func (w *AlertWorker) findItem(ctx context.Context, id string) (core.InventoryItem, bool) {
	for _, it := range w.inventory.LoadInventory(ctx) {
		if it.ID == id {
			return it, true
		}
	}
	return core.InventoryItem{}, false
}
