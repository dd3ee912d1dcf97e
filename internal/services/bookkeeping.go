package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"contable/internal/amqp"
	"contable/internal/core"
	"contable/internal/ledger"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrValidation = errors.New("validation failed")
)

// AlertPublisher sends low-stock alerts. *amqp.Client implements it.
type AlertPublisher interface {
	PublishStockAlert(ctx context.Context, msg *amqp.StockAlertMessage) error
}

// TipPrefetcher warms advisory tips in the background.
type TipPrefetcher interface {
	Prefetch(topic string)
}

// Bookkeeping validates caller input, applies it to the ledger and then runs
// side effects that never fail the request: tip prefetching and low-stock
// alerts.
type Bookkeeping struct {
	engine    *ledger.Engine
	alerts    AlertPublisher
	tips      TipPrefetcher
	threshold int
	logger    *slog.Logger

	// serialises stock checks with the mutation that depends on them
	stockMu sync.Mutex
}

func NewBookkeeping(engine *ledger.Engine, alerts AlertPublisher, tips TipPrefetcher, lowStockThreshold int, logger *slog.Logger) *Bookkeeping {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bookkeeping{
		engine:    engine,
		alerts:    alerts,
		tips:      tips,
		threshold: lowStockThreshold,
		logger:    logger,
	}
}

func (b *Bookkeeping) Engine() *ledger.Engine { return b.engine }

func (b *Bookkeeping) LowStockThreshold() int { return b.threshold }

// AddItem stores a validated item and suggests the inventory valuation topic.
func (b *Bookkeeping) AddItem(ctx context.Context, in core.NewItem) (core.InventoryItem, string, error) {
	if err := in.Validate(); err != nil {
		return core.InventoryItem{}, "", invalid(err)
	}
	item := b.engine.AddInventoryItem(ctx, in.Name, in.Cost, in.BasePrice, in.Stock)
	b.logger.InfoContext(ctx, "Inventory item created", "item_id", item.ID, "stock", item.Stock)

	b.suggest(core.TopicInventory)
	return item, core.TopicInventory, nil
}

// UpdateItem replaces the editable fields of an item.
func (b *Bookkeeping) UpdateItem(ctx context.Context, id string, in core.NewItem) (core.InventoryItem, error) {
	if err := in.Validate(); err != nil {
		return core.InventoryItem{}, invalid(err)
	}
	b.stockMu.Lock()
	defer b.stockMu.Unlock()

	current, ok := b.engine.Item(id)
	if !ok {
		return core.InventoryItem{}, fmt.Errorf("item %s: %w", id, ErrNotFound)
	}
	current.Name = in.Name
	current.Cost = in.Cost
	current.BasePrice = in.BasePrice
	current.Stock = in.Stock
	if !b.engine.UpdateInventoryItem(ctx, current) {
		return core.InventoryItem{}, fmt.Errorf("item %s: %w", id, ErrNotFound)
	}
	updated, _ := b.engine.Item(id)
	return updated, nil
}

func (b *Bookkeeping) DeleteItem(ctx context.Context, id string) error {
	b.stockMu.Lock()
	defer b.stockMu.Unlock()
	if !b.engine.DeleteInventoryItem(ctx, id) {
		return fmt.Errorf("item %s: %w", id, ErrNotFound)
	}
	return nil
}

// RecordSale validates and records a sale. ledger.ErrItemNotFound and
// ledger.ErrInsufficientStock are returned unchanged.
func (b *Bookkeeping) RecordSale(ctx context.Context, in core.NewSale) (core.Sale, error) {
	if err := in.Validate(); err != nil {
		return core.Sale{}, invalid(err)
	}

	b.stockMu.Lock()
	sale, err := b.engine.AddSale(ctx, in.ItemID, in.Quantity, in.PricePerUnit, in.Date)
	b.stockMu.Unlock()
	if err != nil {
		return core.Sale{}, err
	}

	b.logger.InfoContext(ctx, "Sale recorded",
		"sale_id", sale.ID, "item_id", sale.ItemID, "quantity", sale.Quantity, "total_cents", sale.TotalPrice.Cents)
	b.checkStock(ctx, sale)
	return sale, nil
}

// SaleEdit carries the editable fields of a sale.
type SaleEdit struct {
	Quantity     int        `json:"quantity"`
	PricePerUnit core.Money `json:"pricePerUnit"`
	Date         core.Date  `json:"date"`
}

// UpdateSale edits a sale. The new quantity may not exceed the item stock
// plus what the sale already holds. When the item no longer exists there is
// no stock to check against.
func (b *Bookkeeping) UpdateSale(ctx context.Context, id string, edit SaleEdit) (core.Sale, error) {
	b.stockMu.Lock()
	original, ok := b.engine.Sale(id)
	if !ok {
		b.stockMu.Unlock()
		return core.Sale{}, fmt.Errorf("sale %s: %w", id, ErrNotFound)
	}
	check := core.NewSale{ItemID: original.ItemID, Quantity: edit.Quantity, PricePerUnit: edit.PricePerUnit, Date: edit.Date}
	if err := check.Validate(); err != nil {
		b.stockMu.Unlock()
		return core.Sale{}, invalid(err)
	}
	if item, ok := b.engine.Item(original.ItemID); ok && edit.Quantity > item.Stock+original.Quantity {
		b.stockMu.Unlock()
		return core.Sale{}, ledger.ErrInsufficientStock
	}

	updated := original
	updated.Quantity = edit.Quantity
	updated.PricePerUnit = edit.PricePerUnit
	updated.TotalPrice = edit.PricePerUnit.Mul(edit.Quantity)
	updated.Date = edit.Date
	found := b.engine.UpdateSale(ctx, updated)
	b.stockMu.Unlock()
	if !found {
		return core.Sale{}, fmt.Errorf("sale %s: %w", id, ErrNotFound)
	}

	stored, _ := b.engine.Sale(id)
	b.checkStock(ctx, stored)
	return stored, nil
}

func (b *Bookkeeping) DeleteSale(ctx context.Context, id string) error {
	b.stockMu.Lock()
	defer b.stockMu.Unlock()
	if !b.engine.DeleteSale(ctx, id) {
		return fmt.Errorf("sale %s: %w", id, ErrNotFound)
	}
	return nil
}

// AddExpense stores a validated expense and suggests a topic for its category.
func (b *Bookkeeping) AddExpense(ctx context.Context, in core.NewExpense) (core.Expense, string, error) {
	if err := in.Validate(); err != nil {
		return core.Expense{}, "", invalid(err)
	}
	exp := b.engine.AddExpense(ctx, in.Category, in.Description, in.Amount, in.Date)
	if !core.IsKnownCategory(exp.Category) {
		b.logger.InfoContext(ctx, "Expense with free-form category", "expense_id", exp.ID, "category", exp.Category)
	}

	topic := core.TopicForCategory(exp.Category)
	b.suggest(topic)
	return exp, topic, nil
}

func (b *Bookkeeping) UpdateExpense(ctx context.Context, id string, in core.NewExpense) (core.Expense, error) {
	if err := in.Validate(); err != nil {
		return core.Expense{}, invalid(err)
	}
	exp := core.Expense{
		ID:          id,
		Category:    in.Category,
		Description: in.Description,
		Amount:      in.Amount,
		Date:        in.Date,
	}
	if !b.engine.UpdateExpense(ctx, exp) {
		return core.Expense{}, fmt.Errorf("expense %s: %w", id, ErrNotFound)
	}
	return exp, nil
}

func (b *Bookkeeping) DeleteExpense(ctx context.Context, id string) error {
	if !b.engine.DeleteExpense(ctx, id) {
		return fmt.Errorf("expense %s: %w", id, ErrNotFound)
	}
	return nil
}

func (b *Bookkeeping) suggest(topic string) {
	if b.tips != nil {
		b.tips.Prefetch(topic)
	}
}

// checkStock publishes an alert when the sold item dropped below threshold.
// Failures are logged only; the sale is already recorded.
func (b *Bookkeeping) checkStock(ctx context.Context, sale core.Sale) {
	item, ok := b.engine.Item(sale.ItemID)
	if !ok || item.Stock >= b.threshold {
		return
	}
	if b.alerts == nil {
		b.logger.WarnContext(ctx, "AMQP client not available, skipping stock alert",
			"item_id", item.ID, "stock", item.Stock)
		return
	}
	if err := b.alerts.PublishStockAlert(ctx, amqp.NewStockAlertMessage(item, b.threshold, sale.ID)); err != nil {
		b.logger.ErrorContext(ctx, "Failed to publish stock alert", "item_id", item.ID, "error", err)
	}
}

func invalid(err error) error {
	return fmt.Errorf("%w: %w", ErrValidation, err)
}
