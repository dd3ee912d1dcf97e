// Package ledger owns the inventory, sales and expense collections and keeps
// item stock consistent with the sales that consume it.
//
// Every mutation is applied in memory and then persisted synchronously
// through a Repository. Persistence failures are logged and counted but
// never undo the in-memory change: the engine state stays authoritative for
// the lifetime of the process.
package ledger

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"contable/internal/core"
)

var (
	ErrItemNotFound      = errors.New("inventory item not found")
	ErrInsufficientStock = errors.New("insufficient stock")
)

// Snapshot is a point-in-time copy of all collections.
type Snapshot struct {
	Inventory []core.InventoryItem `json:"inventory"`
	Sales     []core.Sale          `json:"sales"`
	Expenses  []core.Expense       `json:"expenses"`
}

// Engine is the single writer of the bookkeeping collections.
// Inventory is kept in insertion order; sales and expenses newest first.
type Engine struct {
	mu        sync.Mutex
	repo      Repository
	logger    *slog.Logger
	now       func() time.Time
	newID     func() string
	inventory []core.InventoryItem
	sales     []core.Sale
	expenses  []core.Expense

	persistFailures atomic.Int64
	errMu           sync.Mutex
	persistErrs     map[string]error // collection -> error of its latest save
}

// persistTimeout bounds a save once it has been detached from the caller.
const persistTimeout = 10 * time.Second

var collections = []string{"inventory", "sales", "expenses"}

// New builds an engine and loads the persisted collections from repo.
func New(ctx context.Context, repo Repository, opts ...Option) *Engine {
	e := &Engine{
		repo:   repo,
		logger: slog.Default(),
		now:    time.Now,
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}

	e.inventory = repo.LoadInventory(ctx)
	e.sales = repo.LoadSales(ctx)
	e.expenses = repo.LoadExpenses(ctx)

	e.logger.InfoContext(ctx, "Ledger loaded",
		"items", len(e.inventory),
		"sales", len(e.sales),
		"expenses", len(e.expenses))
	return e
}

// AddInventoryItem appends a new item. Values are not validated.
func (e *Engine) AddInventoryItem(ctx context.Context, name string, cost, basePrice core.Money, stock int) core.InventoryItem {
	e.mu.Lock()
	defer e.mu.Unlock()

	item := core.InventoryItem{
		ID:        e.newID(),
		Name:      name,
		Cost:      cost,
		BasePrice: basePrice,
		Stock:     stock,
		CreatedAt: e.now().UTC(),
	}
	e.inventory = append(e.inventory, item)
	e.saveInventory(ctx)
	return item
}

// UpdateInventoryItem replaces the item with the same id in place.
// CreatedAt is kept from the stored item. Existing sales are not touched.
func (e *Engine) UpdateInventoryItem(ctx context.Context, item core.InventoryItem) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	idx := e.itemIndex(item.ID)
	if idx < 0 {
		e.logger.WarnContext(ctx, "Update of unknown inventory item ignored", "item_id", item.ID)
		return false
	}
	item.CreatedAt = e.inventory[idx].CreatedAt
	e.inventory[idx] = item
	e.saveInventory(ctx)
	return true
}

// DeleteInventoryItem removes an item. Sales referencing it keep their snapshot.
func (e *Engine) DeleteInventoryItem(ctx context.Context, id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	idx := e.itemIndex(id)
	if idx < 0 {
		e.logger.WarnContext(ctx, "Delete of unknown inventory item ignored", "item_id", id)
		return false
	}
	e.inventory = append(e.inventory[:idx:idx], e.inventory[idx+1:]...)
	e.saveInventory(ctx)
	return true
}

// AddSale records a sale and consumes stock from the referenced item.
// On ErrItemNotFound or ErrInsufficientStock nothing is changed.
func (e *Engine) AddSale(ctx context.Context, itemID string, quantity int, pricePerUnit core.Money, date core.Date) (core.Sale, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	idx := e.itemIndex(itemID)
	if idx < 0 {
		return core.Sale{}, ErrItemNotFound
	}
	item := &e.inventory[idx]
	if item.Stock < quantity {
		return core.Sale{}, ErrInsufficientStock
	}

	sale := core.Sale{
		ID:           e.newID(),
		ItemID:       item.ID,
		ItemName:     item.Name,
		Quantity:     quantity,
		PricePerUnit: pricePerUnit,
		TotalPrice:   pricePerUnit.Mul(quantity),
		Date:         date,
	}
	item.Stock -= quantity
	e.sales = prepend(e.sales, sale)

	e.saveSales(ctx)
	e.saveInventory(ctx)
	return sale, nil
}

// UpdateSale replaces a stored sale and moves the quantity difference back
// into the item stock. The new quantity is not checked against stock.
// ItemID and ItemName stay frozen to the stored sale; TotalPrice is derived.
func (e *Engine) UpdateSale(ctx context.Context, updated core.Sale) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	idx := e.saleIndex(updated.ID)
	if idx < 0 {
		e.logger.WarnContext(ctx, "Update of unknown sale ignored", "sale_id", updated.ID)
		return false
	}
	original := e.sales[idx]

	if updated.ItemID != "" && updated.ItemID != original.ItemID {
		e.logger.WarnContext(ctx, "Sale item reference is immutable, keeping original",
			"sale_id", original.ID, "item_id", original.ItemID, "requested_item_id", updated.ItemID)
	}
	updated.ItemID = original.ItemID
	updated.ItemName = original.ItemName

	total := updated.PricePerUnit.Mul(updated.Quantity)
	if updated.TotalPrice != total && updated.TotalPrice != (core.Money{}) {
		e.logger.WarnContext(ctx, "Sale total recomputed",
			"sale_id", original.ID, "given_cents", updated.TotalPrice.Cents, "computed_cents", total.Cents)
	}
	updated.TotalPrice = total

	diff := original.Quantity - updated.Quantity
	if i := e.itemIndex(original.ItemID); i >= 0 {
		e.inventory[i].Stock += diff
	} else if diff != 0 {
		e.logger.WarnContext(ctx, "Stock adjustment dropped, item no longer exists",
			"sale_id", original.ID, "item_id", original.ItemID, "quantity_diff", diff)
	}
	e.sales[idx] = updated

	e.saveSales(ctx)
	e.saveInventory(ctx)
	return true
}

// DeleteSale removes a sale and returns its quantity to the item, if the item
// still exists.
func (e *Engine) DeleteSale(ctx context.Context, id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	idx := e.saleIndex(id)
	if idx < 0 {
		e.logger.WarnContext(ctx, "Delete of unknown sale ignored", "sale_id", id)
		return false
	}
	sale := e.sales[idx]
	if i := e.itemIndex(sale.ItemID); i >= 0 {
		e.inventory[i].Stock += sale.Quantity
	} else {
		e.logger.WarnContext(ctx, "Stock restoration dropped, item no longer exists",
			"sale_id", sale.ID, "item_id", sale.ItemID, "quantity", sale.Quantity)
	}
	e.sales = append(e.sales[:idx:idx], e.sales[idx+1:]...)

	e.saveSales(ctx)
	e.saveInventory(ctx)
	return true
}

// AddExpense records an expense at the front of the collection.
func (e *Engine) AddExpense(ctx context.Context, category, description string, amount core.Money, date core.Date) core.Expense {
	e.mu.Lock()
	defer e.mu.Unlock()

	exp := core.Expense{
		ID:          e.newID(),
		Category:    category,
		Description: description,
		Amount:      amount,
		Date:        date,
	}
	e.expenses = prepend(e.expenses, exp)
	e.saveExpenses(ctx)
	return exp
}

func (e *Engine) UpdateExpense(ctx context.Context, updated core.Expense) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	idx := e.expenseIndex(updated.ID)
	if idx < 0 {
		e.logger.WarnContext(ctx, "Update of unknown expense ignored", "expense_id", updated.ID)
		return false
	}
	e.expenses[idx] = updated
	e.saveExpenses(ctx)
	return true
}

func (e *Engine) DeleteExpense(ctx context.Context, id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	idx := e.expenseIndex(id)
	if idx < 0 {
		e.logger.WarnContext(ctx, "Delete of unknown expense ignored", "expense_id", id)
		return false
	}
	e.expenses = append(e.expenses[:idx:idx], e.expenses[idx+1:]...)
	e.saveExpenses(ctx)
	return true
}

// Inventory returns a copy of the items in insertion order.
func (e *Engine) Inventory() []core.InventoryItem {
	e.mu.Lock()
	defer e.mu.Unlock()
	return clone(e.inventory)
}

// Sales returns a copy of the sales, newest first.
func (e *Engine) Sales() []core.Sale {
	e.mu.Lock()
	defer e.mu.Unlock()
	return clone(e.sales)
}

// Expenses returns a copy of the expenses, newest first.
func (e *Engine) Expenses() []core.Expense {
	e.mu.Lock()
	defer e.mu.Unlock()
	return clone(e.expenses)
}

func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return Snapshot{
		Inventory: clone(e.inventory),
		Sales:     clone(e.sales),
		Expenses:  clone(e.expenses),
	}
}

func (e *Engine) Item(id string) (core.InventoryItem, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if idx := e.itemIndex(id); idx >= 0 {
		return e.inventory[idx], true
	}
	return core.InventoryItem{}, false
}

func (e *Engine) Sale(id string) (core.Sale, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if idx := e.saleIndex(id); idx >= 0 {
		return e.sales[idx], true
	}
	return core.Sale{}, false
}

func (e *Engine) Expense(id string) (core.Expense, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if idx := e.expenseIndex(id); idx >= 0 {
		return e.expenses[idx], true
	}
	return core.Expense{}, false
}

// PersistFailures reports how many saves have failed since start.
func (e *Engine) PersistFailures() int64 {
	return e.persistFailures.Load()
}

// LastPersistError returns the error of a collection whose latest save
// failed, or nil once every collection has been saved again.
func (e *Engine) LastPersistError() error {
	e.errMu.Lock()
	defer e.errMu.Unlock()
	for _, c := range collections {
		if err := e.persistErrs[c]; err != nil {
			return err
		}
	}
	return nil
}

// A mutation is committed in memory before it is saved, so the save must
// outlive a cancelled request.
func (e *Engine) saveCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), persistTimeout)
}

func (e *Engine) saveInventory(ctx context.Context) {
	sctx, cancel := e.saveCtx(ctx)
	defer cancel()
	e.persisted(ctx, "inventory", e.repo.SaveInventory(sctx, clone(e.inventory)))
}

func (e *Engine) saveSales(ctx context.Context) {
	sctx, cancel := e.saveCtx(ctx)
	defer cancel()
	e.persisted(ctx, "sales", e.repo.SaveSales(sctx, clone(e.sales)))
}

func (e *Engine) saveExpenses(ctx context.Context) {
	sctx, cancel := e.saveCtx(ctx)
	defer cancel()
	e.persisted(ctx, "expenses", e.repo.SaveExpenses(sctx, clone(e.expenses)))
}

func (e *Engine) persisted(ctx context.Context, collection string, err error) {
	e.errMu.Lock()
	prev := e.persistErrs[collection]
	if err == nil {
		delete(e.persistErrs, collection)
	} else {
		if e.persistErrs == nil {
			e.persistErrs = map[string]error{}
		}
		e.persistErrs[collection] = err
	}
	e.errMu.Unlock()

	if err == nil {
		if prev != nil {
			e.logger.InfoContext(ctx, "Collection persisted again after failure", "collection", collection)
		}
		return
	}
	e.persistFailures.Add(1)
	e.logger.ErrorContext(ctx, "Failed to persist collection, keeping in-memory state",
		"collection", collection, "error", err)
}

func (e *Engine) itemIndex(id string) int {
	for i := range e.inventory {
		if e.inventory[i].ID == id {
			return i
		}
	}
	return -1
}

func (e *Engine) saleIndex(id string) int {
	for i := range e.sales {
		if e.sales[i].ID == id {
			return i
		}
	}
	return -1
}

func (e *Engine) expenseIndex(id string) int {
	for i := range e.expenses {
		if e.expenses[i].ID == id {
			return i
		}
	}
	return -1
}

func prepend[T any](s []T, v T) []T {
	out := make([]T, 0, len(s)+1)
	out = append(out, v)
	return append(out, s...)
}

func clone[T any](s []T) []T {
	out := make([]T, len(s))
	copy(out, s)
	return out
}
