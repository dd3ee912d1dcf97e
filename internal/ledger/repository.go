package ledger

import (
	"context"

	"contable/internal/core"
)

// Repository persists the three collections. Each save overwrites the whole
// collection. Loads never fail: a missing or unreadable collection is empty.
type Repository interface {
	LoadInventory(ctx context.Context) []core.InventoryItem
	LoadSales(ctx context.Context) []core.Sale
	LoadExpenses(ctx context.Context) []core.Expense

	SaveInventory(ctx context.Context, items []core.InventoryItem) error
	SaveSales(ctx context.Context, sales []core.Sale) error
	SaveExpenses(ctx context.Context, expenses []core.Expense) error
}
