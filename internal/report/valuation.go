package report

import "contable/internal/core"

// DefaultLowStockThreshold flags items with fewer units than this.
const DefaultLowStockThreshold = 10

type ItemValuation struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Stock      int        `json:"stock"`
	UnitMargin core.Money `json:"unitMargin"`
	StockValue core.Money `json:"stockValue"`
	LowStock   bool       `json:"lowStock"`
}

// InventoryValuation values the remaining stock at production cost.
type InventoryValuation struct {
	TotalUnits int             `json:"totalUnits"`
	TotalValue core.Money      `json:"totalValue"`
	Items      []ItemValuation `json:"items"`
	LowStock   []ItemValuation `json:"lowStock"`
}

// Valuation reports per-item margin and stock value. Items whose stock is
// below threshold are also listed in LowStock. A non-positive threshold uses
// DefaultLowStockThreshold.
func Valuation(items []core.InventoryItem, threshold int) InventoryValuation {
	if threshold <= 0 {
		threshold = DefaultLowStockThreshold
	}
	v := InventoryValuation{
		Items:    make([]ItemValuation, 0, len(items)),
		LowStock: []ItemValuation{},
	}
	for _, it := range items {
		iv := ItemValuation{
			ID:         it.ID,
			Name:       it.Name,
			Stock:      it.Stock,
			UnitMargin: it.UnitMargin(),
			StockValue: it.StockValue(),
			LowStock:   it.Stock < threshold,
		}
		v.TotalUnits += it.Stock
		v.TotalValue = v.TotalValue.Add(iv.StockValue)
		v.Items = append(v.Items, iv)
		if iv.LowStock {
			v.LowStock = append(v.LowStock, iv)
		}
	}
	return v
}
