package report

import (
	"sort"

	"contable/internal/core"
)

// recentLimit is how many transactions the dashboard lists.
const recentLimit = 5

type TransactionKind string

const (
	KindSale    TransactionKind = "sale"
	KindExpense TransactionKind = "expense"
)

// Transaction is a sale or expense flattened for the activity list.
type Transaction struct {
	ID          string          `json:"id"`
	Kind        TransactionKind `json:"kind"`
	Description string          `json:"description"`
	Amount      core.Money      `json:"amount"`
	Date        core.Date       `json:"date"`
}

// Summary is the all-time overview.
type Summary struct {
	TotalIncome   core.Money    `json:"totalIncome"`
	TotalExpenses core.Money    `json:"totalExpenses"`
	Profit        core.Money    `json:"profit"`
	Recent        []Transaction `json:"recentTransactions"`
}

// Dashboard totals every sale and expense and lists the most recent activity,
// newest first. Ties keep sales before expenses in collection order.
func Dashboard(sales []core.Sale, expenses []core.Expense) Summary {
	var sum Summary
	txs := make([]Transaction, 0, len(sales)+len(expenses))
	for _, s := range sales {
		sum.TotalIncome = sum.TotalIncome.Add(s.TotalPrice)
		txs = append(txs, Transaction{
			ID:          s.ID,
			Kind:        KindSale,
			Description: "Venta: " + s.ItemName,
			Amount:      s.TotalPrice,
			Date:        s.Date,
		})
	}
	for _, e := range expenses {
		sum.TotalExpenses = sum.TotalExpenses.Add(e.Amount)
		txs = append(txs, Transaction{
			ID:          e.ID,
			Kind:        KindExpense,
			Description: e.Description,
			Amount:      e.Amount,
			Date:        e.Date,
		})
	}
	sum.Profit = sum.TotalIncome.Sub(sum.TotalExpenses)

	sort.SliceStable(txs, func(i, j int) bool { return txs[i].Date.After(txs[j].Date.Time) })
	if len(txs) > recentLimit {
		txs = txs[:recentLimit]
	}
	sum.Recent = txs
	return sum
}
