// Package report derives read-only views from the ledger collections:
// monthly income and expense buckets, the dashboard summary and the
// inventory valuation. All functions are pure.
package report

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"contable/internal/core"
)

// FilterAll selects every month.
const FilterAll = "all"

var ErrInvalidFilter = errors.New("invalid month filter")

// Filter selects either every month or a single one.
type Filter struct {
	all   bool
	month core.Month
}

// AllMonths is the filter matching every transaction.
func AllMonths() Filter { return Filter{all: true} }

// OnlyMonth matches transactions of a single calendar month.
func OnlyMonth(m core.Month) Filter { return Filter{month: m} }

// ParseFilter accepts "all", an empty string, or a month label such as "2024-01".
func ParseFilter(s string) (Filter, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, FilterAll) {
		return AllMonths(), nil
	}
	m, err := core.ParseMonth(s)
	if err != nil {
		return Filter{}, fmt.Errorf("%w: %q", ErrInvalidFilter, s)
	}
	return OnlyMonth(m), nil
}

func (f Filter) Matches(m core.Month) bool {
	return f.all || f.month == m
}

func (f Filter) String() string {
	if f.all {
		return FilterAll
	}
	return f.month.Label()
}

// MonthBucket holds the totals of one calendar month.
type MonthBucket struct {
	Month        core.Month `json:"-"`
	Label        string     `json:"month"`
	DisplayName  string     `json:"displayName"`
	TotalIncome  core.Money `json:"totalIncome"`
	TotalExpense core.Money `json:"totalExpense"`
}

// Net is income minus expenses for the month.
func (b MonthBucket) Net() core.Money {
	return b.TotalIncome.Sub(b.TotalExpense)
}

// AvailableMonths lists the distinct months present in sales or expenses,
// earliest first.
func AvailableMonths(sales []core.Sale, expenses []core.Expense) []core.Month {
	seen := make(map[core.Month]struct{})
	for _, s := range sales {
		seen[core.MonthOf(s.Date)] = struct{}{}
	}
	for _, e := range expenses {
		seen[core.MonthOf(e.Date)] = struct{}{}
	}
	months := make([]core.Month, 0, len(seen))
	for m := range seen {
		months = append(months, m)
	}
	sortMonths(months)
	return months
}

// Monthly groups the transactions matching filter into one bucket per month,
// earliest first. A month with only sales or only expenses still gets a bucket.
func Monthly(sales []core.Sale, expenses []core.Expense, filter Filter) []MonthBucket {
	buckets := make(map[core.Month]*MonthBucket)
	bucket := func(m core.Month) *MonthBucket {
		b, ok := buckets[m]
		if !ok {
			b = &MonthBucket{Month: m, Label: m.Label(), DisplayName: m.DisplayName()}
			buckets[m] = b
		}
		return b
	}

	for _, s := range sales {
		m := core.MonthOf(s.Date)
		if !filter.Matches(m) {
			continue
		}
		b := bucket(m)
		b.TotalIncome = b.TotalIncome.Add(s.TotalPrice)
	}
	for _, e := range expenses {
		m := core.MonthOf(e.Date)
		if !filter.Matches(m) {
			continue
		}
		b := bucket(m)
		b.TotalExpense = b.TotalExpense.Add(e.Amount)
	}

	out := make([]MonthBucket, 0, len(buckets))
	for _, b := range buckets {
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month.Before(out[j].Month) })
	return out
}

func sortMonths(months []core.Month) {
	sort.Slice(months, func(i, j int) bool { return months[i].Before(months[j]) })
}
