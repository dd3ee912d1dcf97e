package core

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"time"
)

// DateLayout is the calendar date format used on the wire and in storage.
const DateLayout = "2006-01-02"

// maxDescriptionLen caps free-text descriptions.
const maxDescriptionLen = 200

type (
	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	// InventoryItem is a product the business keeps in stock.
	InventoryItem struct {
		ID        string    `json:"id"`
		Name      string    `json:"name"`
		Cost      Money     `json:"cost"`      // unit production cost
		BasePrice Money     `json:"basePrice"` // default unit sale price
		Stock     int       `json:"stock"`
		CreatedAt time.Time `json:"createdAt"`
	}

	// Sale consumes stock of one inventory item. ItemID is a weak reference:
	// ItemName and PricePerUnit are snapshots taken at sale time.
	Sale struct {
		ID           string `json:"id"`
		ItemID       string `json:"itemId"`
		ItemName     string `json:"itemName"`
		Quantity     int    `json:"quantity"`
		PricePerUnit Money  `json:"pricePerUnit"`
		TotalPrice   Money  `json:"totalPrice"`
		Date         Date   `json:"date"`
	}

	// Expense is an outflow not tied to inventory stock.
	Expense struct {
		ID          string `json:"id"`
		Category    string `json:"category"`
		Description string `json:"description"`
		Amount      Money  `json:"amount"`
		Date        Date   `json:"date"`
	}

	// NewItem carries the caller input for a new inventory item.
	NewItem struct {
		Name      string `json:"name"`
		Cost      Money  `json:"cost"`
		BasePrice Money  `json:"basePrice"`
		Stock     int    `json:"stock"`
	}

	// NewSale carries the caller input for a new sale.
	NewSale struct {
		ItemID       string `json:"itemId"`
		Quantity     int    `json:"quantity"`
		PricePerUnit Money  `json:"pricePerUnit"`
		Date         Date   `json:"date"`
	}

	// NewExpense carries the caller input for a new expense.
	NewExpense struct {
		Category    string `json:"category"`
		Description string `json:"description"`
		Amount      Money  `json:"amount"`
		Date        Date   `json:"date"`
	}
)

var (
	ErrInvalidDate        = errors.New("invalid date")
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrNegativeAmount     = errors.New("amount cannot be negative")
	ErrAmountOverflow     = fmt.Errorf("%w: quantity times price is out of range", ErrInvalidAmount)
	ErrEmptyName          = errors.New("empty name")
	ErrEmptyDescription   = errors.New("empty description")
	ErrDescriptionTooLong = errors.New("description too long (max 200 characters)")
	ErrEmptyCategory      = errors.New("empty category")
	ErrEmptyItemID        = errors.New("empty item id")
	ErrInvalidQuantity    = errors.New("quantity must be positive")
	ErrNegativeStock      = errors.New("stock cannot be negative")
)

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate accepts a calendar date (2006-01-02) or an RFC3339 timestamp.
// Only the calendar part of a timestamp is kept.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(DateLayout, s); err == nil {
		return Date{Time: t}, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return NewDate(t.Year(), int(t.Month()), t.Day()), nil
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

func (d Date) String() string {
	return d.Format(DateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte(`""`), nil
	}
	return []byte(`"` + d.Format(DateLayout) + `"`), nil
}

func (d *Date) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) || bytes.Equal(data, []byte(`""`)) {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(strings.Trim(string(data), `"`))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// UnitMargin is the gross margin of one unit sold at the base price.
func (i InventoryItem) UnitMargin() Money {
	return i.BasePrice.Sub(i.Cost)
}

// StockValue is the value of the remaining stock at production cost.
func (i InventoryItem) StockValue() Money {
	return i.Cost.Mul(i.Stock)
}

func (n NewItem) Validate() error {
	if strings.TrimSpace(n.Name) == "" {
		return ErrEmptyName
	}
	if n.Cost.IsNegative() || n.BasePrice.IsNegative() {
		return ErrNegativeAmount
	}
	if n.Stock < 0 {
		return ErrNegativeStock
	}
	return nil
}

func (n NewSale) Validate() error {
	if strings.TrimSpace(n.ItemID) == "" {
		return ErrEmptyItemID
	}
	if n.Quantity <= 0 {
		return ErrInvalidQuantity
	}
	if n.PricePerUnit.IsNegative() {
		return ErrNegativeAmount
	}
	if _, ok := n.PricePerUnit.CheckedMul(n.Quantity); !ok {
		return ErrAmountOverflow
	}
	return n.Date.Validate()
}

func (n NewExpense) Validate() error {
	if err := n.Date.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(n.Category) == "" {
		return ErrEmptyCategory
	}
	if len(strings.TrimSpace(n.Description)) == 0 {
		return ErrEmptyDescription
	}
	if len(n.Description) > maxDescriptionLen {
		return ErrDescriptionTooLong
	}
	if n.Amount.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}
