// Package core provides money parsing and handling utilities.
//
// This file contains functions for parsing monetary amounts from strings,
// converting between cents and euro representations, and the JSON codec used
// by the persisted collections.
package core

import (
	"bytes"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

// maxMoney bounds parsed amounts so that cents never overflow int64.
var maxMoney = decimal.New((1<<63-1)/100, 0)

// ParseMoney converts a decimal string to Money with proper rounding.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators and performs
// half-up rounding on the third decimal place. Zero is a valid result, negative
// values and invalid formats are rejected.
//
// Examples:
//
//	ParseMoney("12.34")  -> Money{Cents: 1234}, nil
//	ParseMoney("12,34")  -> Money{Cents: 1234}, nil
//	ParseMoney("12.346") -> Money{Cents: 1235}, nil
//	ParseMoney("0")      -> Money{Cents: 0}, nil
func ParseMoney(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Money{}, ErrInvalidAmount
	}
	// Normalize decimal comma to dot
	s = strings.ReplaceAll(s, ",", ".")
	if strings.Count(s, ".") > 1 {
		return Money{}, ErrInvalidAmount
	}
	for _, r := range s {
		if r != '.' && !unicode.IsDigit(r) {
			// Signs, exponents and currency symbols are all rejected here
			return Money{}, ErrInvalidAmount
		}
	}
	if s == "." {
		return Money{}, ErrInvalidAmount
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, ErrInvalidAmount
	}
	if d.Round(2).GreaterThan(maxMoney) {
		return Money{}, ErrInvalidAmount
	}
	return MoneyFromDecimal(d), nil
}

// ParseDecimalToCents converts a decimal string to strictly positive cents.
//
// It follows ParseMoney for separators and rounding, and additionally rejects
// zero. Use it for amounts that must be positive, such as expenses.
//
// Examples:
//
//	ParseDecimalToCents("12.34") -> 1234, nil
//	ParseDecimalToCents("1.005") -> 101, nil (rounds up)
//	ParseDecimalToCents("0")     -> 0, ErrInvalidAmount
func ParseDecimalToCents(s string) (int64, error) {
	m, err := ParseMoney(s)
	if err != nil {
		return 0, err
	}
	if m.Cents <= 0 {
		return 0, ErrInvalidAmount
	}
	return m.Cents, nil
}

// MoneyFromDecimal rounds d to two fractional digits, half away from zero.
func MoneyFromDecimal(d decimal.Decimal) Money {
	return Money{Cents: d.Round(2).Shift(2).IntPart()}
}

// Decimal returns the amount as an exact decimal in currency units.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.Cents, -2)
}

// Euros returns the euro value as a float64 for display purposes.
// Note: Use cents for calculations to avoid floating-point precision issues.
func (m Money) Euros() float64 {
	return float64(m.Cents) / 100.0
}

// Mul multiplies a unit amount by a quantity.
func (m Money) Mul(qty int) Money {
	return Money{Cents: m.Cents * int64(qty)}
}

// CheckedMul is Mul that reports false when the product overflows int64 cents.
func (m Money) CheckedMul(qty int) (Money, bool) {
	q := int64(qty)
	if m.Cents == 0 || q == 0 {
		return Money{}, true
	}
	p := m.Cents * q
	if p/q != m.Cents || (m.Cents == -1 && q == math.MinInt64) || (q == -1 && m.Cents == math.MinInt64) {
		return Money{}, false
	}
	return Money{Cents: p}, true
}

func (m Money) Add(o Money) Money {
	return Money{Cents: m.Cents + o.Cents}
}

func (m Money) Sub(o Money) Money {
	return Money{Cents: m.Cents - o.Cents}
}

func (m Money) IsNegative() bool {
	return m.Cents < 0
}

// String formats the amount as a Euro currency string (e.g. "€12,34").
func (m Money) String() string {
	cents := m.Cents
	neg := cents < 0
	if neg {
		cents = -cents
	}
	s := strconv.FormatInt(cents/100, 10) + "," + fmt.Sprintf("%02d", cents%100)
	if neg {
		return "-€" + s
	}
	return "€" + s
}

// MarshalJSON encodes the amount as a bare number with two fractional digits.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.Decimal().StringFixed(2)), nil
}

// UnmarshalJSON accepts a JSON number or a quoted decimal string.
// The sign is preserved; amounts beyond the int64 cent range are rejected.
func (m *Money) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*m = Money{}
		return nil
	}
	s := strings.TrimSpace(strings.Trim(string(data), `"`))
	s = strings.ReplaceAll(s, ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	if d.Round(2).Abs().GreaterThan(maxMoney) {
		return fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	*m = MoneyFromDecimal(d)
	return nil
}
