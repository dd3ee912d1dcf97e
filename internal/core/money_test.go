package core

import (
	"encoding/json"
	"errors"
	"math"
	"testing"
)

func TestParseDecimalToCents(t *testing.T) {
	cases := []struct {
		in  string
		out int64
		ok  bool
	}{
		{"1", 100, true},
		{"1.0", 100, true},
		{"1.23", 123, true},
		{"1,23", 123, true},
		{"0.01", 1, true},
		{"1.005", 101, true}, // half-up rounding
		{"12.344", 1234, true},
		{" 2.50 ", 250, true},
		{"-1", 0, false},
		{"0", 0, false},
		{"abc", 0, false},
		{"1e3", 0, false},
		{"1.2.3", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseDecimalToCents(tc.in)
		if tc.ok {
			if err != nil || got != tc.out {
				t.Fatalf("%q expected %d, got %d (err=%v)", tc.in, tc.out, got, err)
			}
		} else {
			if err == nil {
				t.Fatalf("%q expected error", tc.in)
			}
		}
	}
}

func TestParseMoneyAllowsZero(t *testing.T) {
	m, err := ParseMoney("0")
	if err != nil || m.Cents != 0 {
		t.Fatalf("expected zero money, got %v (err=%v)", m, err)
	}
	if _, err := ParseMoney("-0.5"); err == nil {
		t.Fatalf("expected error for negative price")
	}
}

func TestMoneyArithmeticAndFormat(t *testing.T) {
	price := Money{Cents: 2000}
	if got := price.Mul(3); got.Cents != 6000 {
		t.Fatalf("expected 6000, got %d", got.Cents)
	}
	if got := price.Sub(Money{Cents: 2550}); got.String() != "-€5,50" {
		t.Fatalf("unexpected format %q", got.String())
	}
	if got := (Money{Cents: 1234}).String(); got != "€12,34" {
		t.Fatalf("unexpected format %q", got)
	}
}

func TestMoneyJSON(t *testing.T) {
	b, err := json.Marshal(Money{Cents: 2050})
	if err != nil || string(b) != "20.50" {
		t.Fatalf("marshal: got %s (err=%v)", b, err)
	}

	cases := map[string]int64{
		`20`:      2000,
		`19.99`:   1999,
		`"12,5"`:  1250,
		`0.005`:   1,
		`null`:    0,
		`"-3.10"`: -310,
	}
	for in, want := range cases {
		var m Money
		if err := json.Unmarshal([]byte(in), &m); err != nil {
			t.Fatalf("%s: unexpected error %v", in, err)
		}
		if m.Cents != want {
			t.Fatalf("%s: expected %d, got %d", in, want, m.Cents)
		}
	}

	for _, in := range []string{`"abc"`, `2e17`, `-2e17`, `"1e17"`, `92233720368547758.99`} {
		var m Money
		if err := json.Unmarshal([]byte(in), &m); !errors.Is(err, ErrInvalidAmount) {
			t.Fatalf("%s: expected ErrInvalidAmount, got %v (cents=%d)", in, err, m.Cents)
		}
	}
}

func TestMoneyCheckedMul(t *testing.T) {
	cases := []struct {
		m    Money
		qty  int
		want int64
		ok   bool
	}{
		{Money{Cents: 2000}, 3, 6000, true},
		{Money{Cents: 0}, 1 << 30, 0, true},
		{Money{Cents: -150}, 2, -300, true},
		{Money{Cents: 1 << 40}, 1 << 30, 0, false},
		{Money{Cents: math.MaxInt64}, 2, 0, false},
		{Money{Cents: math.MinInt64}, -1, 0, false},
	}
	for _, tc := range cases {
		got, ok := tc.m.CheckedMul(tc.qty)
		if ok != tc.ok || got.Cents != tc.want {
			t.Fatalf("%d x %d: expected (%d, %v), got (%d, %v)", tc.m.Cents, tc.qty, tc.want, tc.ok, got.Cents, ok)
		}
	}
}
