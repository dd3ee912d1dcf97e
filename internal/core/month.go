package core

import (
	"fmt"
	"time"
)

// Month is a calendar year+month bucket; the day of month is discarded.
type Month struct {
	Year  int
	Month time.Month
}

// monthLabelLayout is the canonical, sortable month label.
const monthLabelLayout = "2006-01"

var spanishShortMonths = [12]string{
	"ene", "feb", "mar", "abr", "may", "jun",
	"jul", "ago", "sept", "oct", "nov", "dic",
}

// MonthOf returns the calendar month a date falls in.
func MonthOf(d Date) Month {
	return Month{Year: d.Year(), Month: d.Time.Month()}
}

// ParseMonth parses a label produced by Month.Label.
func ParseMonth(label string) (Month, error) {
	t, err := time.Parse(monthLabelLayout, label)
	if err != nil {
		return Month{}, fmt.Errorf("invalid month label %q: %w", label, err)
	}
	return Month{Year: t.Year(), Month: t.Month()}, nil
}

// Label returns the month as "YYYY-MM".
func (m Month) Label() string {
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month))
}

// DisplayName returns the Spanish short form used in reports, e.g. "ene 2024".
func (m Month) DisplayName() string {
	if m.Month < time.January || m.Month > time.December {
		return m.Label()
	}
	return fmt.Sprintf("%s %d", spanishShortMonths[m.Month-1], m.Year)
}

func (m Month) String() string {
	return m.Label()
}

// Before reports whether m is chronologically earlier than o.
func (m Month) Before(o Month) bool {
	if m.Year != o.Year {
		return m.Year < o.Year
	}
	return m.Month < o.Month
}
