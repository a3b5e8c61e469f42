package core

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Month is a billing period identified on the wire as "YYYY-MM".
type Month struct {
	Year  int
	Month int // 1-12
}

// ParseMonth parses "YYYY-MM".
func ParseMonth(s string) (Month, error) {
	s = strings.TrimSpace(s)
	y, m, ok := strings.Cut(s, "-")
	if !ok || len(y) != 4 || len(m) != 2 {
		return Month{}, fmt.Errorf("%w: %q, want YYYY-MM", ErrInvalidMonth, s)
	}
	year, err := strconv.Atoi(y)
	if err != nil {
		return Month{}, fmt.Errorf("%w: %q", ErrInvalidMonth, s)
	}
	month, err := strconv.Atoi(m)
	if err != nil || month < 1 || month > 12 {
		return Month{}, fmt.Errorf("%w: %q", ErrInvalidMonth, s)
	}
	return Month{Year: year, Month: month}, nil
}

// MonthOf returns the billing period containing t.
func MonthOf(t time.Time) Month {
	return Month{Year: t.Year(), Month: int(t.Month())}
}

// IsZero reports whether the month was never set.
func (m Month) IsZero() bool {
	return m.Year == 0 && m.Month == 0
}

// Shift moves the month by delta calendar months.
func (m Month) Shift(delta int) Month {
	t := time.Date(m.Year, time.Month(m.Month)+time.Month(delta), 1, 0, 0, 0, 0, time.UTC)
	return MonthOf(t)
}

func (m Month) Next() Month { return m.Shift(1) }

func (m Month) Prev() Month { return m.Shift(-1) }

// Contains reports whether d falls inside the month.
func (m Month) Contains(d Date) bool {
	return d.Year() == m.Year && int(d.Time.Month()) == m.Month
}

// Start returns the first day of the month.
func (m Month) Start() Date {
	return NewDate(m.Year, m.Month, 1)
}

// Label is the heading printed on month views and invoices.
func (m Month) Label() string {
	return fmt.Sprintf("Tháng %02d/%04d", m.Month, m.Year)
}

func (m Month) String() string {
	return fmt.Sprintf("%04d-%02d", m.Year, m.Month)
}

func (m Month) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *Month) UnmarshalText(text []byte) error {
	v, err := ParseMonth(string(text))
	if err != nil {
		return err
	}
	*m = v
	return nil
}
