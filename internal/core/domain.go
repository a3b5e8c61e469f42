package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

const (
	StatusUnpaid PaymentStatus = iota
	StatusPaid
)

type (
	// PaymentStatus is the payment state of a session record.
	PaymentStatus uint8

	Date struct {
		time.Time
	}

	// Money is an amount in the smallest currency unit. VND has no minor unit.
	Money struct {
		Amount int64
	}

	// SessionRecord is one persisted entry: one or more sessions taught to one
	// student on one date.
	SessionRecord struct {
		ID           int64         `json:"id"`
		StudentID    int64         `json:"studentId"`
		StudentName  string        `json:"studentName"`
		PricePerHour Money         `json:"pricePerHour"`
		SessionDate  Date          `json:"sessionDate"`
		Sessions     int           `json:"sessions"`
		Hours        int           `json:"hours"`
		TotalAmount  Money         `json:"totalAmount"` // as supplied upstream, never re-derived here
		Status       PaymentStatus `json:"status"`
	}
)

var (
	ErrInvalidDay    = errors.New("invalid day")
	ErrInvalidMonth  = errors.New("invalid month")
	ErrInvalidAmount = errors.New("invalid amount")
	ErrInvalidStatus = errors.New("invalid payment status")
)

// IsPaid reports whether the status is StatusPaid.
func (s PaymentStatus) IsPaid() bool {
	return s == StatusPaid
}

// Toggle returns the opposite status. Toggling twice is the identity.
func (s PaymentStatus) Toggle() PaymentStatus {
	if s == StatusPaid {
		return StatusUnpaid
	}
	return StatusPaid
}

// StatusFromPaid maps a stored boolean flag onto a PaymentStatus.
func StatusFromPaid(paid bool) PaymentStatus {
	if paid {
		return StatusPaid
	}
	return StatusUnpaid
}

func (s PaymentStatus) String() string {
	switch s {
	case StatusPaid:
		return "paid"
	case StatusUnpaid:
		return "unpaid"
	default:
		return fmt.Sprintf("PaymentStatus(%d)", uint8(s))
	}
}

// ParsePaymentStatus is the inverse of String.
func ParsePaymentStatus(s string) (PaymentStatus, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "paid":
		return StatusPaid, nil
	case "unpaid":
		return StatusUnpaid, nil
	default:
		return StatusUnpaid, fmt.Errorf("%w: %q", ErrInvalidStatus, s)
	}
}

func (s PaymentStatus) MarshalText() ([]byte, error) {
	if s != StatusPaid && s != StatusUnpaid {
		return nil, fmt.Errorf("%w: %d", ErrInvalidStatus, uint8(s))
	}
	return []byte(s.String()), nil
}

func (s *PaymentStatus) UnmarshalText(text []byte) error {
	v, err := ParsePaymentStatus(string(text))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// Paid reports whether the record has been paid.
func (r SessionRecord) Paid() bool {
	return r.Status.IsPaid()
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a date in YYYY-MM-DD format.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return Date{Time: t}, nil
}

func (d Date) Validate() error {
	if d.IsZero() {
		return errors.New("date cannot be zero")
	}
	_, month, day := d.Date()
	if day < 1 || day > 31 {
		return ErrInvalidDay
	}
	if month < 1 || month > 12 {
		return ErrInvalidMonth
	}
	return nil
}

// Before orders dates by calendar day.
func (d Date) Before(o Date) bool {
	return d.Time.Before(o.Time)
}

func (d Date) String() string {
	return d.Format(dateLayout)
}

func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Date) UnmarshalText(text []byte) error {
	v, err := ParseDate(string(text))
	if err != nil {
		return err
	}
	*d = v
	return nil
}

// MarshalJSON overrides the promoted time.Time encoding so dates travel as
// plain YYYY-MM-DD strings.
func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	return d.UnmarshalText([]byte(s))
}

// Add returns m + o.
func (m Money) Add(o Money) Money {
	return Money{Amount: m.Amount + o.Amount}
}

// Mul returns m multiplied by n units.
func (m Money) Mul(n int) Money {
	return Money{Amount: m.Amount * int64(n)}
}

func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.Amount)
}

func (m *Money) UnmarshalJSON(data []byte) error {
	return json.Unmarshal(data, &m.Amount)
}

func (m Money) Validate() error {
	if m.Amount <= 0 {
		return ErrInvalidAmount
	}
	return nil
}
