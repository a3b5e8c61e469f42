// Package core provides money parsing and handling utilities.
//
// This file contains functions for parsing whole-dong amounts from user input
// and formatting them the way the invoices print them.
package core

import (
	"strconv"
	"strings"
	"unicode"
)

// ParseAmount converts a whole-currency string to a Money value.
//
// Thousands may be grouped with dots, commas or spaces ("450.000", "450,000",
// "450 000"), and a trailing currency marker ("đ", "₫", "VND") is ignored.
// Returns ErrInvalidAmount for signs, fractional parts, empty input or zero.
//
// Examples:
//
//	ParseAmount("200000")    -> 200000, nil
//	ParseAmount("200.000 ₫") -> 200000, nil
//	ParseAmount("-5")        -> 0, ErrInvalidAmount
func ParseAmount(s string) (Money, error) {
	s = strings.TrimSpace(s)
	for _, suffix := range []string{"VND", "vnd", "₫", "đ"} {
		s = strings.TrimSpace(strings.TrimSuffix(s, suffix))
	}
	if s == "" {
		return Money{}, ErrInvalidAmount
	}
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return Money{}, ErrInvalidAmount
	}

	groups := strings.FieldsFunc(s, func(r rune) bool {
		return r == '.' || r == ',' || r == ' '
	})
	// Every group after the first must be exactly three digits, otherwise the
	// separator was a decimal point.
	for i, g := range groups {
		if i > 0 && len(g) != 3 {
			return Money{}, ErrInvalidAmount
		}
		for _, r := range g {
			if !unicode.IsDigit(r) {
				return Money{}, ErrInvalidAmount
			}
		}
	}

	v, err := strconv.ParseInt(strings.Join(groups, ""), 10, 64)
	if err != nil || v <= 0 {
		return Money{}, ErrInvalidAmount
	}
	return Money{Amount: v}, nil
}

// Format renders the amount with dot thousand separators and the dong sign,
// e.g. "450.000 ₫".
func (m Money) Format() string {
	v := m.Amount
	neg := v < 0
	if neg {
		v = -v
	}
	digits := strconv.FormatInt(v, 10)

	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	b.WriteString(" ₫")
	return b.String()
}

func (m Money) String() string {
	return m.Format()
}
