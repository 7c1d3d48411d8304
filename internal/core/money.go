// Package core provides money parsing and handling utilities.
//
// This file contains the decimal-backed Money type and the helpers used to
// read user-typed amounts and print them back as VND.
package core

import (
	"errors"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

// Money is an amount in the wallet currency (VND unless stated otherwise).
type Money struct {
	Amount decimal.Decimal
}

var ErrInvalidAmount = errors.New("invalid amount")

// NewMoney wraps an integer amount.
func NewMoney(v int64) Money {
	return Money{Amount: decimal.NewFromInt(v)}
}

// MoneyFrom wraps an existing decimal.
func MoneyFrom(d decimal.Decimal) Money {
	return Money{Amount: d}
}

func (m Money) Validate() error {
	if !m.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	return nil
}

func (m Money) Add(o Money) Money { return Money{Amount: m.Amount.Add(o.Amount)} }

func (m Money) Sub(o Money) Money { return Money{Amount: m.Amount.Sub(o.Amount)} }

func (m Money) IsZero() bool { return m.Amount.IsZero() }

func (m Money) Equal(o Money) bool { return m.Amount.Equal(o.Amount) }

// String returns the plain decimal representation, e.g. "45000" or "2500.5".
func (m Money) String() string {
	return m.Amount.String()
}

// ParseAmount converts a decimal string to Money.
//
// It accepts both dot (12.34) and comma (12,34) as the decimal separator and
// rejects signs, zero and anything that is not a plain number. Grouped
// numerals such as "1.500.000" are handled by the parsing package, not here.
//
// Examples:
//
//	ParseAmount("45000")  -> 45000, nil
//	ParseAmount("12,5")   -> 12.5, nil
//	ParseAmount("-1")     -> error
func ParseAmount(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Money{}, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return Money{}, ErrInvalidAmount
	}
	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return Money{}, ErrInvalidAmount
	}
	for _, p := range parts {
		for _, r := range p {
			if !unicode.IsDigit(r) {
				return Money{}, ErrInvalidAmount
			}
		}
	}
	if parts[0] == "" {
		s = "0" + s
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, ErrInvalidAmount
	}
	if !d.IsPositive() {
		return Money{}, ErrInvalidAmount
	}
	return Money{Amount: d}, nil
}

// FormatVND renders an amount the way the dashboard shows it: integer part
// grouped with dots and a trailing "₫", e.g. "1.500.000 ₫".
func FormatVND(m Money) string {
	rounded := m.Amount.Round(0)
	neg := rounded.IsNegative()
	digits := rounded.Abs().String()

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
