// Package core provides money parsing and handling utilities.
//
// This file contains the decimal-backed Money type. Amounts are kept as
// exact decimals so monthly totals never drift the way float sums do.
package core

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// maxAmountDigits bounds the digits of an accepted amount, integer and
// fractional parts together.
const maxAmountDigits = 24

// plainAmount is a signed decimal without exponent notation.
var plainAmount = regexp.MustCompile(`^[+-]?([0-9]+(\.[0-9]*)?|\.[0-9]+)$`)

// Money is a signed decimal monetary amount. The zero value is 0.
type Money struct {
	amount decimal.Decimal
}

// NewMoney wraps a decimal value.
func NewMoney(d decimal.Decimal) Money {
	return Money{amount: d}
}

// MoneyFromCents builds an amount from integer cents.
func MoneyFromCents(cents int64) Money {
	return Money{amount: decimal.New(cents, -2)}
}

// ParseMoney parses any numeric string into Money.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators, signs,
// and zero. No rounding is applied, so the stored value is exactly what was
// entered. Exponent notation and amounts longer than maxAmountDigits
// digits are rejected, since String expands the exponent in full.
//
// Examples:
//   ParseMoney("12.34") -> 12.34
//   ParseMoney("12,34") -> 12.34
//   ParseMoney("-3")    -> -3
//   ParseMoney("abc")   -> error
//   ParseMoney("1e3")   -> error
func ParseMoney(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Money{}, &ValidationError{Field: "amount", Err: ErrMissingAmount}
	}
	s = strings.ReplaceAll(s, ",", ".")
	if !plainAmount.MatchString(s) || countDigits(s) > maxAmountDigits {
		return Money{}, &ValidationError{Field: "amount", Err: ErrInvalidAmount}
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, &ValidationError{Field: "amount", Err: ErrInvalidAmount}
	}
	return Money{amount: d}, nil
}

func countDigits(s string) int {
	n := 0
	for _, r := range s {
		if r >= '0' && r <= '9' {
			n++
		}
	}
	return n
}

func (m Money) Add(o Money) Money {
	return Money{amount: m.amount.Add(o.amount)}
}

func (m Money) Sub(o Money) Money {
	return Money{amount: m.amount.Sub(o.amount)}
}

// Equal compares numerically, so 10 and 10.00 are equal.
func (m Money) Equal(o Money) bool {
	return m.amount.Equal(o.amount)
}

func (m Money) IsZero() bool {
	return m.amount.IsZero()
}

func (m Money) Sign() int {
	return m.amount.Sign()
}

// Decimal exposes the underlying value for arithmetic outside this package.
func (m Money) Decimal() decimal.Decimal {
	return m.amount
}

// String returns the canonical, lossless decimal text used for storage
// and export.
func (m Money) String() string {
	return m.amount.String()
}

// StringFixed returns the amount with two decimals for display.
func (m Money) StringFixed() string {
	return m.amount.StringFixed(2)
}

// Float64 is for charting only. Use Money for any arithmetic.
func (m Money) Float64() float64 {
	return m.amount.InexactFloat64()
}

// MarshalJSON writes the amount as a bare JSON number so chart and summary
// consumers read identical values.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.amount.String()), nil
}

// UnmarshalJSON accepts both quoted and bare numbers, with the same rules
// as ParseMoney.
func (m *Money) UnmarshalJSON(data []byte) error {
	text := string(data)
	if len(text) >= 2 && text[0] == '"' && text[len(text)-1] == '"' {
		text = text[1 : len(text)-1]
	}
	parsed, err := ParseMoney(text)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
