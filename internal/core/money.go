// Package core provides money parsing and handling utilities.
//
// Amounts are held as integer cents so that sums, comparisons and repeated
// edits never pick up binary floating point error. Conversion to and from
// decimal strings goes through shopspring/decimal.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

type Money struct {
	Cents int64
}

// Rescaling a decimal costs time and memory proportional to its exponent,
// so untrusted input is held to a small window before any rounding.
const (
	minExponent  = -18
	maxExponent  = 18
	maxNumberLen = 64
)

// MaxCents is the largest amount, in cents, a single stored value may hold.
const MaxCents int64 = 1e15 - 1

// ErrAmountTooLarge is returned when adding to a stored amount would pass
// MaxCents.
var ErrAmountTooLarge = Invalid("amount", "would exceed the largest supported amount")

// ParseMoney converts a decimal string to Money with half-up rounding to two
// places.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators. Zero is
// accepted; negative values, exponents out of range and non-numbers are not.
//
// Examples:
//
//	ParseMoney("12.34")  -> 1234 cents
//	ParseMoney("12,345") -> 1235 cents
//	ParseMoney("0")      -> 0 cents
func ParseMoney(s string) (Money, error) {
	d, err := ParseDecimal(s)
	if err != nil {
		return Money{}, err
	}
	return MoneyFromDecimal(d)
}

// ParseDecimal parses a decimal number written with a dot or comma
// separator. Overlong input and exponents outside the supported window are
// rejected with ErrInvalidAmount.
func ParseDecimal(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" || len(s) > maxNumberLen {
		return decimal.Zero, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil || !DecimalInRange(d) {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// DecimalInRange reports whether d's exponent is small enough to round and
// rescale cheaply.
func DecimalInRange(d decimal.Decimal) bool {
	e := d.Exponent()
	return e >= minExponent && e <= maxExponent
}

// MoneyFromDecimal rounds d to cents.
func MoneyFromDecimal(d decimal.Decimal) (Money, error) {
	if d.IsNegative() || !DecimalInRange(d) {
		return Money{}, ErrInvalidAmount
	}
	cents := d.Round(2).Shift(2)
	if cents.GreaterThan(decimal.NewFromInt(MaxCents)) {
		return Money{}, ErrInvalidAmount
	}
	return Money{Cents: cents.IntPart()}, nil
}

// Decimal returns the exact decimal value.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.Cents, -2)
}

// Float returns the amount as a float64 for display purposes only.
// Use Cents for calculations to avoid floating-point precision issues.
func (m Money) Float() float64 {
	return m.Decimal().InexactFloat64()
}

// String renders the amount with exactly two decimals.
func (m Money) String() string {
	return m.Decimal().StringFixed(2)
}

// Add returns m + other.
func (m Money) Add(other Money) Money {
	return Money{Cents: m.Cents + other.Cents}
}

// CanAdd reports whether m + other stays within [0, MaxCents].
func (m Money) CanAdd(other Money) bool {
	return other.Cents >= 0 && m.Cents >= 0 && m.Cents <= MaxCents && other.Cents <= MaxCents-m.Cents
}

// Sub returns m - other. The result may be negative.
func (m Money) Sub(other Money) Money {
	return Money{Cents: m.Cents - other.Cents}
}
