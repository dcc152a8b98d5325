package finance

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"

	"moneymind/internal/core"
)

const (
	INR Currency = "INR"
	USD Currency = "USD"
)

type Currency string

var (
	ErrUnsupportedCurrency = errors.New("unsupported currency")
	ErrInvalidRate         = errors.New("exchange rate must be positive")
)

// ParseCurrency accepts INR and USD in any case.
func ParseCurrency(s string) (Currency, error) {
	switch c := Currency(strings.ToUpper(strings.TrimSpace(s))); c {
	case INR, USD:
		return c, nil
	}
	return "", ErrUnsupportedCurrency
}

// Convert converts amount between INR and USD. inrPerUSD is how many rupees
// one dollar buys. The result is rounded to cents. Amounts whose exponent
// is outside the supported window fail with core.ErrInvalidAmount.
func Convert(amount decimal.Decimal, from, to Currency, inrPerUSD decimal.Decimal) (decimal.Decimal, error) {
	if !inrPerUSD.IsPositive() || !core.DecimalInRange(inrPerUSD) {
		return decimal.Zero, ErrInvalidRate
	}
	if !core.DecimalInRange(amount) {
		return decimal.Zero, core.ErrInvalidAmount
	}
	switch {
	case from == to && (from == INR || from == USD):
		return amount.Round(2), nil
	case from == INR && to == USD:
		return amount.DivRound(inrPerUSD, 2), nil
	case from == USD && to == INR:
		return amount.Mul(inrPerUSD).Round(2), nil
	}
	return decimal.Zero, ErrUnsupportedCurrency
}
