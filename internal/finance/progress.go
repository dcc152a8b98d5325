package finance

import (
	"github.com/shopspring/decimal"

	"moneymind/internal/core"
)

var hundred = decimal.NewFromInt(100)

// RawProgress is current/target × 100, rounded to two places and not
// capped. A goal funded past its target reports more than 100.
func RawProgress(g core.Goal) float64 {
	if g.TargetAmount.Cents <= 0 {
		return 0
	}
	pct := g.CurrentAmount.Decimal().
		Mul(hundred).
		DivRound(g.TargetAmount.Decimal(), 2)
	return pct.InexactFloat64()
}

// DisplayProgress is RawProgress clamped to [0, 100] for progress bars.
func DisplayProgress(g core.Goal) float64 {
	return min(max(RawProgress(g), 0), 100)
}

// Remaining is what is still missing to reach the target, zero once reached.
func Remaining(g core.Goal) core.Money {
	if g.CurrentAmount.Cents >= g.TargetAmount.Cents {
		return core.Money{}
	}
	return g.TargetAmount.Sub(g.CurrentAmount)
}
