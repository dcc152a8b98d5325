package finance

import (
	"errors"
	"math"
)

var ErrInvalidProjection = errors.New("invalid SIP parameters")

// SIPResult is a systematic investment projection. Figures are rounded to
// cents for display.
type SIPResult struct {
	Invested    float64
	Returns     float64
	FutureValue float64
}

// ProjectSIP projects a fixed monthly contribution compounding monthly at
// annualRatePct percent per year, with contributions at the start of each
// month. A zero rate degenerates to monthly × months.
func ProjectSIP(monthly, annualRatePct float64, years int) (SIPResult, error) {
	if monthly < 0 || annualRatePct < 0 || years < 1 || years > 100 ||
		math.IsNaN(monthly) || math.IsInf(monthly, 0) ||
		math.IsNaN(annualRatePct) || math.IsInf(annualRatePct, 0) {
		return SIPResult{}, ErrInvalidProjection
	}

	months := float64(years * 12)
	invested := monthly * months
	rate := annualRatePct / 12 / 100

	future := invested
	if rate != 0 {
		growth := math.Pow(1+rate, months)
		future = monthly * ((growth - 1) / rate) * (1 + rate)
	}
	if math.IsInf(future, 0) {
		return SIPResult{}, ErrInvalidProjection
	}

	return SIPResult{
		Invested:    roundCents(invested),
		Returns:     roundCents(future - invested),
		FutureValue: roundCents(future),
	}, nil
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
