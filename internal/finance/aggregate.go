// Package finance holds the pure aggregation helpers behind the dashboard
// and the tool widgets: monthly buckets, the income/expense summary, goal
// progress, SIP projection and currency conversion.
package finance

import (
	"time"

	"moneymind/internal/core"
)

// MonthBucket is the income and expense total of one calendar month.
type MonthBucket struct {
	Month   string // short English name, Jan..Dec
	Income  core.Money
	Expense core.Money
}

// Summary is the income/expense position over a full record set.
type Summary struct {
	Income  core.Money
	Expense core.Money
	// Balance is Income - Expense and may be negative.
	Balance core.Money
}

// MonthlyBuckets sums transactions per calendar month. The result always has
// 12 entries in calendar order, zero-filled. A non-zero year keeps only
// transactions dated in that year; year 0 folds every year together.
func MonthlyBuckets(txs []core.Transaction, year int) []MonthBucket {
	buckets := make([]MonthBucket, 12)
	for i := range buckets {
		buckets[i].Month = time.Month(i + 1).String()[:3]
	}
	for _, t := range txs {
		if year != 0 && t.Date.Year() != year {
			continue
		}
		b := &buckets[t.Date.Month()-1]
		switch t.Type {
		case core.Income:
			b.Income = b.Income.Add(t.Amount)
		case core.Expense:
			b.Expense = b.Expense.Add(t.Amount)
		}
	}
	return buckets
}

// Summarize totals income and expense. Callers pass the owner's full set,
// never a single page.
func Summarize(txs []core.Transaction) Summary {
	var s Summary
	for _, t := range txs {
		switch t.Type {
		case core.Income:
			s.Income = s.Income.Add(t.Amount)
		case core.Expense:
			s.Expense = s.Expense.Add(t.Amount)
		}
	}
	s.Balance = s.Income.Sub(s.Expense)
	return s
}
