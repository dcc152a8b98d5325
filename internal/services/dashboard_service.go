package services

import (
	"context"
	"fmt"

	"moneymind/internal/finance"
	"moneymind/internal/storage"
)

// DashboardService aggregates a user's whole transaction history, not
// just the page a client happens to be showing.
type DashboardService struct {
	store storage.TransactionStore
}

func NewDashboardService(store storage.TransactionStore) *DashboardService {
	return &DashboardService{store: store}
}

// Summary totals income and expense across every year.
func (s *DashboardService) Summary(ctx context.Context, userID int64) (finance.Summary, error) {
	txs, err := s.store.TransactionsForYear(ctx, userID, 0)
	if err != nil {
		return finance.Summary{}, fmt.Errorf("load transactions: %w", err)
	}
	return finance.Summarize(txs), nil
}

// Monthly returns twelve buckets for year. Year 0 folds every year into
// the same twelve months.
func (s *DashboardService) Monthly(ctx context.Context, userID int64, year int) ([]finance.MonthBucket, error) {
	txs, err := s.store.TransactionsForYear(ctx, userID, year)
	if err != nil {
		return nil, fmt.Errorf("load transactions: %w", err)
	}
	return finance.MonthlyBuckets(txs, year), nil
}
