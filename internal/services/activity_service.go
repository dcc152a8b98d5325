package services

import (
	"context"
	"fmt"

	"moneymind/internal/core"
	"moneymind/internal/query"
	"moneymind/internal/storage"
)

// ActivityService reads the audit trail the worker writes.
type ActivityService struct {
	store storage.ActivityStore
}

func NewActivityService(store storage.ActivityStore) *ActivityService {
	return &ActivityService{store: store}
}

// List returns the newest entries first.
func (s *ActivityService) List(ctx context.Context, userID int64, p query.Pagination) (query.Page[core.Activity], error) {
	page, err := s.store.ListActivity(ctx, userID, query.NormalizePagination(p))
	if err != nil {
		return query.Page[core.Activity]{}, fmt.Errorf("list activity: %w", err)
	}
	return page, nil
}
