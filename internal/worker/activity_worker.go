// Package worker turns activity events into the persisted audit trail and
// keeps that trail within its retention window.
package worker

import (
	"context"
	"fmt"
	"time"

	"moneymind/internal/amqp"
	"moneymind/internal/core"
	"moneymind/internal/log"
	"moneymind/internal/metrics"
	"moneymind/internal/storage"
)

// ActivityWorker persists activity events and prunes old ones.
type ActivityWorker struct {
	store     storage.ActivityStore
	metrics   *metrics.Metrics
	retention time.Duration
	logger    *log.Logger
	now       func() time.Time
}

// NewActivityWorker builds a worker; a nil logger discards output.
func NewActivityWorker(store storage.ActivityStore, m *metrics.Metrics, retention time.Duration, logger *log.Logger) *ActivityWorker {
	if logger == nil {
		logger = log.Discard()
	}
	return &ActivityWorker{
		store:     store,
		metrics:   m,
		logger:    logger,
		retention: retention,
		now:       time.Now,
	}
}

// HandleActivity records one event. Redelivered events are recognised by
// their event id and skipped.
func (w *ActivityWorker) HandleActivity(ctx context.Context, ev amqp.ActivityEvent) error {
	if err := ev.Validate(); err != nil {
		w.observe(metrics.ActivityFailed)
		return err
	}

	recorded, err := w.store.RecordActivity(ctx, core.Activity{
		EventID:    ev.EventID,
		UserID:     ev.UserID,
		Kind:       ev.Kind,
		EntityID:   ev.EntityID,
		OccurredAt: ev.OccurredAt.UTC().Truncate(time.Microsecond),
	})
	if err != nil {
		w.observe(metrics.ActivityFailed)
		return fmt.Errorf("record activity: %w", err)
	}

	if !recorded {
		w.observe(metrics.ActivityDuplicate)
		w.logger.DebugContext(ctx, "Skipping duplicate activity event", log.FieldEventID, ev.EventID)
		return nil
	}

	w.observe(metrics.ActivityRecorded)
	w.logger.InfoContext(ctx, "Recorded activity",
		log.FieldEventID, ev.EventID,
		log.FieldEventKind, ev.Kind,
		log.FieldUserID, ev.UserID,
		log.FieldEntityID, ev.EntityID)
	return nil
}

// PruneExpired deletes activity older than the retention window.
func (w *ActivityWorker) PruneExpired(ctx context.Context) (int64, error) {
	cutoff := w.now().UTC().Add(-w.retention)
	n, err := w.store.PruneActivity(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune activity: %w", err)
	}
	if w.metrics != nil {
		w.metrics.ObservePruned(n)
	}
	w.logger.InfoContext(ctx, "Pruned expired activity",
		log.FieldOperation, log.OpPrune,
		log.FieldDeleted, n,
		log.FieldCutoff, cutoff)
	return n, nil
}

func (w *ActivityWorker) observe(outcome string) {
	if w.metrics != nil {
		w.metrics.ObserveActivity(outcome)
	}
}
