package worker

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"

	"moneymind/internal/log"
)

// RetentionScheduler runs PruneExpired on a cron schedule.
type RetentionScheduler struct {
	cron   *cron.Cron
	worker *ActivityWorker
}

// NewRetentionScheduler parses a standard five-field expression or a descriptor
// such as @daily.
func NewRetentionScheduler(w *ActivityWorker, schedule string) (*RetentionScheduler, error) {
	sched, err := cron.ParseStandard(schedule)
	if err != nil {
		return nil, fmt.Errorf("parse retention schedule %q: %w", schedule, err)
	}

	s := &RetentionScheduler{
		cron:   cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		worker: w,
	}
	s.cron.Schedule(sched, cron.FuncJob(s.runOnce))
	return s, nil
}

// Run prunes once immediately, then on schedule until ctx is cancelled. It
// waits for a running prune to finish before returning.
func (s *RetentionScheduler) Run(ctx context.Context) error {
	s.prune(ctx)
	s.cron.Start()
	<-ctx.Done()
	<-s.cron.Stop().Done()
	return nil
}

func (s *RetentionScheduler) runOnce() {
	s.prune(context.Background())
}

func (s *RetentionScheduler) prune(ctx context.Context) {
	if _, err := s.worker.PruneExpired(ctx); err != nil {
		s.worker.logger.ErrorContext(ctx, "Retention job failed",
			log.FieldOperation, log.OpPrune,
			log.FieldError, err)
	}
}
