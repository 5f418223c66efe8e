package worker

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// PendingLister finds uploads that never left the pending state.
type PendingLister interface {
	PendingBefore(ctx context.Context, cutoff time.Time, limit int) ([]string, error)
}

const sweepBatch = 100

// StartPendingSweeper periodically re-enqueues uploads that stayed pending
// for longer than interval, e.g. jobs lost with an in-memory queue on
// restart. It stops when ctx is done.
func StartPendingSweeper(ctx context.Context, lister PendingLister, queue Queue, interval time.Duration, logger *zap.Logger) {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			// wait first so startup does not race fresh uploads
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
			sweepPending(ctx, lister, queue, time.Now().Add(-interval), logger)
		}
	}()
}

// sweepPending enqueues one batch and returns how many ids were queued.
func sweepPending(ctx context.Context, lister PendingLister, queue Queue, cutoff time.Time, logger *zap.Logger) int {
	ids, err := lister.PendingBefore(ctx, cutoff, sweepBatch)
	if err != nil {
		logger.Warn("pending sweep query failed", zap.Error(err))
		return 0
	}
	queued := 0
	for _, id := range ids {
		if err := queue.Enqueue(ctx, id); err != nil {
			// full or closed; the next tick picks the rest up
			logger.Info("pending sweep stopped early", zap.Int("queued", queued), zap.Error(err))
			break
		}
		queued++
	}
	if queued > 0 {
		logger.Info("re-queued stale pending uploads", zap.Int("count", queued))
	}
	return queued
}
