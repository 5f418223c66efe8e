package worker

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"
)

var (
	ErrQueueFull   = errors.New("verification queue is full")
	ErrQueueClosed = errors.New("verification queue is closed")
)

// Job runs one background verification.
type Job func(ctx context.Context, uploadID string) error

// Queue hands upload ids to background verification. Completion is only
// visible through the stored record.
type Queue interface {
	Enqueue(ctx context.Context, uploadID string) error
	Close(ctx context.Context) error
}

// MemoryQueue is a buffered channel served by a fixed pool of goroutines.
type MemoryQueue struct {
	jobs   chan string
	job    Job
	logger *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

func NewMemoryQueue(job Job, workers, size int, logger *zap.Logger) *MemoryQueue {
	if workers <= 0 {
		workers = 1
	}
	if size <= 0 {
		size = 100
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	q := &MemoryQueue{
		jobs:   make(chan string, size),
		job:    job,
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
	}
	for i := 0; i < workers; i++ {
		q.wg.Add(1)
		go q.work(i)
	}
	return q
}

func (q *MemoryQueue) work(n int) {
	defer q.wg.Done()
	for id := range q.jobs {
		q.runOne(n, id)
	}
}

func (q *MemoryQueue) runOne(n int, id string) {
	defer func() {
		if r := recover(); r != nil {
			q.logger.Error("verification job panicked", zap.Int("worker", n), zap.String("upload_id", id), zap.Any("panic", r))
		}
	}()
	if err := q.job(q.ctx, id); err != nil {
		q.logger.Warn("verification job failed", zap.Int("worker", n), zap.String("upload_id", id), zap.Error(err))
	}
}

// Enqueue never blocks; a full buffer returns ErrQueueFull.
func (q *MemoryQueue) Enqueue(_ context.Context, uploadID string) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return ErrQueueClosed
	}
	select {
	case q.jobs <- uploadID:
		return nil
	default:
		return ErrQueueFull
	}
}

// Close stops intake and waits for queued jobs to finish. When ctx ends
// first, running jobs are cancelled and ctx.Err() is returned.
func (q *MemoryQueue) Close(ctx context.Context) error {
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		close(q.jobs)
	}
	q.mu.Unlock()

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		q.cancel()
		return nil
	case <-ctx.Done():
		q.cancel()
		<-done
		return ctx.Err()
	}
}
