// Package worker runs verifications: one owner per upload id, either inline
// or from a background queue.
package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/yash-flix/VeriDoc-Ai/models"
	"github.com/yash-flix/VeriDoc-Ai/repository"
)

const DefaultLockTTL = 10 * time.Minute

// Store loads uploads and saves results. *repository.UploadRepo satisfies it.
type Store interface {
	Get(ctx context.Context, id string) (*models.Upload, error)
	UpdateResult(ctx context.Context, id string, res models.VerificationResult, perceptualHash string) error
}

// Verifier produces a result for an upload. It must not fail.
type Verifier interface {
	Verify(ctx context.Context, u *models.Upload) models.VerificationResult
}

// Runner executes one verification pass per call while holding the
// upload's lock.
type Runner struct {
	store    Store
	verifier Verifier
	locker   Locker
	lockTTL  time.Duration
	logger   *zap.Logger
}

func NewRunner(store Store, verifier Verifier, locker Locker, lockTTL time.Duration, logger *zap.Logger) *Runner {
	if locker == nil {
		locker = NewMemoryLocker()
	}
	if lockTTL <= 0 {
		lockTTL = DefaultLockTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{store: store, verifier: verifier, locker: locker, lockTTL: lockTTL, logger: logger}
}

// Run verifies the upload and stores the result in place. It returns
// ErrInFlight when another run owns the id and repository.ErrNotFound for
// unknown ids. The run is bounded by the lock TTL.
func (r *Runner) Run(ctx context.Context, id string) (*models.Upload, error) {
	release, err := r.locker.Acquire(ctx, id, r.lockTTL)
	if err != nil {
		return nil, err
	}
	defer release()

	ctx, cancel := context.WithTimeout(ctx, r.lockTTL)
	defer cancel()

	u, err := r.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	res := r.verifier.Verify(ctx, u)
	if ctx.Err() != nil {
		// a cancelled run keeps the previous result
		return nil, fmt.Errorf("verify %s: %w", id, ctx.Err())
	}
	if err := r.store.UpdateResult(ctx, id, res, u.PerceptualHash); err != nil {
		return nil, err
	}
	u.Result = res
	r.logger.Info("verification stored",
		zap.String("upload_id", id),
		zap.String("status", string(res.Status)),
		zap.Duration("took", time.Since(start)))
	return u, nil
}

// Override stores a manual verdict. It shares the upload's lock so a
// running verification cannot overwrite it afterwards.
func (r *Runner) Override(ctx context.Context, id string, res models.VerificationResult) (*models.Upload, error) {
	release, err := r.locker.Acquire(ctx, id, r.lockTTL)
	if err != nil {
		return nil, err
	}
	defer release()

	u, err := r.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := r.store.UpdateResult(ctx, id, res, ""); err != nil {
		return nil, err
	}
	u.Result = res
	r.logger.Info("manual verdict stored", zap.String("upload_id", id), zap.String("status", string(res.Status)))
	return u, nil
}

// Process is the queue entry point. Duplicate triggers and vanished
// uploads are dropped rather than retried.
func (r *Runner) Process(ctx context.Context, id string) error {
	_, err := r.Run(ctx, id)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrInFlight):
		r.logger.Info("verification already running, dropping job", zap.String("upload_id", id))
		return nil
	case errors.Is(err, repository.ErrNotFound):
		r.logger.Warn("upload vanished before verification", zap.String("upload_id", id))
		return nil
	default:
		r.logger.Error("background verification failed", zap.String("upload_id", id), zap.Error(err))
		return err
	}
}
