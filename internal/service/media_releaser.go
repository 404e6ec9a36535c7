package service

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/iconidentify/vidshare/internal/domain"
	"github.com/iconidentify/vidshare/internal/media"
	"github.com/iconidentify/vidshare/internal/repository"
)

// MediaReleaser removes stored assets that are no longer referenced.
// Failures never reach the caller: they are logged at error level and queued
// for the cleanup workers.
type MediaReleaser struct {
	store      media.Store
	jobs       repository.CleanupQueue
	maxAttempts int
	logger     *slog.Logger
}

// NewMediaReleaser creates a releaser. jobs may be nil, in which case
// failures are only logged.
func NewMediaReleaser(store media.Store, jobs repository.CleanupQueue, maxAttempts int, logger *slog.Logger) *MediaReleaser {
	return &MediaReleaser{
		store:      store,
		jobs:       jobs,
		maxAttempts: maxAttempts,
		logger:     logger,
	}
}

// Release removes every key concurrently and waits for all of them. It
// returns the keys whose removal failed.
func (r *MediaReleaser) Release(ctx context.Context, reason string, keys ...string) []string {
	// The owning record is already gone; finish even if the client left.
	ctx = context.WithoutCancel(ctx)

	var (
		mu     sync.Mutex
		failed []string
		g      errgroup.Group
	)
	for _, key := range keys {
		if key == "" {
			continue
		}
		key := key
		g.Go(func() error {
			if err := r.store.Remove(ctx, key); err != nil {
				r.logger.Error("media release failed",
					"key", key,
					"reason", reason,
					"error", err,
				)
				r.enqueue(ctx, key, reason)
				mu.Lock()
				failed = append(failed, key)
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()
	return failed
}

func (r *MediaReleaser) enqueue(ctx context.Context, key, reason string) {
	if r.jobs == nil {
		return
	}
	job := domain.NewCleanupJob(domain.JobID(uuid.NewString()), key, reason, r.maxAttempts)
	if err := r.jobs.Enqueue(ctx, job); err != nil {
		r.logger.Error("failed to queue media cleanup", "key", key, "error", err)
		return
	}
	r.logger.Info("queued media cleanup", "job_id", job.ID, "key", key)
}
