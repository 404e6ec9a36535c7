package worker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/iconidentify/vidshare/internal/domain"
	"github.com/iconidentify/vidshare/internal/repository"
)

// ErrShutdownTimeout is returned when workers don't stop within timeout.
var ErrShutdownTimeout = errors.New("worker pool shutdown timed out")

// Remover deletes a stored media object by key.
type Remover interface {
	Remove(ctx context.Context, key string) error
}

// Pruner drops released jobs from a queue.
type Pruner interface {
	Prune() int
}

// Pool manages a pool of workers that retry failed media releases.
type Pool struct {
	workers      int
	pollInterval time.Duration
	retry        RetryConfig
	queue        repository.CleanupQueue
	store        Remover
	logger       *slog.Logger

	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
}

// Config holds worker pool configuration.
type Config struct {
	Workers      int
	PollInterval time.Duration
	// Retry bounds the attempts made for a job each time it is claimed.
	Retry RetryConfig
}

// NewPool creates a new worker pool.
func NewPool(
	cfg Config,
	queue repository.CleanupQueue,
	store Remover,
	logger *slog.Logger,
) *Pool {
	if cfg.Workers <= 0 {
		cfg.Workers = 2
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 5 * time.Second
	}
	if cfg.Retry.MaxAttempts <= 0 {
		cfg.Retry = DefaultRetryConfig()
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Pool{
		workers:      cfg.Workers,
		pollInterval: cfg.PollInterval,
		retry:        cfg.Retry,
		queue:        queue,
		store:        store,
		logger:       logger,
		ctx:          ctx,
		cancel:       cancel,
	}
}

// Start launches all workers.
func (p *Pool) Start() {
	p.logger.Info("starting cleanup worker pool", "workers", p.workers)

	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
}

// Stop gracefully stops all workers.
func (p *Pool) Stop(timeout time.Duration) error {
	p.logger.Info("stopping cleanup worker pool")
	p.cancel()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.logger.Info("cleanup worker pool stopped gracefully")
		return nil
	case <-time.After(timeout):
		return ErrShutdownTimeout
	}
}

func (p *Pool) worker(id int) {
	defer p.wg.Done()

	logger := p.logger.With("worker_id", id)
	logger.Debug("worker started")

	ticker := time.NewTicker(p.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-p.ctx.Done():
			logger.Debug("worker stopping")
			return
		case <-ticker.C:
			// Drain whatever is queued before sleeping again.
			for p.processNextJob(logger) {
				if p.ctx.Err() != nil {
					return
				}
			}
			if id == 0 {
				p.prune(logger)
			}
		}
	}
}

// processNextJob handles one job and reports whether the worker should
// move straight on to the next one.
func (p *Pool) processNextJob(logger *slog.Logger) bool {
	job, err := p.queue.Claim(p.ctx)
	if err != nil {
		if !errors.Is(err, domain.ErrNoJobs) {
			logger.Error("failed to claim cleanup job", "error", err)
		}
		return false
	}

	logger = logger.With("job_id", job.ID, "key", job.AssetKey)
	logger.Debug("processing cleanup job", "reason", job.Reason, "attempt", job.Attempts+1)

	err = RetryWithCheck(p.ctx, p.retry, func() error {
		return p.store.Remove(p.ctx, job.AssetKey)
	}, func(err error) bool {
		return !errors.Is(err, context.Canceled)
	})
	if err != nil {
		// Stop draining so a retried job waits for the next tick.
		p.recordFailure(logger, job.ID, err)
		return false
	}

	if err := p.queue.Complete(p.ctx, job.ID); err != nil {
		logger.Error("failed to mark cleanup job released", "error", err)
		return false
	}
	logger.Info("media released")
	return true
}

func (p *Pool) recordFailure(logger *slog.Logger, id domain.JobID, cause error) {
	job, err := p.queue.Fail(p.ctx, id, cause.Error())
	if err != nil {
		logger.Error("failed to record cleanup failure", "error", err, "cause", cause)
		return
	}
	if job.Status == domain.JobAbandoned {
		logger.Error("media release abandoned",
			"error", cause,
			"attempts", job.Attempts,
		)
		return
	}
	logger.Warn("media release failed, will retry",
		"error", cause,
		"attempt", job.Attempts,
		"max_attempts", job.MaxAttempts,
	)
}

func (p *Pool) prune(logger *slog.Logger) {
	pr, ok := p.queue.(Pruner)
	if !ok {
		return
	}
	if n := pr.Prune(); n > 0 {
		logger.Debug("pruned finished cleanup jobs", "count", n)
	}
}
