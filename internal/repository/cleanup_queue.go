package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/iconidentify/vidshare/internal/domain"
)

// MemoryCleanupQueue is a CleanupQueue held in process memory. Jobs do not
// survive a restart. Callers only ever see copies; all transitions happen
// under the queue's lock.
type MemoryCleanupQueue struct {
	mu    sync.RWMutex
	jobs  map[domain.JobID]domain.CleanupJob
	order []domain.JobID // runnable jobs, oldest first
	now   func() time.Time
}

// NewMemoryCleanupQueue returns an empty queue.
func NewMemoryCleanupQueue() *MemoryCleanupQueue {
	return &MemoryCleanupQueue{
		jobs: make(map[domain.JobID]domain.CleanupJob),
		now:  time.Now,
	}
}

func (q *MemoryCleanupQueue) Enqueue(ctx context.Context, job domain.CleanupJob) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if _, exists := q.jobs[job.ID]; exists {
		return domain.NewConflictError("cleanup job " + job.ID.String() + " already queued")
	}
	q.jobs[job.ID] = job
	if job.Runnable() {
		q.order = append(q.order, job.ID)
	}
	return nil
}

func (q *MemoryCleanupQueue) Claim(ctx context.Context) (domain.CleanupJob, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for len(q.order) > 0 {
		id := q.order[0]
		q.order = q.order[1:]

		job, ok := q.jobs[id]
		if !ok || !job.Runnable() {
			continue
		}
		job = job.Claimed(q.now())
		q.jobs[id] = job
		return job, nil
	}
	return domain.CleanupJob{}, domain.ErrNoJobs
}

func (q *MemoryCleanupQueue) Complete(ctx context.Context, id domain.JobID) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	job, ok := q.jobs[id]
	if !ok {
		return domain.ErrJobNotFound
	}
	q.jobs[id] = job.Released(q.now())
	return nil
}

func (q *MemoryCleanupQueue) Fail(ctx context.Context, id domain.JobID, reason string) (domain.CleanupJob, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	job, ok := q.jobs[id]
	if !ok {
		return domain.CleanupJob{}, domain.ErrJobNotFound
	}
	job = job.Failed(reason, q.now())
	q.jobs[id] = job
	if job.Runnable() {
		q.order = append(q.order, id)
	}
	return job, nil
}

func (q *MemoryCleanupQueue) Get(ctx context.Context, id domain.JobID) (domain.CleanupJob, error) {
	q.mu.RLock()
	defer q.mu.RUnlock()

	job, ok := q.jobs[id]
	if !ok {
		return domain.CleanupJob{}, domain.ErrJobNotFound
	}
	return job, nil
}

func (q *MemoryCleanupQueue) Pending(ctx context.Context) ([]domain.CleanupJob, error) {
	q.mu.RLock()
	defer q.mu.RUnlock()

	pending := make([]domain.CleanupJob, 0)
	for _, job := range q.jobs {
		if job.Runnable() || job.Status == domain.JobRunning {
			pending = append(pending, job)
		}
	}
	sort.Slice(pending, func(i, j int) bool {
		a, b := pending[i], pending[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})
	return pending, nil
}

func (q *MemoryCleanupQueue) Stats(ctx context.Context) (*QueueStats, error) {
	q.mu.RLock()
	defer q.mu.RUnlock()

	stats := &QueueStats{}
	for _, job := range q.jobs {
		switch job.Status {
		case domain.JobPending:
			stats.Pending++
		case domain.JobRunning:
			stats.Running++
		case domain.JobRetrying:
			stats.Retrying++
		case domain.JobReleased:
			stats.Released++
		case domain.JobAbandoned:
			stats.Abandoned++
		}
	}
	return stats, nil
}

// Prune forgets released jobs and returns how many went. Abandoned jobs stay
// visible in /stats until the process restarts.
func (q *MemoryCleanupQueue) Prune() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	n := 0
	for id, job := range q.jobs {
		if job.Status == domain.JobReleased {
			delete(q.jobs, id)
			n++
		}
	}
	return n
}
