package domain

import "time"

// JobID identifies a queued media release.
type JobID string

func (id JobID) String() string { return string(id) }

// JobStatus is where a media release sits in the cleanup queue.
type JobStatus string

const (
	JobPending   JobStatus = "pending"
	JobRunning   JobStatus = "running"
	JobRetrying  JobStatus = "retrying"
	JobReleased  JobStatus = "released"
	JobAbandoned JobStatus = "abandoned"
)

// CleanupJob is a stored asset whose removal failed during a delete or a
// rollback and is retried in the background. Jobs are plain values: the
// queue hands out copies and applies every transition itself.
type CleanupJob struct {
	ID          JobID     `json:"id"`
	AssetKey    string    `json:"assetKey"`
	Reason      string    `json:"reason"`
	Status      JobStatus `json:"status"`
	Attempts    int       `json:"attempts"`
	MaxAttempts int       `json:"maxAttempts"`
	LastError   string    `json:"lastError,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// NewCleanupJob returns a pending release of assetKey that may run up to
// maxAttempts times.
func NewCleanupJob(id JobID, assetKey, reason string, maxAttempts int) CleanupJob {
	now := time.Now()
	return CleanupJob{
		ID:          id,
		AssetKey:    assetKey,
		Reason:      reason,
		Status:      JobPending,
		MaxAttempts: maxAttempts,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Runnable reports whether a worker may claim the job.
func (j CleanupJob) Runnable() bool {
	return j.Status == JobPending || j.Status == JobRetrying
}

// Claimed returns the job moved to running.
func (j CleanupJob) Claimed(at time.Time) CleanupJob {
	j.Status = JobRunning
	j.UpdatedAt = at
	return j
}

// Released returns the job marked done.
func (j CleanupJob) Released(at time.Time) CleanupJob {
	j.Status = JobReleased
	j.LastError = ""
	j.UpdatedAt = at
	return j
}

// Failed returns the job with one more failed attempt recorded. It goes back
// to retrying until MaxAttempts is spent, then it is abandoned.
func (j CleanupJob) Failed(reason string, at time.Time) CleanupJob {
	j.Attempts++
	j.LastError = reason
	j.UpdatedAt = at
	if j.Attempts < j.MaxAttempts {
		j.Status = JobRetrying
	} else {
		j.Status = JobAbandoned
	}
	return j
}
