package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/iconidentify/vidshare/internal/domain"
	"github.com/iconidentify/vidshare/internal/query"
)

// VideoRepository handles video persistence.
type VideoRepository interface {
	// List returns one page of published videos with owners joined.
	List(ctx context.Context, plan *query.Plan) ([]domain.VideoSummary, error)

	// Count returns the number of videos matching the plan's filter.
	Count(ctx context.Context, plan *query.Plan) (int64, error)

	// Create inserts a video and sets its ID.
	Create(ctx context.Context, video *domain.Video) error

	// View returns a video visible to viewer (published, or owned by viewer)
	// and increments its view count.
	View(ctx context.Context, id primitive.ObjectID, viewer *primitive.ObjectID) (*domain.Video, error)

	// UpdateOwned applies patch to a video owned by owner and returns the
	// document as it was before the update.
	UpdateOwned(ctx context.Context, id, owner primitive.ObjectID, patch domain.VideoPatch) (*domain.Video, error)

	// TogglePublish flips isPublished on a video owned by owner and returns
	// the updated document.
	TogglePublish(ctx context.Context, id, owner primitive.ObjectID) (*domain.Video, error)

	// DeleteOwned removes a video owned by owner and returns it.
	DeleteOwned(ctx context.Context, id, owner primitive.ObjectID) (*domain.Video, error)
}

// TweetRepository handles tweet persistence.
type TweetRepository interface {
	Create(ctx context.Context, tweet *domain.Tweet) error
	ListByOwner(ctx context.Context, owner primitive.ObjectID, page query.Pagination) ([]domain.TweetSummary, error)
	CountByOwner(ctx context.Context, owner primitive.ObjectID) (int64, error)
	UpdateOwned(ctx context.Context, id, owner primitive.ObjectID, title *string, content string) (*domain.Tweet, error)
	DeleteOwned(ctx context.Context, id, owner primitive.ObjectID) (*domain.Tweet, error)
}

// UserRepository handles account persistence.
type UserRepository interface {
	// Create inserts a user. Duplicate usernames or emails yield
	// domain.ErrConflict.
	Create(ctx context.Context, user *domain.User) error

	// Exists reports whether username or email is taken.
	Exists(ctx context.Context, username, email string) (bool, error)

	// FindByLogin finds a user by username or email.
	FindByLogin(ctx context.Context, identifier string) (*domain.User, error)

	FindByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error)
}

// CommentRepository handles comment persistence.
type CommentRepository interface {
	Create(ctx context.Context, comment *domain.Comment) error
	ListByVideo(ctx context.Context, video primitive.ObjectID, page query.Pagination) ([]domain.CommentSummary, error)
	CountByVideo(ctx context.Context, video primitive.ObjectID) (int64, error)
	UpdateOwned(ctx context.Context, id, owner primitive.ObjectID, content string) (*domain.Comment, error)
	DeleteOwned(ctx context.Context, id, owner primitive.ObjectID) (*domain.Comment, error)
}

// LikeRepository handles like persistence.
type LikeRepository interface {
	// Toggle removes the user's like on target if present, otherwise adds
	// it. It returns whether the target is liked afterwards.
	Toggle(ctx context.Context, target domain.LikeTarget, user primitive.ObjectID) (bool, error)
}

// CleanupQueue holds media releases waiting to be retried. Implementations
// return copies and apply state transitions atomically, so callers never
// share a job with a concurrent reader.
type CleanupQueue interface {
	// Enqueue adds a job. Duplicate IDs are a conflict.
	Enqueue(ctx context.Context, job domain.CleanupJob) error

	// Claim moves the oldest runnable job to running and returns it, or
	// domain.ErrNoJobs when nothing is waiting.
	Claim(ctx context.Context) (domain.CleanupJob, error)

	// Complete marks a claimed job released.
	Complete(ctx context.Context, id domain.JobID) error

	// Fail records a failed attempt and returns the job as stored. Jobs with
	// attempts left are requeued behind everything already waiting.
	Fail(ctx context.Context, id domain.JobID, reason string) (domain.CleanupJob, error)

	Get(ctx context.Context, id domain.JobID) (domain.CleanupJob, error)

	// Pending lists unfinished jobs, oldest first.
	Pending(ctx context.Context) ([]domain.CleanupJob, error)

	Stats(ctx context.Context) (*QueueStats, error)
}

// QueueStats counts cleanup jobs by status.
type QueueStats struct {
	Pending   int `json:"pending"`
	Running   int `json:"running"`
	Retrying  int `json:"retrying"`
	Released  int `json:"released"`
	Abandoned int `json:"abandoned"`
}
