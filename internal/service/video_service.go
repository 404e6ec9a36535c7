package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/sync/errgroup"

	"github.com/iconidentify/vidshare/internal/domain"
	"github.com/iconidentify/vidshare/internal/events"
	"github.com/iconidentify/vidshare/internal/media"
	"github.com/iconidentify/vidshare/internal/query"
	"github.com/iconidentify/vidshare/internal/repository"
	"github.com/iconidentify/vidshare/internal/upload"
)

// VideoService handles the video feed and owner-scoped video mutations.
type VideoService struct {
	videos   repository.VideoRepository
	store    media.Store
	releaser *MediaReleaser
	events   events.Publisher
	listing  query.Options
	logger   *slog.Logger
}

// NewVideoService creates a new video service.
func NewVideoService(
	videos repository.VideoRepository,
	store media.Store,
	releaser *MediaReleaser,
	pub events.Publisher,
	listing query.Options,
	logger *slog.Logger,
) *VideoService {
	return &VideoService{
		videos:   videos,
		store:    store,
		releaser: releaser,
		events:   pub,
		listing:  listing,
		logger:   logger,
	}
}

// List returns one page of the published video feed. Parameters are
// validated before the store is touched. The page and the total are two
// independent reads and may disagree under concurrent writes.
func (s *VideoService) List(ctx context.Context, params query.ListParams) (*domain.Page[domain.VideoSummary], error) {
	plan, err := query.Build(params, s.listing)
	if err != nil {
		return nil, err
	}

	var (
		items []domain.VideoSummary
		total int64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		items, err = s.videos.List(gctx, plan)
		return err
	})
	g.Go(func() error {
		var err error
		total, err = s.videos.Count(gctx, plan)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, asDependency("persistence", "list videos", err)
	}

	return domain.NewPage(items, plan.Page, plan.Limit, total), nil
}

// Get returns a single video and counts the view. Unpublished videos are
// only visible to their owner.
func (s *VideoService) Get(ctx context.Context, viewer *primitive.ObjectID, videoID string) (*domain.Video, error) {
	id, err := query.ParseID("videoId", videoID)
	if err != nil {
		return nil, err
	}
	return s.videos.View(ctx, id, viewer)
}

// PublishInput is a new video upload.
type PublishInput struct {
	Title       string
	Description string
	// IsPublished defaults to true when nil.
	IsPublished *bool
	Video       *upload.File
	Thumbnail   *upload.File
}

// Publish stores the video and thumbnail concurrently and records the
// video. Assets already stored are released again if any later step fails.
func (s *VideoService) Publish(ctx context.Context, owner primitive.ObjectID, in PublishInput) (*domain.Video, error) {
	title := strings.TrimSpace(in.Title)
	description := strings.TrimSpace(in.Description)
	if err := domain.RequireFields(map[string]string{
		"title":       title,
		"description": description,
	}, "title", "description"); err != nil {
		return nil, err
	}
	if in.Video == nil || in.Thumbnail == nil {
		return nil, &domain.ValidationError{
			Message: "both video and thumbnail files are required",
			Details: []string{"videoFile", "thumbnail"},
		}
	}

	videoAsset, thumbAsset, err := s.storePair(ctx, in.Video, in.Thumbnail)
	if err != nil {
		return nil, err
	}

	published := true
	if in.IsPublished != nil {
		published = *in.IsPublished
	}

	video := &domain.Video{
		VideoFile:    videoAsset.URL,
		VideoFileKey: videoAsset.Key,
		Thumbnail:    thumbAsset.URL,
		ThumbnailKey: thumbAsset.Key,
		Title:        title,
		Description:  description,
		Duration:     videoAsset.Duration,
		IsPublished:  published,
		Owner:        owner,
	}
	if err := s.videos.Create(ctx, video); err != nil {
		s.releaser.Release(ctx, "publish rollback", videoAsset.Key, thumbAsset.Key)
		return nil, err
	}

	s.logger.Info("video published",
		"video_id", video.ID.Hex(),
		"owner", owner.Hex(),
		"duration", video.Duration,
		"size", videoAsset.Size,
	)
	emit(ctx, s.events, s.logger, domain.NewEvent(domain.EventVideoPublished, video.ID.Hex(), owner.Hex()))
	return video, nil
}

func (s *VideoService) storePair(ctx context.Context, videoFile, thumbFile *upload.File) (*media.Asset, *media.Asset, error) {
	var videoAsset, thumbAsset *media.Asset
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a, err := s.store.Store(gctx, videoFile.Upload())
		videoAsset = a
		return err
	})
	g.Go(func() error {
		a, err := s.store.Store(gctx, thumbFile.Upload())
		thumbAsset = a
		return err
	})
	if err := g.Wait(); err != nil {
		s.releaser.Release(ctx, "publish rollback", assetKeys(videoAsset, thumbAsset)...)
		return nil, nil, asDependency("media", "upload", err)
	}
	return videoAsset, thumbAsset, nil
}

// UpdateInput changes a video's metadata and optionally its thumbnail.
type UpdateInput struct {
	Title       string
	Description string
	Thumbnail   *upload.File
}

// Update changes metadata of a video owned by owner. A replaced thumbnail
// is released after the update commits.
func (s *VideoService) Update(ctx context.Context, owner primitive.ObjectID, videoID string, in UpdateInput) (*domain.Video, error) {
	id, err := query.ParseID("videoId", videoID)
	if err != nil {
		return nil, err
	}
	title := strings.TrimSpace(in.Title)
	description := strings.TrimSpace(in.Description)
	if err := domain.RequireFields(map[string]string{
		"title":       title,
		"description": description,
	}, "title", "description"); err != nil {
		return nil, err
	}

	patch := domain.VideoPatch{Title: &title, Description: &description}

	var thumb *media.Asset
	if in.Thumbnail != nil {
		thumb, err = s.store.Store(ctx, in.Thumbnail.Upload())
		if err != nil {
			return nil, asDependency("media", "upload", err)
		}
		patch.Thumbnail = &thumb.URL
		patch.ThumbnailKey = &thumb.Key
	}

	prev, err := s.videos.UpdateOwned(ctx, id, owner, patch)
	if err != nil {
		if thumb != nil {
			s.releaser.Release(ctx, "update rollback", thumb.Key)
		}
		return nil, err
	}

	if thumb != nil && prev.ThumbnailKey != "" && prev.ThumbnailKey != thumb.Key {
		s.releaser.Release(ctx, "thumbnail replaced", prev.ThumbnailKey)
	}

	updated := prev.Apply(patch, time.Now().UTC())
	s.logger.Info("video updated", "video_id", id.Hex(), "thumbnail_replaced", thumb != nil)
	emit(ctx, s.events, s.logger, domain.NewEvent(domain.EventVideoUpdated, id.Hex(), owner.Hex()))
	return &updated, nil
}

// TogglePublish flips the published flag of a video owned by owner.
func (s *VideoService) TogglePublish(ctx context.Context, owner primitive.ObjectID, videoID string) (*domain.Video, error) {
	id, err := query.ParseID("videoId", videoID)
	if err != nil {
		return nil, err
	}

	video, err := s.videos.TogglePublish(ctx, id, owner)
	if err != nil {
		return nil, err
	}

	s.logger.Info("video visibility changed", "video_id", id.Hex(), "published", video.IsPublished)
	ev := domain.NewEvent(domain.EventVideoVisibilityChanged, id.Hex(), owner.Hex())
	ev.Attributes = map[string]string{"isPublished": boolString(video.IsPublished)}
	emit(ctx, s.events, s.logger, ev)
	return video, nil
}

// Delete removes a video owned by owner, then releases its media. Release
// failures are logged and queued for retry; they do not fail the delete.
func (s *VideoService) Delete(ctx context.Context, owner primitive.ObjectID, videoID string) (*domain.Video, error) {
	id, err := query.ParseID("videoId", videoID)
	if err != nil {
		return nil, err
	}

	video, err := s.videos.DeleteOwned(ctx, id, owner)
	if err != nil {
		return nil, err
	}

	failed := s.releaser.Release(ctx, "video delete", video.MediaKeys()...)
	s.logger.Info("video deleted", "video_id", id.Hex(), "media_release_failures", len(failed))
	emit(ctx, s.events, s.logger, domain.NewEvent(domain.EventVideoDeleted, id.Hex(), owner.Hex()))
	return video, nil
}

func boolString(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
