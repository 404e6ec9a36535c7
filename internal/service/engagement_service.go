package service

import (
	"context"
	"log/slog"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/sync/errgroup"

	"github.com/iconidentify/vidshare/internal/domain"
	"github.com/iconidentify/vidshare/internal/query"
	"github.com/iconidentify/vidshare/internal/repository"
)

// CommentService handles comments on videos.
type CommentService struct {
	comments repository.CommentRepository
	listing  query.Options
	logger   *slog.Logger
}

// NewCommentService creates a new comment service.
func NewCommentService(comments repository.CommentRepository, listing query.Options, logger *slog.Logger) *CommentService {
	return &CommentService{comments: comments, listing: listing, logger: logger}
}

// Add comments on a video.
func (s *CommentService) Add(ctx context.Context, owner primitive.ObjectID, videoID, content string) (*domain.Comment, error) {
	video, err := query.ParseID("videoId", videoID)
	if err != nil {
		return nil, err
	}
	content = strings.TrimSpace(content)
	if err := domain.RequireFields(map[string]string{"content": content}, "content"); err != nil {
		return nil, err
	}

	c := &domain.Comment{Content: content, Video: video, Owner: owner}
	if err := s.comments.Create(ctx, c); err != nil {
		return nil, err
	}
	s.logger.Debug("comment added", "comment_id", c.ID.Hex(), "video_id", video.Hex())
	return c, nil
}

// ListForVideo returns a page of comments, newest first.
func (s *CommentService) ListForVideo(ctx context.Context, videoID, page, limit string) (*domain.Page[domain.CommentSummary], error) {
	video, err := query.ParseID("videoId", videoID)
	if err != nil {
		return nil, err
	}
	p := query.ParsePagination(page, limit, s.listing)

	var (
		items []domain.CommentSummary
		total int64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		items, err = s.comments.ListByVideo(gctx, video, p)
		return err
	})
	g.Go(func() error {
		var err error
		total, err = s.comments.CountByVideo(gctx, video)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, asDependency("persistence", "list comments", err)
	}
	return domain.NewPage(items, p.Page, p.Limit, total), nil
}

// Update edits a comment owned by owner.
func (s *CommentService) Update(ctx context.Context, owner primitive.ObjectID, commentID, content string) (*domain.Comment, error) {
	id, err := query.ParseID("commentId", commentID)
	if err != nil {
		return nil, err
	}
	content = strings.TrimSpace(content)
	if err := domain.RequireFields(map[string]string{"content": content}, "content"); err != nil {
		return nil, err
	}
	return s.comments.UpdateOwned(ctx, id, owner, content)
}

// Delete removes a comment owned by owner.
func (s *CommentService) Delete(ctx context.Context, owner primitive.ObjectID, commentID string) (*domain.Comment, error) {
	id, err := query.ParseID("commentId", commentID)
	if err != nil {
		return nil, err
	}
	return s.comments.DeleteOwned(ctx, id, owner)
}

// LikeService toggles likes.
type LikeService struct {
	likes  repository.LikeRepository
	logger *slog.Logger
}

// NewLikeService creates a new like service.
func NewLikeService(likes repository.LikeRepository, logger *slog.Logger) *LikeService {
	return &LikeService{likes: likes, logger: logger}
}

// Toggle likes or unlikes the target and reports the resulting state.
func (s *LikeService) Toggle(ctx context.Context, user primitive.ObjectID, kind domain.LikeTargetKind, targetID string) (bool, error) {
	if !kind.Valid() {
		return false, domain.NewValidationError("target", "unknown like target "+string(kind))
	}
	id, err := query.ParseID(string(kind)+"Id", targetID)
	if err != nil {
		return false, err
	}

	liked, err := s.likes.Toggle(ctx, domain.LikeTarget{Kind: kind, ID: id}, user)
	if err != nil {
		return false, err
	}
	s.logger.Debug("like toggled", "kind", kind, "target", id.Hex(), "liked", liked)
	return liked, nil
}
