package service

import (
	"context"
	"log/slog"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/sync/errgroup"

	"github.com/iconidentify/vidshare/internal/domain"
	"github.com/iconidentify/vidshare/internal/events"
	"github.com/iconidentify/vidshare/internal/query"
	"github.com/iconidentify/vidshare/internal/repository"
)

// TweetService handles tweet business logic.
type TweetService struct {
	tweets  repository.TweetRepository
	events  events.Publisher
	listing query.Options
	logger  *slog.Logger
}

// NewTweetService creates a new tweet service.
func NewTweetService(
	tweets repository.TweetRepository,
	pub events.Publisher,
	listing query.Options,
	logger *slog.Logger,
) *TweetService {
	return &TweetService{
		tweets:  tweets,
		events:  pub,
		listing: listing,
		logger:  logger,
	}
}

// Create posts a tweet. Content is required, title is optional.
func (s *TweetService) Create(ctx context.Context, owner primitive.ObjectID, title, content string) (*domain.Tweet, error) {
	content = strings.TrimSpace(content)
	if err := domain.RequireFields(map[string]string{"content": content}, "content"); err != nil {
		return nil, err
	}

	tweet := &domain.Tweet{
		Title:   strings.TrimSpace(title),
		Content: content,
		Owner:   owner,
	}
	if err := s.tweets.Create(ctx, tweet); err != nil {
		return nil, err
	}

	s.logger.Info("tweet created", "tweet_id", tweet.ID.Hex(), "owner", owner.Hex())
	emit(ctx, s.events, s.logger, domain.NewEvent(domain.EventTweetCreated, tweet.ID.Hex(), owner.Hex()))
	return tweet, nil
}

// ListByUser returns a page of a user's tweets, newest first. A user with
// no tweets yields an empty page, not an error.
func (s *TweetService) ListByUser(ctx context.Context, userID, page, limit string) (*domain.Page[domain.TweetSummary], error) {
	owner, err := query.ParseID("userId", userID)
	if err != nil {
		return nil, err
	}
	p := query.ParsePagination(page, limit, s.listing)

	var (
		items []domain.TweetSummary
		total int64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		items, err = s.tweets.ListByOwner(gctx, owner, p)
		return err
	})
	g.Go(func() error {
		var err error
		total, err = s.tweets.CountByOwner(gctx, owner)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, asDependency("persistence", "list tweets", err)
	}

	return domain.NewPage(items, p.Page, p.Limit, total), nil
}

// Update replaces the content, and the title when given, of a tweet owned
// by owner.
func (s *TweetService) Update(ctx context.Context, owner primitive.ObjectID, tweetID string, title *string, content string) (*domain.Tweet, error) {
	id, err := query.ParseID("tweetId", tweetID)
	if err != nil {
		return nil, err
	}
	content = strings.TrimSpace(content)
	if err := domain.RequireFields(map[string]string{"content": content}, "content"); err != nil {
		return nil, err
	}

	tweet, err := s.tweets.UpdateOwned(ctx, id, owner, optionalText(title), content)
	if err != nil {
		return nil, err
	}

	s.logger.Info("tweet updated", "tweet_id", id.Hex())
	emit(ctx, s.events, s.logger, domain.NewEvent(domain.EventTweetUpdated, id.Hex(), owner.Hex()))
	return tweet, nil
}

// Delete removes a tweet owned by owner.
func (s *TweetService) Delete(ctx context.Context, owner primitive.ObjectID, tweetID string) (*domain.Tweet, error) {
	id, err := query.ParseID("tweetId", tweetID)
	if err != nil {
		return nil, err
	}

	tweet, err := s.tweets.DeleteOwned(ctx, id, owner)
	if err != nil {
		return nil, err
	}

	s.logger.Info("tweet deleted", "tweet_id", id.Hex())
	emit(ctx, s.events, s.logger, domain.NewEvent(domain.EventTweetDeleted, id.Hex(), owner.Hex()))
	return tweet, nil
}
