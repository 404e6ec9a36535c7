package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/iconidentify/vidshare/internal/domain"
	"github.com/iconidentify/vidshare/internal/query"
)

// MongoTweetRepository implements TweetRepository.
type MongoTweetRepository struct {
	coll    *mongo.Collection
	timeout time.Duration
}

// NewMongoTweetRepository creates a tweet repository.
func NewMongoTweetRepository(db *mongo.Database, timeout time.Duration) *MongoTweetRepository {
	return &MongoTweetRepository{
		coll:    db.Collection(TweetsCollection),
		timeout: timeout,
	}
}

func (r *MongoTweetRepository) Create(ctx context.Context, tweet *domain.Tweet) error {
	ctx, cancel := timeoutCtx(ctx, r.timeout)
	defer cancel()

	if tweet.ID.IsZero() {
		tweet.ID = primitive.NewObjectID()
	}
	now := time.Now().UTC()
	tweet.CreatedAt, tweet.UpdatedAt = now, now

	if _, err := r.coll.InsertOne(ctx, tweet); err != nil {
		return wrapErr("insert tweet", err)
	}
	return nil
}

func (r *MongoTweetRepository) ListByOwner(ctx context.Context, owner primitive.ObjectID, page query.Pagination) ([]domain.TweetSummary, error) {
	ctx, cancel := timeoutCtx(ctx, r.timeout)
	defer cancel()

	pipeline := newestFirst(bson.D{{Key: "owner", Value: owner}}, page)
	cur, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, wrapErr("list tweets", err)
	}
	defer cur.Close(ctx)

	return decodeAll[domain.TweetSummary](ctx, cur, "decode tweets")
}

func (r *MongoTweetRepository) CountByOwner(ctx context.Context, owner primitive.ObjectID) (int64, error) {
	ctx, cancel := timeoutCtx(ctx, r.timeout)
	defer cancel()

	n, err := r.coll.CountDocuments(ctx, bson.D{{Key: "owner", Value: owner}})
	if err != nil {
		return 0, wrapErr("count tweets", err)
	}
	return n, nil
}

func (r *MongoTweetRepository) UpdateOwned(ctx context.Context, id, owner primitive.ObjectID, title *string, content string) (*domain.Tweet, error) {
	ctx, cancel := timeoutCtx(ctx, r.timeout)
	defer cancel()

	set := bson.D{
		{Key: "content", Value: content},
		{Key: "updatedAt", Value: time.Now().UTC()},
	}
	if title != nil {
		set = append(set, bson.E{Key: "title", Value: *title})
	}

	var t domain.Tweet
	if err := r.coll.FindOneAndUpdate(ctx, ownedBy(id, owner), bson.D{{Key: "$set", Value: set}}, after()).Decode(&t); err != nil {
		return nil, wrapErr("update tweet", err)
	}
	return &t, nil
}

func (r *MongoTweetRepository) DeleteOwned(ctx context.Context, id, owner primitive.ObjectID) (*domain.Tweet, error) {
	ctx, cancel := timeoutCtx(ctx, r.timeout)
	defer cancel()

	var t domain.Tweet
	if err := r.coll.FindOneAndDelete(ctx, ownedBy(id, owner)).Decode(&t); err != nil {
		return nil, wrapErr("delete tweet", err)
	}
	return &t, nil
}

// newestFirst pages through match newest first, joining owners.
func newestFirst(match bson.D, page query.Pagination) mongo.Pipeline {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$sort", Value: bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}}},
		{{Key: "$skip", Value: page.Skip()}},
		{{Key: "$limit", Value: int64(page.Limit)}},
	}
	return append(pipeline, query.OwnerLookup(UsersCollection, "owner")...)
}
