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

// MongoCommentRepository implements CommentRepository.
type MongoCommentRepository struct {
	coll    *mongo.Collection
	timeout time.Duration
}

// NewMongoCommentRepository creates a comment repository.
func NewMongoCommentRepository(db *mongo.Database, timeout time.Duration) *MongoCommentRepository {
	return &MongoCommentRepository{
		coll:    db.Collection(CommentsCollection),
		timeout: timeout,
	}
}

func (r *MongoCommentRepository) Create(ctx context.Context, comment *domain.Comment) error {
	ctx, cancel := timeoutCtx(ctx, r.timeout)
	defer cancel()

	if comment.ID.IsZero() {
		comment.ID = primitive.NewObjectID()
	}
	now := time.Now().UTC()
	comment.CreatedAt, comment.UpdatedAt = now, now

	if _, err := r.coll.InsertOne(ctx, comment); err != nil {
		return wrapErr("insert comment", err)
	}
	return nil
}

func (r *MongoCommentRepository) ListByVideo(ctx context.Context, video primitive.ObjectID, page query.Pagination) ([]domain.CommentSummary, error) {
	ctx, cancel := timeoutCtx(ctx, r.timeout)
	defer cancel()

	cur, err := r.coll.Aggregate(ctx, newestFirst(bson.D{{Key: "video", Value: video}}, page))
	if err != nil {
		return nil, wrapErr("list comments", err)
	}
	defer cur.Close(ctx)

	return decodeAll[domain.CommentSummary](ctx, cur, "decode comments")
}

func (r *MongoCommentRepository) CountByVideo(ctx context.Context, video primitive.ObjectID) (int64, error) {
	ctx, cancel := timeoutCtx(ctx, r.timeout)
	defer cancel()

	n, err := r.coll.CountDocuments(ctx, bson.D{{Key: "video", Value: video}})
	if err != nil {
		return 0, wrapErr("count comments", err)
	}
	return n, nil
}

func (r *MongoCommentRepository) UpdateOwned(ctx context.Context, id, owner primitive.ObjectID, content string) (*domain.Comment, error) {
	ctx, cancel := timeoutCtx(ctx, r.timeout)
	defer cancel()

	update := bson.D{{Key: "$set", Value: bson.D{
		{Key: "content", Value: content},
		{Key: "updatedAt", Value: time.Now().UTC()},
	}}}

	var c domain.Comment
	if err := r.coll.FindOneAndUpdate(ctx, ownedBy(id, owner), update, after()).Decode(&c); err != nil {
		return nil, wrapErr("update comment", err)
	}
	return &c, nil
}

func (r *MongoCommentRepository) DeleteOwned(ctx context.Context, id, owner primitive.ObjectID) (*domain.Comment, error) {
	ctx, cancel := timeoutCtx(ctx, r.timeout)
	defer cancel()

	var c domain.Comment
	if err := r.coll.FindOneAndDelete(ctx, ownedBy(id, owner)).Decode(&c); err != nil {
		return nil, wrapErr("delete comment", err)
	}
	return &c, nil
}
