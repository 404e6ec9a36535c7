package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/iconidentify/vidshare/internal/domain"
)

// MongoLikeRepository implements LikeRepository.
type MongoLikeRepository struct {
	coll    *mongo.Collection
	timeout time.Duration
}

// NewMongoLikeRepository creates a like repository.
func NewMongoLikeRepository(db *mongo.Database, timeout time.Duration) *MongoLikeRepository {
	return &MongoLikeRepository{
		coll:    db.Collection(LikesCollection),
		timeout: timeout,
	}
}

// Toggle removes an existing like or inserts a new one. A concurrent insert
// losing the unique index race still reports the target as liked.
func (r *MongoLikeRepository) Toggle(ctx context.Context, target domain.LikeTarget, user primitive.ObjectID) (bool, error) {
	ctx, cancel := timeoutCtx(ctx, r.timeout)
	defer cancel()

	filter := bson.D{
		{Key: string(target.Kind), Value: target.ID},
		{Key: "likedBy", Value: user},
	}
	res, err := r.coll.DeleteOne(ctx, filter)
	if err != nil {
		return false, wrapErr("unlike", err)
	}
	if res.DeletedCount > 0 {
		return false, nil
	}

	if _, err := r.coll.InsertOne(ctx, domain.NewLike(target, user)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return true, nil
		}
		return false, wrapErr("like", err)
	}
	return true, nil
}
