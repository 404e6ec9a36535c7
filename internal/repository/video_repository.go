package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/iconidentify/vidshare/internal/domain"
	"github.com/iconidentify/vidshare/internal/query"
)

// MongoVideoRepository implements VideoRepository on a Mongo collection.
type MongoVideoRepository struct {
	coll    *mongo.Collection
	timeout time.Duration
}

// NewMongoVideoRepository creates a video repository.
func NewMongoVideoRepository(db *mongo.Database, timeout time.Duration) *MongoVideoRepository {
	return &MongoVideoRepository{
		coll:    db.Collection(VideosCollection),
		timeout: timeout,
	}
}

// List returns one page of published videos with owners joined.
func (r *MongoVideoRepository) List(ctx context.Context, plan *query.Plan) ([]domain.VideoSummary, error) {
	ctx, cancel := timeoutCtx(ctx, r.timeout)
	defer cancel()

	cur, err := r.coll.Aggregate(ctx, plan.Pipeline(UsersCollection))
	if err != nil {
		return nil, wrapErr("list videos", err)
	}
	defer cur.Close(ctx)

	return decodeAll[domain.VideoSummary](ctx, cur, "decode videos")
}

// Count returns the number of videos matching the plan's filter. It runs as
// a separate read, so it may disagree with List under concurrent writes.
func (r *MongoVideoRepository) Count(ctx context.Context, plan *query.Plan) (int64, error) {
	ctx, cancel := timeoutCtx(ctx, r.timeout)
	defer cancel()

	n, err := r.coll.CountDocuments(ctx, plan.Filter())
	if err != nil {
		return 0, wrapErr("count videos", err)
	}
	return n, nil
}

// Create inserts a video and sets its ID.
func (r *MongoVideoRepository) Create(ctx context.Context, video *domain.Video) error {
	ctx, cancel := timeoutCtx(ctx, r.timeout)
	defer cancel()

	if video.ID.IsZero() {
		video.ID = primitive.NewObjectID()
	}
	now := time.Now().UTC()
	video.CreatedAt, video.UpdatedAt = now, now

	if _, err := r.coll.InsertOne(ctx, video); err != nil {
		return wrapErr("insert video", err)
	}
	return nil
}

// View returns a video visible to viewer and increments its view count.
func (r *MongoVideoRepository) View(ctx context.Context, id primitive.ObjectID, viewer *primitive.ObjectID) (*domain.Video, error) {
	ctx, cancel := timeoutCtx(ctx, r.timeout)
	defer cancel()

	visible := bson.A{bson.D{{Key: "isPublished", Value: true}}}
	if viewer != nil {
		visible = append(visible, bson.D{{Key: "owner", Value: *viewer}})
	}
	filter := bson.D{{Key: "_id", Value: id}, {Key: "$or", Value: visible}}
	update := bson.D{{Key: "$inc", Value: bson.D{{Key: "views", Value: 1}}}}

	var v domain.Video
	if err := r.coll.FindOneAndUpdate(ctx, filter, update, after()).Decode(&v); err != nil {
		return nil, wrapErr("view video", err)
	}
	return &v, nil
}

// UpdateOwned applies patch and returns the document as it was before.
func (r *MongoVideoRepository) UpdateOwned(ctx context.Context, id, owner primitive.ObjectID, patch domain.VideoPatch) (*domain.Video, error) {
	ctx, cancel := timeoutCtx(ctx, r.timeout)
	defer cancel()

	set := bson.D{{Key: "updatedAt", Value: time.Now().UTC()}}
	if patch.Title != nil {
		set = append(set, bson.E{Key: "title", Value: *patch.Title})
	}
	if patch.Description != nil {
		set = append(set, bson.E{Key: "description", Value: *patch.Description})
	}
	if patch.Thumbnail != nil {
		set = append(set, bson.E{Key: "thumbnail", Value: *patch.Thumbnail})
	}
	if patch.ThumbnailKey != nil {
		set = append(set, bson.E{Key: "thumbnailKey", Value: *patch.ThumbnailKey})
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.Before)
	var prev domain.Video
	err := r.coll.FindOneAndUpdate(ctx, ownedBy(id, owner), bson.D{{Key: "$set", Value: set}}, opts).Decode(&prev)
	if err != nil {
		return nil, wrapErr("update video", err)
	}
	return &prev, nil
}

// TogglePublish flips isPublished in a single atomic update.
func (r *MongoVideoRepository) TogglePublish(ctx context.Context, id, owner primitive.ObjectID) (*domain.Video, error) {
	ctx, cancel := timeoutCtx(ctx, r.timeout)
	defer cancel()

	update := mongo.Pipeline{
		{{Key: "$set", Value: bson.D{
			{Key: "isPublished", Value: bson.D{{Key: "$not", Value: bson.A{"$isPublished"}}}},
			{Key: "updatedAt", Value: time.Now().UTC()},
		}}},
	}

	var v domain.Video
	if err := r.coll.FindOneAndUpdate(ctx, ownedBy(id, owner), update, after()).Decode(&v); err != nil {
		return nil, wrapErr("toggle publish", err)
	}
	return &v, nil
}

// DeleteOwned removes a video owned by owner and returns it.
func (r *MongoVideoRepository) DeleteOwned(ctx context.Context, id, owner primitive.ObjectID) (*domain.Video, error) {
	ctx, cancel := timeoutCtx(ctx, r.timeout)
	defer cancel()

	var v domain.Video
	if err := r.coll.FindOneAndDelete(ctx, ownedBy(id, owner)).Decode(&v); err != nil {
		return nil, wrapErr("delete video", err)
	}
	return &v, nil
}

func ownedBy(id, owner primitive.ObjectID) bson.D {
	return bson.D{{Key: "_id", Value: id}, {Key: "owner", Value: owner}}
}
