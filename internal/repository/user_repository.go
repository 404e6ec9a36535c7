package repository

import (
	"context"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/iconidentify/vidshare/internal/domain"
)

// MongoUserRepository implements UserRepository.
type MongoUserRepository struct {
	coll    *mongo.Collection
	timeout time.Duration
}

// NewMongoUserRepository creates a user repository.
func NewMongoUserRepository(db *mongo.Database, timeout time.Duration) *MongoUserRepository {
	return &MongoUserRepository{
		coll:    db.Collection(UsersCollection),
		timeout: timeout,
	}
}

// Create inserts a user. Username and email are stored lower-cased.
func (r *MongoUserRepository) Create(ctx context.Context, user *domain.User) error {
	ctx, cancel := timeoutCtx(ctx, r.timeout)
	defer cancel()

	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	user.Username = strings.ToLower(user.Username)
	user.Email = strings.ToLower(user.Email)
	now := time.Now().UTC()
	user.CreatedAt, user.UpdatedAt = now, now

	if _, err := r.coll.InsertOne(ctx, user); err != nil {
		return wrapErr("insert user", err)
	}
	return nil
}

func (r *MongoUserRepository) Exists(ctx context.Context, username, email string) (bool, error) {
	ctx, cancel := timeoutCtx(ctx, r.timeout)
	defer cancel()

	n, err := r.coll.CountDocuments(ctx, loginFilter(username, email))
	if err != nil {
		return false, wrapErr("check user", err)
	}
	return n > 0, nil
}

func (r *MongoUserRepository) FindByLogin(ctx context.Context, identifier string) (*domain.User, error) {
	ctx, cancel := timeoutCtx(ctx, r.timeout)
	defer cancel()

	var u domain.User
	if err := r.coll.FindOne(ctx, loginFilter(identifier, identifier)).Decode(&u); err != nil {
		return nil, wrapErr("find user", err)
	}
	return &u, nil
}

func (r *MongoUserRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error) {
	ctx, cancel := timeoutCtx(ctx, r.timeout)
	defer cancel()

	var u domain.User
	if err := r.coll.FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&u); err != nil {
		return nil, wrapErr("find user", err)
	}
	return &u, nil
}

func loginFilter(username, email string) bson.D {
	return bson.D{{Key: "$or", Value: bson.A{
		bson.D{{Key: "username", Value: strings.ToLower(strings.TrimSpace(username))}},
		bson.D{{Key: "email", Value: strings.ToLower(strings.TrimSpace(email))}},
	}}}
}
