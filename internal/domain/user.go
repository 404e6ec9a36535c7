package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User is a registered account.
type User struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Username      string             `bson:"username" json:"username"`
	Email         string             `bson:"email" json:"email"`
	FullName      string             `bson:"fullName" json:"fullName"`
	Avatar        string             `bson:"avatar" json:"avatar"`
	AvatarKey     string             `bson:"avatarKey" json:"-"`
	CoverImage    string             `bson:"coverImage,omitempty" json:"coverImage,omitempty"`
	CoverImageKey string             `bson:"coverImageKey,omitempty" json:"-"`
	PasswordHash  string             `bson:"passwordHash" json:"-"`
	CreatedAt     time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time          `bson:"updatedAt" json:"updatedAt"`
}
