package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Video is a published or draft video owned by a user.
type Video struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	VideoFile    string             `bson:"videoFile" json:"videoFile"`
	VideoFileKey string             `bson:"videoFileKey" json:"-"`
	Thumbnail    string             `bson:"thumbnail" json:"thumbnail"`
	ThumbnailKey string             `bson:"thumbnailKey" json:"-"`
	Title        string             `bson:"title" json:"title"`
	Description  string             `bson:"description" json:"description"`
	Duration     float64            `bson:"duration" json:"duration"`
	Views        int64              `bson:"views" json:"views"`
	IsPublished  bool               `bson:"isPublished" json:"isPublished"`
	Owner        primitive.ObjectID `bson:"owner" json:"owner"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// MediaKeys returns the non-empty asset keys held by the video.
func (v *Video) MediaKeys() []string {
	keys := make([]string, 0, 2)
	if v.VideoFileKey != "" {
		keys = append(keys, v.VideoFileKey)
	}
	if v.ThumbnailKey != "" {
		keys = append(keys, v.ThumbnailKey)
	}
	return keys
}

// VideoPatch holds the mutable fields of a video. Nil fields are left as is.
type VideoPatch struct {
	Title        *string
	Description  *string
	Thumbnail    *string
	ThumbnailKey *string
}

// Apply returns a copy of v with patch applied and UpdatedAt set to at.
func (v *Video) Apply(patch VideoPatch, at time.Time) Video {
	out := *v
	if patch.Title != nil {
		out.Title = *patch.Title
	}
	if patch.Description != nil {
		out.Description = *patch.Description
	}
	if patch.Thumbnail != nil {
		out.Thumbnail = *patch.Thumbnail
	}
	if patch.ThumbnailKey != nil {
		out.ThumbnailKey = *patch.ThumbnailKey
	}
	out.UpdatedAt = at
	return out
}

// VideoSummary is a listed video with its owner's public profile joined in.
// Owner is nil when the owning user no longer exists.
type VideoSummary struct {
	ID          primitive.ObjectID `bson:"_id" json:"_id"`
	VideoFile   string             `bson:"videoFile" json:"videoFile"`
	Thumbnail   string             `bson:"thumbnail" json:"thumbnail"`
	Title       string             `bson:"title" json:"title"`
	Description string             `bson:"description" json:"description"`
	Duration    float64            `bson:"duration" json:"duration"`
	Views       int64              `bson:"views" json:"views"`
	IsPublished bool               `bson:"isPublished" json:"isPublished"`
	Owner       *OwnerSummary      `bson:"ownerDetails" json:"owner"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// OwnerSummary is the public projection of a user attached to listings.
type OwnerSummary struct {
	ID       primitive.ObjectID `bson:"_id" json:"_id"`
	Username string             `bson:"username" json:"username"`
	FullName string             `bson:"fullName" json:"fullName"`
	Avatar   string             `bson:"avatar" json:"avatar"`
}
