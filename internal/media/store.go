// Package media stores uploaded videos and images on object storage and
// releases them again.
package media

import (
	"context"
)

// Kind groups assets by purpose. It prefixes object keys.
type Kind string

const (
	KindVideo     Kind = "videos"
	KindThumbnail Kind = "thumbnails"
	KindAvatar    Kind = "avatars"
	KindCover     Kind = "covers"
)

// Upload describes a staged local file to be stored.
type Upload struct {
	Path        string
	ContentType string
	Kind        Kind
}

// Asset is a stored media object.
type Asset struct {
	URL         string
	Key         string
	Size        int64
	ContentType string
	// Duration is the playback length in seconds, zero for images or when
	// it could not be determined.
	Duration float64
}

// Store persists media files and removes them by key.
type Store interface {
	// Store uploads the file and returns its public location.
	Store(ctx context.Context, u Upload) (*Asset, error)

	// Remove deletes the object. Removing a missing key is not an error.
	Remove(ctx context.Context, key string) error
}

// DurationProber reads the playback length of a local video file.
type DurationProber interface {
	Duration(ctx context.Context, path string) (float64, error)
}
