package handler

import (
	"net/http"

	"github.com/iconidentify/vidshare/internal/config"
	"github.com/iconidentify/vidshare/internal/media"
	"github.com/iconidentify/vidshare/internal/upload"
)

// Stager stages multipart uploads on local disk.
type Stager interface {
	Stage(r *http.Request, fields ...upload.Field) (*upload.Staged, error)
}

// Uploads pairs a stager with the configured size limits.
type Uploads struct {
	Stager Stager
	Limits config.UploadConfig
}

var imageTypes = []string{"image/"}

func (u Uploads) video(name string, required bool) upload.Field {
	return upload.Field{
		Name:     name,
		Kind:     media.KindVideo,
		Required: required,
		MaxSize:  u.Limits.MaxVideoSize,
		Allowed:  []string{"video/"},
	}
}

func (u Uploads) image(name string, kind media.Kind, required bool) upload.Field {
	return upload.Field{
		Name:     name,
		Kind:     kind,
		Required: required,
		MaxSize:  u.Limits.MaxImageSize,
		Allowed:  imageTypes,
	}
}
