package handler

import (
	"context"
	"log/slog"
	"mime"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"

	mw "github.com/iconidentify/vidshare/internal/api/middleware"
	"github.com/iconidentify/vidshare/internal/domain"
	"github.com/iconidentify/vidshare/internal/media"
	"github.com/iconidentify/vidshare/internal/query"
	"github.com/iconidentify/vidshare/internal/service"
)

// VideoService is the video behavior the handler needs.
type VideoService interface {
	List(ctx context.Context, params query.ListParams) (*domain.Page[domain.VideoSummary], error)
	Get(ctx context.Context, viewer *primitive.ObjectID, videoID string) (*domain.Video, error)
	Publish(ctx context.Context, owner primitive.ObjectID, in service.PublishInput) (*domain.Video, error)
	Update(ctx context.Context, owner primitive.ObjectID, videoID string, in service.UpdateInput) (*domain.Video, error)
	TogglePublish(ctx context.Context, owner primitive.ObjectID, videoID string) (*domain.Video, error)
	Delete(ctx context.Context, owner primitive.ObjectID, videoID string) (*domain.Video, error)
}

// VideoHandler handles video-related HTTP requests.
type VideoHandler struct {
	videoSvc VideoService
	uploads  Uploads
	logger   *slog.Logger
}

// NewVideoHandler creates a new video handler.
func NewVideoHandler(videoSvc VideoService, uploads Uploads, logger *slog.Logger) *VideoHandler {
	return &VideoHandler{
		videoSvc: videoSvc,
		uploads:  uploads,
		logger:   logger,
	}
}

// List handles GET /api/v1/videos
func (h *VideoHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, err := h.videoSvc.List(r.Context(), query.ListParams{
		Query:    q.Get("query"),
		SortBy:   q.Get("sortBy"),
		SortType: q.Get("sortType"),
		UserID:   q.Get("userId"),
		Page:     q.Get("page"),
		Limit:    q.Get("limit"),
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, page, "Videos fetched successfully")
}

// Get handles GET /api/v1/videos/{videoID}
func (h *VideoHandler) Get(w http.ResponseWriter, r *http.Request) {
	var viewer *primitive.ObjectID
	if id, ok := mw.UserID(r.Context()); ok {
		viewer = &id
	}

	video, err := h.videoSvc.Get(r.Context(), viewer, chi.URLParam(r, "videoID"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, video, "Video fetched successfully")
}

// Publish handles POST /api/v1/videos
func (h *VideoHandler) Publish(w http.ResponseWriter, r *http.Request) {
	owner, err := requireUser(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	staged, err := h.uploads.Stager.Stage(r,
		h.uploads.video("videoFile", true),
		h.uploads.image("thumbnail", media.KindThumbnail, true),
	)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	defer staged.Cleanup()

	in := service.PublishInput{
		Title:       staged.Value("title"),
		Description: staged.Value("description"),
		Video:       staged.File("videoFile"),
		Thumbnail:   staged.File("thumbnail"),
	}
	if staged.Has("isPublished") {
		b, err := strconv.ParseBool(staged.Value("isPublished"))
		if err != nil {
			writeError(w, h.logger, domain.NewValidationError("isPublished", "must be true or false"))
			return
		}
		in.IsPublished = &b
	}

	video, err := h.videoSvc.Publish(r.Context(), owner, in)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, video, "Video published successfully")
}

type updateVideoRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Update handles PATCH /api/v1/videos/{videoID}. It accepts multipart with
// an optional thumbnail, or a JSON body.
func (h *VideoHandler) Update(w http.ResponseWriter, r *http.Request) {
	owner, err := requireUser(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	var in service.UpdateInput
	if isMultipart(r) {
		staged, err := h.uploads.Stager.Stage(r, h.uploads.image("thumbnail", media.KindThumbnail, false))
		if err != nil {
			writeError(w, h.logger, err)
			return
		}
		defer staged.Cleanup()
		in = service.UpdateInput{
			Title:       staged.Value("title"),
			Description: staged.Value("description"),
			Thumbnail:   staged.File("thumbnail"),
		}
	} else {
		var req updateVideoRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, h.logger, err)
			return
		}
		in = service.UpdateInput{Title: req.Title, Description: req.Description}
	}

	video, err := h.videoSvc.Update(r.Context(), owner, chi.URLParam(r, "videoID"), in)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, video, "Video updated successfully")
}

// TogglePublish handles PATCH /api/v1/videos/{videoID}/toggle-publish
func (h *VideoHandler) TogglePublish(w http.ResponseWriter, r *http.Request) {
	owner, err := requireUser(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	video, err := h.videoSvc.TogglePublish(r.Context(), owner, chi.URLParam(r, "videoID"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, video, "Publish status toggled successfully")
}

// Delete handles DELETE /api/v1/videos/{videoID}
func (h *VideoHandler) Delete(w http.ResponseWriter, r *http.Request) {
	owner, err := requireUser(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	video, err := h.videoSvc.Delete(r.Context(), owner, chi.URLParam(r, "videoID"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"_id": video.ID}, "Video deleted successfully")
}

func isMultipart(r *http.Request) bool {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mt == "multipart/form-data"
}
