package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/iconidentify/vidshare/internal/domain"
)

// CommentService is the comment behavior the handler needs.
type CommentService interface {
	Add(ctx context.Context, owner primitive.ObjectID, videoID, content string) (*domain.Comment, error)
	ListForVideo(ctx context.Context, videoID, page, limit string) (*domain.Page[domain.CommentSummary], error)
	Update(ctx context.Context, owner primitive.ObjectID, commentID, content string) (*domain.Comment, error)
	Delete(ctx context.Context, owner primitive.ObjectID, commentID string) (*domain.Comment, error)
}

// LikeService toggles likes.
type LikeService interface {
	Toggle(ctx context.Context, user primitive.ObjectID, kind domain.LikeTargetKind, targetID string) (bool, error)
}

// EngagementHandler handles comments and likes.
type EngagementHandler struct {
	comments CommentService
	likes    LikeService
	logger   *slog.Logger
}

// NewEngagementHandler creates a new engagement handler.
func NewEngagementHandler(comments CommentService, likes LikeService, logger *slog.Logger) *EngagementHandler {
	return &EngagementHandler{comments: comments, likes: likes, logger: logger}
}

type commentRequest struct {
	Content string `json:"content"`
}

// ListComments handles GET /api/v1/comments/{videoID}
func (h *EngagementHandler) ListComments(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, err := h.comments.ListForVideo(r.Context(), chi.URLParam(r, "videoID"), q.Get("page"), q.Get("limit"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, page, "Comments fetched successfully")
}

// AddComment handles POST /api/v1/comments/{videoID}
func (h *EngagementHandler) AddComment(w http.ResponseWriter, r *http.Request) {
	owner, err := requireUser(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	var req commentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	c, err := h.comments.Add(r.Context(), owner, chi.URLParam(r, "videoID"), req.Content)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, c, "Comment added successfully")
}

// UpdateComment handles PATCH /api/v1/comments/c/{commentID}
func (h *EngagementHandler) UpdateComment(w http.ResponseWriter, r *http.Request) {
	owner, err := requireUser(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	var req commentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	c, err := h.comments.Update(r.Context(), owner, chi.URLParam(r, "commentID"), req.Content)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, c, "Comment updated successfully")
}

// DeleteComment handles DELETE /api/v1/comments/c/{commentID}
func (h *EngagementHandler) DeleteComment(w http.ResponseWriter, r *http.Request) {
	owner, err := requireUser(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	c, err := h.comments.Delete(r.Context(), owner, chi.URLParam(r, "commentID"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"_id": c.ID}, "Comment deleted successfully")
}

// ToggleLike returns a handler for POST /api/v1/likes/toggle/{v,c,t}/{id}.
func (h *EngagementHandler) ToggleLike(kind domain.LikeTargetKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, err := requireUser(r)
		if err != nil {
			writeError(w, h.logger, err)
			return
		}

		liked, err := h.likes.Toggle(r.Context(), user, kind, chi.URLParam(r, "targetID"))
		if err != nil {
			writeError(w, h.logger, err)
			return
		}

		msg := "Like removed successfully"
		if liked {
			msg = "Liked successfully"
		}
		writeJSON(w, http.StatusOK, map[string]bool{"isLiked": liked}, msg)
	}
}
