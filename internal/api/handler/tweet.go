package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/iconidentify/vidshare/internal/domain"
)

// TweetService is the tweet behavior the handler needs.
type TweetService interface {
	Create(ctx context.Context, owner primitive.ObjectID, title, content string) (*domain.Tweet, error)
	ListByUser(ctx context.Context, userID, page, limit string) (*domain.Page[domain.TweetSummary], error)
	Update(ctx context.Context, owner primitive.ObjectID, tweetID string, title *string, content string) (*domain.Tweet, error)
	Delete(ctx context.Context, owner primitive.ObjectID, tweetID string) (*domain.Tweet, error)
}

// TweetHandler handles tweet endpoints.
type TweetHandler struct {
	tweetSvc TweetService
	logger   *slog.Logger
}

// NewTweetHandler creates a new tweet handler.
func NewTweetHandler(tweetSvc TweetService, logger *slog.Logger) *TweetHandler {
	return &TweetHandler{tweetSvc: tweetSvc, logger: logger}
}

type tweetRequest struct {
	Title   *string `json:"title"`
	Content string  `json:"content"`
}

// Create handles POST /api/v1/tweets
func (h *TweetHandler) Create(w http.ResponseWriter, r *http.Request) {
	owner, err := requireUser(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	var req tweetRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	title := ""
	if req.Title != nil {
		title = *req.Title
	}
	tweet, err := h.tweetSvc.Create(r.Context(), owner, title, req.Content)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, tweet, "Tweet created successfully")
}

// ListByUser handles GET /api/v1/tweets/user/{userID}
func (h *TweetHandler) ListByUser(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, err := h.tweetSvc.ListByUser(r.Context(), chi.URLParam(r, "userID"), q.Get("page"), q.Get("limit"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, page, "Tweets fetched successfully")
}

// Update handles PATCH /api/v1/tweets/{tweetID}
func (h *TweetHandler) Update(w http.ResponseWriter, r *http.Request) {
	owner, err := requireUser(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	var req tweetRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	tweet, err := h.tweetSvc.Update(r.Context(), owner, chi.URLParam(r, "tweetID"), req.Title, req.Content)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, tweet, "Tweet updated successfully")
}

// Delete handles DELETE /api/v1/tweets/{tweetID}
func (h *TweetHandler) Delete(w http.ResponseWriter, r *http.Request) {
	owner, err := requireUser(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	tweet, err := h.tweetSvc.Delete(r.Context(), owner, chi.URLParam(r, "tweetID"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"_id": tweet.ID}, "Tweet deleted successfully")
}
