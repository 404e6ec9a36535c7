package handler

import (
	"context"
	"log/slog"
	"net/http"

	"go.mongodb.org/mongo-driver/bson/primitive"

	mw "github.com/iconidentify/vidshare/internal/api/middleware"
	"github.com/iconidentify/vidshare/internal/domain"
	"github.com/iconidentify/vidshare/internal/media"
	"github.com/iconidentify/vidshare/internal/service"
)

// UserService is the account behavior the handler needs.
type UserService interface {
	Register(ctx context.Context, in service.RegisterInput) (*domain.User, error)
	Login(ctx context.Context, identifier, password string) (*service.Session, error)
	Get(ctx context.Context, id primitive.ObjectID) (*domain.User, error)
}

// UserHandler handles registration, login and the current user.
type UserHandler struct {
	userSvc      UserService
	uploads      Uploads
	secureCookie bool
	logger       *slog.Logger
}

// NewUserHandler creates a new user handler. secureCookie marks the access
// token cookie Secure.
func NewUserHandler(userSvc UserService, uploads Uploads, secureCookie bool, logger *slog.Logger) *UserHandler {
	return &UserHandler{
		userSvc:      userSvc,
		uploads:      uploads,
		secureCookie: secureCookie,
		logger:       logger,
	}
}

// Register handles POST /api/v1/users/register
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	staged, err := h.uploads.Stager.Stage(r,
		h.uploads.image("avatar", media.KindAvatar, true),
		h.uploads.image("coverImage", media.KindCover, false),
	)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	defer staged.Cleanup()

	user, err := h.userSvc.Register(r.Context(), service.RegisterInput{
		Username:   staged.Value("username"),
		Email:      staged.Value("email"),
		FullName:   staged.Value("fullName"),
		Password:   staged.Value("password"),
		Avatar:     staged.File("avatar"),
		CoverImage: staged.File("coverImage"),
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, user, "User registered successfully")
}

type loginRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login handles POST /api/v1/users/login
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	identifier := req.Username
	if identifier == "" {
		identifier = req.Email
	}

	sess, err := h.userSvc.Login(r.Context(), identifier, req.Password)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     mw.AccessTokenCookie,
		Value:    sess.AccessToken,
		Path:     "/",
		Expires:  sess.ExpiresAt,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, sess, "User logged in successfully")
}

// Me handles GET /api/v1/users/me
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	id, err := requireUser(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	user, err := h.userSvc.Get(r.Context(), id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, user, "Current user fetched successfully")
}
