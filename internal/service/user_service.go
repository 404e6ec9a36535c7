package service

import (
	"context"
	"errors"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/sync/errgroup"

	"github.com/iconidentify/vidshare/internal/auth"
	"github.com/iconidentify/vidshare/internal/domain"
	"github.com/iconidentify/vidshare/internal/events"
	"github.com/iconidentify/vidshare/internal/media"
	"github.com/iconidentify/vidshare/internal/repository"
	"github.com/iconidentify/vidshare/internal/upload"
)

var errUserTaken = domain.NewConflictError("user with this username or email already exists")

// TokenIssuer signs access tokens for users.
type TokenIssuer interface {
	Issue(user *domain.User) (string, time.Time, error)
}

// UserService handles registration and login.
type UserService struct {
	users    repository.UserRepository
	store    media.Store
	releaser *MediaReleaser
	hasher   *auth.Hasher
	tokens   TokenIssuer
	events   events.Publisher
	logger   *slog.Logger
}

// NewUserService creates a new user service.
func NewUserService(
	users repository.UserRepository,
	store media.Store,
	releaser *MediaReleaser,
	hasher *auth.Hasher,
	tokens TokenIssuer,
	pub events.Publisher,
	logger *slog.Logger,
) *UserService {
	return &UserService{
		users:    users,
		store:    store,
		releaser: releaser,
		hasher:   hasher,
		tokens:   tokens,
		events:   pub,
		logger:   logger,
	}
}

// RegisterInput is a new account.
type RegisterInput struct {
	Username   string
	Email      string
	FullName   string
	Password   string
	Avatar     *upload.File
	CoverImage *upload.File
}

// Register creates an account. The avatar is required; the cover image is
// optional. Both are stored concurrently.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*domain.User, error) {
	username := strings.ToLower(strings.TrimSpace(in.Username))
	email := strings.ToLower(strings.TrimSpace(in.Email))
	fullName := strings.TrimSpace(in.FullName)

	if err := domain.RequireFields(map[string]string{
		"username": username,
		"email":    email,
		"fullName": fullName,
		"password": in.Password,
	}, "username", "email", "fullName", "password"); err != nil {
		return nil, err
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, domain.NewValidationError("email", "invalid address")
	}
	if in.Avatar == nil {
		return nil, domain.NewValidationError("avatar", "avatar file is required")
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}

	taken, err := s.users.Exists(ctx, username, email)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, errUserTaken
	}

	var avatar, cover *media.Asset
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a, err := s.store.Store(gctx, in.Avatar.Upload())
		avatar = a
		return err
	})
	if in.CoverImage != nil {
		g.Go(func() error {
			a, err := s.store.Store(gctx, in.CoverImage.Upload())
			cover = a
			return err
		})
	}
	if err := g.Wait(); err != nil {
		s.releaser.Release(ctx, "register rollback", assetKeys(avatar, cover)...)
		return nil, asDependency("media", "upload", err)
	}

	user := &domain.User{
		Username:     username,
		Email:        email,
		FullName:     fullName,
		Avatar:       avatar.URL,
		AvatarKey:    avatar.Key,
		PasswordHash: hash,
	}
	if cover != nil {
		user.CoverImage = cover.URL
		user.CoverImageKey = cover.Key
	}

	if err := s.users.Create(ctx, user); err != nil {
		s.releaser.Release(ctx, "register rollback", assetKeys(avatar, cover)...)
		// Lost a race with a concurrent registration.
		if errors.Is(err, domain.ErrConflict) {
			return nil, errUserTaken
		}
		return nil, err
	}

	s.logger.Info("user registered", "user_id", user.ID.Hex(), "username", user.Username)
	emit(ctx, s.events, s.logger, domain.NewEvent(domain.EventUserRegistered, user.ID.Hex(), user.ID.Hex()))
	return user, nil
}

// Session is the result of a successful login.
type Session struct {
	User        *domain.User `json:"user"`
	AccessToken string       `json:"accessToken"`
	ExpiresAt   time.Time    `json:"expiresAt"`
}

// Login authenticates by username or email.
func (s *UserService) Login(ctx context.Context, identifier, password string) (*Session, error) {
	identifier = strings.TrimSpace(identifier)
	if err := domain.RequireFields(map[string]string{
		"username": identifier,
		"password": password,
	}, "username", "password"); err != nil {
		return nil, err
	}

	user, err := s.users.FindByLogin(ctx, identifier)
	if err != nil {
		if domain.IsDependency(err) {
			return nil, err
		}
		return nil, domain.ErrInvalidCredentials
	}
	if !s.hasher.Compare(user.PasswordHash, password) {
		return nil, domain.ErrInvalidCredentials
	}

	token, exp, err := s.tokens.Issue(user)
	if err != nil {
		return nil, err
	}

	s.logger.Info("user logged in", "user_id", user.ID.Hex())
	return &Session{User: user, AccessToken: token, ExpiresAt: exp}, nil
}

// Get returns the user with the given id.
func (s *UserService) Get(ctx context.Context, id primitive.ObjectID) (*domain.User, error) {
	return s.users.FindByID(ctx, id)
}
