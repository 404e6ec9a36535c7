package api

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/iconidentify/vidshare/internal/api/handler"
	mw "github.com/iconidentify/vidshare/internal/api/middleware"
	"github.com/iconidentify/vidshare/internal/config"
	"github.com/iconidentify/vidshare/internal/domain"
)

// Handlers groups the endpoint handlers mounted by the router.
type Handlers struct {
	Video      *handler.VideoHandler
	Tweet      *handler.TweetHandler
	User       *handler.UserHandler
	Engagement *handler.EngagementHandler
	Health     *handler.HealthHandler
}

// NewRouter creates the HTTP router with all routes configured.
// A nil limiter disables rate limiting.
func NewRouter(
	h Handlers,
	verifier mw.TokenVerifier,
	limiter mw.Limiter,
	cfg config.ServerConfig,
	logger *slog.Logger,
) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.CleanPath)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(mw.Logger(logger))
	r.Use(mw.Recovery(logger))
	r.Use(mw.Deadlines(cfg.RequestTimeout, cfg.UploadTimeout))
	r.Use(mw.CORS(cfg.CORSOrigin))

	authed := mw.Authenticate(verifier)

	r.Route("/api/v1", func(r chi.Router) {
		// Health checks stay outside the limiter.
		r.Get("/healthz", h.Health.Live)
		r.Get("/readyz", h.Health.Ready)

		r.Group(func(r chi.Router) {
			if limiter != nil {
				r.Use(mw.RateLimit(limiter, logger))
			}

			r.With(authed).Get("/stats", h.Health.Stats)

			r.Route("/users", func(r chi.Router) {
				r.Post("/register", h.User.Register)
				r.Post("/login", h.User.Login)
				r.With(authed).Get("/me", h.User.Me)
			})

			r.Route("/videos", func(r chi.Router) {
				r.Get("/", h.Video.List)
				r.With(mw.OptionalAuth(verifier)).Get("/{videoID}", h.Video.Get)

				r.Group(func(r chi.Router) {
					r.Use(authed)
					r.Post("/", h.Video.Publish)
					r.Patch("/{videoID}", h.Video.Update)
					r.Patch("/{videoID}/toggle-publish", h.Video.TogglePublish)
					r.Delete("/{videoID}", h.Video.Delete)
				})
			})

			r.Route("/tweets", func(r chi.Router) {
				r.Get("/user/{userID}", h.Tweet.ListByUser)

				r.Group(func(r chi.Router) {
					r.Use(authed)
					r.Post("/", h.Tweet.Create)
					r.Patch("/{tweetID}", h.Tweet.Update)
					r.Delete("/{tweetID}", h.Tweet.Delete)
				})
			})

			r.Route("/comments", func(r chi.Router) {
				r.Get("/{videoID}", h.Engagement.ListComments)

				r.Group(func(r chi.Router) {
					r.Use(authed)
					r.Post("/{videoID}", h.Engagement.AddComment)
					r.Patch("/c/{commentID}", h.Engagement.UpdateComment)
					r.Delete("/c/{commentID}", h.Engagement.DeleteComment)
				})
			})

			r.Route("/likes/toggle", func(r chi.Router) {
				r.Use(authed)
				r.Post("/v/{targetID}", h.Engagement.ToggleLike(domain.LikeTargetVideo))
				r.Post("/c/{targetID}", h.Engagement.ToggleLike(domain.LikeTargetComment))
				r.Post("/t/{targetID}", h.Engagement.ToggleLike(domain.LikeTargetTweet))
			})
		})
	})

	return r
}
