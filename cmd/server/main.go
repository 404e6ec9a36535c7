package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/iconidentify/vidshare/internal/api"
	"github.com/iconidentify/vidshare/internal/api/handler"
	mw "github.com/iconidentify/vidshare/internal/api/middleware"
	"github.com/iconidentify/vidshare/internal/auth"
	"github.com/iconidentify/vidshare/internal/config"
	"github.com/iconidentify/vidshare/internal/events"
	"github.com/iconidentify/vidshare/internal/logging"
	"github.com/iconidentify/vidshare/internal/media"
	"github.com/iconidentify/vidshare/internal/query"
	"github.com/iconidentify/vidshare/internal/repository"
	"github.com/iconidentify/vidshare/internal/service"
	"github.com/iconidentify/vidshare/internal/upload"
	"github.com/iconidentify/vidshare/internal/worker"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	// Parse flags
	configPath := flag.String("config", "", "Path to config file")
	envFile := flag.String("env-file", ".env", "Optional dotenv file loaded before the environment is read")
	showVersion := flag.Bool("version", false, "Show version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("vidshare %s (built %s)\n", Version, BuildTime)
		os.Exit(0)
	}

	// A missing .env is fine; real environment variables win either way.
	_ = godotenv.Load(*envFile)

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, flush, err := logging.New(cfg.Log, os.Stdout, Version)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer flush()
	slog.SetDefault(logger)

	logger.Info("starting vidshare",
		"version", Version,
		"build_time", BuildTime,
	)

	if err := run(cfg, logger); err != nil {
		logger.Error("server exited", "error", err)
		flush()
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx := context.Background()

	if err := os.MkdirAll(cfg.Upload.TempDir, 0755); err != nil {
		return fmt.Errorf("create upload staging directory: %w", err)
	}

	// Persistence
	client, db, err := repository.Connect(ctx, cfg.Mongo)
	if err != nil {
		return err
	}
	defer func() {
		dctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := client.Disconnect(dctx); err != nil {
			logger.Error("mongo disconnect error", "error", err)
		}
	}()
	if err := repository.EnsureIndexes(ctx, db); err != nil {
		return err
	}

	videoRepo := repository.NewMongoVideoRepository(db, cfg.Mongo.Timeout)
	tweetRepo := repository.NewMongoTweetRepository(db, cfg.Mongo.Timeout)
	userRepo := repository.NewMongoUserRepository(db, cfg.Mongo.Timeout)
	commentRepo := repository.NewMongoCommentRepository(db, cfg.Mongo.Timeout)
	likeRepo := repository.NewMongoLikeRepository(db, cfg.Mongo.Timeout)
	cleanupQueue := repository.NewMemoryCleanupQueue()

	// Media store
	var prober media.DurationProber
	if p, err := media.NewFFProbe(cfg.Media.FFProbePath); err != nil {
		logger.Warn("video durations will not be probed", "error", err)
	} else {
		prober = p
	}
	s3Store, err := media.NewS3Store(ctx, cfg.Media, prober, logger)
	if err != nil {
		return err
	}
	store := media.NewBreakerStore(s3Store, media.BreakerSettings{
		Timeout:     cfg.Media.Timeout,
		MaxFailures: cfg.Media.BreakerFailures,
		Cooldown:    cfg.Media.BreakerCooldown,
	}, logger)

	publisher := events.New(cfg.Kafka, logger)
	defer publisher.Close()

	stager, err := upload.NewStager(cfg.Upload, logger)
	if err != nil {
		return err
	}
	uploads := handler.Uploads{Stager: stager, Limits: cfg.Upload}

	tokens := auth.NewTokens(cfg.Auth)
	hasher := auth.NewHasher(cfg.Auth.BcryptCost)
	listing := query.Options{
		DefaultLimit: cfg.Listing.DefaultPageSize,
		MaxLimit:     cfg.Listing.MaxPageSize,
	}

	// Services
	releaser := service.NewMediaReleaser(store, cleanupQueue, cfg.Worker.MaxRetries, logger)
	videoSvc := service.NewVideoService(videoRepo, store, releaser, publisher, listing, logger)
	tweetSvc := service.NewTweetService(tweetRepo, publisher, listing, logger)
	userSvc := service.NewUserService(userRepo, store, releaser, hasher, tokens, publisher, logger)
	commentSvc := service.NewCommentService(commentRepo, listing, logger)
	likeSvc := service.NewLikeService(likeRepo, logger)

	// Rate limiting
	bgCtx, cancelBg := context.WithCancel(ctx)
	defer cancelBg()
	var limiter mw.Limiter
	if cfg.RateLimit.Enabled {
		if cfg.Redis.Addr != "" {
			rdb := redis.NewClient(&redis.Options{
				Addr:     cfg.Redis.Addr,
				Password: cfg.Redis.Password,
				DB:       cfg.Redis.DB,
			})
			defer rdb.Close()
			limiter = mw.NewRedisLimiter(rdb, "vidshare:ratelimit", cfg.RateLimit.RequestsPerMinute, time.Minute)
			logger.Info("rate limiting via redis", "addr", cfg.Redis.Addr)
		} else {
			local := mw.NewLocalLimiter(cfg.RateLimit.RequestsPerMinute, cfg.RateLimit.Burst)
			go local.Cleanup(bgCtx, time.Minute)
			limiter = local
		}
	}

	router := api.NewRouter(api.Handlers{
		Video:      handler.NewVideoHandler(videoSvc, uploads, logger),
		Tweet:      handler.NewTweetHandler(tweetSvc, logger),
		User:       handler.NewUserHandler(userSvc, uploads, cfg.Server.SecureCookies, logger),
		Engagement: handler.NewEngagementHandler(commentSvc, likeSvc, logger),
		Health: handler.NewHealthHandler(
			repository.Pinger{Client: client, Timeout: cfg.Mongo.Timeout},
			cleanupQueue,
			store,
			cfg.Upload.TempDir,
		),
	}, tokens, limiter, cfg.Server, logger)

	// Cleanup worker pool
	pool := worker.NewPool(
		worker.Config{
			Workers:      cfg.Worker.Count,
			PollInterval: cfg.Worker.PollInterval,
		},
		cleanupQueue,
		store,
		logger,
	)
	pool.Start()

	srv := &http.Server{
		Addr:              cfg.Server.Address(),
		Handler:           router,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting HTTP server", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	var serveErr error
	select {
	case <-quit:
	case serveErr = <-errCh:
	}

	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Stop accepting new requests
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	// Stop workers (allow in-flight releases to complete)
	if err := pool.Stop(25 * time.Second); err != nil {
		logger.Error("worker pool shutdown error", "error", err)
	}
	if stats, err := cleanupQueue.Stats(context.Background()); err == nil && stats.Pending+stats.Retrying > 0 {
		logger.Warn("media releases still queued at shutdown", "pending", stats.Pending+stats.Retrying)
	}

	logger.Info("shutdown complete")
	return serveErr
}
