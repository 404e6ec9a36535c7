package media

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/iconidentify/vidshare/internal/config"
)

// S3Store implements Store on any S3-compatible bucket (AWS, MinIO, R2).
type S3Store struct {
	client   *s3.Client
	uploader *manager.Uploader
	bucket   string
	baseURL  string
	prober   DurationProber
	logger   *slog.Logger
}

// NewS3Store creates a store for the configured bucket. prober may be nil,
// in which case video durations are reported as zero.
func NewS3Store(ctx context.Context, cfg config.MediaConfig, prober DurationProber, logger *slog.Logger) (*S3Store, error) {
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	logger.Info("media store initialized",
		"bucket", cfg.Bucket,
		"region", cfg.Region,
		"endpoint", cfg.Endpoint,
	)

	return &S3Store{
		client:   client,
		uploader: manager.NewUploader(client),
		bucket:   cfg.Bucket,
		baseURL:  cfg.BaseURL(),
		prober:   prober,
		logger:   logger,
	}, nil
}

// Store uploads the staged file under a fresh key.
func (s *S3Store) Store(ctx context.Context, u Upload) (*Asset, error) {
	f, err := os.Open(u.Path)
	if err != nil {
		return nil, fmt.Errorf("open staged file: %w", err)
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat staged file: %w", err)
	}

	key := ObjectKey(u.Kind, u.Path)
	input := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   f,
	}
	if u.ContentType != "" {
		input.ContentType = aws.String(u.ContentType)
	}

	if _, err := s.uploader.Upload(ctx, input); err != nil {
		return nil, fmt.Errorf("upload %s: %w", key, err)
	}

	asset := &Asset{
		URL:         s.baseURL + "/" + key,
		Key:         key,
		Size:        stat.Size(),
		ContentType: u.ContentType,
	}

	if u.Kind == KindVideo && s.prober != nil {
		d, err := s.prober.Duration(ctx, u.Path)
		if err != nil {
			s.logger.Warn("could not determine video duration", "key", key, "error", err)
		} else {
			asset.Duration = d
		}
	}

	return asset, nil
}

// Remove deletes the object at key.
func (s *S3Store) Remove(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

// ObjectKey returns a unique key for a file of the given kind, keeping the
// original extension.
func ObjectKey(kind Kind, path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	return string(kind) + "/" + uuid.NewString() + ext
}
