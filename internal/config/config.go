package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Mongo     MongoConfig     `yaml:"mongo"`
	Media     MediaConfig     `yaml:"media"`
	Upload    UploadConfig    `yaml:"upload"`
	Auth      AuthConfig      `yaml:"auth"`
	Listing   ListingConfig   `yaml:"listing"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Redis     RedisConfig     `yaml:"redis"`
	Kafka     KafkaConfig     `yaml:"kafka"`
	Worker    WorkerConfig    `yaml:"worker"`
	Log       LogConfig       `yaml:"log"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host           string        `yaml:"host" envconfig:"SERVER_HOST"`
	Port           int           `yaml:"port" envconfig:"SERVER_PORT"`
	// ReadHeaderTimeout bounds every request line and header block.
	ReadHeaderTimeout time.Duration `yaml:"read_header_timeout" envconfig:"SERVER_READ_HEADER_TIMEOUT"`
	// ReadTimeout and WriteTimeout bound ordinary requests end to end.
	// Multipart uploads have both pushed out to UploadTimeout.
	ReadTimeout    time.Duration `yaml:"read_timeout" envconfig:"SERVER_READ_TIMEOUT"`
	WriteTimeout   time.Duration `yaml:"write_timeout" envconfig:"SERVER_WRITE_TIMEOUT"`
	RequestTimeout time.Duration `yaml:"request_timeout" envconfig:"SERVER_REQUEST_TIMEOUT"`
	UploadTimeout  time.Duration `yaml:"upload_timeout" envconfig:"SERVER_UPLOAD_TIMEOUT"`
	CORSOrigin     string        `yaml:"cors_origin" envconfig:"CORS_ORIGIN"`
	SecureCookies  bool          `yaml:"secure_cookies" envconfig:"SECURE_COOKIES"`
}

// MongoConfig holds document store configuration.
type MongoConfig struct {
	URI      string        `yaml:"uri" envconfig:"MONGO_URI"`
	Database string        `yaml:"database" envconfig:"MONGO_DATABASE"`
	Timeout  time.Duration `yaml:"timeout" envconfig:"MONGO_TIMEOUT"`
}

// MediaConfig holds object storage configuration for uploaded media.
type MediaConfig struct {
	Bucket    string `yaml:"bucket" envconfig:"MEDIA_BUCKET"`
	Region    string `yaml:"region" envconfig:"MEDIA_REGION"`
	Endpoint  string `yaml:"endpoint" envconfig:"MEDIA_ENDPOINT"`
	AccessKey string `yaml:"access_key" envconfig:"MEDIA_ACCESS_KEY"`
	SecretKey string `yaml:"secret_key" envconfig:"MEDIA_SECRET_KEY"`
	// PublicURL is the base URL assets are served from. Defaults to the
	// virtual-hosted bucket URL.
	PublicURL string        `yaml:"public_url" envconfig:"MEDIA_PUBLIC_URL"`
	Timeout   time.Duration `yaml:"timeout" envconfig:"MEDIA_TIMEOUT"`
	// Breaker trips after this many consecutive failures.
	BreakerFailures uint32        `yaml:"breaker_failures" envconfig:"MEDIA_BREAKER_FAILURES"`
	BreakerCooldown time.Duration `yaml:"breaker_cooldown" envconfig:"MEDIA_BREAKER_COOLDOWN"`
	FFProbePath     string        `yaml:"ffprobe_path" envconfig:"FFPROBE_PATH"`
}

// UploadConfig holds multipart staging configuration.
type UploadConfig struct {
	TempDir      string `yaml:"temp_dir" envconfig:"UPLOAD_TEMP_DIR"`
	MaxVideoSize int64  `yaml:"max_video_size" envconfig:"UPLOAD_MAX_VIDEO_SIZE"`
	MaxImageSize int64  `yaml:"max_image_size" envconfig:"UPLOAD_MAX_IMAGE_SIZE"`
}

// AuthConfig holds access token configuration.
type AuthConfig struct {
	TokenSecret string        `yaml:"token_secret" envconfig:"AUTH_TOKEN_SECRET"`
	Issuer      string        `yaml:"issuer" envconfig:"AUTH_ISSUER"`
	TokenTTL    time.Duration `yaml:"token_ttl" envconfig:"AUTH_TOKEN_TTL"`
	BcryptCost  int           `yaml:"bcrypt_cost" envconfig:"AUTH_BCRYPT_COST"`
}

// ListingConfig holds pagination bounds for list endpoints.
type ListingConfig struct {
	DefaultPageSize int `yaml:"default_page_size" envconfig:"LISTING_DEFAULT_PAGE_SIZE"`
	MaxPageSize     int `yaml:"max_page_size" envconfig:"LISTING_MAX_PAGE_SIZE"`
}

// RateLimitConfig holds per-client request limits.
type RateLimitConfig struct {
	Enabled           bool `yaml:"enabled" envconfig:"RATE_LIMIT_ENABLED"`
	RequestsPerMinute int  `yaml:"requests_per_minute" envconfig:"RATE_LIMIT_RPM"`
	Burst             int  `yaml:"burst" envconfig:"RATE_LIMIT_BURST"`
}

// RedisConfig holds the optional Redis connection used for rate limiting.
type RedisConfig struct {
	Addr     string `yaml:"addr" envconfig:"REDIS_ADDR"`
	Password string `yaml:"password" envconfig:"REDIS_PASSWORD"`
	DB       int    `yaml:"db" envconfig:"REDIS_DB"`
}

// KafkaConfig holds the optional domain event sink.
type KafkaConfig struct {
	Brokers []string `yaml:"brokers" envconfig:"KAFKA_BROKERS"`
	Topic   string   `yaml:"topic" envconfig:"KAFKA_TOPIC"`
}

// WorkerConfig holds media cleanup worker pool configuration.
type WorkerConfig struct {
	Count        int           `yaml:"count" envconfig:"WORKER_COUNT"`
	PollInterval time.Duration `yaml:"poll_interval" envconfig:"WORKER_POLL_INTERVAL"`
	MaxRetries   int           `yaml:"max_retries" envconfig:"WORKER_MAX_RETRIES"`
}

// LogConfig holds logger configuration.
type LogConfig struct {
	Level       string `yaml:"level" envconfig:"LOG_LEVEL"`
	Format      string `yaml:"format" envconfig:"LOG_FORMAT"`
	SentryDSN   string `yaml:"sentry_dsn" envconfig:"SENTRY_DSN"`
	Environment string `yaml:"environment" envconfig:"APP_ENV"`
}

// Load reads configuration from file and environment variables.
// Environment variables override file values; defaults fill whatever is
// still unset afterwards.
func Load(configPath string) (*Config, error) {
	cfg := &Config{}

	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("process environment: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

func (c *Config) applyDefaults() {
	setString(&c.Server.Host, "0.0.0.0")
	setInt(&c.Server.Port, 8000)
	setDuration(&c.Server.ReadHeaderTimeout, 10*time.Second)
	setDuration(&c.Server.ReadTimeout, 30*time.Second)
	setDuration(&c.Server.WriteTimeout, 5*time.Minute)
	setDuration(&c.Server.RequestTimeout, 5*time.Minute)
	setDuration(&c.Server.UploadTimeout, 30*time.Minute)
	setString(&c.Server.CORSOrigin, "*")

	setString(&c.Mongo.Database, "vidshare")
	setDuration(&c.Mongo.Timeout, 10*time.Second)

	setString(&c.Media.Region, "us-east-1")
	setDuration(&c.Media.Timeout, 2*time.Minute)
	if c.Media.BreakerFailures == 0 {
		c.Media.BreakerFailures = 5
	}
	setDuration(&c.Media.BreakerCooldown, 30*time.Second)
	setString(&c.Media.FFProbePath, "ffprobe")

	setString(&c.Upload.TempDir, os.TempDir())
	setInt64(&c.Upload.MaxVideoSize, 1<<30)
	setInt64(&c.Upload.MaxImageSize, 5<<20)

	setString(&c.Auth.Issuer, "vidshare")
	setDuration(&c.Auth.TokenTTL, 24*time.Hour)
	setInt(&c.Auth.BcryptCost, 10)

	setInt(&c.Listing.DefaultPageSize, 10)
	setInt(&c.Listing.MaxPageSize, 100)

	setInt(&c.RateLimit.RequestsPerMinute, 120)
	setInt(&c.RateLimit.Burst, 20)

	setString(&c.Kafka.Topic, "vidshare.events")

	setInt(&c.Worker.Count, 2)
	setDuration(&c.Worker.PollInterval, 5*time.Second)
	setInt(&c.Worker.MaxRetries, 5)

	setString(&c.Log.Level, "info")
	setString(&c.Log.Format, "json")
	setString(&c.Log.Environment, "production")
}

// Validate checks that required configuration values are set.
func (c *Config) Validate() error {
	if c.Mongo.URI == "" {
		return errors.New("MONGO_URI is required")
	}
	if c.Auth.TokenSecret == "" {
		return errors.New("AUTH_TOKEN_SECRET is required")
	}
	if c.Media.Bucket == "" {
		return errors.New("MEDIA_BUCKET is required")
	}
	if c.Listing.DefaultPageSize < 1 {
		return fmt.Errorf("listing default page size must be positive, got %d", c.Listing.DefaultPageSize)
	}
	if c.Listing.MaxPageSize < c.Listing.DefaultPageSize {
		return fmt.Errorf("listing max page size %d is below default %d", c.Listing.MaxPageSize, c.Listing.DefaultPageSize)
	}
	if c.Server.UploadTimeout < c.Server.RequestTimeout {
		return fmt.Errorf("upload timeout %s is below request timeout %s", c.Server.UploadTimeout, c.Server.RequestTimeout)
	}
	if len(c.Kafka.Brokers) > 0 && strings.TrimSpace(c.Kafka.Topic) == "" {
		return errors.New("KAFKA_TOPIC is required when KAFKA_BROKERS is set")
	}
	return nil
}

// Address returns the server address in host:port format.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// BaseURL returns the public base URL for stored assets.
func (c *MediaConfig) BaseURL() string {
	if c.PublicURL != "" {
		return strings.TrimRight(c.PublicURL, "/")
	}
	if c.Endpoint != "" {
		return strings.TrimRight(c.Endpoint, "/") + "/" + c.Bucket
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com", c.Bucket, c.Region)
}

func setString(v *string, def string) {
	if *v == "" {
		*v = def
	}
}

func setInt(v *int, def int) {
	if *v == 0 {
		*v = def
	}
}

func setInt64(v *int64, def int64) {
	if *v == 0 {
		*v = def
	}
}

func setDuration(v *time.Duration, def time.Duration) {
	if *v == 0 {
		*v = def
	}
}
