// Package logging builds the process logger.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/getsentry/sentry-go"
	slogmulti "github.com/samber/slog-multi"
	slogsentry "github.com/samber/slog-sentry/v2"

	"github.com/iconidentify/vidshare/internal/config"
)

// New returns a logger writing to w in the configured format. When a Sentry
// DSN is set, error records are also reported to Sentry. The returned flush
// function drains buffered Sentry events and should run before exit.
func New(cfg config.LogConfig, w io.Writer, version string) (*slog.Logger, func(), error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, nil, err
	}

	opts := &slog.HandlerOptions{Level: level}
	var base slog.Handler
	if strings.EqualFold(cfg.Format, "text") {
		base = slog.NewTextHandler(w, opts)
	} else {
		base = slog.NewJSONHandler(w, opts)
	}

	flush := func() {}
	handler := base
	if cfg.SentryDSN != "" {
		err := sentry.Init(sentry.ClientOptions{
			Dsn:         cfg.SentryDSN,
			Environment: cfg.Environment,
			Release:     version,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("init sentry: %w", err)
		}
		handler = slogmulti.Fanout(
			base,
			slogsentry.Option{Level: slog.LevelError}.NewSentryHandler(),
		)
		flush = func() { sentry.Flush(2 * time.Second) }
	}

	return slog.New(handler), flush, nil
}

// ParseLevel maps a level name onto a slog level. Empty means info.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
}
