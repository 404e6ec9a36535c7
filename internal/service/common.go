package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/iconidentify/vidshare/internal/domain"
	"github.com/iconidentify/vidshare/internal/events"
	"github.com/iconidentify/vidshare/internal/media"
)

// asDependency makes sure err carries the DependencyError classification.
func asDependency(dependency, op string, err error) error {
	if err == nil || domain.IsDependency(err) {
		return err
	}
	return domain.NewDependencyError(dependency, op, err)
}

// emit publishes ev without failing the request.
func emit(ctx context.Context, pub events.Publisher, logger *slog.Logger, ev domain.Event) {
	if pub == nil {
		return
	}
	if err := pub.Publish(ctx, ev); err != nil {
		logger.Warn("failed to publish event", "type", ev.Type, "resource_id", ev.ResourceID, "error", err)
	}
}

func assetKeys(assets ...*media.Asset) []string {
	keys := make([]string, 0, len(assets))
	for _, a := range assets {
		if a != nil && a.Key != "" {
			keys = append(keys, a.Key)
		}
	}
	return keys
}

// optionalText trims a present value. Nil stays nil.
func optionalText(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}
