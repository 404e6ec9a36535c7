package media

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"

	"github.com/iconidentify/vidshare/internal/domain"
)

const dependencyName = "media"

// BreakerStore guards a Store with a per-call timeout and a circuit breaker.
// Every failure it returns is a *domain.DependencyError.
type BreakerStore struct {
	next    Store
	cb      *gobreaker.CircuitBreaker
	timeout time.Duration
}

// BreakerSettings configures a BreakerStore.
type BreakerSettings struct {
	Timeout     time.Duration
	MaxFailures uint32
	Cooldown    time.Duration
}

// NewBreakerStore wraps next.
func NewBreakerStore(next Store, s BreakerSettings, logger *slog.Logger) *BreakerStore {
	if s.MaxFailures == 0 {
		s.MaxFailures = 5
	}
	st := gobreaker.Settings{
		Name:        "media-store",
		MaxRequests: 1,
		Timeout:     s.Cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= s.MaxFailures
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("circuit breaker state", "name", name, "from", from.String(), "to", to.String())
		},
		// A caller giving up is not a failure of the store.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
	}
	return &BreakerStore{
		next:    next,
		cb:      gobreaker.NewCircuitBreaker(st),
		timeout: s.Timeout,
	}
}

// Store uploads through the breaker.
func (b *BreakerStore) Store(ctx context.Context, u Upload) (*Asset, error) {
	res, err := b.execute(ctx, "upload", func(ctx context.Context) (interface{}, error) {
		return b.next.Store(ctx, u)
	})
	if err != nil {
		return nil, err
	}
	return res.(*Asset), nil
}

// Remove deletes through the breaker.
func (b *BreakerStore) Remove(ctx context.Context, key string) error {
	_, err := b.execute(ctx, "remove", func(ctx context.Context) (interface{}, error) {
		return nil, b.next.Remove(ctx, key)
	})
	return err
}

// State reports the breaker state for health checks.
func (b *BreakerStore) State() string {
	return b.cb.State().String()
}

func (b *BreakerStore) execute(ctx context.Context, op string, fn func(context.Context) (interface{}, error)) (interface{}, error) {
	res, err := b.cb.Execute(func() (interface{}, error) {
		callCtx := ctx
		if b.timeout > 0 {
			var cancel context.CancelFunc
			callCtx, cancel = context.WithTimeout(ctx, b.timeout)
			defer cancel()
		}
		return fn(callCtx)
	})
	if err == nil {
		return res, nil
	}
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		err = fmt.Errorf("%w: %v", domain.ErrDependencyUnavailable, err)
	}
	return nil, domain.NewDependencyError(dependencyName, op, err)
}
