package sink

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/velic0/game-telemetry/internal/domain"
)

// RetryConfig controls the retry decorator. MaxAttempts <= 1 disables
// retrying entirely.
type RetryConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

type retrySink struct {
	next Sink
	cfg  RetryConfig
}

// WithRetry wraps a sink so transient delivery failures are retried with
// exponential backoff before they count as failed. Dead-letter capture
// happens downstream of this wrapper and is unaffected by it.
func WithRetry(next Sink, cfg RetryConfig) Sink {
	if cfg.MaxAttempts <= 1 {
		return next
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = 100 * time.Millisecond
	}
	if cfg.MaxDelay <= 0 {
		cfg.MaxDelay = 5 * time.Second
	}
	return &retrySink{next: next, cfg: cfg}
}

func (r *retrySink) Send(ctx context.Context, e domain.Event) error {
	return r.retry(ctx, func() error {
		return r.next.Send(ctx, e)
	})
}

func (r *retrySink) SendBatch(ctx context.Context, events []domain.Event) error {
	return r.retry(ctx, func() error {
		return r.next.SendBatch(ctx, events)
	})
}

func (r *retrySink) Healthy(ctx context.Context) bool {
	return r.next.Healthy(ctx)
}

func (r *retrySink) retry(ctx context.Context, op func() error) error {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = r.cfg.BaseDelay
	bo.MaxInterval = r.cfg.MaxDelay

	policy := backoff.WithContext(
		backoff.WithMaxRetries(bo, uint64(r.cfg.MaxAttempts-1)),
		ctx,
	)
	return backoff.Retry(op, policy)
}
