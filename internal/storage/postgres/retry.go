package postgres

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

const (
	defaultRetryBackoff = 100 * time.Millisecond
	maxRetryBackoff     = 5 * time.Second
)

// retryPolicy retries a connection step with doubling backoff capped at
// maxRetryBackoff.
type retryPolicy struct {
	retries int
	backoff time.Duration
	logger  *zap.Logger
}

func newRetryPolicy(cfg Config, logger *zap.Logger) retryPolicy {
	p := retryPolicy{retries: cfg.MaxRetries, backoff: cfg.RetryBackoff, logger: logger}
	if p.retries < 0 {
		p.retries = 0
	}
	if p.backoff <= 0 {
		p.backoff = defaultRetryBackoff
	}
	if p.logger == nil {
		p.logger = zap.NewNop()
	}
	return p
}

// do runs step until it succeeds, retries are exhausted or ctx is done.
// Each failed attempt is logged under name.
func (p retryPolicy) do(ctx context.Context, name string, step func(context.Context) error) error {
	delay := p.backoff
	for attempt := 1; ; attempt++ {
		err := step(ctx)
		if err == nil {
			return nil
		}
		if attempt > p.retries {
			return fmt.Errorf("%s: giving up after %d attempts: %w", name, attempt, err)
		}

		p.logger.Warn(name+" failed, retrying",
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", p.retries+1),
			zap.Duration("backoff", delay),
			zap.Error(err),
		)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		delay *= 2
		if delay > maxRetryBackoff {
			delay = maxRetryBackoff
		}
	}
}
