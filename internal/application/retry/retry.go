// Package retry re-runs operations that lost an optimistic concurrency race.
package retry

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"github.com/garyjia/library-acquisition/internal/application/port"
)

const (
	defaultMaxAttempts  = 4
	defaultBaseDelay    = 10 * time.Millisecond
	defaultJitterFactor = 0.3
)

var (
	// ErrInvalidMaxAttempts is returned when max attempts are not positive
	ErrInvalidMaxAttempts = errors.New("max attempts must be positive")

	// ErrNegativeBaseDelay is returned when the base delay is negative
	ErrNegativeBaseDelay = errors.New("base delay must not be negative")

	// ErrInvalidJitterFactor is returned when the jitter factor is not between 0.0 and 1.0
	ErrInvalidJitterFactor = errors.New("jitter factor must be between 0.0 and 1.0")
)

// Func is an operation that reloads its state on every call
type Func func(ctx context.Context) error

// Observer is told about every conflict that will be retried
type Observer func(attempt int, err error)

type config struct {
	maxAttempts  int
	baseDelay    time.Duration
	jitterFactor float64
	observer     Observer
}

// Option configures retry behavior
type Option func(*config) error

// OnConflict runs fn, retrying with exponential backoff while it fails with
// port.ErrConflict. Any other error, including guard violations seen after a
// reload, is returned at once. With defaults the waits are 10, 20 and 40 ms
// plus up to 30% jitter.
func OnConflict(ctx context.Context, fn Func, options ...Option) error {
	cfg := &config{
		maxAttempts:  defaultMaxAttempts,
		baseDelay:    defaultBaseDelay,
		jitterFactor: defaultJitterFactor,
	}

	for _, option := range options {
		if err := option(cfg); err != nil {
			return err
		}
	}

	var lastErr error

	for attempt := 0; attempt < cfg.maxAttempts; attempt++ {
		if attempt > 0 {
			delay := cfg.baseDelay * time.Duration(1<<(attempt-1))
			jitter := rand.Float64() * float64(delay) * cfg.jitterFactor //nolint:gosec // jitter only

			select {
			case <-time.After(delay + time.Duration(jitter)):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}
		if !errors.Is(lastErr, port.ErrConflict) {
			return lastErr
		}

		if cfg.observer != nil && attempt < cfg.maxAttempts-1 {
			cfg.observer(attempt+1, lastErr)
		}
	}

	return lastErr
}

// WithMaxAttempts sets the maximum number of attempts, including the first
func WithMaxAttempts(attempts int) Option {
	return func(c *config) error {
		if attempts <= 0 {
			return ErrInvalidMaxAttempts
		}
		c.maxAttempts = attempts
		return nil
	}
}

// WithBaseDelay sets the first backoff delay; later delays double it
func WithBaseDelay(delay time.Duration) Option {
	return func(c *config) error {
		if delay < 0 {
			return ErrNegativeBaseDelay
		}
		c.baseDelay = delay
		return nil
	}
}

// WithJitterFactor sets jitter as a fraction of each delay, between 0.0 and 1.0
func WithJitterFactor(factor float64) Option {
	return func(c *config) error {
		if factor < 0.0 || factor > 1.0 {
			return ErrInvalidJitterFactor
		}
		c.jitterFactor = factor
		return nil
	}
}

// WithObserver registers a callback for retried conflicts
func WithObserver(observer Observer) Option {
	return func(c *config) error {
		c.observer = observer
		return nil
	}
}
