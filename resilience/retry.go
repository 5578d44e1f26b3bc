package resilience

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"time"
)

// BackoffStrategy defines how delays increase between attempts.
type BackoffStrategy int

const (
	// BackoffExponential multiplies the delay each attempt.
	BackoffExponential BackoffStrategy = iota
	// BackoffLinear increases delay linearly.
	BackoffLinear
	// BackoffConstant uses the same delay for all attempts.
	BackoffConstant
)

// String returns the strategy name.
func (s BackoffStrategy) String() string {
	switch s {
	case BackoffExponential:
		return "exponential"
	case BackoffLinear:
		return "linear"
	case BackoffConstant:
		return "constant"
	default:
		return "unknown"
	}
}

// RetryConfig configures retry behavior.
//
// The defaults are tuned for local storage contention (a few milliseconds
// of lock wait), not for remote calls.
type RetryConfig struct {
	// MaxAttempts is the maximum number of attempts, including the first.
	// Default: 4
	MaxAttempts int

	// InitialDelay is the delay before the first retry.
	// Default: 5ms
	InitialDelay time.Duration

	// MaxDelay caps the delay between attempts.
	// Default: 250ms
	MaxDelay time.Duration

	// Multiplier is the growth factor for exponential backoff.
	// Default: 2.0
	Multiplier float64

	// Strategy is the backoff strategy.
	// Default: BackoffExponential
	Strategy BackoffStrategy

	// Jitter adds up to 25% random delay.
	Jitter bool

	// RetryIf reports whether err is transient.
	// Default: every non-nil error is retried.
	RetryIf func(err error) bool

	// OnRetry is called before each retry.
	OnRetry func(attempt int, err error, delay time.Duration)
}

// Retry runs operations with backoff.
type Retry struct {
	config RetryConfig
}

// NewRetry creates a retry handler, filling unset fields with defaults.
func NewRetry(config RetryConfig) *Retry {
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = 4
	}
	if config.InitialDelay <= 0 {
		config.InitialDelay = 5 * time.Millisecond
	}
	if config.MaxDelay <= 0 {
		config.MaxDelay = 250 * time.Millisecond
	}
	if config.Multiplier <= 0 {
		config.Multiplier = 2.0
	}
	if config.RetryIf == nil {
		config.RetryIf = func(err error) bool { return err != nil }
	}

	return &Retry{config: config}
}

// Execute runs op until it succeeds, returns a non-retryable error, or the
// attempts are exhausted.
//
// A non-retryable error is returned unchanged. Exhaustion returns an error
// matching both ErrMaxRetriesExceeded and the last error from op.
func (r *Retry) Execute(ctx context.Context, op func(context.Context) error) error {
	var lastErr error

	for attempt := 1; attempt <= r.config.MaxAttempts; attempt++ {
		err := op(ctx)
		if err == nil {
			return nil
		}
		lastErr = err

		if !r.config.RetryIf(err) {
			return err
		}
		if attempt == r.config.MaxAttempts {
			break
		}

		delay := r.delay(attempt)
		if r.config.OnRetry != nil {
			r.config.OnRetry(attempt, err, delay)
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}

	return fmt.Errorf("%w after %d attempts: %w", ErrMaxRetriesExceeded, r.config.MaxAttempts, lastErr)
}

func (r *Retry) delay(attempt int) time.Duration {
	var d time.Duration

	switch r.config.Strategy {
	case BackoffConstant:
		d = r.config.InitialDelay
	case BackoffLinear:
		d = r.config.InitialDelay * time.Duration(attempt)
	default:
		factor := math.Pow(r.config.Multiplier, float64(attempt-1))
		d = time.Duration(float64(r.config.InitialDelay) * factor)
	}

	if d > r.config.MaxDelay {
		d = r.config.MaxDelay
	}

	if r.config.Jitter && d >= 4 {
		// #nosec G404 -- jitter is non-cryptographic timing variance.
		d += time.Duration(rand.Int64N(int64(d / 4)))
	}

	return d
}

// Config returns the effective configuration.
func (r *Retry) Config() RetryConfig {
	return r.config
}
