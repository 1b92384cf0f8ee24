// Package retry wraps fallible remote operations with bounded
// exponential-backoff retry. The wrapper is generic over the operation's
// result type and knows nothing about HTTP or chat calls; callers supply a
// predicate that decides which failures are worth retrying.
package retry

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"time"
)

// Defaults applied by NewPolicy.
const (
	DefaultMaxRetries = 3
	DefaultBaseDelay  = 1 * time.Second
	DefaultJitter     = 1 * time.Second
)

// Policy controls retry behavior for Do.
type Policy struct {
	// MaxRetries is the number of retries after the initial attempt.
	// Total attempts = MaxRetries + 1.
	MaxRetries int

	// BaseDelay is the backoff before the first retry. The delay before
	// retry k (0-based) is BaseDelay * 2^k plus jitter.
	BaseDelay time.Duration

	// Jitter is the upper bound of the random addition to each backoff
	// delay. It spreads out retries from concurrent callers so they do not
	// hammer the gateway in lockstep. Zero disables jitter.
	Jitter time.Duration

	// Classify reports whether an error is transient and worth retrying.
	// A nil Classify treats every error as transient.
	Classify func(error) bool

	// OnRetry, if set, is called before each backoff sleep with the retry
	// number (1-based), the chosen delay, and the error being retried.
	OnRetry func(retry int, delay time.Duration, err error)

	// Sleep waits for the given duration or until the context is done.
	// Nil selects the default context-aware sleep. Tests inject a recorder
	// here to avoid real delays.
	Sleep func(ctx context.Context, d time.Duration) error
}

// NewPolicy returns a Policy with the default retry budget and the given
// transient-failure predicate.
func NewPolicy(classify func(error) bool) Policy {
	return Policy{
		MaxRetries: DefaultMaxRetries,
		BaseDelay:  DefaultBaseDelay,
		Jitter:     DefaultJitter,
		Classify:   classify,
	}
}

// Do executes op, retrying transient failures with exponential backoff until
// it succeeds, a fatal error occurs, the retry budget is exhausted, or the
// context is cancelled. On exhaustion the last error is returned unchanged so
// callers can still classify it.
func Do[T any](ctx context.Context, p Policy, op func(ctx context.Context) (T, error)) (T, error) {
	var zero T

	sleep := p.Sleep
	if sleep == nil {
		sleep = sleepContext
	}

	for attempt := 0; ; attempt++ {
		out, err := op(ctx)
		if err == nil {
			return out, nil
		}
		if attempt >= p.MaxRetries {
			return zero, err
		}
		if p.Classify != nil && !p.Classify(err) {
			return zero, err
		}

		delay := p.backoff(attempt)
		if p.OnRetry != nil {
			p.OnRetry(attempt+1, delay, err)
		}
		if serr := sleep(ctx, delay); serr != nil {
			return zero, fmt.Errorf("retry interrupted after %d attempts: %w", attempt+1, serr)
		}
	}
}

// backoff computes the delay before retry number attempt+1:
// BaseDelay * 2^attempt plus a random jitter in [0, Jitter).
func (p Policy) backoff(attempt int) time.Duration {
	delay := time.Duration(float64(p.BaseDelay) * math.Pow(2, float64(attempt)))
	if p.Jitter > 0 {
		delay += rand.N(p.Jitter) //nolint:gosec // G404: backoff jitter does not need a strong RNG
	}
	return delay
}

func sleepContext(ctx context.Context, d time.Duration) error {
	select {
	case <-time.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
