package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/HerbHall/modelrelay/pkg/llm"
)

// sleepRecorder captures backoff delays without actually sleeping.
type sleepRecorder struct {
	delays []time.Duration
}

func (s *sleepRecorder) sleep(_ context.Context, d time.Duration) error {
	s.delays = append(s.delays, d)
	return nil
}

func testPolicy(rec *sleepRecorder) Policy {
	p := NewPolicy(llm.IsRetryable)
	p.Sleep = rec.sleep
	return p
}

func TestDo_success_first_attempt(t *testing.T) {
	rec := &sleepRecorder{}
	attempts := 0

	got, err := Do(context.Background(), testPolicy(rec), func(context.Context) (string, error) {
		attempts++
		return "ok", nil
	})
	if err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	if got != "ok" {
		t.Errorf("result = %q, want ok", got)
	}
	if attempts != 1 {
		t.Errorf("attempts = %d, want 1", attempts)
	}
	if len(rec.delays) != 0 {
		t.Errorf("slept %d times, want 0", len(rec.delays))
	}
}

func TestDo_transient_failures_then_success(t *testing.T) {
	rec := &sleepRecorder{}
	attempts := 0

	got, err := Do(context.Background(), testPolicy(rec), func(context.Context) (string, error) {
		attempts++
		if attempts <= 2 {
			return "", llm.NewProviderError(llm.ErrCodeRateLimit, "rate limited", nil)
		}
		return "recovered", nil
	})
	if err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	if got != "recovered" {
		t.Errorf("result = %q, want recovered", got)
	}
	if attempts != 3 {
		t.Errorf("attempts = %d, want 3", attempts)
	}
}

func TestDo_backoff_doubles_with_bounded_jitter(t *testing.T) {
	rec := &sleepRecorder{}
	attempts := 0

	_, err := Do(context.Background(), testPolicy(rec), func(context.Context) (int, error) {
		attempts++
		if attempts <= 3 {
			return 0, llm.NewProviderError(llm.ErrCodeQuotaExceeded, "quota", nil)
		}
		return 1, nil
	})
	if err != nil {
		t.Fatalf("Do() error = %v", err)
	}

	// Delay k must fall in [BaseDelay*2^k, BaseDelay*2^k + Jitter).
	if len(rec.delays) != 3 {
		t.Fatalf("slept %d times, want 3", len(rec.delays))
	}
	for k, d := range rec.delays {
		lo := DefaultBaseDelay << k
		hi := lo + DefaultJitter
		if d < lo || d >= hi {
			t.Errorf("delay %d = %v, want in [%v, %v)", k, d, lo, hi)
		}
	}
}

func TestDo_fatal_error_propagates_immediately(t *testing.T) {
	rec := &sleepRecorder{}
	attempts := 0

	_, err := Do(context.Background(), testPolicy(rec), func(context.Context) (string, error) {
		attempts++
		return "", llm.NewProviderError(llm.ErrCodeServerError, "internal error", nil)
	})
	if err == nil {
		t.Fatal("Do() error = nil, want server error")
	}
	if !llm.IsServerError(err) {
		t.Errorf("error = %v, want server error", err)
	}
	if attempts != 1 {
		t.Errorf("attempts = %d, want 1", attempts)
	}
	if len(rec.delays) != 0 {
		t.Errorf("slept %d times, want 0", len(rec.delays))
	}
}

func TestDo_exhausts_retries_and_returns_last_error(t *testing.T) {
	rec := &sleepRecorder{}
	attempts := 0

	_, err := Do(context.Background(), testPolicy(rec), func(context.Context) (string, error) {
		attempts++
		return "", llm.NewProviderError(llm.ErrCodeRateLimit, "still limited", nil)
	})
	if err == nil {
		t.Fatal("Do() error = nil, want rate-limit error")
	}
	if !llm.IsRateLimitError(err) {
		t.Errorf("error = %v, want the final rate-limit error", err)
	}
	if want := DefaultMaxRetries + 1; attempts != want {
		t.Errorf("attempts = %d, want %d", attempts, want)
	}
	if len(rec.delays) != DefaultMaxRetries {
		t.Errorf("slept %d times, want %d", len(rec.delays), DefaultMaxRetries)
	}
}

func TestDo_nil_classify_retries_any_error(t *testing.T) {
	rec := &sleepRecorder{}
	attempts := 0

	p := Policy{MaxRetries: 2, BaseDelay: time.Millisecond, Sleep: rec.sleep}
	got, err := Do(context.Background(), p, func(context.Context) (string, error) {
		attempts++
		if attempts == 1 {
			return "", errors.New("flaky")
		}
		return "ok", nil
	})
	if err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	if got != "ok" || attempts != 2 {
		t.Errorf("got %q after %d attempts, want ok after 2", got, attempts)
	}
}

func TestDo_cancelled_context_stops_backoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	attempts := 0
	p := NewPolicy(llm.IsRetryable)

	_, err := Do(ctx, p, func(context.Context) (string, error) {
		attempts++
		return "", llm.NewProviderError(llm.ErrCodeRateLimit, "rate limited", nil)
	})
	if err == nil {
		t.Fatal("Do() error = nil, want cancellation error")
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled in chain", err)
	}
	if attempts != 1 {
		t.Errorf("attempts = %d, want 1", attempts)
	}
}

func TestDo_on_retry_hook(t *testing.T) {
	rec := &sleepRecorder{}
	var retries []int

	p := testPolicy(rec)
	p.OnRetry = func(retry int, _ time.Duration, err error) {
		if err == nil {
			t.Error("OnRetry called with nil error")
		}
		retries = append(retries, retry)
	}

	attempts := 0
	_, err := Do(context.Background(), p, func(context.Context) (string, error) {
		attempts++
		if attempts <= 2 {
			return "", llm.NewProviderError(llm.ErrCodeRateLimit, "rate limited", nil)
		}
		return "ok", nil
	})
	if err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	if len(retries) != 2 || retries[0] != 1 || retries[1] != 2 {
		t.Errorf("OnRetry calls = %v, want [1 2]", retries)
	}
}
