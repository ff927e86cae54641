package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRetry_SuccessFirstAttempt(t *testing.T) {
	var calls int
	val, err := Retry(context.Background(), DefaultPolicy(), "test", func(_ context.Context) (string, error) {
		calls++
		return "ok", nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if val != "ok" || calls != 1 {
		t.Errorf("got val=%q calls=%d", val, calls)
	}
}

func TestRetry_SuccessAfterTransientFailures(t *testing.T) {
	p := Policy{MaxAttempts: 3, InitialBackoff: time.Millisecond, MaxBackoff: 10 * time.Millisecond}

	var calls int
	val, err := Retry(context.Background(), p, "test", func(_ context.Context) (int, error) {
		calls++
		if calls < 3 {
			return 0, MarkTransient(errors.New("temporary"), 503)
		}
		return 7, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if val != 7 || calls != 3 {
		t.Errorf("got val=%d calls=%d", val, calls)
	}
}

func TestRetry_ExhaustsAttempts(t *testing.T) {
	p := Policy{MaxAttempts: 3, InitialBackoff: time.Millisecond, MaxBackoff: 10 * time.Millisecond}

	var calls int
	_, err := Retry(context.Background(), p, "test", func(_ context.Context) (int, error) {
		calls++
		return 0, MarkTransient(errors.New("always fails"), 500)
	})
	if err == nil {
		t.Fatal("expected error after exhausting attempts")
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
}

func TestRetry_PermanentErrorNotRetried(t *testing.T) {
	p := Policy{MaxAttempts: 3, InitialBackoff: time.Millisecond}

	var calls int
	_, err := Retry(context.Background(), p, "test", func(_ context.Context) (int, error) {
		calls++
		return 0, errors.New("bad request")
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Errorf("expected 1 call for a permanent error, got %d", calls)
	}
}

func TestRetry_ContextCancelStops(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := Policy{MaxAttempts: 5, InitialBackoff: 50 * time.Millisecond}

	var calls int
	_, err := Retry(ctx, p, "test", func(_ context.Context) (int, error) {
		calls++
		if calls == 2 {
			cancel()
		}
		return 0, MarkTransient(errors.New("fail"), 500)
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if calls > 3 {
		t.Errorf("expected retries to stop after cancel, got %d calls", calls)
	}
}

func TestRetry_CustomShouldRetry(t *testing.T) {
	p := Policy{
		MaxAttempts:    3,
		InitialBackoff: time.Millisecond,
		ShouldRetry:    func(err error) bool { return err.Error() == "retry me" },
	}

	var calls int
	_, err := Retry(context.Background(), p, "test", func(_ context.Context) (int, error) {
		calls++
		if calls == 1 {
			return 0, errors.New("retry me")
		}
		return 1, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 2 {
		t.Errorf("expected 2 calls, got %d", calls)
	}
}

func TestBackoff_ExponentialGrowthAndCap(t *testing.T) {
	p := Policy{
		InitialBackoff: 100 * time.Millisecond,
		MaxBackoff:     time.Second,
		Multiplier:     2.0,
	}.withDefaults()

	expected := []time.Duration{
		100 * time.Millisecond,
		200 * time.Millisecond,
		400 * time.Millisecond,
		800 * time.Millisecond,
		time.Second,
		time.Second,
	}
	for i, want := range expected {
		if got := p.backoff(i); got != want {
			t.Errorf("attempt %d: expected %v, got %v", i, want, got)
		}
	}
}

func TestBackoff_JitterStaysInRange(t *testing.T) {
	p := Policy{
		InitialBackoff: time.Second,
		MaxBackoff:     30 * time.Second,
		Multiplier:     2.0,
		Jitter:         0.5,
	}.withDefaults()

	seen := make(map[time.Duration]bool)
	for i := 0; i < 100; i++ {
		d := p.backoff(0)
		seen[d] = true
		if d < 500*time.Millisecond || d > 1500*time.Millisecond {
			t.Errorf("delay %v outside [500ms, 1500ms]", d)
		}
	}
	if len(seen) < 2 {
		t.Error("expected jitter to vary delays")
	}
}

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"marked", MarkTransient(errors.New("503"), 503), true},
		{"wrapped marked", errors.Join(errors.New("outer"), MarkTransient(errors.New("inner"), 429)), true},
		{"rate limit text", errors.New("provider rate limit exceeded"), true},
		{"io timeout text", errors.New("read tcp: i/o timeout"), true},
		{"permanent", errors.New("invalid api key"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsTransient(tt.err); got != tt.want {
				t.Errorf("IsTransient(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestRetryableStatus(t *testing.T) {
	for _, code := range []int{408, 429, 500, 502, 503, 504} {
		if !RetryableStatus(code) {
			t.Errorf("expected %d to be retryable", code)
		}
	}
	for _, code := range []int{200, 400, 401, 404, 422} {
		if RetryableStatus(code) {
			t.Errorf("expected %d not to be retryable", code)
		}
	}
}
