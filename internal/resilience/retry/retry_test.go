package retry

import (
	"context"
	"errors"
	"syscall"
	"testing"
	"time"
)

func fastConfig() Config {
	return Config{
		MaxAttempts:    3,
		InitialDelay:   10 * time.Millisecond,
		MaxDelay:       100 * time.Millisecond,
		Multiplier:     2.0,
		JitterFraction: 0.1,
	}
}

func TestWithBackoff_FirstAttemptSucceeds(t *testing.T) {
	attempts := 0
	err := WithBackoff(context.Background(), fastConfig(), func() error {
		attempts++
		return nil
	})

	if err != nil {
		t.Errorf("expected no error, got %v", err)
	}
	if attempts != 1 {
		t.Errorf("expected 1 attempt, got %d", attempts)
	}
}

func TestWithBackoff_RecoversAfterTransientFailures(t *testing.T) {
	attempts := 0
	err := WithBackoff(context.Background(), fastConfig(), func() error {
		attempts++
		if attempts < 3 {
			return &HTTPError{StatusCode: 503, Message: "Service Unavailable"}
		}
		return nil
	})

	if err != nil {
		t.Errorf("expected recovery, got %v", err)
	}
	if attempts != 3 {
		t.Errorf("expected 3 attempts, got %d", attempts)
	}
}

func TestWithBackoff_ExhaustsAttempts(t *testing.T) {
	attempts := 0
	serverErr := &HTTPError{StatusCode: 500, Message: "Server Error"}
	err := WithBackoff(context.Background(), fastConfig(), func() error {
		attempts++
		return serverErr
	})

	if err == nil {
		t.Fatal("expected error after exhausting attempts")
	}
	if attempts != 3 {
		t.Errorf("expected 3 attempts, got %d", attempts)
	}
	if !errors.Is(err, serverErr) {
		t.Error("expected the final error to wrap the last failure")
	}
}

func TestWithBackoff_NonRetryableStopsImmediately(t *testing.T) {
	attempts := 0
	badRequest := &HTTPError{StatusCode: 400, Message: "Bad Request"}
	err := WithBackoff(context.Background(), fastConfig(), func() error {
		attempts++
		return badRequest
	})

	if err != badRequest {
		t.Errorf("expected the original error unwrapped, got %v", err)
	}
	if attempts != 1 {
		t.Errorf("expected a single attempt, got %d", attempts)
	}
}

func TestWithBackoff_CanceledDuringWait(t *testing.T) {
	cfg := fastConfig()
	cfg.MaxAttempts = 5
	cfg.InitialDelay = 50 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	attempts := 0
	err := WithBackoff(ctx, cfg, func() error {
		attempts++
		if attempts == 2 {
			cancel()
		}
		return &HTTPError{StatusCode: 500, Message: "Server Error"}
	})

	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if attempts < 2 {
		t.Errorf("expected at least 2 attempts before the cancel, got %d", attempts)
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		retryable bool
	}{
		{"nil", nil, false},
		{"context canceled", context.Canceled, false},
		{"context deadline", context.DeadlineExceeded, false},
		{"http 500", &HTTPError{StatusCode: 500}, true},
		{"http 502", &HTTPError{StatusCode: 502}, true},
		{"http 503", &HTTPError{StatusCode: 503}, true},
		{"http 429", &HTTPError{StatusCode: 429}, true},
		{"http 408", &HTTPError{StatusCode: 408}, true},
		{"http 400", &HTTPError{StatusCode: 400}, false},
		{"http 404", &HTTPError{StatusCode: 404}, false},
		{"connection refused", syscall.ECONNREFUSED, true},
		{"connection reset", syscall.ECONNRESET, true},
		{"timed out", syscall.ETIMEDOUT, true},
		{"network unreachable", syscall.ENETUNREACH, true},
		{"plain error", errors.New("parse failure"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRetryable(tt.err); got != tt.retryable {
				t.Errorf("IsRetryable(%v) = %v, want %v", tt.err, got, tt.retryable)
			}
		})
	}
}

func TestConfigPresets(t *testing.T) {
	def := DefaultConfig()
	if def.MaxAttempts != 3 || def.InitialDelay != time.Second || def.MaxDelay != 30*time.Second {
		t.Errorf("unexpected default config: %+v", def)
	}
	if def.Multiplier != 2.0 || def.JitterFraction != 0.1 {
		t.Errorf("unexpected default backoff shape: %+v", def)
	}

	page := PageFetchConfig()
	if page.MaxAttempts != 3 || page.MaxDelay != 10*time.Second {
		t.Errorf("unexpected page fetch config: %+v", page)
	}

	index := IndexFetchConfig()
	if index.InitialDelay != 2*time.Second || index.MaxDelay != 30*time.Second {
		t.Errorf("unexpected index fetch config: %+v", index)
	}
}

func TestHTTPError_Error(t *testing.T) {
	err := &HTTPError{StatusCode: 500, Message: "Internal Server Error"}
	if got := err.Error(); got != "HTTP 500: Internal Server Error" {
		t.Errorf("unexpected error string: %q", got)
	}
}

func TestNextDelay_GrowsAndCaps(t *testing.T) {
	cfg := Config{MaxDelay: 150 * time.Millisecond, Multiplier: 2.0}

	got := nextDelay(100*time.Millisecond, cfg)
	if got != 150*time.Millisecond {
		t.Errorf("expected delay capped at 150ms, got %v", got)
	}

	got = nextDelay(50*time.Millisecond, cfg)
	if got != 100*time.Millisecond {
		t.Errorf("expected doubled delay 100ms, got %v", got)
	}
}

func TestNextDelay_Jitter(t *testing.T) {
	cfg := Config{MaxDelay: time.Second, Multiplier: 1.0, JitterFraction: 0.2}
	base := 100 * time.Millisecond
	max := time.Duration(float64(base) * 1.2)

	seen := make(map[time.Duration]bool)
	for i := 0; i < 10; i++ {
		got := nextDelay(base, cfg)
		if got < base || got > max {
			t.Errorf("expected delay in [%v, %v], got %v", base, max, got)
		}
		seen[got] = true
	}
	if len(seen) < 2 {
		t.Error("expected jitter to vary the delay")
	}
}
