package retry

import (
	"context"
	"errors"
	"net"
	"syscall"
	"testing"
	"time"
)

func TestClassifyStatusCodes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		status int
		want   Class
	}{
		{"ok", 200, Success},
		{"no content", 204, Success},
		{"not found is no-data", 404, NoData},
		{"too many requests", 429, RateLimited},
		{"internal error", 500, ServerError},
		{"bad gateway", 502, ServerError},
		{"unauthorized", 401, Unclassified},
		{"forbidden", 403, Unclassified},
		{"teapot", 418, Unclassified},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := Classify(tt.status, nil); got != tt.want {
				t.Errorf("Classify(%d, nil) = %v, want %v", tt.status, got, tt.want)
			}
		})
	}
}

func TestClassifyErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want Class
	}{
		{"deadline exceeded", context.DeadlineExceeded, NetworkTransient},
		{"connection reset", syscall.ECONNRESET, NetworkTransient},
		{"connection refused", syscall.ECONNREFUSED, NetworkTransient},
		{"op error", &net.OpError{Op: "dial", Err: errors.New("broken")}, NetworkTransient},
		{"dns timeout", &net.DNSError{IsTimeout: true}, NetworkTransient},
		{"nxdomain", &net.DNSError{IsNotFound: true}, Unclassified},
		{"opaque error", errors.New("something odd"), Unclassified},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := Classify(0, tt.err); got != tt.want {
				t.Errorf("Classify(0, %v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestRetryable(t *testing.T) {
	t.Parallel()

	retryable := []Class{RateLimited, NetworkTransient, ServerError}
	terminal := []Class{Success, NoData, Unclassified}

	for _, c := range retryable {
		if !c.Retryable() {
			t.Errorf("%v.Retryable() = false, want true", c)
		}
	}
	for _, c := range terminal {
		if c.Retryable() {
			t.Errorf("%v.Retryable() = true, want false", c)
		}
	}
}

func TestBackoffExponentialFloor(t *testing.T) {
	t.Parallel()

	cfg := Config{MaxAttempts: 5, Base: time.Second, Jitter: time.Second}
	for attempt := 0; attempt < 5; attempt++ {
		floor := (1 << uint(attempt)) * time.Second
		ceil := floor + time.Second
		for i := 0; i < 50; i++ {
			d := cfg.Backoff(attempt)
			if d < floor || d >= ceil {
				t.Fatalf("Backoff(%d) = %v, want in [%v, %v)", attempt, d, floor, ceil)
			}
		}
	}
}

func TestBackoffNoJitterIsDeterministic(t *testing.T) {
	t.Parallel()

	cfg := Config{Base: 5 * time.Second}
	want := []time.Duration{5 * time.Second, 10 * time.Second, 20 * time.Second, 40 * time.Second}
	for attempt, w := range want {
		if got := cfg.Backoff(attempt); got != w {
			t.Errorf("Backoff(%d) = %v, want %v", attempt, got, w)
		}
	}
}

func TestBackoffNegativeAttemptClamped(t *testing.T) {
	t.Parallel()

	cfg := Config{Base: time.Second}
	if got := cfg.Backoff(-3); got != time.Second {
		t.Errorf("Backoff(-3) = %v, want %v", got, time.Second)
	}
}

func TestClassStrings(t *testing.T) {
	t.Parallel()

	tests := map[Class]string{
		Success:          "success",
		NoData:           "no-data",
		RateLimited:      "rate-limited",
		NetworkTransient: "network",
		ServerError:      "server-error",
		Unclassified:     "unclassified",
	}
	for c, want := range tests {
		if got := c.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", int(c), got, want)
		}
	}
}

func TestRealSleeperHonorsCancellation(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := RealSleeper().Sleep(ctx, time.Hour); err != context.Canceled {
		t.Errorf("Sleep() = %v, want context.Canceled", err)
	}
}
