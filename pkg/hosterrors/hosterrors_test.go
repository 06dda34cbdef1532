package hosterrors

import (
	"log/slog"
	"testing"
	"time"
)

func newTestTracker(cfg Config) (*Tracker, *time.Time) {
	t := New(cfg, WithLogger(slog.New(slog.DiscardHandler)))
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	t.now = func() time.Time { return now }
	return t, &now
}

func TestTripsAtThreshold(t *testing.T) {
	t.Parallel()

	tr, _ := newTestTracker(Config{Threshold: 3, Expiry: time.Minute})

	if tr.RecordFailure() {
		t.Error("tripped after 1 failure, threshold is 3")
	}
	if tr.RecordFailure() {
		t.Error("tripped after 2 failures, threshold is 3")
	}
	if !tr.RecordFailure() {
		t.Error("did not trip at 3 failures")
	}
	if !tr.Open() {
		t.Error("Open() = false after trip")
	}
}

func TestSuccessResetsStreak(t *testing.T) {
	t.Parallel()

	tr, _ := newTestTracker(Config{Threshold: 3, Expiry: time.Minute})

	tr.RecordFailure()
	tr.RecordFailure()
	tr.RecordSuccess()
	if got := tr.Consecutive(); got != 0 {
		t.Errorf("Consecutive() = %d after success, want 0", got)
	}
	if tr.RecordFailure() {
		t.Error("tripped after reset plus one failure")
	}
}

func TestSuccessClosesBreaker(t *testing.T) {
	t.Parallel()

	tr, _ := newTestTracker(Config{Threshold: 2, Expiry: time.Minute})

	tr.RecordFailure()
	tr.RecordFailure()
	if !tr.Open() {
		t.Fatal("breaker should be open")
	}
	tr.RecordSuccess()
	if tr.Open() {
		t.Error("Open() = true after success")
	}
}

func TestHalfOpensAfterExpiry(t *testing.T) {
	t.Parallel()

	tr, now := newTestTracker(Config{Threshold: 2, Expiry: time.Minute})

	tr.RecordFailure()
	tr.RecordFailure()
	if !tr.Open() {
		t.Fatal("breaker should be open")
	}

	*now = now.Add(2 * time.Minute)
	if tr.Open() {
		t.Error("Open() = true after expiry, want half-open probe allowed")
	}
	// Immediately after the probe is let through, the breaker guards again.
	if !tr.Open() {
		t.Error("Open() = false right after half-open probe, want open")
	}
}

func TestPermanentTripNeverHalfOpens(t *testing.T) {
	t.Parallel()

	tr, now := newTestTracker(Config{Threshold: 3, Expiry: time.Minute})

	tr.MarkPermanent()
	if !tr.Open() {
		t.Fatal("Open() = false after MarkPermanent")
	}

	*now = now.Add(time.Hour)
	if !tr.Open() {
		t.Error("permanent breaker half-opened after expiry")
	}
	tr.RecordSuccess()
	if !tr.Open() {
		t.Error("permanent breaker closed on success")
	}
}

func TestDisabledWhenThresholdZero(t *testing.T) {
	t.Parallel()

	tr, _ := newTestTracker(Config{Threshold: 0, Expiry: time.Minute})
	for i := 0; i < 50; i++ {
		if tr.RecordFailure() {
			t.Fatal("disabled breaker must never trip")
		}
	}
	if tr.Open() {
		t.Error("Open() = true with breaker disabled")
	}
}
