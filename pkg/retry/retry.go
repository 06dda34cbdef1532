// Package retry classifies lookup failures and computes exponential
// backoff with jitter for the ones worth retrying.
//
// Classification is the single source of truth for what happens after a
// failed request: rate limiting and transient network faults are retried
// with backoff, a 404 means the service has no data for the address and
// is treated as a clean answer, and anything unrecognized is surfaced
// immediately rather than burned through retry attempts.
package retry

import (
	"context"
	"errors"
	"math/rand/v2"
	"net"
	"net/http"
	"os"
	"syscall"
	"time"

	"github.com/ipintel/ipintel/pkg/defaults"
	"github.com/ipintel/ipintel/pkg/duration"
)

// Class is the outcome classification of a single lookup attempt.
type Class int

const (
	// Success is a usable response.
	Success Class = iota

	// NoData is a definitive "service knows nothing about this address"
	// answer (HTTP 404). Terminal, not an error.
	NoData

	// RateLimited is an HTTP 429. Retryable with backoff.
	RateLimited

	// NetworkTransient covers timeouts, resets, and refused connections.
	// Retryable with backoff.
	NetworkTransient

	// ServerError is a 5xx from the service. Retryable with backoff.
	ServerError

	// Unclassified is anything not recognized above. Terminal; retrying
	// an unknown failure mode wastes the attempt budget.
	Unclassified
)

// String returns the classification name used in logs and summaries.
func (c Class) String() string {
	switch c {
	case Success:
		return "success"
	case NoData:
		return "no-data"
	case RateLimited:
		return "rate-limited"
	case NetworkTransient:
		return "network"
	case ServerError:
		return "server-error"
	default:
		return "unclassified"
	}
}

// Retryable reports whether another attempt may change the outcome.
func (c Class) Retryable() bool {
	switch c {
	case RateLimited, NetworkTransient, ServerError:
		return true
	}
	return false
}

// Classify maps an attempt result to its Class. Exactly one of status
// (when err is nil) or err is consulted.
func Classify(status int, err error) Class {
	if err != nil {
		return classifyErr(err)
	}
	switch {
	case status == http.StatusNotFound:
		return NoData
	case status == http.StatusTooManyRequests:
		return RateLimited
	case status >= 500:
		return ServerError
	case status >= 200 && status < 300:
		return Success
	default:
		return Unclassified
	}
}

func classifyErr(err error) Class {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, os.ErrDeadlineExceeded) {
		return NetworkTransient
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return NetworkTransient
	}
	if errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.EPIPE) {
		return NetworkTransient
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		if dnsErr.IsTimeout || dnsErr.IsTemporary {
			return NetworkTransient
		}
		// NXDOMAIN and friends do not heal on retry.
		return Unclassified
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return NetworkTransient
	}
	return Unclassified
}

// Config holds the backoff schedule.
type Config struct {
	// MaxAttempts bounds total attempts per target, first try included.
	MaxAttempts int

	// Base scales the exponential term.
	Base time.Duration

	// Jitter is the upper bound of the uniform random addition.
	Jitter time.Duration
}

// DefaultConfig returns the stock schedule: 5 attempts, 5s base, 5s jitter.
func DefaultConfig() Config {
	return Config{
		MaxAttempts: defaults.MaxAttempts,
		Base:        duration.BackoffBase,
		Jitter:      duration.BackoffJitter,
	}
}

// Backoff computes the delay before retry number attempt (0-based count
// of completed attempts): (2^attempt)*Base plus uniform jitter.
func (c Config) Backoff(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	// Cap the shift so Duration arithmetic cannot overflow into a
	// negative delay at absurd attempt counts.
	if attempt > 30 {
		attempt = 30
	}
	d := (1 << uint(attempt)) * c.Base
	if c.Jitter > 0 {
		d += time.Duration(rand.Int64N(int64(c.Jitter)))
	}
	return d
}

// Sleeper abstracts the backoff sleep so tests run without wall time.
type Sleeper interface {
	Sleep(ctx context.Context, d time.Duration) error
}

// SleeperFunc adapts a function to the Sleeper interface.
type SleeperFunc func(ctx context.Context, d time.Duration) error

// Sleep calls f.
func (f SleeperFunc) Sleep(ctx context.Context, d time.Duration) error {
	return f(ctx, d)
}

// RealSleeper sleeps on the wall clock, honoring context cancellation.
func RealSleeper() Sleeper {
	return SleeperFunc(func(ctx context.Context, d time.Duration) error {
		timer := time.NewTimer(d)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
			return nil
		}
	})
}
