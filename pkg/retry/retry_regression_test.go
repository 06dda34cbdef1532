// Regression tests for backoff arithmetic at extreme attempt counts.
//
// Bug: (1 << attempt) * Base overflowed int64 once attempt reached the
// low sixties, producing negative delays that made the sleeper return
// immediately and turned backoff into a hot retry loop.
package retry

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestBackoff_ShiftOverflowRegression verifies the delay stays positive
// for attempt counts that would overflow the raw shift.
func TestBackoff_ShiftOverflowRegression(t *testing.T) {
	t.Parallel()

	cfg := Config{Base: time.Second}

	for _, attempt := range []int{30, 31, 62, 63, 64, 1000, math.MaxInt32} {
		d := cfg.Backoff(attempt)
		require.True(t, d > 0, "attempt %d: delay must be positive, got %v", attempt, d)
	}
}

// TestBackoff_MonotoneUpToClamp confirms the schedule is non-decreasing
// over the attempt range the validation layer actually permits.
func TestBackoff_MonotoneUpToClamp(t *testing.T) {
	t.Parallel()

	cfg := Config{Base: time.Second}

	prev := time.Duration(0)
	for attempt := 0; attempt <= 20; attempt++ {
		d := cfg.Backoff(attempt)
		assert.GreaterOrEqual(t, d, prev, "attempt %d shrank the delay", attempt)
		prev = d
	}
}
