// Package retry implements the backoff policy used for retryable publishes.
// One parameterized algorithm serves both the production profile and the
// fast profile used by automated tests.
package retry

import (
	"context"
	"log/slog"
	"math"
	"math/rand"
	"time"
)

// Policy holds the backoff parameters. The zero value is not usable; build
// one with Production, FastTest, or a literal.
type Policy struct {
	BaseDelay  time.Duration
	Multiplier float64
	MaxDelay   time.Duration
	// ExponentCap limits the exponent fed to the multiplier; 0 means
	// uncapped (growth is bounded by MaxDelay alone).
	ExponentCap int
}

// Production is the profile used for live publishes.
func Production() Policy {
	return Policy{
		BaseDelay:  1000 * time.Millisecond,
		Multiplier: 2.0,
		MaxDelay:   30 * time.Second,
	}
}

// FastTest is the profile used to keep test suites quick. Same algorithm,
// smaller numbers.
func FastTest() Policy {
	return Policy{
		BaseDelay:   10 * time.Millisecond,
		Multiplier:  1.5,
		MaxDelay:    100 * time.Millisecond,
		ExponentCap: 4,
	}
}

// delay computes the wait after the given 1-based attempt:
// min(cap, base * multiplier^(attempt-1)) scaled by jitter in [0.8, 1.2].
func (p Policy) delay(attempt int) time.Duration {
	exp := attempt - 1
	if p.ExponentCap > 0 && exp > p.ExponentCap {
		exp = p.ExponentCap
	}
	d := time.Duration(float64(p.BaseDelay) * math.Pow(p.Multiplier, float64(exp)))
	if d > p.MaxDelay {
		d = p.MaxDelay
	}
	jitter := 0.8 + 0.4*rand.Float64()
	return time.Duration(float64(d) * jitter)
}

// Run invokes op until it succeeds or attempts are exhausted: one initial
// try plus up to maxRetries retries. A false return or an error from op both
// count as a failed attempt; errors are logged, never re-raised. Context
// cancellation during a backoff wait aborts immediately with false.
func (p Policy) Run(ctx context.Context, opID string, maxRetries int, op func() (bool, error)) bool {
	attempts := maxRetries + 1
	for attempt := 1; attempt <= attempts; attempt++ {
		ok, err := op()
		if err != nil {
			slog.Warn("retryable operation failed",
				"op", opID, "attempt", attempt, "of", attempts, "err", err)
		} else if ok {
			if attempt > 1 {
				slog.Info("retryable operation recovered", "op", opID, "attempt", attempt)
			}
			return true
		}
		if attempt == attempts {
			break
		}
		wait := p.delay(attempt)
		slog.Debug("backing off", "op", opID, "attempt", attempt, "wait", wait)
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			slog.Warn("retry aborted", "op", opID, "attempt", attempt, "err", ctx.Err())
			return false
		}
	}
	slog.Warn("retries exhausted", "op", opID, "attempts", attempts)
	return false
}
