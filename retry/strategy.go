// Package retry provides the reconnect backoff used by subscriptions.
// It implements capped exponential backoff with jitter; reconnects are retried
// indefinitely, so there is no attempt limit.
package retry

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Strategy defines how long a subscription waits between reconnect attempts.
//
// The nominal schedule follows: delay = min(InitialDelay * Multiplier^attempt, MaxDelay).
// Each actual delay is randomized by ±Jitter of the nominal value to avoid
// thundering-herd reconnects after a server restart.
//
// Example with defaults (1s initial, 2.0 multiplier, 1m max):
//
//	Attempt 0: 1s
//	Attempt 1: 2s
//	Attempt 2: 4s
//	...
//	Attempt 6: 1m (capped)
type Strategy struct {
	InitialDelay time.Duration // Delay before the first reconnect
	MaxDelay     time.Duration // Upper bound for any single delay
	Multiplier   float64       // Growth factor per failed attempt
	Jitter       float64       // Randomization factor in [0, 1]
}

// DefaultStrategy returns the reconnect strategy used when none is configured.
func DefaultStrategy() Strategy {
	return Strategy{
		InitialDelay: 1 * time.Second,
		MaxDelay:     1 * time.Minute,
		Multiplier:   2.0,
		Jitter:       0.5,
	}
}

// Validate reports configuration errors.
func (s Strategy) Validate() error {
	switch {
	case s.InitialDelay <= 0:
		return fmt.Errorf("initial delay must be > 0, got %v", s.InitialDelay)
	case s.MaxDelay < s.InitialDelay:
		return fmt.Errorf("max delay %v is below initial delay %v", s.MaxDelay, s.InitialDelay)
	case s.Multiplier < 1:
		return fmt.Errorf("multiplier must be >= 1, got %v", s.Multiplier)
	case s.Jitter < 0 || s.Jitter > 1:
		return fmt.Errorf("jitter must be within [0, 1], got %v", s.Jitter)
	}
	return nil
}

// CalculateRetryDelay returns the nominal (un-jittered) delay for attempt.
// Attempt 0 is the first reconnect.
func (s Strategy) CalculateRetryDelay(attempt int) time.Duration {
	if attempt <= 0 {
		return s.InitialDelay
	}

	delay := float64(s.InitialDelay) * math.Pow(s.Multiplier, float64(attempt))
	if delay > float64(s.MaxDelay) {
		return s.MaxDelay
	}

	return time.Duration(delay)
}

// NewBackOff returns a fresh backoff sequence following this strategy.
// The sequence never returns backoff.Stop; call Reset after a successful
// connection to start over from InitialDelay.
func (s Strategy) NewBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = s.InitialDelay
	b.MaxInterval = s.MaxDelay
	b.Multiplier = s.Multiplier
	b.RandomizationFactor = s.Jitter
	b.MaxElapsedTime = 0
	b.Reset()
	return b
}

// GetRetrySchedule returns a human-readable description of the first n delays.
//
// Example output:
//
//	Reconnect Schedule (±50% jitter):
//	  Attempt 1: after 1s
//	  Attempt 2: after 2s
func (s Strategy) GetRetrySchedule(n int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Reconnect Schedule (±%.0f%% jitter):\n", s.Jitter*100)
	for i := 0; i < n; i++ {
		fmt.Fprintf(&b, "  Attempt %d: after %v\n", i+1, s.CalculateRetryDelay(i))
	}
	return b.String()
}
