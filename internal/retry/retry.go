// Package retry provides bounded retries with exponential backoff for
// calls against eventually-available collaborators.
package retry

import (
	"context"
	"math"
	"math/rand"
	"time"
)

// Backoff configures the delay schedule between attempts.
type Backoff struct {
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
	Jitter       bool
}

// DefaultBackoff is the schedule used for hosting-API and completion calls.
var DefaultBackoff = Backoff{
	InitialDelay: 500 * time.Millisecond,
	MaxDelay:     5 * time.Second,
	Multiplier:   2.0,
	Jitter:       true,
}

// NextDelay returns the delay before attempt N (1-based, so attempt 1 has
// no history and gets InitialDelay).
func NextDelay(cfg Backoff, attempt int, rng *rand.Rand) time.Duration {
	if attempt <= 1 {
		return cfg.InitialDelay
	}
	if cfg.InitialDelay <= 0 {
		return 0
	}
	if cfg.Multiplier < 1.0 {
		cfg.Multiplier = 1.0
	}
	delay := float64(cfg.InitialDelay) * math.Pow(cfg.Multiplier, float64(attempt-1))
	if cfg.MaxDelay > 0 && delay > float64(cfg.MaxDelay) {
		delay = float64(cfg.MaxDelay)
	}
	if cfg.Jitter {
		f := 0.5
		if rng != nil {
			f = 0.5 + rng.Float64()
		}
		delay = delay * f
	}
	return time.Duration(delay)
}

// Do runs fn up to attempts times, sleeping per cfg between failures.
// The last error is returned once attempts are exhausted. Context
// cancellation wins over the sleep.
func Do(ctx context.Context, attempts int, cfg Backoff, fn func() error) error {
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = fn(); err == nil {
			return nil
		}
		if attempt == attempts {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(NextDelay(cfg, attempt, nil)):
		}
	}
	return err
}
