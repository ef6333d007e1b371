package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestNextDelay(t *testing.T) {
	cfg := Backoff{
		InitialDelay: 100 * time.Millisecond,
		MaxDelay:     1 * time.Second,
		Multiplier:   2.0,
	}

	tests := []struct {
		name    string
		attempt int
		want    time.Duration
	}{
		{name: "first attempt", attempt: 1, want: 100 * time.Millisecond},
		{name: "second attempt doubles", attempt: 2, want: 200 * time.Millisecond},
		{name: "third attempt doubles again", attempt: 3, want: 400 * time.Millisecond},
		{name: "capped at max", attempt: 10, want: 1 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NextDelay(cfg, tt.attempt, nil); got != tt.want {
				t.Errorf("NextDelay(%d) = %v, want %v", tt.attempt, got, tt.want)
			}
		})
	}
}

func TestNextDelayZeroInitial(t *testing.T) {
	if got := NextDelay(Backoff{}, 5, nil); got != 0 {
		t.Errorf("expected zero delay with zero initial, got %v", got)
	}
}

func TestDoSucceedsAfterFailures(t *testing.T) {
	calls := 0
	err := Do(context.Background(), 3, Backoff{InitialDelay: time.Millisecond}, func() error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
}

func TestDoExhaustsAttempts(t *testing.T) {
	boom := errors.New("boom")
	calls := 0
	err := Do(context.Background(), 4, Backoff{InitialDelay: time.Millisecond}, func() error {
		calls++
		return boom
	})
	if !errors.Is(err, boom) {
		t.Errorf("expected last error, got %v", err)
	}
	if calls != 4 {
		t.Errorf("expected 4 calls, got %d", calls)
	}
}

func TestDoContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Do(ctx, 5, Backoff{InitialDelay: time.Hour}, func() error {
		return errors.New("never succeeds")
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
