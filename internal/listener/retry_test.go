package listener

import (
	"context"
	"testing"
	"time"
)

func TestRetryPolicy_Delay(t *testing.T) {
	p := RetryPolicy{
		InitialInterval: 100 * time.Millisecond,
		MaxInterval:     time.Second,
		Multiplier:      2,
	}

	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{1, 100 * time.Millisecond},
		{2, 200 * time.Millisecond},
		{3, 400 * time.Millisecond},
		{4, 800 * time.Millisecond},
		{5, time.Second},
		{20, time.Second},
	}
	for _, tt := range tests {
		if got := p.Delay(tt.attempt); got != tt.want {
			t.Errorf("Delay(%d) = %v, want %v", tt.attempt, got, tt.want)
		}
	}
}

func TestRetryPolicy_FixedDelay(t *testing.T) {
	p := RetryPolicy{InitialInterval: 50 * time.Millisecond, Multiplier: 1}
	if p.Delay(1) != p.Delay(5) {
		t.Error("multiplier 1 should give fixed delay")
	}
}

func TestRetryPolicy_Exhausted(t *testing.T) {
	if (RetryPolicy{}).Exhausted(1000) {
		t.Error("MaxAttempts=0 must retry forever")
	}
	p := RetryPolicy{MaxAttempts: 3}
	if p.Exhausted(2) || !p.Exhausted(3) {
		t.Error("expected exhaustion exactly at attempt 3")
	}
}

func TestSleep_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	if err := sleep(ctx, time.Minute); err == nil {
		t.Error("expected context error")
	}
	if time.Since(start) > time.Second {
		t.Error("sleep ignored cancellation")
	}
}
