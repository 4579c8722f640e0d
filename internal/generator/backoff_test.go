package generator

import (
	"testing"
	"time"
)

func TestBackoffPolicyNextDelayDoubles(t *testing.T) {
	policy := DefaultBackoffPolicy()

	expected := []time.Duration{
		time.Second,
		2 * time.Second,
		4 * time.Second,
		8 * time.Second,
		16 * time.Second,
	}

	for i, want := range expected {
		attempt := int64(i + 1)
		if got := policy.NextDelay(attempt); got != want {
			t.Fatalf("NextDelay(%d) = %v, want %v", attempt, got, want)
		}
	}
}

func TestBackoffPolicyNextDelayCapped(t *testing.T) {
	policy := DefaultBackoffPolicy()

	if got := policy.NextDelay(6); got != policy.MaxDelay {
		t.Fatalf("NextDelay(6) = %v, want cap %v", got, policy.MaxDelay)
	}

	if got := policy.NextDelay(50); got != policy.MaxDelay {
		t.Fatalf("NextDelay(50) = %v, want cap %v", got, policy.MaxDelay)
	}
}

func TestBackoffPolicyNextDelayClampsLowAttempts(t *testing.T) {
	policy := DefaultBackoffPolicy()

	if got := policy.NextDelay(0); got != policy.Base {
		t.Fatalf("NextDelay(0) = %v, want base %v", got, policy.Base)
	}
}

func TestBackoffPolicyExhausted(t *testing.T) {
	policy := DefaultBackoffPolicy()

	for attempt := int64(1); attempt <= policy.MaxAttempts; attempt++ {
		if policy.Exhausted(attempt) {
			t.Fatalf("Exhausted(%d) = true, want false", attempt)
		}
	}

	if !policy.Exhausted(policy.MaxAttempts + 1) {
		t.Fatalf("Exhausted(%d) = false, want true", policy.MaxAttempts+1)
	}
}
