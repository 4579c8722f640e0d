package generator

import "time"

const (
	defaultBackoffBase        = time.Second
	defaultBackoffMaxDelay    = 30 * time.Second
	defaultBackoffMaxAttempts = 5
)

// BackoffPolicy computes retry delays for rate-limited generation calls.
// The zero value is not usable; construct with DefaultBackoffPolicy.
type BackoffPolicy struct {
	Base        time.Duration
	MaxDelay    time.Duration
	MaxAttempts int64
}

func DefaultBackoffPolicy() BackoffPolicy {
	return BackoffPolicy{
		Base:        defaultBackoffBase,
		MaxDelay:    defaultBackoffMaxDelay,
		MaxAttempts: defaultBackoffMaxAttempts,
	}
}

// NextDelay returns the wait before the attempt following attemptNumber:
// base doubled per attempt, capped at MaxDelay.
func (p BackoffPolicy) NextDelay(attemptNumber int64) time.Duration {
	if attemptNumber < 1 {
		attemptNumber = 1
	}

	delay := p.Base
	for i := int64(1); i < attemptNumber; i++ {
		delay *= 2
		if delay >= p.MaxDelay {
			return p.MaxDelay
		}
	}

	return min(delay, p.MaxDelay)
}

// Exhausted reports whether attemptNumber is past the attempt ceiling.
func (p BackoffPolicy) Exhausted(attemptNumber int64) bool {
	return attemptNumber > p.MaxAttempts
}
