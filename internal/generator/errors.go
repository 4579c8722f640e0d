package generator

import (
	"errors"
	"fmt"
)

// Kind is the closed set of generation failure classes. Only KindRateLimited
// is retried; every other kind fails the article immediately.
type Kind string

const (
	KindRateLimited        Kind = "RATE_LIMITED"
	KindInvalidModel       Kind = "INVALID_MODEL"
	KindTimeout            Kind = "TIMEOUT"
	KindServiceUnavailable Kind = "SERVICE_UNAVAILABLE"
	KindNetwork            Kind = "NETWORK"
	KindUnknown            Kind = "UNKNOWN"
)

// Error is the typed outcome of a failed generation call.
type Error struct {
	Kind       Kind
	Status     int
	RawPayload string
	cause      error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("generation failed (%s): %v", e.Kind, e.cause)
	}
	return fmt.Sprintf("generation failed (%s, status = %d)", e.Kind, e.Status)
}

func (e *Error) Unwrap() error {
	return e.cause
}

// Retryable reports whether the coordinator may retry the same article.
func (e *Error) Retryable() bool {
	return e.Kind == KindRateLimited
}

// ErrArticleNotFound is returned by the preview builder when the requested
// article does not exist, is not eligible, or belongs to another owner.
var ErrArticleNotFound = errors.New("article not found or not eligible")

// ErrRunInProgress rejects a trigger while a run is already active for the
// same owner.
var ErrRunInProgress = errors.New("a run is already in progress for this owner")

// CooldownActiveError rejects a trigger inside the owner's cooldown window.
type CooldownActiveError struct {
	SecondsRemaining int64
}

func (e *CooldownActiveError) Error() string {
	return fmt.Sprintf("cooldown is active (%d seconds remaining)", e.SecondsRemaining)
}

const rateLimitExhaustedReason = "the generation service is receiving too many requests"
