package generator

import (
	"sync"
	"time"
)

// CooldownGuard is the per-owner last-run-start store. Admission is
// test-and-set under one lock so two near-simultaneous triggers cannot both
// pass for the same owner.
type CooldownGuard struct {
	mu      sync.Mutex
	lastRun map[string]time.Time
}

func NewCooldownGuard() *CooldownGuard {
	return &CooldownGuard{
		lastRun: make(map[string]time.Time),
	}
}

// TryStart admits a run and records now as the owner's last run start, or
// reports the remaining cooldown. The record is mutated only on admission.
func (g *CooldownGuard) TryStart(
	ownerKey string,
	cooldown time.Duration,
	now time.Time,
) (bool, time.Duration) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if cooldown > 0 {
		if lastRun, ok := g.lastRun[ownerKey]; ok {
			elapsed := now.Sub(lastRun)
			if elapsed < cooldown {
				return false, cooldown - elapsed
			}
		}
	}

	g.lastRun[ownerKey] = now

	return true, 0
}
