package generator

import (
	"sync"

	"github.com/rafrcruz/lkdposts-sub001/internal/models"
)

// ProgressTracker holds the live run snapshot per owner. The run coordinator
// is the only writer for an owner; pollers read copies at any time.
type ProgressTracker struct {
	mu   sync.RWMutex
	runs map[string]*models.RunProgress
}

func NewProgressTracker() *ProgressTracker {
	return &ProgressTracker{
		runs: make(map[string]*models.RunProgress),
	}
}

// ProgressUpdate is a partial snapshot; nil fields keep their value.
type ProgressUpdate struct {
	Phase               *string
	EligibleCount       *int64
	ProcessedCount      *int64
	GeneratedCount      *int64
	FailedCount         *int64
	SkippedCount        *int64
	CurrentArticleTitle *string
	ModelUsed           *string
	Message             *string
}

func (t *ProgressTracker) Begin(ownerKey string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.runs[ownerKey] = &models.RunProgress{Phase: models.PhaseInitializing}
}

func (t *ProgressTracker) Update(ownerKey string, update ProgressUpdate) {
	t.mu.Lock()
	defer t.mu.Unlock()

	progress, ok := t.runs[ownerKey]
	if !ok {
		return
	}

	if update.Phase != nil {
		progress.Phase = *update.Phase
	}
	if update.EligibleCount != nil {
		progress.EligibleCount = cloneInt64(update.EligibleCount)
	}
	if update.ProcessedCount != nil {
		progress.ProcessedCount = *update.ProcessedCount
	}
	if update.GeneratedCount != nil {
		progress.GeneratedCount = *update.GeneratedCount
	}
	if update.FailedCount != nil {
		progress.FailedCount = *update.FailedCount
	}
	if update.SkippedCount != nil {
		progress.SkippedCount = *update.SkippedCount
	}
	if update.CurrentArticleTitle != nil {
		progress.CurrentArticleTitle = cloneString(update.CurrentArticleTitle)
	}
	if update.ModelUsed != nil {
		progress.ModelUsed = cloneString(update.ModelUsed)
	}
	if update.Message != nil {
		progress.Message = cloneString(update.Message)
	}
}

// Read returns a snapshot copy of the owner's live run, or nil when no run
// is in progress.
func (t *ProgressTracker) Read(ownerKey string) *models.RunProgress {
	t.mu.RLock()
	defer t.mu.RUnlock()

	progress, ok := t.runs[ownerKey]
	if !ok {
		return nil
	}

	snapshot := models.RunProgress{
		Phase:               progress.Phase,
		EligibleCount:       cloneInt64(progress.EligibleCount),
		ProcessedCount:      progress.ProcessedCount,
		GeneratedCount:      progress.GeneratedCount,
		FailedCount:         progress.FailedCount,
		SkippedCount:        progress.SkippedCount,
		CurrentArticleTitle: cloneString(progress.CurrentArticleTitle),
		ModelUsed:           cloneString(progress.ModelUsed),
		Message:             cloneString(progress.Message),
	}

	return &snapshot
}

func (t *ProgressTracker) End(ownerKey string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	delete(t.runs, ownerKey)
}

func cloneInt64(v *int64) *int64 {
	if v == nil {
		return nil
	}

	clone := *v

	return &clone
}

func cloneString(v *string) *string {
	if v == nil {
		return nil
	}

	clone := *v

	return &clone
}
