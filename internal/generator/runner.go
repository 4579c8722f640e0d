package generator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rafrcruz/lkdposts-sub001/internal/models"
)

// Store is the slice of the persistence layer the coordinator consumes.
type Store interface {
	ListEligibleArticles(
		ctx context.Context,
		ownerKey string,
		windowDays int64,
		now time.Time,
	) ([]models.Article, error)
	GetEligibleArticle(
		ctx context.Context,
		ownerKey string,
		articleID int64,
		windowDays int64,
		now time.Time,
	) (*models.Article, error)
	GetGeneratedPostByArticle(ctx context.Context, articleID int64) (*models.GeneratedPost, error)
	UpsertGeneratedPost(ctx context.Context, post *models.GeneratedPost) error
	GetOwnerSettingsWithDefault(
		ctx context.Context,
		ownerKey string,
		defaults models.OwnerSettings,
	) (*models.OwnerSettings, error)
	ListEnabledPromptsOrdered(ctx context.Context, ownerKey string) ([]models.Prompt, error)
}

// FeedRefresher ingests the owner's feeds before article collection and
// reports per-feed counts for the run outcome.
type FeedRefresher interface {
	RefreshOwnerFeeds(
		ctx context.Context,
		ownerKey string,
		windowDays int64,
	) ([]models.FeedRefreshResult, error)
}

// Runner coordinates generation runs. At most one run executes per owner;
// per-owner run state is created at run start and destroyed at run end.
type Runner struct {
	store     Store
	refresher FeedRefresher
	client    Client
	tracker   *ProgressTracker
	cooldowns *CooldownGuard
	backoff   BackoffPolicy
	defaults  models.OwnerSettings
	log       *slog.Logger

	inflightMu sync.Mutex
	inflight   map[string]struct{}

	// Overridable in tests.
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

func NewRunner(
	store Store,
	refresher FeedRefresher,
	client Client,
	tracker *ProgressTracker,
	defaults models.OwnerSettings,
	log *slog.Logger,
) *Runner {
	return &Runner{
		store:     store,
		refresher: refresher,
		client:    client,
		tracker:   tracker,
		cooldowns: NewCooldownGuard(),
		backoff:   DefaultBackoffPolicy(),
		defaults:  defaults,
		log:       log,
		inflight:  make(map[string]struct{}),
		now:       time.Now,
		sleep:     sleepContext,
	}
}

// Progress returns the owner's live run snapshot, or nil when no run is
// active. Never blocks on a running generation.
func (r *Runner) Progress(ownerKey string) *models.RunProgress {
	return r.tracker.Read(ownerKey)
}

// Run executes one generation run for the owner and blocks until it reaches
// a terminal phase. Admission rejections (ErrRunInProgress,
// *CooldownActiveError) are returned as errors before any state is touched;
// a run-level failure after admission is reported on RunOutcome.Error.
func (r *Runner) Run(ctx context.Context, ownerKey string) (*models.RunOutcome, error) {
	if err := r.acquire(ownerKey); err != nil {
		return nil, err
	}
	defer r.release(ownerKey)

	settings, err := r.store.GetOwnerSettingsWithDefault(ctx, ownerKey, r.defaults)
	if err != nil {
		return nil, fmt.Errorf("load owner settings: %w", err)
	}

	cooldown := time.Duration(settings.CooldownSeconds) * time.Second
	if allowed, remaining := r.cooldowns.TryStart(ownerKey, cooldown, r.now()); !allowed {
		return nil, &CooldownActiveError{
			SecondsRemaining: int64(remaining.Round(time.Second).Seconds()),
		}
	}

	runID := uuid.NewString()
	log := r.log.With("runID", runID, "ownerKey", ownerKey)

	r.tracker.Begin(ownerKey)
	defer r.tracker.End(ownerKey)

	outcome, runErr := r.execute(ctx, log, ownerKey, settings)
	if runErr != nil {
		log.ErrorContext(ctx, "Run failed",
			"error", runErr,
			"phase", models.PhaseFailed)

		r.tracker.Update(ownerKey, ProgressUpdate{
			Phase:   ptr(models.PhaseFailed),
			Message: ptr(runErr.Error()),
		})

		if outcome == nil {
			outcome = &models.RunOutcome{}
		}
		outcome.Error = runErr.Error()

		return outcome, nil
	}

	log.InfoContext(ctx, "Run completed",
		"eligibleCount", outcome.EligibleCount,
		"generatedCount", outcome.GeneratedCount,
		"failedCount", outcome.FailedCount,
		"skippedCount", outcome.SkippedCount)

	return outcome, nil
}

func (r *Runner) acquire(ownerKey string) error {
	r.inflightMu.Lock()
	defer r.inflightMu.Unlock()

	if _, ok := r.inflight[ownerKey]; ok {
		return ErrRunInProgress
	}
	r.inflight[ownerKey] = struct{}{}

	return nil
}

func (r *Runner) release(ownerKey string) {
	r.inflightMu.Lock()
	defer r.inflightMu.Unlock()

	delete(r.inflight, ownerKey)
}

func (r *Runner) execute(
	ctx context.Context,
	log *slog.Logger,
	ownerKey string,
	settings *models.OwnerSettings,
) (*models.RunOutcome, error) {
	r.tracker.Update(ownerKey, ProgressUpdate{
		Phase:     ptr(models.PhaseResolvingParams),
		ModelUsed: ptr(settings.Model),
	})

	r.tracker.Update(ownerKey, ProgressUpdate{Phase: ptr(models.PhaseLoadingPrompts)})

	prompts, err := r.store.ListEnabledPromptsOrdered(ctx, ownerKey)
	if err != nil {
		return nil, fmt.Errorf("load prompts: %w", err)
	}
	promptBase := AssemblePromptBase(prompts)

	r.tracker.Update(ownerKey, ProgressUpdate{Phase: ptr(models.PhaseCollectingArticles)})

	feedResults, err := r.refresher.RefreshOwnerFeeds(ctx, ownerKey, settings.WindowDays)
	if err != nil {
		return nil, fmt.Errorf("refresh feeds: %w", err)
	}

	articles, err := r.store.ListEligibleArticles(ctx, ownerKey, settings.WindowDays, r.now())
	if err != nil {
		return &models.RunOutcome{Feeds: feedResults},
			fmt.Errorf("collect eligible articles: %w", err)
	}

	eligible := int64(len(articles))
	r.tracker.Update(ownerKey, ProgressUpdate{
		Phase:         ptr(models.PhaseGeneratingPosts),
		EligibleCount: &eligible,
	})

	var processed, generated, failed, skipped int64

	for _, article := range articles {
		if ctx.Err() != nil {
			return &models.RunOutcome{
					Feeds:          feedResults,
					EligibleCount:  eligible,
					GeneratedCount: generated,
					FailedCount:    failed,
					SkippedCount:   skipped,
				},
				fmt.Errorf("run interrupted: %w", ctx.Err())
		}

		r.tracker.Update(ownerKey, ProgressUpdate{
			CurrentArticleTitle: ptr(article.Title),
		})

		status, genErr := r.generateOne(ctx, log, promptBase, settings.Model, article)
		switch status {
		case models.PostStatusSuccess:
			generated++
		case models.PostStatusFailed:
			failed++
		default:
			skipped++
		}

		if genErr != nil {
			// One bad article never aborts the batch.
			log.WarnContext(ctx, "Article generation failed",
				"error", genErr,
				"articleID", article.ID,
				"articleTitle", article.Title)
		}

		processed++
		r.tracker.Update(ownerKey, ProgressUpdate{
			ProcessedCount: &processed,
			GeneratedCount: &generated,
			FailedCount:    &failed,
			SkippedCount:   &skipped,
		})
	}

	r.tracker.Update(ownerKey, ProgressUpdate{Phase: ptr(models.PhaseFinalizing)})

	outcome := &models.RunOutcome{
		Feeds:          feedResults,
		EligibleCount:  eligible,
		GeneratedCount: generated,
		FailedCount:    failed,
		SkippedCount:   skipped,
	}

	r.tracker.Update(ownerKey, ProgressUpdate{Phase: ptr(models.PhaseCompleted)})

	return outcome, nil
}

// generateOne drives one article to a terminal status, retrying only
// rate-limited calls until the backoff policy is exhausted. Returns the
// terminal post status and, for failures, the recorded error.
func (r *Runner) generateOne(
	ctx context.Context,
	log *slog.Logger,
	promptBase string,
	model string,
	article models.Article,
) (string, error) {
	post, err := r.store.GetGeneratedPostByArticle(ctx, article.ID)
	if err != nil {
		return models.PostStatusFailed, fmt.Errorf("load generated post: %w", err)
	}

	if post == nil {
		post = &models.GeneratedPost{
			ArticleID: article.ID,
			Status:    models.PostStatusPending,
		}
	} else if post.Status == models.PostStatusSuccess {
		// Another writer finished this article since collection.
		return "", nil
	}

	req := Request{
		PromptBase: promptBase,
		Article:    article,
		Model:      model,
	}

	for {
		post.AttemptCount++
		post.Status = models.PostStatusPending
		post.UpdatedAt = r.now().UTC()

		if err = r.store.UpsertGeneratedPost(ctx, post); err != nil {
			return models.PostStatusFailed, fmt.Errorf("persist attempt: %w", err)
		}

		result, genErr := r.client.Generate(ctx, req)
		if genErr == nil {
			now := r.now().UTC()
			post.Status = models.PostStatusSuccess
			post.Content = &result.Content
			post.ModelUsed = &result.ModelUsed
			post.TokensInput = &result.TokensInput
			post.TokensOutput = &result.TokensOutput
			post.ErrorReason = nil
			post.GeneratedAt = &now
			post.UpdatedAt = now

			if err = r.store.UpsertGeneratedPost(ctx, post); err != nil {
				return models.PostStatusFailed, fmt.Errorf("persist success: %w", err)
			}

			return models.PostStatusSuccess, nil
		}

		var typed *Error
		if !errors.As(genErr, &typed) {
			typed = &Error{Kind: KindUnknown, cause: genErr}
		}

		if typed.Retryable() && !r.backoff.Exhausted(post.AttemptCount+1) {
			delay := r.backoff.NextDelay(post.AttemptCount)

			log.InfoContext(ctx, "Rate limited, backing off",
				"articleID", article.ID,
				"attemptCount", post.AttemptCount,
				"delay", delay)

			if sleepErr := r.sleep(ctx, delay); sleepErr != nil {
				return r.failPost(ctx, post, fmt.Sprintf("run interrupted: %v", sleepErr))
			}

			continue
		}

		reason := typed.Error()
		if typed.Retryable() {
			reason = rateLimitExhaustedReason
		}

		return r.failPost(ctx, post, reason)
	}
}

func (r *Runner) failPost(
	ctx context.Context,
	post *models.GeneratedPost,
	reason string,
) (string, error) {
	post.Status = models.PostStatusFailed
	post.ErrorReason = &reason
	post.UpdatedAt = r.now().UTC()

	if err := r.store.UpsertGeneratedPost(ctx, post); err != nil {
		return models.PostStatusFailed, fmt.Errorf("persist failure: %w", err)
	}

	return models.PostStatusFailed, errors.New(reason)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	select {
	case <-time.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func ptr[T any](v T) *T {
	return &v
}
