package models

import "time"

// Feed is one RSS/Atom source registered by an owner.
type Feed struct {
	ID            int64      `json:"id"`
	OwnerKey      string     `json:"-"`
	URL           string     `json:"url"`
	Title         string     `json:"title"`
	LastFetchedAt *time.Time `json:"lastFetchedAt,omitempty"`
}

// Article is one ingested feed item. Immutable once stored.
type Article struct {
	ID             int64     `json:"id"`
	FeedID         int64     `json:"feedId"`
	Title          string    `json:"title"`
	Link           string    `json:"link"`
	ContentSnippet string    `json:"contentSnippet"`
	RawContentHTML string    `json:"-"`
	PublishedAt    time.Time `json:"publishedAt"`
}

// Prompt is one owner-configured prompt fragment. Enabled prompts are
// concatenated in Position order to form the generation prompt base.
type Prompt struct {
	ID       int64  `json:"id"`
	OwnerKey string `json:"-"`
	Title    string `json:"title"`
	Content  string `json:"content"`
	Position int64  `json:"position"`
	Enabled  bool   `json:"enabled"`
}

// Generated post statuses.
const (
	PostStatusPending = "PENDING"
	PostStatusSuccess = "SUCCESS"
	PostStatusFailed  = "FAILED"
)

// GeneratedPost tracks the generation outcome for one article.
type GeneratedPost struct {
	ID           int64      `json:"id"`
	ArticleID    int64      `json:"articleId"`
	Content      *string    `json:"content"`
	Status       string     `json:"status"`
	ModelUsed    *string    `json:"modelUsed"`
	TokensInput  *int64     `json:"tokensInput"`
	TokensOutput *int64     `json:"tokensOutput"`
	AttemptCount int64      `json:"attemptCount"`
	ErrorReason  *string    `json:"errorReason"`
	GeneratedAt  *time.Time `json:"generatedAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// OwnerSettings holds the per-owner generation parameters.
type OwnerSettings struct {
	OwnerKey        string `json:"-"`
	WindowDays      int64  `json:"windowDays"`
	CooldownSeconds int64  `json:"cooldownSeconds"`
	Model           string `json:"model"`
}

// Run phases, in allowed order. PhaseFailed is reachable from any phase
// and is terminal.
const (
	PhaseInitializing       = "initializing"
	PhaseResolvingParams    = "resolving_params"
	PhaseLoadingPrompts     = "loading_prompts"
	PhaseCollectingArticles = "collecting_articles"
	PhaseGeneratingPosts    = "generating_posts"
	PhaseFinalizing         = "finalizing"
	PhaseCompleted          = "completed"
	PhaseFailed             = "failed"
)

// RunProgress is the live snapshot of one owner's run, read by pollers.
type RunProgress struct {
	Phase               string  `json:"phase"`
	EligibleCount       *int64  `json:"eligibleCount"`
	ProcessedCount      int64   `json:"processedCount"`
	GeneratedCount      int64   `json:"generatedCount"`
	FailedCount         int64   `json:"failedCount"`
	SkippedCount        int64   `json:"skippedCount"`
	CurrentArticleTitle *string `json:"currentArticleTitle"`
	ModelUsed           *string `json:"modelUsed"`
	Message             *string `json:"message"`
}

// FeedRefreshResult is the per-feed ingestion outcome of one run.
type FeedRefreshResult struct {
	FeedID                   int64  `json:"feedId"`
	FeedTitle                string `json:"feedTitle"`
	ItemsRead                int64  `json:"itemsRead"`
	ItemsWithinWindow        int64  `json:"itemsWithinWindow"`
	ArticlesCreated          int64  `json:"articlesCreated"`
	Duplicates               int64  `json:"duplicates"`
	InvalidItems             int64  `json:"invalidItems"`
	SkippedByCooldown        bool   `json:"skippedByCooldown"`
	CooldownSecondsRemaining int64  `json:"cooldownSecondsRemaining"`
	Error                    string `json:"error,omitempty"`
}

// RunOutcome is the synchronous response of a completed run.
type RunOutcome struct {
	Feeds          []FeedRefreshResult `json:"feeds"`
	EligibleCount  int64               `json:"eligibleCount"`
	GeneratedCount int64               `json:"generatedCount"`
	FailedCount    int64               `json:"failedCount"`
	SkippedCount   int64               `json:"skippedCount"`
	Error          string              `json:"error,omitempty"`
}
