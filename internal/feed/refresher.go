package feed

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/rafrcruz/lkdposts-sub001/internal/models"
)

const refreshMaxConcurrencyGrowthFactor = 4

// Store is the slice of the persistence layer ingestion consumes.
type Store interface {
	ListFeeds(ctx context.Context, ownerKey string) ([]models.Feed, error)
	UpdateFeedTitle(ctx context.Context, feedID int64, feedTitle string) error
	TouchFeedFetched(ctx context.Context, feedID int64, fetchedAt time.Time) error
	InsertArticle(ctx context.Context, article *models.Article) (bool, error)
}

// Refresher fetches an owner's feeds and ingests new articles, reporting
// per-feed counts. A feed fetched within the cooldown window is skipped.
type Refresher struct {
	db       Store
	parser   *gofeed.Parser
	cooldown time.Duration
	now      func() time.Time
	log      *slog.Logger
}

func NewRefresher(db Store, feedCooldown time.Duration, log *slog.Logger) *Refresher {
	return &Refresher{
		db:       db,
		parser:   gofeed.NewParser(),
		cooldown: feedCooldown,
		now:      time.Now,
		log:      log,
	}
}

// RefreshOwnerFeeds ingests every feed of the owner concurrently. Per-feed
// fetch errors land on the result's Error field and never fail the refresh;
// results come back ordered by feed ID.
func (r *Refresher) RefreshOwnerFeeds(
	ctx context.Context,
	ownerKey string,
	windowDays int64,
) ([]models.FeedRefreshResult, error) {
	feeds, err := r.db.ListFeeds(ctx, ownerKey)
	if err != nil {
		return nil, fmt.Errorf("list feeds: %w", err)
	}

	if len(feeds) == 0 {
		return nil, nil
	}

	cutoff := r.now().UTC().AddDate(0, 0, -int(windowDays))

	var wg sync.WaitGroup

	concurrency := min(runtime.NumCPU()*refreshMaxConcurrencyGrowthFactor, len(feeds))
	semCh := make(chan struct{}, concurrency)

	results := make([]models.FeedRefreshResult, len(feeds))

	for i, feed := range feeds {
		wg.Add(1)
		semCh <- struct{}{}

		go func(idx int, copiedFeed models.Feed) {
			defer wg.Done()

			results[idx] = r.refreshFeed(ctx, copiedFeed, cutoff)

			<-semCh
		}(i, feed)
	}

	wg.Wait()

	slices.SortFunc(results, func(a, b models.FeedRefreshResult) int {
		return cmp.Compare(a.FeedID, b.FeedID)
	})

	return results, nil
}

func (r *Refresher) refreshFeed(
	ctx context.Context,
	feed models.Feed,
	cutoff time.Time,
) models.FeedRefreshResult {
	result := models.FeedRefreshResult{
		FeedID:    feed.ID,
		FeedTitle: feed.Title,
	}

	now := r.now().UTC()

	if r.cooldown > 0 && feed.LastFetchedAt != nil {
		elapsed := now.Sub(*feed.LastFetchedAt)
		if elapsed < r.cooldown {
			result.SkippedByCooldown = true
			result.CooldownSecondsRemaining = int64((r.cooldown - elapsed).Round(time.Second).Seconds())

			return result
		}
	}

	parsed, err := r.parser.ParseURLWithContext(feed.URL, ctx)
	if err != nil {
		result.Error = fmt.Sprintf("parse feed (URL = %s): %v", feed.URL, err)

		return result
	}

	if err = r.db.TouchFeedFetched(ctx, feed.ID, now); err != nil {
		r.log.WarnContext(ctx, "Failed to record feed fetch time",
			"error", err,
			"feedID", feed.ID)
	}

	parsedTitle := strings.TrimSpace(parsed.Title)
	if parsedTitle != "" && parsedTitle != feed.Title {
		if err = r.db.UpdateFeedTitle(ctx, feed.ID, parsedTitle); err != nil {
			r.log.WarnContext(ctx, "Failed to update feed title",
				"error", err,
				"feedID", feed.ID,
				"parsedTitle", parsedTitle)
		} else {
			result.FeedTitle = parsedTitle
		}
	}

	for _, item := range parsed.Items {
		result.ItemsRead++

		article, ok := r.parseItem(feed.ID, item)
		if !ok {
			result.InvalidItems++

			continue
		}

		if article.PublishedAt.Before(cutoff) {
			continue
		}
		result.ItemsWithinWindow++

		created, insertErr := r.db.InsertArticle(ctx, article)
		if insertErr != nil {
			r.log.WarnContext(ctx, "Failed to insert article",
				"error", insertErr,
				"feedID", feed.ID,
				"link", article.Link)
			result.InvalidItems++

			continue
		}

		if created {
			result.ArticlesCreated++
		} else {
			result.Duplicates++
		}
	}

	return result
}

func (r *Refresher) parseItem(feedID int64, item *gofeed.Item) (*models.Article, bool) {
	link := strings.TrimSpace(item.Link)
	if link == "" {
		return nil, false
	}

	var published time.Time
	switch {
	case item.PublishedParsed != nil:
		published = item.PublishedParsed.UTC()
	case item.UpdatedParsed != nil:
		published = item.UpdatedParsed.UTC()
	default:
		return nil, false
	}

	rawContent := item.Content
	if strings.TrimSpace(rawContent) == "" {
		rawContent = item.Description
	}

	return &models.Article{
		FeedID:         feedID,
		Title:          strings.TrimSpace(item.Title),
		Link:           link,
		ContentSnippet: Snippet(rawContent),
		RawContentHTML: rawContent,
		PublishedAt:    published,
	}, true
}
