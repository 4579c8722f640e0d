package feed

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"mvdan.cc/xurls/v2"

	"github.com/rafrcruz/lkdposts-sub001/internal/models"
)

const snippetMaxChars = 500

// Snippet extracts a plain-text excerpt from feed item HTML for the
// generation payload.
func Snippet(rawHTML string) string {
	rawHTML = strings.TrimSpace(rawHTML)
	if rawHTML == "" {
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return truncate(collapseWhitespace(rawHTML))
	}

	return truncate(collapseWhitespace(doc.Text()))
}

// DiscoverFeeds extracts https URLs from free text and keeps the ones that
// parse as feeds, deduplicated in input order.
func (r *Refresher) DiscoverFeeds(ctx context.Context, text string) ([]models.Feed, error) {
	httpsURLRe, err := xurls.StrictMatchingScheme("https://")
	if err != nil {
		return nil, fmt.Errorf("create regexp: %w", err)
	}

	urls := httpsURLRe.FindAllString(strings.TrimSpace(text), -1)

	feeds := make([]models.Feed, 0, len(urls))
	seen := make(map[string]struct{}, len(urls))
	var errs []error

	for _, u := range urls {
		trimmed := strings.TrimSpace(u)

		feed, validateErr := r.validateFeed(ctx, trimmed)
		if validateErr != nil {
			errs = append(errs, fmt.Errorf("validate feed: %w", validateErr))

			continue
		}

		if _, ok := seen[feed.URL]; ok {
			continue
		}

		feeds = append(feeds, *feed)
		seen[feed.URL] = struct{}{}
	}

	return feeds, errors.Join(errs...)
}

func (r *Refresher) validateFeed(ctx context.Context, feedURL string) (*models.Feed, error) {
	feedURL = strings.TrimSpace(feedURL)
	if feedURL == "" {
		return nil, errors.New("feed URL is empty")
	}

	if _, err := url.Parse(feedURL); err != nil {
		return nil, fmt.Errorf("parse URL: %w", err)
	}

	parsed, err := r.parser.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("parse feed (URL = %s): %w", feedURL, err)
	}

	title := strings.TrimSpace(parsed.Title)
	if title == "" {
		r.log.WarnContext(ctx, "Empty feed title",
			"feedURL", feedURL,
			"fallbackTitle", feedURL)

		title = feedURL
	}

	return &models.Feed{URL: feedURL, Title: title}, nil
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncate(s string) string {
	if len(s) <= snippetMaxChars {
		return s
	}

	cut := s[:snippetMaxChars]
	if idx := strings.LastIndexByte(cut, ' '); idx > 0 {
		cut = cut[:idx]
	}

	return cut + "…"
}
