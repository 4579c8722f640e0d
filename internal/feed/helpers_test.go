package feed

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestSnippetStripsMarkupAndCollapsesWhitespace(t *testing.T) {
	raw := "<p>First   line</p>\n<p>Second <b>line</b></p>"

	if got := Snippet(raw); got != "First line Second line" {
		t.Fatalf("snippet = %q", got)
	}
}

func TestSnippetEmptyInput(t *testing.T) {
	if got := Snippet("   \n  "); got != "" {
		t.Fatalf("snippet = %q, want empty", got)
	}
}

func TestSnippetTruncatesOnWordBoundary(t *testing.T) {
	raw := strings.Repeat("word ", 200)

	got := Snippet(raw)
	if len(got) > snippetMaxChars+len("…") {
		t.Fatalf("snippet too long: %d chars", len(got))
	}
	if !strings.HasSuffix(got, "…") {
		t.Fatalf("truncated snippet missing ellipsis: %q", got)
	}
	if strings.HasSuffix(strings.TrimSuffix(got, "…"), " ") {
		t.Fatalf("snippet cut mid-word: %q", got)
	}
}

func TestDiscoverFeedsDeduplicatesAndValidates(t *testing.T) {
	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		fmt.Fprint(w, rssBody())
	}))
	t.Cleanup(server.Close)

	refresher := NewRefresher(newFeedStore(), 0, slog.Default())
	refresher.parser.Client = server.Client()

	text := fmt.Sprintf("check %s and again %s please", server.URL, server.URL)

	feeds, err := refresher.DiscoverFeeds(context.Background(), text)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(feeds) != 1 {
		t.Fatalf("expected 1 feed, got %d", len(feeds))
	}
	if feeds[0].URL != server.URL {
		t.Fatalf("feed URL = %q, want %q", feeds[0].URL, server.URL)
	}
	if feeds[0].Title != "Example Feed" {
		t.Fatalf("feed title = %q", feeds[0].Title)
	}
}

func TestDiscoverFeedsReportsInvalidURLs(t *testing.T) {
	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	t.Cleanup(server.Close)

	refresher := NewRefresher(newFeedStore(), 0, slog.Default())
	refresher.parser.Client = server.Client()

	feeds, err := refresher.DiscoverFeeds(context.Background(), "broken: "+server.URL)
	if err == nil {
		t.Fatal("expected a validation error")
	}
	if len(feeds) != 0 {
		t.Fatalf("expected no feeds, got %+v", feeds)
	}
}

func TestDiscoverFeedsNoURLs(t *testing.T) {
	refresher := NewRefresher(newFeedStore(), 0, slog.Default())

	feeds, err := refresher.DiscoverFeeds(context.Background(), "nothing to see here")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(feeds) != 0 {
		t.Fatalf("expected no feeds, got %+v", feeds)
	}
}
