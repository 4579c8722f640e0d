package generator

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rafrcruz/lkdposts-sub001/internal/models"
)

func TestBuildPreviewUsesFirstEligibleArticle(t *testing.T) {
	store := newStubStore()
	store.articles = testArticles(3)
	store.prompts = []models.Prompt{
		{ID: 1, Title: "tone", Content: "Write in a neutral tone.", Position: 1, Enabled: true},
		{ID: 2, Title: "length", Content: "Keep it under 200 words.", Position: 2, Enabled: true},
	}

	runner, _ := newTestRunner(store, &stubRefresher{}, &stubClient{})

	preview, err := runner.BuildPreview(context.Background(), "owner", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	wantBase := "Write in a neutral tone.\n\nKeep it under 200 words."
	if preview.PromptBase != wantBase {
		t.Fatalf("prompt base = %q, want %q", preview.PromptBase, wantBase)
	}
	if preview.PromptBaseHash != PromptBaseHash(wantBase) {
		t.Fatalf("hash does not match prompt base")
	}
	if preview.Model != "test-model" {
		t.Fatalf("model = %q, want test-model", preview.Model)
	}
	if !strings.Contains(preview.NewsPayload, "Title: article 1") {
		t.Fatalf("payload does not target the first eligible article: %q", preview.NewsPayload)
	}
}

func TestBuildPreviewTargetsRequestedArticle(t *testing.T) {
	store := newStubStore()
	store.articles = testArticles(3)

	runner, _ := newTestRunner(store, &stubRefresher{}, &stubClient{})

	id := int64(2)
	preview, err := runner.BuildPreview(context.Background(), "owner", &id)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.Contains(preview.NewsPayload, "Title: article 2") {
		t.Fatalf("payload does not target article 2: %q", preview.NewsPayload)
	}
}

func TestBuildPreviewIsDeterministic(t *testing.T) {
	store := newStubStore()
	store.articles = testArticles(1)
	store.prompts = []models.Prompt{
		{ID: 1, Title: "tone", Content: "Be concise.", Position: 1, Enabled: true},
	}

	runner, _ := newTestRunner(store, &stubRefresher{}, &stubClient{})

	first, err := runner.BuildPreview(context.Background(), "owner", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	second, err := runner.BuildPreview(context.Background(), "owner", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if *first != *second {
		t.Fatalf("previews differ:\n%+v\n%+v", first, second)
	}
}

func TestBuildPreviewUnknownArticle(t *testing.T) {
	store := newStubStore()
	store.articles = testArticles(1)

	runner, _ := newTestRunner(store, &stubRefresher{}, &stubClient{})

	id := int64(42)
	if _, err := runner.BuildPreview(context.Background(), "owner", &id); !errors.Is(err, ErrArticleNotFound) {
		t.Fatalf("expected ErrArticleNotFound, got %v", err)
	}
}

func TestBuildPreviewNoEligibleArticles(t *testing.T) {
	runner, _ := newTestRunner(newStubStore(), &stubRefresher{}, &stubClient{})

	if _, err := runner.BuildPreview(context.Background(), "owner", nil); !errors.Is(err, ErrArticleNotFound) {
		t.Fatalf("expected ErrArticleNotFound, got %v", err)
	}
}

func TestBuildPreviewDoesNotTouchPosts(t *testing.T) {
	store := newStubStore()
	store.articles = testArticles(2)

	runner, _ := newTestRunner(store, &stubRefresher{}, &stubClient{})

	if _, err := runner.BuildPreview(context.Background(), "owner", nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	store.mu.Lock()
	defer store.mu.Unlock()
	if len(store.posts) != 0 {
		t.Fatalf("preview persisted %d generated posts", len(store.posts))
	}
}

func TestProbeRawForwardsUpstreamResponse(t *testing.T) {
	store := newStubStore()
	store.articles = testArticles(1)

	runner, _ := newTestRunner(store, &stubRefresher{}, &stubClient{})

	raw, err := runner.ProbeRaw(context.Background(), "owner", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if raw.Status != 200 || raw.Body != `{"ok":true}` {
		t.Fatalf("unexpected raw result: %+v", raw)
	}
}

func TestAssemblePromptBaseSkipsBlankContent(t *testing.T) {
	prompts := []models.Prompt{
		{Content: "First."},
		{Content: "   "},
		{Content: "Second."},
	}

	if got := AssemblePromptBase(prompts); got != "First.\n\nSecond." {
		t.Fatalf("prompt base = %q", got)
	}
}

func TestArticlePayloadFallsBackToRawContent(t *testing.T) {
	article := testArticles(1)[0]
	article.ContentSnippet = ""
	article.RawContentHTML = "<p>raw body</p>"

	payload := ArticlePayload(article)

	if !strings.Contains(payload, "<p>raw body</p>") {
		t.Fatalf("payload missing raw content fallback: %q", payload)
	}
	if !strings.Contains(payload, "Published: 2026-08-30T12:00:00Z") {
		t.Fatalf("payload missing published timestamp: %q", payload)
	}
}
