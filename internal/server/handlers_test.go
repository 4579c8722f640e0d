package server

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/tidwall/gjson"

	"github.com/rafrcruz/lkdposts-sub001/internal/feed"
	"github.com/rafrcruz/lkdposts-sub001/internal/generator"
	"github.com/rafrcruz/lkdposts-sub001/internal/models"
)

const testSecret = "test-secret"

type stubRunner struct {
	outcome  *models.RunOutcome
	runErr   error
	progress *models.RunProgress
	preview  *generator.Preview
	raw      *generator.RawResult
	buildErr error
}

func (r *stubRunner) Run(_ context.Context, _ string) (*models.RunOutcome, error) {
	return r.outcome, r.runErr
}

func (r *stubRunner) Progress(_ string) *models.RunProgress {
	return r.progress
}

func (r *stubRunner) BuildPreview(
	_ context.Context,
	_ string,
	_ *int64,
) (*generator.Preview, error) {
	return r.preview, r.buildErr
}

func (r *stubRunner) ProbeRaw(
	_ context.Context,
	_ string,
	_ *int64,
) (*generator.RawResult, error) {
	return r.raw, r.buildErr
}

type stubServerStore struct {
	posts    []models.GeneratedPost
	prompts  []models.Prompt
	settings models.OwnerSettings

	lastLimit  int64
	lastOffset int64
}

func (s *stubServerStore) AddFeed(_ context.Context, _, _, _ string) error { return nil }

func (s *stubServerStore) RemoveFeed(_ context.Context, _ string, _ int64) error { return nil }

func (s *stubServerStore) ListFeedsPage(
	_ context.Context,
	_ string,
	limit int64,
	offset int64,
) ([]models.Feed, int64, error) {
	s.lastLimit = limit
	s.lastOffset = offset

	return nil, 0, nil
}

func (s *stubServerStore) ListPrompts(_ context.Context, _ string) ([]models.Prompt, error) {
	return s.prompts, nil
}

func (s *stubServerStore) AddPrompt(_ context.Context, prompt *models.Prompt) error {
	prompt.ID = 1
	s.prompts = append(s.prompts, *prompt)

	return nil
}

func (s *stubServerStore) UpdatePrompt(_ context.Context, _ *models.Prompt) error { return nil }

func (s *stubServerStore) RemovePrompt(_ context.Context, _ string, _ int64) error { return nil }

func (s *stubServerStore) ReorderPrompts(_ context.Context, _ string, _ []int64) error {
	return nil
}

func (s *stubServerStore) ListGeneratedPosts(
	_ context.Context,
	_ string,
	limit int64,
	offset int64,
) ([]models.GeneratedPost, error) {
	s.lastLimit = limit
	s.lastOffset = offset

	return s.posts, nil
}

func (s *stubServerStore) GetOwnerSettingsWithDefault(
	_ context.Context,
	ownerKey string,
	defaults models.OwnerSettings,
) (*models.OwnerSettings, error) {
	settings := s.settings
	if settings.Model == "" {
		settings = defaults
	}
	settings.OwnerKey = ownerKey

	return &settings, nil
}

func (s *stubServerStore) UpsertOwnerSettings(_ context.Context, settings *models.OwnerSettings) error {
	s.settings = *settings

	return nil
}

type emptyFeedStore struct{}

func (emptyFeedStore) ListFeeds(_ context.Context, _ string) ([]models.Feed, error) {
	return nil, nil
}

func (emptyFeedStore) UpdateFeedTitle(_ context.Context, _ int64, _ string) error { return nil }

func (emptyFeedStore) TouchFeedFetched(_ context.Context, _ int64, _ time.Time) error {
	return nil
}

func (emptyFeedStore) InsertArticle(_ context.Context, _ *models.Article) (bool, error) {
	return false, nil
}

func newTestServer(runner Runner, store Store) *Server {
	discovery := feed.NewRefresher(emptyFeedStore{}, 0, slog.Default())
	defaults := models.OwnerSettings{
		WindowDays:      7,
		CooldownSeconds: 3600,
		Model:           "test-model",
	}

	return New(":0", testSecret, runner, store, discovery, defaults, slog.Default())
}

func mintToken(t *testing.T, subject string, admin bool) string {
	t.Helper()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, authClaims{
		Admin: admin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})

	signed, err := token.SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	return signed
}

func doRequest(
	t *testing.T,
	s *Server,
	method string,
	path string,
	token string,
	body string,
) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	rec := httptest.NewRecorder()
	s.engine.ServeHTTP(rec, req)

	return rec
}

func TestHealthzIsPublic(t *testing.T) {
	s := newTestServer(&stubRunner{}, &stubServerStore{})

	rec := doRequest(t, s, http.MethodGet, "/healthz", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestAuthRejectsMissingAndInvalidTokens(t *testing.T) {
	s := newTestServer(&stubRunner{}, &stubServerStore{})

	if rec := doRequest(t, s, http.MethodGet, "/posts", "", ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("missing token status = %d, want 401", rec.Code)
	}

	if rec := doRequest(t, s, http.MethodGet, "/posts", "not-a-jwt", ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("invalid token status = %d, want 401", rec.Code)
	}
}

func TestRefreshPostsReturnsOutcome(t *testing.T) {
	runner := &stubRunner{outcome: &models.RunOutcome{
		Feeds:          []models.FeedRefreshResult{{FeedID: 1, ArticlesCreated: 2}},
		EligibleCount:  3,
		GeneratedCount: 2,
		FailedCount:    1,
	}}

	s := newTestServer(runner, &stubServerStore{})
	token := mintToken(t, "owner", false)

	rec := doRequest(t, s, http.MethodPost, "/posts/refresh", token, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	body := rec.Body.String()
	if gjson.Get(body, "generatedCount").Int() != 2 {
		t.Fatalf("generatedCount missing from response: %s", body)
	}
	if gjson.Get(body, "feeds.0.articlesCreated").Int() != 2 {
		t.Fatalf("feed counts missing from response: %s", body)
	}
}

func TestRefreshPostsRunInProgressConflict(t *testing.T) {
	runner := &stubRunner{runErr: generator.ErrRunInProgress}

	s := newTestServer(runner, &stubServerStore{})
	token := mintToken(t, "owner", false)

	rec := doRequest(t, s, http.MethodPost, "/posts/refresh", token, "")
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}
	if gjson.Get(rec.Body.String(), "code").String() != "RUN_IN_PROGRESS" {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
}

func TestRefreshPostsCooldownConflict(t *testing.T) {
	runner := &stubRunner{runErr: &generator.CooldownActiveError{SecondsRemaining: 3590}}

	s := newTestServer(runner, &stubServerStore{})
	token := mintToken(t, "owner", false)

	rec := doRequest(t, s, http.MethodPost, "/posts/refresh", token, "")
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}

	body := rec.Body.String()
	if gjson.Get(body, "code").String() != "COOLDOWN_ACTIVE" {
		t.Fatalf("unexpected body: %s", body)
	}
	if gjson.Get(body, "secondsRemaining").Int() != 3590 {
		t.Fatalf("secondsRemaining missing: %s", body)
	}
}

func TestRefreshStatusNullWhenIdle(t *testing.T) {
	s := newTestServer(&stubRunner{}, &stubServerStore{})
	token := mintToken(t, "owner", false)

	rec := doRequest(t, s, http.MethodGet, "/posts/refresh-status", token, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if got := strings.TrimSpace(rec.Body.String()); got != "null" {
		t.Fatalf("body = %q, want null", got)
	}
}

func TestRefreshStatusReportsLiveRun(t *testing.T) {
	eligible := int64(10)
	runner := &stubRunner{progress: &models.RunProgress{
		Phase:          models.PhaseGeneratingPosts,
		EligibleCount:  &eligible,
		ProcessedCount: 4,
		GeneratedCount: 3,
		FailedCount:    1,
	}}

	s := newTestServer(runner, &stubServerStore{})
	token := mintToken(t, "owner", false)

	rec := doRequest(t, s, http.MethodGet, "/posts/refresh-status", token, "")

	body := rec.Body.String()
	if gjson.Get(body, "phase").String() != models.PhaseGeneratingPosts {
		t.Fatalf("unexpected phase: %s", body)
	}
	if gjson.Get(body, "eligibleCount").Int() != 10 {
		t.Fatalf("unexpected eligibleCount: %s", body)
	}
}

func TestPreviewRequiresAdmin(t *testing.T) {
	s := newTestServer(&stubRunner{}, &stubServerStore{})
	token := mintToken(t, "owner", false)

	rec := doRequest(t, s, http.MethodGet, "/posts/preview", token, "")
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
}

func TestPreviewReturnsAssembledRequest(t *testing.T) {
	runner := &stubRunner{preview: &generator.Preview{
		PromptBase:     "base",
		PromptBaseHash: "abc123",
		NewsPayload:    "Title: article 1",
		Model:          "test-model",
	}}

	s := newTestServer(runner, &stubServerStore{})
	token := mintToken(t, "owner", true)

	rec := doRequest(t, s, http.MethodGet, "/posts/preview?newsId=1", token, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if gjson.Get(rec.Body.String(), "promptBaseHash").String() != "abc123" {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
}

func TestPreviewArticleNotFound(t *testing.T) {
	runner := &stubRunner{buildErr: generator.ErrArticleNotFound}

	s := newTestServer(runner, &stubServerStore{})
	token := mintToken(t, "owner", true)

	rec := doRequest(t, s, http.MethodGet, "/posts/preview?newsId=42", token, "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	if gjson.Get(rec.Body.String(), "code").String() != "NEWS_NOT_FOUND" {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
}

func TestPreviewRejectsMalformedNewsID(t *testing.T) {
	s := newTestServer(&stubRunner{}, &stubServerStore{})
	token := mintToken(t, "owner", true)

	rec := doRequest(t, s, http.MethodGet, "/posts/preview?newsId=abc", token, "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestPreviewRawForwardsUpstreamVerbatim(t *testing.T) {
	runner := &stubRunner{raw: &generator.RawResult{
		Status: http.StatusTooManyRequests,
		Body:   `{"error":{"type":"rate_limit_exceeded"}}`,
	}}

	s := newTestServer(runner, &stubServerStore{})
	token := mintToken(t, "owner", true)

	rec := doRequest(t, s, http.MethodGet, "/posts/preview/raw", token, "")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want upstream 429", rec.Code)
	}
	if rec.Body.String() != `{"error":{"type":"rate_limit_exceeded"}}` {
		t.Fatalf("body was not forwarded verbatim: %s", rec.Body.String())
	}
}

func TestListPostsPagination(t *testing.T) {
	store := &stubServerStore{}

	s := newTestServer(&stubRunner{}, store)
	token := mintToken(t, "owner", false)

	rec := doRequest(t, s, http.MethodGet, "/posts?limit=50&offset=10", token, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if store.lastLimit != 50 || store.lastOffset != 10 {
		t.Fatalf("pagination not forwarded: limit = %d, offset = %d",
			store.lastLimit, store.lastOffset)
	}

	rec = doRequest(t, s, http.MethodGet, "/posts?limit=9999", token, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if store.lastLimit != defaultPageLimit {
		t.Fatalf("oversized limit not clamped: %d", store.lastLimit)
	}
}

func TestAddFeedsRejectsTextWithoutFeeds(t *testing.T) {
	s := newTestServer(&stubRunner{}, &stubServerStore{})
	token := mintToken(t, "owner", false)

	rec := doRequest(t, s, http.MethodPost, "/feeds", token, `{"text":"no urls here"}`)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rec.Code)
	}

	rec = doRequest(t, s, http.MethodPost, "/feeds", token, `{}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestAddPromptDefaultsToEnabled(t *testing.T) {
	store := &stubServerStore{}

	s := newTestServer(&stubRunner{}, store)
	token := mintToken(t, "owner", false)

	rec := doRequest(t, s, http.MethodPost, "/prompts", token,
		`{"title":"tone","content":"Be concise."}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body.String())
	}
	if !gjson.Get(rec.Body.String(), "enabled").Bool() {
		t.Fatalf("prompt should default to enabled: %s", rec.Body.String())
	}

	rec = doRequest(t, s, http.MethodPost, "/prompts", token, `{"title":"empty"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestUpdateSettingsValidation(t *testing.T) {
	store := &stubServerStore{}

	s := newTestServer(&stubRunner{}, store)
	token := mintToken(t, "owner", false)

	rec := doRequest(t, s, http.MethodPut, "/settings", token,
		`{"windowDays":14,"cooldownSeconds":600,"model":"test-model"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	if store.settings.WindowDays != 14 {
		t.Fatalf("settings not persisted: %+v", store.settings)
	}

	rec = doRequest(t, s, http.MethodPut, "/settings", token,
		`{"windowDays":500,"model":"test-model"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("oversized window status = %d, want 400", rec.Code)
	}

	rec = doRequest(t, s, http.MethodPut, "/settings", token, `{"windowDays":7}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("missing model status = %d, want 400", rec.Code)
	}
}
