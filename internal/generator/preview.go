package generator

import (
	"context"
	"fmt"
)

// Preview is the exact generation request for one article, assembled without
// executing generation. PromptBaseHash lets clients detect prompt drift
// between a preview and a later run.
type Preview struct {
	PromptBase     string `json:"promptBase"`
	PromptBaseHash string `json:"promptBaseHash"`
	NewsPayload    string `json:"newsPayload"`
	Model          string `json:"model"`
}

// BuildPreview assembles the request for the given article, or for the first
// article a run would pick when articleID is nil. Touches no generated posts
// and no progress state.
func (r *Runner) BuildPreview(
	ctx context.Context,
	ownerKey string,
	articleID *int64,
) (*Preview, error) {
	req, err := r.buildRequest(ctx, ownerKey, articleID)
	if err != nil {
		return nil, err
	}

	return &Preview{
		PromptBase:     req.PromptBase,
		PromptBaseHash: PromptBaseHash(req.PromptBase),
		NewsPayload:    ArticlePayload(req.Article),
		Model:          req.Model,
	}, nil
}

// ProbeRaw executes one real generation call for diagnostics and returns the
// unmodified upstream response. No GeneratedPost or progress state changes.
func (r *Runner) ProbeRaw(
	ctx context.Context,
	ownerKey string,
	articleID *int64,
) (*RawResult, error) {
	req, err := r.buildRequest(ctx, ownerKey, articleID)
	if err != nil {
		return nil, err
	}

	return r.client.ProbeRaw(ctx, *req)
}

func (r *Runner) buildRequest(
	ctx context.Context,
	ownerKey string,
	articleID *int64,
) (*Request, error) {
	settings, err := r.store.GetOwnerSettingsWithDefault(ctx, ownerKey, r.defaults)
	if err != nil {
		return nil, fmt.Errorf("load owner settings: %w", err)
	}

	prompts, err := r.store.ListEnabledPromptsOrdered(ctx, ownerKey)
	if err != nil {
		return nil, fmt.Errorf("load prompts: %w", err)
	}

	req := Request{
		PromptBase: AssemblePromptBase(prompts),
		Model:      settings.Model,
	}

	now := r.now()

	if articleID != nil {
		article, err := r.store.GetEligibleArticle(
			ctx, ownerKey, *articleID, settings.WindowDays, now)
		if err != nil {
			return nil, fmt.Errorf("load article: %w", err)
		}
		if article == nil {
			return nil, ErrArticleNotFound
		}

		req.Article = *article

		return &req, nil
	}

	articles, err := r.store.ListEligibleArticles(ctx, ownerKey, settings.WindowDays, now)
	if err != nil {
		return nil, fmt.Errorf("collect eligible articles: %w", err)
	}
	if len(articles) == 0 {
		return nil, ErrArticleNotFound
	}

	// Same first pick a run would make.
	req.Article = articles[0]

	return &req, nil
}
