package generator

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/responses"

	"github.com/rafrcruz/lkdposts-sub001/internal/models"
)

const generateMaxOutputTokens int64 = 2048

// Request carries everything one generation call needs.
type Request struct {
	PromptBase string
	Article    models.Article
	Model      string
}

// Result is the successful outcome of one generation call.
type Result struct {
	Content      string
	ModelUsed    string
	TokensInput  int64
	TokensOutput int64
}

// RawResult is the untranslated upstream response used by the raw probe.
type RawResult struct {
	Status int
	Body   string
}

// Client performs one generation call per article. Expected API-level
// failures come back as *Error values, never panics.
type Client interface {
	Generate(ctx context.Context, req Request) (*Result, error)
	ProbeRaw(ctx context.Context, req Request) (*RawResult, error)
}

// OpenAIClient drives the OpenAI Responses API. SDK-internal retries are
// disabled; the run coordinator owns all retry behavior.
type OpenAIClient struct {
	client openai.Client
}

func NewOpenAIClient(apiKey string) *OpenAIClient {
	return &OpenAIClient{
		client: openai.NewClient(
			option.WithAPIKey(apiKey),
			option.WithMaxRetries(0),
		),
	}
}

func (c *OpenAIClient) Generate(ctx context.Context, req Request) (*Result, error) {
	resp, err := c.client.Responses.New(ctx, buildParams(req))
	if err != nil {
		return nil, translateError(err)
	}

	content := strings.TrimSpace(resp.OutputText())
	if content == "" {
		return nil, &Error{
			Kind:       KindUnknown,
			Status:     http.StatusOK,
			RawPayload: resp.RawJSON(),
			cause:      fmt.Errorf("output text is missing (status = %s)", resp.Status),
		}
	}

	return &Result{
		Content:      content,
		ModelUsed:    string(resp.Model),
		TokensInput:  resp.Usage.InputTokens,
		TokensOutput: resp.Usage.OutputTokens,
	}, nil
}

// ProbeRaw executes one real call and hands back the verbatim upstream
// status and body, skipping the error taxonomy entirely.
func (c *OpenAIClient) ProbeRaw(ctx context.Context, req Request) (*RawResult, error) {
	resp, err := c.client.Responses.New(ctx, buildParams(req))
	if err != nil {
		var apierr *openai.Error
		if errors.As(err, &apierr) {
			return &RawResult{
				Status: apierr.StatusCode,
				Body:   apierr.RawJSON(),
			}, nil
		}

		return nil, fmt.Errorf("do request: %w", err)
	}

	return &RawResult{
		Status: http.StatusOK,
		Body:   resp.RawJSON(),
	}, nil
}

func buildParams(req Request) responses.ResponseNewParams {
	return responses.ResponseNewParams{
		Model:           req.Model,
		MaxOutputTokens: openai.Int(generateMaxOutputTokens),
		Instructions:    openai.String(req.PromptBase),
		Input: responses.ResponseNewParamsInputUnion{
			OfString: openai.String(ArticlePayload(req.Article)),
		},
	}
}

func translateError(err error) *Error {
	var apierr *openai.Error
	if errors.As(err, &apierr) {
		raw := apierr.RawJSON()

		return &Error{
			Kind:       classifyStatus(apierr.StatusCode, raw),
			Status:     apierr.StatusCode,
			RawPayload: raw,
			cause:      err,
		}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return &Error{Kind: KindTimeout, cause: err}
	}

	return &Error{Kind: KindNetwork, cause: err}
}
