package providers

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"

	paraerrors "github.com/Rishi-choudhary/PARA-AI/core/errors"
)

type geminiBackend struct {
	client   *genai.Client
	settings Settings
}

func newGemini(ctx context.Context, s Settings) (*geminiBackend, error) {
	cc := &genai.ClientConfig{
		APIKey:     s.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: s.HTTPClient,
	}
	if s.VertexProject != "" {
		cc.APIKey = ""
		cc.Backend = genai.BackendVertexAI
		cc.Project = s.VertexProject
		cc.Location = s.VertexLocation
	}
	if s.BaseURL != "" {
		cc.HTTPOptions.BaseURL = s.BaseURL
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("gemini: %w", err)
	}
	return &geminiBackend{client: client, settings: s}, nil
}

func (b *geminiBackend) Name() string { return string(BackendGemini) }

// Complete calls generateContent. The SDK does not retry, so rate limits and
// server errors are retried here with backoff, up to MaxRetries times.
func (b *geminiBackend) Complete(ctx context.Context, p Prompt) (Completion, error) {
	model, temperature, maxTokens := b.settings.overrides(p)

	cfg := &genai.GenerateContentConfig{
		MaxOutputTokens: int32(maxTokens),
	}
	if p.System != "" {
		cfg.SystemInstruction = genai.NewContentFromText(p.System, genai.RoleUser)
	}
	if temperature > 0 {
		cfg.Temperature = genai.Ptr(float32(temperature))
	}
	if p.JSON {
		cfg.ResponseMIMEType = "application/json"
	}
	contents := []*genai.Content{genai.NewContentFromText(p.Text, genai.RoleUser)}

	var resp *genai.GenerateContentResponse
	err := paraerrors.Retry(ctx, b.settings.retryPolicy(), retryableGemini, func(ctx context.Context) error {
		var err error
		resp, err = b.client.Models.GenerateContent(ctx, model, contents, cfg)
		return err
	})
	if err != nil {
		return Completion{}, fmt.Errorf("gemini: %w", err)
	}

	if fb := resp.PromptFeedback; fb != nil && fb.BlockReason != "" {
		return Completion{}, fmt.Errorf("gemini: %w (%s)", ErrBlocked, fb.BlockReason)
	}

	out := Completion{Text: resp.Text(), Model: model, ID: resp.ResponseID}
	if resp.ModelVersion != "" {
		out.Model = resp.ModelVersion
	}
	if len(resp.Candidates) > 0 {
		switch resp.Candidates[0].FinishReason {
		case genai.FinishReasonMaxTokens:
			out.Truncated = true
		case genai.FinishReasonSafety:
			return Completion{}, fmt.Errorf("gemini: %w", ErrBlocked)
		}
	}
	if u := resp.UsageMetadata; u != nil {
		out.InputTokens = int(u.PromptTokenCount)
		out.OutputTokens = int(u.CandidatesTokenCount)
	}
	return out, nil
}

// retryableGemini reports rate limiting and server-side failures.
func retryableGemini(err error) bool {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code == 429 || apiErr.Code >= 500
	}
	return false
}

func (b *geminiBackend) Close() error { return nil }
