package providers

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/responses"
	"github.com/openai/openai-go/shared"
)

type openAIBackend struct {
	client   openai.Client
	settings Settings
}

func newOpenAI(s Settings) *openAIBackend {
	opts := []option.RequestOption{
		option.WithAPIKey(s.APIKey),
		option.WithMaxRetries(s.MaxRetries),
		option.WithRequestTimeout(s.Timeout),
		option.WithHTTPClient(s.HTTPClient),
	}
	if s.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(s.BaseURL))
	}
	return &openAIBackend{client: openai.NewClient(opts...), settings: s}
}

func (b *openAIBackend) Name() string { return string(BackendOpenAI) }

func (b *openAIBackend) Complete(ctx context.Context, p Prompt) (Completion, error) {
	resp, err := b.client.Responses.New(ctx, b.params(p))
	if err != nil {
		return Completion{}, fmt.Errorf("openai: %w", err)
	}
	if resp.IncompleteDetails.Reason == "content_filter" {
		return Completion{}, fmt.Errorf("openai: %w", ErrBlocked)
	}
	if resp.Status == responses.ResponseStatusFailed {
		return Completion{}, fmt.Errorf("openai: response failed: %s", resp.Error.Message)
	}
	return Completion{
		Text:         resp.OutputText(),
		Model:        string(resp.Model),
		ID:           resp.ID,
		Truncated:    resp.IncompleteDetails.Reason == "max_output_tokens",
		InputTokens:  int(resp.Usage.InputTokens),
		OutputTokens: int(resp.Usage.OutputTokens),
	}, nil
}

// params builds a Responses API request: the system prompt goes in as
// instructions, the prompt text as a single user message.
func (b *openAIBackend) params(p Prompt) responses.ResponseNewParams {
	model, temperature, maxTokens := b.settings.overrides(p)
	params := responses.ResponseNewParams{
		Model: model,
		Input: responses.ResponseNewParamsInputUnion{
			OfInputItemList: responses.ResponseInputParam{
				responses.ResponseInputItemParamOfMessage(p.Text, responses.EasyInputMessageRoleUser),
			},
		},
		MaxOutputTokens: openai.Int(int64(maxTokens)),
	}
	if p.System != "" {
		params.Instructions = openai.String(p.System)
	}
	if temperature > 0 {
		params.Temperature = openai.Float(temperature)
	}
	if p.JSON {
		params.Text = responses.ResponseTextConfigParam{
			Format: responses.ResponseFormatTextConfigUnionParam{
				OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
			},
		}
	}
	return params
}

func (b *openAIBackend) Close() error { return nil }
