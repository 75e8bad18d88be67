package providers

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

type anthropicBackend struct {
	client   anthropic.Client
	settings Settings
}

func newAnthropic(s Settings) *anthropicBackend {
	opts := []option.RequestOption{
		option.WithAPIKey(s.APIKey),
		option.WithMaxRetries(s.MaxRetries),
		option.WithRequestTimeout(s.Timeout),
		option.WithHTTPClient(s.HTTPClient),
	}
	if s.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(s.BaseURL))
	}
	return &anthropicBackend{client: anthropic.NewClient(opts...), settings: s}
}

func (b *anthropicBackend) Name() string { return string(BackendAnthropic) }

// Complete sends p as one user turn. The Messages API has no JSON switch;
// the prompt itself asks for JSON.
func (b *anthropicBackend) Complete(ctx context.Context, p Prompt) (Completion, error) {
	msg, err := b.client.Messages.New(ctx, b.params(p))
	if err != nil {
		return Completion{}, fmt.Errorf("anthropic: %w", err)
	}
	if msg.StopReason == anthropic.StopReasonRefusal {
		return Completion{}, fmt.Errorf("anthropic: %w", ErrBlocked)
	}

	var text strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	return Completion{
		Text:         text.String(),
		Model:        string(msg.Model),
		ID:           msg.ID,
		Truncated:    msg.StopReason == anthropic.StopReasonMaxTokens,
		InputTokens:  int(msg.Usage.InputTokens),
		OutputTokens: int(msg.Usage.OutputTokens),
	}, nil
}

func (b *anthropicBackend) params(p Prompt) anthropic.MessageNewParams {
	model, temperature, maxTokens := b.settings.overrides(p)
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: int64(maxTokens),
		Messages:  []anthropic.MessageParam{anthropic.NewUserMessage(anthropic.NewTextBlock(p.Text))},
	}
	if p.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: p.System}}
	}
	if temperature > 0 {
		params.Temperature = anthropic.Float(temperature)
	}
	return params
}

func (b *anthropicBackend) Close() error { return nil }
