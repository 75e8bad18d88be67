// Package providers adapts the hosted LLM SDKs (Gemini, Anthropic, OpenAI)
// to the single prompt-in, text-out call the classifier makes.
package providers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	paraerrors "github.com/Rishi-choudhary/PARA-AI/core/errors"
)

// ErrBlocked is returned when the backend refuses to answer a prompt.
var ErrBlocked = errors.New("completion blocked by provider")

// Provider answers one prompt at a time. Implementations are safe for
// concurrent use.
type Provider interface {
	Name() string
	Complete(ctx context.Context, p Prompt) (Completion, error)
	Close() error
}

// Prompt is a single-turn request.
type Prompt struct {
	System string
	Text   string

	// Model overrides the provider's configured model.
	Model string

	// Temperature and MaxTokens fall back to Settings when zero.
	Temperature float64
	MaxTokens   int

	// JSON asks the backend to answer with a JSON document where it has a
	// native switch for it.
	JSON bool
}

// Completion is the backend's answer.
type Completion struct {
	Text  string
	Model string
	ID    string

	// Truncated reports that the answer hit the token limit.
	Truncated bool

	InputTokens  int
	OutputTokens int
}

// =============================================================================
// Settings
// =============================================================================

type Backend string

const (
	BackendGemini    Backend = "google"
	BackendAnthropic Backend = "anthropic"
	BackendOpenAI    Backend = "openai"
)

// ParseBackend accepts the backend names and their common aliases.
func ParseBackend(s string) (Backend, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "google", "gemini":
		return BackendGemini, nil
	case "anthropic", "claude":
		return BackendAnthropic, nil
	case "openai":
		return BackendOpenAI, nil
	default:
		return "", fmt.Errorf("unknown llm provider %q", s)
	}
}

// DefaultModel is the model used when Settings.Model is empty. The Gemini
// default is the flash tier, which is what the bot has always used.
func (b Backend) DefaultModel() string {
	switch b {
	case BackendAnthropic:
		return "claude-haiku-4-5"
	case BackendOpenAI:
		return "gpt-5-mini"
	default:
		return "gemini-2.5-flash"
	}
}

// Settings configures one backend.
type Settings struct {
	Backend Backend
	APIKey  string
	Model   string

	Temperature float64
	MaxTokens   int

	// Timeout bounds each HTTP attempt. MaxRetries is passed to the
	// Anthropic and OpenAI SDKs, which back off on their own; the Gemini
	// backend retries itself, waiting RetryDelay before the first retry and
	// doubling after that.
	Timeout    time.Duration
	MaxRetries int
	RetryDelay time.Duration

	// BaseURL points the SDK at a proxy or a test server.
	BaseURL string

	// VertexProject switches Gemini from an API key to Vertex AI
	// credentials.
	VertexProject  string
	VertexLocation string

	HTTPClient *http.Client
}

func (s Settings) withDefaults() Settings {
	if s.Backend == "" {
		s.Backend = BackendGemini
	}
	if s.Model == "" {
		s.Model = s.Backend.DefaultModel()
	}
	if s.MaxTokens <= 0 {
		s.MaxTokens = 2048
	}
	if s.Timeout <= 0 {
		s.Timeout = 30 * time.Second
	}
	if s.MaxRetries < 0 {
		s.MaxRetries = 0
	}
	if s.RetryDelay <= 0 {
		s.RetryDelay = 500 * time.Millisecond
	}
	if s.VertexLocation == "" {
		s.VertexLocation = "us-central1"
	}
	if s.HTTPClient == nil {
		s.HTTPClient = &http.Client{Timeout: s.Timeout}
	}
	return s
}

func (s Settings) validate() error {
	if s.Backend == BackendGemini && s.VertexProject != "" {
		return nil
	}
	if s.APIKey == "" {
		return fmt.Errorf("%s: api key is required", s.Backend)
	}
	return nil
}

// New builds the backend s selects.
func New(ctx context.Context, s Settings) (Provider, error) {
	s = s.withDefaults()
	if err := s.validate(); err != nil {
		return nil, err
	}

	switch s.Backend {
	case BackendGemini:
		return newGemini(ctx, s)
	case BackendAnthropic:
		return newAnthropic(s), nil
	case BackendOpenAI:
		return newOpenAI(s), nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", s.Backend)
	}
}

func (s Settings) retryPolicy() paraerrors.RetryPolicy {
	policy := paraerrors.DefaultRetryPolicy()
	policy.MaxAttempts = s.MaxRetries
	policy.InitialDelay = s.RetryDelay
	return policy
}

// overrides resolves per-prompt values against the settings.
func (s Settings) overrides(p Prompt) (model string, temperature float64, maxTokens int) {
	model, temperature, maxTokens = p.Model, p.Temperature, p.MaxTokens
	if model == "" {
		model = s.Model
	}
	if temperature == 0 {
		temperature = s.Temperature
	}
	if maxTokens <= 0 {
		maxTokens = s.MaxTokens
	}
	return model, temperature, maxTokens
}
