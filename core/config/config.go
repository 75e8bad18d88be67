package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Rishi-choudhary/PARA-AI/core/domain"
)

type Config struct {
	Telegram TelegramConfig `yaml:"telegram"`
	Notion   NotionConfig   `yaml:"notion"`
	LLM      LLMConfig      `yaml:"llm"`
	Session  SessionConfig  `yaml:"session"`
	Digest   DigestConfig   `yaml:"digest"`
	Server   ServerConfig   `yaml:"server"`
	Log      LogConfig      `yaml:"log"`
	Storage  StorageConfig  `yaml:"storage"`
}

type TelegramConfig struct {
	Token string `yaml:"token"`

	// Mode is "polling" or "webhook".
	Mode          string `yaml:"mode"`
	WebhookSecret string `yaml:"webhook_secret"`
	APIEndpoint   string `yaml:"api_endpoint"`
	PollTimeout   int    `yaml:"poll_timeout"`

	// MaxPending caps queued messages per chat; 0 is unbounded.
	MaxPending int `yaml:"max_pending"`
}

type NotionConfig struct {
	APIKey    string        `yaml:"api_key"`
	BaseURL   string        `yaml:"base_url"`
	Version   string        `yaml:"version"`
	Timeout   time.Duration `yaml:"timeout"`
	Databases DatabaseIDs   `yaml:"databases"`

	TitleProperty   string `yaml:"title_property"`
	TagProperty     string `yaml:"tag_property"`
	StatusProperty  string `yaml:"status_property"`
	StatusType      string `yaml:"status_type"`
	DueDateProperty string `yaml:"due_date_property"`
	TaskStatus      string `yaml:"task_status"`
	SearchLimit     int    `yaml:"search_limit"`
}

// DatabaseIDs maps each bucket to its Notion database.
type DatabaseIDs struct {
	Projects  string `yaml:"projects"`
	Areas     string `yaml:"areas"`
	Resources string `yaml:"resources"`
	Archive   string `yaml:"archive"`
	Tasks     string `yaml:"tasks"`
}

// ByBucket returns the configured ids keyed by bucket, skipping blanks.
func (d DatabaseIDs) ByBucket() map[domain.Bucket]string {
	out := make(map[domain.Bucket]string, 5)
	for bucket, id := range map[domain.Bucket]string{
		domain.BucketProjects:  d.Projects,
		domain.BucketAreas:     d.Areas,
		domain.BucketResources: d.Resources,
		domain.BucketArchive:   d.Archive,
		domain.BucketTasks:     d.Tasks,
	} {
		if id != "" {
			out[bucket] = id
		}
	}
	return out
}

type LLMConfig struct {
	// Provider is "google", "anthropic" or "openai".
	Provider       string        `yaml:"provider"`
	Model          string        `yaml:"model"`
	Temperature    float64       `yaml:"temperature"`
	MaxTokens      int           `yaml:"max_tokens"`
	Timeout        time.Duration `yaml:"timeout"`
	ExtractTimeout time.Duration `yaml:"extract_timeout"`
	MaxRetries     int           `yaml:"max_retries"`
	BaseURL        string        `yaml:"base_url"`

	GeminiAPIKey    string `yaml:"gemini_api_key"`
	AnthropicAPIKey string `yaml:"anthropic_api_key"`
	OpenAIAPIKey    string `yaml:"openai_api_key"`

	// Vertex AI instead of the Gemini API key flow.
	UseVertexAI    bool   `yaml:"use_vertex_ai"`
	VertexProject  string `yaml:"vertex_project"`
	VertexLocation string `yaml:"vertex_location"`
}

// ProviderName is Provider folded onto google, anthropic or openai.
func (c LLMConfig) ProviderName() string {
	return normalizeProvider(c.Provider)
}

// APIKey returns the key for the selected provider.
func (c LLMConfig) APIKey() string {
	switch normalizeProvider(c.Provider) {
	case "anthropic":
		return c.AnthropicAPIKey
	case "openai":
		return c.OpenAIAPIKey
	default:
		return c.GeminiAPIKey
	}
}

func normalizeProvider(p string) string {
	switch strings.ToLower(strings.TrimSpace(p)) {
	case "anthropic", "claude":
		return "anthropic"
	case "openai":
		return "openai"
	default:
		return "google"
	}
}

type SessionConfig struct {
	IdleTTL       time.Duration `yaml:"idle_ttl"`
	Shards        int           `yaml:"shards"`
	ShardCapacity int           `yaml:"shard_capacity"`
}

type DigestConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Cron     string `yaml:"cron"`
	Timezone string `yaml:"timezone"`
	Database string `yaml:"database"`
}

// Location loads the digest timezone, falling back to Local when unset.
func (c DigestConfig) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	return time.LoadLocation(c.Timezone)
}

type ServerConfig struct {
	// Addr enables the HTTP server (health, webhook) when set.
	Addr string `yaml:"addr"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type StorageConfig struct {
	// DataDir overrides the XDG data directory.
	DataDir string `yaml:"data_dir"`
}

func DefaultConfig() *Config {
	return &Config{
		Telegram: TelegramConfig{
			Mode:        "polling",
			PollTimeout: 30,
			MaxPending:  32,
		},
		Notion: NotionConfig{
			BaseURL:         "https://api.notion.com/v1",
			Version:         "2022-06-28",
			Timeout:         15 * time.Second,
			TitleProperty:   "Name",
			TagProperty:     "Tags",
			StatusProperty:  "Status",
			StatusType:      "status",
			DueDateProperty: "Due Date",
			TaskStatus:      "To Do",
			SearchLimit:     10,
		},
		LLM: LLMConfig{
			Provider:       "google",
			Temperature:    0.5,
			MaxTokens:      2048,
			Timeout:        30 * time.Second,
			ExtractTimeout: 20 * time.Second,
			MaxRetries:     2,
			VertexLocation: "us-central1",
		},
		Session: SessionConfig{
			IdleTTL:       30 * time.Minute,
			Shards:        16,
			ShardCapacity: 4096,
		},
		Digest: DigestConfig{
			Enabled:  true,
			Cron:     "0 21 * * *",
			Database: "subscribers",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Validate reports every missing credential and inconsistent setting.
func (c *Config) Validate() error {
	var errs []error
	missing := func(name string) {
		errs = append(errs, fmt.Errorf("%s is required", name))
	}

	if c.Telegram.Token == "" {
		missing("telegram.token (TELEGRAM_TOKEN)")
	}
	switch c.Telegram.Mode {
	case "polling":
	case "webhook":
		if c.Telegram.WebhookSecret == "" {
			missing("telegram.webhook_secret in webhook mode")
		}
		if c.Server.Addr == "" {
			missing("server.addr in webhook mode")
		}
	default:
		errs = append(errs, fmt.Errorf("telegram.mode %q: must be polling or webhook", c.Telegram.Mode))
	}

	if c.Notion.APIKey == "" {
		missing("notion.api_key (NOTION_API_KEY)")
	}
	ids := c.Notion.Databases.ByBucket()
	for _, bucket := range domain.AllBuckets() {
		if _, ok := ids[bucket]; !ok {
			missing(fmt.Sprintf("notion.databases.%s (NOTION_%s_DB_ID)",
				strings.ToLower(bucket.String()), envBucketName(bucket)))
		}
	}

	errs = append(errs, c.LLM.validate()...)

	if c.Digest.Enabled {
		if _, err := c.Digest.Location(); err != nil {
			errs = append(errs, fmt.Errorf("digest.timezone: %w", err))
		}
	}
	return errors.Join(errs...)
}

func (c LLMConfig) validate() []error {
	var errs []error
	switch strings.ToLower(strings.TrimSpace(c.Provider)) {
	case "", "google", "gemini", "anthropic", "claude", "openai":
	default:
		return []error{fmt.Errorf("llm.provider %q: must be google, anthropic or openai", c.Provider)}
	}

	provider := normalizeProvider(c.Provider)
	switch {
	case provider == "google" && c.UseVertexAI:
		if c.VertexProject == "" {
			errs = append(errs, errors.New("llm.vertex_project is required with use_vertex_ai"))
		}
	case c.APIKey() == "":
		errs = append(errs, fmt.Errorf("llm api key for %s is required (%s)", provider, envKeyName(provider)))
	}
	return errs
}

func envBucketName(b domain.Bucket) string {
	// The archive database variable is plural, as in existing .env files.
	if b == domain.BucketArchive {
		return "ARCHIVES"
	}
	return strings.ToUpper(b.String())
}

func envKeyName(provider string) string {
	switch provider {
	case "anthropic":
		return "ANTHROPIC_API_KEY"
	case "openai":
		return "OPENAI_API_KEY"
	default:
		return "GEMINI_API_KEY"
	}
}
