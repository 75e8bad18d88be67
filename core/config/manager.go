// Package config loads the bot's layered configuration: built-in defaults,
// YAML files, a .env file and finally the process environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/Rishi-choudhary/PARA-AI/core/storage"
)

type Manager struct {
	current     atomic.Pointer[Config]
	dirs        *storage.Dirs
	projectRoot string
	explicit    string
}

// Option customizes a Manager.
type Option func(*Manager)

// WithFile layers path above all other YAML files.
func WithFile(path string) Option {
	return func(m *Manager) { m.explicit = path }
}

// WithProjectRoot sets where .para/ and .env are looked up (default: ".").
func WithProjectRoot(root string) Option {
	return func(m *Manager) { m.projectRoot = root }
}

func NewManager(dirs *storage.Dirs, opts ...Option) *Manager {
	m := &Manager{dirs: dirs, projectRoot: "."}
	for _, opt := range opts {
		opt(m)
	}
	m.current.Store(DefaultConfig())
	return m
}

func (m *Manager) Get() *Config {
	return m.current.Load()
}

// Load rebuilds the configuration. Later layers win:
// defaults, user config, project config, local config, --config file,
// .env, environment.
func (m *Manager) Load() error {
	cfg := DefaultConfig()
	project := storage.ResolveProjectDirs(m.projectRoot)

	layers := []struct {
		name string
		path string
	}{
		{"user config", m.dirs.ConfigDir("config.yaml")},
		{"project config", project.Config},
		{"local config", filepath.Join(project.Local, "config.yaml")},
	}
	if m.explicit != "" {
		layers = append(layers, struct {
			name string
			path string
		}{"config file", m.explicit})
	}
	for _, layer := range layers {
		if err := loadYAMLFile(layer.path, cfg, layer.name == "config file"); err != nil {
			return fmt.Errorf("%s %s: %w", layer.name, layer.path, err)
		}
	}

	if err := loadDotEnv(
		filepath.Join(m.projectRoot, ".env"),
		m.dirs.ConfigDir(".env"),
	); err != nil {
		return fmt.Errorf("dotenv: %w", err)
	}

	if err := applyEnvironment(cfg); err != nil {
		return fmt.Errorf("environment: %w", err)
	}

	m.current.Store(cfg)
	return nil
}

func loadYAMLFile(path string, cfg *Config, required bool) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) && !required {
		return nil
	}
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// loadDotEnv reads the first files that exist into the environment without
// overriding variables that are already set.
func loadDotEnv(paths ...string) error {
	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
	}
	return nil
}

// =============================================================================
// Environment
// =============================================================================

// envBinding maps environment variables onto one config field. The first
// variable that is set wins.
type envBinding struct {
	names []string
	set   func(cfg *Config, v string) error
}

func str(field func(*Config) *string) func(*Config, string) error {
	return func(cfg *Config, v string) error {
		*field(cfg) = v
		return nil
	}
}

func integer(field func(*Config) *int) func(*Config, string) error {
	return func(cfg *Config, v string) error {
		n, err := strconv.Atoi(v)
		if err != nil {
			return err
		}
		*field(cfg) = n
		return nil
	}
}

func float(field func(*Config) *float64) func(*Config, string) error {
	return func(cfg *Config, v string) error {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return err
		}
		*field(cfg) = f
		return nil
	}
}

func duration(field func(*Config) *time.Duration) func(*Config, string) error {
	return func(cfg *Config, v string) error {
		d, err := time.ParseDuration(v)
		if err != nil {
			return err
		}
		*field(cfg) = d
		return nil
	}
}

func boolean(field func(*Config) *bool) func(*Config, string) error {
	return func(cfg *Config, v string) error {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return err
		}
		*field(cfg) = b
		return nil
	}
}

var envBindings = []envBinding{
	{[]string{"PARA_TELEGRAM_TOKEN", "TELEGRAM_TOKEN"}, str(func(c *Config) *string { return &c.Telegram.Token })},
	{[]string{"PARA_TELEGRAM_MODE"}, str(func(c *Config) *string { return &c.Telegram.Mode })},
	{[]string{"PARA_TELEGRAM_WEBHOOK_SECRET"}, str(func(c *Config) *string { return &c.Telegram.WebhookSecret })},
	{[]string{"PARA_TELEGRAM_MAX_PENDING"}, integer(func(c *Config) *int { return &c.Telegram.MaxPending })},

	{[]string{"PARA_NOTION_API_KEY", "NOTION_API_KEY"}, str(func(c *Config) *string { return &c.Notion.APIKey })},
	{[]string{"PARA_NOTION_PROJECTS_DB_ID", "NOTION_PROJECTS_DB_ID"}, str(func(c *Config) *string { return &c.Notion.Databases.Projects })},
	{[]string{"PARA_NOTION_AREAS_DB_ID", "NOTION_AREAS_DB_ID"}, str(func(c *Config) *string { return &c.Notion.Databases.Areas })},
	{[]string{"PARA_NOTION_RESOURCES_DB_ID", "NOTION_RESOURCES_DB_ID"}, str(func(c *Config) *string { return &c.Notion.Databases.Resources })},
	{[]string{"PARA_NOTION_ARCHIVES_DB_ID", "NOTION_ARCHIVES_DB_ID"}, str(func(c *Config) *string { return &c.Notion.Databases.Archive })},
	{[]string{"PARA_NOTION_TASKS_DB_ID", "NOTION_TASKS_DB_ID"}, str(func(c *Config) *string { return &c.Notion.Databases.Tasks })},

	{[]string{"PARA_LLM_PROVIDER"}, str(func(c *Config) *string { return &c.LLM.Provider })},
	{[]string{"PARA_LLM_MODEL"}, str(func(c *Config) *string { return &c.LLM.Model })},
	{[]string{"PARA_LLM_TEMPERATURE"}, float(func(c *Config) *float64 { return &c.LLM.Temperature })},
	{[]string{"PARA_LLM_TIMEOUT"}, duration(func(c *Config) *time.Duration { return &c.LLM.Timeout })},
	{[]string{"PARA_LLM_MAX_RETRIES"}, integer(func(c *Config) *int { return &c.LLM.MaxRetries })},
	{[]string{"PARA_GEMINI_API_KEY", "GEMINI_API_KEY", "GOOGLE_API_KEY"}, str(func(c *Config) *string { return &c.LLM.GeminiAPIKey })},
	{[]string{"PARA_ANTHROPIC_API_KEY", "ANTHROPIC_API_KEY"}, str(func(c *Config) *string { return &c.LLM.AnthropicAPIKey })},
	{[]string{"PARA_OPENAI_API_KEY", "OPENAI_API_KEY"}, str(func(c *Config) *string { return &c.LLM.OpenAIAPIKey })},
	{[]string{"PARA_LLM_USE_VERTEX_AI"}, boolean(func(c *Config) *bool { return &c.LLM.UseVertexAI })},
	{[]string{"PARA_LLM_VERTEX_PROJECT", "GOOGLE_CLOUD_PROJECT"}, str(func(c *Config) *string { return &c.LLM.VertexProject })},

	{[]string{"PARA_SESSION_IDLE_TTL"}, duration(func(c *Config) *time.Duration { return &c.Session.IdleTTL })},

	{[]string{"PARA_DIGEST_ENABLED"}, boolean(func(c *Config) *bool { return &c.Digest.Enabled })},
	{[]string{"PARA_DIGEST_CRON"}, str(func(c *Config) *string { return &c.Digest.Cron })},
	{[]string{"PARA_DIGEST_TIMEZONE"}, str(func(c *Config) *string { return &c.Digest.Timezone })},

	{[]string{"PARA_SERVER_ADDR"}, str(func(c *Config) *string { return &c.Server.Addr })},
	{[]string{"PARA_LOG_LEVEL"}, str(func(c *Config) *string { return &c.Log.Level })},
	{[]string{"PARA_LOG_FORMAT"}, str(func(c *Config) *string { return &c.Log.Format })},
	{[]string{"PARA_DATA_DIR"}, str(func(c *Config) *string { return &c.Storage.DataDir })},
}

func applyEnvironment(cfg *Config) error {
	var errs []error
	for _, b := range envBindings {
		for _, name := range b.names {
			v, ok := os.LookupEnv(name)
			v = strings.TrimSpace(v)
			if !ok || v == "" {
				continue
			}
			if err := b.set(cfg, v); err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", name, err))
			}
			break
		}
	}
	return errors.Join(errs...)
}
