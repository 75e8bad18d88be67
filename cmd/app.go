package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Rishi-choudhary/PARA-AI/core/archive"
	"github.com/Rishi-choudhary/PARA-AI/core/classify"
	"github.com/Rishi-choudhary/PARA-AI/core/config"
	"github.com/Rishi-choudhary/PARA-AI/core/database"
	"github.com/Rishi-choudhary/PARA-AI/core/digest"
	"github.com/Rishi-choudhary/PARA-AI/core/knowledge"
	"github.com/Rishi-choudhary/PARA-AI/core/providers"
	"github.com/Rishi-choudhary/PARA-AI/core/session"
	"github.com/Rishi-choudhary/PARA-AI/core/storage"
	"github.com/Rishi-choudhary/PARA-AI/core/workflow"
)

// app holds the collaborators shared by the serve and digest commands.
type app struct {
	cfg         *config.Config
	logger      *slog.Logger
	provider    providers.Provider
	classifier  *classify.LLM
	store       *knowledge.Notion
	builder     *digest.Builder
	databases   *database.Manager
	subscribers *digest.Subscribers
}

// newProvider builds the configured LLM backend.
func newProvider(ctx context.Context, cfg config.LLMConfig) (providers.Provider, error) {
	backend, err := providers.ParseBackend(cfg.ProviderName())
	if err != nil {
		return nil, err
	}
	settings := providers.Settings{
		Backend:     backend,
		APIKey:      cfg.APIKey(),
		Model:       cfg.Model,
		Temperature: cfg.Temperature,
		MaxTokens:   cfg.MaxTokens,
		Timeout:     cfg.Timeout,
		MaxRetries:  cfg.MaxRetries,
		BaseURL:     cfg.BaseURL,
	}
	if backend == providers.BackendGemini && cfg.UseVertexAI {
		settings.VertexProject = cfg.VertexProject
		settings.VertexLocation = cfg.VertexLocation
	}
	return providers.New(ctx, settings)
}

func newClassifier(provider providers.Provider, cfg config.LLMConfig, logger *slog.Logger) *classify.LLM {
	return classify.NewLLM(provider, classify.Config{
		Model:          cfg.Model,
		Temperature:    cfg.Temperature,
		MaxTokens:      cfg.MaxTokens,
		Timeout:        cfg.Timeout,
		ExtractTimeout: cfg.ExtractTimeout,
	}, logger.With("component", "classify"))
}

func newNotion(cfg config.NotionConfig, logger *slog.Logger) *knowledge.Notion {
	return knowledge.NewNotion(knowledge.NotionConfig{
		APIKey:          cfg.APIKey,
		BaseURL:         cfg.BaseURL,
		Version:         cfg.Version,
		Databases:       cfg.Databases.ByBucket(),
		TitleProperty:   cfg.TitleProperty,
		TagProperty:     cfg.TagProperty,
		StatusProperty:  cfg.StatusProperty,
		DueDateProperty: cfg.DueDateProperty,
		StatusType:      cfg.StatusType,
		Timeout:         cfg.Timeout,
		Logger:          logger.With("component", "notion"),
	})
}

// newApp validates cfg and builds the LLM, Notion and digest collaborators.
func newApp(ctx context.Context, cfg *config.Config, dirs *storage.Dirs, logger *slog.Logger) (*app, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration:\n%w", err)
	}

	provider, err := newProvider(ctx, cfg.LLM)
	if err != nil {
		return nil, fmt.Errorf("llm provider: %w", err)
	}

	a := &app{
		cfg:        cfg,
		logger:     logger,
		provider:   provider,
		classifier: newClassifier(provider, cfg.LLM, logger),
		store:      newNotion(cfg.Notion, logger),
	}

	loc, err := cfg.Digest.Location()
	if err != nil {
		a.Close()
		return nil, err
	}
	a.builder = digest.NewBuilder(a.store, loc, logger.With("component", "digest"))

	if err := dirs.EnsureAll(); err != nil {
		a.Close()
		return nil, fmt.Errorf("create directories: %w", err)
	}
	a.databases = database.NewManager(dirs)
	db, err := a.databases.Open(cfg.Digest.Database, database.DefaultOptions())
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("open %s database: %w", cfg.Digest.Database, err)
	}
	if a.subscribers, err = digest.OpenSubscribers(ctx, db); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

// newEngine assembles the conversation engine over the app's collaborators.
func (a *app) newEngine(sessions *session.Store) *workflow.Engine {
	loc, _ := a.cfg.Digest.Location()
	return workflow.NewEngine(workflow.Config{
		Sessions:       sessions,
		Classifier:     a.classifier,
		Store:          a.store,
		Archiver:       archive.NewTransfer(a.store, a.logger.With("component", "archive")),
		Summarizer:     a.builder,
		Subscribers:    a.subscribers,
		ExtractTimeout: a.cfg.LLM.ExtractTimeout,
		SearchLimit:    a.cfg.Notion.SearchLimit,
		TaskStatus:     a.cfg.Notion.TaskStatus,
		Location:       loc,
		Logger:         a.logger.With("component", "workflow"),
	})
}

func (a *app) Close() {
	if a.databases != nil {
		if err := a.databases.Close(); err != nil {
			a.logger.Warn("close databases", "err", err)
		}
	}
	if a.provider != nil {
		if err := a.provider.Close(); err != nil {
			a.logger.Warn("close llm provider", "err", err)
		}
	}
}
