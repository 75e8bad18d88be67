// Package classify turns free text into structured intake decisions using a
// hosted language model.
package classify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Rishi-choudhary/PARA-AI/core/domain"
	paraerrors "github.com/Rishi-choudhary/PARA-AI/core/errors"
	"github.com/Rishi-choudhary/PARA-AI/core/providers"
)

// Client is the classification service the workflow engine depends on.
// Every method returns a classification failure on transport errors,
// timeouts and malformed model output alike.
type Client interface {
	Classify(ctx context.Context, text string) (domain.Classification, error)
	JudgeComplexity(ctx context.Context, title string) (domain.Complexity, error)
	Breakdown(ctx context.Context, title string) ([]string, error)
	ExtractTask(ctx context.Context, text string, reference time.Time) (domain.TaskExtraction, error)
}

// Config tunes the model calls.
type Config struct {
	// Model pins a model; empty uses the provider default.
	Model       string
	Temperature float64
	MaxTokens   int

	// Timeout bounds Classify, JudgeComplexity and Breakdown.
	Timeout time.Duration

	// ExtractTimeout bounds ExtractTask.
	ExtractTimeout time.Duration
}

// DefaultConfig returns the defaults used when fields are zero.
func DefaultConfig() Config {
	return Config{
		Temperature:    0.5,
		MaxTokens:      2048,
		Timeout:        30 * time.Second,
		ExtractTimeout: 20 * time.Second,
	}
}

// LLM implements Client over a providers.Provider.
type LLM struct {
	provider providers.Provider
	cfg      Config
	logger   *slog.Logger
}

var _ Client = (*LLM)(nil)

// NewLLM creates a model-backed classifier.
func NewLLM(provider providers.Provider, cfg Config, logger *slog.Logger) *LLM {
	defaults := DefaultConfig()
	if cfg.Temperature == 0 {
		cfg.Temperature = defaults.Temperature
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = defaults.MaxTokens
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaults.Timeout
	}
	if cfg.ExtractTimeout <= 0 {
		cfg.ExtractTimeout = defaults.ExtractTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &LLM{provider: provider, cfg: cfg, logger: logger}
}

// Classify sorts text into a PARA bucket with a title and tags.
func (c *LLM) Classify(ctx context.Context, text string) (domain.Classification, error) {
	raw, err := c.generate(ctx, "classify", classifyPrompt(text), c.cfg.Timeout)
	if err != nil {
		return domain.Classification{}, err
	}
	result, err := parseClassification(raw)
	if err != nil {
		return domain.Classification{}, c.malformed("classify", raw, err)
	}
	c.logger.Info("text classified",
		"category", result.Category.String(),
		"title", result.Title,
		"tags", result.Tags)
	return result, nil
}

// JudgeComplexity decides whether a project title warrants a breakdown.
func (c *LLM) JudgeComplexity(ctx context.Context, title string) (domain.Complexity, error) {
	raw, err := c.generate(ctx, "judge_complexity", complexityPrompt(title), c.cfg.Timeout)
	if err != nil {
		return domain.ComplexityComplex, err
	}
	verdict, err := parseComplexity(raw)
	if err != nil {
		return domain.ComplexityComplex, c.malformed("judge_complexity", raw, err)
	}
	return verdict, nil
}

// Breakdown proposes ordered sub-tasks for a project. An empty slice with a
// nil error means the model had nothing to offer.
func (c *LLM) Breakdown(ctx context.Context, title string) ([]string, error) {
	raw, err := c.generate(ctx, "breakdown", breakdownPrompt(title), c.cfg.Timeout)
	if err != nil {
		return nil, err
	}
	tasks, err := parseTasks(raw)
	if err != nil {
		return nil, c.malformed("breakdown", raw, err)
	}
	c.logger.Info("project broken down", "title", title, "tasks", len(tasks))
	return tasks, nil
}

// ExtractTask pulls a task name and optional due date out of text, resolving
// relative dates against reference.
func (c *LLM) ExtractTask(ctx context.Context, text string, reference time.Time) (domain.TaskExtraction, error) {
	raw, err := c.generate(ctx, "extract_task", extractPrompt(text, reference), c.cfg.ExtractTimeout)
	if err != nil {
		return domain.TaskExtraction{}, err
	}
	task, err := parseTaskExtraction(raw, reference.Location())
	if err != nil {
		return domain.TaskExtraction{}, c.malformed("extract_task", raw, err)
	}
	return task, nil
}

func (c *LLM) generate(ctx context.Context, op, text string, timeout time.Duration) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	prompt := providers.Prompt{
		System:      systemPrompt,
		Text:        text,
		Model:       c.cfg.Model,
		Temperature: c.cfg.Temperature,
		MaxTokens:   c.cfg.MaxTokens,
		JSON:        true,
	}

	start := time.Now()
	out, err := c.provider.Complete(ctx, prompt)
	if err != nil {
		c.logger.Warn("model call failed", "op", op, "duration", time.Since(start), "err", err)
		return "", paraerrors.New(paraerrors.KindClassification, op, err)
	}
	c.logger.Debug("model call complete",
		"op", op,
		"model", out.Model,
		"duration", time.Since(start),
		"input_tokens", out.InputTokens,
		"output_tokens", out.OutputTokens,
		"truncated", out.Truncated)
	return out.Text, nil
}

func (c *LLM) malformed(op, raw string, err error) error {
	c.logger.Warn("malformed model output", "op", op, "output", truncate(raw, 200), "err", err)
	return paraerrors.New(paraerrors.KindClassification, fmt.Sprintf("%s: malformed output", op), err)
}
