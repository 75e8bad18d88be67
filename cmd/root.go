// Package cmd provides the CLI for the PARA intake bot.
package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Rishi-choudhary/PARA-AI/core/config"
	"github.com/Rishi-choudhary/PARA-AI/core/storage"
)

// =============================================================================
// Root Command Flags
// =============================================================================

var (
	rootConfigFile string
	rootLogLevel   string
	rootLogFormat  string
)

var rootCmd = &cobra.Command{
	Use:   "para",
	Short: "PARA - a Telegram intake bot for Notion",
	Long: `PARA files whatever you send it into a Notion workspace organised
by the PARA method (Projects, Areas, Resources, Archive).

Text is classified by an LLM, links and files go to Resources, projects
can be broken down into tasks, and a daily digest summarises the captures.`,
	SilenceUsage: true,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&rootConfigFile, "config", "c", "", "Additional config file layered above the defaults")
	flags.StringVar(&rootLogLevel, "log-level", "", "Log level (debug, info, warn, error)")
	flags.StringVar(&rootLogFormat, "log-format", "", "Log format (text, json)")
}

func Execute() error {
	return rootCmd.Execute()
}

// =============================================================================
// Shared Setup
// =============================================================================

// loadConfig resolves the layered configuration and applies flag overrides.
func loadConfig() (*config.Config, *storage.Dirs, error) {
	dirs := storage.Resolve()

	var opts []config.Option
	if rootConfigFile != "" {
		opts = append(opts, config.WithFile(rootConfigFile))
	}
	manager := config.NewManager(dirs, opts...)
	if err := manager.Load(); err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	cfg := manager.Get()
	if rootLogLevel != "" {
		cfg.Log.Level = rootLogLevel
	}
	if rootLogFormat != "" {
		cfg.Log.Format = rootLogFormat
	}
	return cfg, dirs.WithData(cfg.Storage.DataDir), nil
}

// newLogger builds the process logger and installs it as the slog default.
func newLogger(w io.Writer, cfg config.LogConfig) (*slog.Logger, error) {
	level, err := parseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	switch strings.ToLower(cfg.Format) {
	case "", "text":
		handler = slog.NewTextHandler(w, opts)
	case "json":
		handler = slog.NewJSONHandler(w, opts)
	default:
		return nil, fmt.Errorf("unknown log format %q", cfg.Format)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger, nil
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if s == "" {
		return slog.LevelInfo, nil
	}
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("unknown log level %q", s)
	}
	return level, nil
}
