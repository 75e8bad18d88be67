package cmd

import (
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/Rishi-choudhary/PARA-AI/core/digest"
	"github.com/Rishi-choudhary/PARA-AI/core/transport/telegram"
)

var (
	digestSend bool
	digestChat string
)

var digestCmd = &cobra.Command{
	Use:   "digest",
	Short: "Print or send today's capture summary",
	Long: `Count today's captures in every bucket and print the summary.

With --send the summary goes to every subscribed chat, exactly as the
scheduled digest would. --chat sends to one chat instead.`,
	Args: cobra.NoArgs,
	RunE: runDigest,
}

func init() {
	rootCmd.AddCommand(digestCmd)

	digestCmd.Flags().BoolVar(&digestSend, "send", false, "Send to subscribed chats instead of printing")
	digestCmd.Flags().StringVar(&digestChat, "chat", "", "Send to this chat id only")
}

func runDigest(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	cfg, dirs, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := newLogger(cmd.ErrOrStderr(), cfg.Log)
	if err != nil {
		return err
	}

	a, err := newApp(ctx, cfg, dirs, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	now := time.Now()
	if !digestSend && digestChat == "" {
		text, err := a.builder.Summarize(ctx, now)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), text)
		return nil
	}

	api, err := telegram.New(cfg.Telegram.Token, cfg.Telegram.APIEndpoint, &http.Client{Timeout: time.Minute})
	if err != nil {
		return err
	}
	bot := telegram.NewBot(api, nil, telegram.Config{Logger: logger.With("component", "telegram")})

	if digestChat != "" {
		text, err := a.builder.Summarize(ctx, now)
		if err != nil {
			return err
		}
		if err := bot.Send(ctx, digestChat, text); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Sent digest to %s\n", digestChat)
		return nil
	}

	loc, _ := cfg.Digest.Location()
	scheduler, err := digest.NewScheduler(a.builder, a.subscribers, bot, digest.SchedulerConfig{
		Schedule: cfg.Digest.Cron,
		Location: loc,
		Logger:   logger.With("component", "digest"),
	})
	if err != nil {
		return err
	}
	sent, err := scheduler.RunOnce(ctx, now)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Sent digest to %d chat(s)\n", sent)
	return nil
}
