package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/Rishi-choudhary/PARA-AI/core/digest"
	"github.com/Rishi-choudhary/PARA-AI/core/server"
	"github.com/Rishi-choudhary/PARA-AI/core/session"
	"github.com/Rishi-choudhary/PARA-AI/core/transport/telegram"
	"github.com/Rishi-choudhary/PARA-AI/core/workflow"
)

// drainTimeout bounds how long queued conversations may run after shutdown.
const drainTimeout = 30 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the Telegram bot",
	Long: `Run the bot until interrupted.

Updates arrive by long polling, or through POST /telegram/webhook/<secret>
when telegram.mode is "webhook". With server.addr set, GET /health is
served as well. The daily digest runs on digest.cron when enabled.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

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

	sessions := session.NewStore(session.StoreConfig{
		NumShards:     cfg.Session.Shards,
		ShardCapacity: cfg.Session.ShardCapacity,
		IdleTTL:       cfg.Session.IdleTTL,
	})

	// Handlers outlive ctx so queued messages can drain after a signal.
	workCtx, cancelWork := context.WithCancel(context.Background())
	defer cancelWork()
	dispatcher := workflow.NewDispatcher(workCtx, a.newEngine(sessions), workflow.DispatcherConfig{
		MaxPending:  cfg.Telegram.MaxPending,
		Subscribers: a.subscribers,
		Logger:      logger.With("component", "dispatcher"),
	})

	api, err := telegram.New(cfg.Telegram.Token, cfg.Telegram.APIEndpoint, &http.Client{})
	if err != nil {
		return err
	}
	logger.Info("connected to telegram", "bot", api.Self.UserName, "mode", cfg.Telegram.Mode)

	bot := telegram.NewBot(api, dispatcher, telegram.Config{
		PollTimeout: cfg.Telegram.PollTimeout,
		Logger:      logger.With("component", "telegram"),
	})

	if cfg.Digest.Enabled {
		loc, _ := cfg.Digest.Location()
		scheduler, err := digest.NewScheduler(a.builder, a.subscribers, bot, digest.SchedulerConfig{
			Schedule: cfg.Digest.Cron,
			Location: loc,
			Logger:   logger.With("component", "digest"),
		})
		if err != nil {
			return err
		}
		scheduler.Start()
		defer scheduler.Stop(context.Background())
		logger.Info("daily digest scheduled", "cron", cfg.Digest.Cron, "next", scheduler.Next())
	}

	g, gctx := errgroup.WithContext(ctx)

	webhook := cfg.Telegram.Mode == "webhook"
	if cfg.Server.Addr != "" {
		srvCfg := server.Config{
			Addr:   cfg.Server.Addr,
			Logger: logger.With("component", "http"),
		}
		if webhook {
			srvCfg.Updates = bot
			srvCfg.WebhookSecret = cfg.Telegram.WebhookSecret
		}
		srv := server.New(srvCfg)
		g.Go(func() error { return srv.Run(gctx) })
	}
	if !webhook {
		g.Go(func() error { return bot.Run(gctx) })
	}

	logger.Info("bot started")
	err = g.Wait()
	if err != nil && ctx.Err() == nil {
		logger.Error("bot stopped", "err", err)
	} else {
		err = nil
	}

	drainCtx, cancel := context.WithTimeout(context.Background(), drainTimeout)
	defer cancel()
	if derr := dispatcher.Close(drainCtx); derr != nil {
		logger.Warn("pending conversations dropped", "err", derr)
	}
	logger.Info("bot stopped")
	if err != nil {
		return fmt.Errorf("serve: %w", err)
	}
	return nil
}
