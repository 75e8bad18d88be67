// Package telegram connects the intake workflow to the Telegram Bot API. It
// translates updates into workflow events, renders replies back into the
// chat and runs either a long-polling loop or a webhook handler.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Rishi-choudhary/PARA-AI/core/session"
	"github.com/Rishi-choudhary/PARA-AI/core/workflow"
)

// API is the subset of *tgbotapi.BotAPI the bot uses.
type API interface {
	Sender
	FileResolver
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Dispatcher queues inbound events for the engine.
type Dispatcher interface {
	Dispatch(in workflow.Inbound, sink workflow.ReplySink) error
}

// Config configures a Bot.
type Config struct {
	// PollTimeout is the long-poll timeout in seconds (default: 30).
	PollTimeout int
	Logger      *slog.Logger
}

// Bot moves updates from Telegram into the dispatcher.
type Bot struct {
	api         API
	dispatcher  Dispatcher
	pollTimeout int
	logger      *slog.Logger

	stopOnce sync.Once
}

// New connects to the Bot API with token and returns the raw client.
func New(token, endpoint string, client *http.Client) (*tgbotapi.BotAPI, error) {
	if endpoint == "" {
		endpoint = tgbotapi.APIEndpoint
	}
	if client == nil {
		client = &http.Client{}
	}
	api, err := tgbotapi.NewBotAPIWithClient(token, endpoint, client)
	if err != nil {
		return nil, fmt.Errorf("connect to telegram: %w", err)
	}
	return api, nil
}

// NewBot creates a bot over api that hands events to dispatcher.
func NewBot(api API, dispatcher Dispatcher, cfg Config) *Bot {
	if cfg.PollTimeout <= 0 {
		cfg.PollTimeout = 30
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Bot{
		api:         api,
		dispatcher:  dispatcher,
		pollTimeout: cfg.PollTimeout,
		logger:      cfg.Logger,
	}
}

// Run long-polls for updates until ctx is cancelled.
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = b.pollTimeout
	updates := b.api.GetUpdatesChan(u)

	b.logger.Info("telegram polling started", "timeout", b.pollTimeout)
	defer b.stop()

	for {
		select {
		case <-ctx.Done():
			b.logger.Info("telegram polling stopped")
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return errors.New("telegram update channel closed")
			}
			b.HandleUpdate(update)
		}
	}
}

func (b *Bot) stop() {
	b.stopOnce.Do(b.api.StopReceivingUpdates)
}

// HandleUpdate translates one update and queues it. It returns once the
// event is queued, not once it is handled.
func (b *Bot) HandleUpdate(update tgbotapi.Update) {
	in, ok, err := Translate(b.api, update)
	if update.CallbackQuery != nil {
		b.answer(update.CallbackQuery.ID)
	}
	if err != nil {
		b.logger.Warn("update translation failed", "update", update.UpdateID, "err", err)
		if chat := update.FromChat(); chat != nil {
			b.sendPlain(chat.ID, "❌ Error processing file.")
		}
		return
	}
	if !ok {
		b.logger.Debug("update ignored", "update", update.UpdateID)
		return
	}

	chatID, err := ChatID(in.Conversation)
	if err != nil {
		b.logger.Error("bad conversation id", "conversation", string(in.Conversation), "err", err)
		return
	}

	switch in.Event.(type) {
	case workflow.TextReceived, workflow.LinkReceived, workflow.MediaReceived:
		b.typing(chatID)
	}

	sink := newChatSink(b.api, chatID, in, b.logger)
	if err := b.dispatcher.Dispatch(in, sink); err != nil {
		b.logger.Warn("event rejected", "conversation", string(in.Conversation), "err", err)
		b.sendPlain(chatID, "I'm still working on your earlier messages. Please try again in a moment.")
	}
}

// Send posts an HTML message to a conversation. It serves the daily digest.
func (b *Bot) Send(_ context.Context, conversationID, text string) error {
	chatID, err := ChatID(session.ConversationID(conversationID))
	if err != nil {
		return fmt.Errorf("conversation %q: %w", conversationID, err)
	}
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true
	if _, err := b.api.Send(msg); err != nil {
		return fmt.Errorf("send to %d: %w", chatID, err)
	}
	return nil
}

func (b *Bot) answer(callbackID string) {
	if _, err := b.api.Request(tgbotapi.NewCallback(callbackID, "")); err != nil {
		b.logger.Debug("callback answer failed", "err", err)
	}
}

func (b *Bot) typing(chatID int64) {
	if _, err := b.api.Request(tgbotapi.NewChatAction(chatID, tgbotapi.ChatTyping)); err != nil {
		b.logger.Debug("chat action failed", "chat", chatID, "err", err)
	}
}

func (b *Bot) sendPlain(chatID int64, text string) {
	if _, err := b.api.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		b.logger.Warn("send failed", "chat", chatID, "err", err)
	}
}
