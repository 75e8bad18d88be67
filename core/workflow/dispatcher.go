package workflow

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/Rishi-choudhary/PARA-AI/core/concurrency"
	"github.com/Rishi-choudhary/PARA-AI/core/session"
)

// DispatcherConfig configures a Dispatcher.
type DispatcherConfig struct {
	// MaxPending caps queued events per conversation (0 = unbounded).
	MaxPending int

	// Subscribers, if set, is told about every conversation the first time
	// it is seen by this process.
	Subscribers Subscriber

	Logger *slog.Logger
}

// Dispatcher feeds inbound events to the engine, one at a time and in
// arrival order per conversation, with conversations running concurrently.
type Dispatcher struct {
	engine      *Engine
	queue       *concurrency.KeyedQueue[session.ConversationID]
	subscribers Subscriber
	seen        sync.Map
	logger      *slog.Logger
}

// NewDispatcher creates a dispatcher whose handlers run under ctx.
func NewDispatcher(ctx context.Context, engine *Engine, cfg DispatcherConfig) *Dispatcher {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Dispatcher{
		engine: engine,
		queue: concurrency.NewKeyedQueue[session.ConversationID](ctx, concurrency.KeyedQueueConfig{
			MaxPending: cfg.MaxPending,
			Logger:     cfg.Logger,
		}),
		subscribers: cfg.Subscribers,
		logger:      cfg.Logger,
	}
}

// Dispatch queues in behind earlier events from the same conversation.
// Replies are delivered to sink as they are produced.
func (d *Dispatcher) Dispatch(in Inbound, sink ReplySink) error {
	return d.queue.Submit(in.Conversation, func(ctx context.Context) {
		d.firstContact(ctx, in.Conversation)

		start := time.Now()
		replies := d.engine.Handle(ctx, in, sink)

		last := OutcomeInfo
		if len(replies) > 0 {
			last = replies[len(replies)-1].Outcome
		}
		d.logger.Info("event handled",
			"conversation", string(in.Conversation),
			"event", eventName(in.Event),
			"event_id", in.ID,
			"replies", len(replies),
			"outcome", string(last),
			"duration", time.Since(start))
	})
}

func (d *Dispatcher) firstContact(ctx context.Context, id session.ConversationID) {
	if d.subscribers == nil {
		return
	}
	if _, loaded := d.seen.LoadOrStore(id, struct{}{}); loaded {
		return
	}
	if err := d.subscribers.Subscribe(ctx, string(id)); err != nil {
		d.seen.Delete(id)
		d.logger.Warn("digest subscription failed", "conversation", string(id), "err", err)
	}
}

// Close stops accepting events and waits for queued ones to finish.
func (d *Dispatcher) Close(ctx context.Context) error {
	return d.queue.Close(ctx)
}
