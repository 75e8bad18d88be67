package digest

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// DefaultSchedule sends the digest at 21:00 every day.
const DefaultSchedule = "0 21 * * *"

// Sender delivers a message to a conversation.
type Sender interface {
	Send(ctx context.Context, conversationID, text string) error
}

// Registry lists digest recipients.
type Registry interface {
	List(ctx context.Context) ([]string, error)
}

type SchedulerConfig struct {
	// Schedule is a standard five-field cron expression (default: DefaultSchedule).
	Schedule string

	// Location is the timezone the schedule and "today" are read in.
	Location *time.Location

	// SendTimeout bounds one full digest run (default: 2m).
	SendTimeout time.Duration

	Logger *slog.Logger
}

// Scheduler sends the daily summary to every subscriber on a cron schedule.
type Scheduler struct {
	cron        *cron.Cron
	builder     *Builder
	registry    Registry
	sender      Sender
	location    *time.Location
	sendTimeout time.Duration
	logger      *slog.Logger
}

// NewScheduler validates the schedule and registers the digest job. The
// job does not run until Start.
func NewScheduler(builder *Builder, registry Registry, sender Sender, cfg SchedulerConfig) (*Scheduler, error) {
	if cfg.Schedule == "" {
		cfg.Schedule = DefaultSchedule
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = 2 * time.Minute
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	cl := cronLogger{cfg.Logger}
	s := &Scheduler{
		cron: cron.New(
			cron.WithLocation(cfg.Location),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		builder:     builder,
		registry:    registry,
		sender:      sender,
		location:    cfg.Location,
		sendTimeout: cfg.SendTimeout,
		logger:      cfg.Logger,
	}

	if _, err := s.cron.AddFunc(cfg.Schedule, s.tick); err != nil {
		return nil, fmt.Errorf("digest schedule %q: %w", cfg.Schedule, err)
	}
	return s, nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("digest scheduler started", "next", s.Next())
}

// Stop halts the schedule and waits for a running digest to finish or ctx
// to expire.
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
	}
}

// Next is the next scheduled run, zero before Start.
func (s *Scheduler) Next() time.Time {
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}

func (s *Scheduler) tick() {
	ctx, cancel := context.WithTimeout(context.Background(), s.sendTimeout)
	defer cancel()
	if _, err := s.RunOnce(ctx, time.Now()); err != nil {
		s.logger.Error("digest run failed", "err", err)
	}
}

// RunOnce builds today's summary and sends it to every subscriber. A
// failed send is logged and does not stop the others. It returns how many
// sends succeeded.
func (s *Scheduler) RunOnce(ctx context.Context, now time.Time) (int, error) {
	ids, err := s.registry.List(ctx)
	if err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		s.logger.Info("digest skipped, no subscribers")
		return 0, nil
	}

	text, err := s.builder.Summarize(ctx, now.In(s.location))
	if err != nil {
		return 0, fmt.Errorf("build digest: %w", err)
	}

	sent := 0
	for _, id := range ids {
		if err := s.sender.Send(ctx, id, text); err != nil {
			s.logger.Warn("digest send failed", "conversation", id, "err", err)
			continue
		}
		sent++
	}
	s.logger.Info("digest sent", "subscribers", len(ids), "delivered", sent)
	return sent, nil
}

// cronLogger routes cron's logging into slog.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error("cron: "+msg, append(keysAndValues, "err", err)...)
}
