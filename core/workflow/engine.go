// Package workflow is the per-conversation intake state machine. It turns
// inbound chat events into classification calls, store writes and replies,
// holding at most one pending decision per conversation between turns.
package workflow

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/Rishi-choudhary/PARA-AI/core/archive"
	"github.com/Rishi-choudhary/PARA-AI/core/classify"
	"github.com/Rishi-choudhary/PARA-AI/core/domain"
	paraerrors "github.com/Rishi-choudhary/PARA-AI/core/errors"
	"github.com/Rishi-choudhary/PARA-AI/core/knowledge"
	"github.com/Rishi-choudhary/PARA-AI/core/session"
)

// Archiver moves a page into the Archive bucket.
type Archiver interface {
	Move(ctx context.Context, req archive.Request) archive.Result
}

// Summarizer renders today's capture summary.
type Summarizer interface {
	Summarize(ctx context.Context, now time.Time) (string, error)
}

// Subscriber registers a conversation for the daily digest.
type Subscriber interface {
	Subscribe(ctx context.Context, conversationID string) error
}

// Config holds the engine's collaborators and tunables.
type Config struct {
	Sessions   *session.Store
	Classifier classify.Client
	Store      knowledge.Store
	Archiver   Archiver

	// Summarizer and Subscribers are optional.
	Summarizer  Summarizer
	Subscribers Subscriber

	// ExtractTimeout bounds the /task extraction call (default: 20s).
	ExtractTimeout time.Duration

	// SearchLimit caps /search results (default: 10).
	SearchLimit int

	// TaskStatus is the status given to new tasks (default: "To Do").
	TaskStatus string

	// Location resolves "today" for task extraction (default: Local).
	Location *time.Location

	Now    func() time.Time
	Logger *slog.Logger
}

// Engine processes one inbound event at a time per conversation. Callers
// must serialize Handle calls for the same conversation.
type Engine struct {
	sessions    *session.Store
	classifier  classify.Client
	store       knowledge.Store
	archiver    Archiver
	summarizer  Summarizer
	subscribers Subscriber

	extractTimeout time.Duration
	searchLimit    int
	taskStatus     string
	location       *time.Location
	now            func() time.Time
	logger         *slog.Logger
}

// NewEngine creates an engine from cfg.
func NewEngine(cfg Config) *Engine {
	if cfg.ExtractTimeout <= 0 {
		cfg.ExtractTimeout = 20 * time.Second
	}
	if cfg.SearchLimit <= 0 {
		cfg.SearchLimit = 10
	}
	if cfg.TaskStatus == "" {
		cfg.TaskStatus = "To Do"
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Archiver == nil {
		cfg.Archiver = archive.NewTransfer(cfg.Store, cfg.Logger)
	}
	return &Engine{
		sessions:       cfg.Sessions,
		classifier:     cfg.Classifier,
		store:          cfg.Store,
		archiver:       cfg.Archiver,
		summarizer:     cfg.Summarizer,
		subscribers:    cfg.Subscribers,
		extractTimeout: cfg.ExtractTimeout,
		searchLimit:    cfg.SearchLimit,
		taskStatus:     cfg.TaskStatus,
		location:       cfg.Location,
		now:            cfg.Now,
		logger:         cfg.Logger,
	}
}

// =============================================================================
// Turn
// =============================================================================

// turn collects the replies of one Handle call and forwards each to the
// sink as soon as it is produced.
type turn struct {
	in      Inbound
	sink    ReplySink
	replies []Reply
	logger  *slog.Logger
}

func (t *turn) emit(r Reply) {
	t.replies = append(t.replies, r)
	if t.sink != nil {
		t.sink.Deliver(r)
	}
}

func (t *turn) send(outcome Outcome, text string) {
	t.emit(Reply{Kind: ReplySend, Text: text, Outcome: outcome})
}

func (t *turn) edit(outcome Outcome, text string) {
	t.emit(Reply{Kind: ReplyEdit, Text: text, Outcome: outcome})
}

func (t *turn) ask(text string, choices ...Choice) {
	t.emit(Reply{Kind: ReplySendWithChoices, Text: text, Choices: choices, Outcome: OutcomePending})
}

// Handle processes one inbound event and returns the replies in the order
// they were produced. If sink is non-nil each reply is also delivered to it
// as it is produced. Failures are reported as replies; Handle never returns
// an error.
func (e *Engine) Handle(ctx context.Context, in Inbound, sink ReplySink) []Reply {
	t := &turn{
		in:   in,
		sink: sink,
		logger: e.logger.With(
			"conversation", string(in.Conversation),
			"event", eventName(in.Event),
			"event_id", in.ID),
	}

	switch ev := in.Event.(type) {
	case ButtonPressed:
		e.handleAction(ctx, t, ev.Action)
		return t.replies
	case CommandReceived:
		if strings.EqualFold(ev.Name, "cancel") {
			e.handleCancelCommand(t)
			return t.replies
		}
	}

	// Any other signal supersedes whatever the conversation was waiting on.
	if prev := e.sessions.Set(in.Conversation, nil); prev != nil {
		t.logger.Info("pending decision superseded", "decision", prev.Kind().String())
	}

	switch ev := in.Event.(type) {
	case TextReceived:
		e.handleText(ctx, t, ev)
	case LinkReceived:
		e.handleLink(ctx, t, ev)
	case MediaReceived:
		e.handleMedia(ctx, t, ev)
	case CommandReceived:
		e.handleCommand(ctx, t, ev)
	default:
		t.logger.Warn("unhandled event type")
	}
	return t.replies
}

// =============================================================================
// Free text
// =============================================================================

func (e *Engine) handleText(ctx context.Context, t *turn, ev TextReceived) {
	c, err := e.classifier.Classify(ctx, ev.Text)
	if err != nil {
		e.reportFailure(t, err)
		return
	}

	if c.Category == domain.BucketProjects {
		e.handleProject(ctx, t, c)
		return
	}
	e.commitClassified(ctx, t, c)
}

func (e *Engine) commitClassified(ctx context.Context, t *turn, c domain.Classification) {
	url, err := e.store.CreatePage(ctx, knowledge.NewPage{
		Bucket: c.Category,
		Title:  c.Title,
		Tags:   c.Tags,
	})
	if err != nil {
		t.logger.Warn("store write failed", "bucket", c.Category.String(), "err", err)
		t.send(OutcomeFailed, msgAddFailed(c.Category))
		return
	}
	t.logger.Info("page committed", "bucket", c.Category.String(), "title", c.Title)
	t.send(OutcomeCommitted, msgAdded(c.Category, url, c.Title))
}

func (e *Engine) handleProject(ctx context.Context, t *turn, c domain.Classification) {
	verdict, err := e.classifier.JudgeComplexity(ctx, c.Title)
	if err != nil {
		t.logger.Warn("complexity judgement failed, asking the user", "err", err)
		verdict = domain.ComplexityComplex
	}

	if verdict == domain.ComplexitySimple {
		e.commitClassified(ctx, t, c)
		return
	}

	e.sessions.Set(t.in.Conversation, session.AwaitingProjectBreakdownChoice{Classification: c.Clone()})
	t.ask(msgProjectQuestion(c.Title),
		Choice{Label: labelBreakdownYes, Action: ActionBreakdownYes},
		Choice{Label: labelBreakdownNo, Action: ActionBreakdownNo})
}

// =============================================================================
// Decisions
// =============================================================================

func (e *Engine) handleAction(ctx context.Context, t *turn, action Action) {
	pending := e.sessions.Get(t.in.Conversation)
	t.logger.Debug("action received",
		"action", action.String(),
		"decision", session.KindOf(pending).String())

	switch d := pending.(type) {
	case session.AwaitingProjectBreakdownChoice:
		switch action {
		case ActionBreakdownYes:
			e.breakdown(ctx, t, d.Classification)
			return
		case ActionBreakdownNo:
			e.clear(t)
			t.edit(OutcomeProgress, msgAddingPlain)
			e.commitProject(ctx, t, d.Classification, nil)
			return
		case ActionCancel:
			e.cancel(t, msgCancelled)
			return
		}

	case session.AwaitingTaskListApproval:
		switch action {
		case ActionApproveTasks:
			e.clear(t)
			t.edit(OutcomeProgress, msgAddingWithTasks)
			e.commitProject(ctx, t, d.Classification, d.Tasks)
			return
		case ActionRejectTasks:
			e.clear(t)
			t.edit(OutcomeProgress, msgAddingPlain)
			e.commitProject(ctx, t, d.Classification, nil)
			return
		case ActionCancel:
			e.cancel(t, msgCancelled)
			return
		}

	case session.AwaitingArchiveConfirmation:
		switch action {
		case ActionConfirmArchive:
			e.clear(t)
			e.confirmArchive(ctx, t, d)
			return
		case ActionCancelArchive, ActionCancel:
			e.cancel(t, msgArchiveCancelled)
			return
		}
	}

	// Nothing pending, or a button from a different question.
	t.logger.Info("stale confirmation",
		"action", action.String(),
		"decision", session.KindOf(pending).String())
	t.edit(OutcomeStale, msgStale)
}

func (e *Engine) breakdown(ctx context.Context, t *turn, c domain.Classification) {
	t.edit(OutcomeProgress, msgBreakingDown(c.Title))

	tasks, err := e.classifier.Breakdown(ctx, c.Title)
	if err != nil || len(tasks) == 0 {
		if err != nil {
			t.logger.Warn("breakdown failed", "title", c.Title, "err", err)
		}
		e.clear(t)
		t.edit(OutcomeProgress, msgBreakdownFailed)
		e.commitProject(ctx, t, c, nil)
		return
	}

	e.sessions.Set(t.in.Conversation, session.AwaitingTaskListApproval{
		Classification: c,
		Tasks:          append([]string(nil), tasks...),
	})
	t.ask(msgTaskList(c.Title, tasks),
		Choice{Label: labelApproveTasks, Action: ActionApproveTasks},
		Choice{Label: labelRejectTasks, Action: ActionRejectTasks})
}

func (e *Engine) commitProject(ctx context.Context, t *turn, c domain.Classification, tasks []string) {
	page := knowledge.NewPage{
		Bucket: domain.BucketProjects,
		Title:  c.Title,
		Tags:   c.Tags,
	}
	if len(tasks) > 0 {
		page.Blocks = knowledge.Checklist(tasks)
	}

	url, err := e.store.CreatePage(ctx, page)
	if err != nil {
		t.logger.Warn("project write failed", "title", c.Title, "err", err)
		t.edit(OutcomeFailed, msgProjectFailed)
		return
	}
	t.logger.Info("project committed", "title", c.Title, "tasks", len(tasks))
	t.edit(OutcomeCommitted, msgProjectAdded(url, c.Title, len(tasks) > 0))
}

func (e *Engine) confirmArchive(ctx context.Context, t *turn, d session.AwaitingArchiveConfirmation) {
	t.edit(OutcomeProgress, msgArchiving)

	res := e.archiver.Move(ctx, archive.Request{
		PageID:          d.PageID,
		Title:           d.Title,
		TitleProperties: d.TitleProperties,
		TagProperties:   d.TagProperties,
	})
	t.logger.Info("archive move finished", "page", d.PageID, "outcome", res.Outcome.String())

	switch res.Outcome {
	case archive.Success:
		t.edit(OutcomeCommitted, msgArchived(res.URL, d.Title))
	case archive.CreatedButNotMarkedInactive:
		t.edit(OutcomePartial, msgArchivePartial(res.URL, d.URL, d.Title))
	default:
		t.edit(OutcomeFailed, msgArchiveFailed)
	}
}

func (e *Engine) cancel(t *turn, text string) {
	e.clear(t)
	t.edit(OutcomeCancelled, text)
}

func (e *Engine) handleCancelCommand(t *turn) {
	if prev := e.sessions.Set(t.in.Conversation, nil); prev != nil {
		t.logger.Info("pending decision cancelled", "decision", prev.Kind().String())
		t.send(OutcomeCancelled, msgCancelled)
		return
	}
	t.send(OutcomeInfo, msgNothingPending)
}

func (e *Engine) clear(t *turn) {
	e.sessions.Clear(t.in.Conversation)
}

// reportFailure renders err using the message for its kind.
func (e *Engine) reportFailure(t *turn, err error) {
	k, _ := paraerrors.KindOf(err)
	t.logger.Warn("request failed", "kind", k.String(), "err", err)

	if k == paraerrors.KindStoreQuery {
		t.send(OutcomeQueryFailed, msgQueryFailed)
		return
	}
	t.send(OutcomeFailed, msgClassifyFailed)
}
