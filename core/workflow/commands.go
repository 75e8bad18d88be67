package workflow

import (
	"context"
	"strings"

	"github.com/Rishi-choudhary/PARA-AI/core/domain"
	"github.com/Rishi-choudhary/PARA-AI/core/knowledge"
	"github.com/Rishi-choudhary/PARA-AI/core/session"
)

func (e *Engine) handleCommand(ctx context.Context, t *turn, ev CommandReceived) {
	args := strings.TrimSpace(ev.Args)

	switch strings.ToLower(ev.Name) {
	case "start", "help":
		e.handleStart(ctx, t)
	case "task":
		e.handleTask(ctx, t, args)
	case "archive":
		e.handleArchive(ctx, t, args)
	case "search":
		e.handleSearch(ctx, t, args)
	case "summary":
		e.handleSummary(ctx, t)
	default:
		t.send(OutcomeInfo, msgUnknownCommand(ev.Name))
	}
}

func (e *Engine) handleStart(ctx context.Context, t *turn) {
	if e.subscribers != nil {
		if err := e.subscribers.Subscribe(ctx, string(t.in.Conversation)); err != nil {
			t.logger.Warn("digest subscription failed", "err", err)
		}
	}
	t.send(OutcomeInfo, msgGreeting(t.in.UserName))
}

// =============================================================================
// /task
// =============================================================================

func (e *Engine) handleTask(ctx context.Context, t *turn, phrase string) {
	if phrase == "" {
		t.send(OutcomeUsage, msgTaskUsage)
		return
	}

	extractCtx, cancel := context.WithTimeout(ctx, e.extractTimeout)
	defer cancel()

	task, err := e.classifier.ExtractTask(extractCtx, phrase, e.now().In(e.location))
	if err != nil {
		e.reportFailure(t, err)
		return
	}
	if !task.HasName() {
		t.logger.Info("no task found in phrase")
		t.send(OutcomeFailed, msgTaskNotFound)
		return
	}

	url, err := e.store.CreatePage(ctx, knowledge.NewPage{
		Bucket:  domain.BucketTasks,
		Title:   task.TaskName,
		Status:  e.taskStatus,
		DueDate: task.DueDate,
	})
	if err != nil {
		t.logger.Warn("task write failed", "err", err)
		t.send(OutcomeFailed, msgTaskFailed)
		return
	}
	t.logger.Info("task committed", "task", task.TaskName, "has_due_date", task.DueDate != nil)
	t.send(OutcomeCommitted, msgTaskAdded(url, task.TaskName, task.DueDate))
}

// =============================================================================
// /archive
// =============================================================================

// handleArchive looks the title up bucket by bucket and stops at the first
// exact match. The same title in a later bucket is never considered.
func (e *Engine) handleArchive(ctx context.Context, t *turn, title string) {
	if title == "" {
		t.send(OutcomeUsage, msgArchiveUsage)
		return
	}
	t.send(OutcomeProgress, msgSearchingArchive(title))

	for _, bucket := range domain.ArchiveLookupOrder() {
		handle, err := e.store.QueryExactTitle(ctx, bucket, title)
		if err != nil {
			e.reportFailure(t, err)
			return
		}
		if handle == nil {
			continue
		}

		found := title
		if handle.Title != "" {
			found = handle.Title
		}
		e.sessions.Set(t.in.Conversation, session.AwaitingArchiveConfirmation{
			PageID:          handle.ID,
			URL:             handle.URL,
			Title:           found,
			TitleProperties: handle.TitleProperty.Clone(),
			TagProperties:   handle.TagProperty.Clone(),
		})
		t.ask(msgArchiveQuestion(bucket, handle.URL, found),
			Choice{Label: labelConfirmArchive, Action: ActionConfirmArchive},
			Choice{Label: labelCancelArchive, Action: ActionCancelArchive})
		return
	}

	t.send(OutcomeNotFound, msgArchiveNotFound(title))
}

// =============================================================================
// /search and /summary
// =============================================================================

func (e *Engine) handleSearch(ctx context.Context, t *turn, query string) {
	if query == "" {
		t.send(OutcomeUsage, msgSearchUsage)
		return
	}

	hits, err := e.store.Search(ctx, query, e.searchLimit)
	if err != nil {
		e.reportFailure(t, err)
		return
	}
	if len(hits) > e.searchLimit {
		hits = hits[:e.searchLimit]
	}
	t.send(OutcomeInfo, msgSearchResults(query, hits))
}

func (e *Engine) handleSummary(ctx context.Context, t *turn) {
	if e.summarizer == nil {
		t.send(OutcomeInfo, msgSummaryDisabled)
		return
	}
	text, err := e.summarizer.Summarize(ctx, e.now().In(e.location))
	if err != nil {
		t.logger.Warn("summary failed", "err", err)
		t.send(OutcomeQueryFailed, msgSummaryFailed)
		return
	}
	t.send(OutcomeInfo, text)
}

// =============================================================================
// Links and media
// =============================================================================

func (e *Engine) handleLink(ctx context.Context, t *turn, ev LinkReceived) {
	url, err := e.store.CreatePage(ctx, knowledge.NewPage{
		Bucket: domain.BucketResources,
		Title:  ev.URL,
		Tags:   []string{"Url"},
		Blocks: []knowledge.Block{knowledge.Bookmark(ev.URL)},
	})
	if err != nil {
		t.logger.Warn("link write failed", "err", err)
		t.send(OutcomeFailed, msgLinkFailed())
		return
	}
	t.send(OutcomeCommitted, msgLinkSaved(url, ev.URL))
}

func (e *Engine) handleMedia(ctx context.Context, t *turn, ev MediaReceived) {
	title := mediaTitle(ev)
	url, err := e.store.CreatePage(ctx, knowledge.NewPage{
		Bucket: domain.BucketResources,
		Title:  title,
		Tags:   []string{ev.Kind.String()},
		Blocks: []knowledge.Block{knowledge.Embed(ev.FileURL)},
	})
	if err != nil {
		t.logger.Warn("media write failed", "kind", ev.Kind.String(), "err", err)
		t.send(OutcomeFailed, msgMediaFailed(ev.Kind))
		return
	}
	t.send(OutcomeCommitted, msgMediaSaved(ev.Kind, url, title))
}

func mediaTitle(ev MediaReceived) string {
	if s := strings.TrimSpace(ev.Caption); s != "" {
		return s
	}
	if s := strings.TrimSpace(ev.FileName); s != "" {
		return s
	}
	return "Telegram " + ev.Kind.String()
}
