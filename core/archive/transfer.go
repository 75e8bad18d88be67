// Package archive moves a page into the Archive bucket in two steps: copy,
// then retire the original. The steps are not transactional and the result
// says exactly how far the move got.
package archive

import (
	"context"
	"log/slog"

	"github.com/Rishi-choudhary/PARA-AI/core/domain"
	paraerrors "github.com/Rishi-choudhary/PARA-AI/core/errors"
	"github.com/Rishi-choudhary/PARA-AI/core/knowledge"
)

// Outcome is how far a move got.
type Outcome int

const (
	// Success means the copy exists and the original is retired.
	Success Outcome = iota

	// CreatedButNotMarkedInactive means the copy exists but the original is
	// still live. The user has to reconcile by hand.
	CreatedButNotMarkedInactive

	// FailedBeforeCreate means nothing was written.
	FailedBeforeCreate
)

func (o Outcome) String() string {
	switch o {
	case Success:
		return "success"
	case CreatedButNotMarkedInactive:
		return "created_but_not_marked_inactive"
	case FailedBeforeCreate:
		return "failed_before_create"
	default:
		return "unknown"
	}
}

// Request identifies the page to move and the properties to carry over.
type Request struct {
	PageID          string
	Title           string
	TitleProperties domain.PropertyBag
	TagProperties   domain.PropertyBag
}

// Result reports the outcome. URL is set whenever the archive copy exists.
type Result struct {
	Outcome Outcome
	URL     string
	Err     error
}

// Transfer runs archive moves against a knowledge store.
type Transfer struct {
	store  knowledge.Store
	logger *slog.Logger
}

func NewTransfer(store knowledge.Store, logger *slog.Logger) *Transfer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Transfer{store: store, logger: logger}
}

// Move copies the page into Archive and then marks the original archived.
// Neither step is retried. A failed create skips the patch entirely.
func (t *Transfer) Move(ctx context.Context, req Request) Result {
	url, err := t.store.CreatePage(ctx, knowledge.NewPage{
		Bucket:          domain.BucketArchive,
		Title:           req.Title,
		TitleProperties: req.TitleProperties.Clone(),
		TagProperties:   req.TagProperties.Clone(),
	})
	if err != nil {
		t.logger.Warn("archive copy failed", "page", req.PageID, "err", err)
		return Result{
			Outcome: FailedBeforeCreate,
			Err:     paraerrors.Wrap(paraerrors.KindStoreWrite, "create archive copy", err),
		}
	}

	if err := t.store.Patch(ctx, req.PageID, knowledge.MarkArchived()); err != nil {
		t.logger.Error("archive copy created but original still live",
			"page", req.PageID,
			"copy", url,
			"err", err)
		return Result{
			Outcome: CreatedButNotMarkedInactive,
			URL:     url,
			Err: paraerrors.New(paraerrors.KindPartialArchive, "mark original archived", err).
				WithBucket(domain.BucketArchive.String()),
		}
	}

	t.logger.Info("page archived", "page", req.PageID, "copy", url)
	return Result{Outcome: Success, URL: url}
}
