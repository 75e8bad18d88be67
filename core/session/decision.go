package session

import (
	"github.com/Rishi-choudhary/PARA-AI/core/domain"
)

// =============================================================================
// Pending Decision
// =============================================================================

// DecisionKind names the variant of a pending decision.
type DecisionKind int

const (
	// KindNone is the idle state; the store holds no decision.
	KindNone DecisionKind = iota
	KindProjectBreakdownChoice
	KindTaskListApproval
	KindArchiveConfirmation
)

// String returns the string representation of a decision kind
func (k DecisionKind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindProjectBreakdownChoice:
		return "awaiting_project_breakdown_choice"
	case KindTaskListApproval:
		return "awaiting_task_list_approval"
	case KindArchiveConfirmation:
		return "awaiting_archive_confirmation"
	default:
		return "unknown"
	}
}

// Decision is the one outstanding multi-turn choice a conversation may be
// waiting on. The set of variants is closed; a nil Decision means idle.
type Decision interface {
	Kind() DecisionKind
	decision()
}

// AwaitingProjectBreakdownChoice holds a complex project while the user
// decides whether to break it into sub-tasks.
type AwaitingProjectBreakdownChoice struct {
	Classification domain.Classification
}

// AwaitingTaskListApproval holds a project and its suggested sub-tasks.
// Tasks are in suggested execution order.
type AwaitingTaskListApproval struct {
	Classification domain.Classification
	Tasks          []string
}

// AwaitingArchiveConfirmation holds the page found by an archive lookup.
type AwaitingArchiveConfirmation struct {
	PageID          string
	URL             string
	Title           string
	TitleProperties domain.PropertyBag
	TagProperties   domain.PropertyBag
}

func (AwaitingProjectBreakdownChoice) Kind() DecisionKind { return KindProjectBreakdownChoice }
func (AwaitingTaskListApproval) Kind() DecisionKind       { return KindTaskListApproval }
func (AwaitingArchiveConfirmation) Kind() DecisionKind    { return KindArchiveConfirmation }

func (AwaitingProjectBreakdownChoice) decision() {}
func (AwaitingTaskListApproval) decision()       {}
func (AwaitingArchiveConfirmation) decision()    {}

// KindOf returns the kind of d, treating nil as KindNone.
func KindOf(d Decision) DecisionKind {
	if d == nil {
		return KindNone
	}
	return d.Kind()
}
