package workflow

// ReplyKind says how the transport should render a reply.
type ReplyKind int

const (
	// ReplySend posts a new message.
	ReplySend ReplyKind = iota

	// ReplyEdit rewrites the message whose button started this turn. Outside
	// a button turn the transport sends it as a new message instead.
	ReplyEdit

	// ReplySendWithChoices posts a new message with choice buttons.
	ReplySendWithChoices
)

func (k ReplyKind) String() string {
	switch k {
	case ReplySend:
		return "send"
	case ReplyEdit:
		return "edit"
	case ReplySendWithChoices:
		return "send_with_choices"
	default:
		return "unknown"
	}
}

// Outcome labels what a reply reports, for logs and tests.
type Outcome string

const (
	OutcomeInfo        Outcome = "info"
	OutcomeProgress    Outcome = "progress"
	OutcomeCommitted   Outcome = "committed"
	OutcomePending     Outcome = "pending"
	OutcomeCancelled   Outcome = "cancelled"
	OutcomeNotFound    Outcome = "not_found"
	OutcomeStale       Outcome = "stale"
	OutcomeFailed      Outcome = "failed"
	OutcomePartial     Outcome = "partial"
	OutcomeUsage       Outcome = "usage"
	OutcomeQueryFailed Outcome = "query_failed"
)

// Choice is one button offered with a reply.
type Choice struct {
	Label  string
	Action Action
}

// Reply is one message the engine wants shown. Text is HTML.
type Reply struct {
	Kind    ReplyKind
	Text    string
	Choices []Choice
	Outcome Outcome
}

// ReplySink receives replies as the engine produces them, so progress
// messages reach the user before slow calls finish.
type ReplySink interface {
	Deliver(r Reply)
}

// ReplySinkFunc adapts a function to ReplySink.
type ReplySinkFunc func(Reply)

func (f ReplySinkFunc) Deliver(r Reply) { f(r) }
