package workflow

// Action is a user decision delivered by pressing a choice button.
type Action int

const (
	ActionUnknown Action = iota
	ActionBreakdownYes
	ActionBreakdownNo
	ActionApproveTasks
	ActionRejectTasks
	ActionConfirmArchive
	ActionCancelArchive
	ActionCancel
)

// Payloads match the callback data the bot has always used, so buttons on
// messages sent before an upgrade keep working.
var actionPayloads = map[Action]string{
	ActionBreakdownYes:   "breakdown_yes",
	ActionBreakdownNo:    "breakdown_no",
	ActionApproveTasks:   "approve_tasks",
	ActionRejectTasks:    "cancel_tasks",
	ActionConfirmArchive: "archive_confirm",
	ActionCancelArchive:  "archive_cancel",
	ActionCancel:         "cancel",
}

var payloadActions = func() map[string]Action {
	m := make(map[string]Action, len(actionPayloads))
	for a, p := range actionPayloads {
		m[p] = a
	}
	return m
}()

// Payload is the wire form of the action, used as button callback data.
func (a Action) Payload() string {
	return actionPayloads[a]
}

func (a Action) String() string {
	if p, ok := actionPayloads[a]; ok {
		return p
	}
	return "unknown"
}

// ParseAction maps button callback data to an Action.
func ParseAction(payload string) (Action, bool) {
	a, ok := payloadActions[payload]
	return a, ok
}
