package workflow

import (
	"time"

	"github.com/google/uuid"

	"github.com/Rishi-choudhary/PARA-AI/core/session"
)

// Event is an inbound signal from the chat transport. The set of variants
// is closed.
type Event interface {
	event()
}

// TextReceived is free text with no link in it.
type TextReceived struct {
	Text string
}

// LinkReceived is a message carrying a URL.
type LinkReceived struct {
	URL string
}

type MediaKind int

const (
	MediaPhoto MediaKind = iota
	MediaDocument
)

func (k MediaKind) String() string {
	if k == MediaPhoto {
		return "Photo"
	}
	return "File"
}

// MediaReceived is a photo or document with a resolved download URL.
type MediaReceived struct {
	Kind     MediaKind
	Caption  string
	FileName string
	FileURL  string
}

// CommandReceived is a slash command. Args is everything after the command
// name, trimmed.
type CommandReceived struct {
	Name string
	Args string
}

// ButtonPressed is a press on a choice button.
type ButtonPressed struct {
	Action Action
}

func (TextReceived) event()    {}
func (LinkReceived) event()    {}
func (MediaReceived) event()   {}
func (CommandReceived) event() {}
func (ButtonPressed) event()   {}

// Inbound wraps an event with its conversation and sender details.
type Inbound struct {
	ID           string
	Conversation session.ConversationID
	UserName     string
	ReceivedAt   time.Time
	Event        Event

	// MessageID is the transport's id for the message this event came from.
	// For a button press it is the message carrying the buttons, which is
	// what ReplyEdit rewrites.
	MessageID int
}

// NewInbound stamps ev with a fresh id and the current time.
func NewInbound(conversation session.ConversationID, ev Event) Inbound {
	return Inbound{
		ID:           uuid.NewString(),
		Conversation: conversation,
		ReceivedAt:   time.Now(),
		Event:        ev,
	}
}

func eventName(ev Event) string {
	switch ev.(type) {
	case TextReceived:
		return "text"
	case LinkReceived:
		return "link"
	case MediaReceived:
		return "media"
	case CommandReceived:
		return "command"
	case ButtonPressed:
		return "button"
	default:
		return "unknown"
	}
}
