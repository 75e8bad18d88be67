package telegram

import (
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Rishi-choudhary/PARA-AI/core/workflow"
)

// Sender is the part of the Bot API used to render replies.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// chatSink renders workflow replies into one chat. Edits target the
// message whose button started the turn; without one they become sends.
type chatSink struct {
	api       Sender
	chatID    int64
	messageID int
	logger    *slog.Logger
}

func newChatSink(api Sender, chatID int64, in workflow.Inbound, logger *slog.Logger) *chatSink {
	s := &chatSink{api: api, chatID: chatID, logger: logger}
	if _, ok := in.Event.(workflow.ButtonPressed); ok {
		s.messageID = in.MessageID
	}
	return s
}

func (s *chatSink) Deliver(r workflow.Reply) {
	if _, err := s.api.Send(render(s.chatID, s.messageID, r)); err != nil {
		s.logger.Warn("reply delivery failed",
			"chat", s.chatID,
			"kind", r.Kind.String(),
			"outcome", string(r.Outcome),
			"err", err)
	}
}

// render builds the Bot API call for r. messageID is zero outside a button
// turn.
func render(chatID int64, messageID int, r workflow.Reply) tgbotapi.Chattable {
	if r.Kind == workflow.ReplyEdit && messageID != 0 {
		edit := tgbotapi.NewEditMessageText(chatID, messageID, r.Text)
		edit.ParseMode = tgbotapi.ModeHTML
		edit.DisableWebPagePreview = true
		return edit
	}

	msg := tgbotapi.NewMessage(chatID, r.Text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true
	if r.Kind == workflow.ReplySendWithChoices && len(r.Choices) > 0 {
		msg.ReplyMarkup = keyboard(r.Choices)
	}
	return msg
}

// keyboard lays the choices out on a single row.
func keyboard(choices []workflow.Choice) tgbotapi.InlineKeyboardMarkup {
	row := make([]tgbotapi.InlineKeyboardButton, 0, len(choices))
	for _, c := range choices {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(c.Label, c.Action.Payload()))
	}
	return tgbotapi.NewInlineKeyboardMarkup(row)
}
