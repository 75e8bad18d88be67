package telegram

import (
	"strconv"
	"strings"
	"time"
	"unicode/utf16"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Rishi-choudhary/PARA-AI/core/session"
	"github.com/Rishi-choudhary/PARA-AI/core/workflow"
)

// FileResolver turns a Telegram file id into a download URL.
type FileResolver interface {
	GetFileDirectURL(fileID string) (string, error)
}

// ConversationID is the session key for a Telegram chat.
func ConversationID(chatID int64) session.ConversationID {
	return session.ConversationID(strconv.FormatInt(chatID, 10))
}

// ChatID reverses ConversationID.
func ChatID(id session.ConversationID) (int64, error) {
	return strconv.ParseInt(string(id), 10, 64)
}

// Translate maps an update to an inbound event. ok is false for updates the
// bot ignores (edits, channel posts, stickers and the like).
func Translate(files FileResolver, u tgbotapi.Update) (in workflow.Inbound, ok bool, err error) {
	switch {
	case u.CallbackQuery != nil:
		return translateCallback(u.CallbackQuery)
	case u.Message != nil:
		return translateMessage(files, u.Message)
	default:
		return workflow.Inbound{}, false, nil
	}
}

func translateCallback(q *tgbotapi.CallbackQuery) (workflow.Inbound, bool, error) {
	if q.Message == nil || q.Message.Chat == nil {
		return workflow.Inbound{}, false, nil
	}

	// Unknown payloads still reach the engine, which reports them as stale.
	action, _ := workflow.ParseAction(q.Data)
	in := workflow.NewInbound(ConversationID(q.Message.Chat.ID), workflow.ButtonPressed{Action: action})
	in.MessageID = q.Message.MessageID
	in.UserName = firstName(q.From)
	return in, true, nil
}

func translateMessage(files FileResolver, m *tgbotapi.Message) (workflow.Inbound, bool, error) {
	if m.Chat == nil {
		return workflow.Inbound{}, false, nil
	}

	var ev workflow.Event
	switch {
	case m.IsCommand():
		ev = workflow.CommandReceived{
			Name: strings.ToLower(m.Command()),
			Args: strings.TrimSpace(m.CommandArguments()),
		}
	case len(m.Photo) > 0 || m.Document != nil:
		media, err := translateMedia(files, m)
		if err != nil {
			return workflow.Inbound{}, false, err
		}
		ev = media
	case m.Text != "":
		if url, found := firstURL(m.Text, m.Entities); found {
			ev = workflow.LinkReceived{URL: url}
		} else {
			ev = workflow.TextReceived{Text: m.Text}
		}
	default:
		return workflow.Inbound{}, false, nil
	}

	in := workflow.NewInbound(ConversationID(m.Chat.ID), ev)
	in.MessageID = m.MessageID
	in.UserName = firstName(m.From)
	if m.Date > 0 {
		in.ReceivedAt = time.Unix(int64(m.Date), 0)
	}
	return in, true, nil
}

func translateMedia(files FileResolver, m *tgbotapi.Message) (workflow.MediaReceived, error) {
	media := workflow.MediaReceived{Caption: m.Caption}

	var fileID string
	if len(m.Photo) > 0 {
		media.Kind = workflow.MediaPhoto
		// Sizes are sent smallest first.
		fileID = m.Photo[len(m.Photo)-1].FileID
	} else {
		media.Kind = workflow.MediaDocument
		media.FileName = m.Document.FileName
		fileID = m.Document.FileID
	}

	url, err := files.GetFileDirectURL(fileID)
	if err != nil {
		return workflow.MediaReceived{}, err
	}
	media.FileURL = url
	return media, nil
}

// firstURL returns the target of the first url or text_link entity. Entity
// offsets count UTF-16 code units.
func firstURL(text string, entities []tgbotapi.MessageEntity) (string, bool) {
	var units []uint16
	for _, e := range entities {
		switch {
		case e.IsTextLink() && e.URL != "":
			return e.URL, true
		case e.IsURL():
			if units == nil {
				units = utf16.Encode([]rune(text))
			}
			if e.Offset < 0 || e.Length <= 0 || e.Offset+e.Length > len(units) {
				continue
			}
			return string(utf16.Decode(units[e.Offset : e.Offset+e.Length])), true
		}
	}
	return "", false
}

func firstName(u *tgbotapi.User) string {
	if u == nil {
		return ""
	}
	return u.FirstName
}
