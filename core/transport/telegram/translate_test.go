package telegram

import (
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rishi-choudhary/PARA-AI/core/workflow"
)

func message(text string, entities ...tgbotapi.MessageEntity) tgbotapi.Update {
	return tgbotapi.Update{Message: &tgbotapi.Message{
		MessageID: 1,
		Chat:      &tgbotapi.Chat{ID: 100},
		Text:      text,
		Entities:  entities,
	}}
}

func TestTranslate_Events(t *testing.T) {
	api := newFakeAPI()
	api.files["big"] = "https://api.telegram.org/file/botT/photos/big.jpg"
	api.files["doc"] = "https://api.telegram.org/file/botT/docs/notes.pdf"

	photo := message("")
	photo.Message.Caption = "Whiteboard"
	photo.Message.Photo = []tgbotapi.PhotoSize{{FileID: "small"}, {FileID: "big"}}

	doc := message("")
	doc.Message.Document = &tgbotapi.Document{FileID: "doc", FileName: "notes.pdf"}

	tests := []struct {
		name   string
		update tgbotapi.Update
		want   workflow.Event
	}{
		{
			name:   "plain text",
			update: message("remember to stretch"),
			want:   workflow.TextReceived{Text: "remember to stretch"},
		},
		{
			name: "command with args",
			update: message("/Archive Old project",
				tgbotapi.MessageEntity{Type: "bot_command", Offset: 0, Length: 8}),
			want: workflow.CommandReceived{Name: "archive", Args: "Old project"},
		},
		{
			name: "url entity after emoji",
			update: message("👀 https://go.dev/doc",
				tgbotapi.MessageEntity{Type: "url", Offset: 3, Length: 18}),
			want: workflow.LinkReceived{URL: "https://go.dev/doc"},
		},
		{
			name: "text link",
			update: message("read this",
				tgbotapi.MessageEntity{Type: "text_link", Offset: 0, Length: 9, URL: "https://example.com/a"}),
			want: workflow.LinkReceived{URL: "https://example.com/a"},
		},
		{
			name:   "largest photo",
			update: photo,
			want: workflow.MediaReceived{
				Kind:    workflow.MediaPhoto,
				Caption: "Whiteboard",
				FileURL: "https://api.telegram.org/file/botT/photos/big.jpg",
			},
		},
		{
			name:   "document",
			update: doc,
			want: workflow.MediaReceived{
				Kind:     workflow.MediaDocument,
				FileName: "notes.pdf",
				FileURL:  "https://api.telegram.org/file/botT/docs/notes.pdf",
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in, ok, err := Translate(api, tt.update)
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, tt.want, in.Event)
			assert.Equal(t, "100", string(in.Conversation))
			assert.NotEmpty(t, in.ID)
		})
	}
}

func TestTranslate_Callback(t *testing.T) {
	u := tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
		ID:      "q",
		Data:    "cancel_tasks",
		From:    &tgbotapi.User{FirstName: "Lin"},
		Message: &tgbotapi.Message{MessageID: 77, Chat: &tgbotapi.Chat{ID: 9}},
	}}

	in, ok, err := Translate(newFakeAPI(), u)

	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, workflow.ButtonPressed{Action: workflow.ActionRejectTasks}, in.Event)
	assert.Equal(t, 77, in.MessageID)
	assert.Equal(t, "Lin", in.UserName)
}

func TestTranslate_UnknownCallbackStillDelivered(t *testing.T) {
	u := tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
		Data:    "something_old",
		Message: &tgbotapi.Message{MessageID: 1, Chat: &tgbotapi.Chat{ID: 9}},
	}}

	in, ok, err := Translate(newFakeAPI(), u)

	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, workflow.ButtonPressed{Action: workflow.ActionUnknown}, in.Event)
}

func TestTranslate_Ignored(t *testing.T) {
	sticker := message("")
	sticker.Message.Sticker = &tgbotapi.Sticker{FileID: "s"}

	for name, u := range map[string]tgbotapi.Update{
		"edited message": {EditedMessage: &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: 1}, Text: "x"}},
		"sticker":        sticker,
		"no chat":        {Message: &tgbotapi.Message{Text: "x"}},
	} {
		t.Run(name, func(t *testing.T) {
			_, ok, err := Translate(newFakeAPI(), u)
			assert.NoError(t, err)
			assert.False(t, ok)
		})
	}
}

func TestRender(t *testing.T) {
	edit := workflow.Reply{Kind: workflow.ReplyEdit, Text: "done"}

	inPlace, ok := render(1, 55, edit).(tgbotapi.EditMessageTextConfig)
	require.True(t, ok)
	assert.Equal(t, 55, inPlace.MessageID)
	assert.Equal(t, tgbotapi.ModeHTML, inPlace.ParseMode)
	assert.True(t, inPlace.DisableWebPagePreview)

	_, ok = render(1, 0, edit).(tgbotapi.MessageConfig)
	assert.True(t, ok, "edit outside a button turn is sent as a new message")

	ask := render(1, 0, workflow.Reply{
		Kind: workflow.ReplySendWithChoices,
		Text: "Break it down?",
		Choices: []workflow.Choice{
			{Label: "Yes", Action: workflow.ActionBreakdownYes},
			{Label: "No", Action: workflow.ActionBreakdownNo},
		},
	}).(tgbotapi.MessageConfig)
	markup, ok := ask.ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
	require.True(t, ok)
	require.Len(t, markup.InlineKeyboard, 1)
	require.Len(t, markup.InlineKeyboard[0], 2)
	assert.Equal(t, "breakdown_yes", *markup.InlineKeyboard[0][0].CallbackData)
	assert.Equal(t, "breakdown_no", *markup.InlineKeyboard[0][1].CallbackData)
}

func TestConversationIDRoundTrip(t *testing.T) {
	id, err := ChatID(ConversationID(-1001234))
	require.NoError(t, err)
	assert.Equal(t, int64(-1001234), id)
}
