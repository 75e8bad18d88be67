package server

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

type recordingHandler struct {
	mu      sync.Mutex
	updates []tgbotapi.Update
}

func (h *recordingHandler) HandleUpdate(u tgbotapi.Update) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.updates = append(h.updates, u)
	if u.Message != nil && u.Message.Text == "panic" {
		panic("boom")
	}
}

func newTestServer(t *testing.T, updates UpdateHandler) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(New(Config{Updates: updates, WebhookSecret: "s3cret"}).Router())
	t.Cleanup(srv.Close)
	return srv
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, nil)

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))

	var body strings.Builder
	_, err = io.Copy(&body, resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "ok", gjson.Get(body.String(), "status").String())
	assert.True(t, gjson.Get(body.String(), "uptime_seconds").Exists())
}

func TestWebhook_DeliversUpdate(t *testing.T) {
	h := &recordingHandler{}
	srv := newTestServer(t, h)

	resp, err := http.Post(srv.URL+"/telegram/webhook/s3cret", "application/json",
		strings.NewReader(`{"update_id":5,"message":{"message_id":1,"chat":{"id":42,"type":"private"},"text":"hi"}}`))
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, h.updates, 1)
	assert.Equal(t, 5, h.updates[0].UpdateID)
	assert.Equal(t, int64(42), h.updates[0].Message.Chat.ID)
}

func TestWebhook_WrongSecret(t *testing.T) {
	h := &recordingHandler{}
	srv := newTestServer(t, h)

	resp, err := http.Post(srv.URL+"/telegram/webhook/guess", "application/json", strings.NewReader(`{}`))
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Empty(t, h.updates)
}

func TestWebhook_BadBody(t *testing.T) {
	srv := newTestServer(t, &recordingHandler{})

	resp, err := http.Post(srv.URL+"/telegram/webhook/s3cret", "application/json", strings.NewReader(`{not json`))
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestWebhook_OversizedBody(t *testing.T) {
	h := &recordingHandler{}
	srv := newTestServer(t, h)

	body := `{"update_id": 1, "message": {"text": "` + strings.Repeat("a", maxUpdateBytes) + `"}}`
	resp, err := http.Post(srv.URL+"/telegram/webhook/s3cret", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)
	h.mu.Lock()
	defer h.mu.Unlock()
	assert.Empty(t, h.updates)
}

func TestWebhook_DisabledWithoutHandler(t *testing.T) {
	srv := newTestServer(t, nil)

	resp, err := http.Post(srv.URL+"/telegram/webhook/s3cret", "application/json", strings.NewReader(`{}`))
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestRecovery(t *testing.T) {
	srv := newTestServer(t, &recordingHandler{})

	resp, err := http.Post(srv.URL+"/telegram/webhook/s3cret", "application/json",
		strings.NewReader(`{"update_id":6,"message":{"message_id":1,"chat":{"id":1},"text":"panic"}}`))
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}
