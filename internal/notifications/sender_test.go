package notifications

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MimoJanra/PortPulse/internal/models"
)

func captureServer(t *testing.T, status int) (*httptest.Server, chan map[string]any, chan string) {
	t.Helper()
	bodies := make(chan map[string]any, 1)
	paths := make(chan string, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		bodies <- body
		paths <- r.URL.Path
		w.WriteHeader(status)
	}))
	t.Cleanup(srv.Close)
	return srv, bodies, paths
}

var failing = models.Alert{
	Target:     "db.internal",
	Port:       5432,
	Status:     models.StatusFailed,
	Failures:   5,
	Error:      "TCP connection timed out after 2s",
	DurationMS: 2001,
	CheckedAt:  time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
}

func TestNewSender_Validation(t *testing.T) {
	tests := []struct {
		name     string
		settings Settings
		wantErr  bool
	}{
		{name: "telegram", settings: Settings{Type: "telegram", Token: "t", ChatID: "1"}},
		{name: "telegram without chat", settings: Settings{Type: "telegram", Token: "t"}, wantErr: true},
		{name: "slack", settings: Settings{Type: "Slack", WebhookURL: "http://hooks"}},
		{name: "webhook without url", settings: Settings{Type: "webhook"}, wantErr: true},
		{name: "unknown", settings: Settings{Type: "pager"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSender(tt.settings)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestSender_Webhook(t *testing.T) {
	srv, bodies, _ := captureServer(t, http.StatusNoContent)

	s, err := NewSender(Settings{Type: TypeWebhook, WebhookURL: srv.URL})
	require.NoError(t, err)
	require.NoError(t, s.Notify(context.Background(), failing))

	body := <-bodies
	assert.Equal(t, "db.internal", body["target"])
	assert.EqualValues(t, 5432, body["port"])
	assert.Equal(t, "Failed", body["connectionStatus"])
	assert.EqualValues(t, 5, body["failures"])
}

func TestSender_Slack(t *testing.T) {
	srv, bodies, _ := captureServer(t, http.StatusOK)

	s, err := NewSender(Settings{Type: TypeSlack, WebhookURL: srv.URL})
	require.NoError(t, err)

	recovered := failing
	recovered.Recovered = true
	recovered.Status = models.StatusSuccess
	recovered.Error = ""
	require.NoError(t, s.Notify(context.Background(), recovered))

	text, _ := (<-bodies)["text"].(string)
	assert.Contains(t, text, "db.internal:5432 is accepting connections again")
	assert.NotContains(t, text, "*Error:*")
}

func TestSender_Telegram(t *testing.T) {
	srv, bodies, paths := captureServer(t, http.StatusOK)

	s, err := NewSender(Settings{Type: TypeTelegram, Token: "abc", ChatID: "42"})
	require.NoError(t, err)
	s.telegramAPI = srv.URL

	require.NoError(t, s.Notify(context.Background(), failing))

	body := <-bodies
	assert.Equal(t, "/botabc/sendMessage", <-paths)
	assert.Equal(t, "42", body["chat_id"])
	assert.Equal(t, "HTML", body["parse_mode"])
	assert.Contains(t, body["text"], "failed 5 probes in a row")
	assert.Contains(t, body["text"], "timed out")
}

func TestSender_ErrorStatus(t *testing.T) {
	srv, _, _ := captureServer(t, http.StatusBadGateway)

	s, err := NewSender(Settings{Type: TypeWebhook, WebhookURL: srv.URL})
	require.NoError(t, err)
	assert.ErrorContains(t, s.Notify(context.Background(), failing), "status 502")
}

func TestFormatTelegramMessage_EscapesHTML(t *testing.T) {
	alert := failing
	alert.Target = "a<b&c"
	alert.Error = "TCP connection failed: dial tcp: lookup <nil>"

	text := formatTelegramMessage(alert)

	assert.Contains(t, text, "a&lt;b&amp;c:5432")
	assert.Contains(t, text, "lookup &lt;nil&gt;")
	assert.NotContains(t, text, "a<b&c")
	assert.NotContains(t, text, "<nil>")
	assert.Contains(t, text, "<b>Status:</b>", "markup itself is left intact")
}
