package notifications

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html"
	"net/http"
	"strings"
	"time"

	"github.com/MimoJanra/PortPulse/internal/models"
)

const (
	TypeTelegram = "telegram"
	TypeSlack    = "slack"
	TypeWebhook  = "webhook"
)

type Settings struct {
	Type       string
	WebhookURL string
	Token      string
	ChatID     string
}

// Sender delivers failure and recovery alerts to one configured channel.
type Sender struct {
	settings    Settings
	client      *http.Client
	telegramAPI string
}

func NewSender(settings Settings) (*Sender, error) {
	settings.Type = strings.ToLower(strings.TrimSpace(settings.Type))

	switch settings.Type {
	case TypeTelegram:
		if settings.Token == "" || settings.ChatID == "" {
			return nil, fmt.Errorf("telegram token and chat_id are required")
		}
	case TypeSlack, TypeWebhook:
		if settings.WebhookURL == "" {
			return nil, fmt.Errorf("%s webhook_url is required", settings.Type)
		}
	default:
		return nil, fmt.Errorf("unsupported notification type: %q", settings.Type)
	}

	return &Sender{
		settings: settings,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		telegramAPI: "https://api.telegram.org",
	}, nil
}

func (s *Sender) Notify(ctx context.Context, alert models.Alert) error {
	switch s.settings.Type {
	case TypeTelegram:
		url := fmt.Sprintf("%s/bot%s/sendMessage", s.telegramAPI, s.settings.Token)
		return s.post(ctx, url, map[string]any{
			"chat_id":    s.settings.ChatID,
			"text":       formatTelegramMessage(alert),
			"parse_mode": "HTML",
		})
	case TypeSlack:
		return s.post(ctx, s.settings.WebhookURL, map[string]any{
			"text": formatSlackMessage(alert),
		})
	default:
		return s.post(ctx, s.settings.WebhookURL, alert)
	}
}

func (s *Sender) post(ctx context.Context, url string, payload any) error {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", s.settings.Type, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonData))
	if err != nil {
		return fmt.Errorf("create %s request: %w", s.settings.Type, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("send %s alert: %w", s.settings.Type, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%s endpoint returned status %d", s.settings.Type, resp.StatusCode)
	}
	return nil
}

func headline(alert models.Alert) string {
	if alert.Recovered {
		return fmt.Sprintf("✅ %s:%d is accepting connections again", alert.Target, alert.Port)
	}
	return fmt.Sprintf("❌ %s:%d failed %d probes in a row", alert.Target, alert.Port, alert.Failures)
}

// formatTelegramMessage escapes user-controlled values for parse_mode HTML.
func formatTelegramMessage(alert models.Alert) string {
	alert.Target = html.EscapeString(alert.Target)
	alert.Error = html.EscapeString(alert.Error)

	text := fmt.Sprintf("<b>%s</b>\n\n", headline(alert))
	text += fmt.Sprintf("<b>Status:</b> %s\n", alert.Status)
	text += fmt.Sprintf("<b>Duration:</b> %d ms\n", alert.DurationMS)
	if alert.Error != "" {
		text += fmt.Sprintf("<b>Error:</b> %s\n", alert.Error)
	}
	text += fmt.Sprintf("<b>Time:</b> %s", alert.CheckedAt.Format(time.RFC3339))
	return text
}

func formatSlackMessage(alert models.Alert) string {
	text := fmt.Sprintf("*%s*\n\n", headline(alert))
	text += fmt.Sprintf("*Status:* %s\n", alert.Status)
	text += fmt.Sprintf("*Duration:* %d ms\n", alert.DurationMS)
	if alert.Error != "" {
		text += fmt.Sprintf("*Error:* %s\n", alert.Error)
	}
	text += fmt.Sprintf("*Time:* %s", alert.CheckedAt.Format(time.RFC3339))
	return text
}
