package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/campus-events/platform/internal/model"
)

// DiscordWebhook posts event announcements to a Discord channel.
type DiscordWebhook struct {
	client *http.Client
}

// NewDiscordWebhook constructs a webhook poster with the given request
// timeout.
func NewDiscordWebhook(timeout time.Duration) *DiscordWebhook {
	return &DiscordWebhook{client: &http.Client{Timeout: timeout}}
}

type discordEmbed struct {
	Title       string              `json:"title"`
	Description string              `json:"description"`
	Color       int                 `json:"color"`
	Fields      []discordEmbedField `json:"fields"`
}

type discordEmbedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

type discordPayload struct {
	Embeds []discordEmbed `json:"embeds"`
}

// Announce posts a "new event published" embed to the webhook URL.
func (d *DiscordWebhook) Announce(ctx context.Context, webhookURL string, event *model.Event) error {
	price := "Free"
	if event.Price > 0 {
		price = fmt.Sprintf("₹%d", event.Price)
	}
	payload := discordPayload{
		Embeds: []discordEmbed{{
			Title:       fmt.Sprintf("New Event Published: %s", event.Name),
			Description: event.Description,
			Color:       5814783,
			Fields: []discordEmbedField{
				{Name: "Date", Value: event.StartDate.Format("Jan 2, 2006 15:04"), Inline: true},
				{Name: "Type", Value: string(event.Type), Inline: true},
				{Name: "Price", Value: price, Inline: true},
			},
		}},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal webhook payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("post webhook: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}
