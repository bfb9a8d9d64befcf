package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// ChatBotPush is an HTTP channel that POSTs each notification to a
// chat-bot webhook endpoint.
type ChatBotPush struct {
	webhookURL string
	httpClient *http.Client
}

// NewChatBotPush creates a chat-bot channel for the given webhook URL
func NewChatBotPush(webhookURL string) *ChatBotPush {
	return &ChatBotPush{
		webhookURL: webhookURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 20,
			},
		},
	}
}

// Name identifies the channel
func (c *ChatBotPush) Name() string { return "chatbot" }

// Send posts the message to the webhook
func (c *ChatBotPush) Send(ctx context.Context, msg Message) error {
	payload, err := json.Marshal(map[string]string{
		"text": fmt.Sprintf("%s\n%s", msg.Title, msg.Body),
		"user": msg.UserID,
	})
	if err != nil {
		return fmt.Errorf("error marshaling chatbot payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.webhookURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("error creating chatbot request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("error posting to chatbot webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("chatbot webhook returned status %d", resp.StatusCode)
	}
	return nil
}
