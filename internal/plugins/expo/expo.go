package expo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/Likith-Yadav/echo-us/internal/config"
)

// Client posts push notifications to the Expo push API.
type Client struct {
	pushURL string
	http    *http.Client
}

func NewClient(cfg config.ExpoConfig) *Client {
	return &Client{
		pushURL: cfg.PushURL,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *Client) SendPush(ctx context.Context, token, title, body string, data map[string]string) error {
	payload := map[string]any{
		"to":    token,
		"title": title,
		"body":  body,
		"sound": "default",
	}
	if len(data) > 0 {
		payload["data"] = data
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.pushURL, bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return fmt.Errorf("expo push failed: status %d", resp.StatusCode)
	}
	return nil
}
