package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"surveychat/internal/config"
)

// ProfileClient notifies the user-profile service when a conversation adopts
// a new survey session id. It implements chat.ProfileSink.
type ProfileClient struct {
	baseURL string
	client  *http.Client
}

// NewProfileClient creates a new profile service client
func NewProfileClient(cfg *config.Config) *ProfileClient {
	return &ProfileClient{
		baseURL: cfg.ProfileBaseURL,
		client:  &http.Client{Timeout: cfg.ProfileTimeout},
	}
}

// SessionChanged records the session id adopted by a conversation
func (c *ProfileClient) SessionChanged(ctx context.Context, conversationID, sessionID string) error {
	body, err := json.Marshal(map[string]string{"sessionId": sessionID})
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/v1/profiles/%s/session", c.baseURL, conversationID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewBuffer(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("profile service request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("profile service returned %d", resp.StatusCode)
	}
	return nil
}
