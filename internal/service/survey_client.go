package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"

	"surveychat/internal/config"
	"surveychat/internal/model"
)

// SurveyClient talks to the survey/QA backend over HTTP. It implements
// chat.Backend; every method returns the backend's tagged-union payload.
type SurveyClient struct {
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

// NewSurveyClient creates a new survey backend client
func NewSurveyClient(cfg *config.Config, logger *zap.Logger) *SurveyClient {
	return &SurveyClient{
		baseURL: cfg.BackendBaseURL,
		client:  &http.Client{Timeout: cfg.BackendTimeout},
		logger:  logger,
	}
}

// SubmitResponse submits a survey answer for the given session
func (c *SurveyClient) SubmitResponse(ctx context.Context, sessionID, text string) (*model.SurveyPayload, error) {
	body := map[string]string{
		"session_id": sessionID,
		"response":   text,
	}
	return c.post(ctx, "/v1/responses", body)
}

// CurrentQuestion fetches the question the session is currently on
func (c *SurveyClient) CurrentQuestion(ctx context.Context, sessionID string) (*model.SurveyPayload, error) {
	url := fmt.Sprintf("%s/v1/sessions/%s/question", c.baseURL, sessionID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	return c.do(req)
}

// QueryQA asks a free-form question about the survey
func (c *SurveyClient) QueryQA(ctx context.Context, text string) (*model.SurveyPayload, error) {
	body := map[string]string{"query": text}
	return c.post(ctx, "/v1/qa", body)
}

// UpdateAnswer corrects a previously submitted answer
func (c *SurveyClient) UpdateAnswer(ctx context.Context, sessionID, questionCode, text string) (*model.SurveyPayload, error) {
	body := map[string]string{
		"session_id": sessionID,
		"answer":     text,
	}
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	url := fmt.Sprintf("%s/v1/answers/%s", c.baseURL, questionCode)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewBuffer(jsonBody))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req)
}

func (c *SurveyClient) post(ctx context.Context, path string, body interface{}) (*model.SurveyPayload, error) {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewBuffer(jsonBody))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req)
}

func (c *SurveyClient) do(req *http.Request) (*model.SurveyPayload, error) {
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("survey backend request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("survey backend read failed: %w", err)
	}
	if resp.StatusCode >= http.StatusInternalServerError {
		return nil, fmt.Errorf("survey backend returned %d", resp.StatusCode)
	}

	var payload model.SurveyPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("survey backend payload decode failed: %w", err)
	}
	return &payload, nil
}
