package synthesis

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

// Client calls the narration-synthesis service over HTTP. The service is a
// pure function of (text, voice): identical inputs produce equivalent audio,
// which is what makes content-addressed caching of its output sound.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *logrus.Logger
}

// NewClient creates a synthesis client for the service at baseURL.
func NewClient(baseURL, apiKey string, logger *logrus.Logger) *Client {
	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     logger,
	}
}

type synthesizeRequest struct {
	Text    string `json:"text"`
	VoiceID string `json:"voice_id"`
}

// Synthesize converts text to narration audio with the given voice and returns
// the raw audio bytes.
func (c *Client) Synthesize(ctx context.Context, text, voiceID string) ([]byte, error) {
	payload, err := json.Marshal(synthesizeRequest{Text: text, VoiceID: voiceID})
	if err != nil {
		return nil, fmt.Errorf("marshal synthesis request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/synthesize", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build synthesis request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	c.logger.WithFields(logrus.Fields{"voice_id": voiceID, "chars": len(text)}).
		Info("Requesting narration synthesis")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("synthesis request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("synthesis service returned status %d: %s", resp.StatusCode, string(body))
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read synthesis response: %w", err)
	}
	if len(audio) == 0 {
		return nil, fmt.Errorf("synthesis service returned empty audio for voice %s", voiceID)
	}
	return audio, nil
}
