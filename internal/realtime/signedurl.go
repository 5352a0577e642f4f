// Package realtime mints short-lived signed conversation URLs for the
// browser's realtime speech transport. The server-held API key never
// reaches the client; the browser only sees the signed URL.
package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// Client fetches signed conversation URLs from the ElevenLabs
// conversational-agent API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	agentID    string
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL sets a custom API base URL.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// New creates a Client.
func New(apiKey, agentID string, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		baseURL:    "https://api.elevenlabs.io",
		apiKey:     apiKey,
		agentID:    agentID,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SignedURL returns a fresh signed conversation URL for the configured agent.
func (c *Client) SignedURL(ctx context.Context) (string, error) {
	endpoint := c.baseURL + "/v1/convai/conversation/get_signed_url?agent_id=" + url.QueryEscape(c.agentID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("realtime: create request: %w", err)
	}
	req.Header.Set("xi-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("realtime: http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("realtime: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("realtime: api error (status %d): %s", resp.StatusCode, string(body))
	}

	var out struct {
		SignedURL string `json:"signed_url"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("realtime: unmarshal response: %w", err)
	}
	if out.SignedURL == "" {
		return "", fmt.Errorf("realtime: empty signed url in response")
	}
	return out.SignedURL, nil
}
