// Package llm wraps the two single-shot model calls the pipeline makes:
// intent classification and mockup generation. Both are plain
// request/response calls against the Anthropic Messages API with no retry;
// callers decide whether a failure is swallowed or surfaced.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const anthropicAPIVersion = "2023-06-01"

// Client calls the Anthropic Messages API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	model      string
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL sets a custom API base URL.
func WithBaseURL(url string) Option {
	return func(c *Client) { c.baseURL = url }
}

// WithModel sets the model used for all calls.
func WithModel(model string) Option {
	return func(c *Client) { c.model = model }
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// New creates a Client.
func New(apiKey string, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: 120 * time.Second},
		baseURL:    "https://api.anthropic.com",
		apiKey:     apiKey,
		model:      "claude-sonnet-4-20250514",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Classification is the structured judgment returned for one transcript
// fragment.
type Classification struct {
	IsUIRequest bool    `json:"isUiRequest"`
	Confidence  float64 `json:"confidence"`
	Component   string  `json:"component"`
	Intent      string  `json:"intent"`
	Context     string  `json:"context"`
}

const classifySystemPrompt = `You analyze one fragment of a spoken product
conversation and decide whether it requests a UI or design change.
Respond with only a JSON object, no prose:
{"isUiRequest": bool, "confidence": 0..1, "component": string or "",
"intent": string or "", "context": string or ""}`

// ClassifyIntent classifies a transcript fragment into a structured intent.
func (c *Client) ClassifyIntent(ctx context.Context, transcript string) (*Classification, error) {
	text, err := c.complete(ctx, classifySystemPrompt, transcript, 512)
	if err != nil {
		return nil, err
	}
	var out Classification
	if err := json.Unmarshal([]byte(stripFences(text)), &out); err != nil {
		return nil, fmt.Errorf("llm: parse classification: %w", err)
	}
	return &out, nil
}

// MockupRequest holds generation parameters for one ticket.
type MockupRequest struct {
	Component   string
	Intent      string
	Context     string
	BrandColors []string
}

// Variant is one generated markup/style candidate. The content is opaque.
type Variant struct {
	Name string `json:"name"`
	HTML string `json:"html"`
	CSS  string `json:"css"`
}

const mockupSystemPrompt = `You produce 1-2 self-contained HTML/CSS mockup
variants for a requested UI component. Respond with only a JSON array, no
prose: [{"name": string, "html": string, "css": string}]`

// GenerateMockups synthesizes markup/style variants for a UI request.
func (c *Client) GenerateMockups(ctx context.Context, req MockupRequest) ([]Variant, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "Component: %s\nIntent: %s\n", req.Component, req.Intent)
	if req.Context != "" {
		fmt.Fprintf(&b, "Context: %s\n", req.Context)
	}
	if len(req.BrandColors) > 0 {
		fmt.Fprintf(&b, "Brand colors: %s\n", strings.Join(req.BrandColors, ", "))
	}
	text, err := c.complete(ctx, mockupSystemPrompt, b.String(), 4096)
	if err != nil {
		return nil, err
	}
	var variants []Variant
	if err := json.Unmarshal([]byte(stripFences(text)), &variants); err != nil {
		return nil, fmt.Errorf("llm: parse variants: %w", err)
	}
	if len(variants) == 0 {
		return nil, fmt.Errorf("llm: no variants in response")
	}
	return variants, nil
}

// complete performs one messages call and returns the concatenated text
// content of the response.
func (c *Client) complete(ctx context.Context, system, user string, maxTokens int) (string, error) {
	body := messagesRequest{
		Model:     c.model,
		System:    system,
		MaxTokens: maxTokens,
		Messages: []message{
			{Role: "user", Content: user},
		},
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("llm: marshal: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/messages", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("llm: create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", c.apiKey)
	httpReq.Header.Set("anthropic-version", anthropicAPIVersion)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("llm: http request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("llm: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("llm: api error (status %d): %s", resp.StatusCode, string(respBody))
	}

	var mr messagesResponse
	if err := json.Unmarshal(respBody, &mr); err != nil {
		return "", fmt.Errorf("llm: unmarshal response: %w", err)
	}
	var text strings.Builder
	for _, block := range mr.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	return text.String(), nil
}

// stripFences removes a surrounding markdown code fence, which models
// sometimes add around JSON despite instructions.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// --- wire format types ---

type messagesRequest struct {
	Model     string    `json:"model"`
	System    string    `json:"system,omitempty"`
	MaxTokens int       `json:"max_tokens"`
	Messages  []message `json:"messages"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messagesResponse struct {
	Content []contentBlock `json:"content"`
}

type contentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}
