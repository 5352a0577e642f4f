// Package linear implements the tracker Client against the Linear
// GraphQL API.
package linear

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/draftwire/draftwire/internal/tracker"
)

const defaultAPIURL = "https://api.linear.app/graphql"

// Client calls the Linear GraphQL API.
type Client struct {
	httpClient *http.Client
	apiURL     string
}

// Option configures a Client.
type Option func(*Client)

// WithAPIURL sets a custom GraphQL endpoint.
func WithAPIURL(u string) Option {
	return func(c *Client) { c.apiURL = u }
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// New creates a Client.
func New(opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		apiURL:     defaultAPIURL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

const createIssueMutation = `mutation IssueCreate($input: IssueCreateInput!) {
  issueCreate(input: $input) {
    success
    issue { id identifier url }
  }
}`

// CreateIssue creates a Linear issue.
func (c *Client) CreateIssue(ctx context.Context, token string, req tracker.IssueRequest) (*tracker.Issue, error) {
	input := map[string]any{
		"teamId":      req.TeamID,
		"title":       req.Title,
		"description": req.Description,
	}
	if req.AssigneeID != "" {
		input["assigneeId"] = req.AssigneeID
	}
	if req.ProjectID != "" {
		input["projectId"] = req.ProjectID
	}
	if len(req.LabelIDs) > 0 {
		input["labelIds"] = req.LabelIDs
	}
	if req.Priority > 0 {
		input["priority"] = req.Priority
	}

	var out struct {
		IssueCreate struct {
			Success bool `json:"success"`
			Issue   struct {
				ID         string `json:"id"`
				Identifier string `json:"identifier"`
				URL        string `json:"url"`
			} `json:"issue"`
		} `json:"issueCreate"`
	}
	if err := c.query(ctx, token, createIssueMutation, map[string]any{"input": input}, &out); err != nil {
		return nil, err
	}
	if !out.IssueCreate.Success {
		return nil, fmt.Errorf("linear: issue create reported failure")
	}
	return &tracker.Issue{
		ID:  out.IssueCreate.Issue.Identifier,
		URL: out.IssueCreate.Issue.URL,
	}, nil
}

const teamsQuery = `query { teams { nodes { id name key } } }`

// Teams lists the teams visible to the token.
func (c *Client) Teams(ctx context.Context, token string) ([]tracker.Team, error) {
	var out struct {
		Teams struct {
			Nodes []struct {
				ID   string `json:"id"`
				Name string `json:"name"`
				Key  string `json:"key"`
			} `json:"nodes"`
		} `json:"teams"`
	}
	if err := c.query(ctx, token, teamsQuery, nil, &out); err != nil {
		return nil, err
	}
	teams := make([]tracker.Team, len(out.Teams.Nodes))
	for i, n := range out.Teams.Nodes {
		teams[i] = tracker.Team{ID: n.ID, Name: n.Name, Key: n.Key}
	}
	return teams, nil
}

// query performs one GraphQL request and unmarshals the data field into out.
func (c *Client) query(ctx context.Context, token, query string, variables map[string]any, out any) error {
	payload, err := json.Marshal(map[string]any{
		"query":     query,
		"variables": variables,
	})
	if err != nil {
		return fmt.Errorf("linear: marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("linear: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("linear: http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("linear: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("linear: api error (status %d): %s", resp.StatusCode, string(body))
	}

	var envelope struct {
		Data   json.RawMessage `json:"data"`
		Errors []struct {
			Message string `json:"message"`
		} `json:"errors"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return fmt.Errorf("linear: unmarshal response: %w", err)
	}
	if len(envelope.Errors) > 0 {
		return fmt.Errorf("linear: graphql error: %s", envelope.Errors[0].Message)
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		return fmt.Errorf("linear: unmarshal data: %w", err)
	}
	return nil
}
