// Package github implements the tracker Client on top of GitHub issues,
// for teams that track design work in a repository instead of Linear.
// The repository stands in for the tracker's single "team".
package github

import (
	"context"
	"fmt"

	gh "github.com/google/go-github/v68/github"
	"golang.org/x/oauth2"

	"github.com/draftwire/draftwire/internal/tracker"
)

// Client creates issues in one GitHub repository.
type Client struct {
	owner   string
	repo    string
	baseURL string // enterprise/test override, empty for github.com
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at a GitHub Enterprise (or test) API URL.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// New creates a Client targeting owner/repo.
func New(owner, repo string, opts ...Option) (*Client, error) {
	if owner == "" || repo == "" {
		return nil, fmt.Errorf("github: owner and repo are required")
	}
	c := &Client{owner: owner, repo: repo}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// api builds a go-github client authenticated with token.
func (c *Client) api(ctx context.Context, token string) (*gh.Client, error) {
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	client := gh.NewClient(oauth2.NewClient(ctx, ts))
	if c.baseURL != "" {
		var err error
		client, err = client.WithEnterpriseURLs(c.baseURL, c.baseURL)
		if err != nil {
			return nil, fmt.Errorf("github: set base url: %w", err)
		}
	}
	return client, nil
}

// CreateIssue opens a GitHub issue in the configured repository.
func (c *Client) CreateIssue(ctx context.Context, token string, req tracker.IssueRequest) (*tracker.Issue, error) {
	client, err := c.api(ctx, token)
	if err != nil {
		return nil, err
	}
	issueReq := &gh.IssueRequest{
		Title: gh.Ptr(req.Title),
		Body:  gh.Ptr(req.Description),
	}
	if len(req.LabelIDs) > 0 {
		issueReq.Labels = &req.LabelIDs
	}
	issue, _, err := client.Issues.Create(ctx, c.owner, c.repo, issueReq)
	if err != nil {
		return nil, fmt.Errorf("github: create issue: %w", err)
	}
	return &tracker.Issue{
		ID:  fmt.Sprintf("%s/%s#%d", c.owner, c.repo, issue.GetNumber()),
		URL: issue.GetHTMLURL(),
	}, nil
}

// Teams returns the repository as the single target team.
func (c *Client) Teams(ctx context.Context, token string) ([]tracker.Team, error) {
	return []tracker.Team{{
		ID:   c.owner + "/" + c.repo,
		Name: c.repo,
		Key:  c.owner,
	}}, nil
}
