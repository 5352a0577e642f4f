// Package tracker abstracts the issue tracker that exported tickets land
// in. Implementations are stateless: the per-session access token is
// passed on every call.
package tracker

import "context"

// Issue identifies a created issue.
type Issue struct {
	ID  string
	URL string
}

// IssueRequest holds the fields for creating an issue.
type IssueRequest struct {
	TeamID      string
	Title       string
	Description string
	AssigneeID  string
	ProjectID   string
	LabelIDs    []string
	Priority    int
}

// Team is a target container for issues.
type Team struct {
	ID   string
	Name string
	Key  string
}

// Client is the issue-tracker abstraction.
type Client interface {
	// CreateIssue creates an issue using the given access token.
	CreateIssue(ctx context.Context, token string, req IssueRequest) (*Issue, error)

	// Teams lists the teams visible to the given access token.
	Teams(ctx context.Context, token string) ([]Team, error)
}
