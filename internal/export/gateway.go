// Package export turns a ready ticket into an issue in the configured
// tracker.
package export

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/draftwire/draftwire/internal/models"
	"github.com/draftwire/draftwire/internal/tracker"
)

var (
	// ErrUnauthenticated reports a missing session token. Checked before
	// any network call so the UI can prompt a re-connect instead of a
	// generic failure.
	ErrUnauthenticated = errors.New("export: not authenticated")

	// ErrNoTeamResolved reports that no team id was configured and the
	// tracker listed none.
	ErrNoTeamResolved = errors.New("export: no team resolved")
)

// Gateway validates the session, builds the issue content, and delegates
// to the tracker client.
type Gateway struct {
	client tracker.Client
	teamID string
}

// NewGateway creates a Gateway. teamID may be empty; the gateway then
// resolves the first team listed by the tracker at export time.
func NewGateway(client tracker.Client, teamID string) (*Gateway, error) {
	if client == nil {
		return nil, fmt.Errorf("export: tracker client is required")
	}
	return &Gateway{client: client, teamID: teamID}, nil
}

// Export creates an issue for the ticket using the session token. The
// token is read once at the start of the request; a token revoked between
// read and use surfaces as a wrapped tracker failure, not as
// ErrUnauthenticated.
func (g *Gateway) Export(ctx context.Context, t *models.Ticket, token string) (*tracker.Issue, error) {
	if token == "" {
		return nil, ErrUnauthenticated
	}
	req := tracker.IssueRequest{
		Title:       Title(t),
		Description: Description(t),
	}
	return g.CreateIssue(ctx, token, req)
}

// CreateIssue resolves the target team if needed and creates the issue.
// Also serves the raw issue-creation route, which supplies its own
// title/description.
func (g *Gateway) CreateIssue(ctx context.Context, token string, req tracker.IssueRequest) (*tracker.Issue, error) {
	if token == "" {
		return nil, ErrUnauthenticated
	}
	if req.TeamID == "" {
		req.TeamID = g.teamID
	}
	if req.TeamID == "" {
		teams, err := g.client.Teams(ctx, token)
		if err != nil {
			return nil, fmt.Errorf("export: list teams: %w", err)
		}
		if len(teams) == 0 {
			return nil, ErrNoTeamResolved
		}
		req.TeamID = teams[0].ID
	}
	issue, err := g.client.CreateIssue(ctx, token, req)
	if err != nil {
		return nil, fmt.Errorf("export: create issue: %w", err)
	}
	return issue, nil
}

// Title builds the issue title from the detected component and intent.
func Title(t *models.Ticket) string {
	component := t.Intent.Component
	if component == "" {
		component = "UI component"
	}
	intent := t.Intent.Intent
	if intent == "" {
		intent = t.Intent.SourceText
	}
	return component + ": " + intent
}

// Description builds the issue body: the verbatim transcript quote, the
// detected fields, and the selected variant's markup and style as fenced
// code blocks.
func Description(t *models.Ticket) string {
	var b strings.Builder
	b.WriteString("## Design request\n\n")
	fmt.Fprintf(&b, "> %s\n\n", t.Intent.SourceText)
	if t.Intent.Component != "" {
		fmt.Fprintf(&b, "**Component:** %s\n", t.Intent.Component)
	}
	if t.Intent.Intent != "" {
		fmt.Fprintf(&b, "**Intent:** %s\n", t.Intent.Intent)
	}
	if t.Intent.Context != "" {
		fmt.Fprintf(&b, "**Context:** %s\n", t.Intent.Context)
	}
	fmt.Fprintf(&b, "**Confidence:** %.2f\n", t.Intent.Confidence)

	if v := selectedVariant(t); v != nil {
		fmt.Fprintf(&b, "\n## Selected mockup: %s\n\n", v.Name)
		fmt.Fprintf(&b, "```html\n%s\n```\n\n", v.Markup)
		fmt.Fprintf(&b, "```css\n%s\n```\n", v.Style)
	}
	return b.String()
}

func selectedVariant(t *models.Ticket) *models.MockupVariant {
	if t.SelectedVariant == nil {
		return nil
	}
	i := *t.SelectedVariant
	if i < 0 || i >= len(t.Variants) {
		return nil
	}
	return &t.Variants[i]
}
