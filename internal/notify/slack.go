package notify

import (
	"context"
	"fmt"

	slackapi "github.com/slack-go/slack"

	"github.com/draftwire/draftwire/internal/models"
)

// slackPoster abstracts the Slack API method we use, enabling test mocks.
type slackPoster interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slackapi.MsgOption) (string, string, error)
}

// SlackAdapter posts export notifications to one Slack channel.
type SlackAdapter struct {
	client    slackPoster
	channelID string
}

// SlackOpts holds parameters for creating a SlackAdapter.
type SlackOpts struct {
	BotToken  string // xoxb-... bot token
	ChannelID string
	// Client injects a mock in tests instead of the real Slack API.
	Client slackPoster
}

// NewSlack creates a SlackAdapter.
func NewSlack(opts SlackOpts) (*SlackAdapter, error) {
	if opts.ChannelID == "" {
		return nil, fmt.Errorf("notify: slack channel id is required")
	}
	client := opts.Client
	if client == nil {
		if opts.BotToken == "" {
			return nil, fmt.Errorf("notify: slack bot token is required")
		}
		client = slackapi.New(opts.BotToken)
	}
	return &SlackAdapter{client: client, channelID: opts.ChannelID}, nil
}

func (a *SlackAdapter) Name() string { return "slack" }

// TicketExported posts a message with an attachment linking the issue.
func (a *SlackAdapter) TicketExported(ctx context.Context, t *models.Ticket, issueURL string) error {
	attachment := slackapi.Attachment{
		Color:     "#36a64f",
		Title:     t.Intent.Component,
		TitleLink: issueURL,
		Text:      t.Intent.Intent,
		Footer:    "draftwire",
	}
	_, _, err := a.client.PostMessageContext(ctx, a.channelID,
		slackapi.MsgOptionText("Design ticket exported: "+issueURL, false),
		slackapi.MsgOptionAttachments(attachment),
	)
	if err != nil {
		return fmt.Errorf("notify: slack post: %w", err)
	}
	return nil
}
