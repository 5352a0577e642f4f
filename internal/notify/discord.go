package notify

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/draftwire/draftwire/internal/models"
)

// discordSender abstracts the Discord API method we use, enabling test mocks.
type discordSender interface {
	ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// DiscordAdapter posts export notifications to one Discord channel.
type DiscordAdapter struct {
	session   discordSender
	channelID string
}

// DiscordOpts holds parameters for creating a DiscordAdapter.
type DiscordOpts struct {
	BotToken  string
	ChannelID string
	// Session injects a mock in tests instead of the real Discord API.
	Session discordSender
}

// NewDiscord creates a DiscordAdapter.
func NewDiscord(opts DiscordOpts) (*DiscordAdapter, error) {
	if opts.ChannelID == "" {
		return nil, fmt.Errorf("notify: discord channel id is required")
	}
	session := opts.Session
	if session == nil {
		if opts.BotToken == "" {
			return nil, fmt.Errorf("notify: discord bot token is required")
		}
		s, err := discordgo.New("Bot " + opts.BotToken)
		if err != nil {
			return nil, fmt.Errorf("notify: discord session: %w", err)
		}
		session = s
	}
	return &DiscordAdapter{session: session, channelID: opts.ChannelID}, nil
}

func (a *DiscordAdapter) Name() string { return "discord" }

// TicketExported posts an embed linking the issue.
func (a *DiscordAdapter) TicketExported(ctx context.Context, t *models.Ticket, issueURL string) error {
	embed := &discordgo.MessageEmbed{
		Title:       "Design ticket exported: " + t.Intent.Component,
		Description: t.Intent.Intent,
		URL:         issueURL,
		Color:       0x36a64f,
	}
	if _, err := a.session.ChannelMessageSendEmbed(a.channelID, embed); err != nil {
		return fmt.Errorf("notify: discord send: %w", err)
	}
	return nil
}
