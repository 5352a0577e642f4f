package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/draftwire/draftwire/internal/auth"
	"github.com/draftwire/draftwire/internal/config"
	"github.com/draftwire/draftwire/internal/db"
	"github.com/draftwire/draftwire/internal/export"
	"github.com/draftwire/draftwire/internal/llm"
	"github.com/draftwire/draftwire/internal/notify"
	"github.com/draftwire/draftwire/internal/pipeline"
	"github.com/draftwire/draftwire/internal/realtime"
	"github.com/draftwire/draftwire/internal/server"
	"github.com/draftwire/draftwire/internal/session"
	"github.com/draftwire/draftwire/internal/sweeper"
	"github.com/draftwire/draftwire/internal/ticket"
	"github.com/draftwire/draftwire/internal/tracker"
	trackergithub "github.com/draftwire/draftwire/internal/tracker/github"
	"github.com/draftwire/draftwire/internal/tracker/linear"
)

func newServeCmd() *cobra.Command {
	var (
		configPath string
		port       int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the Draftwire server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, configPath, port)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "draftwire.yaml", "path to Draftwire config file")
	cmd.Flags().IntVarP(&port, "port", "p", 0, "port to listen on (overrides config)")
	return cmd
}

func runServe(cmd *cobra.Command, configPath string, port int) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if port > 0 {
		cfg.Port = port
	}

	gormDB, err := db.Connect(cfg.Database)
	if err != nil {
		return err
	}
	if err := db.AutoMigrate(gormDB); err != nil {
		return err
	}

	codec, err := session.NewCodec(cfg.Session.Secret)
	if err != nil {
		return err
	}
	store := session.NewStore(codec, cfg.Production())

	flow, err := auth.New(auth.Opts{
		Store:        store,
		ClientID:     cfg.Linear.ClientID,
		ClientSecret: cfg.Linear.ClientSecret,
		RedirectURL:  cfg.RedirectURL(),
	})
	if err != nil {
		return err
	}

	llmClient := llm.New(cfg.LLM.APIKey, llm.WithModel(cfg.LLM.Model))
	voiceClient := realtime.New(cfg.Voice.APIKey, cfg.Voice.AgentID)

	trackerClient, teamID, err := buildTracker(cfg)
	if err != nil {
		return err
	}
	gateway, err := export.NewGateway(trackerClient, teamID)
	if err != nil {
		return err
	}

	machine, err := ticket.NewMachine(gormDB, llmClient)
	if err != nil {
		return err
	}
	pipe, err := pipeline.New(pipeline.Opts{
		DB:         gormDB,
		Classifier: llmClient,
		Machine:    machine,
	})
	if err != nil {
		return err
	}
	defer pipe.Stop()

	notifier, err := buildNotifier(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		fmt.Fprintf(cmd.OutOrStdout(), "\nReceived %s, shutting down...\n", sig)
		cancel()
	}()

	sw, err := sweeper.New(machine, cfg.Sweeper.Schedule, time.Duration(cfg.Sweeper.MaxAgeMin)*time.Minute)
	if err != nil {
		return err
	}
	go sw.Start(ctx)

	return server.Start(ctx, server.StartOpts{
		Port:     cfg.Port,
		Origin:   cfg.Origin,
		Out:      cmd.OutOrStdout(),
		Store:    store,
		Flow:     flow,
		Classify: llmClient,
		Generate: llmClient,
		Realtime: voiceClient,
		Machine:  machine,
		Pipeline: pipe,
		Gateway:  gateway,
		Notifier: notifier,
	})
}

// buildTracker selects the issue tracker backend from config.
func buildTracker(cfg *config.Config) (tracker.Client, string, error) {
	switch cfg.Tracker {
	case "github":
		client, err := trackergithub.New(cfg.GitHub.Owner, cfg.GitHub.Repo)
		if err != nil {
			return nil, "", err
		}
		return client, "", nil
	default:
		return linear.New(), cfg.Linear.TeamID, nil
	}
}

// buildNotifier assembles the configured chat notification adapters.
func buildNotifier(cfg *config.Config) (*notify.Notifier, error) {
	var adapters []notify.Adapter
	if cfg.Notify.Slack.BotToken != "" && cfg.Notify.Slack.ChannelID != "" {
		slack, err := notify.NewSlack(notify.SlackOpts{
			BotToken:  cfg.Notify.Slack.BotToken,
			ChannelID: cfg.Notify.Slack.ChannelID,
		})
		if err != nil {
			return nil, err
		}
		adapters = append(adapters, slack)
	}
	if cfg.Notify.Discord.BotToken != "" && cfg.Notify.Discord.ChannelID != "" {
		discord, err := notify.NewDiscord(notify.DiscordOpts{
			BotToken:  cfg.Notify.Discord.BotToken,
			ChannelID: cfg.Notify.Discord.ChannelID,
		})
		if err != nil {
			return nil, err
		}
		adapters = append(adapters, discord)
	}
	return notify.NewNotifier(adapters...), nil
}
