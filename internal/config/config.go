// Package config provides YAML-based configuration loading for Draftwire.
// Secrets are taken from environment variables and override YAML values.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the top-level Draftwire configuration, loaded from config.yaml.
type Config struct {
	// Origin is the public origin of the app (scheme + host), used to build
	// OAuth redirect targets and post-callback redirects.
	Origin      string `yaml:"origin"`
	Environment string `yaml:"environment"` // "development" or "production"
	Port        int    `yaml:"port"`

	Database DatabaseConfig `yaml:"database"`
	Session  SessionConfig  `yaml:"session"`
	Linear   LinearConfig   `yaml:"linear"`
	GitHub   GitHubConfig   `yaml:"github"`
	Tracker  string         `yaml:"tracker"` // "linear" (default) or "github"
	LLM      LLMConfig      `yaml:"llm"`
	Voice    VoiceConfig    `yaml:"voice"`
	Notify   NotifyConfig   `yaml:"notify"`
	Sweeper  SweeperConfig  `yaml:"sweeper"`
}

// DatabaseConfig holds ticket store settings. The default sqlite :memory:
// backend keeps tickets for the process lifetime only.
type DatabaseConfig struct {
	Driver string `yaml:"driver"` // "sqlite" (default) or "mysql"
	Path   string `yaml:"path"`   // sqlite path, default ":memory:"
	DSN    string `yaml:"dsn"`    // mysql DSN
}

// SessionConfig holds the cookie-signing secret.
type SessionConfig struct {
	Secret string `yaml:"secret"` // env DRAFTWIRE_SESSION_SECRET
}

// LinearConfig holds Linear OAuth credentials and export settings.
type LinearConfig struct {
	ClientID     string `yaml:"client_id"`     // env LINEAR_CLIENT_ID
	ClientSecret string `yaml:"client_secret"` // env LINEAR_CLIENT_SECRET
	TeamID       string `yaml:"team_id"`       // optional; first team if empty
}

// GitHubConfig holds settings for the GitHub issue tracker backend.
type GitHubConfig struct {
	Owner string `yaml:"owner"`
	Repo  string `yaml:"repo"`
}

// LLMConfig holds settings for intent classification and mockup generation.
type LLMConfig struct {
	APIKey string `yaml:"api_key"` // env ANTHROPIC_API_KEY
	Model  string `yaml:"model"`
}

// VoiceConfig holds the realtime speech transport credentials used to mint
// signed conversation URLs for the browser.
type VoiceConfig struct {
	APIKey  string `yaml:"api_key"` // env ELEVENLABS_API_KEY
	AgentID string `yaml:"agent_id"`
}

// NotifyConfig holds optional chat notification settings for exports.
type NotifyConfig struct {
	Slack   SlackConfig   `yaml:"slack"`
	Discord DiscordConfig `yaml:"discord"`
}

// SlackConfig enables Slack export notifications when both fields are set.
type SlackConfig struct {
	BotToken  string `yaml:"bot_token"` // env SLACK_BOT_TOKEN
	ChannelID string `yaml:"channel_id"`
}

// DiscordConfig enables Discord export notifications when both fields are set.
type DiscordConfig struct {
	BotToken  string `yaml:"bot_token"` // env DISCORD_BOT_TOKEN
	ChannelID string `yaml:"channel_id"`
}

// SweeperConfig controls the stale-ticket sweep schedule.
type SweeperConfig struct {
	Schedule  string `yaml:"schedule"`    // cron expression, default "@every 1m"
	MaxAgeMin int    `yaml:"max_age_min"` // stuck-ticket age before revert, default 10
}

// Load reads a YAML config file from path and returns a validated Config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse unmarshals YAML bytes into a validated Config. Environment
// variables override the corresponding YAML fields.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	cfg.applyEnv()
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyEnv overlays secret values from the environment.
func (c *Config) applyEnv() {
	overlay := func(dst *string, key string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	overlay(&c.Session.Secret, "DRAFTWIRE_SESSION_SECRET")
	overlay(&c.Linear.ClientID, "LINEAR_CLIENT_ID")
	overlay(&c.Linear.ClientSecret, "LINEAR_CLIENT_SECRET")
	overlay(&c.LLM.APIKey, "ANTHROPIC_API_KEY")
	overlay(&c.Voice.APIKey, "ELEVENLABS_API_KEY")
	overlay(&c.Voice.AgentID, "ELEVENLABS_AGENT_ID")
	overlay(&c.Notify.Slack.BotToken, "SLACK_BOT_TOKEN")
	overlay(&c.Notify.Discord.BotToken, "DISCORD_BOT_TOKEN")
}

// applyDefaults fills in derived and default values.
func (c *Config) applyDefaults() {
	if c.Environment == "" {
		c.Environment = "development"
	}
	if c.Port == 0 {
		c.Port = 8090
	}
	if c.Origin == "" && c.Environment == "development" {
		c.Origin = fmt.Sprintf("http://localhost:%d", c.Port)
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "sqlite"
	}
	if c.Database.Driver == "sqlite" && c.Database.Path == "" {
		c.Database.Path = ":memory:"
	}
	if c.Tracker == "" {
		c.Tracker = "linear"
	}
	if c.LLM.Model == "" {
		c.LLM.Model = "claude-sonnet-4-20250514"
	}
	if c.Sweeper.Schedule == "" {
		c.Sweeper.Schedule = "@every 1m"
	}
	if c.Sweeper.MaxAgeMin == 0 {
		c.Sweeper.MaxAgeMin = 10
	}
}

// Production reports whether the config targets a production deployment.
func (c *Config) Production() bool {
	return c.Environment == "production"
}

// RedirectURL returns the OAuth callback URL derived from Origin.
func (c *Config) RedirectURL() string {
	return strings.TrimRight(c.Origin, "/") + "/auth/linear/callback"
}

// Validate checks that all required fields are present and consistent.
// A missing secret or credential is a startup-fatal condition, never a
// per-request error.
func (c *Config) Validate() error {
	var errs []string
	if c.Origin == "" {
		errs = append(errs, "origin is required")
	}
	if c.Session.Secret == "" {
		errs = append(errs, "session secret is required (DRAFTWIRE_SESSION_SECRET)")
	}
	if c.Linear.ClientID == "" {
		errs = append(errs, "linear client id is required (LINEAR_CLIENT_ID)")
	}
	if c.Linear.ClientSecret == "" {
		errs = append(errs, "linear client secret is required (LINEAR_CLIENT_SECRET)")
	}
	if c.LLM.APIKey == "" {
		errs = append(errs, "llm api key is required (ANTHROPIC_API_KEY)")
	}
	if c.Voice.APIKey == "" {
		errs = append(errs, "voice api key is required (ELEVENLABS_API_KEY)")
	}
	if c.Voice.AgentID == "" {
		errs = append(errs, "voice agent id is required (ELEVENLABS_AGENT_ID)")
	}
	switch c.Tracker {
	case "linear":
	case "github":
		if c.GitHub.Owner == "" || c.GitHub.Repo == "" {
			errs = append(errs, "github owner and repo are required for the github tracker")
		}
	default:
		errs = append(errs, fmt.Sprintf("unknown tracker %q (want linear or github)", c.Tracker))
	}
	switch c.Database.Driver {
	case "sqlite":
	case "mysql":
		if c.Database.DSN == "" {
			errs = append(errs, "database dsn is required for the mysql driver")
		}
	default:
		errs = append(errs, fmt.Sprintf("unknown database driver %q (want sqlite or mysql)", c.Database.Driver))
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}
