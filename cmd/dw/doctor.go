package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/draftwire/draftwire/internal/config"
)

func newDoctorCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check configuration and environment",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDoctor(cmd, configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "draftwire.yaml", "path to Draftwire config file")
	return cmd
}

func runDoctor(cmd *cobra.Command, configPath string) error {
	out := cmd.OutOrStdout()
	cfg, err := config.Load(configPath)
	if err != nil {
		msg := err.Error()
		if i := strings.Index(msg, "validation failed: "); i >= 0 {
			fmt.Fprintln(out, "Configuration problems:")
			for _, problem := range strings.Split(msg[i+len("validation failed: "):], "; ") {
				fmt.Fprintf(out, "  ✗ %s\n", problem)
			}
			return fmt.Errorf("doctor: configuration is incomplete")
		}
		return err
	}

	fmt.Fprintf(out, "  ✓ config %s loads\n", configPath)
	fmt.Fprintf(out, "  ✓ origin %s\n", cfg.Origin)
	fmt.Fprintf(out, "  ✓ tracker %s\n", cfg.Tracker)
	fmt.Fprintf(out, "  ✓ database %s\n", cfg.Database.Driver)
	if cfg.Notify.Slack.ChannelID != "" {
		fmt.Fprintln(out, "  ✓ slack notifications enabled")
	}
	if cfg.Notify.Discord.ChannelID != "" {
		fmt.Fprintln(out, "  ✓ discord notifications enabled")
	}
	fmt.Fprintln(out, "All checks passed.")
	return nil
}
