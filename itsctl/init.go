package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"its-redmine/internal/config"
	"its-redmine/internal/its"
	"its-redmine/internal/setup"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Interactively configure Redmine connectivity and issue references",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		current := config.PluginSection{
			URL:         cfg.PluginString(its.KeyURL),
			APIKey:      cfg.PluginString(its.KeyAPIKey),
			CommentLink: cfg.CommentLink(),
		}

		wizard := setup.NewWizard(setup.NewHuhPrompter(), verifyConnectivity(cfg), cmd.OutOrStdout())
		section, err := wizard.Run(cmd.Context(), current)
		if errors.Is(err, huh.ErrUserAborted) {
			fmt.Fprintln(cmd.OutOrStdout(), "Initialization cancelled.")
			return nil
		}
		if err != nil {
			return err
		}
		if section == nil {
			fmt.Fprintln(cmd.OutOrStdout(), "Redmine URL left empty, nothing written.")
			return nil
		}

		if err := config.SavePluginSection(configFile, cfg.PluginName, *section); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote section %q to %s\n", cfg.PluginName, configFile)
		return nil
	},
}

// verifyConnectivity returns the wizard's connectivity test, built on the adapter's own client
func verifyConnectivity(cfg *config.Config) setup.ConnectivityCheck {
	return func(ctx context.Context, url, apiKey string) error {
		c, err := newRedmineClient(cfg, url, apiKey)
		if err != nil {
			return err
		}
		return c.VerifyConnectivity(ctx)
	}
}
