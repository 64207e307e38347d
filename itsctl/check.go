package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"its-redmine/internal/client"
	"its-redmine/internal/config"
	"its-redmine/internal/its"
	"its-redmine/internal/redmine"
)

var (
	checkURL    string
	checkAPIKey string
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Test connectivity to Redmine with the configured or given credentials",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		url := checkURL
		if url == "" {
			url = cfg.PluginString(its.KeyURL)
		}
		apiKey := checkAPIKey
		if apiKey == "" {
			apiKey = cfg.PluginString(its.KeyAPIKey)
		}

		fmt.Fprint(cmd.OutOrStdout(), "Checking Redmine connectivity ... ")
		err = verifyConnectivity(cfg)(cmd.Context(), url, apiKey)
		if err != nil {
			fmt.Fprintf(cmd.OutOrStdout(), "*FAILED* (%v)\n", err)
			return fmt.Errorf("redmine at %q is not reachable", url)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "[OK]")
		return nil
	},
}

func init() {
	checkCmd.Flags().StringVar(&checkURL, "url", "", "Redmine URL (default: configured url)")
	checkCmd.Flags().StringVar(&checkAPIKey, "api-key", "", "Redmine API key (default: configured apiKey)")
}

func newRedmineClient(cfg *config.Config, url, apiKey string) (*client.RedmineClient, error) {
	return client.NewRedmineClient(url, apiKey, redmine.Options{
		Timeout:       cfg.RedmineTimeout,
		SkipTLSVerify: cfg.RedmineSkipTLS,
		Logger:        logger,
	})
}
