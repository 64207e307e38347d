// Command itsctl initializes and exercises the its-redmine adapter from the command line.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"its-redmine/internal/config"
)

const defaultConfigFile = "its-redmine.yaml"

var (
	configFile  string
	verboseFlag bool
	logger      = slog.Default()
)

var rootCmd = &cobra.Command{
	Use:           "itsctl",
	Short:         "Set up and drive the its-redmine adapter",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelWarn
		if verboseFlag {
			level = slog.LevelDebug
		}
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	},
}

func init() {
	defaultPath := os.Getenv("ITS_CONFIG_FILE")
	if defaultPath == "" {
		defaultPath = defaultConfigFile
	}
	rootCmd.PersistentFlags().StringVar(&configFile, "config", defaultPath, "Configuration file (default: $ITS_CONFIG_FILE or "+defaultConfigFile+")")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "Enable debug output")

	rootCmd.AddCommand(initCmd, checkCmd, notifyCmd)
}

// loadConfig reads the configuration file selected by --config
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
