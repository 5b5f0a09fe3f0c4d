package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aidash/server/internal/shared/config"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "server",
	Short: "AI dashboard backend",
	Long: `AI dashboard backend serving chat, code, image and background-removal
tools behind a per-user free-usage quota.

Running without a subcommand starts the HTTP server.`,
	SilenceUsage: true,
	RunE:         runServe,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path (default: ./config.yaml, ./configs, /etc/aidash)")
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadFile(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}
