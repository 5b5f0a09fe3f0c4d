package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/aidash/server/internal/app"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Start the HTTP server and the scheduled quota reset job.

When --config is given the file is watched and quota.free_limit changes
take effect without a restart.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, cfg, app.WithConfigPath(cfgFile))
	if err != nil {
		return err
	}
	defer application.Stop()

	if err := application.Run(ctx); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}
