package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aidash/server/internal/app"
	"github.com/aidash/server/internal/module/quota"
	"github.com/aidash/server/internal/shared/cache"
	"github.com/aidash/server/internal/shared/database"
)

var usageResetAll bool

var usageCmd = &cobra.Command{
	Use:   "usage",
	Short: "Inspect or reset free-usage counters",
}

var usageGetCmd = &cobra.Command{
	Use:   "get <userId>",
	Short: "Print the quota summary for a user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withGate(func(gate *quota.Gate, _ quota.Ledger) error {
			summary, err := gate.Usage(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(summary)
		})
	},
}

var usageResetCmd = &cobra.Command{
	Use:   "reset [userId]",
	Short: "Reset the counter for a user, or for everyone with --all",
	Example: `  server usage reset user-123
  server usage reset --all`,
	Args: func(cmd *cobra.Command, args []string) error {
		if usageResetAll && len(args) > 0 {
			return errors.New("pass either a userId or --all, not both")
		}
		if !usageResetAll && len(args) != 1 {
			return errors.New("a userId is required unless --all is set")
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return withGate(func(_ *quota.Gate, ledger quota.Ledger) error {
			if usageResetAll {
				n, err := ledger.ResetAll(cmd.Context())
				if err != nil {
					return fmt.Errorf("reset all: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "reset %d usage records\n", n)
				return nil
			}
			if err := ledger.Reset(cmd.Context(), args[0]); err != nil {
				return fmt.Errorf("reset %s: %w", args[0], err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "reset usage for %s\n", args[0])
			return nil
		})
	},
}

func init() {
	usageResetCmd.Flags().BoolVar(&usageResetAll, "all", false, "reset every user")
	usageCmd.AddCommand(usageGetCmd, usageResetCmd)
	rootCmd.AddCommand(usageCmd)
}

// withGate opens the configured ledger backend without starting the server.
func withGate(fn func(*quota.Gate, quota.Ledger) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := app.ProvideLogger(cfg)
	defer logger.Sync()

	db, err := app.ProvideDatabase(cfg)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer database.Close(db)

	client, err := app.ProvideRedisClient(cfg, logger)
	if err != nil {
		return err
	}
	if client != nil {
		defer cache.Close(client)
	}

	ledger, err := app.ProvideLedger(cfg, db, client)
	if err != nil {
		return err
	}
	return fn(app.ProvideGate(cfg, ledger, logger, nil), ledger)
}
