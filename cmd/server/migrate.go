package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aidash/server/internal/app"
	"github.com/aidash/server/internal/module/auth"
	"github.com/aidash/server/internal/module/quota"
	"github.com/aidash/server/internal/shared/database"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update database tables",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		db, err := app.ProvideDatabase(cfg)
		if err != nil {
			return fmt.Errorf("connect database: %w", err)
		}
		defer database.Close(db)

		if err := database.Migrate(db, &auth.User{}, &quota.UsageRecord{}); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
