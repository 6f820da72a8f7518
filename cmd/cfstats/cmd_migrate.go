package main

import (
	"fmt"

	"cfstats/internal/platform/config"
	"cfstats/internal/platform/database"
	"cfstats/internal/platform/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create missing database tables",
	RunE: func(cmd *cobra.Command, _ []string) error {
		config.Load()
		log, err := logger.New(config.AppConfig.LogLevel, true)
		if err != nil {
			return err
		}
		zap.ReplaceGlobals(log)

		database.Connect()
		defer database.Close()
		if err := database.EnsureSchema(cmd.Context(), database.DB); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "schema up to date")
		return nil
	},
}
