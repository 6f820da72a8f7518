package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"cfstats/internal/app/service"
	"cfstats/internal/platform/cache"
	"cfstats/internal/platform/codeforces"
	"cfstats/internal/platform/config"
	"cfstats/internal/platform/logger"

	"github.com/spf13/cobra"
)

var fetchFlags struct {
	json    bool
	timeout time.Duration
	top     int
}

var fetchCmd = &cobra.Command{
	Use:   "fetch <handle>",
	Short: "Fetch and aggregate one handle without touching Redis or Postgres",
	Args:  cobra.ExactArgs(1),
	RunE:  runFetch,
}

func init() {
	f := fetchCmd.Flags()
	f.BoolVar(&fetchFlags.json, "json", false, "Print the snapshot as JSON")
	f.DurationVar(&fetchFlags.timeout, "timeout", 2*time.Minute, "Overall deadline")
	f.IntVar(&fetchFlags.top, "top", 8, "Number of tags to show")
}

func runFetch(cmd *cobra.Command, args []string) error {
	config.Load()
	cfg := config.AppConfig

	level := cfg.LogLevel
	if level == "info" {
		level = "warn"
	}
	log, err := logger.New(level, true)
	if err != nil {
		return err
	}
	defer log.Sync()

	client := codeforces.NewClient(codeforces.ConfigFromApp(cfg), log)
	stats := service.NewStatsService(client, cache.NewMemory(time.Minute), nil)

	ctx, cancel := context.WithTimeout(cmd.Context(), fetchFlags.timeout)
	defer cancel()

	snap, err := stats.Refresh(logger.WithLogger(ctx, log), args[0])
	if err != nil {
		return fmt.Errorf("fetch %s: %w", args[0], err)
	}

	out := cmd.OutOrStdout()
	if fetchFlags.json {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(snap)
	}
	fmt.Fprintln(out, renderSnapshot(snap, fetchFlags.top))
	return nil
}
