package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "cfstats",
	Short: "Codeforces profile statistics",
	Long:  "cfstats fetches a Codeforces handle's profile, rating history and\nsubmissions, and aggregates them into solved-problem statistics.",
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(fetchCmd)
	rootCmd.AddCommand(tokenCmd)
	rootCmd.AddCommand(migrateCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
