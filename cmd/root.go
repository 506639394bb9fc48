// Package cmd defines the CLI commands for the examdump executable.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var cfgFile string

// newRootCmd creates and configures the root command.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "examdump",
		Short: "Scrape exam discussion pages into grouped study material",
		Long: `examdump walks a provider's discussion listing, collects every question
matching a search term, fetches each question page through a headless
browser, and exports the results grouped by topic as a text dump and a
flashcard CSV.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is built-in defaults plus EXAMDUMP_* env vars)")
	cmd.AddCommand(newScrapeCmd())
	return cmd
}

// Execute is the main entry point.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
