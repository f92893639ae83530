package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for webscrape.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "webscrape",
		Short: "Universal web scraper with automatic extraction",
		Long: `webscrape extracts structured data from web pages without writing
per-site code. Extraction strategies are tried in order:

  1. Configured CSS selectors (from flags or a .webscrape.yaml file)
  2. Automatic detection of repeating list structures
  3. Whole-page content extraction (title, description, main text)

Crawl state is persisted to SQLite, so interrupted runs skip pages they
already visited.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	// Add subcommands
	cmd.AddCommand(NewScrapeCmd())
	cmd.AddCommand(NewSessionsCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}
