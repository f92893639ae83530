package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/0khacha/web-scraper/internal/config"
	"github.com/0khacha/web-scraper/internal/state"
)

// NewSessionsCmd creates the sessions command.
func NewSessionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "Inspect and manage crawl sessions",
		Long: `Sessions lists crawl sessions still marked active, which usually means
an earlier run was interrupted.

Examples:
  # List interrupted sessions
  webscrape sessions

  # Print the items a session saved before it was interrupted
  webscrape sessions --items session_20250114_153042_a1b2c3d4

  # Remove one session's state
  webscrape sessions --clear session_20250114_153042_a1b2c3d4

  # Remove all crawl state
  webscrape sessions --clear-all`,
		Args: cobra.NoArgs,
		RunE: runSessionsCmd,
	}

	cmd.Flags().String("items", "", "Print the items saved by the given session as JSON")
	cmd.Flags().String("clear", "", "Delete all state for the given session")
	cmd.Flags().Bool("clear-all", false, "Delete all crawl state")
	cmd.Flags().String("state-dir", "", "Directory for the state database (default: XDG data directory)")

	return cmd
}

// runSessionsCmd executes the sessions command.
func runSessionsCmd(cmd *cobra.Command, _ []string) error {
	stateDir, err := cmd.Flags().GetString("state-dir")
	if err != nil {
		return err
	}
	if stateDir == "" {
		stateDir = config.DefaultStateDir()
	}

	store, err := state.Open(stateDir, state.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open state store: %w", err)
	}
	defer store.Close()

	ctx := cmd.Context()

	if clearAll, _ := cmd.Flags().GetBool("clear-all"); clearAll {
		if err := store.ClearAll(ctx); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "All crawl state cleared.")
		return nil
	}

	if sessionID, _ := cmd.Flags().GetString("clear"); sessionID != "" {
		if err := store.ClearSession(ctx, sessionID); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Session %s cleared.\n", sessionID)
		return nil
	}

	if sessionID, _ := cmd.Flags().GetString("items"); sessionID != "" {
		return printSessionItems(cmd, store, sessionID)
	}

	return printActiveSessions(cmd, store)
}

// printSessionItems dumps a session's saved items as a JSON array, each
// item annotated with the URL it was scraped from.
func printSessionItems(cmd *cobra.Command, store *state.Store, sessionID string) error {
	saved, err := store.SessionItems(cmd.Context(), sessionID)
	if err != nil {
		return err
	}

	out := make([]map[string]any, 0, len(saved))
	for _, rec := range saved {
		entry := make(map[string]any, len(rec.Payload)+1)
		for k, v := range rec.Payload {
			entry[k] = v
		}
		entry["_source_url"] = rec.URL
		out = append(out, entry)
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(out)
}

// printActiveSessions lists sessions that never completed.
func printActiveSessions(cmd *cobra.Command, store *state.Store) error {
	sessions, err := store.ActiveSessions(cmd.Context())
	if err != nil {
		return err
	}

	if len(sessions) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No interrupted sessions.")
		return nil
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%d interrupted session(s):\n\n", len(sessions))
	for _, sess := range sessions {
		visited, err := store.VisitedCount(cmd.Context(), sess.SessionID)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", sess.SessionID)
		fmt.Fprintf(cmd.OutOrStdout(), "    started: %s\n", sess.StartedAt.Format("2006-01-02 15:04:05"))
		fmt.Fprintf(cmd.OutOrStdout(), "    start URL: %s\n", sess.StartURL)
		fmt.Fprintf(cmd.OutOrStdout(), "    pages visited: %d\n", visited)
	}

	return nil
}
