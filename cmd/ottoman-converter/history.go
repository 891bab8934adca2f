// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/ottoman-converter/internal/history"
	"github.com/pdiddy/ottoman-converter/pkg/types"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect stored chat sessions (list, show, search, export, delete)",
	Long: `History manages the SQLite database of chat sessions written by serve
and by convert --session.`,
}

// --- list subcommand ---

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List sessions, most recently updated first",
	Args:  cobra.NoArgs,
	RunE:  runHistoryList,
}

func runHistoryList(cmd *cobra.Command, args []string) error {
	store, err := openStore(loadConfig(viper.GetViper()))
	if err != nil {
		return err
	}
	defer store.Close()

	limit, _ := cmd.Flags().GetInt("limit")
	sessions, err := store.ListSessions(context.Background(), limit)
	if err != nil {
		return err
	}
	return formatSessionList(cmd.OutOrStdout(), sessions)
}

func formatSessionList(w io.Writer, sessions []types.Session) error {
	if len(sessions) == 0 {
		fmt.Fprintln(w, "No sessions found.")
		return nil
	}

	fmt.Fprintf(w, "%-36s  %-20s  %s\n", "ID", "Updated", "Title")
	fmt.Fprintln(w, strings.Repeat("-", 100))
	for _, s := range sessions {
		title := s.Title
		if title == "" {
			title = "(empty)"
		}
		fmt.Fprintf(w, "%-36s  %-20s  %s\n", s.ID, s.UpdatedAt.Format("2006-01-02 15:04:05"), clip(title, 40))
	}
	fmt.Fprintf(w, "\n%d sessions\n", len(sessions))
	return nil
}

// --- show subcommand ---

var historyShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print a session transcript",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryShow,
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	store, err := openStore(loadConfig(viper.GetViper()))
	if err != nil {
		return err
	}
	defer store.Close()

	sess, err := store.Session(context.Background(), args[0])
	if err != nil {
		return err
	}
	formatTranscript(cmd.OutOrStdout(), sess)
	return nil
}

func formatTranscript(w io.Writer, sess types.Session) {
	fmt.Fprintf(w, "Session %s (%s)\n\n", sess.ID, sess.CreatedAt.Format("2006-01-02 15:04:05"))
	for _, m := range sess.Messages {
		label := string(m.Role)
		if m.Failed() {
			label += " [" + string(m.FailureKind) + "]"
		}
		fmt.Fprintf(w, "%s:\n%s\n\n", label, m.Content)
	}
}

// --- search subcommand ---

var historySearchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Find messages containing the query text",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runHistorySearch,
}

func runHistorySearch(cmd *cobra.Command, args []string) error {
	store, err := openStore(loadConfig(viper.GetViper()))
	if err != nil {
		return err
	}
	defer store.Close()

	limit, _ := cmd.Flags().GetInt("limit")
	results, err := store.Search(context.Background(), strings.Join(args, " "), limit)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if len(results) == 0 {
		fmt.Fprintln(w, "No results found.")
		return nil
	}
	for _, r := range results {
		fmt.Fprintf(w, "%s  %-9s  %s\n", r.SessionID, r.Message.Role, clip(r.Message.Content, 60))
	}
	fmt.Fprintf(w, "\n%d results\n", len(results))
	return nil
}

// --- export subcommand ---

var historyExportCmd = &cobra.Command{
	Use:   "export <id>",
	Short: "Export a session to YAML or JSON on standard output",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryExport,
}

func runHistoryExport(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")

	store, err := openStore(loadConfig(viper.GetViper()))
	if err != nil {
		return err
	}
	defer store.Close()

	return store.Export(context.Background(), args[0], format, cmd.OutOrStdout())
}

// --- delete subcommand ---

var historyDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a session and its transcript",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryDelete,
}

func runHistoryDelete(cmd *cobra.Command, args []string) error {
	store, err := openStore(loadConfig(viper.GetViper()))
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.DeleteSession(context.Background(), args[0]); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted session %s\n", args[0])
	return nil
}

// clip shortens s to n characters on one line.
func clip(s string, n int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n-3]) + "..."
}

func init() {
	historyListCmd.Flags().Int("limit", 0, "maximum sessions to list (0 = history.max_sessions)")
	historySearchCmd.Flags().Int("limit", 0, "maximum results (0 = default)")
	historyExportCmd.Flags().String("format", history.FormatYAML, "export format: yaml or json")

	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historySearchCmd)
	historyCmd.AddCommand(historyExportCmd)
	historyCmd.AddCommand(historyDeleteCmd)

	rootCmd.AddCommand(historyCmd)
}
