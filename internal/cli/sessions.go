package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/fabula/internal/session"
)

// SessionInfo is the JSON shape for a saved session listing.
type SessionInfo struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	StoryTitle string `json:"story_title"`
	Node       string `json:"node"`
	UpdatedAt  string `json:"updated_at"`
}

// NewSessionsCommand creates the sessions command group.
func NewSessionsCommand(rootOpts *RootOptions) *cobra.Command {
	var dbPath string

	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "Manage saved play sessions",
	}

	cmd.PersistentFlags().StringVar(&dbPath, "db", "fabula.db", "session database path")

	list := &cobra.Command{
		Use:           "list",
		Short:         "List saved sessions",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSessionsList(rootOpts, dbPath, cmd)
		},
	}

	del := &cobra.Command{
		Use:           "delete <name>",
		Short:         "Delete a saved session",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSessionsDelete(rootOpts, dbPath, args[0], cmd)
		},
	}

	cmd.AddCommand(list)
	cmd.AddCommand(del)

	return cmd
}

func runSessionsList(opts *RootOptions, dbPath string, cmd *cobra.Command) error {
	store, err := session.Open(dbPath, session.UUIDv7Generator{})
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open session database", err)
	}
	defer store.Close()

	sessions, err := store.List(context.Background())
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list sessions", err)
	}

	infos := make([]SessionInfo, 0, len(sessions))
	for _, s := range sessions {
		info := SessionInfo{
			ID:         s.ID,
			Name:       s.Name,
			StoryTitle: s.StoryTitle,
			UpdatedAt:  s.UpdatedAt.UTC().Format("2006-01-02 15:04:05"),
		}
		if s.State != nil {
			info.Node = s.State.CurrentNode
		}
		infos = append(infos, info)
	}

	formatter := &OutputFormatter{
		Format:  opts.Format,
		Writer:  cmd.OutOrStdout(),
		Verbose: opts.Verbose,
	}
	if formatter.Format == "json" {
		return formatter.Success(infos)
	}

	if len(infos) == 0 {
		fmt.Fprintln(formatter.Writer, "No saved sessions.")
		return nil
	}
	for _, info := range infos {
		fmt.Fprintf(formatter.Writer, "%s\t%s\tat %s\t(%s)\n", info.Name, info.StoryTitle, info.Node, info.UpdatedAt)
	}
	return nil
}

func runSessionsDelete(opts *RootOptions, dbPath, name string, cmd *cobra.Command) error {
	store, err := session.Open(dbPath, session.UUIDv7Generator{})
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open session database", err)
	}
	defer store.Close()

	if err := store.Delete(context.Background(), name); err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return NewExitError(ExitCommandError, fmt.Sprintf("session not found: %s", name))
		}
		return WrapExitError(ExitCommandError, "failed to delete session", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Deleted session %q.\n", name)
	return nil
}
