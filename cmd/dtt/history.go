package main

import (
	"github.com/spf13/cobra"

	"github.com/musher-dev/dtt/internal/config"
	clierrors "github.com/musher-dev/dtt/internal/errors"
	"github.com/musher-dev/dtt/internal/history"
	"github.com/musher-dev/dtt/internal/output"
	"github.com/musher-dev/dtt/internal/paths"
)

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect saved command history",
		Long:  `Inspect and clear the command history saved by interactive sessions.`,
	}

	cmd.AddCommand(newHistoryListCmd())
	cmd.AddCommand(newHistoryClearCmd())

	return cmd
}

func openHistoryFile() (*history.Store, error) {
	path, err := paths.HistoryFile()
	if err != nil {
		return nil, clierrors.ConfigFailed("resolve history file", err)
	}

	store, err := history.Open(path, config.Load().HistoryLimit())
	if err != nil {
		return nil, clierrors.ConfigFailed("read history", err)
	}

	return store, nil
}

func newHistoryListCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent commands",
		Long:  `Display saved commands, newest first. Repeated commands are stored once.`,
		Example: `  dtt history list
  dtt history list --limit 5 --json`,
		Args: noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := output.FromContext(cmd.Context())

			store, err := openHistoryFile()
			if err != nil {
				return err
			}

			n := store.Len()
			if limit > 0 {
				n = limit
			}

			recent := store.Recent(n)

			if out.JSON {
				return out.PrintJSON(recent)
			}

			if len(recent) == 0 {
				out.Muted("No history yet.")
				return nil
			}

			for _, command := range recent {
				out.Println(command)
			}

			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of commands to show (0 for all)")

	return cmd
}

func newHistoryClearCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Forget every saved command",
		Long:  `Delete the saved command history. Asks for confirmation unless --force is given.`,
		Example: `  dtt history clear
  dtt history clear -f`,
		Args: noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := output.FromContext(cmd.Context())

			store, err := openHistoryFile()
			if err != nil {
				return err
			}

			if !force {
				ok, err := confirm(out, "Forget %d saved commands?", store.Len())
				if err != nil || !ok {
					return err
				}
			}

			if err := store.Clear(); err != nil {
				return clierrors.ConfigFailed("clear history", err)
			}

			out.Success("History cleared")

			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Skip the confirmation prompt")

	return cmd
}
