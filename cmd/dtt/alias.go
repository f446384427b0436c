package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/musher-dev/dtt/internal/aliases"
	clierrors "github.com/musher-dev/dtt/internal/errors"
	"github.com/musher-dev/dtt/internal/output"
	"github.com/musher-dev/dtt/internal/paths"
	"github.com/musher-dev/dtt/internal/prompt"
)

func newAliasCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "alias",
		Short: "Manage command aliases",
		Long: `Manage the alias table applied to the first word of every command. Changes
take effect in running shells before their next command.`,
	}

	cmd.AddCommand(newAliasListCmd())
	cmd.AddCommand(newAliasAddCmd())
	cmd.AddCommand(newAliasRemoveCmd())
	cmd.AddCommand(newAliasClearCmd())

	return cmd
}

func openAliases() (*aliases.Store, error) {
	path, err := paths.AliasesFile()
	if err != nil {
		return nil, clierrors.ConfigFailed("resolve alias file", err)
	}

	store, err := aliases.Load(path)
	if err != nil {
		return nil, clierrors.ConfigFailed("load aliases", err)
	}

	return store, nil
}

func newAliasListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List defined aliases",
		Long:  `Display every alias and the text it expands to, sorted by name.`,
		Example: `  dtt alias list
  dtt alias list --json`,
		Args: noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := output.FromContext(cmd.Context())

			store, err := openAliases()
			if err != nil {
				return err
			}

			if out.JSON {
				return out.PrintJSON(store.Map())
			}

			names := store.Names()
			if len(names) == 0 {
				out.Muted("No aliases defined.")
				return nil
			}

			pairs := make([]output.Pair, 0, len(names))
			for _, name := range names {
				value, _ := store.Get(name)
				pairs = append(pairs, output.Pair{Key: name, Value: value})
			}

			out.KeyValues(pairs)

			return nil
		},
	}
}

func newAliasAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <name> <value>...",
		Short: "Add or replace an alias",
		Long: `Define name as an alias. Remaining arguments are joined with spaces to form
the replacement text. Aliases are applied once and are not expanded again.`,
		Example: `  dtt alias add ll ls -la
  dtt alias add proj ~/src/project
  dtt alias add build 'make && make test'`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := output.FromContext(cmd.Context())
			name, value := args[0], strings.Join(args[1:], " ")

			if !aliases.ValidName(name) {
				return clierrors.InvalidAliasName(name)
			}

			store, err := openAliases()
			if err != nil {
				return err
			}

			if err := store.Set(name, value); err != nil {
				return clierrors.ConfigFailed("save aliases", err)
			}

			out.Success("Alias %s = %s", name, value)

			return nil
		},
	}

	// Everything after the name belongs to the alias, including dashes.
	cmd.Flags().SetInterspersed(false)

	return cmd
}

func newAliasRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "remove <name>",
		Aliases: []string{"rm"},
		Short:   "Remove an alias",
		Long:    `Delete a single alias from the table.`,
		Example: `  dtt alias remove ll`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := output.FromContext(cmd.Context())

			store, err := openAliases()
			if err != nil {
				return err
			}

			removed, err := store.Remove(args[0])
			if err != nil {
				return clierrors.ConfigFailed("save aliases", err)
			}

			if !removed {
				return clierrors.AliasNotFound(args[0])
			}

			out.Success("Removed alias %s", args[0])

			return nil
		},
	}
}

func newAliasClearCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove every alias",
		Long:  `Delete the whole alias table. Asks for confirmation unless --force is given.`,
		Example: `  dtt alias clear
  dtt alias clear --force`,
		Args: noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := output.FromContext(cmd.Context())

			store, err := openAliases()
			if err != nil {
				return err
			}

			count := len(store.Names())
			if count == 0 {
				out.Muted("No aliases defined.")
				return nil
			}

			if !force {
				ok, err := confirm(out, "Remove all %d aliases?", count)
				if err != nil || !ok {
					return err
				}
			}

			if err := store.Clear(); err != nil {
				return clierrors.ConfigFailed("save aliases", err)
			}

			out.Success("Removed %d aliases", count)

			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Skip the confirmation prompt")

	return cmd
}

// confirm asks a yes/no question, defaulting to no. It fails when no
// terminal is available and reports a closed input as a plain "no".
func confirm(out *output.Writer, format string, args ...any) (bool, error) {
	p := prompt.New(out)
	if !p.CanPrompt() {
		return false, clierrors.CannotPrompt("--force")
	}

	ok, err := p.Confirm(fmt.Sprintf(format, args...), false)
	if prompt.IsCanceled(err) {
		return false, nil
	}

	if err != nil {
		return false, err
	}

	if !ok {
		out.Muted("Canceled.")
	}

	return ok, nil
}
