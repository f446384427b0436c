package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/musher-dev/dtt/internal/config"
	clierrors "github.com/musher-dev/dtt/internal/errors"
	"github.com/musher-dev/dtt/internal/output"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration",
		Long:  `View and modify dtt configuration settings.`,
	}

	cmd.AddCommand(newConfigListCmd())
	cmd.AddCommand(newConfigGetCmd())
	cmd.AddCommand(newConfigSetCmd())

	return cmd
}

// displayValue quotes strings that carry control characters, such as the
// prompt color escapes, so listing them does not recolor the terminal.
func displayValue(value any) string {
	s := fmt.Sprintf("%v", value)
	if strings.ContainsFunc(s, func(r rune) bool { return r < ' ' }) {
		return strconv.Quote(s)
	}

	return s
}

func newConfigListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all configuration settings",
		Long:  `Display every configuration key with its effective value from the environment, the config file or the built-in default.`,
		Example: `  dtt config list
  dtt config list --json`,
		Args: noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := output.FromContext(cmd.Context())
			cfg := config.Load()

			if out.JSON {
				return out.PrintJSON(cfg.All())
			}

			if err := cfg.Warning(); err != nil {
				out.Warning("Config file ignored: %v", err)
			}

			keys := cfg.Keys()
			pairs := make([]output.Pair, 0, len(keys))

			for _, key := range keys {
				pairs = append(pairs, output.Pair{Key: key, Value: displayValue(cfg.Get(key))})
			}

			out.KeyValues(pairs)

			return nil
		},
	}
}

func newConfigGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "get <key>",
		Short:   "Get a configuration value",
		Long:    `Retrieve and display the current value of a single configuration key.`,
		Example: `  dtt config get jobs.kill_grace`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := output.FromContext(cmd.Context())
			key := args[0]
			cfg := config.Load()

			if !cfg.Known(key) {
				return clierrors.UnknownConfigKey(key)
			}

			out.Print("%s = %s\n", key, displayValue(cfg.Get(key)))

			return nil
		},
	}
}

func newConfigSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value",
		Long:  `Set a configuration key to the given value. The value is persisted to the config file.`,
		Example: `  dtt config set prompt.full_path true
  dtt config set status.staleness 10s`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := output.FromContext(cmd.Context())
			key, value := args[0], args[1]
			cfg := config.Load()

			if !cfg.Known(key) {
				return clierrors.UnknownConfigKey(key)
			}

			if err := cfg.Set(key, value); err != nil {
				return clierrors.ConfigFailed("set config", err)
			}

			out.Success("Set %s = %s", key, value)

			return nil
		},
	}
}
