package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/musher-dev/dtt/internal/output"
	"github.com/musher-dev/dtt/internal/paths"
)

// PathsInfo holds all resolved paths for JSON output.
type PathsInfo struct {
	ConfigRoot  string `json:"config_root"`
	StateRoot   string `json:"state_root"`
	CacheRoot   string `json:"cache_root"`
	ConfigFile  string `json:"config_file"`
	AliasesFile string `json:"aliases_file"`
	HistoryFile string `json:"history_file"`
	LogFile     string `json:"log_file"`
}

func newPathsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "paths",
		Short: "Show where dtt stores files",
		Long: `Display all file and directory paths used by dtt: configuration, aliases,
saved history and the default log file.`,
		Example: `  dtt paths
  dtt paths --json`,
		Args: noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := output.FromContext(cmd.Context())

			info := resolvePathsInfo()

			if out.JSON {
				return out.PrintJSON(info)
			}

			out.KeyValues([]output.Pair{
				{Key: "Config root:", Value: info.ConfigRoot},
				{Key: "State root:", Value: info.StateRoot},
				{Key: "Cache root:", Value: info.CacheRoot},
			})
			out.Println()
			out.KeyValues([]output.Pair{
				{Key: "Config file:", Value: info.ConfigFile},
				{Key: "Aliases:", Value: info.AliasesFile},
				{Key: "History:", Value: info.HistoryFile},
				{Key: "Log file:", Value: info.LogFile},
			})

			return nil
		},
	}
}

func resolvePathsInfo() PathsInfo {
	return PathsInfo{
		ConfigRoot:  resolveOrError(paths.ConfigRoot),
		StateRoot:   resolveOrError(paths.StateRoot),
		CacheRoot:   resolveOrError(paths.CacheRoot),
		ConfigFile:  resolveOrError(paths.ConfigFile),
		AliasesFile: resolveOrError(paths.AliasesFile),
		HistoryFile: resolveOrError(paths.HistoryFile),
		LogFile:     resolveOrError(paths.DefaultLogFile),
	}
}

func resolveOrError(fn func() (string, error)) string {
	val, err := fn()
	if err != nil {
		return fmt.Sprintf("<error: %v>", err)
	}

	return val
}
