// Package main is the entry point for the dtt shell.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/musher-dev/dtt/internal/buildinfo"
	clierrors "github.com/musher-dev/dtt/internal/errors"
	"github.com/musher-dev/dtt/internal/observability"
	"github.com/musher-dev/dtt/internal/output"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	os.Exit(run())
}

func run() (exitCode int) {
	// Restore cursor visibility on panic to prevent hidden cursor if process crashes during spinner
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprint(os.Stderr, "\033[?25h")
			panic(r)
		}
	}()

	buildinfo.Version = version
	buildinfo.Commit = commit

	out := output.Default()

	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		return handleError(out, err)
	}

	return 0
}

// handleError formats and displays a CLI error, returning the appropriate exit code.
func handleError(out *output.Writer, err error) int {
	var exit *exitStatus
	if errors.As(err, &exit) {
		return exit.code
	}

	var cliErr *clierrors.CLIError
	if clierrors.As(err, &cliErr) {
		out.Failure("%s", cliErr.Error())

		if cliErr.Hint != "" {
			out.Info("%s", cliErr.Hint)
		}

		return cliErr.Code
	}

	errStr := err.Error()

	// Format: "unknown command \"xyz\" for \"dtt\"\n\nDid you mean this?\n\t..."
	if strings.HasPrefix(errStr, "unknown command") {
		out.Failure("%s", errStr)

		if !strings.Contains(errStr, "--help") {
			out.Info("Run 'dtt --help' for usage")
		}

		return clierrors.ExitUsage
	}

	if strings.HasPrefix(errStr, "unknown flag") ||
		strings.HasPrefix(errStr, "unknown shorthand flag") ||
		strings.Contains(errStr, "required flag") {
		out.Failure("%s", errStr)
		out.Info("Run 'dtt --help' for usage")

		return clierrors.ExitUsage
	}

	out.Failure("%s", errStr)

	return clierrors.ExitGeneral
}

func newRootCmd() *cobra.Command {
	var (
		jsonOutput bool
		quiet      bool
		noColor    bool
		noInput    bool
		logLevel   string
		logFormat  string
		logFile    string
		logStderr  string
		shellFlags shellOptions
	)

	out := output.Default()

	rootCmd := &cobra.Command{
		Use:   "dtt",
		Short: "Interactive command shell with job control",
		Long: `dtt is an interactive command shell. It runs ';' separated commands and
'&&' chains, launches programs in the foreground or with a trailing '&' in
the background, and manages them with jobs, fg, bg and kill.

Started without a subcommand it opens the interactive shell.`,
		Example: `  dtt
  dtt exec 'make && ./bin/app'
  dtt alias add ll 'ls -la'
  dtt doctor`,
		Args:          noArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			out.JSON = pickBoolFlagOrEnv(jsonOutput, "DTT_JSON")
			out.Quiet = pickBoolFlagOrEnv(quiet, "DTT_QUIET")
			out.NoInput = pickBoolFlagOrEnv(noInput, "DTT_NO_INPUT") || pickBoolFlagOrEnv(false, "CI")

			if noColor {
				out.SetNoColor(true)

				color.NoColor = true
			}

			logCfg := observability.Config{
				Level:          pickFlagOrEnv(logLevel, "DTT_LOG_LEVEL", "info"),
				Format:         pickFlagOrEnv(logFormat, "DTT_LOG_FORMAT", "json"),
				LogFile:        pickFlagOrEnv(logFile, "DTT_LOG_FILE", ""),
				StderrMode:     pickFlagOrEnv(logStderr, "DTT_LOG_STDERR", "auto"),
				InteractiveTTY: out.Terminal().IsTTY && isInteractiveCommand(cmd.CommandPath()),
				SessionID:      uuid.NewString(),
				CommandPath:    cmd.CommandPath(),
				Version:        version,
				Commit:         commit,
			}

			logger, cleanup, err := observability.NewLogger(&logCfg)
			if err != nil {
				return clierrors.LoggingSetupFailed(err)
			}

			slog.SetDefault(logger)

			ctx := out.WithContext(cmd.Context())
			ctx = observability.WithLogger(ctx, logger)
			cmd.SetContext(ctx)

			if cleanup != nil {
				cmd.PostRunE = wrapPostRunCleanup(cmd.PostRunE, cleanup)
			}

			// Tracing is opt-in via OTEL_ENABLED.
			telemetryShutdown, telemetryErr := observability.SetupTelemetry(ctx, observability.TelemetryFromEnv(version, commit))
			if telemetryErr != nil {
				logger.Warn("telemetry initialization failed", slog.String("error", telemetryErr.Error()))
			}

			if telemetryShutdown != nil {
				cmd.PostRunE = wrapNamedPostRunCleanup(cmd.PostRunE, "telemetry resources", func() error {
					shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer cancel()

					return telemetryShutdown(shutdownCtx)
				})
			}

			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShellCmd(cmd, shellFlags)
		},
	}

	// Global flags
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().BoolVar(&quiet, "quiet", false, "Minimal output (for CI)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().BoolVar(&noInput, "no-input", false, "Disable interactive prompts")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: error, warn, info, debug")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "Log format: json, text")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Optional structured log file path")
	rootCmd.PersistentFlags().StringVar(&logStderr, "log-stderr", "", "Structured logging to stderr: auto, on, off")

	addShellFlags(rootCmd, &shellFlags)

	rootCmd.SuggestionsMinimumDistance = 2

	// Wrap Cobra's raw flag errors in CLIError so they get styled output
	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return clierrors.New(clierrors.ExitUsage, err.Error()).
			WithHint(fmt.Sprintf("Run '%s --help' for available flags", cmd.CommandPath()))
	})

	// Primary commands
	rootCmd.AddCommand(newShellCmd())
	rootCmd.AddCommand(newExecCmd())

	// Resource commands (noun-first)
	rootCmd.AddCommand(newAliasCmd())
	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newHistoryCmd())

	// Utility commands
	rootCmd.AddCommand(newDoctorCmd())
	rootCmd.AddCommand(newPathsCmd())
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

func wrapPostRunCleanup(postRun func(*cobra.Command, []string) error, cleanup func() error) func(*cobra.Command, []string) error {
	return wrapNamedPostRunCleanup(postRun, "logger resources", cleanup)
}

func wrapNamedPostRunCleanup(postRun func(*cobra.Command, []string) error, name string, cleanup func() error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		if postRun != nil {
			if err := postRun(cmd, args); err != nil {
				_ = cleanup()
				return err
			}
		}

		if err := cleanup(); err != nil {
			return fmt.Errorf("cleanup %s: %w", name, err)
		}

		return nil
	}
}

func pickBoolFlagOrEnv(flagValue bool, envKey string) bool {
	if flagValue {
		return true
	}

	v := strings.ToLower(strings.TrimSpace(os.Getenv(envKey)))

	return v == "1" || v == "true" || v == "yes"
}

func pickFlagOrEnv(flagValue, envKey, fallback string) string {
	trimmed := strings.TrimSpace(flagValue)
	if trimmed != "" {
		return trimmed
	}

	if envValue := strings.TrimSpace(os.Getenv(envKey)); envValue != "" {
		return envValue
	}

	return fallback
}

// isInteractiveCommand reports whether path owns the terminal for its
// lifetime, in which case logs must stay off stderr.
func isInteractiveCommand(path string) bool {
	return path == "dtt" || path == "dtt shell"
}

// VersionInfo represents version information for JSON output.
type VersionInfo struct {
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Date    string `json:"date"`
}

// noArgs returns a Cobra positional-arg validator that rejects any arguments
// with a clear, user-friendly message (unlike cobra.NoArgs which says "unknown command").
func noArgs(cmd *cobra.Command, args []string) error {
	if len(args) > 0 {
		return clierrors.New(clierrors.ExitUsage, fmt.Sprintf("'%s' accepts no arguments", cmd.CommandPath())).
			WithHint(fmt.Sprintf("Run '%s --help' for usage", cmd.CommandPath()))
	}

	return nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "version",
		Short:   "Show version information",
		Long:    `Display the dtt binary version, git commit, and build date.`,
		Example: `  dtt version`,
		Args:    noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := output.FromContext(cmd.Context())

			if out.JSON {
				return out.PrintJSON(VersionInfo{
					Version: version,
					Commit:  commit,
					Date:    date,
				})
			}

			out.Print("dtt %s\n", version)
			out.Print("  commit: %s\n", commit)
			out.Print("  built:  %s\n", date)

			return nil
		},
	}
}
