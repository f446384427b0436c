// Package errors provides structured CLI error types for dtt.
//
// CLIError wraps errors with user-facing messages, hints, and exit codes
// to provide consistent, actionable error output across all commands.
package errors

import (
	"errors"
	"fmt"
)

// Exit codes for CLI errors.
const (
	ExitSuccess   = 0  // Successful execution
	ExitGeneral   = 1  // General error
	ExitConfig    = 4  // Configuration error
	ExitExecution = 6  // A command line failed
	ExitUsage     = 64 // Command line usage error (BSD convention)
)

// CLIError represents a user-facing CLI error with actionable guidance.
type CLIError struct {
	// Message is the primary error message shown to the user.
	Message string

	// Hint provides actionable guidance on how to fix the error.
	Hint string

	// Cause is the underlying error, if any.
	Cause error

	// Code is the exit code for the CLI.
	Code int
}

// Error implements the error interface.
func (e *CLIError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}

	return e.Message
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *CLIError) Unwrap() error {
	return e.Cause
}

// New creates a new CLIError with the given message and exit code.
func New(code int, message string) *CLIError {
	return &CLIError{
		Message: message,
		Code:    code,
	}
}

// Wrap wraps an existing error with a CLIError.
func Wrap(code int, message string, cause error) *CLIError {
	return &CLIError{
		Message: message,
		Cause:   cause,
		Code:    code,
	}
}

// WithHint adds a hint to the error.
func (e *CLIError) WithHint(hint string) *CLIError {
	e.Hint = hint
	return e
}

// As is a convenience function for errors.As with CLIError.
func As(err error, target **CLIError) bool {
	return errors.As(err, target)
}

// ExitCode returns the exit code carried by err, ExitGeneral for any other
// error and ExitSuccess for nil.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var cliErr *CLIError
	if As(err, &cliErr) {
		return cliErr.Code
	}

	return ExitGeneral
}

// --- Common error constructors ---

// CannotPrompt returns an error when a confirmation is needed but stdin is
// not a terminal.
func CannotPrompt(flag string) *CLIError {
	return &CLIError{
		Message: "Cannot prompt in non-interactive mode",
		Hint:    fmt.Sprintf("Pass %s to skip the confirmation", flag),
		Code:    ExitUsage,
	}
}

// TerminalRequired returns an error when the interactive shell is started
// without a terminal.
func TerminalRequired() *CLIError {
	return &CLIError{
		Message: "The interactive shell needs a terminal on stdin and stdout",
		Hint:    "Use 'dtt exec <line>' to run commands non-interactively",
		Code:    ExitUsage,
	}
}

// ConfigFailed returns an error for configuration save failures.
func ConfigFailed(operation string, cause error) *CLIError {
	return &CLIError{
		Message: fmt.Sprintf("Failed to %s", operation),
		Hint:    "Check file permissions for your dtt config directory or run 'dtt doctor'",
		Cause:   cause,
		Code:    ExitConfig,
	}
}

// UnknownConfigKey returns an error for a key that has no value.
func UnknownConfigKey(key string) *CLIError {
	return &CLIError{
		Message: fmt.Sprintf("Unknown config key: %s", key),
		Hint:    "Run 'dtt config list' to see available keys",
		Code:    ExitUsage,
	}
}

// LoggingSetupFailed returns an error for invalid logging flags or an
// unwritable log file.
func LoggingSetupFailed(cause error) *CLIError {
	return &CLIError{
		Message: "Failed to set up logging",
		Hint:    "Check --log-level, --log-format, --log-stderr and --log-file",
		Cause:   cause,
		Code:    ExitConfig,
	}
}

// AliasNotFound returns an error for an unknown alias.
func AliasNotFound(name string) *CLIError {
	return &CLIError{
		Message: fmt.Sprintf("Alias not found: %s", name),
		Hint:    "Run 'dtt alias list' to see defined aliases",
		Code:    ExitGeneral,
	}
}

// InvalidAliasName returns an error for a name that cannot be an alias.
func InvalidAliasName(name string) *CLIError {
	return &CLIError{
		Message: fmt.Sprintf("Invalid alias name: %q", name),
		Hint:    "Alias names are a single word without quotes, ';', '&' or '='",
		Code:    ExitUsage,
	}
}

// StartDirectoryInvalid returns an error for an unusable --dir value.
func StartDirectoryInvalid(dir string, cause error) *CLIError {
	return &CLIError{
		Message: fmt.Sprintf("Cannot start in %s", dir),
		Hint:    "Pass an existing directory to --dir",
		Cause:   cause,
		Code:    ExitUsage,
	}
}

// EngineFailed returns an error when the operating system refused to create
// a process.
func EngineFailed(cause error) *CLIError {
	return &CLIError{
		Message: "Failed to create process",
		Hint:    "The system may be out of process slots or memory; run 'dtt doctor'",
		Cause:   cause,
		Code:    ExitExecution,
	}
}

// CommandFailed returns an error for a command line whose last unit did not
// succeed.
func CommandFailed(exitCode int) *CLIError {
	return &CLIError{
		Message: fmt.Sprintf("Command failed with exit status %d", exitCode),
		Hint:    "Run with --log-level=debug for more details",
		Code:    ExitExecution,
	}
}
