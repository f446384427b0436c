package errors

import (
	"errors"
	"fmt"
	"strings"
	"syscall"
	"testing"

	"github.com/musher-dev/dtt/internal/testutil"
)

// constructors lists every error a command can return to the user.
func constructors() []struct {
	name string
	err  *CLIError
} {
	return []struct {
		name string
		err  *CLIError
	}{
		{"CannotPrompt", CannotPrompt("--force")},
		{"TerminalRequired", TerminalRequired()},
		{"ConfigFailed", ConfigFailed("save config", nil)},
		{"UnknownConfigKey", UnknownConfigKey("prompt.width")},
		{"LoggingSetupFailed", LoggingSetupFailed(nil)},
		{"AliasNotFound", AliasNotFound("ll")},
		{"InvalidAliasName", InvalidAliasName("a;b")},
		{"StartDirectoryInvalid", StartDirectoryInvalid("/nope", nil)},
		{"EngineFailed", EngineFailed(nil)},
		{"CommandFailed", CommandFailed(127)},
	}
}

func TestConstructorsAreActionable(t *testing.T) {
	for _, c := range constructors() {
		t.Run(c.name, func(t *testing.T) {
			if c.err.Message == "" || c.err.Hint == "" {
				t.Errorf("message %q / hint %q: both must be set", c.err.Message, c.err.Hint)
			}

			if c.err.Code == ExitSuccess {
				t.Error("a user-facing error must not exit 0")
			}
		})
	}
}

func TestCLIError_Chain(t *testing.T) {
	cause := fmt.Errorf("fork/exec: %w", syscall.EAGAIN)

	err := EngineFailed(cause)

	if got, want := err.Error(), "Failed to create process: fork/exec: resource temporarily unavailable"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}

	if !errors.Is(err, syscall.EAGAIN) {
		t.Error("errors.Is should see through CLIError to the cause")
	}

	if got := New(ExitGeneral, "plain").Error(); got != "plain" {
		t.Errorf("Error() without cause = %q", got)
	}

	wrapped := Wrap(ExitConfig, "load", cause).WithHint("check the file")
	if wrapped.Code != ExitConfig || wrapped.Hint != "check the file" || wrapped.Unwrap() != cause { //nolint:errorlint // identity
		t.Errorf("Wrap().WithHint() = %+v", wrapped)
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "nil", err: nil, want: ExitSuccess},
		{name: "plain", err: fmt.Errorf("boom"), want: ExitGeneral},
		{name: "cli", err: CommandFailed(3), want: ExitExecution},
		{name: "wrapped cli", err: fmt.Errorf("outer: %w", TerminalRequired()), want: ExitUsage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExitCode(tt.err); got != tt.want {
				t.Errorf("ExitCode() = %d, want %d", got, tt.want)
			}
		})
	}
}

// formatCLIError produces a deterministic string representation of a CLIError for golden file comparison.
func formatCLIError(err *CLIError) string {
	return fmt.Sprintf("Message: %s\nHint: %s\nCode: %d\n", err.Message, err.Hint, err.Code)
}

func TestErrorMessages_Golden(t *testing.T) {
	var sb strings.Builder
	for _, c := range constructors() {
		fmt.Fprintf(&sb, "--- %s ---\n", c.name)
		sb.WriteString(formatCLIError(c.err))
		sb.WriteString("\n")
	}

	testutil.AssertGolden(t, sb.String(), "error_messages.golden")
}
