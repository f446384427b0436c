// Package resolver rewrites a unit's leading token against the alias table,
// expands environment references and tracks the engine's working directory.
package resolver

import (
	"strings"

	"github.com/musher-dev/dtt/internal/cmdline"
)

// Rewrite applies a single alias pass to a unit's text. For cd units the
// alias replaces the destination argument only; otherwise a matching head
// word is replaced by the alias text followed by the original arguments.
// The result is never re-expanded.
func Rewrite(text string, aliases map[string]string) (string, bool) {
	if len(aliases) == 0 {
		return text, false
	}

	head, rest := cmdline.Head(text)
	if head == "" {
		return text, false
	}

	if head == "cd" {
		arg, tail := cmdline.Head(rest)
		replacement, ok := aliases[arg]

		if arg == "" || !ok {
			return text, false
		}

		return join("cd", replacement, tail), true
	}

	replacement, ok := aliases[head]
	if !ok {
		return text, false
	}

	return join(replacement, rest), true
}

func join(parts ...string) string {
	kept := parts[:0:0]

	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}

	return strings.Join(kept, " ")
}
