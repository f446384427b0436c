package resolver

import (
	"fmt"
	"strings"

	"mvdan.cc/sh/v3/shell"
)

// Expand substitutes $NAME and ${NAME} references outside single-quoted
// spans. A quote of the other kind inside a quoted span is literal, so the
// apostrophe in "it's" opens nothing. Quote characters are preserved for
// the tokenizer. lookup is consulted first; unknown names fall back to the
// process environment.
func Expand(text string, lookup func(string) (string, bool)) (string, error) {
	if !strings.Contains(text, "$") {
		return text, nil
	}

	env := func(name string) string {
		if lookup != nil {
			if v, ok := lookup(name); ok {
				return v
			}
		}

		return osGetenv(name)
	}

	var (
		out      strings.Builder
		seg      strings.Builder
		inQuote  bool
		inDouble bool
		escaped  bool
	)

	flush := func() error {
		if seg.Len() == 0 {
			return nil
		}

		s := seg.String()
		seg.Reset()

		if !strings.Contains(s, "$") {
			out.WriteString(s)
			return nil
		}

		expanded, err := shell.Expand(s, env)
		if err != nil {
			return fmt.Errorf("expand %q: %w", s, err)
		}

		out.WriteString(expanded)

		return nil
	}

	for _, r := range text {
		switch {
		case inQuote:
			out.WriteRune(r)

			if r == '\'' && !escaped {
				inQuote = false
			}

			escaped = !escaped && r == '\\'
		case escaped:
			seg.WriteRune(r)

			escaped = false
		case r == '\\':
			seg.WriteRune(r)

			escaped = true
		case r == '"':
			seg.WriteRune(r)

			inDouble = !inDouble
		case r == '\'' && !inDouble:
			if err := flush(); err != nil {
				return "", err
			}

			out.WriteRune(r)

			inQuote = true
		default:
			seg.WriteRune(r)
		}
	}

	if err := flush(); err != nil {
		return "", err
	}

	return out.String(), nil
}
