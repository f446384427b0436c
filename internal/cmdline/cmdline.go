// Package cmdline splits a raw input line into execution units.
//
// A line is split on unquoted, unescaped ';' into chains, and every chain
// is split on unquoted, unescaped "&&" into units that run left to right
// until the first failure. Quote characters are kept verbatim in unit text;
// Tokenize performs the final argv split for a single unit.
package cmdline

import (
	"strings"
)

// Unit is one command invocation ready for dispatch.
type Unit struct {
	// Text is the command text with quotes retained and the trailing '&' removed.
	Text string
	// Background is set when the unit ended with an unquoted '&'.
	Background bool
}

// Empty reports whether the unit carries no command.
func (u Unit) Empty() bool {
	return strings.TrimSpace(u.Text) == ""
}

// Tokens returns the argv for the unit.
func (u Unit) Tokens() []string {
	return Tokenize(u.Text)
}

// Chain is an '&&'-joined sequence of units.
type Chain []Unit

// scanner tracks quote and escape state while walking a line.
type scanner struct {
	quote   rune
	escaped bool
}

// step advances the state for r and reports whether r is "live", meaning it
// sits outside any quoted span and is not escaped.
func (s *scanner) step(r rune) bool {
	if s.escaped {
		s.escaped = false
		return false
	}

	if r == '\\' {
		s.escaped = true
		return false
	}

	if s.quote != 0 {
		if r == s.quote {
			s.quote = 0
		}

		return false
	}

	if r == '"' || r == '\'' {
		s.quote = r
		return false
	}

	return true
}

// Split parses a line into chains. Whitespace-only input yields a single
// chain holding one empty unit.
func Split(line string) []Chain {
	var chains []Chain

	for _, part := range splitTopLevel(line) {
		chains = append(chains, SplitChain(part))
	}

	if len(chains) == 0 {
		return []Chain{{Unit{}}}
	}

	return chains
}

// SplitChain splits a single ';'-free fragment on "&&".
func SplitChain(fragment string) Chain {
	var (
		chain Chain
		st    scanner
		start int
	)

	runes := []rune(fragment)
	for i := 0; i < len(runes); i++ {
		if !st.step(runes[i]) {
			continue
		}

		if runes[i] == '&' && i+1 < len(runes) && runes[i+1] == '&' {
			chain = append(chain, newUnit(string(runes[start:i])))
			i++
			start = i + 1
		}
	}

	chain = append(chain, newUnit(string(runes[start:])))

	return chain
}

func splitTopLevel(line string) []string {
	var (
		parts []string
		st    scanner
		cur   strings.Builder
	)

	flush := func() {
		text := strings.TrimSpace(cur.String())
		if text != "" {
			parts = append(parts, text)
		}

		cur.Reset()
	}

	for _, r := range line {
		if st.step(r) && r == ';' {
			flush()
			continue
		}

		cur.WriteRune(r)
	}

	flush()

	return parts
}

func newUnit(text string) Unit {
	text = strings.TrimSpace(text)

	if !strings.HasSuffix(text, "&") {
		return Unit{Text: text}
	}

	// The '&' only counts when it is itself live (not quoted or escaped).
	var st scanner

	live := false
	for _, r := range text {
		live = st.step(r)
	}

	if !live {
		return Unit{Text: text}
	}

	return Unit{
		Text:       strings.TrimSpace(strings.TrimSuffix(text, "&")),
		Background: true,
	}
}

// Balanced reports whether every quote opened in s is closed.
func Balanced(s string) bool {
	var st scanner
	for _, r := range s {
		st.step(r)
	}

	return st.quote == 0
}
