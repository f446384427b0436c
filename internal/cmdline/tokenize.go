package cmdline

import "strings"

// Tokenize splits a single unit into argv. Single and double quotes group
// words and are removed; a backslash escapes the active quote character inside
// a quoted span, and a quote, blank, ';', '&' or backslash outside one.
func Tokenize(s string) []string {
	var (
		out      []string
		cur      strings.Builder
		quote    rune
		inToken  bool
		runes    = []rune(s)
		escapeOK = func(r rune) bool {
			switch r {
			case '"', '\'', ' ', '\t', ';', '&', '\\':
				return true
			}

			return false
		}
	)

	flush := func() {
		if inToken {
			out = append(out, cur.String())
		}

		cur.Reset()

		inToken = false
	}

	for i := 0; i < len(runes); i++ {
		r := runes[i]

		if r == '\\' && i+1 < len(runes) {
			next := runes[i+1]
			if (quote != 0 && next == quote) || (quote == 0 && escapeOK(next)) {
				cur.WriteRune(next)

				inToken = true
				i++

				continue
			}
		}

		switch {
		case quote != 0:
			if r == quote {
				quote = 0
				continue
			}

			cur.WriteRune(r)
		case r == '"' || r == '\'':
			quote = r
			inToken = true
		case r == ' ' || r == '\t' || r == '\n':
			flush()
		default:
			cur.WriteRune(r)

			inToken = true
		}
	}

	flush()

	return out
}

// Head returns the first word of s and the untouched remainder, split on the
// first run of blanks. It does not interpret quotes.
func Head(s string) (head, rest string) {
	s = strings.TrimLeft(s, " \t")

	idx := strings.IndexAny(s, " \t")
	if idx < 0 {
		return s, ""
	}

	return s[:idx], strings.TrimLeft(s[idx:], " \t")
}
