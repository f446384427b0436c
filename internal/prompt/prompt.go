// Package prompt asks the user to confirm destructive commands.
package prompt

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/musher-dev/dtt/internal/output"
)

var errCanceled = errors.New("prompt canceled")

// IsCanceled reports whether err came from the user closing input.
func IsCanceled(err error) bool {
	return errors.Is(err, errCanceled)
}

var answers = map[string]bool{
	"y":   true,
	"yes": true,
	"n":   false,
	"no":  false,
}

// Prompter reads answers from a line-oriented reader.
type Prompter struct {
	out    *output.Writer
	reader *bufio.Reader
}

// New creates a Prompter reading from stdin.
func New(out *output.Writer) *Prompter {
	return NewWithReader(out, os.Stdin)
}

// NewWithReader creates a Prompter reading answers from r.
func NewWithReader(out *output.Writer, r io.Reader) *Prompter {
	return &Prompter{out: out, reader: bufio.NewReader(r)}
}

// CanPrompt reports whether a question can be asked at all.
func (p *Prompter) CanPrompt() bool {
	return p.out.Terminal().InteractiveEnabled() && !p.out.NoInput
}

// Confirm asks a yes/no question until it gets a recognizable answer. An
// empty answer picks def. Closed input returns def and a canceled error.
func (p *Prompter) Confirm(question string, def bool) (bool, error) {
	choices := "y/N"
	if def {
		choices = "Y/n"
	}

	for {
		p.out.Print("%s [%s]: ", question, choices)

		line, err := p.readLine()
		if err != nil {
			return def, err
		}

		if line == "" {
			return def, nil
		}

		if yes, ok := answers[strings.ToLower(line)]; ok {
			return yes, nil
		}

		p.out.Warning("Please answer y or n")
	}
}

func (p *Prompter) readLine() (string, error) {
	line, err := p.reader.ReadString('\n')

	switch {
	case errors.Is(err, io.EOF) && line == "":
		p.out.Println()
		return "", errCanceled
	case err != nil && !errors.Is(err, io.EOF):
		return "", fmt.Errorf("read answer: %w", err)
	}

	return strings.TrimSpace(line), nil
}
