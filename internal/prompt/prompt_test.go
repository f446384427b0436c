package prompt

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/musher-dev/dtt/internal/output"
	"github.com/musher-dev/dtt/internal/terminal"
)

func newTestPrompter(input string) (*Prompter, *bytes.Buffer) {
	var buf bytes.Buffer

	out := output.NewWriter(&buf, &buf, &terminal.Info{NoColor: true})

	return NewWithReader(out, strings.NewReader(input)), &buf
}

func TestIsCanceled(t *testing.T) {
	if !IsCanceled(errCanceled) {
		t.Fatal("IsCanceled(errCanceled) = false, want true")
	}

	if !IsCanceled(errors.Join(errors.New("other"), errCanceled)) {
		t.Fatal("IsCanceled(wrapped errCanceled) = false, want true")
	}

	if IsCanceled(errors.New("not canceled")) {
		t.Fatal("IsCanceled(unrelated error) = true, want false")
	}
}

func TestConfirm(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		defaultVal bool
		want       bool
		wantPrompt string
	}{
		{name: "yes", input: "y\n", want: true, wantPrompt: "Clear? [y/N]: "},
		{name: "full yes mixed case", input: "  YeS \n", want: true, wantPrompt: "Clear? [y/N]: "},
		{name: "no", input: "n\n", defaultVal: true, want: false, wantPrompt: "Clear? [Y/n]: "},
		{name: "empty takes default", input: "\n", defaultVal: true, want: true, wantPrompt: "Clear? [Y/n]: "},
		{name: "answer without newline", input: "yes", want: true, wantPrompt: "Clear? [y/N]: "},
		{name: "asks again until understood", input: "sure\nno\n", defaultVal: true, want: false, wantPrompt: "Clear? [Y/n]: ⚠ Please answer y or n\nClear? [Y/n]: "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, buf := newTestPrompter(tt.input)

			got, err := p.Confirm("Clear?", tt.defaultVal)
			if err != nil {
				t.Fatalf("Confirm() error = %v", err)
			}

			if got != tt.want {
				t.Errorf("Confirm() = %v, want %v", got, tt.want)
			}

			if buf.String() != tt.wantPrompt {
				t.Errorf("prompt = %q, want %q", buf.String(), tt.wantPrompt)
			}
		})
	}
}

func TestConfirmCanceledOnEOF(t *testing.T) {
	p, _ := newTestPrompter("")

	got, err := p.Confirm("Clear?", true)
	if !IsCanceled(err) {
		t.Fatalf("Confirm() error = %v, want canceled", err)
	}

	if !got {
		t.Error("Confirm() on cancel should return the default")
	}
}

func TestConfirmCanceledAfterBadAnswer(t *testing.T) {
	p, _ := newTestPrompter("maybe\n")

	if _, err := p.Confirm("Clear?", false); !IsCanceled(err) {
		t.Fatalf("Confirm() error = %v, want canceled", err)
	}
}

func TestCanPrompt(t *testing.T) {
	var buf bytes.Buffer

	out := output.NewWriter(&buf, &buf, &terminal.Info{IsTTY: true, StdinIsTTY: true})
	p := NewWithReader(out, strings.NewReader(""))

	if !p.CanPrompt() {
		t.Error("CanPrompt() = false on a terminal")
	}

	out.NoInput = true
	if p.CanPrompt() {
		t.Error("CanPrompt() = true with NoInput")
	}
}
