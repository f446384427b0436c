// Package output provides CLI output handling for dtt commands.
//
// Writers wrap stdout/stderr so commands can be tested through io.Writer
// injection, print JSON for scripting, stay silent in quiet mode, color
// status lines on a terminal and animate spinners for slow checks.
package output

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"github.com/musher-dev/dtt/internal/terminal"
)

// contextKey is the key for storing Writer in context.
type contextKey struct{}

// Writer handles CLI output with multiple modes.
type Writer struct {
	Out      io.Writer
	Err      io.Writer
	JSON     bool
	Quiet    bool
	Verbose  bool
	NoInput  bool
	terminal *terminal.Info

	successColor *color.Color
	errorColor   *color.Color
	warningColor *color.Color
	infoColor    *color.Color
	mutedColor   *color.Color
	keyColor     *color.Color
}

// Default returns a Writer configured for stdout/stderr.
func Default() *Writer {
	return NewWriter(os.Stdout, os.Stderr, terminal.Detect())
}

// NewWriter creates a Writer with custom writers and terminal info.
func NewWriter(out, err io.Writer, term *terminal.Info) *Writer {
	w := &Writer{
		Out:          out,
		Err:          err,
		terminal:     term,
		successColor: color.New(color.FgGreen),
		errorColor:   color.New(color.FgRed),
		warningColor: color.New(color.FgYellow),
		infoColor:    color.New(color.FgCyan),
		mutedColor:   color.New(color.FgHiBlack),
		keyColor:     color.New(color.Bold),
	}

	if !term.ColorEnabled() {
		color.NoColor = true
	}

	return w
}

// WithContext stores the Writer in the context.
func (w *Writer) WithContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, contextKey{}, w)
}

// FromContext retrieves the Writer from context, or returns Default().
func FromContext(ctx context.Context) *Writer {
	if w, ok := ctx.Value(contextKey{}).(*Writer); ok {
		return w
	}

	return Default()
}

// Terminal returns the terminal info.
func (w *Writer) Terminal() *terminal.Info {
	return w.terminal
}

// SetNoColor disables colored output.
func (w *Writer) SetNoColor(disabled bool) {
	w.terminal.ForceFlag = disabled
	if disabled {
		color.NoColor = true
	}
}

// Print writes to stdout (respects quiet mode).
func (w *Writer) Print(format string, args ...any) {
	if !w.Quiet {
		fmt.Fprintf(w.Out, format, args...)
	}
}

// Println writes a line to stdout (respects quiet mode).
func (w *Writer) Println(args ...any) {
	if !w.Quiet {
		fmt.Fprintln(w.Out, args...)
	}
}

// PrintJSON outputs structured data as indented JSON. Command lines keep
// their '&', '<' and '>' characters unescaped.
func (w *Writer) PrintJSON(v any) error {
	enc := json.NewEncoder(w.Out)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)

	return enc.Encode(v)
}

// Write implements io.Writer, writing to Out.
func (w *Writer) Write(p []byte) (n int, err error) {
	if w.Quiet {
		return len(p), nil
	}

	return w.Out.Write(p)
}

// Debug writes to stdout only in verbose mode.
func (w *Writer) Debug(format string, args ...any) {
	if w.Verbose {
		w.mutedColor.Fprintf(w.Out, "[debug] "+format+"\n", args...)
	}
}

func (w *Writer) writeStatus(writer io.Writer, tone *color.Color, prefix, message string) {
	if w.terminal.ColorEnabled() {
		tone.Fprint(writer, prefix+" ")
		fmt.Fprintln(writer, message)

		return
	}

	fmt.Fprintln(writer, prefix+" "+message)
}

// Success writes a success message with a checkmark.
func (w *Writer) Success(format string, args ...any) {
	if w.Quiet {
		return
	}

	w.writeStatus(w.Out, w.successColor, CheckMark, fmt.Sprintf(format, args...))
}

// Failure writes an error message with an X mark.
func (w *Writer) Failure(format string, args ...any) {
	w.writeStatus(w.Err, w.errorColor, XMark, fmt.Sprintf(format, args...))
}

// Warning writes a warning message.
func (w *Writer) Warning(format string, args ...any) {
	if w.Quiet {
		return
	}

	w.writeStatus(w.Out, w.warningColor, WarningMark, fmt.Sprintf(format, args...))
}

// Info writes an info message.
func (w *Writer) Info(format string, args ...any) {
	if w.Quiet {
		return
	}

	w.writeStatus(w.Out, w.infoColor, InfoMark, fmt.Sprintf(format, args...))
}

// Muted writes muted/gray text.
func (w *Writer) Muted(format string, args ...any) {
	if w.Quiet {
		return
	}

	msg := fmt.Sprintf(format, args...)
	if w.terminal.ColorEnabled() {
		w.mutedColor.Fprintln(w.Out, msg)
		return
	}

	fmt.Fprintln(w.Out, msg)
}

// Pair is one row of a KeyValues listing.
type Pair struct {
	Key   string
	Value string
}

// KeyValues prints pairs with the values aligned in one column. Keys are
// padded by display width so wide characters line up.
func (w *Writer) KeyValues(pairs []Pair) {
	if w.Quiet || len(pairs) == 0 {
		return
	}

	width := 0
	for _, p := range pairs {
		width = max(width, runewidth.StringWidth(p.Key))
	}

	for _, p := range pairs {
		key := runewidth.FillRight(p.Key, width)
		if w.terminal.ColorEnabled() {
			key = w.keyColor.Sprint(key)
		}

		fmt.Fprintln(w.Out, strings.TrimRight(key+"  "+p.Value, " "))
	}
}

// Status symbols
const (
	CheckMark   = "✓" // ✓
	XMark       = "✗" // ✗
	WarningMark = "⚠" // ⚠
	InfoMark    = "ℹ" // ℹ
)

// Spinner creates a new spinner for long operations. The spinner falls back
// to plain text on a non-terminal or in quiet mode.
func (w *Writer) Spinner(message string) *Spinner {
	if w.Quiet || !w.terminal.SpinnersEnabled() {
		return &Spinner{disabled: true, message: message, writer: w}
	}

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	s.Writer = w.Out
	s.Suffix = " " + message

	return &Spinner{
		spinner: s,
		message: message,
		writer:  w,
	}
}

// Spinner wraps briandowns/spinner with graceful fallback.
type Spinner struct {
	spinner  *spinner.Spinner
	message  string
	writer   *Writer
	disabled bool
}

// Start begins the spinner animation.
func (s *Spinner) Start() {
	if s.disabled {
		s.writer.Print("%s... ", s.message)
		return
	}

	s.spinner.Start()
}

// Stop stops the spinner animation.
func (s *Spinner) Stop() {
	if s.disabled {
		return
	}

	s.spinner.Stop()
}

func (s *Spinner) stopWith(word, message string, report func(string, ...any)) {
	if s.disabled {
		s.writer.Println(word)
	} else {
		s.spinner.Stop()
	}

	if message != "" {
		report("%s", message)
	}
}

// StopWithSuccess stops spinner and shows success message.
func (s *Spinner) StopWithSuccess(message string) {
	s.stopWith("done", message, s.writer.Success)
}

// StopWithFailure stops spinner and shows failure message.
func (s *Spinner) StopWithFailure(message string) {
	s.stopWith("failed", message, s.writer.Failure)
}

// StopWithWarning stops spinner and shows warning message.
func (s *Spinner) StopWithWarning(message string) {
	s.stopWith("warning", message, s.writer.Warning)
}

// UpdateMessage changes the spinner message.
func (s *Spinner) UpdateMessage(message string) {
	s.message = message
	if !s.disabled {
		s.spinner.Suffix = " " + message
	}
}
