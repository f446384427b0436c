// Package testutil holds helpers shared by dtt's package tests: golden-file
// comparison and capture files for child-process output.
package testutil

import (
	"errors"
	"flag"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// Run `go test ./... -update` to rewrite golden files from current output.
var update = flag.Bool("update", false, "update golden files")

const goldenDir = "testdata"

// AssertGolden compares got with testdata/<name>, or rewrites that file when
// -update is set.
func AssertGolden(t *testing.T, got, name string) {
	t.Helper()

	path := filepath.Join(goldenDir, name)

	if *update {
		writeGolden(t, path, got)
		return
	}

	want, err := os.ReadFile(path)

	switch {
	case errors.Is(err, fs.ErrNotExist):
		t.Fatalf("missing golden file %s (run with -update to create it)", path)
	case err != nil:
		t.Fatalf("read golden file %s: %v", path, err)
	}

	if got != string(want) {
		t.Errorf("%s differs (run with -update to accept)\n--- got ---\n%s\n--- want ---\n%s", path, got, want)
	}
}

func writeGolden(t *testing.T, path, content string) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("create %s: %v", filepath.Dir(path), err)
	}

	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write golden file %s: %v", path, err)
	}

	t.Logf("updated %s", path)
}

// EscapeANSI makes escape sequences readable in golden files by writing
// the ESC byte as `\e`.
func EscapeANSI(s string) string {
	return strings.ReplaceAll(s, "\x1b", `\e`)
}

// CaptureFile returns a temp file for child-process output and a function
// that reads back everything written to it.
func CaptureFile(t *testing.T) (*os.File, func() string) {
	t.Helper()

	f, err := os.CreateTemp(t.TempDir(), "capture-*")
	if err != nil {
		t.Fatalf("create capture file: %v", err)
	}

	t.Cleanup(func() { _ = f.Close() })

	return f, func() string {
		t.Helper()

		data, err := os.ReadFile(f.Name())
		if err != nil {
			t.Fatalf("read capture file: %v", err)
		}

		return string(data)
	}
}
