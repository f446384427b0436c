package main

import (
	"testing"

	"github.com/musher-dev/dtt/internal/engine"
)

func TestNewExecResult(t *testing.T) {
	res := engine.Result{
		Line: "cd /nope && ls",
		Units: []engine.UnitResult{
			{Command: "cd /nope", Verb: engine.VerbCD, OK: false, ExitCode: 1, Message: "cd: /nope: no such file or directory"},
			{Command: "ls", Verb: engine.VerbExternal, Skipped: true},
		},
	}

	got := newExecResult(res)

	if got.OK {
		t.Fatal("OK = true, want false")
	}

	if got.ExitCode != 1 {
		t.Fatalf("ExitCode = %d, want 1", got.ExitCode)
	}

	if len(got.Units) != 2 {
		t.Fatalf("len(Units) = %d, want 2", len(got.Units))
	}

	if got.Units[0].Verb != "cd" || got.Units[1].Verb != "external" {
		t.Fatalf("verbs = %q, %q", got.Units[0].Verb, got.Units[1].Verb)
	}

	if !got.Units[1].Skipped {
		t.Fatal("second unit should be skipped")
	}
}

func TestFailedExitCode(t *testing.T) {
	tests := []struct {
		name  string
		units []engine.UnitResult
		want  int
	}{
		{
			name:  "all ok",
			units: []engine.UnitResult{{OK: true}},
			want:  0,
		},
		{
			name: "failure followed by success",
			units: []engine.UnitResult{
				{OK: false, ExitCode: 1},
				{OK: true, ExitCode: 0},
			},
			want: 1,
		},
		{
			name: "last failure wins",
			units: []engine.UnitResult{
				{OK: false, ExitCode: 2},
				{OK: false, ExitCode: 127},
			},
			want: 127,
		},
		{
			name: "skipped units are ignored",
			units: []engine.UnitResult{
				{OK: false, ExitCode: 126},
				{Skipped: true},
			},
			want: 126,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := failedExitCode(engine.Result{Units: tt.units}); got != tt.want {
				t.Fatalf("failedExitCode() = %d, want %d", got, tt.want)
			}
		})
	}
}
