package main

import (
	"bytes"
	"testing"

	"github.com/musher-dev/dtt/internal/doctor"
	"github.com/musher-dev/dtt/internal/output"
	"github.com/musher-dev/dtt/internal/terminal"
	"github.com/musher-dev/dtt/internal/testutil"
)

func renderDoctorOutput(results []doctor.Result) string {
	var buf bytes.Buffer

	term := &terminal.Info{IsTTY: false, NoColor: true, Width: 80, Height: 24}
	renderDoctor(output.NewWriter(&buf, &buf, term), results)

	return buf.String()
}

func TestDoctorOutput_AllPass_Golden(t *testing.T) {
	results := []doctor.Result{
		{Name: "Terminal", Status: doctor.StatusPass, Message: "120x40, job control available"},
		{Name: "Git", Status: doctor.StatusPass, Message: "git version 2.43.0 at /usr/bin/git"},
		{Name: "PATH", Status: doctor.StatusPass, Message: "7 entries"},
		{Name: "Config File", Status: doctor.StatusPass, Message: "/home/u/.config/dtt/config.yaml (not created, using defaults)"},
		{Name: "Log Directory", Status: doctor.StatusPass, Message: "/home/u/.local/state/dtt/logs"},
	}

	testutil.AssertGolden(t, renderDoctorOutput(results), "doctor_all_pass.golden")
}

func TestDoctorOutput_Mixed_Golden(t *testing.T) {
	results := []doctor.Result{
		{Name: "Terminal", Status: doctor.StatusWarn, Message: "stdin is not a terminal", Detail: "Job control is off: foreground commands cannot be given the terminal"},
		{Name: "Git", Status: doctor.StatusWarn, Message: "Not found in PATH", Detail: "The prompt shows branches but no clean/dirty status without git"},
		{Name: "PATH", Status: doctor.StatusFail, Message: "PATH is empty", Detail: "Only commands given with a '/' can be run"},
		{Name: "Config File", Status: doctor.StatusPass, Message: "/home/u/.config/dtt/config.yaml"},
		{Name: "Log Directory", Status: doctor.StatusPass, Message: "/home/u/.local/state/dtt/logs"},
	}

	testutil.AssertGolden(t, renderDoctorOutput(results), "doctor_mixed.golden")
}

func TestStopDoctorSpinner(t *testing.T) {
	tests := []struct {
		name     string
		statuses []doctor.Status
		want     string
	}{
		{name: "all pass", statuses: []doctor.Status{doctor.StatusPass, doctor.StatusPass}, want: "Running checks... done\n"},
		{name: "warning", statuses: []doctor.Status{doctor.StatusPass, doctor.StatusWarn}, want: "Running checks... warning\n"},
		{name: "failure wins", statuses: []doctor.Status{doctor.StatusWarn, doctor.StatusFail}, want: "Running checks... failed\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer

			out := output.NewWriter(&buf, &buf, &terminal.Info{NoColor: true, Width: 80, Height: 24})

			results := make([]doctor.Result, 0, len(tt.statuses))
			for _, s := range tt.statuses {
				results = append(results, doctor.Result{Status: s})
			}

			spin := out.Spinner("Running checks")
			spin.Start()
			spin.UpdateMessage("Checking Git")
			stopDoctorSpinner(spin, results)

			if got := buf.String(); got != tt.want {
				t.Errorf("output = %q, want %q", got, tt.want)
			}
		})
	}
}
