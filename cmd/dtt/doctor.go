package main

import (
	"github.com/spf13/cobra"

	"github.com/musher-dev/dtt/internal/doctor"
	"github.com/musher-dev/dtt/internal/output"
)

// DoctorReport is the JSON form of a doctor run.
type DoctorReport struct {
	Checks   []DoctorCheck `json:"checks"`
	Passed   int           `json:"passed"`
	Failed   int           `json:"failed"`
	Warnings int           `json:"warnings"`
}

// DoctorCheck is one check in a DoctorReport.
type DoctorCheck struct {
	doctor.Result
	Status string `json:"status"`
}

func renderDoctor(out *output.Writer, results []doctor.Result) {
	out.Println("dtt doctor")
	out.Println("==========")
	out.Println()

	doctor.RenderResults(results, out.Print, out.Success, out.Warning, out.Failure, out.Muted)

	passed, failed, warnings := doctor.Summary(results)

	out.Println()
	out.Print("%d passed", passed)

	if failed > 0 {
		out.Print(", %d failed", failed)
	}

	if warnings > 0 {
		out.Print(", %d warning(s)", warnings)
	}

	out.Println()
}

// stopDoctorSpinner ends the spinner with the worst outcome of the run.
func stopDoctorSpinner(spin *output.Spinner, results []doctor.Result) {
	_, failed, warnings := doctor.Summary(results)

	switch {
	case failed > 0:
		spin.StopWithFailure("")
	case warnings > 0:
		spin.StopWithWarning("")
	default:
		spin.StopWithSuccess("")
	}
}

func newDoctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Diagnose common issues",
		Long: `Run diagnostic checks for everything the shell depends on: a terminal with
job control, git for the prompt status, PATH for command lookup, a
readable config file and a writable log directory.`,
		Example: `  dtt doctor
  dtt doctor --json`,
		Args: noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := output.FromContext(cmd.Context())

			if out.JSON {
				results := doctor.New().Run(cmd.Context())
				passed, failed, warnings := doctor.Summary(results)
				report := DoctorReport{Passed: passed, Failed: failed, Warnings: warnings}

				for _, r := range results {
					report.Checks = append(report.Checks, DoctorCheck{Result: r, Status: r.Status.String()})
				}

				return out.PrintJSON(report)
			}

			spin := out.Spinner("Running checks")
			spin.Start()

			runner := doctor.New()
			runner.OnCheck = func(name string) { spin.UpdateMessage("Checking " + name) }

			results := runner.Run(cmd.Context())

			stopDoctorSpinner(spin, results)
			renderDoctor(out, results)

			return nil
		},
	}
}
