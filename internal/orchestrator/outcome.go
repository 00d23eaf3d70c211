package orchestrator

import (
	"github.com/lucasnoah/lintpipe/internal/pipeline"
)

// Final messages.
const (
	MsgPassed          = "All linting checks passed!"
	MsgIssuesFound     = "Linting issues found. Run with --autofix to fix automatically where possible."
	MsgAutofixComplete = "Auto-fix completed! Run flake8 again to see if there are any remaining issues."
)

// Reduce folds stage results into the run outcome.
//
// Success tracks the mandatory stage alone. In autofix mode the exit code is
// always 0; in check mode any failed check-gate or mandatory stage makes it 1.
func Reduce(mode pipeline.Mode, results []pipeline.StageResult) *pipeline.Outcome {
	o := &pipeline.Outcome{
		Mode:    mode,
		Results: results,
	}

	gateFailed := false
	for _, r := range results {
		if r.Skipped {
			continue
		}
		switch r.Role {
		case pipeline.RoleMandatory.String():
			o.Success = r.Passed()
			if !r.Passed() {
				gateFailed = true
			}
		case pipeline.RoleCheckGate.String():
			if !r.Passed() {
				gateFailed = true
			}
		}
	}

	switch {
	case mode == pipeline.ModeAutofix:
		o.ExitCode = 0
		o.Summary = []string{MsgAutofixComplete}
	case gateFailed || !o.Success:
		o.ExitCode = 1
		o.Summary = []string{MsgIssuesFound}
	default:
		o.ExitCode = 0
		o.Summary = []string{MsgPassed}
	}
	return o
}
