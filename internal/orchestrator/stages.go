package orchestrator

import (
	"fmt"
	"strings"

	"github.com/lucasnoah/lintpipe/internal/pipeline"
)

// Stage names.
const (
	StageImports   = "isort"
	StageUnused    = "autoflake"
	StageNormalize = "normalize"
	StageFixer     = "autopep8"
	StageStyle     = "flake8"
)

// ExcludedDirs are never inspected by the style checker.
var ExcludedDirs = []string{".venv", "venv", "__pycache__", ".git", "build", "dist", "*.egg-info", "node_modules"}

// Stages is the fixed, ordered pipeline.
var Stages = []pipeline.Stage{
	{
		Name:   StageImports,
		Kind:   pipeline.KindExternal,
		Role:   pipeline.RoleCheckGate,
		Parser: "isort",
		Plan:   planImports,
	},
	{
		Name:        StageUnused,
		Kind:        pipeline.KindExternal,
		AutofixOnly: true,
		Role:        pipeline.RoleAdvisory,
		Plan:        planUnused,
	},
	{
		Name:        StageNormalize,
		Kind:        pipeline.KindRewrite,
		AutofixOnly: true,
		Role:        pipeline.RoleAdvisory,
		Plan:        planNormalize,
	},
	{
		Name:        StageFixer,
		Kind:        pipeline.KindExternal,
		AutofixOnly: true,
		Role:        pipeline.RoleAdvisory,
		Plan:        planFixer,
	},
	{
		Name:   StageStyle,
		Kind:   pipeline.KindExternal,
		Role:   pipeline.RoleMandatory,
		Parser: "flake8",
		Plan:   planStyle,
	},
}

func planImports(ec *pipeline.ExecutionContext) pipeline.Invocation {
	const base = "isort --profile black ."
	if ec.Autofix() {
		return pipeline.Invocation{
			Command: base,
			Notes:   []string{"Running isort with auto-fix..."},
		}
	}
	return pipeline.Invocation{
		Command:   base + " --check",
		Notes:     []string{"Checking imports with isort..."},
		OnFailure: []string{"isort found issues. Run with --autofix to fix automatically."},
	}
}

func planUnused(ec *pipeline.ExecutionContext) pipeline.Invocation {
	if !ec.Capabilities.Has(StageUnused) {
		return pipeline.Invocation{
			Skip: true,
			Notes: []string{
				"autoflake not found. To automatically remove unused imports, install:",
				"  pip install autoflake",
			},
		}
	}
	return pipeline.Invocation{
		Command: fmt.Sprintf("autoflake --remove-all-unused-imports --recursive --in-place %s/ tests/", ec.Package),
		Notes:   []string{"Running autoflake to remove unused imports..."},
	}
}

func planNormalize(ec *pipeline.ExecutionContext) pipeline.Invocation {
	return pipeline.Invocation{Roots: ec.Roots()}
}

// planFixer chooses between the mutating fixer and the read-only checker.
// The choice is made from capabilities resolved by the probe.
func planFixer(ec *pipeline.ExecutionContext) pipeline.Invocation {
	inv := pipeline.Invocation{Notes: []string{"Running autopep8 with auto-fix..."}}
	if ec.Capabilities.AtOrAboveThreshold {
		inv.Notes = append(inv.Notes, "Detected Python 3.12+. Using compatible code formatting approach...")
		if ec.Capabilities.FixerBroken {
			inv.Fallback = true
			inv.Command = fmt.Sprintf("pycodestyle %s/ tests/", ec.Package)
			inv.Notes = append(inv.Notes,
				"WARNING: autopep8 cannot run on this Python because lib2to3 is missing.",
				"Using pycodestyle for checking only (no auto-fix is possible)",
			)
			return inv
		}
	}
	inv.Command = fmt.Sprintf("autopep8 --recursive --aggressive --aggressive --in-place --select E,W %s/ tests/ setup.py", ec.Package)
	inv.OnFailure = []string{"Warning: autopep8 encountered issues. Some files may not have been fixed."}
	return inv
}

func planStyle(ec *pipeline.ExecutionContext) pipeline.Invocation {
	return pipeline.Invocation{
		Command: fmt.Sprintf("flake8 --exclude=%s %s/ tests/", strings.Join(ExcludedDirs, ","), ec.Package),
		Notes:   []string{"Running flake8..."},
		OnFailure: []string{
			"flake8 found issues that need to be fixed manually.",
			"Common issues and how to fix them:",
			"- F401 (unused import): Remove the import or use it",
			"- D1XX (missing docstring): Add a docstring to the module/class/function",
			"- E501 (line too long): Break the line or use line continuation",
			"- F841 (unused variable): Remove or use the variable",
		},
	}
}
