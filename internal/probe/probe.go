// Package probe decides, before any stage runs, whether the Python tooling the
// pipeline drives is installed and which version-specific constraints apply.
package probe

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/rs/zerolog"

	"github.com/lucasnoah/lintpipe/internal/checks"
	"github.com/lucasnoah/lintpipe/internal/pipeline"
)

// Threshold is the first runtime without lib2to3 in the standard distribution.
var Threshold = semver.MustParse("3.12.0")

// Tool identifiers.
const (
	Flake8      = "flake8"
	Isort       = "isort"
	Autopep8    = "autopep8"
	Pyflakes    = "pyflakes"
	Pycodestyle = "pycodestyle"
	Autoflake   = "autoflake"
)

// FixerMissingDependency is the marker an autopep8 import error carries when
// it was built against lib2to3.
const FixerMissingDependency = "lib2to3"

var (
	baseRequired = []string{Flake8, Isort, Autopep8, Pyflakes}
	optional     = []string{Autoflake}
)

// script is run by the interpreter. It must not contain single quotes.
const script = `import importlib.util, json, sys
out = {
    "version": "%d.%d.%d" % tuple(sys.version_info[:3]),
    "venv": hasattr(sys, "real_prefix") or sys.base_prefix != sys.prefix,
    "missing": [m for m in sys.argv[1:] if importlib.util.find_spec(m) is None],
    "fixer_version": "",
    "fixer_error": "",
}
if importlib.util.find_spec("autopep8") is not None:
    try:
        import autopep8
        out["fixer_version"] = str(getattr(autopep8, "__version__", ""))
    except ImportError as e:
        out["fixer_error"] = str(e)
print(json.dumps(out))
`

// report is what the probe script prints.
type report struct {
	Version      string   `json:"version"`
	Venv         bool     `json:"venv"`
	Missing      []string `json:"missing"`
	FixerVersion string   `json:"fixer_version"`
	FixerError   string   `json:"fixer_error"`
}

// Verdict is the probe's answer: whether the pipeline may run, and what it found.
type Verdict struct {
	Ready        bool
	Missing      []string
	Warnings     []string
	Runtime      *semver.Version
	Capabilities pipeline.Capabilities
	InVirtualEnv bool
	FixerVersion string
}

// Prober runs the capability check through a CommandRunner.
type Prober struct {
	runner checks.CommandRunner
	python string
	log    zerolog.Logger
}

// New creates a Prober that asks the given interpreter about its modules.
// python is shell text, so "uv run python" works as well as a plain path.
func New(runner checks.CommandRunner, python string, log zerolog.Logger) *Prober {
	return &Prober{runner: runner, python: python, log: log}
}

// Probe inspects the environment from dir.
func (p *Prober) Probe(ctx context.Context, dir string) Verdict {
	candidates := append(append(append([]string{}, baseRequired...), Pycodestyle), optional...)
	command := fmt.Sprintf("%s -c '%s' %s", p.python, script, strings.Join(candidates, " "))

	stdout, stderr, code := p.runner.Capture(ctx, dir, command)
	if code != 0 {
		p.log.Warn().Int("exit_code", code).Str("stderr", strings.TrimSpace(stderr)).Msg("interpreter probe failed")
		return Verdict{Missing: []string{p.python}}
	}

	var rep report
	if err := json.Unmarshal([]byte(lastLine(stdout)), &rep); err != nil {
		p.log.Warn().Err(err).Str("stdout", stdout).Msg("unreadable probe output")
		return Verdict{Missing: []string{p.python}}
	}
	runtime, err := semver.NewVersion(rep.Version)
	if err != nil {
		p.log.Warn().Err(err).Str("version", rep.Version).Msg("unparseable runtime version")
		return Verdict{Missing: []string{p.python}}
	}

	return Evaluate(runtime, rep.Missing, rep.Venv, rep.FixerVersion, rep.FixerError)
}

// Evaluate applies the requirement rules to the raw facts a probe collected.
func Evaluate(runtime *semver.Version, unavailable []string, venv bool, fixerVersion, fixerError string) Verdict {
	gone := make(map[string]bool, len(unavailable))
	for _, m := range unavailable {
		gone[m] = true
	}

	modern := !runtime.LessThan(Threshold)
	required := append([]string{}, baseRequired...)
	if modern {
		required = append(required, Pycodestyle)
	}

	v := Verdict{
		Runtime:      runtime,
		InVirtualEnv: venv,
		FixerVersion: fixerVersion,
		Capabilities: pipeline.Capabilities{
			AtOrAboveThreshold: modern,
			Optional:           make(map[string]bool, len(optional)),
		},
	}
	for _, m := range required {
		if gone[m] {
			v.Missing = append(v.Missing, m)
		}
	}
	for _, m := range optional {
		v.Capabilities.Optional[m] = !gone[m]
	}

	if modern && !gone[Autopep8] && strings.Contains(fixerError, FixerMissingDependency) {
		v.Capabilities.FixerBroken = true
		v.Warnings = append(v.Warnings,
			fmt.Sprintf("You're using Python %s where lib2to3 is no longer included.", runtime),
			"Your installed version of autopep8 may not work correctly.",
			"Consider using a version of autopep8 compatible with Python 3.12+",
			"or run lintpipe with Python 3.11 or earlier.",
		)
	}

	v.Ready = len(v.Missing) == 0
	return v
}

// Remediation renders the missing-dependency report with setup hints.
func (v Verdict) Remediation() []string {
	lines := []string{"ERROR: Missing required dependencies:"}
	for _, m := range v.Missing {
		lines = append(lines, "  - "+m)
	}
	if !v.InVirtualEnv {
		return append(lines,
			"",
			"You are using the system Python environment.",
			"It's recommended to use a virtual environment:",
			"",
			"1. Create a virtual environment:",
			"   python3 -m venv .venv",
			"",
			"2. Activate the virtual environment:",
			"   source .venv/bin/activate  # On Linux/macOS",
			`   .venv\Scripts\activate     # On Windows`,
			"",
			"3. Install dependencies:",
			"   pip install -r requirements-dev.txt",
		)
	}
	return append(lines,
		"",
		"Please install these dependencies with:",
		"  pip install -r requirements-dev.txt",
	)
}

func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	return strings.TrimSpace(lines[len(lines)-1])
}
