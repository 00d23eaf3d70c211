package pipeline

import (
	"time"

	"github.com/Masterminds/semver/v3"
)

// Mode selects between verification only and best-effort repair.
type Mode string

const (
	ModeCheck   Mode = "check"
	ModeAutofix Mode = "autofix"
)

// StageKind says how a stage does its work.
type StageKind string

const (
	KindExternal StageKind = "external" // runs a tool through a CommandRunner
	KindRewrite  StageKind = "rewrite"  // mutates files directly
)

// Role decides how a stage's status feeds the final outcome.
type Role int

const (
	// RoleAdvisory stages are logged but never fail the run.
	RoleAdvisory Role = iota
	// RoleCheckGate stages fail the run in check mode only.
	RoleCheckGate
	// RoleMandatory is the style check; it alone decides Outcome.Success.
	RoleMandatory
)

func (r Role) String() string {
	switch r {
	case RoleCheckGate:
		return "check-gate"
	case RoleMandatory:
		return "mandatory"
	default:
		return "advisory"
	}
}

// Stage is a statically defined step of the pipeline.
type Stage struct {
	Name        string
	Kind        StageKind
	AutofixOnly bool
	Role        Role
	// Parser names the output parser applied to the stage's stdout ("" for none).
	Parser string
	// Plan resolves the stage against the execution context.
	Plan func(ec *ExecutionContext) Invocation
}

// Invocation is a stage resolved for one run.
type Invocation struct {
	Command   string   // shell command for external stages
	Roots     []string // paths for rewrite stages
	Skip      bool
	Notes     []string // printed before the stage runs (or instead of it when skipped)
	OnFailure []string // printed when the stage reports a non-zero status
	// Fallback marks a read-only substitute for a mutating tool.
	Fallback bool
}

// Capabilities are the environment facts resolved once by the probe.
type Capabilities struct {
	// AtOrAboveThreshold is true when the runtime no longer ships lib2to3.
	AtOrAboveThreshold bool
	// FixerBroken is true when autopep8 cannot be imported for lack of lib2to3.
	FixerBroken bool
	// Optional maps optional tool names to availability.
	Optional map[string]bool
}

// Has reports whether an optional tool is available.
func (c Capabilities) Has(tool string) bool {
	return c.Optional[tool]
}

// ExecutionContext is created once after the probe and read-only thereafter.
type ExecutionContext struct {
	Root         string
	Mode         Mode
	Runtime      *semver.Version
	Capabilities Capabilities
	// Package is the source package directory name, relative to Root.
	Package string
}

// Autofix reports whether the run mutates the tree.
func (ec *ExecutionContext) Autofix() bool {
	return ec.Mode == ModeAutofix
}

// Roots returns the fixed rewrite roots: package dir, tests dir, packaging entry.
func (ec *ExecutionContext) Roots() []string {
	return []string{ec.Package, "tests", "setup.py"}
}

// StageResult is the status of a single stage.
type StageResult struct {
	Stage    string         `json:"stage"`
	Role     string         `json:"role"`
	Status   int            `json:"status"`
	Skipped  bool           `json:"skipped,omitempty"`
	Fallback bool           `json:"fallback,omitempty"`
	Detail   string         `json:"detail,omitempty"`
	Findings map[string]int `json:"findings,omitempty"`
	Duration time.Duration  `json:"duration_ns"`
}

// Passed reports whether the stage ended with status 0.
func (r StageResult) Passed() bool {
	return r.Status == 0
}

// Outcome is the reduction of all stage results for a run.
type Outcome struct {
	Mode     Mode          `json:"mode"`
	Runtime  string        `json:"runtime,omitempty"`
	Results  []StageResult `json:"results"`
	Success  bool          `json:"success"`
	ExitCode int           `json:"exit_code"`
	Summary  []string      `json:"summary"`
	// Aborted is set when the capability gate stopped the run.
	Aborted bool `json:"aborted,omitempty"`
}

// Result returns the named stage result, if the stage ran.
func (o *Outcome) Result(stage string) (StageResult, bool) {
	for _, r := range o.Results {
		if r.Stage == stage {
			return r, true
		}
	}
	return StageResult{}, false
}
