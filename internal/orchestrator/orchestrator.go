package orchestrator

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/lucasnoah/lintpipe/internal/checks"
	"github.com/lucasnoah/lintpipe/internal/pipeline"
	"github.com/lucasnoah/lintpipe/internal/probe"
)

// Prober gates the run on the tool environment.
type Prober interface {
	Probe(ctx context.Context, dir string) probe.Verdict
}

// Rewriter performs the direct file normalization stage.
type Rewriter interface {
	Normalize(roots []string) int
}

// Options wires an Orchestrator.
type Options struct {
	Root     string
	Package  string
	Runner   checks.CommandRunner
	Prober   Prober
	Rewriter Rewriter
	Out      io.Writer // user-facing messages; os.Stdout when nil
	Log      zerolog.Logger
}

// Orchestrator sequences the pipeline stages and reduces their results.
type Orchestrator struct {
	root     string
	pkg      string
	runner   checks.CommandRunner
	prober   Prober
	rewriter Rewriter
	out      io.Writer
	log      zerolog.Logger
}

// New creates an Orchestrator.
func New(opts Options) *Orchestrator {
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}
	return &Orchestrator{
		root:     opts.Root,
		pkg:      opts.Package,
		runner:   opts.Runner,
		prober:   opts.Prober,
		rewriter: opts.Rewriter,
		out:      out,
		log:      opts.Log,
	}
}

// Execute runs the pipeline in the given mode. Stages run strictly in order;
// nothing runs if the capability gate fails.
func (o *Orchestrator) Execute(ctx context.Context, mode pipeline.Mode) *pipeline.Outcome {
	verdict := o.prober.Probe(ctx, o.root)
	for _, w := range verdict.Warnings {
		o.println("WARNING: " + w)
	}
	if !verdict.Ready {
		o.log.Warn().Strs("missing", verdict.Missing).Msg("capability gate failed")
		lines := verdict.Remediation()
		o.println(lines...)
		return &pipeline.Outcome{
			Mode:     mode,
			Aborted:  true,
			ExitCode: 1,
			Summary:  lines,
		}
	}
	if verdict.FixerVersion != "" && verdict.Capabilities.AtOrAboveThreshold {
		o.println("Using autopep8 version: " + verdict.FixerVersion)
	}

	ec := &pipeline.ExecutionContext{
		Root:         o.root,
		Mode:         mode,
		Runtime:      verdict.Runtime,
		Capabilities: verdict.Capabilities,
		Package:      o.pkg,
	}
	o.log.Debug().
		Str("mode", string(mode)).
		Str("runtime", ec.Runtime.String()).
		Bool("fixer_broken", ec.Capabilities.FixerBroken).
		Msg("execution context resolved")

	o.println("Running linters...")
	var results []pipeline.StageResult
	for _, stage := range Stages {
		if stage.AutofixOnly && !ec.Autofix() {
			continue
		}
		results = append(results, o.runStage(ctx, stage, ec))
	}

	outcome := Reduce(mode, results)
	outcome.Runtime = ec.Runtime.String()
	o.println("")
	o.println(StageLines(outcome.Results)...)
	o.println(outcome.Summary...)
	return outcome
}

func (o *Orchestrator) runStage(ctx context.Context, stage pipeline.Stage, ec *pipeline.ExecutionContext) pipeline.StageResult {
	inv := stage.Plan(ec)
	result := pipeline.StageResult{
		Stage:    stage.Name,
		Role:     stage.Role.String(),
		Fallback: inv.Fallback,
	}
	o.println(inv.Notes...)
	if inv.Skip {
		result.Skipped = true
		result.Detail = "skipped"
		o.log.Info().Str("stage", stage.Name).Msg("stage skipped")
		return result
	}

	start := time.Now()
	switch stage.Kind {
	case pipeline.KindRewrite:
		n := o.rewriter.Normalize(inv.Roots)
		if n > 0 {
			o.println(fmt.Sprintf("Fixed whitespace and newlines in %d files", n))
		}
		result.Detail = fmt.Sprintf("%d files rewritten", n)
	default:
		output, code := o.runner.Run(ctx, o.root, inv.Command)
		parsed := checks.ParserFor(stage.Parser).Parse(output, code)
		result.Status = code
		result.Detail = parsed.Summary
		result.Findings = parsed.Findings
	}
	result.Duration = time.Since(start)

	o.log.Debug().
		Str("stage", stage.Name).
		Int("status", result.Status).
		Dur("duration", result.Duration).
		Msg("stage finished")
	if !result.Passed() {
		o.println(inv.OnFailure...)
	}
	return result
}

func (o *Orchestrator) println(lines ...string) {
	for _, l := range lines {
		fmt.Fprintln(o.out, l)
	}
}
