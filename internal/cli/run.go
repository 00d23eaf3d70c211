package cli

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/lucasnoah/lintpipe/internal/checks"
	"github.com/lucasnoah/lintpipe/internal/config"
	"github.com/lucasnoah/lintpipe/internal/db"
	"github.com/lucasnoah/lintpipe/internal/logging"
	"github.com/lucasnoah/lintpipe/internal/orchestrator"
	"github.com/lucasnoah/lintpipe/internal/pipeline"
	"github.com/lucasnoah/lintpipe/internal/probe"
	"github.com/lucasnoah/lintpipe/internal/rewrite"
)

// newRunner builds the CommandRunner every tool invocation goes through.
var newRunner = func(cmd *cobra.Command, log zerolog.Logger) checks.CommandRunner {
	return &checks.ExecRunner{Stdout: cmd.OutOrStdout(), Stderr: cmd.ErrOrStderr(), Log: log}
}

// env is what every command needs once flags are resolved.
type env struct {
	root string
	cfg  *config.Config
	log  zerolog.Logger
}

// loadEnv resolves the project root, loads and validates config, and sets up
// logging.
func loadEnv(cmd *cobra.Command) (*env, error) {
	root := rootDir
	if root == "" {
		root = "."
	}
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve root: %w", err)
	}

	cfg, err := config.LoadForRoot(root, configFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if errs := config.Validate(cfg); len(errs) > 0 {
		for _, e := range errs {
			cmd.PrintErrf("  - %s\n", e)
		}
		return nil, fmt.Errorf("config has %d validation error(s)", len(errs))
	}

	logger := logging.Setup(cmd.ErrOrStderr(), logging.LevelFor(verbosity, cfg.LogLevel))
	return &env{root: root, cfg: cfg, log: logger}, nil
}

func runPipeline(cmd *cobra.Command, mode pipeline.Mode) error {
	e, err := loadEnv(cmd)
	if err != nil {
		return err
	}

	runner := newRunner(cmd, logging.Component(e.log, "runner"))
	orch := orchestrator.New(orchestrator.Options{
		Root:     e.root,
		Package:  e.cfg.Package,
		Runner:   runner,
		Prober:   probe.New(runner, e.cfg.Python, logging.Component(e.log, "probe")),
		Rewriter: rewrite.New(e.root, logging.Component(e.log, "rewrite")),
		Out:      cmd.OutOrStdout(),
		Log:      logging.Component(e.log, "orchestrator"),
	})

	report := pipeline.NewReport(e.root, version)
	outcome := orch.Execute(cmd.Context(), mode)
	report.Finish(outcome)

	path := reportFile
	if path == "" {
		path = e.cfg.Report
	}
	if path != "" {
		if saved, err := report.Save(path); err != nil {
			e.log.Warn().Err(err).Msg("could not write run report")
		} else {
			e.log.Info().Str("path", saved).Msg("run report written")
		}
	}

	if e.cfg.History.Enabled() {
		if err := recordHistory(cmd.Context(), e, report); err != nil {
			e.log.Warn().Err(err).Msg("could not record run history")
		}
	}

	if outcome.ExitCode != 0 {
		cmd.SilenceUsage = true
		return &ExitError{Code: outcome.ExitCode}
	}
	return nil
}

func recordHistory(ctx context.Context, e *env, report *pipeline.Report) error {
	d, err := db.Open(ctx, e.cfg.History.DatabaseURL)
	if err != nil {
		return err
	}
	defer d.Close()

	if err := d.Migrate(ctx); err != nil {
		return err
	}
	id, err := d.LogRun(ctx, e.root, report.Outcome, report.Elapsed())
	if err != nil {
		return err
	}
	e.log.Debug().Int64("run_id", id).Msg("run recorded")
	return nil
}
