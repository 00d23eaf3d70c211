package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lucasnoah/lintpipe/internal/pipeline"
)

var version = "dev"

func SetVersion(v string) {
	version = v
}

var (
	rootDir    string
	configFile string
	verbosity  int
	autofix    bool
	reportFile string
)

var rootCmd = &cobra.Command{
	Use:   "lintpipe",
	Short: "lintpipe - run the Python lint pipeline and report one result",
	Long: `lintpipe runs isort, autoflake, autopep8 and flake8 against a Python
project in a fixed order and folds their results into a single exit status.

Without flags it only checks. With --autofix it first repairs what it can
(import order, unused imports, whitespace, style) and then runs the same
checks; autofix runs always exit 0, so re-run without --autofix to confirm.

Settings are read from .lintpipe.yaml in the project root when present.`,
	Args:          cobra.NoArgs,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		mode := pipeline.ModeCheck
		if autofix {
			mode = pipeline.ModeAutofix
		}
		return runPipeline(cmd, mode)
	},
}

// ExitError carries a non-zero exit status whose explanation was already
// printed by the command.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit status %d", e.Code)
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&rootDir, "root", "", "project root (defaults to the current directory)")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "path to config file (defaults to <root>/.lintpipe.yaml)")
	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "increase log verbosity (repeatable)")

	rootCmd.Flags().BoolVarP(&autofix, "autofix", "a", false, "automatically fix linting issues")
	rootCmd.Flags().StringVar(&reportFile, "report", "", "write a JSON run report to this path")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(doctorCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(historyCmd)
}
