package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/lucasnoah/lintpipe/internal/logging"
	"github.com/lucasnoah/lintpipe/internal/probe"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check that the lint tools are installed without running any stage",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := loadEnv(cmd)
		if err != nil {
			return err
		}

		runner := newRunner(cmd, logging.Component(e.log, "runner"))
		v := probe.New(runner, e.cfg.Python, logging.Component(e.log, "probe")).Probe(cmd.Context(), e.root)

		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "Project:     %s\n", e.root)
		fmt.Fprintf(w, "Package:     %s\n", e.cfg.Package)
		fmt.Fprintf(w, "Interpreter: %s\n", e.cfg.Python)
		if v.Runtime != nil {
			where := "system environment"
			if v.InVirtualEnv {
				where = "virtual environment"
			}
			fmt.Fprintf(w, "Runtime:     %s (%s)\n", v.Runtime, where)
		}
		if v.FixerVersion != "" {
			fmt.Fprintf(w, "autopep8:    %s\n", v.FixerVersion)
		}

		optional := make([]string, 0, len(v.Capabilities.Optional))
		for name := range v.Capabilities.Optional {
			optional = append(optional, name)
		}
		sort.Strings(optional)
		for _, name := range optional {
			state := "available"
			if !v.Capabilities.Has(name) {
				state = "not installed (optional)"
			}
			fmt.Fprintf(w, "%-12s %s\n", name+":", state)
		}

		for _, warning := range v.Warnings {
			fmt.Fprintf(w, "WARNING: %s\n", warning)
		}

		if !v.Ready {
			for _, line := range v.Remediation() {
				fmt.Fprintln(w, line)
			}
			cmd.SilenceUsage = true
			return &ExitError{Code: 1}
		}
		fmt.Fprintln(w, "All required tools are installed.")
		return nil
	},
}
