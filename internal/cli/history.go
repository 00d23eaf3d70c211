package cli

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/lucasnoah/lintpipe/internal/analytics"
	"github.com/lucasnoah/lintpipe/internal/config"
	"github.com/lucasnoah/lintpipe/internal/db"
)

var errNoHistory = errors.New("run history is disabled: set history.database_url or " + config.EnvDatabaseURL)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recorded lint runs",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		all, _ := cmd.Flags().GetBool("all")

		e, d, err := openHistory(cmd)
		if err != nil {
			return err
		}
		defer d.Close()

		root := e.root
		if all {
			root = ""
		}
		runs, err := d.RecentRuns(cmd.Context(), root, limit)
		if err != nil {
			return fmt.Errorf("get run history: %w", err)
		}
		if len(runs) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded.")
			return nil
		}

		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "%-6s %-20s %-8s %-8s %-6s %-4s %s\n",
			"ID", "WHEN", "MODE", "PYTHON", "RESULT", "EXIT", "DURATION")
		fmt.Fprintf(w, "%s\n", strings.Repeat("-", 70))
		for _, r := range runs {
			result := "FAIL"
			switch {
			case r.Aborted:
				result = "ABORT"
			case r.Success:
				result = "PASS"
			}
			fmt.Fprintf(w, "%-6d %-20s %-8s %-8s %-6s %-4d %s\n",
				r.ID, r.CreatedAt.Local().Format("2006-01-02 15:04:05"), r.Mode, r.Runtime, result, r.ExitCode,
				fmt.Sprintf("%dms", r.DurationMs))
		}
		return nil
	},
}

var historyShowCmd = &cobra.Command{
	Use:   "show [run-id]",
	Short: "Show the stage results of a recorded run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid run id %q: %w", args[0], err)
		}

		_, d, err := openHistory(cmd)
		if err != nil {
			return err
		}
		defer d.Close()

		stages, err := d.StageResults(cmd.Context(), id)
		if err != nil {
			return fmt.Errorf("get stage results: %w", err)
		}
		if len(stages) == 0 {
			return fmt.Errorf("no stage results for run %d", id)
		}

		w := cmd.OutOrStdout()
		for _, s := range stages {
			status := "PASS"
			switch {
			case s.Skipped:
				status = "SKIP"
			case s.Status != 0:
				status = "FAIL"
			}
			fmt.Fprintf(w, "[%s] %-10s %-10s exit=%d %s (%dms)\n", status, s.Stage, s.Role, s.Status, s.Detail, s.DurationMs)
		}
		return nil
	},
}

var historyStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summarise stage durations, failure rates and common finding codes",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		since, _ := cmd.Flags().GetDuration("since")
		all, _ := cmd.Flags().GetBool("all")
		top, _ := cmd.Flags().GetInt("top")

		e, d, err := openHistory(cmd)
		if err != nil {
			return err
		}
		defer d.Close()

		root := e.root
		if all {
			root = ""
		}
		var from time.Time
		if since > 0 {
			from = time.Now().Add(-since)
		}

		sum, err := analytics.Query(cmd.Context(), d, root, from, top)
		if err != nil {
			return err
		}
		if sum.Samples == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No stage results recorded.")
			return nil
		}

		w := cmd.OutOrStdout()
		fmt.Fprintln(w, "=== Stage Durations (ms) ===")
		fmt.Fprintf(w, "%-10s %6s %8s %8s %8s\n", "STAGE", "COUNT", "AVG", "P50", "P95")
		for _, s := range sum.Durations {
			fmt.Fprintf(w, "%-10s %6d %8.1f %8.1f %8.1f\n", s.Stage, s.Count, s.Avg, s.P50, s.P95)
		}

		fmt.Fprintln(w)
		fmt.Fprintln(w, "=== Stage Outcomes ===")
		fmt.Fprintf(w, "%-10s %6s %8s %8s %9s\n", "STAGE", "TOTAL", "FAILED%", "SKIPPED%", "FALLBACK%")
		for _, f := range sum.Failures {
			fmt.Fprintf(w, "%-10s %6d %8.1f %8.1f %9.1f\n", f.Stage, f.Total, f.Failed, f.Skipped, f.Fallback)
		}

		if len(sum.TopCodes) > 0 {
			fmt.Fprintln(w)
			fmt.Fprintln(w, "=== Most Common Findings ===")
			for _, c := range sum.TopCodes {
				fmt.Fprintf(w, "%-10s %d\n", c.Code, c.Count)
			}
		}
		return nil
	},
}

func openHistory(cmd *cobra.Command) (*env, *db.DB, error) {
	e, err := loadEnv(cmd)
	if err != nil {
		return nil, nil, err
	}
	if !e.cfg.History.Enabled() {
		return nil, nil, errNoHistory
	}
	d, err := db.Open(cmd.Context(), e.cfg.History.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	if err := d.Migrate(cmd.Context()); err != nil {
		d.Close()
		return nil, nil, err
	}
	return e, d, nil
}

func init() {
	historyCmd.Flags().Int("limit", 20, "maximum number of runs to list")
	historyCmd.Flags().Bool("all", false, "list runs for every project, not just --root")
	historyCmd.AddCommand(historyShowCmd)

	historyStatsCmd.Flags().Duration("since", 0, "only include runs newer than this (e.g. 168h); 0 for all time")
	historyStatsCmd.Flags().Bool("all", false, "include every project, not just --root")
	historyStatsCmd.Flags().Int("top", 10, "number of finding codes to list")
	historyCmd.AddCommand(historyStatsCmd)
}
