package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/turtacn/InstallBase-Insight/pkg/errors"
)

// newRunCommand builds "ibi run": trigger one recommendation run and print
// the summary.
func newRunCommand(opts *RootOptions, factory RunnerFactory) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Trigger one recommendation run over the current snapshot",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if factory == nil {
				return errors.New(errors.ErrCodeNotImplemented, "run triggering is not wired in this build")
			}

			cfg, logger, err := loadConfig(opts)
			if err != nil {
				return err
			}

			runner, cleanup, err := factory(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer cleanup()

			run, err := runner.Trigger(cmd.Context())
			if err != nil {
				return err
			}

			if opts.JSONOutput {
				return printResult(cmd, opts, run)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "run %s %s\n", run.ID, run.Status)
			fmt.Fprintf(out, "  records:  %d over %d accounts\n", run.RecordCount, run.AccountCount)
			fmt.Fprintf(out, "  leads:    %d (insights: %d)\n", run.LeadCount, run.InsightCount)
			fmt.Fprintf(out, "  duration: %s\n", run.Duration().Round(timePrecision))
			for _, p := range priorityOrder {
				if n := run.LeadsByPriority[p]; n > 0 {
					fmt.Fprintf(out, "  %-9s %d\n", p, n)
				}
			}
			return nil
		},
	}
	return cmd
}

// newRunsCommand builds "ibi runs": list the most recent runs.
func newRunsCommand(opts *RootOptions, factory ListerFactory) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recent recommendation runs",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if factory == nil {
				return errors.New(errors.ErrCodeNotImplemented, "run listing is not wired in this build")
			}

			cfg, logger, err := loadConfig(opts)
			if err != nil {
				return err
			}

			lister, cleanup, err := factory(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer cleanup()

			runs, err := lister.ListRecent(cmd.Context(), limit)
			if err != nil {
				return err
			}

			if opts.JSONOutput {
				return printResult(cmd, opts, runs)
			}
			out := cmd.OutOrStdout()
			for _, run := range runs {
				fmt.Fprintf(out, "%s  %-9s  leads=%-4d  started=%s\n",
					run.ID, run.Status, run.LeadCount, run.StartedAt.Format(timeLayout))
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 10, "maximum number of runs to list")
	return cmd
}
