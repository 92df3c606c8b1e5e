// Package cli implements the ibi command-line tool: triggering runs,
// inspecting recent runs, and one-off record scoring.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/turtacn/InstallBase-Insight/internal/config"
	"github.com/turtacn/InstallBase-Insight/internal/domain/lead"
	"github.com/turtacn/InstallBase-Insight/internal/infrastructure/monitoring/logging"
	leadtypes "github.com/turtacn/InstallBase-Insight/pkg/types/lead"
)

// Build-time variables injected via ldflags.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

const (
	timeLayout    = "2006-01-02 15:04:05"
	timePrecision = time.Millisecond
)

// priorityOrder fixes the display order of per-priority counters.
var priorityOrder = []string{
	string(leadtypes.PriorityCritical),
	string(leadtypes.PriorityHigh),
	string(leadtypes.PriorityMedium),
	string(leadtypes.PriorityLow),
}

// RootOptions holds global CLI flags.
type RootOptions struct {
	ConfigPath string
	LogLevel   string
	JSONOutput bool
}

// Runner executes a recommendation run against the configured backends.
// The factory indirection keeps infrastructure setup out of the command
// tree and lets tests inject fakes.
type Runner interface {
	Trigger(ctx context.Context) (*lead.Run, error)
}

// RunnerFactory builds a Runner plus its cleanup from loaded configuration.
type RunnerFactory func(ctx context.Context, cfg *config.Config, log logging.Logger) (Runner, func(), error)

// RunLister reads recent run records.
type RunLister interface {
	ListRecent(ctx context.Context, limit int) ([]*lead.Run, error)
}

// ListerFactory builds a RunLister plus its cleanup.
type ListerFactory func(ctx context.Context, cfg *config.Config, log logging.Logger) (RunLister, func(), error)

// Dependencies wires the backends into the command tree.  Nil factories
// disable the corresponding commands.
type Dependencies struct {
	Runner RunnerFactory
	Lister ListerFactory
}

// NewRootCommand builds the ibi root command with all subcommands mounted.
func NewRootCommand(deps Dependencies) *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "ibi",
		Short: "InstallBase-Insight: install-base recommendation and lead scoring engine",
		Long: "InstallBase-Insight turns hardware install-base snapshots into scored,\n" +
			"prioritized service leads: tiered catalog matching, benchmark value\n" +
			"estimation, weighted multi-factor scoring, and account-level insights.",
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", Version, GitCommit, BuildDate),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&opts.ConfigPath, "config", "c", "", "config file path (default: ./config.yaml, then environment)")
	pf.StringVar(&opts.LogLevel, "log-level", "", "override configured log level (debug, info, warn, error)")
	pf.BoolVar(&opts.JSONOutput, "json", false, "print results as JSON")

	cmd.AddCommand(newRunCommand(opts, deps.Runner))
	cmd.AddCommand(newRunsCommand(opts, deps.Lister))
	cmd.AddCommand(newScoreCommand(opts))
	cmd.AddCommand(newVersionCommand())
	return cmd
}

// loadConfig resolves configuration for a command invocation.
func loadConfig(opts *RootOptions) (*config.Config, logging.Logger, error) {
	var cfg *config.Config
	var err error
	if opts.ConfigPath != "" {
		cfg, err = config.Load(opts.ConfigPath)
	} else {
		cfg, err = config.LoadFromEnv()
	}
	if err != nil {
		return nil, nil, err
	}

	if opts.LogLevel != "" {
		cfg.Log.Level = opts.LogLevel
	}
	logger, err := logging.NewLogger(logging.LogConfig{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

// printResult renders v as JSON or indented text depending on flags.
func printResult(cmd *cobra.Command, opts *RootOptions, v interface{}) error {
	if opts.JSONOutput {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%+v\n", v)
	return nil
}
