// The ibi binary is the operator CLI: trigger runs, list recent runs, and
// sanity-check the scoring model on synthetic records.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/turtacn/InstallBase-Insight/internal/application/pipeline"
	"github.com/turtacn/InstallBase-Insight/internal/config"
	"github.com/turtacn/InstallBase-Insight/internal/domain/catalog"
	"github.com/turtacn/InstallBase-Insight/internal/domain/matching"
	"github.com/turtacn/InstallBase-Insight/internal/domain/scoring"
	"github.com/turtacn/InstallBase-Insight/internal/infrastructure/database/postgres"
	"github.com/turtacn/InstallBase-Insight/internal/infrastructure/database/postgres/repositories"
	"github.com/turtacn/InstallBase-Insight/internal/infrastructure/database/redis"
	"github.com/turtacn/InstallBase-Insight/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/InstallBase-Insight/internal/interfaces/cli"
)

func main() {
	root := cli.NewRootCommand(cli.Dependencies{
		Runner: newRunner,
		Lister: newLister,
	})
	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "ibi: %v\n", err)
		os.Exit(1)
	}
}

// newRunner wires a full pipeline service against the configured backends.
// Events and metrics are deliberately absent: a CLI-triggered run writes to
// the same tables, and the API server picks the result up from there.
func newRunner(ctx context.Context, cfg *config.Config, logger logging.Logger) (cli.Runner, func(), error) {
	conn, err := postgres.NewConnection(cfg.Database, logger)
	if err != nil {
		return nil, nil, err
	}

	rdb, err := redis.NewClient(cfg.Redis, logger)
	if err != nil {
		conn.Close()
		return nil, nil, err
	}
	cleanup := func() {
		rdb.Close()
		conn.Close()
	}

	leadRepo := repositories.NewPostgresLeadRepo(conn, logger)
	runRepo := repositories.NewPostgresRunRepo(conn, logger)
	snapshots := repositories.NewPostgresSnapshotSource(conn, logger)
	catalogs := repositories.NewPostgresCatalogSource(conn, logger)

	scorer, err := scoring.NewScorer(cfg.Scoring.Weights, cfg.Scoring.Thresholds)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	estimator, err := newEstimator(ctx, catalogs, logger)
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	engine, err := pipeline.NewEngine(pipeline.Config{
		Workers:                    cfg.Pipeline.Workers,
		RenewalWindowDays:          cfg.Pipeline.RenewalWindowDays,
		CrossSellMinRecords:        cfg.Pipeline.CrossSellMinRecords,
		CrossSellConcentration:     cfg.Pipeline.CrossSellConcentration,
		CreditUtilizationThreshold: cfg.Pipeline.CreditUtilizationThreshold,
	}, pipeline.Dependencies{
		Matcher:   matching.NewTieredMatcher(logger),
		Estimator: estimator,
		Scorer:    scorer,
		Audit:     scoring.NewLogAuditSink(logger),
		Leads:     leadRepo,
		Runs:      runRepo,
		Logger:    logger,
	})
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	svc, err := pipeline.NewService(engine, snapshots, catalogs, logger)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	svc.WithLock(redis.NewRunLock(rdb, "pipeline", 0, logger)).
		WithCache(redis.NewLeadCache(rdb, logger))
	return svc, cleanup, nil
}

// newLister exposes the run repository's recent-run listing.
func newLister(_ context.Context, cfg *config.Config, logger logging.Logger) (cli.RunLister, func(), error) {
	conn, err := postgres.NewConnection(cfg.Database, logger)
	if err != nil {
		return nil, nil, err
	}
	return repositories.NewPostgresRunRepo(conn, logger), func() { conn.Close() }, nil
}

func newEstimator(ctx context.Context, catalogs catalog.Source, logger logging.Logger) (*scoring.Estimator, error) {
	table, err := catalogs.LoadBenchmarks(ctx)
	if err != nil {
		logger.Warn("loading benchmark rules failed; using built-in table", logging.Err(err))
		table = nil
	}
	return scoring.NewEstimator(table)
}
