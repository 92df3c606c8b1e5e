// The worker binary consumes snapshot-ready events and executes
// recommendation runs.  It shares the fleet-wide run lock with the API
// server, so a run triggered over HTTP and one triggered by an event never
// overlap.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/turtacn/InstallBase-Insight/internal/application/pipeline"
	"github.com/turtacn/InstallBase-Insight/internal/config"
	"github.com/turtacn/InstallBase-Insight/internal/domain/catalog"
	"github.com/turtacn/InstallBase-Insight/internal/domain/matching"
	"github.com/turtacn/InstallBase-Insight/internal/domain/scoring"
	"github.com/turtacn/InstallBase-Insight/internal/infrastructure/database/postgres"
	"github.com/turtacn/InstallBase-Insight/internal/infrastructure/database/postgres/repositories"
	"github.com/turtacn/InstallBase-Insight/internal/infrastructure/database/redis"
	"github.com/turtacn/InstallBase-Insight/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/InstallBase-Insight/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/InstallBase-Insight/pkg/errors"
)

var version = "dev"

const defaultConfigPath = "configs/config.yaml"

func main() {
	configPath := flag.String("config", defaultConfigPath, "path to configuration file")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "worker: %v\n", err)
		os.Exit(1)
	}

	logger, err := newLogger(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "worker: building logger: %v\n", err)
		os.Exit(1)
	}
	logger.Info("starting installbase-insight worker", logging.String("version", version))

	if err := run(cfg, logger); err != nil {
		logger.Fatal("worker exited with error", logging.Err(err))
	}
}

func run(cfg *config.Config, logger logging.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	conn, err := postgres.NewConnection(cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("connecting to postgres: %w", err)
	}
	defer conn.Close()

	rdb, err := redis.NewClient(cfg.Redis, logger)
	if err != nil {
		return fmt.Errorf("connecting to redis: %w", err)
	}
	defer rdb.Close()

	leadRepo := repositories.NewPostgresLeadRepo(conn, logger)
	runRepo := repositories.NewPostgresRunRepo(conn, logger)
	snapshots := repositories.NewPostgresSnapshotSource(conn, logger)
	catalogs := redis.NewCachedCatalogSource(
		repositories.NewPostgresCatalogSource(conn, logger), rdb, logger)

	scorer, err := scoring.NewScorer(cfg.Scoring.Weights, cfg.Scoring.Thresholds)
	if err != nil {
		return fmt.Errorf("building scorer: %w", err)
	}
	estimator, err := newEstimator(ctx, catalogs, logger)
	if err != nil {
		return err
	}

	producer, err := kafka.NewProducer(cfg.Kafka, logger)
	if err != nil {
		return fmt.Errorf("building kafka producer: %w", err)
	}
	defer producer.Close()

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
		Events:    kafka.NewEventPublisher(producer),
		Logger:    logger,
	})
	if err != nil {
		return fmt.Errorf("building pipeline engine: %w", err)
	}

	svc, err := pipeline.NewService(engine, snapshots, catalogs, logger)
	if err != nil {
		return fmt.Errorf("building pipeline service: %w", err)
	}
	svc.WithLock(redis.NewRunLock(rdb, "pipeline", 0, logger)).
		WithCache(redis.NewLeadCache(rdb, logger))

	consumer, err := kafka.NewConsumer(cfg.Kafka, []string{kafka.TopicSnapshotReady}, logger)
	if err != nil {
		return fmt.Errorf("building kafka consumer: %w", err)
	}
	consumer.Subscribe(kafka.EventSnapshotReady, snapshotHandler(svc, logger))

	if err := consumer.Start(ctx); err != nil {
		return fmt.Errorf("starting consumer: %w", err)
	}

	<-ctx.Done()
	logger.Info("shutdown signal received")
	return consumer.Close()
}

// snapshotHandler triggers a run for each snapshot-ready event.  A run
// already active (here or elsewhere in the fleet) is not an error: the
// active run is consuming the same snapshot.
func snapshotHandler(svc *pipeline.Service, logger logging.Logger) kafka.HandlerFunc {
	return func(ctx context.Context, env *kafka.EventEnvelope) error {
		var payload kafka.SnapshotReadyPayload
		if err := env.DecodePayload(&payload); err != nil {
			return err
		}
		logger.Info("snapshot ready, triggering run",
			logging.String("snapshot_id", payload.SnapshotID),
			logging.Int("record_count", payload.RecordCount),
		)

		run, err := svc.Trigger(ctx)
		if err != nil {
			if errors.IsCode(err, errors.ErrCodeRunAlreadyActive) {
				logger.Info("run already active, skipping trigger")
				return nil
			}
			return err
		}
		logger.Info("run finished",
			logging.String("run_id", string(run.ID)),
			logging.String("status", string(run.Status)),
			logging.Int("leads", run.LeadCount),
		)
		return nil
	}
}

// newEstimator builds the value estimator over DB-provided benchmarks,
// falling back to the built-in table when the rules cannot be loaded.
func newEstimator(ctx context.Context, catalogs catalog.Source, logger logging.Logger) (*scoring.Estimator, error) {
	table, err := catalogs.LoadBenchmarks(ctx)
	if err != nil {
		logger.Warn("loading benchmark rules failed; using built-in table", logging.Err(err))
		table = nil
	}
	return scoring.NewEstimator(table)
}

func loadConfig(path string) (*config.Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return config.LoadFromEnv()
	}
	return config.Load(path)
}

func newLogger(cfg config.LogConfig) (logging.Logger, error) {
	lc := logging.LogConfig{Level: cfg.Level, Format: cfg.Format}
	if cfg.Output != "" {
		lc.OutputPaths = []string{cfg.Output}
	}
	return logging.NewLogger(lc)
}
