// The apiserver binary serves the InstallBase-Insight HTTP API: lead and
// insight queries, run management, health probes, and Prometheus metrics.
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
	"github.com/turtacn/InstallBase-Insight/internal/infrastructure/monitoring/prometheus"
	httpiface "github.com/turtacn/InstallBase-Insight/internal/interfaces/http"
	"github.com/turtacn/InstallBase-Insight/internal/interfaces/http/handlers"
)

// Build-time variables injected via ldflags.
var (
	version = "dev"
)

const defaultConfigPath = "configs/config.yaml"

func main() {
	configPath := flag.String("config", defaultConfigPath, "path to configuration file")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "apiserver: %v\n", err)
		os.Exit(1)
	}

	logger, err := newLogger(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "apiserver: building logger: %v\n", err)
		os.Exit(1)
	}
	logger.Info("starting installbase-insight apiserver",
		logging.String("version", version),
		logging.Int("port", cfg.Server.Port),
	)

	if err := run(cfg, logger); err != nil {
		logger.Fatal("apiserver exited with error", logging.Err(err))
	}
}

func run(cfg *config.Config, logger logging.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Storage.
	conn, err := postgres.NewConnection(cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("connecting to postgres: %w", err)
	}
	defer conn.Close()

	if err := postgres.RunMigrations(cfg.Database.DSN(), "file://"+cfg.Database.MigrationPath); err != nil {
		return fmt.Errorf("applying migrations: %w", err)
	}

	rdb, err := redis.NewClient(cfg.Redis, logger)
	if err != nil {
		return fmt.Errorf("connecting to redis: %w", err)
	}
	defer rdb.Close()
	leadCache := redis.NewLeadCache(rdb, logger)

	leadRepo := repositories.NewPostgresLeadRepo(conn, logger)
	runRepo := repositories.NewPostgresRunRepo(conn, logger)
	snapshots := repositories.NewPostgresSnapshotSource(conn, logger)
	catalogs := redis.NewCachedCatalogSource(
		repositories.NewPostgresCatalogSource(conn, logger), rdb, logger)

	// Scoring model from configuration; a miscalibrated model already
	// failed config validation, so this cannot reject here.
	scorer, err := scoring.NewScorer(cfg.Scoring.Weights, cfg.Scoring.Thresholds)
	if err != nil {
		return fmt.Errorf("building scorer: %w", err)
	}
	estimator, err := newEstimator(ctx, catalogs, logger)
	if err != nil {
		return err
	}

	// Observability.
	collector, err := prometheus.NewMetricsCollector(prometheus.CollectorConfig{
		Namespace:            "ibi",
		EnableProcessMetrics: true,
		EnableGoMetrics:      true,
	}, logger)
	if err != nil {
		return fmt.Errorf("building metrics collector: %w", err)
	}
	appMetrics := prometheus.NewAppMetrics(collector)

	// Eventing.  The lead set in postgres is the source of truth, so a
	// missing broker degrades to a warning rather than blocking startup.
	producer, err := kafka.NewProducer(cfg.Kafka, logger)
	if err != nil {
		return fmt.Errorf("building kafka producer: %w", err)
	}
	defer producer.Close()
	if cfg.Kafka.AutoCreateTopics {
		ensureTopics(ctx, cfg, logger)
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
		Events:    kafka.NewEventPublisher(producer),
		Metrics:   prometheus.NewPipelineMetrics(appMetrics),
		Logger:    logger,
	})
	if err != nil {
		return fmt.Errorf("building pipeline engine: %w", err)
	}

	svc, err := pipeline.NewService(engine, snapshots, catalogs, logger)
	if err != nil {
		return fmt.Errorf("building pipeline service: %w", err)
	}
	svc.WithLock(redis.NewRunLock(rdb, "pipeline", 0, logger)).WithCache(leadCache)

	router := httpiface.NewRouter(httpiface.RouterConfig{
		LeadHandler: handlers.NewLeadHandler(leadRepo, leadCache, logger),
		RunHandler:  handlers.NewRunHandler(svc, runRepo, logger),
		HealthHandler: handlers.NewHealthHandler(map[string]handlers.CheckFunc{
			"postgres": conn.HealthCheck,
			"redis":    rdb.HealthCheck,
		}, version, logger),
		AppMetrics: appMetrics,
		Metrics:    collector,
		Mode:       cfg.Server.Mode,
		Logger:     logger,
	})

	server := httpiface.NewServer(cfg.Server, router, logger)
	errCh := make(chan error, 1)
	go func() { errCh <- server.Start() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutdown signal received")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return server.Stop(shutdownCtx)
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

// ensureTopics best-effort creates the engine's topics.  A broker that is
// not reachable yet is a warning; producers retry on their own.
func ensureTopics(ctx context.Context, cfg *config.Config, logger logging.Logger) {
	tm, err := kafka.NewTopicManager(cfg.Kafka.Brokers, logger)
	if err != nil {
		logger.Warn("kafka topic manager unavailable", logging.Err(err))
		return
	}
	defer tm.Close()
	if err := tm.EnsureTopics(ctx, kafka.DefaultTopics(cfg.Kafka.NumPartitions)); err != nil {
		logger.Warn("ensuring kafka topics failed", logging.Err(err))
	}
}
