package config

import (
	"time"

	"github.com/turtacn/InstallBase-Insight/internal/domain/scoring"
)

const (
	DefaultServerPort = 8080
	DefaultServerMode = "debug"

	DefaultDBHost     = "localhost"
	DefaultDBPort     = 5432
	DefaultDBName     = "installbase"
	DefaultDBMaxConns = 25

	DefaultRedisAddr = "localhost:6379"

	DefaultKafkaBroker  = "localhost:9092"
	DefaultKafkaGroupID = "ibi-engine"

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"

	DefaultPipelineWorkers            = 8
	DefaultRenewalWindowDays          = 180
	DefaultCrossSellMinRecords        = 3
	DefaultCrossSellConcentration     = 0.8
	DefaultCreditUtilizationThreshold = 0.5
)

// ApplyDefaults fills every zero-value field in cfg with the platform
// default.  Fields already set by the caller are left unchanged so that
// explicit configuration always wins.  It must run after unmarshalling and
// before Validate so that optional-but-defaulted fields are never seen as
// missing.
func ApplyDefaults(cfg *Config) {
	if cfg == nil {
		return
	}

	if cfg.Server.Port == 0 {
		cfg.Server.Port = DefaultServerPort
	}
	if cfg.Server.Mode == "" {
		cfg.Server.Mode = DefaultServerMode
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 10 * time.Second
	}

	if cfg.Database.Host == "" {
		cfg.Database.Host = DefaultDBHost
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = DefaultDBPort
	}
	if cfg.Database.User == "" {
		cfg.Database.User = "postgres"
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = DefaultDBName
	}
	if cfg.Database.MaxConns == 0 {
		cfg.Database.MaxConns = DefaultDBMaxConns
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.MigrationPath == "" {
		cfg.Database.MigrationPath = "migrations"
	}

	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = DefaultRedisAddr
	}
	if cfg.Redis.DefaultTTL == 0 {
		cfg.Redis.DefaultTTL = 15 * time.Minute
	}
	if cfg.Redis.KeyPrefix == "" {
		cfg.Redis.KeyPrefix = "ibi"
	}

	if len(cfg.Kafka.Brokers) == 0 {
		cfg.Kafka.Brokers = []string{DefaultKafkaBroker}
	}
	if cfg.Kafka.GroupID == "" {
		cfg.Kafka.GroupID = DefaultKafkaGroupID
	}
	if cfg.Kafka.AutoOffsetReset == "" {
		cfg.Kafka.AutoOffsetReset = "earliest"
	}

	// The scoring model defaults only when the whole section is absent.
	// A partially specified model must fail validation, not be silently
	// patched into something that happens to sum to 1.0.
	if cfg.Scoring.Weights == (scoring.Weights{}) {
		cfg.Scoring.Weights = scoring.DefaultWeights()
	}
	if cfg.Scoring.Thresholds == (scoring.Thresholds{}) {
		cfg.Scoring.Thresholds = scoring.DefaultThresholds()
	}

	if cfg.Pipeline.Workers == 0 {
		cfg.Pipeline.Workers = DefaultPipelineWorkers
	}
	if cfg.Pipeline.RenewalWindowDays == 0 {
		cfg.Pipeline.RenewalWindowDays = DefaultRenewalWindowDays
	}
	if cfg.Pipeline.CrossSellMinRecords == 0 {
		cfg.Pipeline.CrossSellMinRecords = DefaultCrossSellMinRecords
	}
	if cfg.Pipeline.CrossSellConcentration == 0 {
		cfg.Pipeline.CrossSellConcentration = DefaultCrossSellConcentration
	}
	if cfg.Pipeline.CreditUtilizationThreshold == 0 {
		cfg.Pipeline.CreditUtilizationThreshold = DefaultCreditUtilizationThreshold
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = DefaultLogFormat
	}
}
