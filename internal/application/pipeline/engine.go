// Package pipeline orchestrates one recommendation run: fan the inventory
// snapshot out over a worker pool, match + estimate + score every record,
// aggregate account-level insights, and persist the whole result as a single
// atomic batch replacement.
package pipeline

import (
	"context"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/turtacn/InstallBase-Insight/internal/domain/catalog"
	"github.com/turtacn/InstallBase-Insight/internal/domain/inventory"
	"github.com/turtacn/InstallBase-Insight/internal/domain/lead"
	"github.com/turtacn/InstallBase-Insight/internal/domain/matching"
	"github.com/turtacn/InstallBase-Insight/internal/domain/scoring"
	"github.com/turtacn/InstallBase-Insight/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/InstallBase-Insight/pkg/errors"
	"github.com/turtacn/InstallBase-Insight/pkg/types/common"
)

// Config tunes the pipeline.  Zero values select the defaults.
type Config struct {
	// Workers bounds the per-record fan-out.
	Workers int `mapstructure:"workers" json:"workers"`

	// RenewalWindowDays is how far ahead a support expiry still classifies
	// the record as a renewal lead.
	RenewalWindowDays int `mapstructure:"renewal_window_days" json:"renewal_window_days"`

	// Cross-sell fires for accounts with at least CrossSellMinRecords
	// records of which a CrossSellConcentration share sit on one platform.
	CrossSellMinRecords    int     `mapstructure:"cross_sell_min_records" json:"cross_sell_min_records"`
	CrossSellConcentration float64 `mapstructure:"cross_sell_concentration" json:"cross_sell_concentration"`

	// CreditUtilizationThreshold is the ratio below which purchased service
	// credits count as under-used.
	CreditUtilizationThreshold float64 `mapstructure:"credit_utilization_threshold" json:"credit_utilization_threshold"`
}

// DefaultConfig returns the production pipeline tuning.
func DefaultConfig() Config {
	return Config{
		Workers:                    8,
		RenewalWindowDays:          180,
		CrossSellMinRecords:        3,
		CrossSellConcentration:     0.8,
		CreditUtilizationThreshold: 0.5,
	}
}

// withDefaults fills zero fields from DefaultConfig.
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.Workers <= 0 {
		c.Workers = d.Workers
	}
	if c.RenewalWindowDays <= 0 {
		c.RenewalWindowDays = d.RenewalWindowDays
	}
	if c.CrossSellMinRecords <= 0 {
		c.CrossSellMinRecords = d.CrossSellMinRecords
	}
	if c.CrossSellConcentration <= 0 {
		c.CrossSellConcentration = d.CrossSellConcentration
	}
	if c.CreditUtilizationThreshold <= 0 {
		c.CreditUtilizationThreshold = d.CreditUtilizationThreshold
	}
	return c
}

// EventPublisher notifies downstream consumers.  Publish failures are logged
// and do not fail the run: the persisted lead set is the source of truth,
// events are a convenience.
type EventPublisher interface {
	LeadGenerated(ctx context.Context, l *lead.Lead) error
	RunCompleted(ctx context.Context, run *lead.Run) error
}

// Metrics receives pipeline observations.
type Metrics interface {
	RunObserved(run *lead.Run)
	TierMatched(tier matching.ConfidenceTier)
}

type nopPublisher struct{}

func (nopPublisher) LeadGenerated(context.Context, *lead.Lead) error { return nil }
func (nopPublisher) RunCompleted(context.Context, *lead.Run) error   { return nil }

// NewNopPublisher returns a publisher that drops every event.
func NewNopPublisher() EventPublisher { return nopPublisher{} }

type nopMetrics struct{}

func (nopMetrics) RunObserved(*lead.Run)               {}
func (nopMetrics) TierMatched(matching.ConfidenceTier) {}

// NewNopMetrics returns a metrics sink that ignores every observation.
func NewNopMetrics() Metrics { return nopMetrics{} }

// Dependencies wires the engine's collaborators.  Matcher, Estimator,
// Scorer, Leads, and Runs are required; the rest default to no-ops.
type Dependencies struct {
	Matcher   *matching.TieredMatcher
	Estimator *scoring.Estimator
	Scorer    *scoring.Scorer
	Audit     scoring.AuditSink
	Leads     lead.Repository
	Runs      lead.RunRepository
	Events    EventPublisher
	Metrics   Metrics
	Logger    logging.Logger
}

// Engine executes recommendation runs.  At most one run is active at a time;
// overlapping runs would race on the full-replacement write.
type Engine struct {
	cfg     Config
	matcher *matching.TieredMatcher
	est     *scoring.Estimator
	scorer  *scoring.Scorer
	audit   scoring.AuditSink
	leads   lead.Repository
	runs    lead.RunRepository
	events  EventPublisher
	metrics Metrics
	logger  logging.Logger

	active atomic.Bool
}

// NewEngine validates the dependency set and returns a ready engine.
func NewEngine(cfg Config, deps Dependencies) (*Engine, error) {
	if deps.Matcher == nil || deps.Estimator == nil || deps.Scorer == nil {
		return nil, errors.New(errors.ErrCodeConfigInvalid, "pipeline engine requires matcher, estimator, and scorer")
	}
	if deps.Leads == nil || deps.Runs == nil {
		return nil, errors.New(errors.ErrCodeConfigInvalid, "pipeline engine requires lead and run repositories")
	}
	if deps.Audit == nil {
		deps.Audit = scoring.NewNopAuditSink()
	}
	if deps.Events == nil {
		deps.Events = NewNopPublisher()
	}
	if deps.Metrics == nil {
		deps.Metrics = NewNopMetrics()
	}
	if deps.Logger == nil {
		deps.Logger = logging.NewNopLogger()
	}
	return &Engine{
		cfg:     cfg.withDefaults(),
		matcher: deps.Matcher,
		est:     deps.Estimator,
		scorer:  deps.Scorer,
		audit:   deps.Audit,
		leads:   deps.Leads,
		runs:    deps.Runs,
		events:  deps.Events,
		metrics: deps.Metrics,
		logger:  deps.Logger.Named("pipeline"),
	}, nil
}

// Run executes one full recommendation run over the snapshot and catalog.
// Records fan out over the worker pool; results are collected in snapshot
// order regardless of completion order, so the produced lead set is
// deterministic for a given snapshot.  The stored lead set is replaced
// atomically: a failed run leaves the previous set untouched.
func (e *Engine) Run(ctx context.Context, snap *inventory.Snapshot, cat *catalog.Catalog) (*lead.Run, error) {
	if snap == nil {
		return nil, errors.New(errors.ErrCodeSnapshotUnavailable, "nil inventory snapshot")
	}
	if err := cat.Validate(); err != nil {
		return nil, err
	}
	if !e.active.CompareAndSwap(false, true) {
		return nil, errors.New(errors.ErrCodeRunAlreadyActive, "a pipeline run is already in progress")
	}
	defer e.active.Store(false)

	now := time.Now().UTC()
	run := lead.NewRun(len(snap.Records), len(snap.Accounts), now)
	if err := e.runs.Create(ctx, run); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "recording run start")
	}

	e.logger.Info("pipeline run started",
		logging.String("run_id", string(run.ID)),
		logging.Int("records", len(snap.Records)),
		logging.Int("accounts", len(snap.Accounts)),
		logging.Int("workers", e.cfg.Workers),
	)

	results := make([]*lead.Lead, len(snap.Records))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.Workers)

	seen := make(map[string]bool, len(snap.Records))
	for i := range snap.Records {
		rec := &snap.Records[i]
		if seen[rec.ID] {
			e.logger.Warn("duplicate record in snapshot, keeping first occurrence",
				logging.String("record_id", rec.ID))
			continue
		}
		seen[rec.ID] = true

		idx := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			l, err := e.processRecord(gctx, run, rec, snap, cat, now)
			if err != nil {
				return err
			}
			results[idx] = l
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, e.failRun(ctx, run, err)
	}

	leads := make([]*lead.Lead, 0, len(results))
	for _, l := range results {
		if l != nil {
			leads = append(leads, l)
		}
	}
	insights := detectInsights(snap, e.cfg, run.ID, now)

	if err := e.leads.ReplaceAll(ctx, run.ID, leads, insights); err != nil {
		return nil, e.failRun(ctx, run, errors.Wrap(err, errors.ErrCodeBatchReplaceFailed, "lead batch replacement"))
	}

	run.Complete(leads, insights, time.Now().UTC())
	if err := e.runs.Update(ctx, run); err != nil {
		// The lead set is already committed; a stale run record is a
		// bookkeeping wart, not a failed run.
		e.logger.Error("recording run completion failed", logging.Err(err),
			logging.String("run_id", string(run.ID)))
	}

	e.publish(ctx, run, leads)
	e.metrics.RunObserved(run)

	e.logger.Info("pipeline run completed",
		logging.String("run_id", string(run.ID)),
		logging.Int("leads", run.LeadCount),
		logging.Int("insights", run.InsightCount),
		logging.Duration("took", run.Duration()),
	)
	return run, nil
}

// processRecord produces the lead for one inventory record.  Invalid records
// are skipped with a warning (data-quality gap), not failed.
func (e *Engine) processRecord(ctx context.Context, run *lead.Run, rec *inventory.InventoryRecord, snap *inventory.Snapshot, cat *catalog.Catalog, now time.Time) (*lead.Lead, error) {
	if err := rec.Validate(); err != nil {
		e.logger.Warn("skipping invalid inventory record",
			logging.String("record_id", rec.ID), logging.Err(err))
		return nil, nil
	}

	matches := e.matcher.Match(rec, cat)
	tier := matching.BestTier(matches)
	e.metrics.TierMatched(tier)

	estimated, basis, family := e.est.Estimate(rec)
	leadType := Classify(rec, e.cfg.RenewalWindowDays, now)
	account := snap.Account(rec.AccountID)
	urgencyBasis := scoring.NewUrgencyBasis(rec, now)

	sub := scoring.Subscores{
		Urgency:      scoring.UrgencyScore(rec, now),
		Value:        scoring.ValueScore(estimated, rec.Quantity),
		Propensity:   scoring.PropensityScore(account, now),
		StrategicFit: scoring.StrategicFitScore(rec, leadType),
	}
	result, err := e.scorer.Score(sub)
	if err != nil {
		return nil, err
	}

	services := make([]lead.RecommendedService, 0, len(matches))
	for _, m := range matches {
		services = append(services, lead.RecommendedService{
			Name:       m.Service.Name,
			SKU:        m.Service.SKU,
			Practice:   m.Service.Practice,
			Tier:       m.Tier,
			Confidence: m.Confidence,
		})
	}

	l := &lead.Lead{
		ID:              common.NewID(),
		RunID:           run.ID,
		AccountID:       rec.AccountID,
		RecordID:        rec.ID,
		ProductID:       rec.ProductID,
		ProductName:     rec.ProductName,
		Type:            leadType,
		Tier:            tier,
		Services:        services,
		EstimatedValue:  estimated,
		ValueBasis:      basis,
		BenchmarkFamily: family,
		UrgencyBasis:    urgencyBasis,
		Subscores:       result.Subscores,
		Overall:         result.Overall,
		Priority:        result.Priority,
		CreatedAt:       now,
	}
	if err := l.Validate(); err != nil {
		return nil, err
	}

	e.audit.Record(ctx, scoring.AuditEntry{
		RunID:        run.ID,
		LeadID:       l.ID,
		RecordID:     rec.ID,
		AccountID:    rec.AccountID,
		MatchTier:    string(tier),
		ValueBasis:   basis,
		UrgencyBasis: urgencyBasis,
		Result:       result,
		ScoredAt:     now,
	})
	return l, nil
}

// failRun records the failure and returns the causing error.
func (e *Engine) failRun(ctx context.Context, run *lead.Run, cause error) error {
	run.Fail(cause, time.Now().UTC())
	if err := e.runs.Update(ctx, run); err != nil {
		e.logger.Error("recording run failure failed", logging.Err(err),
			logging.String("run_id", string(run.ID)))
	}
	e.metrics.RunObserved(run)
	return cause
}

// publish emits the run's events, logging rather than propagating failures.
func (e *Engine) publish(ctx context.Context, run *lead.Run, leads []*lead.Lead) {
	for _, l := range leads {
		if err := e.events.LeadGenerated(ctx, l); err != nil {
			e.logger.Warn("publishing lead event failed", logging.Err(err),
				logging.String("lead_id", string(l.ID)))
		}
	}
	if err := e.events.RunCompleted(ctx, run); err != nil {
		e.logger.Warn("publishing run event failed", logging.Err(err),
			logging.String("run_id", string(run.ID)))
	}
}
