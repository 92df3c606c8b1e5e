package prometheus

import (
	"github.com/turtacn/InstallBase-Insight/internal/domain/lead"
	"github.com/turtacn/InstallBase-Insight/internal/domain/matching"
)

// AppMetrics holds the engine's metric families.
type AppMetrics struct {
	// HTTP layer
	HTTPRequestsTotal   CounterVec
	HTTPRequestDuration HistogramVec
	HTTPActiveRequests  GaugeVec

	// Pipeline layer
	PipelineRunsTotal     CounterVec
	PipelineRunDuration   HistogramVec
	LeadsGeneratedTotal   CounterVec
	InsightsDetectedTotal CounterVec
	MatchTierTotal        CounterVec
	RecordsSkippedTotal   CounterVec

	// Infrastructure layer
	DBPoolActive       GaugeVec
	DBQueryDuration    HistogramVec
	CacheHitsTotal     CounterVec
	CacheMissesTotal   CounterVec
	EventsPublishTotal CounterVec

	// System health
	HealthCheckStatus GaugeVec
}

var (
	// DefaultHTTPDurationBuckets covers interactive API latencies.
	DefaultHTTPDurationBuckets = []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10}
	// DefaultRunDurationBuckets covers batch runs from seconds to an hour.
	DefaultRunDurationBuckets = []float64{1, 5, 10, 30, 60, 120, 300, 600, 1800, 3600}
	// DefaultDBDurationBuckets covers single-query latencies.
	DefaultDBDurationBuckets = []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 5}
)

// NewAppMetrics registers every metric family on the collector.
func NewAppMetrics(collector MetricsCollector) *AppMetrics {
	m := &AppMetrics{}

	m.HTTPRequestsTotal = collector.RegisterCounter("http_requests_total", "Total HTTP requests", "method", "path", "status_code")
	m.HTTPRequestDuration = collector.RegisterHistogram("http_request_duration_seconds", "HTTP request duration", DefaultHTTPDurationBuckets, "method", "path")
	m.HTTPActiveRequests = collector.RegisterGauge("http_active_requests", "Active HTTP requests", "method")

	m.PipelineRunsTotal = collector.RegisterCounter("pipeline_runs_total", "Pipeline runs by final status", "status")
	m.PipelineRunDuration = collector.RegisterHistogram("pipeline_run_duration_seconds", "Pipeline run duration", DefaultRunDurationBuckets, "status")
	m.LeadsGeneratedTotal = collector.RegisterCounter("leads_generated_total", "Leads generated", "priority", "lead_type")
	m.InsightsDetectedTotal = collector.RegisterCounter("insights_detected_total", "Account insights detected", "kind")
	m.MatchTierTotal = collector.RegisterCounter("match_tier_total", "Service matches by confidence tier", "tier")
	m.RecordsSkippedTotal = collector.RegisterCounter("records_skipped_total", "Inventory records skipped", "reason")

	m.DBPoolActive = collector.RegisterGauge("db_pool_active", "Active database connections", "db")
	m.DBQueryDuration = collector.RegisterHistogram("db_query_duration_seconds", "Database query duration", DefaultDBDurationBuckets, "operation")
	m.CacheHitsTotal = collector.RegisterCounter("cache_hits_total", "Cache hits", "cache")
	m.CacheMissesTotal = collector.RegisterCounter("cache_misses_total", "Cache misses", "cache")
	m.EventsPublishTotal = collector.RegisterCounter("events_published_total", "Events published", "topic", "status")

	m.HealthCheckStatus = collector.RegisterGauge("health_check_status", "Health check status (1=up, 0=down)", "component")

	return m
}

// PipelineMetrics adapts AppMetrics to the pipeline's observation contract.
type PipelineMetrics struct {
	app *AppMetrics
}

// NewPipelineMetrics wraps registered app metrics for the engine.
func NewPipelineMetrics(app *AppMetrics) *PipelineMetrics {
	return &PipelineMetrics{app: app}
}

// RunObserved records the outcome of a finished run.
func (p *PipelineMetrics) RunObserved(run *lead.Run) {
	status := string(run.Status)
	p.app.PipelineRunsTotal.WithLabelValues(status).Inc()
	p.app.PipelineRunDuration.WithLabelValues(status).Observe(run.Duration().Seconds())

	// The run record tallies priority and type independently, so each feeds
	// its own label with the other dimension pinned to "all".
	for priority, n := range run.LeadsByPriority {
		p.app.LeadsGeneratedTotal.WithLabelValues(priority, "all").Add(float64(n))
	}
	for leadType, n := range run.LeadsByType {
		p.app.LeadsGeneratedTotal.WithLabelValues("all", leadType).Add(float64(n))
	}
}

// TierMatched counts one service match at the given confidence tier.
func (p *PipelineMetrics) TierMatched(tier matching.ConfidenceTier) {
	p.app.MatchTierTotal.WithLabelValues(string(tier)).Inc()
}
