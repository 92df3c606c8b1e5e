package prometheus

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/InstallBase-Insight/internal/domain/lead"
	"github.com/turtacn/InstallBase-Insight/internal/domain/matching"
	"github.com/turtacn/InstallBase-Insight/internal/infrastructure/monitoring/logging"
)

func newTestCollector(t *testing.T) MetricsCollector {
	t.Helper()
	c, err := NewMetricsCollector(CollectorConfig{Namespace: "ibi"}, logging.NewNopLogger())
	require.NoError(t, err)
	return c
}

func scrape(t *testing.T, c MetricsCollector) string {
	t.Helper()
	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	return string(body)
}

func TestNewMetricsCollector_RequiresNamespace(t *testing.T) {
	_, err := NewMetricsCollector(CollectorConfig{}, logging.NewNopLogger())
	assert.Error(t, err)
}

func TestCollector_CounterRoundtrip(t *testing.T) {
	c := newTestCollector(t)

	counter := c.RegisterCounter("test_events_total", "test", "kind")
	counter.WithLabelValues("a").Inc()
	counter.WithLabelValues("a").Add(2)

	body := scrape(t, c)
	assert.Contains(t, body, `ibi_test_events_total{kind="a"} 3`)
}

func TestCollector_DuplicateRegistrationReturnsSame(t *testing.T) {
	c := newTestCollector(t)

	first := c.RegisterCounter("dup_total", "test", "kind")
	second := c.RegisterCounter("dup_total", "test", "kind")
	first.WithLabelValues("x").Inc()
	second.WithLabelValues("x").Inc()

	body := scrape(t, c)
	assert.Contains(t, body, `ibi_dup_total{kind="x"} 2`)
}

func TestAppMetrics_RegistersFamilies(t *testing.T) {
	c := newTestCollector(t)
	m := NewAppMetrics(c)

	m.MatchTierTotal.WithLabelValues("exact").Inc()
	m.HealthCheckStatus.WithLabelValues("postgres").Set(1)

	body := scrape(t, c)
	assert.Contains(t, body, `ibi_match_tier_total{tier="exact"} 1`)
	assert.Contains(t, body, `ibi_health_check_status{component="postgres"} 1`)
}

func TestPipelineMetrics_RunObserved(t *testing.T) {
	c := newTestCollector(t)
	pm := NewPipelineMetrics(NewAppMetrics(c))

	started := time.Now().UTC().Add(-3 * time.Second)
	run := lead.NewRun(10, 2, started)
	run.LeadsByPriority = map[string]int{"HIGH": 4}
	run.LeadsByType = map[string]int{"renewal": 4}
	run.Status = lead.RunCompleted
	finished := time.Now().UTC()
	run.FinishedAt = &finished

	pm.RunObserved(run)
	pm.TierMatched(matching.TierExact)

	body := scrape(t, c)
	assert.Contains(t, body, `ibi_pipeline_runs_total{status="completed"} 1`)
	assert.Contains(t, body, `ibi_leads_generated_total{lead_type="all",priority="HIGH"} 4`)
	assert.Contains(t, body, `ibi_leads_generated_total{lead_type="renewal",priority="all"} 4`)
}

func TestTimer_ObservesDuration(t *testing.T) {
	c := newTestCollector(t)
	hist := c.RegisterHistogram("op_duration_seconds", "test", nil, "op")

	timer := NewTimer(hist.WithLabelValues("load"))
	timer.ObserveDuration()

	body := scrape(t, c)
	assert.Contains(t, body, `ibi_op_duration_seconds_count{op="load"} 1`)
}

func TestTimer_NilHistogramIsNoop(t *testing.T) {
	timer := NewTimer(nil)
	assert.NotPanics(t, timer.ObserveDuration)
}
