// Package lead defines the Lead aggregate produced by the recommendation
// pipeline, the account-level insight records, the pipeline run record, and
// the repository contracts their persistence implements.
package lead

import (
	"time"

	"github.com/turtacn/InstallBase-Insight/internal/domain/inventory"
	"github.com/turtacn/InstallBase-Insight/internal/domain/matching"
	"github.com/turtacn/InstallBase-Insight/internal/domain/scoring"
	"github.com/turtacn/InstallBase-Insight/pkg/errors"
	"github.com/turtacn/InstallBase-Insight/pkg/types/common"
	leadtypes "github.com/turtacn/InstallBase-Insight/pkg/types/lead"
)

// RecommendedService is one catalog service attached to a lead, carrying the
// confidence of the match that produced it.
type RecommendedService struct {
	Name       string                  `json:"name"`
	SKU        string                  `json:"sku"`
	Practice   string                  `json:"practice"`
	Tier       matching.ConfidenceTier `json:"tier"`
	Confidence float64                 `json:"confidence"`
}

// Lead is one actionable recommendation derived from a single inventory
// record during a pipeline run.  Leads are immutable once produced; a new
// run replaces the previous set wholesale.
type Lead struct {
	ID        common.ID        `json:"id"`
	RunID     common.ID        `json:"run_id"`
	AccountID common.AccountID `json:"account_id"`
	RecordID  string           `json:"record_id"`

	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name"`

	Type     leadtypes.Type          `json:"type"`
	Tier     matching.ConfidenceTier `json:"tier"`
	Services []RecommendedService    `json:"services"`

	EstimatedValue  inventory.ValueRange `json:"estimated_value"`
	ValueBasis      string               `json:"value_basis"`
	BenchmarkFamily string               `json:"benchmark_family,omitempty"`
	UrgencyBasis    scoring.UrgencyBasis `json:"urgency_basis"`

	Subscores scoring.Subscores  `json:"subscores"`
	Overall   float64            `json:"overall"`
	Priority  leadtypes.Priority `json:"priority"`

	CreatedAt time.Time `json:"created_at"`
}

// Validate checks the invariants every persisted lead must hold.
func (l *Lead) Validate() error {
	if l.ID == "" || l.RunID == "" {
		return errors.New(errors.ErrCodeLeadInvalid, "lead requires id and run id")
	}
	if l.AccountID == "" || l.RecordID == "" {
		return errors.New(errors.ErrCodeLeadInvalid, "lead requires account and record identity")
	}
	if !l.Type.Valid() {
		return errors.New(errors.ErrCodeLeadInvalid, "unknown lead type "+string(l.Type))
	}
	if !l.Priority.Valid() {
		return errors.New(errors.ErrCodeLeadInvalid, "unknown priority "+string(l.Priority))
	}
	if len(l.Services) == 0 {
		return errors.New(errors.ErrCodeEmptyMatchResult, "lead carries no recommended services")
	}
	if l.Overall < 0 || l.Overall > 100 {
		return errors.New(errors.ErrCodeScoreOutOfRange, "overall score outside [0,100]")
	}
	return l.Subscores.Validate()
}

// Insight kinds attached to accounts by the aggregator.
const (
	InsightCrossSell          = "cross_sell"
	InsightCreditOptimization = "credit_optimization"
)

// AccountInsight is an account-level observation produced alongside leads:
// cross-sell concentration or under-used service credits.
type AccountInsight struct {
	ID        common.ID        `json:"id"`
	RunID     common.ID        `json:"run_id"`
	AccountID common.AccountID `json:"account_id"`
	Kind      string           `json:"kind"`

	// Detail carries kind-specific measurements, e.g. the dominant category
	// and its concentration for cross-sell, or the utilization ratio for
	// credit optimization.
	Detail map[string]any `json:"detail,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// RunStatus is the lifecycle state of a pipeline run.
type RunStatus string

const (
	RunRunning   RunStatus = "running"
	RunCompleted RunStatus = "completed"
	RunFailed    RunStatus = "failed"
)

// Run is the record of one pipeline execution: what went in, what came out,
// and when.  Count maps are keyed by the string form of the enum.
type Run struct {
	ID         common.ID  `json:"id"`
	Status     RunStatus  `json:"status"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`

	RecordCount  int `json:"record_count"`
	AccountCount int `json:"account_count"`
	LeadCount    int `json:"lead_count"`
	InsightCount int `json:"insight_count"`

	LeadsByPriority map[string]int `json:"leads_by_priority,omitempty"`
	LeadsByType     map[string]int `json:"leads_by_type,omitempty"`

	Error string `json:"error,omitempty"`
}

// NewRun starts a run record in the running state.
func NewRun(recordCount, accountCount int, now time.Time) *Run {
	return &Run{
		ID:           common.NewID(),
		Status:       RunRunning,
		StartedAt:    now,
		RecordCount:  recordCount,
		AccountCount: accountCount,
	}
}

// Complete marks the run finished and tallies the produced leads.
func (r *Run) Complete(leads []*Lead, insights []*AccountInsight, now time.Time) {
	r.Status = RunCompleted
	r.FinishedAt = &now
	r.LeadCount = len(leads)
	r.InsightCount = len(insights)
	r.LeadsByPriority = make(map[string]int)
	r.LeadsByType = make(map[string]int)
	for _, l := range leads {
		r.LeadsByPriority[string(l.Priority)]++
		r.LeadsByType[string(l.Type)]++
	}
}

// Fail marks the run failed with the given cause.
func (r *Run) Fail(err error, now time.Time) {
	r.Status = RunFailed
	r.FinishedAt = &now
	if err != nil {
		r.Error = err.Error()
	}
}

// Duration returns the wall-clock run time, zero while still running.
func (r *Run) Duration() time.Duration {
	if r.FinishedAt == nil {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}
