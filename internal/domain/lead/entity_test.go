package lead

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/InstallBase-Insight/internal/domain/inventory"
	"github.com/turtacn/InstallBase-Insight/internal/domain/matching"
	"github.com/turtacn/InstallBase-Insight/internal/domain/scoring"
	"github.com/turtacn/InstallBase-Insight/pkg/errors"
	"github.com/turtacn/InstallBase-Insight/pkg/types/common"
	leadtypes "github.com/turtacn/InstallBase-Insight/pkg/types/lead"
)

func validLead() *Lead {
	return &Lead{
		ID:          common.NewID(),
		RunID:       common.NewID(),
		AccountID:   "ACME",
		RecordID:    "rec-1",
		ProductName: "PowerEdge R740",
		Type:        leadtypes.TypeHardwareRefresh,
		Tier:        matching.TierExact,
		Services: []RecommendedService{
			{Name: "Server Refresh Assessment", SKU: "SVC-REFRESH-02", Practice: "compute", Tier: matching.TierExact, Confidence: 92},
		},
		EstimatedValue: inventory.NewValueRange(6000, 24000),
		ValueBasis:     "benchmark",
		Subscores:      scoring.Subscores{Urgency: 80, Value: 70, Propensity: 60, StrategicFit: 50},
		Overall:        68.5,
		Priority:       leadtypes.PriorityHigh,
		CreatedAt:      time.Now().UTC(),
	}
}

func TestLead_Validate(t *testing.T) {
	assert.NoError(t, validLead().Validate())
}

func TestLead_ValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Lead)
		code   errors.ErrorCode
	}{
		{"missing run", func(l *Lead) { l.RunID = "" }, errors.ErrCodeLeadInvalid},
		{"missing account", func(l *Lead) { l.AccountID = "" }, errors.ErrCodeLeadInvalid},
		{"bad type", func(l *Lead) { l.Type = "upsell" }, errors.ErrCodeLeadInvalid},
		{"bad priority", func(l *Lead) { l.Priority = "URGENT" }, errors.ErrCodeLeadInvalid},
		{"no services", func(l *Lead) { l.Services = nil }, errors.ErrCodeEmptyMatchResult},
		{"overall out of range", func(l *Lead) { l.Overall = 101 }, errors.ErrCodeScoreOutOfRange},
		{"subscore out of range", func(l *Lead) { l.Subscores.Urgency = -1 }, errors.ErrCodeScoreOutOfRange},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			l := validLead()
			tc.mutate(l)
			err := l.Validate()
			require.Error(t, err)
			assert.True(t, errors.IsCode(err, tc.code), "got %v", err)
		})
	}
}

func TestRun_Lifecycle(t *testing.T) {
	started := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	run := NewRun(120, 14, started)
	require.Equal(t, RunRunning, run.Status)
	assert.Zero(t, run.Duration())

	high := validLead()
	critical := validLead()
	critical.Priority = leadtypes.PriorityCritical
	critical.Type = leadtypes.TypeRenewal

	finished := started.Add(3 * time.Second)
	run.Complete([]*Lead{high, critical}, []*AccountInsight{{Kind: InsightCrossSell}}, finished)

	assert.Equal(t, RunCompleted, run.Status)
	assert.Equal(t, 2, run.LeadCount)
	assert.Equal(t, 1, run.InsightCount)
	assert.Equal(t, 1, run.LeadsByPriority["HIGH"])
	assert.Equal(t, 1, run.LeadsByPriority["CRITICAL"])
	assert.Equal(t, 1, run.LeadsByType["renewal"])
	assert.Equal(t, 3*time.Second, run.Duration())
}

func TestRun_Fail(t *testing.T) {
	started := time.Now().UTC()
	run := NewRun(10, 2, started)
	run.Fail(errors.New(errors.ErrCodeBatchReplaceFailed, "replace aborted"), started.Add(time.Second))
	assert.Equal(t, RunFailed, run.Status)
	assert.Contains(t, run.Error, "replace aborted")
}
