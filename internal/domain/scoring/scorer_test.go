package scoring

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/InstallBase-Insight/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/InstallBase-Insight/pkg/errors"
	leadtypes "github.com/turtacn/InstallBase-Insight/pkg/types/lead"
)

func TestNewScorer_RejectsBadWeights(t *testing.T) {
	_, err := NewScorer(Weights{Urgency: 0.5, Value: 0.2, Propensity: 0.1, StrategicFit: 0.1}, DefaultThresholds())
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeWeightsNotNormalized))
}

func TestNewScorer_RejectsBadThresholds(t *testing.T) {
	_, err := NewScorer(DefaultWeights(), Thresholds{Critical: 40, High: 60, Medium: 75})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeThresholdsNotOrdered))
}

func TestScorer_WeightedCombination(t *testing.T) {
	s := NewDefaultScorer()

	res, err := s.Score(Subscores{Urgency: 80, Value: 70, Propensity: 60, StrategicFit: 50})
	require.NoError(t, err)

	// 0.35*80 + 0.30*70 + 0.20*60 + 0.15*50 = 68.5
	assert.Equal(t, 68.5, res.Overall)
	assert.Equal(t, leadtypes.PriorityHigh, res.Priority)

	require.Len(t, res.Components, 4)
	var sum float64
	for _, c := range res.Components {
		assert.Equal(t, c.Score*c.Weight, c.Contribution, c.Name)
		sum += c.Contribution
	}
	assert.Equal(t, res.Overall, round1(sum))
}

func TestScorer_SaturatedInputs(t *testing.T) {
	s := NewDefaultScorer()

	res, err := s.Score(Subscores{Urgency: 100, Value: 100, Propensity: 100, StrategicFit: 100})
	require.NoError(t, err)
	assert.Equal(t, 100.0, res.Overall)
	assert.Equal(t, leadtypes.PriorityCritical, res.Priority)

	res, err = s.Score(Subscores{})
	require.NoError(t, err)
	assert.Equal(t, 0.0, res.Overall)
	assert.Equal(t, leadtypes.PriorityLow, res.Priority)
}

func TestScorer_RejectsOutOfRangeSubscore(t *testing.T) {
	s := NewDefaultScorer()
	_, err := s.Score(Subscores{Urgency: 120})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeScoreOutOfRange))
}

func TestScorer_CustomThresholdsShiftPriority(t *testing.T) {
	s, err := NewScorer(DefaultWeights(), Thresholds{Critical: 65, High: 50, Medium: 30})
	require.NoError(t, err)

	res, err := s.Score(Subscores{Urgency: 80, Value: 70, Propensity: 60, StrategicFit: 50})
	require.NoError(t, err)
	assert.Equal(t, leadtypes.PriorityCritical, res.Priority)
}

func TestAuditSinks(t *testing.T) {
	entry := AuditEntry{
		RecordID:   "rec-1",
		MatchTier:  "exact",
		ValueBasis: BasisBenchmark,
		Result:     Result{Overall: 68.5, Priority: leadtypes.PriorityHigh},
	}

	// Both sinks must accept entries without panicking.
	NewNopAuditSink().Record(context.Background(), entry)
	NewLogAuditSink(logging.NewNopLogger()).Record(context.Background(), entry)
}
