// Package scoring implements the lead scoring model: the four sub-score
// calculators (urgency, value, propensity, strategic fit), the value
// estimator, and the weighted scorer that combines them into an overall
// score and a discrete priority.
//
// The model is deterministic and rule-driven.  Weights and priority
// thresholds are configuration, validated once at construction; scoring
// itself is a pure function over the record and account snapshot.
package scoring

import (
	"fmt"
	"math"

	"github.com/turtacn/InstallBase-Insight/pkg/errors"
	leadtypes "github.com/turtacn/InstallBase-Insight/pkg/types/lead"
)

// weightTolerance is the acceptable floating-point drift when checking that
// weights sum to 1.0.
const weightTolerance = 1e-6

// Weights is the fixed linear model applied to the four sub-scores.
// The weights must sum to 1.0; anything else is a fatal configuration error.
type Weights struct {
	Urgency      float64 `mapstructure:"urgency" json:"urgency"`
	Value        float64 `mapstructure:"value" json:"value"`
	Propensity   float64 `mapstructure:"propensity" json:"propensity"`
	StrategicFit float64 `mapstructure:"strategic_fit" json:"strategic_fit"`
}

// DefaultWeights returns the calibrated production weights.
func DefaultWeights() Weights {
	return Weights{
		Urgency:      0.35,
		Value:        0.30,
		Propensity:   0.20,
		StrategicFit: 0.15,
	}
}

// Validate checks that every weight is non-negative and that the weights sum
// to 1.0 within tolerance.  The engine refuses to score with a miscalibrated
// model, so this runs exactly once at construction, not per call.
func (w Weights) Validate() error {
	for name, v := range map[string]float64{
		"urgency":       w.Urgency,
		"value":         w.Value,
		"propensity":    w.Propensity,
		"strategic_fit": w.StrategicFit,
	} {
		if v < 0 {
			return errors.New(errors.ErrCodeWeightsNotNormalized,
				fmt.Sprintf("weight %s must be non-negative, got %v", name, v))
		}
	}
	sum := w.Urgency + w.Value + w.Propensity + w.StrategicFit
	if math.Abs(sum-1.0) > weightTolerance {
		return errors.New(errors.ErrCodeWeightsNotNormalized,
			fmt.Sprintf("weights must sum to 1.0, got %.6f", sum))
	}
	return nil
}

// Thresholds defines the inclusive lower bounds of the priority buckets.
// The buckets are contiguous and exhaustive over [0,100]:
//
//	overall ≥ Critical          → CRITICAL
//	High ≤ overall < Critical   → HIGH
//	Medium ≤ overall < High     → MEDIUM
//	overall < Medium            → LOW
type Thresholds struct {
	Critical float64 `mapstructure:"critical" json:"critical"`
	High     float64 `mapstructure:"high" json:"high"`
	Medium   float64 `mapstructure:"medium" json:"medium"`
}

// DefaultThresholds returns the calibrated production thresholds.
func DefaultThresholds() Thresholds {
	return Thresholds{Critical: 75, High: 60, Medium: 40}
}

// Validate checks that thresholds are strictly decreasing and partition
// [0,100] without gaps.
func (t Thresholds) Validate() error {
	if !(t.Critical > t.High && t.High > t.Medium) {
		return errors.New(errors.ErrCodeThresholdsNotOrdered,
			fmt.Sprintf("thresholds must be strictly decreasing: critical=%v high=%v medium=%v",
				t.Critical, t.High, t.Medium))
	}
	if t.Critical > 100 || t.Medium <= 0 {
		return errors.New(errors.ErrCodeThresholdsNotOrdered,
			"thresholds must lie inside (0,100]")
	}
	return nil
}

// Priority maps an overall score to its bucket.
func (t Thresholds) Priority(overall float64) leadtypes.Priority {
	switch {
	case overall >= t.Critical:
		return leadtypes.PriorityCritical
	case overall >= t.High:
		return leadtypes.PriorityHigh
	case overall >= t.Medium:
		return leadtypes.PriorityMedium
	default:
		return leadtypes.PriorityLow
	}
}

// Subscores carries the four component scores of one lead, each in [0,100].
type Subscores struct {
	Urgency      float64 `json:"urgency"`
	Value        float64 `json:"value"`
	Propensity   float64 `json:"propensity"`
	StrategicFit float64 `json:"strategic_fit"`
}

// Validate reports the first component outside [0,100], if any.
func (s Subscores) Validate() error {
	for name, v := range map[string]float64{
		"urgency":       s.Urgency,
		"value":         s.Value,
		"propensity":    s.Propensity,
		"strategic_fit": s.StrategicFit,
	} {
		if v < 0 || v > 100 {
			return errors.New(errors.ErrCodeScoreOutOfRange,
				fmt.Sprintf("sub-score %s out of [0,100]: %v", name, v))
		}
	}
	return nil
}

// clamp100 bounds v to [0,100].
func clamp100(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// round1 rounds to one decimal place, the precision of the overall score.
func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
