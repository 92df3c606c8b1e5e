package scoring

import (
	"github.com/turtacn/InstallBase-Insight/pkg/errors"
	leadtypes "github.com/turtacn/InstallBase-Insight/pkg/types/lead"
)

// Component is one weighted term of the overall score, kept for the audit
// breakdown so a reviewer can reproduce the arithmetic by hand.
type Component struct {
	Name         string  `json:"name"`
	Score        float64 `json:"score"`
	Weight       float64 `json:"weight"`
	Contribution float64 `json:"contribution"`
}

// Result is the outcome of scoring one lead: the combined score, its
// priority bucket, and the per-component breakdown.
type Result struct {
	Subscores  Subscores          `json:"subscores"`
	Overall    float64            `json:"overall"`
	Priority   leadtypes.Priority `json:"priority"`
	Components []Component        `json:"components"`
}

// Scorer combines the four sub-scores into an overall score using a fixed
// weighted linear model.  Construction validates weights and thresholds so
// scoring itself cannot fail on configuration.
type Scorer struct {
	weights    Weights
	thresholds Thresholds
}

// NewScorer validates the model configuration and returns a ready scorer.
// A miscalibrated model is a fatal configuration error: the engine must not
// start with it.
func NewScorer(w Weights, t Thresholds) (*Scorer, error) {
	if err := w.Validate(); err != nil {
		return nil, err
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return &Scorer{weights: w, thresholds: t}, nil
}

// NewDefaultScorer builds a scorer with the calibrated production model.
func NewDefaultScorer() *Scorer {
	s, err := NewScorer(DefaultWeights(), DefaultThresholds())
	if err != nil {
		// Defaults are constants validated by tests; this cannot happen.
		panic(err)
	}
	return s
}

// Weights returns the model weights in effect.
func (s *Scorer) Weights() Weights { return s.weights }

// Thresholds returns the priority thresholds in effect.
func (s *Scorer) Thresholds() Thresholds { return s.thresholds }

// Score combines the sub-scores into the overall score, rounded to one
// decimal place, and maps it to a priority bucket.  Sub-scores outside
// [0,100] are rejected: the calculators clamp, so an out-of-range value
// means a caller bypassed them.
func (s *Scorer) Score(sub Subscores) (Result, error) {
	if err := sub.Validate(); err != nil {
		return Result{}, errors.Wrap(err, errors.ErrCodeScoreOutOfRange, "refusing to score")
	}

	components := []Component{
		{Name: "urgency", Score: sub.Urgency, Weight: s.weights.Urgency},
		{Name: "value", Score: sub.Value, Weight: s.weights.Value},
		{Name: "propensity", Score: sub.Propensity, Weight: s.weights.Propensity},
		{Name: "strategic_fit", Score: sub.StrategicFit, Weight: s.weights.StrategicFit},
	}

	var sum float64
	for i := range components {
		components[i].Contribution = components[i].Score * components[i].Weight
		sum += components[i].Contribution
	}

	overall := round1(sum)
	return Result{
		Subscores:  sub,
		Overall:    overall,
		Priority:   s.thresholds.Priority(overall),
		Components: components,
	}, nil
}
