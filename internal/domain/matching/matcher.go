package matching

import (
	"github.com/turtacn/InstallBase-Insight/internal/domain/catalog"
	"github.com/turtacn/InstallBase-Insight/internal/domain/inventory"
	"github.com/turtacn/InstallBase-Insight/internal/infrastructure/monitoring/logging"
)

// TieredMatcher resolves a non-empty, confidence-ranked set of recommended
// services for an inventory record by trying its strategies in order and
// taking the first non-empty result.
//
// Match is a pure function over the immutable catalog; it never returns an
// error.  Inability to match at the exact or category tier is not a failure,
// it is the expected trigger for the next tier.
type TieredMatcher struct {
	strategies []Strategy
	logger     logging.Logger
}

// NewTieredMatcher constructs a matcher with the canonical strategy order.
func NewTieredMatcher(logger logging.Logger) *TieredMatcher {
	return NewTieredMatcherWithStrategies(logger, DefaultStrategies())
}

// NewTieredMatcherWithStrategies constructs a matcher with a custom strategy
// list, tried in the given order.
func NewTieredMatcherWithStrategies(logger logging.Logger, strategies []Strategy) *TieredMatcher {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &TieredMatcher{
		strategies: strategies,
		logger:     logger.Named("matcher"),
	}
}

// Match returns the ordered match list for rec.  The result is guaranteed
// non-empty: the fallback strategy has no precondition.  Should every
// strategy somehow return empty (an invariant violation, not a routine
// outcome), the matcher logs the violation and clamps to the built-in
// fallback set so the pipeline keeps total coverage.
func (m *TieredMatcher) Match(rec *inventory.InventoryRecord, cat *catalog.Catalog) []Match {
	for _, s := range m.strategies {
		if result := s.Attempt(rec, cat); len(result) > 0 {
			m.logger.Debug("matched record",
				logging.String("record_id", rec.ID),
				logging.String("strategy", s.Name()),
				logging.Int("services", len(result)),
				logging.Float64("confidence", result[0].Confidence),
			)
			return result
		}
	}

	// Clamp instead of failing: total pipeline coverage outweighs per-record
	// strictness in production paths.
	m.logger.Error("matcher produced empty result, clamping to built-in fallback",
		logging.String("record_id", rec.ID),
		logging.String("product_id", rec.ProductID),
	)
	fallback := catalog.DefaultFallbackServices()
	out := make([]Match, 0, len(fallback))
	for _, svc := range fallback {
		out = append(out, Match{Service: svc, Tier: TierFallback, Confidence: FallbackConfidence})
	}
	return out
}

// BestTier returns the strongest tier present in matches, or TierFallback for
// an empty slice.
func BestTier(matches []Match) ConfidenceTier {
	best := TierFallback
	for _, m := range matches {
		if m.Tier.Rank() > best.Rank() {
			best = m.Tier
		}
	}
	return best
}
