// Package matching implements the tiered product→service matcher: an ordered
// list of strategies (exact, category, fallback) tried in sequence, where the
// first non-empty result wins.  The fallback strategy has no precondition, so
// every inventory record resolves to at least one service.
package matching

import (
	"github.com/turtacn/InstallBase-Insight/internal/domain/catalog"
	"github.com/turtacn/InstallBase-Insight/internal/domain/inventory"
)

// ConfidenceTier describes how directly a matched service was derived from
// the record's product identity.  Tiers are strictly ordered: Exact
// confidence values always exceed Category, which always exceed Fallback.
type ConfidenceTier string

const (
	TierExact    ConfidenceTier = "exact"
	TierCategory ConfidenceTier = "category"
	TierFallback ConfidenceTier = "fallback"
)

// Rank returns the tier's position in the ordering, higher is stronger.
func (t ConfidenceTier) Rank() int {
	switch t {
	case TierExact:
		return 3
	case TierCategory:
		return 2
	case TierFallback:
		return 1
	}
	return 0
}

// Confidence bounds per tier.  The ranges are disjoint so that any exact
// match outranks any category match, and any category match outranks any
// fallback match.
const (
	ExactConfidenceMin = 80.0
	ExactConfidenceMax = 95.0
	CategoryConfidence = 65.0
	FallbackConfidence = 50.0
)

// Match is one recommended service with its derivation tier and confidence.
type Match struct {
	Service    catalog.ServiceCatalogEntry `json:"service"`
	Tier       ConfidenceTier              `json:"tier"`
	Confidence float64                     `json:"confidence"`
}

// Strategy attempts to resolve services for a record.  An empty result is not
// an error; it is the expected trigger for the next strategy in the list.
type Strategy interface {
	Name() string
	Attempt(rec *inventory.InventoryRecord, cat *catalog.Catalog) []Match
}

// exactStrategy looks the record's product identifier up directly in the
// catalog.  Confidence starts at the tier floor and is scaled upward by the
// textual similarity between the record's product name and the catalog's
// recorded name, never leaving [ExactConfidenceMin, ExactConfidenceMax].
type exactStrategy struct{}

func (exactStrategy) Name() string { return "exact" }

func (exactStrategy) Attempt(rec *inventory.InventoryRecord, cat *catalog.Catalog) []Match {
	mapping, ok := cat.LookupExact(rec.ProductID)
	if !ok || len(mapping.Services) == 0 {
		return nil
	}
	conf := ExactConfidenceMin + (ExactConfidenceMax-ExactConfidenceMin)*Similarity(rec.ProductName, mapping.ProductName)
	if conf < ExactConfidenceMin {
		conf = ExactConfidenceMin
	}
	if conf > ExactConfidenceMax {
		conf = ExactConfidenceMax
	}
	out := make([]Match, 0, len(mapping.Services))
	for _, svc := range mapping.Services {
		out = append(out, Match{Service: svc, Tier: TierExact, Confidence: conf})
	}
	return out
}

// categoryStrategy maps the record's platform to a catalog category and
// returns that category's generic services at fixed confidence.
type categoryStrategy struct{}

func (categoryStrategy) Name() string { return "category" }

func (categoryStrategy) Attempt(rec *inventory.InventoryRecord, cat *catalog.Catalog) []Match {
	svcs, ok := cat.LookupCategory(rec.Platform)
	if !ok || len(svcs) == 0 {
		return nil
	}
	out := make([]Match, 0, len(svcs))
	for _, svc := range svcs {
		out = append(out, Match{Service: svc, Tier: TierCategory, Confidence: CategoryConfidence})
	}
	return out
}

// fallbackStrategy returns the fixed generic service set at fixed confidence.
// It has no precondition and therefore guarantees coverage; when the catalog
// carries no fallback set the built-in default is used.
type fallbackStrategy struct{}

func (fallbackStrategy) Name() string { return "fallback" }

func (fallbackStrategy) Attempt(_ *inventory.InventoryRecord, cat *catalog.Catalog) []Match {
	svcs := cat.FallbackServices()
	if len(svcs) == 0 {
		svcs = catalog.DefaultFallbackServices()
	}
	out := make([]Match, 0, len(svcs))
	for _, svc := range svcs {
		out = append(out, Match{Service: svc, Tier: TierFallback, Confidence: FallbackConfidence})
	}
	return out
}

// DefaultStrategies returns the canonical ordered strategy list.  Adding a
// fourth tier is a pure extension of this slice.
func DefaultStrategies() []Strategy {
	return []Strategy{exactStrategy{}, categoryStrategy{}, fallbackStrategy{}}
}
