package scoring

import (
	"github.com/turtacn/InstallBase-Insight/internal/domain/catalog"
	"github.com/turtacn/InstallBase-Insight/internal/domain/inventory"
	"github.com/turtacn/InstallBase-Insight/pkg/errors"
)

// Value-basis labels reported in the audit trail, naming where an estimate
// came from.
const (
	BasisKnown     = "known"
	BasisBenchmark = "benchmark"
)

// maxQuantityFactor caps install-base quantity scaling of benchmark ranges.
// Very large fleets are usually covered by frame agreements, so linear
// scaling past this point overstates the attach opportunity.
const maxQuantityFactor = 10

// Estimator resolves the monetary value range of an opportunity, preferring
// a value known from the source system and falling back to per-family
// benchmarks scaled by install-base quantity.
type Estimator struct {
	benchmarks *catalog.BenchmarkTable
}

// NewEstimator builds an estimator over the given benchmark table, which is
// validated once here.  A nil table selects the built-in defaults.
func NewEstimator(table *catalog.BenchmarkTable) (*Estimator, error) {
	if table == nil {
		table = catalog.DefaultBenchmarkTable()
	}
	if err := table.Validate(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "benchmark table rejected")
	}
	return &Estimator{benchmarks: table}, nil
}

// Estimate returns the value range for a record together with the basis
// label: BasisKnown for source-system values, otherwise the matched
// benchmark family (BasisBenchmark plus the family name for the audit
// trail).  Benchmark ranges are per unit and scale with quantity up to
// maxQuantityFactor; known values are taken as-is.
func (e *Estimator) Estimate(rec *inventory.InventoryRecord) (inventory.ValueRange, string, string) {
	if rec.KnownValue != nil && !rec.KnownValue.IsZero() {
		return *rec.KnownValue, BasisKnown, ""
	}

	rng, family := e.benchmarks.Lookup(rec.ProductName)

	factor := int64(rec.Quantity)
	if factor < 1 {
		factor = 1
	}
	if factor > maxQuantityFactor {
		factor = maxQuantityFactor
	}
	return rng.Scale(factor), BasisBenchmark, family
}
