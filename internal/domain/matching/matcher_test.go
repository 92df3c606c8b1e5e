package matching

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/InstallBase-Insight/internal/domain/catalog"
	"github.com/turtacn/InstallBase-Insight/internal/domain/inventory"
	"github.com/turtacn/InstallBase-Insight/internal/infrastructure/monitoring/logging"
)

func testCatalog() *catalog.Catalog {
	return &catalog.Catalog{
		Exact: map[string]catalog.ExactMapping{
			"r740": {
				ProductID:   "R740",
				ProductName: "PowerEdge R740",
				Services: []catalog.ServiceCatalogEntry{
					{Name: "Server Refresh Assessment", SKU: "SVC-REFRESH-02"},
					{Name: "Migration Planning", SKU: "SVC-MIG-01"},
				},
			},
		},
		Category: map[string][]catalog.ServiceCatalogEntry{
			"compute": {{Name: "Compute Modernization Workshop", SKU: "SVC-COMP-01"}},
		},
		Fallback: catalog.DefaultFallbackServices(),
	}
}

func record(productID, productName, platform string) *inventory.InventoryRecord {
	return &inventory.InventoryRecord{
		ID:          "REC-" + productID + platform,
		AccountID:   "ACME",
		ProductID:   productID,
		ProductName: productName,
		Platform:    platform,
		Quantity:    1,
	}
}

func TestMatch_ExactTier(t *testing.T) {
	m := NewTieredMatcher(logging.NewNopLogger())
	matches := m.Match(record("R740", "PowerEdge R740", "compute"), testCatalog())

	require.Len(t, matches, 2)
	for _, match := range matches {
		assert.Equal(t, TierExact, match.Tier)
		assert.GreaterOrEqual(t, match.Confidence, ExactConfidenceMin)
		assert.LessOrEqual(t, match.Confidence, ExactConfidenceMax)
	}
	// Identical names: confidence at the top of the exact band.
	assert.InDelta(t, ExactConfidenceMax, matches[0].Confidence, 1e-9)
}

func TestMatch_ExactTier_DissimilarNameStaysAtFloor(t *testing.T) {
	m := NewTieredMatcher(logging.NewNopLogger())
	matches := m.Match(record("R740", "totally different label", "compute"), testCatalog())

	require.NotEmpty(t, matches)
	assert.Equal(t, TierExact, matches[0].Tier)
	assert.GreaterOrEqual(t, matches[0].Confidence, ExactConfidenceMin)
	assert.Less(t, matches[0].Confidence, CategoryConfidence+30) // still an exact-band value
}

func TestMatch_CategoryTier(t *testing.T) {
	m := NewTieredMatcher(logging.NewNopLogger())
	matches := m.Match(record("UNKNOWN-1", "Mystery Box", "compute"), testCatalog())

	require.Len(t, matches, 1)
	assert.Equal(t, TierCategory, matches[0].Tier)
	assert.Equal(t, CategoryConfidence, matches[0].Confidence)
}

func TestMatch_FallbackTier(t *testing.T) {
	m := NewTieredMatcher(logging.NewNopLogger())
	matches := m.Match(record("UNKNOWN-1", "Mystery Box", "mainframe"), testCatalog())

	require.NotEmpty(t, matches)
	for _, match := range matches {
		assert.Equal(t, TierFallback, match.Tier)
		assert.Equal(t, FallbackConfidence, match.Confidence)
	}
}

func TestMatch_NeverEmpty(t *testing.T) {
	m := NewTieredMatcher(logging.NewNopLogger())

	// Even a pathologically empty catalog must yield matches: full coverage
	// is the matcher's core invariant.
	empty := &catalog.Catalog{}
	records := []*inventory.InventoryRecord{
		record("", "", ""),
		record("NOPE", "No Such Thing", "quantum"),
		record("R740", "PowerEdge R740", "compute"),
	}
	for i, rec := range records {
		assert.NotEmpty(t, m.Match(rec, empty), "record %d", i)
		assert.NotEmpty(t, m.Match(rec, testCatalog()), "record %d", i)
	}
}

func TestMatch_TierOrderingInvariant(t *testing.T) {
	m := NewTieredMatcher(logging.NewNopLogger())
	cat := testCatalog()

	exact := m.Match(record("R740", "PowerEdge R740", "compute"), cat)
	category := m.Match(record("X", "X", "compute"), cat)
	fallback := m.Match(record("X", "X", "none"), cat)

	assert.Greater(t, exact[0].Confidence, category[0].Confidence)
	assert.Greater(t, category[0].Confidence, fallback[0].Confidence)
}

func TestMatch_CustomStrategyOrder(t *testing.T) {
	// A strategy list without fallback still gets clamped coverage.
	m := NewTieredMatcherWithStrategies(logging.NewNopLogger(), []Strategy{exactStrategy{}})
	matches := m.Match(record("MISSING", "x", "y"), testCatalog())
	require.NotEmpty(t, matches)
	assert.Equal(t, TierFallback, matches[0].Tier)
}

func TestBestTier(t *testing.T) {
	assert.Equal(t, TierFallback, BestTier(nil))
	assert.Equal(t, TierExact, BestTier([]Match{
		{Tier: TierFallback}, {Tier: TierExact}, {Tier: TierCategory},
	}))
}

func TestMatch_Deterministic(t *testing.T) {
	m := NewTieredMatcher(logging.NewNopLogger())
	cat := testCatalog()
	rec := record("R740", "PowerEdge R740", "compute")

	first := m.Match(rec, cat)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, m.Match(rec, cat), "iteration %d", i)
	}
}

func ExampleTieredMatcher_Match() {
	m := NewTieredMatcher(logging.NewNopLogger())
	matches := m.Match(record("R740", "PowerEdge R740", "compute"), testCatalog())
	fmt.Println(matches[0].Tier, matches[0].Service.SKU)
	// Output: exact SVC-REFRESH-02
}
