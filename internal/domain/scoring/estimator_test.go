package scoring

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/InstallBase-Insight/internal/domain/catalog"
	"github.com/turtacn/InstallBase-Insight/internal/domain/inventory"
)

func assertRange(t *testing.T, rng inventory.ValueRange, min, max int64) {
	t.Helper()
	assert.True(t, rng.Min.Equal(decimal.NewFromInt(min)), "min: want %d got %s", min, rng.Min)
	assert.True(t, rng.Max.Equal(decimal.NewFromInt(max)), "max: want %d got %s", max, rng.Max)
}

func TestEstimator_KnownValueWins(t *testing.T) {
	est, err := NewEstimator(nil)
	require.NoError(t, err)

	known := inventory.NewValueRange(42_000, 55_000)
	rec := &inventory.InventoryRecord{ProductName: "PowerEdge R740", Quantity: 8, KnownValue: &known}

	rng, basis, family := est.Estimate(rec)
	assert.Equal(t, BasisKnown, basis)
	assert.Empty(t, family)
	assertRange(t, rng, 42_000, 55_000)
}

func TestEstimator_ZeroKnownValueFallsThrough(t *testing.T) {
	est, err := NewEstimator(nil)
	require.NoError(t, err)

	zero := inventory.ValueRange{}
	rec := &inventory.InventoryRecord{ProductName: "PowerEdge R740", Quantity: 1, KnownValue: &zero}

	_, basis, family := est.Estimate(rec)
	assert.Equal(t, BasisBenchmark, basis)
	assert.Equal(t, "PowerEdge Server", family)
}

func TestEstimator_BenchmarkScalesByQuantity(t *testing.T) {
	est, err := NewEstimator(nil)
	require.NoError(t, err)

	rec := &inventory.InventoryRecord{ProductName: "Dell PowerEdge R750", Quantity: 2}
	rng, basis, family := est.Estimate(rec)
	assert.Equal(t, BasisBenchmark, basis)
	assert.Equal(t, "PowerEdge Server", family)
	assertRange(t, rng, 6_000, 24_000)
}

func TestEstimator_QuantityFactorCapped(t *testing.T) {
	est, err := NewEstimator(nil)
	require.NoError(t, err)

	rec := &inventory.InventoryRecord{ProductName: "PowerEdge R650", Quantity: 50}
	rng, _, _ := est.Estimate(rec)
	assertRange(t, rng, 30_000, 120_000)
}

func TestEstimator_ZeroQuantityScalesAsOne(t *testing.T) {
	est, err := NewEstimator(nil)
	require.NoError(t, err)

	rec := &inventory.InventoryRecord{ProductName: "Catalyst 9300", Quantity: 0}
	rng, _, family := est.Estimate(rec)
	assert.Equal(t, "Catalyst Switch", family)
	assertRange(t, rng, 1_500, 6_000)
}

func TestEstimator_UnknownProductUsesDefault(t *testing.T) {
	est, err := NewEstimator(nil)
	require.NoError(t, err)

	rec := &inventory.InventoryRecord{ProductName: "Frobnicator 9000", Quantity: 1}
	rng, basis, family := est.Estimate(rec)
	assert.Equal(t, BasisBenchmark, basis)
	assert.Equal(t, "generic", family)
	assertRange(t, rng, 1_500, 6_000)
}

func TestNewEstimator_RejectsInvalidTable(t *testing.T) {
	bad := &catalog.BenchmarkTable{
		Rules:   []catalog.BenchmarkRule{{Pattern: "", Family: "nameless"}},
		Default: inventory.NewValueRange(1, 2),
	}
	_, err := NewEstimator(bad)
	assert.Error(t, err)
}
