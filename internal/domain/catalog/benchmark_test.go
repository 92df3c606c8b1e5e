package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/InstallBase-Insight/internal/domain/inventory"
)

func TestDefaultBenchmarkTable_Valid(t *testing.T) {
	tbl := DefaultBenchmarkTable()
	require.NoError(t, tbl.Validate())
	assert.GreaterOrEqual(t, len(tbl.Rules), 15, "table must cover at least 15 known families")
}

func TestBenchmarkTable_Lookup(t *testing.T) {
	tbl := DefaultBenchmarkTable()

	tests := []struct {
		name       string
		wantFamily string
	}{
		{"Dell PowerEdge R740", "PowerEdge Server"},
		{"HPE ProLiant DL380 Gen10", "ProLiant Server"},
		{"Cisco Nexus 9300", "Nexus Switch"},
		{"Pure FlashArray //X70", "FlashArray"},
		{"NetApp AFF A400", "NetApp FAS/AFF"},
		{"Some Random Appliance", "generic"},
	}
	for _, tt := range tests {
		rng, family := tbl.Lookup(tt.name)
		assert.Equal(t, tt.wantFamily, family, "product: %s", tt.name)
		assert.False(t, rng.IsZero(), "range must never be absent")
		assert.NoError(t, rng.Validate())
	}
}

func TestBenchmarkTable_OrderMatters(t *testing.T) {
	// "PowerEdge server" contains both "poweredge" and "server"; the more
	// specific rule is listed first and must win.
	rng, family := DefaultBenchmarkTable().Lookup("PowerEdge server node")
	assert.Equal(t, "PowerEdge Server", family)
	assert.True(t, rng.Max.Equal(inventory.NewValueRange(3000, 12000).Max))
}

func TestBenchmarkTable_Validate_Rejects(t *testing.T) {
	bad := &BenchmarkTable{
		Rules:   []BenchmarkRule{{Pattern: "", Family: "x", Range: inventory.NewValueRange(1, 2)}},
		Default: inventory.NewValueRange(1, 2),
	}
	assert.Error(t, bad.Validate())

	zeroDefault := &BenchmarkTable{Default: inventory.ValueRange{}}
	assert.Error(t, zeroDefault.Validate())

	var nilTable *BenchmarkTable
	assert.Error(t, nilTable.Validate())
}
