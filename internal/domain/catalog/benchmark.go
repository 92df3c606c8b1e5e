package catalog

import (
	"strings"

	"github.com/turtacn/InstallBase-Insight/internal/domain/inventory"
	"github.com/turtacn/InstallBase-Insight/pkg/errors"
)

// BenchmarkRule maps a product-family name pattern to a typical annual
// service value range.  Rules are evaluated in order; the first rule whose
// pattern is contained in the normalized product name wins.
type BenchmarkRule struct {
	// Pattern is a lowercase substring matched against the product name.
	Pattern string `json:"pattern"`

	// Family is the canonical product-family label reported in audit output.
	Family string `json:"family"`

	Range inventory.ValueRange `json:"range"`
}

// BenchmarkTable is a prioritized rule list with an explicit last-resort
// default range, so a value estimate is never absent downstream.
type BenchmarkTable struct {
	Rules   []BenchmarkRule      `json:"rules"`
	Default inventory.ValueRange `json:"default"`
}

// Validate checks every rule and the default range.
func (t *BenchmarkTable) Validate() error {
	if t == nil {
		return errors.New(errors.ErrCodeBenchmarkRuleInvalid, "benchmark table is nil")
	}
	for _, r := range t.Rules {
		if r.Pattern == "" || r.Family == "" {
			return errors.New(errors.ErrCodeBenchmarkRuleInvalid, "benchmark rule needs pattern and family")
		}
		if err := r.Range.Validate(); err != nil {
			return errors.Wrap(err, errors.ErrCodeBenchmarkRuleInvalid, "benchmark range invalid for "+r.Family)
		}
	}
	if err := t.Default.Validate(); err != nil {
		return errors.Wrap(err, errors.ErrCodeBenchmarkRuleInvalid, "benchmark default range invalid")
	}
	if t.Default.IsZero() {
		return errors.New(errors.ErrCodeBenchmarkRuleInvalid, "benchmark default range cannot be zero")
	}
	return nil
}

// Lookup resolves the annual value range for a product name.  The returned
// family is the matched rule's label, or "generic" when the default applied.
func (t *BenchmarkTable) Lookup(productName string) (inventory.ValueRange, string) {
	name := strings.ToLower(productName)
	for _, r := range t.Rules {
		if strings.Contains(name, r.Pattern) {
			return r.Range, r.Family
		}
	}
	return t.Default, "generic"
}

// DefaultBenchmarkTable returns the built-in family benchmarks.  Values are
// typical annual attach-service ranges per unit in USD; more specific
// families are listed before broader ones so that "poweredge" wins over a
// bare "server".
func DefaultBenchmarkTable() *BenchmarkTable {
	return &BenchmarkTable{
		Rules: []BenchmarkRule{
			{Pattern: "poweredge", Family: "PowerEdge Server", Range: inventory.NewValueRange(3000, 12000)},
			{Pattern: "proliant", Family: "ProLiant Server", Range: inventory.NewValueRange(3000, 12000)},
			{Pattern: "ucs", Family: "UCS Compute", Range: inventory.NewValueRange(4000, 15000)},
			{Pattern: "synergy", Family: "Synergy Composable", Range: inventory.NewValueRange(6000, 20000)},
			{Pattern: "nexus", Family: "Nexus Switch", Range: inventory.NewValueRange(2500, 10000)},
			{Pattern: "catalyst", Family: "Catalyst Switch", Range: inventory.NewValueRange(1500, 6000)},
			{Pattern: "mds", Family: "MDS SAN Switch", Range: inventory.NewValueRange(2000, 8000)},
			{Pattern: "big-ip", Family: "BIG-IP ADC", Range: inventory.NewValueRange(3500, 14000)},
			{Pattern: "asa", Family: "ASA Firewall", Range: inventory.NewValueRange(2000, 7500)},
			{Pattern: "powermax", Family: "PowerMax Array", Range: inventory.NewValueRange(15000, 60000)},
			{Pattern: "powerstore", Family: "PowerStore Array", Range: inventory.NewValueRange(8000, 30000)},
			{Pattern: "powervault", Family: "PowerVault Array", Range: inventory.NewValueRange(2500, 10000)},
			{Pattern: "unity", Family: "Unity Array", Range: inventory.NewValueRange(6000, 22000)},
			{Pattern: "isilon", Family: "Isilon NAS", Range: inventory.NewValueRange(8000, 28000)},
			{Pattern: "flasharray", Family: "FlashArray", Range: inventory.NewValueRange(9000, 32000)},
			{Pattern: "netapp", Family: "NetApp FAS/AFF", Range: inventory.NewValueRange(7000, 25000)},
			{Pattern: "3par", Family: "3PAR Array", Range: inventory.NewValueRange(6000, 20000)},
			{Pattern: "nimble", Family: "Nimble Array", Range: inventory.NewValueRange(4000, 16000)},
			{Pattern: "vxrail", Family: "VxRail HCI", Range: inventory.NewValueRange(7000, 26000)},
			{Pattern: "firewall", Family: "Firewall Appliance", Range: inventory.NewValueRange(2000, 7500)},
			{Pattern: "router", Family: "Branch Router", Range: inventory.NewValueRange(1200, 5000)},
			{Pattern: "switch", Family: "Network Switch", Range: inventory.NewValueRange(1200, 5000)},
			{Pattern: "storage", Family: "Storage Array", Range: inventory.NewValueRange(5000, 18000)},
			{Pattern: "server", Family: "x86 Server", Range: inventory.NewValueRange(2500, 9000)},
		},
		Default: inventory.NewValueRange(1500, 6000),
	}
}
