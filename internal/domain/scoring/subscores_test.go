package scoring

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/InstallBase-Insight/internal/domain/inventory"
	leadtypes "github.com/turtacn/InstallBase-Insight/pkg/types/lead"
)

var scoringNow = time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

func datePtr(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func TestUrgencyScore_LongPastEOLAndLapsedSupport(t *testing.T) {
	// Six years past EOL with support lapsed two years ago saturates at 100.
	rec := &inventory.InventoryRecord{
		EOLDate:       datePtr(2020, 6, 1),
		SupportStatus: inventory.SupportExpired,
		SupportExpiry: datePtr(2024, 6, 1),
	}
	assert.Equal(t, 100.0, UrgencyScore(rec, scoringNow))
}

func TestUrgencyScore_DecadePastEOLAlone(t *testing.T) {
	// A record ten years past end-of-life is maximally urgent even with no
	// support signals on record.
	rec := &inventory.InventoryRecord{
		EOLDate:       datePtr(2016, 6, 1),
		SupportStatus: inventory.SupportUnknown,
	}
	assert.Equal(t, 100.0, UrgencyScore(rec, scoringNow))
}

func TestUrgencyScore_TwoYearsPastEOLOnly(t *testing.T) {
	rec := &inventory.InventoryRecord{
		EOLDate:       datePtr(2024, 6, 1),
		SupportStatus: inventory.SupportActive,
	}
	assert.Equal(t, 60.0, UrgencyScore(rec, scoringNow))
}

func TestUrgencyScore_UpcomingEOL(t *testing.T) {
	rec := &inventory.InventoryRecord{
		EOLDate:       datePtr(2026, 12, 1),
		SupportStatus: inventory.SupportActive,
	}
	assert.Equal(t, 40.0, UrgencyScore(rec, scoringNow))
}

func TestUrgencyScore_SupportExpiringSoon(t *testing.T) {
	rec := &inventory.InventoryRecord{
		SupportStatus: inventory.SupportActive,
		SupportExpiry: datePtr(2026, 7, 15),
	}
	assert.Equal(t, 40.0, UrgencyScore(rec, scoringNow))
}

func TestUrgencyScore_ExpiredStatusWithoutDate(t *testing.T) {
	rec := &inventory.InventoryRecord{SupportStatus: inventory.SupportExpired}
	assert.Equal(t, 45.0, UrgencyScore(rec, scoringNow))
}

func TestUrgencyScore_NoSignals(t *testing.T) {
	rec := &inventory.InventoryRecord{SupportStatus: inventory.SupportUnknown}
	assert.Equal(t, 30.0, UrgencyScore(rec, scoringNow))
}

func TestNewUrgencyBasis(t *testing.T) {
	rec := &inventory.InventoryRecord{
		EOLDate:       datePtr(2024, 6, 1),
		SupportExpiry: datePtr(2026, 7, 1),
	}
	basis := NewUrgencyBasis(rec, scoringNow)
	assert.Equal(t, 730, basis.DaysPastEOL)
	require.NotNil(t, basis.DaysToSupportExpiry)
	assert.Equal(t, 30, *basis.DaysToSupportExpiry)
}

func TestNewUrgencyBasis_UnknownDates(t *testing.T) {
	basis := NewUrgencyBasis(&inventory.InventoryRecord{}, scoringNow)
	assert.Equal(t, 0, basis.DaysPastEOL)
	assert.Nil(t, basis.DaysToSupportExpiry)
}

func TestValueScore_Brackets(t *testing.T) {
	tests := []struct {
		max      int64
		quantity int
		want     float64
	}{
		{120_000, 1, 70},
		{60_000, 1, 60},
		{30_000, 1, 50},
		{12_000, 1, 40},
		{5_000, 1, 30},
		{0, 1, 20},
	}
	for _, tc := range tests {
		got := ValueScore(inventory.NewValueRange(0, tc.max), tc.quantity)
		assert.Equal(t, tc.want, got, "max=%d", tc.max)
	}
}

func TestValueScore_QuantityBonus(t *testing.T) {
	rng := inventory.NewValueRange(1000, 5000)
	assert.Equal(t, 30.0, ValueScore(rng, 1))
	assert.Equal(t, 35.0, ValueScore(rng, 2))
	assert.Equal(t, 40.0, ValueScore(rng, 5))
	assert.Equal(t, 45.0, ValueScore(rng, 10))
}

func TestValueScore_Saturates(t *testing.T) {
	got := ValueScore(inventory.NewValueRange(100_000, 500_000), 50)
	assert.Equal(t, 85.0, got)
}

func TestPropensityScore_MissingAccount(t *testing.T) {
	assert.Equal(t, 40.0, PropensityScore(nil, scoringNow))
}

func TestPropensityScore_HotAccount(t *testing.T) {
	acc := &inventory.Account{
		OpenOpportunityCount:   4,
		HistoricalProjectCount: 6,
		LastEngagement:         datePtr(2026, 5, 15),
	}
	assert.Equal(t, 100.0, PropensityScore(acc, scoringNow))
}

func TestPropensityScore_WarmAccount(t *testing.T) {
	acc := &inventory.Account{
		OpenOpportunityCount:   1,
		HistoricalProjectCount: 2,
		LastEngagement:         datePtr(2026, 1, 15),
	}
	assert.Equal(t, 70.0, PropensityScore(acc, scoringNow))
}

func TestPropensityScore_ColdAccount(t *testing.T) {
	assert.Equal(t, 40.0, PropensityScore(&inventory.Account{}, scoringNow))
}

func TestStrategicFitScore_PlatformAndType(t *testing.T) {
	tests := []struct {
		platform string
		leadType leadtypes.Type
		want     float64
	}{
		{"Compute", leadtypes.TypeHardwareRefresh, 85},
		{"storage", leadtypes.TypeRenewal, 60},
		{"networking", leadtypes.TypeServiceAttach, 55},
		{"Hyper Converged", leadtypes.TypeServiceAttach, 65},
		{"mainframe", leadtypes.TypeRenewal, 40},
		{"", leadtypes.TypeServiceAttach, 50},
	}
	for _, tc := range tests {
		rec := &inventory.InventoryRecord{Platform: tc.platform}
		assert.Equal(t, tc.want, StrategicFitScore(rec, tc.leadType), "platform=%q type=%s", tc.platform, tc.leadType)
	}
}

func TestSubscores_AlwaysInRange(t *testing.T) {
	// Extreme inputs must still land inside [0,100].
	rec := &inventory.InventoryRecord{
		Platform:      "storage",
		EOLDate:       datePtr(2010, 1, 1),
		SupportStatus: inventory.SupportExpired,
		SupportExpiry: datePtr(2012, 1, 1),
	}
	for _, v := range []float64{
		UrgencyScore(rec, scoringNow),
		ValueScore(inventory.NewValueRange(1_000_000, 9_000_000), 100),
		PropensityScore(&inventory.Account{OpenOpportunityCount: 99, HistoricalProjectCount: 99, LastEngagement: datePtr(2026, 5, 31)}, scoringNow),
		StrategicFitScore(rec, leadtypes.TypeHardwareRefresh),
	} {
		assert.GreaterOrEqual(t, v, 0.0)
		assert.LessOrEqual(t, v, 100.0)
	}
}
