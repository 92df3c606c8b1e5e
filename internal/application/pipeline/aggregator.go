package pipeline

import (
	"sort"
	"strings"
	"time"

	"github.com/turtacn/InstallBase-Insight/internal/domain/inventory"
	"github.com/turtacn/InstallBase-Insight/internal/domain/lead"
	"github.com/turtacn/InstallBase-Insight/pkg/types/common"
	leadtypes "github.com/turtacn/InstallBase-Insight/pkg/types/lead"
)

// Classify derives the lead type of one inventory record.  Precedence:
// anything already past end-of-life is a refresh opportunity regardless of
// its support state; otherwise lapsed or soon-lapsing support makes it a
// renewal; everything else is a service attach.
func Classify(rec *inventory.InventoryRecord, renewalWindowDays int, now time.Time) leadtypes.Type {
	if rec.IsPastEOL(now) {
		return leadtypes.TypeHardwareRefresh
	}
	if rec.IsSupportExpired(now) {
		return leadtypes.TypeRenewal
	}
	if days, ok := rec.DaysToSupportExpiry(now); ok && days <= renewalWindowDays {
		return leadtypes.TypeRenewal
	}
	return leadtypes.TypeServiceAttach
}

// accountProfile accumulates per-account facts while leads are built.
type accountProfile struct {
	recordCount int
	byPlatform  map[string]int
}

// detectInsights scans the snapshot for account-level opportunities that no
// single record can show: platform concentration (cross-sell into the
// neglected practices) and under-used service credits.  Output ordering is
// deterministic: accounts are visited in sorted ID order.
func detectInsights(snap *inventory.Snapshot, cfg Config, runID common.ID, now time.Time) []*lead.AccountInsight {
	profiles := make(map[common.AccountID]*accountProfile)
	for i := range snap.Records {
		rec := &snap.Records[i]
		p := profiles[rec.AccountID]
		if p == nil {
			p = &accountProfile{byPlatform: make(map[string]int)}
			profiles[rec.AccountID] = p
		}
		p.recordCount++
		p.byPlatform[normalizePlatformKey(rec.Platform)]++
	}

	ids := make([]common.AccountID, 0, len(profiles))
	for id := range profiles {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var insights []*lead.AccountInsight
	for _, id := range ids {
		p := profiles[id]

		if p.recordCount >= cfg.CrossSellMinRecords {
			if platform, share := dominantShare(p); share >= cfg.CrossSellConcentration {
				insights = append(insights, &lead.AccountInsight{
					ID:        common.NewID(),
					RunID:     runID,
					AccountID: id,
					Kind:      lead.InsightCrossSell,
					Detail: map[string]any{
						"dominant_category": platform,
						"concentration":     share,
						"record_count":      p.recordCount,
					},
					CreatedAt: now,
				})
			}
		}

		if ratio, ok := snap.Account(id).CreditUtilization(); ok && ratio < cfg.CreditUtilizationThreshold {
			insights = append(insights, &lead.AccountInsight{
				ID:        common.NewID(),
				RunID:     runID,
				AccountID: id,
				Kind:      lead.InsightCreditOptimization,
				Detail: map[string]any{
					"utilization": ratio,
					"threshold":   cfg.CreditUtilizationThreshold,
				},
				CreatedAt: now,
			})
		}
	}
	return insights
}

// dominantShare returns the most common platform key and its share of the
// account's records.  Ties break lexicographically so the result is stable.
func dominantShare(p *accountProfile) (string, float64) {
	keys := make([]string, 0, len(p.byPlatform))
	for k := range p.byPlatform {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	best, bestCount := "", 0
	for _, k := range keys {
		if p.byPlatform[k] > bestCount {
			best, bestCount = k, p.byPlatform[k]
		}
	}
	if p.recordCount == 0 {
		return best, 0
	}
	return best, float64(bestCount) / float64(p.recordCount)
}

// normalizePlatformKey folds platform strings for concentration counting.
// Blank platforms group under a single bucket so sparse data does not fake
// a concentration signal.
func normalizePlatformKey(platform string) string {
	key := strings.ToLower(strings.TrimSpace(platform))
	if key == "" {
		return "unclassified"
	}
	return key
}
