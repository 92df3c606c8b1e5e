package scoring

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/turtacn/InstallBase-Insight/internal/domain/inventory"
	leadtypes "github.com/turtacn/InstallBase-Insight/pkg/types/lead"
)

// Sub-score point values.  Each calculator starts from a base and adds tiered
// bonuses; results are clamped to [0,100].  Unknown inputs (missing dates,
// missing account history) contribute nothing; data-quality gaps are never
// fatal.
const (
	urgencyBase = 30.0

	// End-of-life bonuses, keyed by years past EOL.  Deep EOL saturates
	// urgency on its own: a machine five-plus years past end-of-life is
	// maximally urgent regardless of its support paperwork.
	eolPastFiveYears  = 70.0
	eolPastThreeYears = 40.0
	eolPastOneYear    = 30.0
	eolPast           = 20.0
	eolWithinOneYear  = 10.0

	// Contract-expiry bonuses, keyed by how long ago support lapsed.
	expiryLapsedOverYear = 20.0
	expiryLapsed         = 15.0
	expiryWithin90Days   = 10.0

	valueBase = 20.0

	// Deal-size bracket bonuses on the estimated maximum value.
	valueBracket100k = 50.0
	valueBracket50k  = 40.0
	valueBracket25k  = 30.0
	valueBracket10k  = 20.0
	valueBracketAny  = 10.0

	// Install-base quantity bonuses.
	quantityTen  = 15.0
	quantityFive = 10.0
	quantityTwo  = 5.0

	propensityBase = 40.0

	// Open-opportunity bonuses.
	opportunitiesThree = 25.0
	opportunitiesOne   = 15.0

	// Engagement-recency bonuses.
	engagedWithin90Days  = 20.0
	engagedWithin180Days = 10.0

	// Historical-project bonuses.
	projectsFive = 15.0
	projectsOne  = 5.0

	strategicBase = 50.0

	// Platform alignment: compute and storage are the targeted practices.
	platformComputeStorage = 20.0
	platformConverged      = 15.0
	platformNetworking     = 5.0

	// Lead-type adjustment: refreshes are expansions, renewals are defensive.
	refreshBonus   = 15.0
	renewalPenalty = 10.0
)

// UrgencyScore rates how soon the customer must act: past end-of-life and
// lapsed support both push the score up, scaled by how long ago.  Records
// with unknown dates stay at the base; unknown urgency is the lowest tier.
func UrgencyScore(rec *inventory.InventoryRecord, now time.Time) float64 {
	score := urgencyBase

	switch years := rec.YearsPastEOL(now); {
	case years > 5:
		score += eolPastFiveYears
	case years > 3:
		score += eolPastThreeYears
	case years > 1:
		score += eolPastOneYear
	case years > 0:
		score += eolPast
	default:
		if rec.EOLDate != nil && rec.EOLDate.Before(now.AddDate(1, 0, 0)) {
			score += eolWithinOneYear
		}
	}

	if days, ok := rec.DaysToSupportExpiry(now); ok {
		switch {
		case days < -365:
			score += expiryLapsedOverYear
		case days < 0:
			score += expiryLapsed
		case days <= 90:
			score += expiryWithin90Days
		}
	} else if rec.SupportStatus == inventory.SupportExpired {
		// Expired by status with no expiry date on record.
		score += expiryLapsed
	}

	return clamp100(score)
}

// UrgencyBasis preserves the date facts an urgency score was derived from:
// whole days past end-of-life and the signed day distance to support expiry.
// It rides along on the lead so the score stays traceable to the record.
type UrgencyBasis struct {
	DaysPastEOL         int  `json:"days_past_eol"`
	DaysToSupportExpiry *int `json:"days_to_support_expiry,omitempty"`
}

// NewUrgencyBasis captures rec's urgency inputs as observed at now.
func NewUrgencyBasis(rec *inventory.InventoryRecord, now time.Time) UrgencyBasis {
	basis := UrgencyBasis{DaysPastEOL: rec.DaysPastEOL(now)}
	if days, ok := rec.DaysToSupportExpiry(now); ok {
		basis.DaysToSupportExpiry = &days
	}
	return basis
}

// ValueScore rates the deal size: bigger estimated values and larger install
// bases score higher.
func ValueScore(estimated inventory.ValueRange, quantity int) float64 {
	score := valueBase

	max := estimated.Max
	switch {
	case max.GreaterThanOrEqual(decimal.NewFromInt(100_000)):
		score += valueBracket100k
	case max.GreaterThanOrEqual(decimal.NewFromInt(50_000)):
		score += valueBracket50k
	case max.GreaterThanOrEqual(decimal.NewFromInt(25_000)):
		score += valueBracket25k
	case max.GreaterThanOrEqual(decimal.NewFromInt(10_000)):
		score += valueBracket10k
	case max.IsPositive():
		score += valueBracketAny
	}

	switch {
	case quantity >= 10:
		score += quantityTen
	case quantity >= 5:
		score += quantityFive
	case quantity >= 2:
		score += quantityTwo
	}

	return clamp100(score)
}

// PropensityScore rates how likely the account is to buy, from open
// opportunities, engagement recency, and project history.  A nil account is
// a data-quality gap: the base score applies with no bonus.
func PropensityScore(acc *inventory.Account, now time.Time) float64 {
	score := propensityBase
	if acc == nil {
		return score
	}

	switch {
	case acc.OpenOpportunityCount >= 3:
		score += opportunitiesThree
	case acc.OpenOpportunityCount >= 1:
		score += opportunitiesOne
	}

	if days, ok := acc.DaysSinceEngagement(now); ok {
		switch {
		case days <= 90:
			score += engagedWithin90Days
		case days <= 180:
			score += engagedWithin180Days
		}
	}

	switch {
	case acc.HistoricalProjectCount >= 5:
		score += projectsFive
	case acc.HistoricalProjectCount >= 1:
		score += projectsOne
	}

	return clamp100(score)
}

// StrategicFitScore rates how well the opportunity aligns with targeted
// business priorities.  The adjustments are additive; the raw sum is clamped
// to [0,100] since the point system can exceed the band.
func StrategicFitScore(rec *inventory.InventoryRecord, leadType leadtypes.Type) float64 {
	score := strategicBase

	switch platformGroup(rec.Platform) {
	case "compute", "storage":
		score += platformComputeStorage
	case "converged":
		score += platformConverged
	case "networking":
		score += platformNetworking
	}

	switch leadType {
	case leadtypes.TypeHardwareRefresh:
		score += refreshBonus
	case leadtypes.TypeRenewal:
		score -= renewalPenalty
	}

	return clamp100(score)
}

// platformGroup folds loader platform strings into the strategic alignment
// groups.  Unrecognised platforms get no adjustment.
func platformGroup(platform string) string {
	switch normalized := normalizePlatform(platform); normalized {
	case "compute", "server", "servers", "x86":
		return "compute"
	case "storage", "san", "nas":
		return "storage"
	case "converged", "hci", "hyperconverged":
		return "converged"
	case "networking", "network", "switching", "routing":
		return "networking"
	default:
		return ""
	}
}

func normalizePlatform(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		if r == ' ' || r == '\t' {
			continue
		}
		if 'A' <= r && r <= 'Z' {
			r += 'a' - 'A'
		}
		out = append(out, r)
	}
	return string(out)
}
