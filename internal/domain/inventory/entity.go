// Package inventory defines the immutable install-base snapshot consumed by
// the recommendation pipeline: hardware/contract inventory records and the
// read-only account dimension used for propensity scoring.
package inventory

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/turtacn/InstallBase-Insight/pkg/errors"
	"github.com/turtacn/InstallBase-Insight/pkg/types/common"
)

// SupportStatus describes the contract/support state of an inventory record.
type SupportStatus string

const (
	SupportActive  SupportStatus = "active"
	SupportExpired SupportStatus = "expired"
	SupportUnknown SupportStatus = "unknown"
)

// NormalizeSupportStatus maps loader-provided status strings onto the
// canonical enumeration.  Unrecognised values become SupportUnknown: a
// data-quality gap, never an error.
func NormalizeSupportStatus(s string) SupportStatus {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "active", "current", "covered":
		return SupportActive
	case "expired", "lapsed", "out_of_support":
		return SupportExpired
	default:
		return SupportUnknown
	}
}

// ValueRange is a monetary (min, max) interval in currency units.
type ValueRange struct {
	Min decimal.Decimal `json:"min"`
	Max decimal.Decimal `json:"max"`
}

// NewValueRange builds a ValueRange from integer currency amounts.
func NewValueRange(min, max int64) ValueRange {
	return ValueRange{Min: decimal.NewFromInt(min), Max: decimal.NewFromInt(max)}
}

// IsZero reports whether the range carries no value information.
func (v ValueRange) IsZero() bool {
	return v.Min.IsZero() && v.Max.IsZero()
}

// Validate checks that the interval is non-negative and ordered.
func (v ValueRange) Validate() error {
	if v.Min.IsNegative() || v.Max.IsNegative() {
		return errors.New(errors.ErrCodeValueRangeInvalid, "value range cannot be negative")
	}
	if v.Min.GreaterThan(v.Max) {
		return errors.New(errors.ErrCodeValueRangeInvalid, "value range min exceeds max")
	}
	return nil
}

// Scale multiplies both bounds by factor, used for install-base quantity
// scaling in the value estimator.
func (v ValueRange) Scale(factor int64) ValueRange {
	f := decimal.NewFromInt(factor)
	return ValueRange{Min: v.Min.Mul(f), Max: v.Max.Mul(f)}
}

// InventoryRecord is an immutable snapshot of one install-base line item as
// provided by the external loader.  All date fields are optional: a nil date
// is a data-quality gap handled downstream with documented defaults.
type InventoryRecord struct {
	ID            string           `json:"id"`
	AccountID     common.AccountID `json:"account_id"`
	ProductID     string           `json:"product_id"`
	ProductName   string           `json:"product_name"`
	Platform      string           `json:"platform"`
	InstallDate   *time.Time       `json:"install_date,omitempty"`
	EOLDate       *time.Time       `json:"eol_date,omitempty"`
	SupportStatus SupportStatus    `json:"support_status"`
	SupportExpiry *time.Time       `json:"support_expiry,omitempty"`
	Quantity      int              `json:"quantity"`
	KnownValue    *ValueRange      `json:"known_value,omitempty"`
}

// Validate checks the minimal identity invariants of a record.  Missing dates
// and values are acceptable; a record without product or account identity is
// not usable by any matching tier above fallback bookkeeping.
func (r *InventoryRecord) Validate() error {
	if r.ID == "" {
		return errors.New(errors.ErrCodeInventoryInvalid, "record ID cannot be empty")
	}
	if r.AccountID == "" {
		return errors.New(errors.ErrCodeInventoryInvalid, "record account ID cannot be empty")
	}
	if r.Quantity < 0 {
		return errors.New(errors.ErrCodeInventoryInvalid, "record quantity cannot be negative")
	}
	return nil
}

// IsPastEOL reports whether the record's end-of-life date has passed at now.
// A nil EOL date yields false (unknown EOL is the lowest urgency tier).
func (r *InventoryRecord) IsPastEOL(now time.Time) bool {
	return r.EOLDate != nil && r.EOLDate.Before(now)
}

// YearsPastEOL returns the number of whole-ish years elapsed since EOL, or 0
// when the EOL date is unknown or in the future.
func (r *InventoryRecord) YearsPastEOL(now time.Time) float64 {
	if !r.IsPastEOL(now) {
		return 0
	}
	return now.Sub(*r.EOLDate).Hours() / (24 * 365.25)
}

// DaysPastEOL returns the whole days elapsed since EOL, or 0 when unknown or
// in the future.
func (r *InventoryRecord) DaysPastEOL(now time.Time) int {
	if !r.IsPastEOL(now) {
		return 0
	}
	return int(now.Sub(*r.EOLDate).Hours() / 24)
}

// IsSupportExpired reports whether the contract is expired, either by
// explicit status or by an expiry date in the past.
func (r *InventoryRecord) IsSupportExpired(now time.Time) bool {
	if r.SupportStatus == SupportExpired {
		return true
	}
	return r.SupportExpiry != nil && r.SupportExpiry.Before(now)
}

// DaysToSupportExpiry returns the signed day distance to the support expiry
// date: negative when already expired, positive when still covered.  The
// second return value is false when the expiry date is unknown.
func (r *InventoryRecord) DaysToSupportExpiry(now time.Time) (int, bool) {
	if r.SupportExpiry == nil {
		return 0, false
	}
	return int(r.SupportExpiry.Sub(now).Hours() / 24), true
}

// Account is the read-only account dimension consumed by propensity scoring
// and the account-level opportunity detectors.  A missing account is a
// data-quality gap: scoring falls back to base-only propensity.
type Account struct {
	ID                     common.AccountID `json:"id"`
	Name                   string           `json:"name"`
	HistoricalProjectCount int              `json:"historical_project_count"`
	OpenOpportunityCount   int              `json:"open_opportunity_count"`
	LastEngagement         *time.Time       `json:"last_engagement,omitempty"`

	// Service credit position, consumed by credit-optimization detection.
	// Zero purchased credits means the account has no credit program.
	CreditsPurchased decimal.Decimal `json:"credits_purchased"`
	CreditsUsed      decimal.Decimal `json:"credits_used"`
}

// CreditUtilization returns the used/purchased ratio in [0,1] and whether the
// account participates in a credit program at all.
func (a *Account) CreditUtilization() (float64, bool) {
	if a == nil || a.CreditsPurchased.IsZero() {
		return 0, false
	}
	ratio, _ := a.CreditsUsed.Div(a.CreditsPurchased).Float64()
	if ratio < 0 {
		ratio = 0
	}
	if ratio > 1 {
		ratio = 1
	}
	return ratio, true
}

// DaysSinceEngagement returns whole days since the last recorded engagement.
// The second return value is false when no engagement is on record.
func (a *Account) DaysSinceEngagement(now time.Time) (int, bool) {
	if a == nil || a.LastEngagement == nil {
		return 0, false
	}
	return int(now.Sub(*a.LastEngagement).Hours() / 24), true
}

// Snapshot is the fixed input of one pipeline run: the full set of inventory
// records plus the account dimension keyed by account ID.  Runs never mutate
// a snapshot.
type Snapshot struct {
	Records  []InventoryRecord
	Accounts map[common.AccountID]*Account
	TakenAt  time.Time
}

// Account returns the dimension row for id, or nil when absent.
func (s *Snapshot) Account(id common.AccountID) *Account {
	if s == nil || s.Accounts == nil {
		return nil
	}
	return s.Accounts[id]
}
