package client

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
)

// Lead mirrors the API's lead representation.
type Lead struct {
	ID        string `json:"id"`
	RunID     string `json:"run_id"`
	AccountID string `json:"account_id"`
	RecordID  string `json:"record_id"`

	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name"`

	Type     string               `json:"type"`
	Tier     string               `json:"tier"`
	Services []RecommendedService `json:"services"`

	EstimatedValue  ValueRange   `json:"estimated_value"`
	ValueBasis      string       `json:"value_basis"`
	BenchmarkFamily string       `json:"benchmark_family,omitempty"`
	UrgencyBasis    UrgencyBasis `json:"urgency_basis"`

	Subscores Subscores `json:"subscores"`
	Overall   float64   `json:"overall"`
	Priority  string    `json:"priority"`

	CreatedAt string `json:"created_at"`
}

// RecommendedService is one catalog service attached to a lead.
type RecommendedService struct {
	Name       string  `json:"name"`
	SKU        string  `json:"sku"`
	Practice   string  `json:"practice"`
	Tier       string  `json:"tier"`
	Confidence float64 `json:"confidence"`
}

// ValueRange is a monetary (min, max) interval.  Values are decimal strings
// as rendered by the API.
type ValueRange struct {
	Min string `json:"min"`
	Max string `json:"max"`
}

// UrgencyBasis is the date evidence behind a lead's urgency sub-score.
type UrgencyBasis struct {
	DaysPastEOL         int  `json:"days_past_eol"`
	DaysToSupportExpiry *int `json:"days_to_support_expiry,omitempty"`
}

// Subscores is the four-factor score breakdown.
type Subscores struct {
	Urgency      float64 `json:"urgency"`
	Value        float64 `json:"value"`
	Propensity   float64 `json:"propensity"`
	StrategicFit float64 `json:"strategic_fit"`
}

// AccountInsight is an account-level observation.
type AccountInsight struct {
	ID        string                 `json:"id"`
	RunID     string                 `json:"run_id"`
	AccountID string                 `json:"account_id"`
	Kind      string                 `json:"kind"`
	Detail    map[string]interface{} `json:"detail,omitempty"`
	CreatedAt string                 `json:"created_at"`
}

// ListLeadsOptions filters and paginates a lead listing.
type ListLeadsOptions struct {
	AccountID string
	RunID     string
	Type      string
	Priority  string
	Page      int
	PageSize  int
}

func (o ListLeadsOptions) query() string {
	q := url.Values{}
	if o.AccountID != "" {
		q.Set("account_id", o.AccountID)
	}
	if o.RunID != "" {
		q.Set("run_id", o.RunID)
	}
	if o.Type != "" {
		q.Set("type", o.Type)
	}
	if o.Priority != "" {
		q.Set("priority", o.Priority)
	}
	if o.Page > 0 {
		q.Set("page", strconv.Itoa(o.Page))
	}
	if o.PageSize > 0 {
		q.Set("page_size", strconv.Itoa(o.PageSize))
	}
	if len(q) == 0 {
		return ""
	}
	return "?" + q.Encode()
}

// LeadsClient accesses the lead and insight endpoints.
type LeadsClient struct {
	client *Client
}

// List returns a page of leads ordered by overall score.
func (lc *LeadsClient) List(ctx context.Context, opts ListLeadsOptions) ([]Lead, *Page, error) {
	var env envelope[[]Lead]
	if err := lc.client.get(ctx, "/api/v1/leads"+opts.query(), &env); err != nil {
		return nil, nil, err
	}
	return env.Data, env.Pagination, nil
}

// Get fetches one lead by ID.
func (lc *LeadsClient) Get(ctx context.Context, id string) (*Lead, error) {
	var env envelope[Lead]
	if err := lc.client.get(ctx, "/api/v1/leads/"+url.PathEscape(id), &env); err != nil {
		return nil, err
	}
	return &env.Data, nil
}

// ByAccount returns every lead for one account.
func (lc *LeadsClient) ByAccount(ctx context.Context, accountID string) ([]Lead, error) {
	var env envelope[[]Lead]
	path := fmt.Sprintf("/api/v1/accounts/%s/leads", url.PathEscape(accountID))
	if err := lc.client.get(ctx, path, &env); err != nil {
		return nil, err
	}
	return env.Data, nil
}

// InsightsByAccount returns the account's current insights.
func (lc *LeadsClient) InsightsByAccount(ctx context.Context, accountID string) ([]AccountInsight, error) {
	var env envelope[[]AccountInsight]
	path := fmt.Sprintf("/api/v1/accounts/%s/insights", url.PathEscape(accountID))
	if err := lc.client.get(ctx, path, &env); err != nil {
		return nil, err
	}
	return env.Data, nil
}
