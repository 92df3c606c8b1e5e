package client

import (
	"context"
	"net/url"
	"strconv"
)

// Run mirrors the API's pipeline run representation.
type Run struct {
	ID         string `json:"id"`
	Status     string `json:"status"`
	StartedAt  string `json:"started_at"`
	FinishedAt string `json:"finished_at,omitempty"`

	RecordCount  int `json:"record_count"`
	AccountCount int `json:"account_count"`
	LeadCount    int `json:"lead_count"`
	InsightCount int `json:"insight_count"`

	LeadsByPriority map[string]int `json:"leads_by_priority,omitempty"`
	LeadsByType     map[string]int `json:"leads_by_type,omitempty"`

	Error string `json:"error,omitempty"`
}

// RunsClient accesses the run endpoints.
type RunsClient struct {
	client *Client
}

// Trigger starts a recommendation run and waits for it to finish.  A run
// already in progress surfaces as an APIError with IsConflict() true.
func (rc *RunsClient) Trigger(ctx context.Context) (*Run, error) {
	var env envelope[Run]
	if err := rc.client.post(ctx, "/api/v1/runs", nil, &env); err != nil {
		return nil, err
	}
	return &env.Data, nil
}

// Get fetches one run by ID.
func (rc *RunsClient) Get(ctx context.Context, id string) (*Run, error) {
	var env envelope[Run]
	if err := rc.client.get(ctx, "/api/v1/runs/"+url.PathEscape(id), &env); err != nil {
		return nil, err
	}
	return &env.Data, nil
}

// List returns the most recent runs, newest first.
func (rc *RunsClient) List(ctx context.Context, limit int) ([]Run, error) {
	path := "/api/v1/runs"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	var env envelope[[]Run]
	if err := rc.client.get(ctx, path, &env); err != nil {
		return nil, err
	}
	return env.Data, nil
}
