package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLeadsClient_ListBuildsQuery(t *testing.T) {
	var gotQuery string
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.Write([]byte(`{
			"success": true,
			"data": [{"id":"l1","account_id":"ACME","priority":"HIGH","overall":68.5}],
			"pagination": {"page":2,"page_size":10,"total":21}
		}`))
	}))

	leads, page, err := c.Leads().List(context.Background(), ListLeadsOptions{
		Priority: "HIGH",
		Page:     2,
		PageSize: 10,
	})
	require.NoError(t, err)
	require.Len(t, leads, 1)
	assert.Equal(t, "l1", leads[0].ID)
	assert.Equal(t, 68.5, leads[0].Overall)
	require.NotNil(t, page)
	assert.Equal(t, int64(21), page.Total)
	assert.Contains(t, gotQuery, "priority=HIGH")
	assert.Contains(t, gotQuery, "page=2")
}

func TestLeadsClient_ByAccountPath(t *testing.T) {
	var gotPath string
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write([]byte(`{"success":true,"data":[{"id":"l1"},{"id":"l2"}]}`))
	}))

	leads, err := c.Leads().ByAccount(context.Background(), "ACME")
	require.NoError(t, err)
	assert.Len(t, leads, 2)
	assert.Equal(t, "/api/v1/accounts/ACME/leads", gotPath)
}

func TestLeadsClient_InsightsDecodeDetail(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"success": true,
			"data": [{"id":"i1","kind":"cross_sell","detail":{"dominant_category":"server","concentration":0.9}}]
		}`))
	}))

	insights, err := c.Leads().InsightsByAccount(context.Background(), "ACME")
	require.NoError(t, err)
	require.Len(t, insights, 1)
	assert.Equal(t, "cross_sell", insights[0].Kind)
	assert.Equal(t, "server", insights[0].Detail["dominant_category"])
}

func TestRunsClient_ListLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "5", r.URL.Query().Get("limit"))
		w.Write([]byte(`{"success":true,"data":[{"id":"r1","status":"completed","lead_count":12}]}`))
	}))
	defer srv.Close()
	c, err := NewClient(srv.URL)
	require.NoError(t, err)

	runs, err := c.Runs().List(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, 12, runs[0].LeadCount)
}
