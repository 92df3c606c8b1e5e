package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewClient(srv.URL,
		WithRetry(2, time.Millisecond, 5*time.Millisecond),
		WithTimeout(2*time.Second))
	require.NoError(t, err)
	return c, srv
}

func TestNewClient_RejectsBadBaseURL(t *testing.T) {
	_, err := NewClient("")
	assert.Error(t, err)

	_, err = NewClient("ftp://example.com")
	assert.Error(t, err)
}

func TestClient_SetsStandardHeaders(t *testing.T) {
	var gotUA, gotRequestID string
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotRequestID = r.Header.Get("X-Request-ID")
		w.Write([]byte(`{"success":true,"data":[]}`))
	}))

	_, _, err := c.Leads().List(context.Background(), ListLeadsOptions{})
	require.NoError(t, err)
	assert.Contains(t, gotUA, "installbase-insight-go/")
	assert.NotEmpty(t, gotRequestID)
}

func TestClient_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"success":true,"data":{"id":"run-1","status":"completed"}}`))
	}))

	run, err := c.Runs().Trigger(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "completed", run.Status)
	assert.Equal(t, int32(3), calls.Load())
}

func TestClient_DoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"success":false,"error":{"code":"LEAD_NOT_FOUND","message":"no such lead"}}`))
	}))

	_, err := c.Leads().Get(context.Background(), "nope")
	require.Error(t, err)

	apiErr, ok := err.(*APIError)
	require.True(t, ok)
	assert.True(t, apiErr.IsNotFound())
	assert.Equal(t, "LEAD_NOT_FOUND", apiErr.Code)
	assert.Equal(t, int32(1), calls.Load())
}

func TestClient_ConflictOnActiveRun(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte(`{"success":false,"error":{"code":"RUN_ALREADY_ACTIVE","message":"busy"}}`))
	}))

	_, err := c.Runs().Trigger(context.Background())
	require.Error(t, err)
	apiErr, ok := err.(*APIError)
	require.True(t, ok)
	assert.True(t, apiErr.IsConflict())
}
