package dispatchhttp

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/BearBump/QuoteBox/internal/models"
	"github.com/stretchr/testify/require"
)

func TestClient_Snapshot_OK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/zones/MKD-CORE/riders", r.URL.Path)
		require.Equal(t, "k", r.Header.Get("X-Api-Key"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"zone":"MKD-CORE","active_riders":4,"queued_jobs":9}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "k", time.Second)
	rs, err := c.Snapshot(context.Background(), "MKD-CORE")
	require.NoError(t, err)
	require.Equal(t, models.RiderSnapshot{ActiveRiders: 4, QueuedJobs: 9}, rs)
}

func TestClient_Snapshot_KeepsBasePathPrefix(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/dispatch/api/v1/zones/MKD-CORE/riders", r.URL.Path)
		_, _ = w.Write([]byte(`{"active_riders":1,"queued_jobs":2}`))
	}))
	defer srv.Close()

	rs, err := New(srv.URL+"/dispatch/api/", "", time.Second).Snapshot(context.Background(), "MKD-CORE")
	require.NoError(t, err)
	require.Equal(t, models.RiderSnapshot{ActiveRiders: 1, QueuedJobs: 2}, rs)
}

func TestClient_Snapshot_NotFoundIsEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	rs, err := New(srv.URL, "", time.Second).Snapshot(context.Background(), "GBOKO")
	require.NoError(t, err)
	require.Equal(t, models.RiderSnapshot{}, rs)
}

func TestClient_Snapshot_Errors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v1/zones/BAD/riders" {
			_, _ = w.Write([]byte(`{"active_riders":-1}`))
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := New(srv.URL, "", time.Second)
	_, err := c.Snapshot(context.Background(), "MKD-CORE")
	require.ErrorContains(t, err, "dispatch http 503")

	_, err = c.Snapshot(context.Background(), "BAD")
	require.Error(t, err)
}
