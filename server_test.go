package graphhopper

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TestStacey/graphhopper/config"
	"github.com/TestStacey/graphhopper/internal"
)

func newTestServer(t *testing.T, r *Router) *httptest.Server {
	t.Helper()
	reg := prometheus.NewRegistry()
	s := NewServer(r, config.ServerConfig{Port: 8989}, reg, internal.NewMetrics(reg))
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func get(t *testing.T, ts *httptest.Server, path string) (*http.Response, []byte) {
	t.Helper()
	resp, err := http.Get(ts.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, body
}

func TestServer_Plan(t *testing.T) {
	ts := newTestServer(t, newTestRouter(t, nil))
	at := url.QueryEscape(clock(t, 7, 55).Format(time.RFC3339))

	tests := []struct {
		name       string
		query      string
		wantStatus int
	}{
		{"earliest arrival", "from=A&to=C&time=" + at, http.StatusOK},
		{"profile", "from=A&to=C&profile=true&window=30m&time=" + at, http.StatusOK},
		{"missing stop", "from=A&time=" + at, http.StatusBadRequest},
		{"bad time", "from=A&to=C&time=yesterday", http.StatusBadRequest},
		{"bad flag", "from=A&to=C&arriveBy=maybe", http.StatusBadRequest},
		{"unknown stop", "from=A&to=Z&time=" + at, http.StatusNotFound},
		{"unknown feed", "feed=vbb&from=A&to=C&time=" + at, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := get(t, ts, "/api/plan?"+tt.query)
			assert.Equal(t, tt.wantStatus, resp.StatusCode, string(body))
			assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
		})
	}

	_, body := get(t, ts, "/api/plan?from=A&to=C&time="+at)
	var out struct {
		Journeys []Journey `json:"journeys"`
	}
	require.NoError(t, json.Unmarshal(body, &out))
	require.Len(t, out.Journeys, 1)
	assert.Equal(t, "T1", out.Journeys[0].Legs[0].TripID)
	assert.True(t, clock(t, 8, 20).Equal(out.Journeys[0].Arrival))
	t.Logf("✓ plan: %s", body)
}

func TestServer_PlanWithoutJourneys(t *testing.T) {
	ts := newTestServer(t, newTestRouter(t, nil))
	at := url.QueryEscape(clock(t, 23, 0).Format(time.RFC3339))
	resp, body := get(t, ts, "/api/plan?from=A&to=C&time="+at)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"journeys":[]}`, string(body))
}

func TestServer_Health(t *testing.T) {
	r := newTestRouter(t, canceled(t, "T1"))
	ts := newTestServer(t, r)

	_, body := get(t, ts, "/api/health")
	var h healthResponse
	require.NoError(t, json.Unmarshal(body, &h))
	assert.Equal(t, "ok", h.Status)
	require.Len(t, h.Feeds, 1)
	assert.Equal(t, "empty", h.Feeds[0].State)
	assert.Zero(t, h.LatestGTFSRealtimeEpoch)

	f, err := r.Feed("sf")
	require.NoError(t, err)
	require.NoError(t, f.Cache.Refresh(context.Background()))

	_, body = get(t, ts, "/api/health")
	require.NoError(t, json.Unmarshal(body, &h))
	assert.Equal(t, "ok", h.Status)
	fh := h.Feeds[0]
	assert.Equal(t, "fresh", fh.State)
	assert.NotEmpty(t, fh.OverlayID)
	assert.NotEmpty(t, fh.ValidUntil)
	assert.Equal(t, clock(t, 6, 0).Unix(), fh.FeedEpoch)
	assert.Equal(t, fh.FeedEpoch, h.LatestGTFSRealtimeEpoch)
	assert.Equal(t, 6, fh.BlockedEdges)
	t.Logf("✓ health: %s", body)
}

func TestServer_RealtimeFeed(t *testing.T) {
	r := newTestRouter(t, canceled(t, "T1"))
	ts := newTestServer(t, r)

	resp, _ := get(t, ts, "/api/realtime-feed/sf")
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode, "nothing built yet")
	resp, _ = get(t, ts, "/api/realtime-feed/vbb")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	f, err := r.Feed("sf")
	require.NoError(t, err)
	require.NoError(t, f.Cache.Refresh(context.Background()))

	resp, body := get(t, ts, "/api/realtime-feed/sf")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"T1"`)
	assert.Contains(t, string(body), "CANCELED")

	resp, body = get(t, ts, "/api/realtime-feed/sf/report")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var report struct {
		FeedID       string   `json:"feedId"`
		TripUpdates  int      `json:"tripUpdates"`
		Agencies     []string `json:"agencies"`
		UnknownTrips []any    `json:"unknownTrips"`
	}
	require.NoError(t, json.Unmarshal(body, &report))
	assert.Equal(t, "sf", report.FeedID)
	assert.Equal(t, 1, report.TripUpdates)
	assert.Equal(t, []string{"MUNI"}, report.Agencies)
	assert.Empty(t, report.UnknownTrips)
}

func TestServer_Metrics(t *testing.T) {
	ts := newTestServer(t, newTestRouter(t, nil))
	get(t, ts, "/api/health")

	resp, body := get(t, ts, "/metrics")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `ptrouter_total_requests{method="GET",path="/api/health",status="200"} 1`)
}

func TestServer_StaticFeed(t *testing.T) {
	ts := newTestServer(t, newTestRouter(t, nil))

	resp, body := get(t, ts, "/api/static-feed/sf/stops")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var stops []stopView
	require.NoError(t, json.Unmarshal(body, &stops))
	require.Len(t, stops, 5)
	assert.Equal(t, stopView{ID: "A", Name: "Alpha", Lat: 37.775, Lon: -122.419}, stops[0])

	resp, body = get(t, ts, "/api/static-feed/sf/trips/T3")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Stop(B) 37.785000, -122.409000 08:15:00 08:15:00\n"+
		"Stop(D) 37.805000, -122.409000 08:25:00 08:25:00\n", string(body))

	resp, _ = get(t, ts, "/api/static-feed/sf/trips/GHOST")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestGTFSTime(t *testing.T) {
	assert.Equal(t, "08:05:09", gtfsTime(8*3600+5*60+9))
	assert.Equal(t, "25:00:00", gtfsTime(25*3600))
}
