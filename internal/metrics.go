package internal

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "ptrouter"

// Metrics are the router's prometheus collectors.
type Metrics struct {
	OverlayBuilds        *prometheus.CounterVec
	OverlayBuildDuration *prometheus.HistogramVec
	BlockedEdges         *prometheus.GaugeVec
	VirtualEdges         *prometheus.GaugeVec
	LabelsSettled        prometheus.Histogram
	httpDuration         *prometheus.HistogramVec
	totalRequests        *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		OverlayBuilds: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "overlay_builds_total",
			Help:      "Realtime overlay builds by feed and outcome",
		}, []string{"feed", "outcome"}),
		OverlayBuildDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "overlay_build_duration_seconds",
			Help:      "Time spent fetching and building a realtime overlay",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"feed"}),
		BlockedEdges: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "overlay_blocked_edges",
			Help:      "Edges blocked by the current overlay",
		}, []string{"feed"}),
		VirtualEdges: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "overlay_virtual_edges",
			Help:      "Edges added by the current overlay",
		}, []string{"feed"}),
		LabelsSettled: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_labels_settled",
			Help:      "Labels settled per search",
			Buckets:   prometheus.ExponentialBuckets(10, 4, 10),
		}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "request_duration_seconds",
			Help:      "The duration of request",
			Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"method", "path"}),
		totalRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "total_requests",
			Help:      "The total number of requests",
		}, []string{"path", "method", "status"}),
	}
	reg.MustRegister(m.OverlayBuilds, m.OverlayBuildDuration, m.BlockedEdges, m.VirtualEdges,
		m.LabelsSettled, m.httpDuration, m.totalRequests)
	return m
}

// ObserveOverlayBuild records one overlay build. Sizes are only recorded for
// successful builds.
func (m *Metrics) ObserveOverlayBuild(feedID string, d time.Duration, blocked, virtual int, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.OverlayBuilds.WithLabelValues(feedID, outcome).Inc()
	m.OverlayBuildDuration.WithLabelValues(feedID).Observe(d.Seconds())
	if err == nil {
		m.BlockedEdges.WithLabelValues(feedID).Set(float64(blocked))
		m.VirtualEdges.WithLabelValues(feedID).Set(float64(virtual))
	}
}

// ObserveSearch records the number of labels a search settled.
func (m *Metrics) ObserveSearch(settled int) {
	if m == nil {
		return
	}
	m.LabelsSettled.Observe(float64(settled))
}

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// HTTPMiddleware counts and times requests by route pattern.
func (m *Metrics) HTTPMiddleware(pattern func(r *http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
			start := time.Now()

			next.ServeHTTP(rw, r)

			path := pattern(r)
			m.httpDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
			m.totalRequests.WithLabelValues(path, r.Method, strconv.Itoa(rw.statusCode)).Inc()
		})
	}
}
