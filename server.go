package graphhopper

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	gtfsrtpb "github.com/MobilityData/gtfs-realtime-bindings/golang/gtfs"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/TestStacey/graphhopper/config"
	"github.com/TestStacey/graphhopper/gtfsrt"
	"github.com/TestStacey/graphhopper/internal"
)

// Server exposes journey planning, realtime feed inspection, health and
// metrics over HTTP.
type Server struct {
	router   *Router
	metrics  *internal.Metrics
	gatherer prometheus.Gatherer
	srv      *http.Server
}

// NewServer wires the HTTP routes. reg receives the request metrics and is
// served on /metrics.
func NewServer(router *Router, cfg config.ServerConfig, reg *prometheus.Registry, metrics *internal.Metrics) *Server {
	s := &Server{router: router, metrics: metrics}
	if reg != nil {
		s.gatherer = reg
	}
	s.srv = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       durationOr(cfg.ReadTimeoutMS, 10*time.Second),
		WriteTimeout:      durationOr(cfg.WriteTimeoutMS, 30*time.Second),
		IdleTimeout:       60 * time.Second,
	}
	return s
}

func durationOr(ms int, fallback time.Duration) time.Duration {
	if ms <= 0 {
		return fallback
	}
	return time.Duration(ms) * time.Millisecond
}

// Handler returns the route tree.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	if s.metrics != nil {
		r.Use(s.metrics.HTTPMiddleware(routePattern))
	}

	r.Get("/api/health", s.handleHealth)
	r.Get("/api/plan", s.handlePlan)
	r.Get("/api/realtime-feed/{feedId}", s.handleRealtimeFeed)
	r.Get("/api/realtime-feed/{feedId}/report", s.handleRealtimeReport)
	r.Get("/api/static-feed/{feedId}/stops", s.handleStops)
	r.Get("/api/static-feed/{feedId}/trips/{tripId}", s.handleTrip)
	if s.gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
	return r
}

func routePattern(r *http.Request) string {
	if rc := chi.RouteContext(r.Context()); rc != nil {
		if p := rc.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}

// Start listens in the background.
func (s *Server) Start() {
	go func() {
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()
	log.Printf("server listening on %s", s.srv.Addr)
}

// WaitForShutdown blocks until SIGINT or SIGTERM, then drains the server.
func (s *Server) WaitForShutdown() {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs
	log.Printf("shutdown signal received")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.srv.Shutdown(ctx); err != nil {
		log.Printf("server shutdown error: %v", err)
	} else {
		log.Printf("server shut down successfully")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, config.ErrUnknownFeed), errors.Is(err, ErrUnknownStop):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// handlePlan serves /api/plan?feed=&from=&to=&time=&arriveBy=&profile=&window=.
// time is RFC 3339 and defaults to now; window is a Go duration.
func (s *Server) handlePlan(w http.ResponseWriter, r *http.Request) {
	q, err := parseQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	journeys, err := s.router.Plan(r.Context(), q)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	if journeys == nil {
		journeys = []Journey{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"journeys": journeys})
}

func parseQuery(r *http.Request) (Query, error) {
	v := r.URL.Query()
	q := Query{
		FeedID: v.Get("feed"),
		From:   v.Get("from"),
		To:     v.Get("to"),
		Time:   time.Now(),
	}
	if q.From == "" || q.To == "" {
		return q, errors.New("from and to are required")
	}
	if s := v.Get("time"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return q, fmt.Errorf("invalid time: %w", err)
		}
		q.Time = t
	}
	var err error
	if s := v.Get("arriveBy"); s != "" {
		if q.ArriveBy, err = strconv.ParseBool(s); err != nil {
			return q, fmt.Errorf("invalid arriveBy: %w", err)
		}
	}
	if s := v.Get("profile"); s != "" {
		if q.Profile, err = strconv.ParseBool(s); err != nil {
			return q, fmt.Errorf("invalid profile: %w", err)
		}
	}
	if s := v.Get("window"); s != "" {
		if q.ProfileWindow, err = time.ParseDuration(s); err != nil {
			return q, fmt.Errorf("invalid window: %w", err)
		}
	}
	return q, nil
}

var errNoRealtime = errors.New("no realtime data yet")

// realtimeMessage finds the feed named in the route and the message behind
// its current overlay, writing the error response when either is missing.
func (s *Server) realtimeMessage(w http.ResponseWriter, r *http.Request) (*Feed, *gtfsrtpb.FeedMessage, bool) {
	f, err := s.router.Feed(chi.URLParam(r, "feedId"))
	if err != nil {
		writeError(w, statusFor(err), err)
		return nil, nil, false
	}
	snap := f.Cache.Snapshot()
	if snap == nil || snap.Message == nil {
		writeError(w, http.StatusServiceUnavailable, errNoRealtime)
		return nil, nil, false
	}
	return f, snap.Message, true
}

// handleRealtimeFeed dumps the feed message behind the current overlay.
func (s *Server) handleRealtimeFeed(w http.ResponseWriter, r *http.Request) {
	_, msg, ok := s.realtimeMessage(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(gtfsrt.Dump(msg)))
}

func (s *Server) handleRealtimeReport(w http.ResponseWriter, r *http.Request) {
	f, msg, ok := s.realtimeMessage(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, gtfsrt.BuildReport(f.ID, msg, f.Index))
}
