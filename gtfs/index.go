package gtfs

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/TestStacey/graphhopper/config"
)

// ErrNoAgency is returned when a feed has neither agency rows nor a timezone override.
var ErrNoAgency = errors.New("feed has no agency timezone")

// GTFSIndex stores GTFS static data in memory for fast lookups.
// Fields are exported so the index can be gob encoded (see cache.go).
type GTFSIndex struct {
	FeedID           string
	TimezoneOverride string

	Agencies  map[string]Agency     // agency_id -> agency
	Routes    map[string]Route      // route_id -> route
	Stops     map[string]Stop       // stop_id -> stop
	Trips     map[string]Trip       // trip_id -> trip
	StopTimes map[string][]StopTime // trip_id -> stop times ordered by stop_sequence
	Services  map[string]*Service   // service_id -> calendar
	AgencyIDs []string              // agency.txt row order
}

// NewGTFSIndex creates a new empty GTFS index
func NewGTFSIndex(feedID string) *GTFSIndex {
	return &GTFSIndex{
		FeedID:    feedID,
		Agencies:  map[string]Agency{},
		Routes:    map[string]Route{},
		Stops:     map[string]Stop{},
		Trips:     map[string]Trip{},
		StopTimes: map[string][]StopTime{},
		Services:  map[string]*Service{},
	}
}

// NewGTFSIndexFromConfig creates and loads a GTFS index from configuration.
// A configured index cache is read when present and written after a fresh load.
func NewGTFSIndexFromConfig(feedID string, cfg config.GTFSConfig) (*GTFSIndex, error) {
	if cfg.IndexCache != "" {
		if g, err := DeserializeIndexFromFile(cfg.IndexCache); err == nil {
			g.TimezoneOverride = cfg.Timezone
			return g, nil
		}
	}
	g := NewGTFSIndex(feedID)
	g.TimezoneOverride = cfg.Timezone
	var err error
	if strings.HasPrefix(cfg.StaticPath, "http://") || strings.HasPrefix(cfg.StaticPath, "https://") {
		err = g.loadFromStaticZip(cfg.StaticPath)
	} else {
		err = g.loadFromLocalZip(cfg.StaticPath)
	}
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", cfg.StaticPath, err)
	}
	if cfg.IndexCache != "" {
		if err := SerializeIndexToFile(g, cfg.IndexCache); err != nil {
			return g, fmt.Errorf("write index cache: %w", err)
		}
	}
	return g, nil
}

// Timezone returns the configured override or the first agency's timezone.
func (g *GTFSIndex) Timezone() (string, error) {
	if g.TimezoneOverride != "" {
		return g.TimezoneOverride, nil
	}
	for _, id := range g.AgencyIDs {
		if tz := g.Agencies[id].Timezone; tz != "" {
			return tz, nil
		}
	}
	return "", fmt.Errorf("%s: %w", g.FeedID, ErrNoAgency)
}

// Location loads the feed's time zone.
func (g *GTFSIndex) Location() (*time.Location, error) {
	tz, err := g.Timezone()
	if err != nil {
		return nil, err
	}
	return time.LoadLocation(tz)
}

// StopTime returns the static stop time of a trip at a stop sequence number.
func (g *GTFSIndex) StopTime(tripID string, seq int) (StopTime, bool) {
	sts := g.StopTimes[tripID]
	i := sort.Search(len(sts), func(i int) bool { return sts[i].Sequence >= seq })
	if i < len(sts) && sts[i].Sequence == seq {
		return sts[i], true
	}
	return StopTime{}, false
}

// StopTimesForTrip returns a copy of the trip's stop times in sequence order.
func (g *GTFSIndex) StopTimesForTrip(tripID string) []StopTime {
	sts := g.StopTimes[tripID]
	out := make([]StopTime, len(sts))
	copy(out, sts)
	return out
}

// LastStopSequence returns the highest stop sequence of a trip, or 0.
func (g *GTFSIndex) LastStopSequence(tripID string) int {
	sts := g.StopTimes[tripID]
	if len(sts) == 0 {
		return 0
	}
	return sts[len(sts)-1].Sequence
}

// StartDate returns the first date any service runs, as a UTC civil date.
func (g *GTFSIndex) StartDate() time.Time {
	var start time.Time
	for _, s := range g.Services {
		for _, d := range serviceDates(s) {
			if start.IsZero() || d.Before(start) {
				start = d
			}
		}
	}
	return start
}

// EndDate returns the last date any service runs, as a UTC civil date.
func (g *GTFSIndex) EndDate() time.Time {
	var end time.Time
	for _, s := range g.Services {
		for _, d := range serviceDates(s) {
			if d.After(end) {
				end = d
			}
		}
	}
	return end
}

func serviceDates(s *Service) []time.Time {
	var out []time.Time
	if !s.Start.IsZero() {
		out = append(out, s.Start, s.End)
	}
	for k := range s.Added {
		if d, err := time.Parse("20060102", k); err == nil {
			out = append(out, d)
		}
	}
	return out
}

// RouteForTrip returns the trip's route, if both are known.
func (g *GTFSIndex) RouteForTrip(tripID string) (Route, bool) {
	t, ok := g.Trips[tripID]
	if !ok {
		return Route{}, false
	}
	r, ok := g.Routes[t.RouteID]
	return r, ok
}

func (g *GTFSIndex) GetStopName(stopID string) string { return g.Stops[stopID].Name }

func (g *GTFSIndex) TripIsAScheduledTrip(tripID string) bool {
	_, ok := g.Trips[tripID]
	return ok
}

func (g *GTFSIndex) GetAllStops() []string {
	keys := make([]string, 0, len(g.Stops))
	for k := range g.Stops {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
