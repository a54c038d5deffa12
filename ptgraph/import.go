package ptgraph

import (
	"fmt"
	"log"
	"sort"

	"github.com/bits-and-blooms/bitset"

	"github.com/TestStacey/graphhopper/gtfs"
)

// ImportOptions tune the static import.
type ImportOptions struct {
	MaxFootpathMeters float64
}

// Import builds the base graph of one feed: station, enter and exit nodes for
// every stop, footpaths between close stops, and every trip through a
// TripBuilder. Trips calling at unknown stops are logged and skipped.
func Import(idx *gtfs.GTFSIndex, opts ImportOptions) (*Graph, error) {
	loc, err := idx.Location()
	if err != nil {
		return nil, err
	}
	start, end := idx.StartDate(), idx.EndDate()
	g := NewGraph()
	feedValidity := g.AddValidity(Validity{Start: start, Location: loc})

	stopIDs := idx.GetAllStops()
	stops := make([]gtfs.Stop, 0, len(stopIDs))
	for _, id := range stopIDs {
		n := StopNodes{Station: g.AddNode(), Enter: g.AddNode(), Exit: g.AddNode()}
		g.AddEdge(Edge{Base: n.Station, Adj: n.Enter, Type: EnterPT, Validity: NoValidity})
		g.AddEdge(Edge{Base: n.Exit, Adj: n.Station, Type: ExitPT, Validity: NoValidity})
		g.SetStopNodes(id, n)
		stops = append(stops, idx.Stops[id])
	}
	AddFootpaths(g, stops, opts.MaxFootpathMeters)

	serviceValidity := map[string]int32{}
	for _, sid := range sortedServiceIDs(idx) {
		days := bitset.New(uint(gtfs.DaysBetween(start, end) + 1))
		for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
			if idx.Services[sid].ActiveOn(d) {
				days.Set(uint(gtfs.DaysBetween(start, d)))
			}
		}
		serviceValidity[sid] = g.AddValidity(Validity{Days: days, Start: start, Location: loc})
	}

	tb := NewTripBuilder(g, g.StopNodes, feedValidity)
	tripIDs := make([]string, 0, len(idx.StopTimes))
	for id := range idx.StopTimes {
		tripIDs = append(tripIDs, id)
	}
	sort.Strings(tripIDs)
	for _, id := range tripIDs {
		t, ok := idx.Trips[id]
		if !ok {
			log.Printf("ptgraph: stop times for unknown trip %s, skipping", id)
			continue
		}
		v, ok := serviceValidity[t.ServiceID]
		if !ok {
			log.Printf("ptgraph: trip %s has unknown service %s, skipping", id, t.ServiceID)
			continue
		}
		te, err := tb.AddTrip(Trip{ID: id, RouteID: t.RouteID, StopTimes: idx.StopTimes[id], Validity: v})
		if err != nil {
			log.Printf("ptgraph: %v, skipping", err)
			continue
		}
		g.SetTripEdges(id, te)
	}
	tb.WireUpStops()
	if g.EdgeCount() == 0 {
		return nil, fmt.Errorf("feed %s: no edges imported", idx.FeedID)
	}
	return g, nil
}

func sortedServiceIDs(idx *gtfs.GTFSIndex) []string {
	ids := make([]string, 0, len(idx.Services))
	for id := range idx.Services {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
