package gtfsrt

import (
	"sort"

	gtfsrtpb "github.com/MobilityData/gtfs-realtime-bindings/golang/gtfs"

	"github.com/TestStacey/graphhopper/gtfs"
)

// RouteLookup resolves the route a static trip runs on.
type RouteLookup interface {
	RouteForTrip(tripID string) (gtfs.Route, bool)
}

// UnknownTrip is a trip update whose trip is not in the static schedule.
type UnknownTrip struct {
	TripID  string `json:"tripId"`
	RouteID string `json:"routeId,omitempty"`
}

// Report summarizes how a feed message matches the static schedule.
type Report struct {
	FeedID        string        `json:"feedId"`
	FeedTimestamp int64         `json:"feedTimestamp"`
	TripUpdates   int           `json:"tripUpdates"`
	AddedTrips    int           `json:"addedTrips"`
	UnknownTrips  []UnknownTrip `json:"unknownTrips"`
	Agencies      []string      `json:"agencies"`
}

// BuildReport lists the trip updates that reference trips unknown to the
// static schedule, ignoring added trips, and the agencies of the known ones.
func BuildReport(feedID string, fm *gtfsrtpb.FeedMessage, routes RouteLookup) Report {
	r := Report{
		FeedID:        feedID,
		FeedTimestamp: int64(fm.GetHeader().GetTimestamp()),
		UnknownTrips:  []UnknownTrip{},
		Agencies:      []string{},
	}
	agencies := map[string]bool{}
	for _, tu := range TripUpdates(fm) {
		r.TripUpdates++
		trip := tu.GetTrip()
		if trip.GetScheduleRelationship() == gtfsrtpb.TripDescriptor_ADDED {
			r.AddedTrips++
			continue
		}
		route, ok := routes.RouteForTrip(trip.GetTripId())
		if !ok {
			r.UnknownTrips = append(r.UnknownTrips, UnknownTrip{TripID: trip.GetTripId(), RouteID: trip.GetRouteId()})
			continue
		}
		if route.AgencyID != "" && !agencies[route.AgencyID] {
			agencies[route.AgencyID] = true
			r.Agencies = append(r.Agencies, route.AgencyID)
		}
	}
	sort.Strings(r.Agencies)
	return r
}
