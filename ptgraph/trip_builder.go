package ptgraph

import (
	"errors"
	"fmt"
	"sort"

	"github.com/TestStacey/graphhopper/gtfs"
)

// ErrUnknownStop is returned when a trip calls at a stop without station nodes.
var ErrUnknownStop = errors.New("unknown stop")

const secondsPerDay = 24 * 3600

// Trip is a trip ready to be turned into edges. Stop times are in stop
// sequence order with non-decreasing times.
type Trip struct {
	ID        string
	RouteID   string
	StopTimes []gtfs.StopTime
	Validity  int32 // validity of the trip's BOARD and ALIGHT edges
}

// StopLookup resolves a stop id to its station nodes.
type StopLookup func(stopID string) (StopNodes, bool)

type event struct {
	time int
	node int
}

// TripBuilder turns trips into time-expanded edges. The static importer and
// the realtime overlay both use it, writing into different sinks.
//
// Departure and arrival events are collected per stop while trips are added;
// WireUpStops then connects them to the stops' enter and exit nodes.
type TripBuilder struct {
	sink         EdgeSink
	stops        StopLookup
	feedValidity int32
	departures   map[string][]event
	arrivals     map[string][]event
}

// NewTripBuilder writes into sink. feedValidity names the validity entry
// whose zone applies to the time-expanded entry and exit edges.
func NewTripBuilder(sink EdgeSink, stops StopLookup, feedValidity int32) *TripBuilder {
	return &TripBuilder{
		sink:         sink,
		stops:        stops,
		feedValidity: feedValidity,
		departures:   map[string][]event{},
		arrivals:     map[string][]event{},
	}
}

// AddTrip adds the vehicle path of one trip and returns its board and alight
// edges by stop position. Nothing is written if a stop is unknown.
func (b *TripBuilder) AddTrip(trip Trip) (TripEdges, error) {
	for _, st := range trip.StopTimes {
		if _, ok := b.stops(st.StopID); !ok {
			return TripEdges{}, fmt.Errorf("trip %s: %w %q", trip.ID, ErrUnknownStop, st.StopID)
		}
	}
	n := len(trip.StopTimes)
	te := TripEdges{Board: make([]int, n), Alight: make([]int, n)}
	prevDepNode, prevDep := -1, 0
	for i, st := range trip.StopTimes {
		arrNode := b.sink.AddNode()
		depNode := b.sink.AddNode()
		if prevDepNode >= 0 {
			b.sink.AddEdge(Edge{Base: prevDepNode, Adj: arrNode, Type: Hop, Time: nonNegative(st.Arrival - prevDep), Validity: NoValidity})
		}
		b.sink.AddEdge(Edge{Base: arrNode, Adj: depNode, Type: Dwell, Time: nonNegative(st.Departure - st.Arrival), Validity: NoValidity})

		depEvent := b.sink.AddNode()
		b.departures[st.StopID] = append(b.departures[st.StopID], event{time: st.Departure, node: depEvent})
		te.Board[i] = b.sink.AddEdge(Edge{Base: depEvent, Adj: depNode, Type: Board, Validity: trip.Validity, DayShift: int32(st.Departure / secondsPerDay)})

		arrEvent := b.sink.AddNode()
		b.arrivals[st.StopID] = append(b.arrivals[st.StopID], event{time: st.Arrival, node: arrEvent})
		te.Alight[i] = b.sink.AddEdge(Edge{Base: arrNode, Adj: arrEvent, Type: Alight, Validity: trip.Validity, DayShift: int32(st.Arrival / secondsPerDay)})

		prevDepNode, prevDep = depNode, st.Departure
	}
	return te, nil
}

// WireUpStops connects the collected events of every stop to the stop's
// enter and exit nodes and chains them in time order.
func (b *TripBuilder) WireUpStops() {
	for _, stopID := range sortedKeys(b.departures) {
		nodes, _ := b.stops(stopID)
		evs := sortEvents(b.departures[stopID])
		for i, ev := range evs {
			b.sink.AddEdge(Edge{Base: nodes.Enter, Adj: ev.node, Type: EnterTimeExpandedNetwork, Time: int32(ev.time % secondsPerDay), Validity: b.feedValidity})
			if i > 0 {
				b.sink.AddEdge(Edge{Base: evs[i-1].node, Adj: ev.node, Type: Wait, Time: int32(ev.time%secondsPerDay - evs[i-1].time%secondsPerDay), Validity: NoValidity})
			}
		}
	}
	for _, stopID := range sortedKeys(b.arrivals) {
		nodes, _ := b.stops(stopID)
		evs := sortEvents(b.arrivals[stopID])
		for i, ev := range evs {
			b.sink.AddEdge(Edge{Base: ev.node, Adj: nodes.Exit, Type: LeaveTimeExpandedNetwork, Time: int32(ev.time % secondsPerDay), Validity: b.feedValidity})
			if i > 0 {
				b.sink.AddEdge(Edge{Base: evs[i-1].node, Adj: ev.node, Type: WaitArrival, Time: int32(ev.time%secondsPerDay - evs[i-1].time%secondsPerDay), Validity: NoValidity})
			}
		}
	}
	b.departures = map[string][]event{}
	b.arrivals = map[string][]event{}
}

func nonNegative(s int) int32 {
	if s < 0 {
		return 0
	}
	return int32(s)
}

// sortEvents orders events by time of day, so an event at 25:00 waits in
// line with the 01:00 departures of the next calendar day.
func sortEvents(evs []event) []event {
	sort.Slice(evs, func(i, j int) bool {
		ti, tj := evs[i].time%secondsPerDay, evs[j].time%secondsPerDay
		if ti != tj {
			return ti < tj
		}
		return evs[i].node < evs[j].node
	})
	return evs
}

func sortedKeys(m map[string][]event) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
