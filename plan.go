package graphhopper

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/TestStacey/graphhopper/internal"
	"github.com/TestStacey/graphhopper/mlsearch"
	"github.com/TestStacey/graphhopper/ptgraph"
)

// Query asks for journeys between two stops of one feed.
type Query struct {
	FeedID string
	From   string
	To     string
	Time   time.Time
	// ArriveBy searches backwards: Time is the latest acceptable arrival.
	ArriveBy bool
	// Profile returns every Pareto-optimal departure instead of only the
	// earliest arrival. A positive ProfileWindow limits departures (or
	// arrivals, when ArriveBy) to that span after (before) Time.
	Profile       bool
	ProfileWindow time.Duration
}

// LegMode distinguishes riding from walking.
type LegMode string

const (
	ModePT   LegMode = "pt"
	ModeWalk LegMode = "walk"
)

// Leg is one ride or one walk of a journey. TripID is empty for walks.
type Leg struct {
	Mode      LegMode   `json:"mode"`
	From      string    `json:"from"`
	To        string    `json:"to"`
	TripID    string    `json:"trip_id,omitempty"`
	Departure time.Time `json:"departure"`
	Arrival   time.Time `json:"arrival"`
	Distance  float64   `json:"distance,omitempty"`
}

// Journey is one Pareto-optimal result of a query.
type Journey struct {
	Departure time.Time     `json:"departure"`
	Arrival   time.Time     `json:"arrival"`
	Transfers int           `json:"transfers"`
	WalkTime  time.Duration `json:"walk_time"`
	Legs      []Leg         `json:"legs"`
}

// Plan runs a query against the feed's graph and its current overlay.
// Journeys are ordered by departure, then arrival.
func (r *Router) Plan(ctx context.Context, q Query) (journeys []Journey, err error) {
	defer internal.Time(ctx, "plan")(&err)
	f, err := r.Feed(q.FeedID)
	if err != nil {
		return nil, err
	}
	from, ok := f.Graph.StopNodes(q.From)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownStop, q.From)
	}
	to, ok := f.Graph.StopNodes(q.To)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownStop, q.To)
	}

	overlay := f.Cache.Get()
	s := mlsearch.New(
		ptgraph.NewOverlayExplorer(f.Graph, overlay, r.weighting, q.ArriveBy),
		r.weighting,
		mlsearch.Options{
			Reverse:                   q.ArriveBy,
			MaxWalkDistancePerLeg:     r.search.MaxWalkDistancePerLeg,
			MaxTransferDistancePerLeg: r.search.MaxTransferDistancePerLeg,
			MindTransfers:             r.search.MindTransfers,
			ProfileQuery:              q.Profile,
			MaxVisitedNodes:           r.search.MaxVisitedNodes,
		})
	origin, target := from.Station, to.Station
	if q.ArriveBy {
		origin, target = target, origin
	}
	it := s.CalcLabels(origin, target, q.Time)
	for range it.All() {
	}
	r.metrics.ObserveSearch(it.VisitedNodes())

	for _, l := range it.TargetLabels() {
		j := f.journey(it, l, q, overlay)
		if !q.inWindow(j) {
			continue
		}
		journeys = append(journeys, j)
	}
	slices.SortFunc(journeys, func(a, b Journey) int {
		return cmp.Or(a.Departure.Compare(b.Departure), a.Arrival.Compare(b.Arrival))
	})
	return journeys, nil
}

func (q Query) inWindow(j Journey) bool {
	if !q.Profile || q.ProfileWindow <= 0 {
		return true
	}
	if q.ArriveBy {
		return !j.Arrival.Before(q.Time.Add(-q.ProfileWindow))
	}
	return !j.Departure.After(q.Time.Add(q.ProfileWindow))
}

type step struct {
	edge   ptgraph.Edge
	t0, t1 time.Time
}

func (f *Feed) journey(it *mlsearch.Iterator, l mlsearch.Label, q Query, o *ptgraph.Overlay) Journey {
	path := it.Path(l)
	if q.ArriveBy {
		slices.Reverse(path)
	}
	var steps []step
	for k := 1; k < len(path); k++ {
		id := path[k].Edge
		if q.ArriveBy {
			id = path[k-1].Edge
		}
		e, ok := ptgraph.ResolveEdge(f.Graph, o, id)
		if !ok {
			continue
		}
		steps = append(steps, step{
			edge: e,
			t0:   time.UnixMilli(path[k-1].Time).In(f.Location),
			t1:   time.UnixMilli(path[k].Time).In(f.Location),
		})
	}

	j := Journey{
		Transfers: l.Transfers,
		WalkTime:  time.Duration(l.WalkTime) * time.Millisecond,
		Legs:      f.legs(steps, q.From, o),
	}
	end := time.UnixMilli(l.Time).In(f.Location)
	anchor := q.Time.In(f.Location)
	if l.HasDeparture {
		anchor = time.UnixMilli(l.Departure).In(f.Location)
	}
	if q.ArriveBy {
		j.Departure, j.Arrival = end, anchor
	} else {
		j.Departure, j.Arrival = anchor, end
	}
	return j
}

// tripID names the trip behind a board edge of the graph or of o.
func (f *Feed) tripID(boardEdge int, o *ptgraph.Overlay) string {
	if id, ok := f.tripOfBoard[boardEdge]; ok {
		return id
	}
	id, _ := o.TripOfBoard(boardEdge)
	return id
}

func (f *Feed) legs(steps []step, origin string, o *ptgraph.Overlay) []Leg {
	var legs []Leg
	var cur *Leg
	last := origin
	awaitingStop := false
	for _, s := range steps {
		switch s.edge.Type {
		case ptgraph.Highway:
			if cur == nil || cur.Mode != ModeWalk {
				legs = append(legs, Leg{Mode: ModeWalk, From: last, Departure: s.t0})
				cur = &legs[len(legs)-1]
			}
			cur.Distance += s.edge.Distance
			cur.Arrival = s.t1
		case ptgraph.Board:
			legs = append(legs, Leg{Mode: ModePT, From: last, TripID: f.tripID(s.edge.ID, o), Departure: s.t0})
			cur = &legs[len(legs)-1]
		case ptgraph.Alight:
			if cur != nil {
				cur.Arrival = s.t1
				awaitingStop = true
			}
		}
		stop, ok := f.stopOfNode[s.edge.Adj]
		if !ok {
			continue
		}
		last = stop
		if cur == nil {
			continue
		}
		if cur.Mode == ModeWalk && s.edge.Type == ptgraph.Highway {
			cur.To = stop
		}
		if awaitingStop {
			cur.To = stop
			awaitingStop = false
			cur = nil
		}
	}
	return legs
}
