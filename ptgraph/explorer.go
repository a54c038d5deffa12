package ptgraph

import "time"

// Explorer enumerates the edges a search may traverse from a node at a given
// time, and evaluates their time-dependent travel time.
type Explorer interface {
	// EdgesAround returns the usable edges at node, oriented in the
	// direction of travel.
	EdgesAround(node int, timeMillis int64) []Edge
	// TravelTimeMillis is the non-negative time needed to traverse e when
	// reaching its start at timeMillis. A reverse search subtracts it.
	TravelTimeMillis(e Edge, timeMillis int64) int64
}

type plainExplorer struct {
	g        *Graph
	w        *TravelTimeWeighting
	reverse  bool
	validity func(id int32) Validity
}

// NewExplorer explores the base graph alone.
func NewExplorer(g *Graph, w *TravelTimeWeighting, reverse bool) Explorer {
	return &plainExplorer{g: g, w: w, reverse: reverse, validity: g.Validity}
}

func (x *plainExplorer) EdgesAround(node int, timeMillis int64) []Edge {
	return x.selectEdges(x.g.incident(node, x.reverse), timeMillis)
}

func (x *plainExplorer) TravelTimeMillis(e Edge, timeMillis int64) int64 {
	switch e.Type {
	case Highway:
		return x.w.WalkMillis(e)
	case EnterTimeExpandedNetwork:
		if x.reverse {
			return 0
		}
		return int64(e.Time)*1000 - millisOfDay(timeMillis, x.validity(e.Validity).location())
	case LeaveTimeExpandedNetwork:
		if x.reverse {
			return millisOfDay(timeMillis, x.validity(e.Validity).location()) - int64(e.Time)*1000
		}
		return 0
	default:
		return int64(e.Time) * 1000
	}
}

// selectEdges drops edges that cannot be used at timeMillis. Of the edges
// into the time-expanded network only the next reachable event is kept;
// later events are reached by waiting.
func (x *plainExplorer) selectEdges(edges []Edge, timeMillis int64) []Edge {
	out := make([]Edge, 0, len(edges))
	timetable := -1
	for _, e := range edges {
		switch {
		case e.Type == Board && !x.reverse, e.Type == Alight && x.reverse:
			if !x.validity(e.Validity).ValidOnServiceDay(time.UnixMilli(timeMillis), int(e.DayShift)) {
				continue
			}
		case e.Type == EnterTimeExpandedNetwork && !x.reverse:
			if int64(e.Time)*1000 < millisOfDay(timeMillis, x.validity(e.Validity).location()) {
				continue
			}
			if timetable >= 0 {
				if e.Time < out[timetable].Time {
					out[timetable] = e
				}
				continue
			}
			timetable = len(out)
		case e.Type == LeaveTimeExpandedNetwork && x.reverse:
			if int64(e.Time)*1000 > millisOfDay(timeMillis, x.validity(e.Validity).location()) {
				continue
			}
			if timetable >= 0 {
				if e.Time > out[timetable].Time {
					out[timetable] = e
				}
				continue
			}
			timetable = len(out)
		}
		out = append(out, e)
	}
	return out
}

type overlayExplorer struct {
	plainExplorer
	overlay *Overlay
}

// NewOverlayExplorer explores the base graph as patched by o: blocked edges
// are skipped and virtual edges are offered at their attachment nodes.
func NewOverlayExplorer(g *Graph, o *Overlay, w *TravelTimeWeighting, reverse bool) Explorer {
	x := &overlayExplorer{overlay: o}
	x.plainExplorer = plainExplorer{g: g, w: w, reverse: reverse, validity: x.lookupValidity}
	return x
}

func (x *overlayExplorer) lookupValidity(id int32) Validity {
	if v, ok := x.overlay.validityAt(id); ok {
		return v
	}
	return x.g.Validity(id)
}

func (x *overlayExplorer) EdgesAround(node int, timeMillis int64) []Edge {
	base := x.g.incident(node, x.reverse)
	kept := base[:0]
	for _, e := range base {
		if !x.overlay.IsBlocked(e.ID) {
			kept = append(kept, e)
		}
	}
	out := x.selectEdges(kept, timeMillis)
	return append(out, x.selectEdges(x.overlay.incident(node, x.reverse), timeMillis)...)
}
