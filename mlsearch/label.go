package mlsearch

import (
	"fmt"
	"time"
)

// NoParent is the Parent of a search's origin label.
const NoParent = -1

// Label is a partial journey ending at Node. Labels live in the arena of the
// search that created them and refer to their predecessor by arena index.
type Label struct {
	Node              int
	Time              int64 // epoch millis
	Edge              int   // incoming edge, ptgraph.NoEdge at the origin
	Transfers         int
	Violations        int
	WalkDistanceOnLeg float64
	Departure         int64 // first PT departure, valid if HasDeparture
	HasDeparture      bool
	WalkTime          int64 // millis spent on street edges
	Parent            int

	id int
}

// ID is the label's index in its search's arena.
func (l Label) ID() int { return l.id }

func (l Label) String() string {
	dep := "-"
	if l.HasDeparture {
		dep = time.UnixMilli(l.Departure).UTC().Format(time.TimeOnly)
	}
	return fmt.Sprintf("label{node=%d time=%s edge=%d transfers=%d violations=%d walk=%.0fm dep=%s}",
		l.Node, time.UnixMilli(l.Time).UTC().Format(time.TimeOnly), l.Edge, l.Transfers, l.Violations, l.WalkDistanceOnLeg, dep)
}

type labelState uint8

const (
	live labelState = iota
	settled
	evicted
)
