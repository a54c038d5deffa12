package ptgraph

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

// VirtualEdge is an overlay edge together with its reverse counterpart.
// Both share one id; Reverse runs from Edge.Adj to Edge.Base.
type VirtualEdge struct {
	Edge    Edge
	Reverse Edge
}

// Overlay is an immutable realtime patch over a Graph: edges that must not be
// traversed, plus virtual nodes and edges whose ids lie above the base
// graph's. It is safe for concurrent readers.
type Overlay struct {
	ID       string
	FeedID   string
	BuiltAt  time.Time
	FeedTime time.Time // header timestamp of the source feed message

	blocked       map[int]struct{}
	additional    []VirtualEdge
	out           map[int][]int // node -> index into additional, by Edge.Base
	in            map[int][]int // node -> index into additional, by Edge.Adj
	validity      []Validity
	firstValidity int32
	firstNode     int
	tripOfBoard   map[int]string
}

// EmptyOverlay blocks nothing and adds nothing.
func EmptyOverlay() *Overlay {
	return &Overlay{BuiltAt: time.Now()}
}

// IsBlocked reports whether a base edge is excluded from exploration.
func (o *Overlay) IsBlocked(edgeID int) bool {
	if o == nil {
		return false
	}
	_, ok := o.blocked[edgeID]
	return ok
}

// AdditionalEdges returns the overlay's virtual edges.
func (o *Overlay) AdditionalEdges() []VirtualEdge {
	if o == nil {
		return nil
	}
	return o.additional
}

// BlockedEdges returns the blocked edge ids in ascending order.
func (o *Overlay) BlockedEdges() []int {
	if o == nil {
		return nil
	}
	ids := make([]int, 0, len(o.blocked))
	for id := range o.blocked {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// IsEmpty reports whether the overlay changes nothing.
func (o *Overlay) IsEmpty() bool {
	return o == nil || (len(o.blocked) == 0 && len(o.additional) == 0)
}

// TripOfBoard names the trip a virtual board edge belongs to.
func (o *Overlay) TripOfBoard(edgeID int) (string, bool) {
	if o == nil {
		return "", false
	}
	id, ok := o.tripOfBoard[edgeID]
	return id, ok
}

func (o *Overlay) incident(node int, reverse bool) []Edge {
	if o == nil {
		return nil
	}
	if reverse {
		idx := o.in[node]
		out := make([]Edge, len(idx))
		for i, k := range idx {
			out[i] = o.additional[k].Reverse
		}
		return out
	}
	idx := o.out[node]
	out := make([]Edge, len(idx))
	for i, k := range idx {
		out[i] = o.additional[k].Edge
	}
	return out
}

func (o *Overlay) validityAt(id int32) (Validity, bool) {
	if o == nil {
		return Validity{}, false
	}
	k := id - o.firstValidity
	if k < 0 || int(k) >= len(o.validity) {
		return Validity{}, false
	}
	return o.validity[k], true
}

// OverlayWriter allocates overlay nodes and edges above a base graph's ids.
// It implements EdgeSink so a TripBuilder can write into it.
type OverlayWriter struct {
	o        *Overlay
	nextNode int
	nextEdge int
}

func NewOverlayWriter(base *Graph, feedID string) *OverlayWriter {
	return &OverlayWriter{
		o: &Overlay{
			FeedID:        feedID,
			blocked:       map[int]struct{}{},
			out:           map[int][]int{},
			in:            map[int][]int{},
			firstValidity: base.validityCount(),
			firstNode:     base.NodeCount(),
			tripOfBoard:   map[int]string{},
		},
		nextNode: base.NodeCount(),
		nextEdge: base.EdgeCount(),
	}
}

func (w *OverlayWriter) AddNode() int {
	id := w.nextNode
	w.nextNode++
	return id
}

// AddEdge records e and its reverse under a fresh id.
func (w *OverlayWriter) AddEdge(e Edge) int {
	e.ID = w.nextEdge
	w.nextEdge++
	k := len(w.o.additional)
	w.o.additional = append(w.o.additional, VirtualEdge{Edge: e, Reverse: e.reversed()})
	w.o.out[e.Base] = append(w.o.out[e.Base], k)
	w.o.in[e.Adj] = append(w.o.in[e.Adj], k)
	return e.ID
}

func (w *OverlayWriter) AddValidity(v Validity) int32 {
	w.o.validity = append(w.o.validity, v)
	return w.o.firstValidity + int32(len(w.o.validity)-1)
}

// SetTrip records tripID as the trip behind the board edges of te.
func (w *OverlayWriter) SetTrip(tripID string, te TripEdges) {
	for _, id := range te.Board {
		w.o.tripOfBoard[id] = tripID
	}
}

// Block excludes a base edge from exploration.
func (w *OverlayWriter) Block(edgeIDs ...int) {
	for _, id := range edgeIDs {
		w.o.blocked[id] = struct{}{}
	}
}

// Finish seals the overlay. The writer must not be used afterwards.
func (w *OverlayWriter) Finish(feedTime time.Time) *Overlay {
	o := w.o
	o.ID = uuid.NewString()
	o.BuiltAt = time.Now()
	o.FeedTime = feedTime
	w.o = nil
	return o
}

// NodeCount is the number of nodes the overlay added.
func (o *Overlay) NodeCount() int {
	if o == nil || len(o.additional) == 0 {
		return 0
	}
	hi := -1
	for _, ve := range o.additional {
		hi = max(hi, ve.Edge.Base, ve.Edge.Adj)
	}
	if hi < o.firstNode {
		return 0
	}
	return hi - o.firstNode + 1
}

// ResolveEdge looks up an edge id in g or, above g's ids, in o. Edges are
// returned in their forward orientation.
func ResolveEdge(g *Graph, o *Overlay, id int) (Edge, bool) {
	if id >= 0 && id < g.EdgeCount() {
		return g.Edge(id), true
	}
	if o == nil {
		return Edge{}, false
	}
	k := id - g.EdgeCount()
	if k < 0 || k >= len(o.additional) {
		return Edge{}, false
	}
	return o.additional[k].Edge, true
}
