package ptgraph

// StopNodes are the nodes a stop contributes to the graph.
type StopNodes struct {
	Station int
	Enter   int
	Exit    int
}

// TripEdges lists a trip's BOARD and ALIGHT edge ids by stop position, so
// stop sequence n maps to index n-1.
type TripEdges struct {
	Board  []int
	Alight []int
}

// EdgeSink receives nodes and edges from a TripBuilder.
type EdgeSink interface {
	AddNode() int
	AddEdge(e Edge) int
	AddValidity(v Validity) int32
}

// Graph is an in-memory adjacency-list graph. It is built by Import and must
// not be modified once searches run on it.
type Graph struct {
	edges    []Edge
	out      [][]int32 // node -> outgoing edge ids
	in       [][]int32 // node -> incoming edge ids
	validity []Validity
	stops    map[string]StopNodes
	trips    map[string]TripEdges
}

func NewGraph() *Graph {
	return &Graph{
		stops: map[string]StopNodes{},
		trips: map[string]TripEdges{},
	}
}

func (g *Graph) AddNode() int {
	g.out = append(g.out, nil)
	g.in = append(g.in, nil)
	return len(g.out) - 1
}

// AddEdge stores e under the next free id and returns that id.
func (g *Graph) AddEdge(e Edge) int {
	e.ID = len(g.edges)
	g.edges = append(g.edges, e)
	g.out[e.Base] = append(g.out[e.Base], int32(e.ID))
	g.in[e.Adj] = append(g.in[e.Adj], int32(e.ID))
	return e.ID
}

func (g *Graph) AddValidity(v Validity) int32 {
	g.validity = append(g.validity, v)
	return int32(len(g.validity) - 1)
}

func (g *Graph) NodeCount() int { return len(g.out) }

func (g *Graph) EdgeCount() int { return len(g.edges) }

// MaxEdgeID is the highest edge id in use, or -1 for an empty graph.
func (g *Graph) MaxEdgeID() int { return len(g.edges) - 1 }

// MaxNodeID is the highest node id in use, or -1 for an empty graph.
func (g *Graph) MaxNodeID() int { return len(g.out) - 1 }

func (g *Graph) Edge(id int) Edge { return g.edges[id] }

func (g *Graph) Validity(id int32) Validity {
	if id < 0 || int(id) >= len(g.validity) {
		return Validity{}
	}
	return g.validity[id]
}

func (g *Graph) validityCount() int32 { return int32(len(g.validity)) }

// incident returns the edges around node oriented in the direction of travel.
func (g *Graph) incident(node int, reverse bool) []Edge {
	if node < 0 || node >= len(g.out) {
		return nil
	}
	if reverse {
		ids := g.in[node]
		out := make([]Edge, len(ids))
		for i, id := range ids {
			out[i] = g.edges[id].reversed()
		}
		return out
	}
	ids := g.out[node]
	out := make([]Edge, len(ids))
	for i, id := range ids {
		out[i] = g.edges[id]
	}
	return out
}

func (g *Graph) SetStopNodes(stopID string, n StopNodes) { g.stops[stopID] = n }

// StopNodes looks up the station nodes of a stop.
func (g *Graph) StopNodes(stopID string) (StopNodes, bool) {
	n, ok := g.stops[stopID]
	return n, ok
}

func (g *Graph) SetTripEdges(tripID string, te TripEdges) { g.trips[tripID] = te }

// TripEdges looks up a trip's board and alight edges.
func (g *Graph) TripEdges(tripID string) (TripEdges, bool) {
	te, ok := g.trips[tripID]
	return te, ok
}
