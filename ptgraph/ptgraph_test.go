package ptgraph

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TestStacey/graphhopper/gtfs"
	"github.com/TestStacey/graphhopper/internal/testfeed"
)

func importDefault(t *testing.T) (*gtfs.GTFSIndex, *Graph) {
	t.Helper()
	idx, err := gtfs.NewGTFSIndexFromBytes("sf", testfeed.Zip(t, testfeed.Files()))
	require.NoError(t, err)
	g, err := Import(idx, ImportOptions{MaxFootpathMeters: 300})
	require.NoError(t, err)
	return idx, g
}

func at(t *testing.T, hour, min int) int64 {
	t.Helper()
	la, err := time.LoadLocation(testfeed.Timezone)
	require.NoError(t, err)
	return time.Date(2024, 6, 3, hour, min, 0, 0, la).UnixMilli()
}

func edgesOfType(edges []Edge, typ EdgeType) []Edge {
	var out []Edge
	for _, e := range edges {
		if e.Type == typ {
			out = append(out, e)
		}
	}
	return out
}

func TestImport_Structure(t *testing.T) {
	_, g := importDefault(t)

	for _, id := range []string{"A", "B", "C", "D", "E"} {
		_, ok := g.StopNodes(id)
		assert.True(t, ok, "stop %s", id)
	}

	te, ok := g.TripEdges("T1")
	require.True(t, ok)
	assert.Len(t, te.Board, 3)
	assert.Len(t, te.Alight, 3)
	for i := range te.Board {
		assert.Equal(t, Board, g.Edge(te.Board[i]).Type)
		assert.Equal(t, Alight, g.Edge(te.Alight[i]).Type)
	}
}

func TestImport_FootpathsOnlyBetweenCloseStops(t *testing.T) {
	_, g := importDefault(t)
	a, _ := g.StopNodes("A")
	e, _ := g.StopNodes("E")

	walks := edgesOfType(g.incident(a.Station, false), Highway)
	require.Len(t, walks, 1)
	assert.Equal(t, e.Station, walks[0].Adj)
	assert.InDelta(t, 111, walks[0].Distance, 2)

	back := edgesOfType(g.incident(e.Station, false), Highway)
	require.Len(t, back, 1)
	assert.Equal(t, a.Station, back[0].Adj)
}

func TestExplorer_NextDepartureOnly(t *testing.T) {
	_, g := importDefault(t)
	x := NewExplorer(g, NewTravelTimeWeighting(5), false)
	a, _ := g.StopNodes("A")

	tests := []struct {
		name     string
		now      int64
		wantNone bool
		wantTime int32
	}{
		{"before first", at(t, 7, 58), false, 8 * 3600},
		{"between departures", at(t, 8, 1), false, 8*3600 + 5*60},
		{"after last", at(t, 8, 6), true, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			enter := edgesOfType(x.EdgesAround(a.Enter, tt.now), EnterTimeExpandedNetwork)
			if tt.wantNone {
				assert.Empty(t, enter)
				return
			}
			require.Len(t, enter, 1)
			assert.Equal(t, tt.wantTime, enter[0].Time)
			assert.Equal(t, int64(tt.wantTime)*1000-(tt.now-at(t, 0, 0)), x.TravelTimeMillis(enter[0], tt.now))
		})
	}
}

func TestExplorer_ReverseLatestArrival(t *testing.T) {
	_, g := importDefault(t)
	x := NewExplorer(g, NewTravelTimeWeighting(5), true)
	c, _ := g.StopNodes("C")

	leave := edgesOfType(x.EdgesAround(c.Exit, at(t, 8, 25)), LeaveTimeExpandedNetwork)
	require.Len(t, leave, 1)
	assert.Equal(t, int32(8*3600+20*60), leave[0].Time)
	assert.Equal(t, c.Exit, leave[0].Base, "reverse edges are oriented in travel direction")
	assert.Equal(t, int64(5*60*1000), x.TravelTimeMillis(leave[0], at(t, 8, 25)))
}

func TestExplorer_BoardValidity(t *testing.T) {
	_, g := importDefault(t)
	x := NewExplorer(g, NewTravelTimeWeighting(5), false)
	te, _ := g.TripEdges("T1")
	board := g.Edge(te.Board[0])

	assert.Len(t, edgesOfType(x.EdgesAround(board.Base, at(t, 8, 0)), Board), 1)

	outOfService := time.Date(2025, 6, 3, 8, 0, 0, 0, time.UTC).UnixMilli()
	assert.Empty(t, edgesOfType(x.EdgesAround(board.Base, outOfService), Board))
}

func TestExplorer_BoardValidityPastMidnight(t *testing.T) {
	idx, err := gtfs.NewGTFSIndexFromBytes("sf", testfeed.Zip(t, testfeed.AfterMidnight()))
	require.NoError(t, err)
	g, err := Import(idx, ImportOptions{MaxFootpathMeters: 300})
	require.NoError(t, err)
	x := NewExplorer(g, NewTravelTimeWeighting(5), false)
	te, ok := g.TripEdges("T9")
	require.True(t, ok)
	board := g.Edge(te.Board[0])
	assert.Equal(t, int32(1), board.DayShift)
	assert.Equal(t, int32(1), g.Edge(te.Alight[1]).DayShift)

	la, err := time.LoadLocation(testfeed.Timezone)
	require.NoError(t, err)
	tests := []struct {
		name  string
		at    time.Time
		valid bool
	}{
		{"tuesday 01:00 runs on monday service", time.Date(2024, 6, 4, 1, 0, 0, 0, la), true},
		{"monday 01:00 would be sunday service", time.Date(2024, 6, 3, 1, 0, 0, 0, la), false},
		{"wednesday 01:00 would be tuesday service", time.Date(2024, 6, 5, 1, 0, 0, 0, la), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			boards := edgesOfType(x.EdgesAround(board.Base, tt.at.UnixMilli()), Board)
			if tt.valid {
				assert.Len(t, boards, 1)
			} else {
				assert.Empty(t, boards)
			}
			t.Logf("✓ %s", tt.name)
		})
	}

	a, _ := g.StopNodes("A")
	enter := edgesOfType(x.EdgesAround(a.Enter, time.Date(2024, 6, 4, 0, 55, 0, 0, la).UnixMilli()), EnterTimeExpandedNetwork)
	require.Len(t, enter, 1)
	assert.Equal(t, int32(3600), enter[0].Time, "25:00 sits at 01:00 on the timeline")
}

func TestWeighting(t *testing.T) {
	w := NewTravelTimeWeighting(3.6)
	walk := Edge{Type: Highway, Distance: 100}
	ride := Edge{Type: Hop, Distance: 100, Time: 60}

	assert.Equal(t, 1, w.Transfers(Edge{Type: Board}))
	assert.Equal(t, 0, w.Transfers(ride))
	assert.Equal(t, 100.0, w.WalkDistance(walk))
	assert.Equal(t, 0.0, w.WalkDistance(ride))
	assert.Equal(t, int64(100_000), w.WalkMillis(walk))
}

func TestOverlayExplorer_BlocksAndAdds(t *testing.T) {
	_, g := importDefault(t)
	te, _ := g.TripEdges("T1")
	b, _ := g.StopNodes("B")

	w := NewOverlayWriter(g, "sf")
	w.Block(te.Board[0])
	tb := NewTripBuilder(w, g.StopNodes, 0)
	added, err := tb.AddTrip(Trip{
		ID: "X1",
		StopTimes: []gtfs.StopTime{
			{StopID: "B", Sequence: 1, Arrival: 8*3600 + 40*60, Departure: 8*3600 + 40*60},
			{StopID: "D", Sequence: 2, Arrival: 8*3600 + 50*60, Departure: 8*3600 + 50*60},
		},
		Validity: 0,
	})
	require.NoError(t, err)
	w.SetTrip("X1", added)
	tb.WireUpStops()
	o := w.Finish(time.Now())

	for _, id := range append(added.Board, added.Alight...) {
		assert.Greater(t, id, g.MaxEdgeID())
	}
	for _, ve := range o.AdditionalEdges() {
		assert.Equal(t, ve.Edge.ID, ve.Reverse.ID)
		assert.Equal(t, ve.Edge.Base, ve.Reverse.Adj)
		assert.Equal(t, ve.Edge.Adj, ve.Reverse.Base)
	}
	assert.Equal(t, []int{te.Board[0]}, o.BlockedEdges())
	assert.Equal(t, 8, o.NodeCount())

	e, ok := ResolveEdge(g, o, added.Board[0])
	require.True(t, ok)
	assert.Equal(t, Board, e.Type)
	e, ok = ResolveEdge(g, o, te.Board[0])
	require.True(t, ok)
	assert.Equal(t, g.Edge(te.Board[0]), e)
	_, ok = ResolveEdge(g, nil, added.Board[0])
	assert.False(t, ok)

	trip, ok := o.TripOfBoard(added.Board[1])
	assert.True(t, ok)
	assert.Equal(t, "X1", trip)
	_, ok = o.TripOfBoard(te.Board[0])
	assert.False(t, ok, "base edges are named by the graph")

	x := NewOverlayExplorer(g, o, NewTravelTimeWeighting(5), false)
	board := g.Edge(te.Board[0])
	assert.Empty(t, edgesOfType(x.EdgesAround(board.Base, at(t, 8, 0)), Board))

	// B's enter node offers the next base departure and the next overlay one.
	enter := edgesOfType(x.EdgesAround(b.Enter, at(t, 8, 12)), EnterTimeExpandedNetwork)
	require.Len(t, enter, 2)
	assert.Equal(t, int32(8*3600+15*60), enter[0].Time)
	assert.Equal(t, int32(8*3600+40*60), enter[1].Time)
	assert.Greater(t, enter[1].ID, g.MaxEdgeID())

	plain := NewExplorer(g, NewTravelTimeWeighting(5), false)
	assert.Len(t, edgesOfType(plain.EdgesAround(b.Enter, at(t, 8, 12)), EnterTimeExpandedNetwork), 1)
}

func TestOverlay_NilAndEmpty(t *testing.T) {
	var o *Overlay
	assert.False(t, o.IsBlocked(3))
	assert.Nil(t, o.AdditionalEdges())
	_, ok := o.TripOfBoard(3)
	assert.False(t, ok)
	assert.True(t, o.IsEmpty())
	assert.True(t, EmptyOverlay().IsEmpty())
}
