package ptgraph

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
	"github.com/tidwall/rtree"

	"github.com/TestStacey/graphhopper/gtfs"
)

// AddFootpaths links the station nodes of every pair of stops at most
// maxMeters apart with street edges in both directions. It returns the
// number of stop pairs linked.
func AddFootpaths(g *Graph, stops []gtfs.Stop, maxMeters float64) int {
	if maxMeters <= 0 || len(stops) < 2 {
		return 0
	}
	var tr rtree.RTreeG[int]
	points := make([]orb.Point, len(stops))
	for i, s := range stops {
		points[i] = orb.Point{s.Lon, s.Lat}
		tr.Insert(points[i], points[i], i)
	}
	linked := 0
	for i, s := range stops {
		from, ok := g.StopNodes(s.ID)
		if !ok {
			continue
		}
		bound := geo.NewBoundAroundPoint(points[i], maxMeters)
		tr.Search(bound.Min, bound.Max, func(_, _ [2]float64, j int) bool {
			if j <= i {
				return true
			}
			d := geo.Distance(points[i], points[j])
			if d > maxMeters {
				return true
			}
			to, ok := g.StopNodes(stops[j].ID)
			if !ok {
				return true
			}
			g.AddEdge(Edge{Base: from.Station, Adj: to.Station, Type: Highway, Distance: d, Validity: NoValidity})
			g.AddEdge(Edge{Base: to.Station, Adj: from.Station, Type: Highway, Distance: d, Validity: NoValidity})
			linked++
			return true
		})
	}
	return linked
}
