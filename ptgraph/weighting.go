package ptgraph

import "math"

// TravelTimeWeighting derives the per-edge criteria the label-setting search
// accumulates besides time.
type TravelTimeWeighting struct {
	walkSpeed float64 // meters per second
}

func NewTravelTimeWeighting(walkSpeedKmh float64) *TravelTimeWeighting {
	return &TravelTimeWeighting{walkSpeed: walkSpeedKmh / 3.6}
}

// Transfers counts boardings: every BOARD edge is one more vehicle.
func (w *TravelTimeWeighting) Transfers(e Edge) int {
	if e.Type == Board {
		return 1
	}
	return 0
}

// WalkDistance is the street distance of the edge in meters.
func (w *TravelTimeWeighting) WalkDistance(e Edge) float64 {
	if e.Type == Highway {
		return e.Distance
	}
	return 0
}

// WalkMillis is the time needed to walk a street edge.
func (w *TravelTimeWeighting) WalkMillis(e Edge) int64 {
	return int64(math.Round(w.WalkDistance(e) / w.walkSpeed * 1000))
}
