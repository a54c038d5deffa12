// Package realtime turns GTFS-Realtime trip updates into overlays on the
// static transit graph and keeps the current overlay of each feed fresh.
//
// Delays are propagated along a trip's stop times, the stale board and
// alight edges of changed trips are blocked, and the rebuilt trips are added
// as virtual edges through the same ptgraph.TripBuilder the static import
// uses.
package realtime
