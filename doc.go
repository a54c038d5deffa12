// Package graphhopper plans public transit journeys over one or more GTFS
// feeds, patched by their GTFS-Realtime trip updates.
//
// A Router imports every configured feed into a time-expanded graph and
// keeps a realtime overlay per feed fresh in the background. Plan runs a
// multi-criteria label-setting search on the graph seen through the
// current overlay. Server exposes planning, realtime feed inspection,
// health and Prometheus metrics over HTTP.
package graphhopper
