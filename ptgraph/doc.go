// Package ptgraph holds the time-expanded public transport graph.
//
// Every stop has a station node (where walking happens), an enter node and an
// exit node. Each scheduled departure and arrival at a stop is its own event
// node; event nodes are chained in time order with WAIT and WAIT_ARRIVAL
// edges and reached through ENTER_TIME_EXPANDED_NETWORK and
// LEAVE_TIME_EXPANDED_NETWORK edges. Vehicles move along HOP and DWELL edges
// between BOARD and ALIGHT edges.
//
// A Graph is read-only once built. Realtime changes never touch it; they are
// expressed as an Overlay which an Explorer layers on top.
package ptgraph
