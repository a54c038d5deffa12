package ptgraph

import "fmt"

// EdgeType tags the role of an edge in the time-expanded network.
type EdgeType uint8

const (
	Highway EdgeType = iota
	EnterPT
	ExitPT
	EnterTimeExpandedNetwork
	LeaveTimeExpandedNetwork
	Wait
	WaitArrival
	Board
	Alight
	Hop
	Dwell
)

var edgeTypeNames = [...]string{
	Highway:                  "HIGHWAY",
	EnterPT:                  "ENTER_PT",
	ExitPT:                   "EXIT_PT",
	EnterTimeExpandedNetwork: "ENTER_TIME_EXPANDED_NETWORK",
	LeaveTimeExpandedNetwork: "LEAVE_TIME_EXPANDED_NETWORK",
	Wait:                     "WAIT",
	WaitArrival:              "WAIT_ARRIVAL",
	Board:                    "BOARD",
	Alight:                   "ALIGHT",
	Hop:                      "HOP",
	Dwell:                    "DWELL",
}

func (t EdgeType) String() string {
	if int(t) < len(edgeTypeNames) {
		return edgeTypeNames[t]
	}
	return fmt.Sprintf("EdgeType(%d)", t)
}

// NoEdge is the incoming edge of a search's origin label.
const NoEdge = -1

// NoValidity marks edges without a validity entry.
const NoValidity int32 = -1

// Edge is a directed edge. Edges handed out by an Explorer are oriented in
// the direction of travel, so a reverse search sees Base and Adj swapped.
type Edge struct {
	ID       int
	Base     int
	Adj      int
	Type     EdgeType
	Time     int32   // seconds of travel; seconds of day on time-expanded entry and exit
	Distance float64 // meters, street edges only
	Validity int32
	// DayShift is how many days after its service day a BOARD or ALIGHT
	// event happens, for times at or past 24:00.
	DayShift int32
}

func (e Edge) reversed() Edge {
	e.Base, e.Adj = e.Adj, e.Base
	return e
}
