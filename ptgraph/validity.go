package ptgraph

import (
	"time"

	"github.com/bits-and-blooms/bitset"

	"github.com/TestStacey/graphhopper/gtfs"
)

// Validity says on which days an edge may be used and in which zone its
// times of day are expressed. Bit i of Days is the i-th day after Start.
type Validity struct {
	Days     *bitset.BitSet // nil means every day
	Start    time.Time
	Location *time.Location
}

func (v Validity) location() *time.Location {
	if v.Location == nil {
		return time.UTC
	}
	return v.Location
}

// ValidOnServiceDay reports whether an event at instant t, happening
// dayShift days after its service day, belongs to a valid service day.
func (v Validity) ValidOnServiceDay(t time.Time, dayShift int) bool {
	if v.Days == nil {
		return true
	}
	d := gtfs.DaysBetween(v.Start, t.In(v.location())) - dayShift
	if d < 0 {
		return false
	}
	return v.Days.Test(uint(d))
}

// millisOfDay returns the milliseconds elapsed since local midnight of the
// day containing the epoch instant t.
func millisOfDay(t int64, loc *time.Location) int64 {
	local := time.UnixMilli(t).In(loc)
	y, m, d := local.Date()
	return t - time.Date(y, m, d, 0, 0, 0, 0, loc).UnixMilli()
}
