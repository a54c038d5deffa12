package realtime

import (
	"errors"
	"fmt"
	"time"

	gtfsrtpb "github.com/MobilityData/gtfs-realtime-bindings/golang/gtfs"
	"github.com/bits-and-blooms/bitset"

	"github.com/TestStacey/graphhopper/gtfs"
)

// ErrMissingStopTime is returned for a stop time update that names a stop
// sequence the static trip lacks, on a trip that was not added.
var ErrMissingStopTime = errors.New("no static stop time for stop time update")

// StaticTrip is the scheduled side of a trip update. Added trips have no
// stop times.
type StaticTrip struct {
	ID        string
	RouteID   string
	StopTimes []gtfs.StopTime
	FeedStart time.Time // first service day of the static feed
}

// TripWithStopTimes is a trip rebuilt from a realtime update, valid on the
// single day the update applies to.
type TripWithStopTimes struct {
	ID         string
	RouteID    string
	StopTimes  []gtfs.StopTime
	Day        int // days after FeedStart
	ValidOnDay *bitset.BitSet
}

type stopTimeUpdate struct {
	seq          int
	stopID       string
	relationship gtfsrtpb.TripUpdate_StopTimeUpdate_ScheduleRelationship
	arrival      *gtfsrtpb.TripUpdate_StopTimeEvent
	departure    *gtfsrtpb.TripUpdate_StopTimeEvent
}

// PropagateDelays applies update to the static stop times of a trip.
//
// Delays carry forward to later stops until an update resets or replaces
// them, and every time is clamped so the sequence never runs backwards.
// dateToChange is the service day the update applies to; absolute times of
// added stops are counted from its midnight in loc.
func PropagateDelays(static StaticTrip, update *gtfsrtpb.TripUpdate, dateToChange time.Time, loc *time.Location) (*TripWithStopTimes, error) {
	trip := &TripWithStopTimes{ID: static.ID, RouteID: static.RouteID}
	if trip.ID == "" {
		trip.ID = update.GetTrip().GetTripId()
	}
	if trip.RouteID == "" {
		trip.RouteID = update.GetTrip().GetRouteId()
	}
	added := update.GetTrip().GetScheduleRelationship() == gtfsrtpb.TripDescriptor_ADDED

	bySeq := make(map[int]gtfs.StopTime, len(static.StopTimes))
	lastStatic := 0
	for _, st := range static.StopTimes {
		bySeq[st.Sequence] = st
		lastStatic = max(lastStatic, st.Sequence)
	}

	updates := collectUpdates(update)
	ceiling := lastStatic
	if len(updates) > 0 {
		ceiling = max(ceiling, updates[len(updates)-1].seq)
	}
	updates = append(updates, stopTimeUpdate{seq: ceiling + 1, relationship: gtfsrtpb.TripUpdate_StopTimeUpdate_NO_DATA})

	y, m, d := dateToChange.In(loc).Date()
	serviceMidnight := time.Date(y, m, d, 0, 0, 0, 0, loc)

	delay, floor := 0, -1
	emit := func(st gtfs.StopTime) {
		st.Arrival = max(st.Arrival+delay, floor)
		floor = st.Arrival
		st.Departure = max(st.Departure+delay, floor)
		floor = st.Departure
		trip.StopTimes = append(trip.StopTimes, st)
	}

	for _, u := range updates {
		next := 1
		if n := len(trip.StopTimes); n > 0 {
			next = trip.StopTimes[n-1].Sequence + 1
		}
		for seq := next; seq < u.seq; seq++ {
			if st, ok := bySeq[seq]; ok {
				emit(st)
			}
		}

		st, ok := bySeq[u.seq]
		switch {
		case ok:
			if u.relationship == gtfsrtpb.TripUpdate_StopTimeUpdate_NO_DATA {
				delay = 0
			}
			if hasDelayValue(u.arrival) {
				delay = int(u.arrival.GetDelay())
			}
			st.Arrival = max(st.Arrival+delay, floor)
			floor = st.Arrival
			if hasDelayValue(u.departure) {
				delay = int(u.departure.GetDelay())
			}
			st.Departure = max(st.Departure+delay, floor)
			floor = st.Departure
			trip.StopTimes = append(trip.StopTimes, st)
		case u.relationship == gtfsrtpb.TripUpdate_StopTimeUpdate_NO_DATA:
		case added && u.relationship == gtfsrtpb.TripUpdate_StopTimeUpdate_SKIPPED:
		case added:
			st, err := addedStopTime(trip.ID, u, serviceMidnight)
			if err != nil {
				return nil, err
			}
			st.Arrival = max(st.Arrival, floor)
			st.Departure = max(st.Departure, st.Arrival)
			floor = st.Departure
			trip.StopTimes = append(trip.StopTimes, st)
		default:
			return nil, fmt.Errorf("trip %s stop sequence %d: %w", trip.ID, u.seq, ErrMissingStopTime)
		}
	}

	day := gtfs.DaysBetween(static.FeedStart, dateToChange)
	if day < 0 {
		return nil, fmt.Errorf("trip %s: update for %s precedes schedule start %s",
			trip.ID, dateToChange.Format(time.DateOnly), static.FeedStart.Format(time.DateOnly))
	}
	trip.Day = day
	trip.ValidOnDay = bitset.New(uint(day + 1)).Set(uint(day))
	return trip, nil
}

// collectUpdates copies the stop time updates, numbering those without a
// stop sequence after their predecessor.
func collectUpdates(update *gtfsrtpb.TripUpdate) []stopTimeUpdate {
	out := make([]stopTimeUpdate, 0, len(update.GetStopTimeUpdate())+1)
	prev := 0
	for _, stu := range update.GetStopTimeUpdate() {
		seq := int(stu.GetStopSequence())
		if stu.StopSequence == nil {
			seq = prev + 1
		}
		prev = seq
		out = append(out, stopTimeUpdate{
			seq:          seq,
			stopID:       stu.GetStopId(),
			relationship: stu.GetScheduleRelationship(),
			arrival:      stu.GetArrival(),
			departure:    stu.GetDeparture(),
		})
	}
	return out
}

// addedStopTime synthesizes a stop time from the absolute arrival time of
// an update, in seconds since the service day's midnight, so stops after
// midnight read as 24:00 and later. Both times use the arrival.
func addedStopTime(tripID string, u stopTimeUpdate, serviceMidnight time.Time) (gtfs.StopTime, error) {
	ev := u.arrival
	if ev.GetTime() == 0 {
		ev = u.departure
	}
	if ev.GetTime() == 0 {
		return gtfs.StopTime{}, fmt.Errorf("added trip %s stop sequence %d has no time: %w", tripID, u.seq, ErrMissingStopTime)
	}
	secs := int(time.Unix(ev.GetTime(), 0).Sub(serviceMidnight).Seconds())
	return gtfs.StopTime{TripID: tripID, StopID: u.stopID, Sequence: u.seq, Arrival: secs, Departure: secs}, nil
}

func hasDelayValue(ev *gtfsrtpb.TripUpdate_StopTimeEvent) bool {
	return ev != nil && ev.Delay != nil
}
