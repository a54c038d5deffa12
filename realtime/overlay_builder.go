package realtime

import (
	"errors"
	"fmt"
	"log"
	"time"

	gtfsrtpb "github.com/MobilityData/gtfs-realtime-bindings/golang/gtfs"

	"github.com/TestStacey/graphhopper/gtfs"
	"github.com/TestStacey/graphhopper/gtfsrt"
	"github.com/TestStacey/graphhopper/ptgraph"
)

// FeedContext is the static side of one feed: its graph, with the trip to
// edge index, and its schedule.
type FeedContext struct {
	FeedID   string
	Graph    *ptgraph.Graph
	Static   *gtfs.GTFSIndex
	Location *time.Location // defaults to the static feed's zone
}

type overlayBuild struct {
	feed         FeedContext
	loc          *time.Location
	start        time.Time
	dateToChange time.Time
	w            *ptgraph.OverlayWriter
	tb           *ptgraph.TripBuilder
}

// BuildOverlay turns the trip updates of msg into an overlay on feed's graph.
//
// Skipped stops block the board and alight edge at their position. Canceled
// trips are blocked entirely. Added trips and trips carrying delays are
// rebuilt and added as virtual edges; the original edges of delayed trips
// are blocked. Updates for trips the graph does not know are logged and
// dropped. A stop time update that cannot be applied fails the build.
func BuildOverlay(feed FeedContext, msg *gtfsrtpb.FeedMessage) (*ptgraph.Overlay, error) {
	loc := feed.Location
	if loc == nil {
		l, err := feed.Static.Location()
		if err != nil {
			return nil, fmt.Errorf("feed %s: %w", feed.FeedID, err)
		}
		loc = l
	}
	feedTime := gtfsrt.HeaderTime(msg, time.Now())

	b := &overlayBuild{
		feed:         feed,
		loc:          loc,
		start:        feed.Static.StartDate(),
		dateToChange: feedTime.In(loc),
		w:            ptgraph.NewOverlayWriter(feed.Graph, feed.FeedID),
	}
	b.tb = ptgraph.NewTripBuilder(b.w, feed.Graph.StopNodes, b.w.AddValidity(ptgraph.Validity{Location: loc}))

	updates := gtfsrt.TripUpdates(msg)
	for _, tu := range updates {
		b.blockSkipped(tu)
	}
	for _, tu := range updates {
		if tu.GetTrip().GetScheduleRelationship() != gtfsrtpb.TripDescriptor_ADDED {
			continue
		}
		if err := b.addTrip(StaticTrip{FeedStart: b.start}, tu); err != nil {
			return nil, err
		}
	}
	for _, tu := range updates {
		switch tu.GetTrip().GetScheduleRelationship() {
		case gtfsrtpb.TripDescriptor_ADDED:
		case gtfsrtpb.TripDescriptor_CANCELED:
			b.blockTrip(tu.GetTrip().GetTripId())
		default:
			if !hasDelay(tu) {
				continue
			}
			tripID := tu.GetTrip().GetTripId()
			if !b.blockTrip(tripID) {
				continue
			}
			static := StaticTrip{
				ID:        tripID,
				RouteID:   feed.Static.Trips[tripID].RouteID,
				StopTimes: feed.Static.StopTimesForTrip(tripID),
				FeedStart: b.start,
			}
			if err := b.addTrip(static, tu); err != nil {
				return nil, err
			}
		}
	}
	b.tb.WireUpStops()
	return b.w.Finish(feedTime), nil
}

func (b *overlayBuild) blockSkipped(tu *gtfsrtpb.TripUpdate) {
	trip := tu.GetTrip()
	if trip.GetScheduleRelationship() == gtfsrtpb.TripDescriptor_ADDED {
		return
	}
	var te ptgraph.TripEdges
	found := false
	for _, stu := range tu.GetStopTimeUpdate() {
		if stu.GetScheduleRelationship() != gtfsrtpb.TripUpdate_StopTimeUpdate_SKIPPED {
			continue
		}
		if !found {
			if te, found = b.feed.Graph.TripEdges(trip.GetTripId()); !found {
				log.Printf("realtime: feed %s: trip %s not found, skipping", b.feed.FeedID, trip.GetTripId())
				return
			}
		}
		i := int(stu.GetStopSequence()) - 1
		if i < 0 || i >= len(te.Board) {
			log.Printf("realtime: feed %s: trip %s has no stop sequence %d, skipping", b.feed.FeedID, trip.GetTripId(), stu.GetStopSequence())
			continue
		}
		b.w.Block(te.Board[i], te.Alight[i])
	}
}

// blockTrip blocks every board and alight edge of a static trip and reports
// whether the trip exists.
func (b *overlayBuild) blockTrip(tripID string) bool {
	te, ok := b.feed.Graph.TripEdges(tripID)
	if !ok {
		log.Printf("realtime: feed %s: trip %s not found, skipping", b.feed.FeedID, tripID)
		return false
	}
	b.w.Block(te.Board...)
	b.w.Block(te.Alight...)
	return true
}

func (b *overlayBuild) addTrip(static StaticTrip, tu *gtfsrtpb.TripUpdate) error {
	trip, err := PropagateDelays(static, tu, b.dateToChange, b.loc)
	if err != nil {
		return fmt.Errorf("feed %s: %w", b.feed.FeedID, err)
	}
	validity := b.w.AddValidity(ptgraph.Validity{Days: trip.ValidOnDay, Start: b.start, Location: b.loc})
	te, err := b.tb.AddTrip(ptgraph.Trip{
		ID:        trip.ID,
		RouteID:   trip.RouteID,
		StopTimes: withoutSkipped(trip.StopTimes, tu),
		Validity:  validity,
	})
	if errors.Is(err, ptgraph.ErrUnknownStop) {
		log.Printf("realtime: feed %s: %v, skipping", b.feed.FeedID, err)
		return nil
	}
	if err != nil {
		return err
	}
	b.w.SetTrip(trip.ID, te)
	return nil
}

func hasDelay(tu *gtfsrtpb.TripUpdate) bool {
	for _, stu := range tu.GetStopTimeUpdate() {
		if hasDelayValue(stu.GetArrival()) || hasDelayValue(stu.GetDeparture()) {
			return true
		}
	}
	return false
}

// withoutSkipped drops the stops the update skips. Their times still bound
// the times of later stops.
func withoutSkipped(sts []gtfs.StopTime, tu *gtfsrtpb.TripUpdate) []gtfs.StopTime {
	skipped := map[int]bool{}
	for _, stu := range tu.GetStopTimeUpdate() {
		if stu.GetScheduleRelationship() == gtfsrtpb.TripUpdate_StopTimeUpdate_SKIPPED {
			skipped[int(stu.GetStopSequence())] = true
		}
	}
	if len(skipped) == 0 {
		return sts
	}
	out := make([]gtfs.StopTime, 0, len(sts))
	for _, st := range sts {
		if !skipped[st.Sequence] {
			out = append(out, st)
		}
	}
	return out
}
