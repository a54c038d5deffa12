package gtfsrt

import (
	"fmt"
	"time"

	gtfsrtpb "github.com/MobilityData/gtfs-realtime-bindings/golang/gtfs"
	"google.golang.org/protobuf/encoding/prototext"
	"google.golang.org/protobuf/proto"
)

// Decode parses a protobuf-encoded feed message.
func Decode(b []byte) (*gtfsrtpb.FeedMessage, error) {
	var fm gtfsrtpb.FeedMessage
	if err := proto.Unmarshal(b, &fm); err != nil {
		return nil, fmt.Errorf("failed to decode feed message: %w", err)
	}
	return &fm, nil
}

// TripUpdates returns the trip updates of a feed in entity order.
func TripUpdates(fm *gtfsrtpb.FeedMessage) []*gtfsrtpb.TripUpdate {
	var out []*gtfsrtpb.TripUpdate
	for _, e := range fm.GetEntity() {
		if e.GetTripUpdate() != nil {
			out = append(out, e.GetTripUpdate())
		}
	}
	return out
}

// HeaderTime is the feed's header timestamp, or fallback when it has none.
func HeaderTime(fm *gtfsrtpb.FeedMessage, fallback time.Time) time.Time {
	if ts := fm.GetHeader().GetTimestamp(); ts > 0 {
		return time.Unix(int64(ts), 0)
	}
	return fallback
}

// Dump renders a feed message in protobuf text format.
func Dump(fm *gtfsrtpb.FeedMessage) string {
	return prototext.MarshalOptions{Multiline: true, Indent: "  "}.Format(fm)
}
