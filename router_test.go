package graphhopper

import (
	"context"
	"testing"
	"time"

	gtfsrtpb "github.com/MobilityData/gtfs-realtime-bindings/golang/gtfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/proto"

	"github.com/TestStacey/graphhopper/config"
	"github.com/TestStacey/graphhopper/gtfs"
	"github.com/TestStacey/graphhopper/internal/testfeed"
	"github.com/TestStacey/graphhopper/ptgraph"
	"github.com/TestStacey/graphhopper/realtime"
)

var testSearch = config.SearchConfig{
	MaxWalkDistancePerLeg:     1000,
	MaxTransferDistancePerLeg: 300,
	WalkSpeedKmh:              5,
	MaxFootpathMeters:         300,
}

func clock(t *testing.T, h, m int) time.Time {
	t.Helper()
	la, err := time.LoadLocation(testfeed.Timezone)
	require.NoError(t, err)
	return time.Date(2024, 6, 3, h, m, 0, 0, la)
}

// newTestRouter loads the test feed as "sf". Its realtime builds apply msg,
// or an empty feed when msg is nil.
func newTestRouter(t *testing.T, msg *gtfsrtpb.FeedMessage) *Router {
	t.Helper()
	return newTestRouterFromFiles(t, testfeed.Files(), msg)
}

func newTestRouterFromFiles(t *testing.T, files map[string][]string, msg *gtfsrtpb.FeedMessage) *Router {
	t.Helper()
	idx, err := gtfs.NewGTFSIndexFromBytes("sf", testfeed.Zip(t, files))
	require.NoError(t, err)
	r := newRouter(testSearch, nil)
	err = r.AddFeed(context.Background(), "sf", idx, func(fc realtime.FeedContext) realtime.BuildFunc {
		return func(ctx context.Context) (*gtfsrtpb.FeedMessage, *ptgraph.Overlay, error) {
			m := msg
			if m == nil {
				m = &gtfsrtpb.FeedMessage{Header: &gtfsrtpb.FeedHeader{GtfsRealtimeVersion: proto.String("2.0")}}
			}
			o, err := realtime.BuildOverlay(fc, m)
			return m, o, err
		}
	}, realtime.CacheOptions{Interval: time.Minute, Timeout: 5 * time.Second})
	require.NoError(t, err)
	return r
}

func canceled(t *testing.T, tripID string) *gtfsrtpb.FeedMessage {
	sr := gtfsrtpb.TripDescriptor_CANCELED
	return &gtfsrtpb.FeedMessage{
		Header: &gtfsrtpb.FeedHeader{
			GtfsRealtimeVersion: proto.String("2.0"),
			Timestamp:           proto.Uint64(uint64(clock(t, 6, 0).Unix())),
		},
		Entity: []*gtfsrtpb.FeedEntity{{
			Id: proto.String("1"),
			TripUpdate: &gtfsrtpb.TripUpdate{
				Trip: &gtfsrtpb.TripDescriptor{TripId: proto.String(tripID), ScheduleRelationship: &sr},
			},
		}},
	}
}

func TestRouter_Plan(t *testing.T) {
	r := newTestRouter(t, nil)
	ctx := context.Background()

	tests := []struct {
		name          string
		q             Query
		wantDeparture time.Time
		wantArrival   time.Time
		wantTransfers int
		wantTrips     []string
	}{
		{
			name:          "direct ride",
			q:             Query{From: "A", To: "C", Time: clock(t, 7, 55)},
			wantDeparture: clock(t, 8, 0),
			wantArrival:   clock(t, 8, 20),
			wantTransfers: 1,
			wantTrips:     []string{"T1"},
		},
		{
			name:          "one transfer",
			q:             Query{FeedID: "sf", From: "A", To: "D", Time: clock(t, 7, 55)},
			wantDeparture: clock(t, 8, 0),
			wantArrival:   clock(t, 8, 25),
			wantTransfers: 2,
			wantTrips:     []string{"T1", "T3"},
		},
		{
			name:          "arrive by",
			q:             Query{From: "A", To: "C", Time: clock(t, 8, 25), ArriveBy: true},
			wantDeparture: clock(t, 8, 0),
			wantArrival:   clock(t, 8, 20),
			wantTransfers: 1,
			wantTrips:     []string{"T1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			journeys, err := r.Plan(ctx, tt.q)
			require.NoError(t, err)
			require.Len(t, journeys, 1)
			j := journeys[0]
			assert.True(t, tt.wantDeparture.Equal(j.Departure), "departure %v", j.Departure)
			assert.True(t, tt.wantArrival.Equal(j.Arrival), "arrival %v", j.Arrival)
			assert.Equal(t, tt.wantTransfers, j.Transfers)

			var trips []string
			for _, leg := range j.Legs {
				assert.Equal(t, ModePT, leg.Mode)
				trips = append(trips, leg.TripID)
			}
			assert.Equal(t, tt.wantTrips, trips)
			assert.Equal(t, tt.q.From, j.Legs[0].From)
			assert.Equal(t, tt.q.To, j.Legs[len(j.Legs)-1].To)
			t.Logf("✓ %s: %v -> %v", tt.name, j.Departure, j.Arrival)
		})
	}
}

func TestRouter_PlanTransferLegs(t *testing.T) {
	r := newTestRouter(t, nil)
	journeys, err := r.Plan(context.Background(), Query{From: "A", To: "D", Time: clock(t, 7, 55)})
	require.NoError(t, err)
	require.Len(t, journeys, 1)
	legs := journeys[0].Legs
	require.Len(t, legs, 2)
	assert.Equal(t, "B", legs[0].To)
	assert.Equal(t, "B", legs[1].From)
	assert.True(t, clock(t, 8, 10).Equal(legs[0].Arrival))
	assert.True(t, clock(t, 8, 15).Equal(legs[1].Departure))
}

func TestRouter_PlanWalkToStop(t *testing.T) {
	r := newTestRouter(t, nil)
	journeys, err := r.Plan(context.Background(), Query{From: "E", To: "C", Time: clock(t, 7, 55)})
	require.NoError(t, err)
	require.Len(t, journeys, 1)
	j := journeys[0]

	require.Len(t, j.Legs, 2)
	walk := j.Legs[0]
	assert.Equal(t, ModeWalk, walk.Mode)
	assert.Equal(t, "E", walk.From)
	assert.Equal(t, "A", walk.To)
	assert.InDelta(t, 111, walk.Distance, 2)
	assert.Equal(t, "T1", j.Legs[1].TripID)

	assert.Positive(t, j.WalkTime)
	assert.True(t, clock(t, 8, 0).Equal(j.Departure.Add(j.WalkTime)), "departure is anchored to the first boarding")
	assert.True(t, clock(t, 8, 20).Equal(j.Arrival))
}

func TestRouter_PlanProfile(t *testing.T) {
	r := newTestRouter(t, nil)
	ctx := context.Background()

	journeys, err := r.Plan(ctx, Query{From: "A", To: "C", Time: clock(t, 7, 55), Profile: true})
	require.NoError(t, err)
	require.Len(t, journeys, 2)
	assert.True(t, clock(t, 8, 0).Equal(journeys[0].Departure))
	assert.True(t, clock(t, 8, 20).Equal(journeys[0].Arrival))
	assert.True(t, clock(t, 8, 5).Equal(journeys[1].Departure))
	assert.True(t, clock(t, 8, 30).Equal(journeys[1].Arrival))
	assert.Equal(t, "T2", journeys[1].Legs[0].TripID)

	journeys, err = r.Plan(ctx, Query{From: "A", To: "C", Time: clock(t, 7, 55), Profile: true, ProfileWindow: 8 * time.Minute})
	require.NoError(t, err)
	require.Len(t, journeys, 1, "the 08:05 departure is outside the window")
	assert.True(t, clock(t, 8, 0).Equal(journeys[0].Departure))
}

func TestRouter_PlanNoJourney(t *testing.T) {
	r := newTestRouter(t, nil)
	journeys, err := r.Plan(context.Background(), Query{From: "A", To: "C", Time: clock(t, 8, 30)})
	require.NoError(t, err)
	assert.Empty(t, journeys)
}

func TestRouter_PlanTripPastMidnight(t *testing.T) {
	r := newTestRouterFromFiles(t, testfeed.AfterMidnight(), nil)
	tuesday := clock(t, 0, 55).AddDate(0, 0, 1)

	journeys, err := r.Plan(context.Background(), Query{From: "A", To: "C", Time: tuesday})
	require.NoError(t, err)
	require.NotEmpty(t, journeys)
	j := journeys[0]
	assert.Equal(t, "T9", j.Legs[0].TripID)
	assert.True(t, tuesday.Add(5*time.Minute).Equal(j.Departure), "departure %v", j.Departure)
	assert.True(t, tuesday.Add(15*time.Minute).Equal(j.Arrival), "arrival %v", j.Arrival)
	t.Logf("✓ monday's 25:00 trip leaves tuesday 01:00")

	journeys, err = r.Plan(context.Background(), Query{From: "A", To: "C", Time: clock(t, 0, 55)})
	require.NoError(t, err)
	for _, j := range journeys {
		for _, leg := range j.Legs {
			assert.NotEqual(t, "T9", leg.TripID, "monday 01:00 belongs to sunday's service")
		}
		assert.False(t, j.Arrival.Before(clock(t, 8, 0)), "arrival %v", j.Arrival)
	}
	t.Logf("✓ no 25:00 ride on monday morning")
}

func TestRouter_PlanErrors(t *testing.T) {
	r := newTestRouter(t, nil)
	ctx := context.Background()

	_, err := r.Plan(ctx, Query{FeedID: "vbb", From: "A", To: "C", Time: clock(t, 8, 0)})
	assert.ErrorIs(t, err, config.ErrUnknownFeed)

	_, err = r.Plan(ctx, Query{From: "A", To: "Z", Time: clock(t, 8, 0)})
	assert.ErrorIs(t, err, ErrUnknownStop)

	_, err = r.Plan(ctx, Query{From: "Z", To: "A", Time: clock(t, 8, 0)})
	assert.ErrorIs(t, err, ErrUnknownStop)
}

func TestRouter_PlanUsesRealtimeOverlay(t *testing.T) {
	r := newTestRouter(t, canceled(t, "T1"))
	ctx := context.Background()
	q := Query{From: "A", To: "C", Time: clock(t, 7, 55)}

	journeys, err := r.Plan(ctx, q)
	require.NoError(t, err)
	require.Len(t, journeys, 1)
	assert.Equal(t, "T1", journeys[0].Legs[0].TripID, "no overlay before the first refresh")

	f, err := r.Feed("sf")
	require.NoError(t, err)
	require.NoError(t, f.Cache.Refresh(ctx))

	journeys, err = r.Plan(ctx, q)
	require.NoError(t, err)
	require.Len(t, journeys, 1)
	assert.Equal(t, "T2", journeys[0].Legs[0].TripID)
	assert.True(t, clock(t, 8, 30).Equal(journeys[0].Arrival))
	t.Logf("✓ canceled T1 reroutes onto T2")
}

func TestRouter_PlanNamesDelayedTrip(t *testing.T) {
	msg := canceled(t, "T1")
	msg.Entity[0].TripUpdate.Trip.ScheduleRelationship = nil
	msg.Entity[0].TripUpdate.StopTimeUpdate = []*gtfsrtpb.TripUpdate_StopTimeUpdate{{
		StopSequence: proto.Uint32(3),
		Arrival:      &gtfsrtpb.TripUpdate_StopTimeEvent{Delay: proto.Int32(120)},
	}}
	r := newTestRouter(t, msg)
	ctx := context.Background()
	f, err := r.Feed("sf")
	require.NoError(t, err)
	require.NoError(t, f.Cache.Refresh(ctx))
	require.False(t, f.Cache.Get().IsEmpty())

	journeys, err := r.Plan(ctx, Query{From: "A", To: "C", Time: clock(t, 7, 55)})
	require.NoError(t, err)
	require.Len(t, journeys, 1)
	assert.Equal(t, "T1", journeys[0].Legs[0].TripID)
	assert.True(t, clock(t, 8, 22).Equal(journeys[0].Arrival), "arrival %v", journeys[0].Arrival)
	t.Logf("✓ rebuilt T1 keeps its trip id")
}

func TestRouter_AddFeedRejectsDuplicates(t *testing.T) {
	r := newTestRouter(t, nil)
	f, err := r.Feed("")
	require.NoError(t, err)
	err = r.AddFeed(context.Background(), "sf", f.Index, func(realtime.FeedContext) realtime.BuildFunc { return nil }, realtime.CacheOptions{})
	assert.Error(t, err)
	assert.Equal(t, []string{"sf"}, r.FeedIDs())
}
