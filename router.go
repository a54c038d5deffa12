package graphhopper

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/TestStacey/graphhopper/config"
	"github.com/TestStacey/graphhopper/gtfs"
	"github.com/TestStacey/graphhopper/gtfsrt"
	"github.com/TestStacey/graphhopper/internal"
	"github.com/TestStacey/graphhopper/ptgraph"
	"github.com/TestStacey/graphhopper/realtime"
)

// ErrUnknownStop is returned for queries naming a stop the feed lacks.
var ErrUnknownStop = errors.New("unknown stop")

// Feed is one loaded feed: its schedule, graph and realtime overlay.
type Feed struct {
	ID       string
	Index    *gtfs.GTFSIndex
	Graph    *ptgraph.Graph
	Location *time.Location
	Cache    *realtime.FeedCache
	// Interval between realtime refreshes, zero when they only run on demand.
	Interval time.Duration

	stopOfNode  map[int]string
	tripOfBoard map[int]string
}

// Router answers journey queries over any number of feeds.
type Router struct {
	feeds     map[string]*Feed
	order     []string
	search    config.SearchConfig
	weighting *ptgraph.TravelTimeWeighting
	metrics   *internal.Metrics
}

// NewRouter loads every configured feed and builds its graph. Realtime
// refreshes begin with Start.
func NewRouter(ctx context.Context, cfg config.AppConfig, metrics *internal.Metrics) (*Router, error) {
	r := newRouter(cfg.Search, metrics)
	for _, fc := range cfg.Feeds {
		idx, err := loadIndex(ctx, fc)
		if err != nil {
			return nil, err
		}
		client := gtfsrt.NewClient(time.Duration(fc.GTFSRT.TimeoutMS) * time.Millisecond)
		err = r.AddFeed(ctx, fc.ID, idx, func(feed realtime.FeedContext) realtime.BuildFunc {
			return realtime.FetchAndBuild(client, fc.GTFSRT.TripUpdatesURL, feed)
		}, realtime.CacheOptions{
			Interval: time.Duration(fc.GTFSRT.ReadIntervalMS) * time.Millisecond,
			Timeout:  time.Duration(fc.GTFSRT.TimeoutMS) * time.Millisecond,
		})
		if err != nil {
			return nil, err
		}
	}
	return r, nil
}

func newRouter(search config.SearchConfig, metrics *internal.Metrics) *Router {
	return &Router{
		feeds:     map[string]*Feed{},
		search:    search,
		weighting: ptgraph.NewTravelTimeWeighting(search.WalkSpeedKmh),
		metrics:   metrics,
	}
}

func loadIndex(ctx context.Context, fc config.Feed) (idx *gtfs.GTFSIndex, err error) {
	defer internal.Time(ctx, "load_gtfs feed="+fc.ID)(&err)
	idx, err = gtfs.NewGTFSIndexFromConfig(fc.ID, fc.GTFS)
	if idx != nil && err != nil {
		// the index loaded but its cache file could not be written
		log.Printf("feed %s: %v", fc.ID, err)
		err = nil
	}
	return idx, err
}

// AddFeed imports idx and registers the feed under id. newBuild wires the
// feed's overlay builds to their source.
func (r *Router) AddFeed(ctx context.Context, id string, idx *gtfs.GTFSIndex, newBuild func(realtime.FeedContext) realtime.BuildFunc, opts realtime.CacheOptions) (err error) {
	defer internal.Time(ctx, "import feed="+id)(&err)
	if _, dup := r.feeds[id]; dup {
		return fmt.Errorf("duplicate feed id %q", id)
	}
	loc, err := idx.Location()
	if err != nil {
		return fmt.Errorf("feed %s: %w", id, err)
	}
	g, err := ptgraph.Import(idx, ptgraph.ImportOptions{MaxFootpathMeters: r.search.MaxFootpathMeters})
	if err != nil {
		return err
	}
	fc := realtime.FeedContext{FeedID: id, Graph: g, Static: idx, Location: loc}
	if opts.Metrics == nil {
		opts.Metrics = r.metrics
	}
	f := &Feed{
		ID:          id,
		Index:       idx,
		Graph:       g,
		Location:    loc,
		Cache:       realtime.NewFeedCache(id, newBuild(fc), opts),
		Interval:    opts.Interval,
		stopOfNode:  map[int]string{},
		tripOfBoard: map[int]string{},
	}
	for _, stopID := range idx.GetAllStops() {
		if n, ok := g.StopNodes(stopID); ok {
			f.stopOfNode[n.Station] = stopID
			f.stopOfNode[n.Enter] = stopID
			f.stopOfNode[n.Exit] = stopID
		}
	}
	for tripID := range idx.Trips {
		if te, ok := g.TripEdges(tripID); ok {
			for _, e := range te.Board {
				f.tripOfBoard[e] = tripID
			}
		}
	}
	r.feeds[id] = f
	r.order = append(r.order, id)
	return nil
}

// Start begins the background overlay refresh of every feed.
func (r *Router) Start(ctx context.Context) {
	for _, id := range r.order {
		r.feeds[id].Cache.Start(ctx)
	}
}

// Feed returns a feed by id; an empty id selects the first feed.
func (r *Router) Feed(id string) (*Feed, error) {
	if id == "" && len(r.order) > 0 {
		id = r.order[0]
	}
	f, ok := r.feeds[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", config.ErrUnknownFeed, id)
	}
	return f, nil
}

// FeedIDs lists the feeds in configuration order.
func (r *Router) FeedIDs() []string {
	return append([]string(nil), r.order...)
}
