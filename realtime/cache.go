package realtime

import (
	"context"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	gtfsrtpb "github.com/MobilityData/gtfs-realtime-bindings/golang/gtfs"

	"github.com/TestStacey/graphhopper/gtfsrt"
	"github.com/TestStacey/graphhopper/internal"
	"github.com/TestStacey/graphhopper/ptgraph"
)

// State is the state of a FeedCache slot.
type State int

const (
	StateEmpty State = iota
	StateFresh
	StateRefreshing
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateFresh:
		return "fresh"
	case StateRefreshing:
		return "refreshing"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Snapshot is a published overlay with the feed message it was built from.
type Snapshot struct {
	Overlay *ptgraph.Overlay
	Message *gtfsrtpb.FeedMessage // nil if the feed could not be read
	BuiltAt time.Time
	Err     error // why the overlay is empty, if the build failed
}

// BuildFunc produces a new overlay. The message may be returned alongside
// an error when the feed was read but could not be applied.
type BuildFunc func(ctx context.Context) (*gtfsrtpb.FeedMessage, *ptgraph.Overlay, error)

// FetchAndBuild reads the trip updates at source and builds an overlay on feed.
func FetchAndBuild(client *gtfsrt.Client, source string, feed FeedContext) BuildFunc {
	return func(ctx context.Context) (*gtfsrtpb.FeedMessage, *ptgraph.Overlay, error) {
		msg, err := client.FetchFeed(ctx, source)
		if err != nil {
			return nil, nil, err
		}
		o, err := BuildOverlay(feed, msg)
		return msg, o, err
	}
}

// CacheOptions tune a FeedCache.
type CacheOptions struct {
	Interval time.Duration // between background refreshes
	Timeout  time.Duration // per build, zero for none
	Metrics  *internal.Metrics
}

// FeedCache holds the current overlay of one feed. Readers never wait: while
// a build runs they keep seeing the previous snapshot, and concurrent
// refresh requests share the running build.
type FeedCache struct {
	feedID  string
	build   BuildFunc
	opts    CacheOptions
	current atomic.Pointer[Snapshot]

	mu       sync.Mutex
	inflight chan struct{} // non-nil while refreshing
}

func NewFeedCache(feedID string, build BuildFunc, opts CacheOptions) *FeedCache {
	return &FeedCache{feedID: feedID, build: build, opts: opts}
}

// Get returns the current overlay, an empty one before the first build.
func (c *FeedCache) Get() *ptgraph.Overlay {
	if s := c.current.Load(); s != nil {
		return s.Overlay
	}
	return ptgraph.EmptyOverlay()
}

// Snapshot returns the current snapshot, or nil before the first build.
func (c *FeedCache) Snapshot() *Snapshot {
	return c.current.Load()
}

func (c *FeedCache) State() State {
	c.mu.Lock()
	refreshing := c.inflight != nil
	c.mu.Unlock()
	switch {
	case refreshing:
		return StateRefreshing
	case c.current.Load() == nil:
		return StateEmpty
	default:
		return StateFresh
	}
}

// Refresh starts a build unless one is running and waits for it to publish.
// The build continues if ctx ends first.
func (c *FeedCache) Refresh(ctx context.Context) error {
	select {
	case <-c.trigger(ctx):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Start refreshes now and then every Interval until ctx ends.
func (c *FeedCache) Start(ctx context.Context) {
	go func() {
		c.trigger(ctx)
		if c.opts.Interval <= 0 {
			return
		}
		ticker := time.NewTicker(c.opts.Interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				c.trigger(ctx)
			}
		}
	}()
}

func (c *FeedCache) trigger(ctx context.Context) <-chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.inflight == nil {
		c.inflight = make(chan struct{})
		go c.run(context.WithoutCancel(ctx), c.inflight)
	}
	return c.inflight
}

func (c *FeedCache) run(ctx context.Context, done chan struct{}) {
	start := time.Now()
	msg, o, err := c.safeBuild(ctx)
	if err != nil {
		log.Printf("realtime: feed %s: overlay build failed, publishing empty overlay: %v", c.feedID, err)
		o = ptgraph.EmptyOverlay()
	}
	c.opts.Metrics.ObserveOverlayBuild(c.feedID, time.Since(start), len(o.BlockedEdges()), len(o.AdditionalEdges()), err)
	c.current.Store(&Snapshot{Overlay: o, Message: msg, BuiltAt: time.Now(), Err: err})

	c.mu.Lock()
	c.inflight = nil
	c.mu.Unlock()
	close(done)
}

func (c *FeedCache) safeBuild(ctx context.Context) (msg *gtfsrtpb.FeedMessage, o *ptgraph.Overlay, err error) {
	defer internal.Time(ctx, "overlay_build feed="+c.feedID)(&err)
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("overlay build panicked: %v", r)
		}
	}()
	if c.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.opts.Timeout)
		defer cancel()
	}
	msg, o, err = c.build(ctx)
	if err == nil && o == nil {
		o = ptgraph.EmptyOverlay()
	}
	return msg, o, err
}
