package graphhopper

import (
	"net/http"
)

type feedHealth struct {
	ID           string `json:"id"`
	State        string `json:"state"`
	OverlayID    string `json:"overlay_id,omitempty"`
	BuiltAt      string `json:"built_at,omitempty"`
	ValidUntil   string `json:"valid_until,omitempty"`
	FeedEpoch    int64  `json:"feed_epoch"`
	BlockedEdges int    `json:"blocked_edges"`
	VirtualEdges int    `json:"virtual_edges"`
	LastError    string `json:"last_error,omitempty"`
}

type healthResponse struct {
	Status                  string       `json:"status"`
	LatestGTFSRealtimeEpoch int64        `json:"latest_gtfsrt_epoch"`
	Feeds                   []feedHealth `json:"feeds"`
}

// health reports "degraded" when the latest build of any feed failed.
func (s *Server) health() healthResponse {
	resp := healthResponse{Status: "ok", Feeds: []feedHealth{}}
	for _, id := range s.router.FeedIDs() {
		f, err := s.router.Feed(id)
		if err != nil {
			continue
		}
		fh := feedHealth{ID: id, State: f.Cache.State().String()}
		if snap := f.Cache.Snapshot(); snap != nil {
			o := snap.Overlay
			fh.OverlayID = o.ID
			fh.BuiltAt = iso8601(snap.BuiltAt)
			fh.ValidUntil = validUntil(snap.BuiltAt, f.Interval)
			fh.BlockedEdges = len(o.BlockedEdges())
			fh.VirtualEdges = len(o.AdditionalEdges())
			if !o.FeedTime.IsZero() {
				fh.FeedEpoch = o.FeedTime.Unix()
			}
			if snap.Err != nil {
				fh.LastError = snap.Err.Error()
				resp.Status = "degraded"
			}
		}
		resp.LatestGTFSRealtimeEpoch = max(resp.LatestGTFSRealtimeEpoch, fh.FeedEpoch)
		resp.Feeds = append(resp.Feeds, fh)
	}
	return resp
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.health())
}
