package graphhopper

import (
	"bufio"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
)

var errUnknownTrip = errors.New("unknown trip")

type stopView struct {
	ID   string  `json:"id"`
	Name string  `json:"name"`
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
}

// handleStops lists the stops of a feed ordered by id.
func (s *Server) handleStops(w http.ResponseWriter, r *http.Request) {
	f, err := s.router.Feed(chi.URLParam(r, "feedId"))
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	ids := f.Index.GetAllStops()
	out := make([]stopView, 0, len(ids))
	for _, id := range ids {
		st := f.Index.Stops[id]
		out = append(out, stopView{ID: st.ID, Name: st.Name, Lat: st.Lat, Lon: st.Lon})
	}
	writeJSON(w, http.StatusOK, out)
}

// handleTrip prints a static trip's interpolated stop times, one per line.
func (s *Server) handleTrip(w http.ResponseWriter, r *http.Request) {
	f, err := s.router.Feed(chi.URLParam(r, "feedId"))
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	tripID := chi.URLParam(r, "tripId")
	sts := f.Index.StopTimesForTrip(tripID)
	if len(sts) == 0 {
		writeError(w, http.StatusNotFound, fmt.Errorf("%w: %q", errUnknownTrip, tripID))
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	bw := bufio.NewWriter(w)
	for _, st := range sts {
		stop := f.Index.Stops[st.StopID]
		fmt.Fprintf(bw, "Stop(%s) %f, %f %s %s\n", st.StopID, stop.Lat, stop.Lon, gtfsTime(st.Arrival), gtfsTime(st.Departure))
	}
	_ = bw.Flush()
}
