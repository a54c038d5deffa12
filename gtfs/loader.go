package gtfs

import (
	"archive/zip"
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"
)

var wantedFiles = map[string]bool{
	"agency.txt":         true,
	"routes.txt":         true,
	"stops.txt":          true,
	"trips.txt":          true,
	"stop_times.txt":     true,
	"calendar.txt":       true,
	"calendar_dates.txt": true,
}

// NewGTFSIndexFromBytes builds an index from raw zip bytes.
func NewGTFSIndexFromBytes(feedID string, zipBytes []byte) (*GTFSIndex, error) {
	zr, err := zip.NewReader(bytes.NewReader(zipBytes), int64(len(zipBytes)))
	if err != nil {
		return nil, err
	}
	g := NewGTFSIndex(feedID)
	if err := g.consumeZip(zr.File); err != nil {
		return nil, err
	}
	return g, nil
}

func (g *GTFSIndex) loadFromStaticZip(url string) error {
	resp, err := http.Get(url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("HTTP %d from %s", resp.StatusCode, url)
	}
	tmp, err := os.CreateTemp("", "gtfs-*.zip")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := io.Copy(tmp, resp.Body); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return g.loadFromLocalZip(tmp.Name())
}

// loadFromLocalZip opens a local GTFS zip file and consumes required CSVs.
func (g *GTFSIndex) loadFromLocalZip(path string) error {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return err
	}
	defer zr.Close()
	return g.consumeZip(zr.File)
}

func (g *GTFSIndex) consumeZip(files []*zip.File) error {
	for _, f := range files {
		if !wantedFiles[strings.ToLower(f.Name)] {
			continue
		}
		if err := g.consumeCSV(f); err != nil {
			return fmt.Errorf("%s: %w", f.Name, err)
		}
	}
	for tripID, sts := range g.StopTimes {
		sort.Slice(sts, func(i, j int) bool { return sts[i].Sequence < sts[j].Sequence })
		if err := interpolate(sts); err != nil {
			log.Printf("gtfs: dropping trip %s: %v", tripID, err)
			delete(g.StopTimes, tripID)
		}
	}
	return nil
}

// parseTime parses HH:MM:SS, which may exceed 24:00:00. Empty means unknown (-1).
func parseTime(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return -1, nil
	}
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return 0, fmt.Errorf("bad time %q", s)
	}
	var hms [3]int
	for i, p := range parts {
		v, err := strconv.Atoi(p)
		if err != nil {
			return 0, fmt.Errorf("bad time %q", s)
		}
		hms[i] = v
	}
	return hms[0]*3600 + hms[1]*60 + hms[2], nil
}

func parseDate(s string) (time.Time, error) {
	return time.Parse("20060102", strings.TrimSpace(s))
}

// interpolate fills untimed intermediate stop times linearly between the
// surrounding timed stops. The first and last stop must carry times.
func interpolate(sts []StopTime) error {
	if len(sts) == 0 {
		return nil
	}
	for i := range sts {
		if sts[i].Arrival < 0 && sts[i].Departure >= 0 {
			sts[i].Arrival = sts[i].Departure
		}
		if sts[i].Departure < 0 && sts[i].Arrival >= 0 {
			sts[i].Departure = sts[i].Arrival
		}
	}
	if sts[0].Departure < 0 || sts[len(sts)-1].Arrival < 0 {
		return fmt.Errorf("first and last stops do not have times")
	}
	prev := 0
	for i := 1; i < len(sts); i++ {
		if sts[i].Arrival < 0 {
			continue
		}
		if gap := i - prev; gap > 1 {
			from, to := sts[prev].Departure, sts[i].Arrival
			for k := prev + 1; k < i; k++ {
				t := from + (to-from)*(k-prev)/gap
				sts[k].Arrival, sts[k].Departure = t, t
			}
		}
		prev = i
	}
	return nil
}

func (g *GTFSIndex) consumeCSV(f *zip.File) error {
	r, err := f.Open()
	if err != nil {
		return err
	}
	defer r.Close()
	csvr := csv.NewReader(r)
	csvr.FieldsPerRecord = -1
	rec, err := csvr.ReadAll()
	if err != nil {
		return err
	}
	if len(rec) == 0 {
		return nil
	}
	head := rec[0]
	if len(head) > 0 {
		head[0] = strings.TrimPrefix(head[0], "\ufeff")
	}
	idx := func(col string) int {
		for i, h := range head {
			if strings.EqualFold(strings.TrimSpace(h), col) {
				return i
			}
		}
		return -1
	}
	get := func(row []string, i int) string {
		if i < 0 || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}
	switch strings.ToLower(f.Name) {
	case "agency.txt":
		agID := idx("agency_id")
		agTZ := idx("agency_timezone")
		agName := idx("agency_name")
		for _, row := range rec[1:] {
			a := Agency{ID: get(row, agID), Name: get(row, agName), Timezone: get(row, agTZ)}
			g.Agencies[a.ID] = a
			g.AgencyIDs = append(g.AgencyIDs, a.ID)
		}
	case "routes.txt":
		rID := idx("route_id")
		agID := idx("agency_id")
		rSN := idx("route_short_name")
		rType := idx("route_type")
		for _, row := range rec[1:] {
			rt := Route{ID: get(row, rID), AgencyID: get(row, agID), ShortName: get(row, rSN)}
			if typeInt, err := strconv.Atoi(get(row, rType)); err == nil {
				rt.Type = typeInt
			}
			g.Routes[rt.ID] = rt
		}
	case "trips.txt":
		rID := idx("route_id")
		tID := idx("trip_id")
		sID := idx("service_id")
		for _, row := range rec[1:] {
			t := Trip{ID: get(row, tID), RouteID: get(row, rID), ServiceID: get(row, sID)}
			if t.ID != "" {
				g.Trips[t.ID] = t
			}
		}
	case "stops.txt":
		sID := idx("stop_id")
		sN := idx("stop_name")
		sLat := idx("stop_lat")
		sLon := idx("stop_lon")
		for _, row := range rec[1:] {
			s := Stop{ID: get(row, sID), Name: get(row, sN)}
			s.Lat, _ = strconv.ParseFloat(get(row, sLat), 64)
			s.Lon, _ = strconv.ParseFloat(get(row, sLon), 64)
			g.Stops[s.ID] = s
		}
	case "stop_times.txt":
		tID := idx("trip_id")
		sID := idx("stop_id")
		sq := idx("stop_sequence")
		arrTime := idx("arrival_time")
		depTime := idx("departure_time")
		if tID < 0 || sID < 0 || sq < 0 {
			return nil
		}
		for _, row := range rec[1:] {
			seq, err := strconv.Atoi(get(row, sq))
			if err != nil {
				return fmt.Errorf("trip %s: bad stop_sequence %q", get(row, tID), get(row, sq))
			}
			arr, err := parseTime(get(row, arrTime))
			if err != nil {
				return err
			}
			dep, err := parseTime(get(row, depTime))
			if err != nil {
				return err
			}
			st := StopTime{TripID: get(row, tID), StopID: get(row, sID), Sequence: seq, Arrival: arr, Departure: dep}
			g.StopTimes[st.TripID] = append(g.StopTimes[st.TripID], st)
		}
	case "calendar.txt":
		sID := idx("service_id")
		start := idx("start_date")
		end := idx("end_date")
		days := [7]int{idx("sunday"), idx("monday"), idx("tuesday"), idx("wednesday"), idx("thursday"), idx("friday"), idx("saturday")}
		for _, row := range rec[1:] {
			s := g.service(get(row, sID))
			var err error
			if s.Start, err = parseDate(get(row, start)); err != nil {
				return err
			}
			if s.End, err = parseDate(get(row, end)); err != nil {
				return err
			}
			for wd, col := range days {
				s.Weekdays[wd] = get(row, col) == "1"
			}
		}
	case "calendar_dates.txt":
		sID := idx("service_id")
		date := idx("date")
		ex := idx("exception_type")
		for _, row := range rec[1:] {
			s := g.service(get(row, sID))
			d := get(row, date)
			switch get(row, ex) {
			case "1":
				s.Added[d] = true
			case "2":
				s.Removed[d] = true
			}
		}
	}
	return nil
}

func (g *GTFSIndex) service(id string) *Service {
	s, ok := g.Services[id]
	if !ok {
		s = &Service{ID: id, Added: map[string]bool{}, Removed: map[string]bool{}}
		g.Services[id] = s
	}
	return s
}
