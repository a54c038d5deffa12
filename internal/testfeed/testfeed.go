// Package testfeed builds small in-memory GTFS feeds for tests.
package testfeed

import (
	"archive/zip"
	"bytes"
	"strings"
	"testing"
)

// Timezone of the default feed.
const Timezone = "America/Los_Angeles"

// Files returns the default feed: four stops on a line A-B-C plus a branch
// B-D, and a stop E a short walk from A.
//
//	T1  A 08:00  B 08:10  C 08:20
//	T2  A 08:05           C 08:30
//	T3           B 08:15  D 08:25
func Files() map[string][]string {
	return map[string][]string{
		"agency.txt": {
			"agency_id,agency_name,agency_url,agency_timezone",
			"MUNI,Muni,http://example.com," + Timezone,
		},
		"routes.txt": {
			"route_id,agency_id,route_short_name,route_type",
			"R1,MUNI,1,3",
			"R2,MUNI,2,3",
		},
		"stops.txt": {
			"stop_id,stop_name,stop_lat,stop_lon",
			"A,Alpha,37.7750,-122.4190",
			"B,Bravo,37.7850,-122.4090",
			"C,Charlie,37.7950,-122.3990",
			"D,Delta,37.8050,-122.4090",
			"E,Echo,37.7760,-122.4190",
		},
		"calendar.txt": {
			"service_id,monday,tuesday,wednesday,thursday,friday,saturday,sunday,start_date,end_date",
			"ALL,1,1,1,1,1,1,1,20240101,20241231",
		},
		"trips.txt": {
			"route_id,service_id,trip_id",
			"R1,ALL,T1",
			"R1,ALL,T2",
			"R2,ALL,T3",
		},
		"stop_times.txt": {
			"trip_id,arrival_time,departure_time,stop_id,stop_sequence",
			"T1,08:00:00,08:00:00,A,1",
			"T1,08:10:00,08:10:00,B,2",
			"T1,08:20:00,08:20:00,C,3",
			"T2,08:05:00,08:05:00,A,1",
			"T2,08:30:00,08:30:00,C,2",
			"T3,08:15:00,08:15:00,B,1",
			"T3,08:25:00,08:25:00,D,2",
		},
	}
}

// AfterMidnight returns the default feed plus a Monday-only trip that runs
// past midnight, on Tuesday morning by the wall clock.
//
//	T9  A 25:00  C 25:10
func AfterMidnight() map[string][]string {
	files := Files()
	files["calendar.txt"] = append(files["calendar.txt"], "MON,1,0,0,0,0,0,0,20240101,20241231")
	files["trips.txt"] = append(files["trips.txt"], "R1,MON,T9")
	files["stop_times.txt"] = append(files["stop_times.txt"],
		"T9,25:00:00,25:00:00,A,1",
		"T9,25:10:00,25:10:00,C,2",
	)
	return files
}

// Zip packs files into a GTFS zip archive.
func Zip(t testing.TB, files map[string][]string) []byte {
	t.Helper()
	buf := &bytes.Buffer{}
	w := zip.NewWriter(buf)
	for name, lines := range files {
		f, err := w.Create(name)
		if err != nil {
			t.Fatalf("zip create %s: %v", name, err)
		}
		if _, err := f.Write([]byte(strings.Join(lines, "\n") + "\n")); err != nil {
			t.Fatalf("zip write %s: %v", name, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("zip close: %v", err)
	}
	return buf.Bytes()
}
