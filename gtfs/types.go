package gtfs

import "time"

// Agency is a row of agency.txt
type Agency struct {
	ID       string
	Name     string
	Timezone string
}

// Route is a row of routes.txt
type Route struct {
	ID        string
	AgencyID  string
	ShortName string
	Type      int
}

// Stop is a row of stops.txt
type Stop struct {
	ID   string
	Name string
	Lat  float64
	Lon  float64
}

// Trip is a row of trips.txt
type Trip struct {
	ID        string
	RouteID   string
	ServiceID string
}

// StopTime is a row of stop_times.txt. Arrival and Departure are seconds
// since local midnight of the service day and may exceed 24h.
type StopTime struct {
	TripID    string
	StopID    string
	Sequence  int
	Arrival   int
	Departure int
}

// Service is a calendar.txt entry merged with its calendar_dates.txt exceptions.
// Exception dates are keyed as YYYYMMDD.
type Service struct {
	ID       string
	Start    time.Time
	End      time.Time
	Weekdays [7]bool // indexed by time.Weekday
	Added    map[string]bool
	Removed  map[string]bool
}

// ActiveOn reports whether the service runs on the calendar date of d.
func (s *Service) ActiveOn(d time.Time) bool {
	key := d.Format("20060102")
	if s.Removed[key] {
		return false
	}
	if s.Added[key] {
		return true
	}
	day := civilDate(d)
	if s.Start.IsZero() || day.Before(s.Start) || day.After(s.End) {
		return false
	}
	return s.Weekdays[d.Weekday()]
}

// civilDate drops the clock and zone of t, keeping its calendar date.
func civilDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysBetween counts calendar days from a to b, each taken in its own zone.
func DaysBetween(a, b time.Time) int {
	return int(civilDate(b).Sub(civilDate(a)).Hours() / 24)
}
