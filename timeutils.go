package graphhopper

import (
	"fmt"
	"time"
)

func iso8601(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

// validUntil is when a snapshot built at builtAt is due to be replaced.
func validUntil(builtAt time.Time, interval time.Duration) string {
	if builtAt.IsZero() || interval <= 0 {
		return ""
	}
	return iso8601(builtAt.Add(interval))
}

// gtfsTime formats seconds since service-day midnight as HH:MM:SS; hours
// may exceed 23.
func gtfsTime(sec int) string {
	return fmt.Sprintf("%02d:%02d:%02d", sec/3600, sec/60%60, sec%60)
}
