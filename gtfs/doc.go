/*
Package gtfs provides GTFS static data loading and indexing.

The index is built once per feed from a zip (local path, URL or raw bytes)
and is read-only afterwards, so it is safe for concurrent readers.

# Basic Usage

	index, err := gtfs.NewGTFSIndexFromBytes("sf", zipBytes)
	if err != nil {
	    log.Fatal(err)
	}
	st, ok := index.StopTime("trip_123", 4)

# Data Structure

The index provides lookups for:

- Agencies (agency_id → name, timezone)
- Routes (route_id → agency, short name, type)
- Stops (stop_id → name, lat/lon)
- Trips (trip_id → route_id, service_id)
- Stop times (trip_id → stop times ordered by stop_sequence, times in
  seconds since local midnight, untimed stops interpolated)
- Services (service_id → calendar with calendar_dates exceptions)

# Time zone

Times in stop_times.txt are local to the feed. The zone is taken from the
first agency in agency.txt unless the feed configuration overrides it.

# Caching

SerializeIndexToFile and DeserializeIndexFromFile store the index with gob so
large feeds are parsed once.
*/
package gtfs
