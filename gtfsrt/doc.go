// Package gtfsrt fetches and decodes GTFS-Realtime trip update feeds.
//
// Feeds are read from an HTTP URL or a local file. Besides decoding, the
// package renders a feed message as protobuf text and reports trip updates
// that do not match the static schedule.
package gtfsrt
