// Package config handles application configuration loading and validation.
//
// Configuration is loaded from config.yml and validated using struct tags.
// The package supports multiple feeds, each with its own static schedule and
// realtime trip updates, selected by feed id.
package config
