package config

// ServerConfig contains server configuration
type ServerConfig struct {
	Port           int `yaml:"port" validate:"gt=0"`
	ReadTimeoutMS  int `yaml:"readTimeoutMS" validate:"gte=0"`
	WriteTimeoutMS int `yaml:"writeTimeoutMS" validate:"gte=0"`
}

// SearchConfig bounds the multi-criteria label-setting search
type SearchConfig struct {
	MaxVisitedNodes           int     `yaml:"maxVisitedNodes" validate:"gte=0"`
	MaxWalkDistancePerLeg     float64 `yaml:"maxWalkDistancePerLeg" validate:"gte=0"`
	MaxTransferDistancePerLeg float64 `yaml:"maxTransferDistancePerLeg" validate:"gte=0"`
	WalkSpeedKmh              float64 `yaml:"walkSpeedKmh" validate:"gte=0"`
	MaxFootpathMeters         float64 `yaml:"maxFootpathMeters" validate:"gte=0"`
	MindTransfers             bool    `yaml:"mindTransfers"`
}

// GTFSConfig contains GTFS static feed configuration
type GTFSConfig struct {
	// StaticPath is a local zip path or an http(s) URL.
	StaticPath string `yaml:"staticPath" validate:"required"`
	IndexCache string `yaml:"indexCache"`
	// Timezone overrides agency_timezone from agency.txt.
	Timezone string `yaml:"timezone" validate:"omitempty,timezone"`
}

// GTFSRTConfig contains GTFS-Realtime feed configuration
type GTFSRTConfig struct {
	TripUpdatesURL string `yaml:"tripUpdatesURL"`
	ReadIntervalMS int    `yaml:"readIntervalMS" validate:"gte=0"`
	TimeoutMS      int    `yaml:"timeoutMS" validate:"gte=0"`
}

// Feed represents a single feed configuration, keyed by ID
type Feed struct {
	ID     string       `yaml:"id" validate:"required"`
	GTFS   GTFSConfig   `yaml:"gtfs" validate:"required"`
	GTFSRT GTFSRTConfig `yaml:"gtfsrt"`
}

// AppConfig is the root configuration structure
type AppConfig struct {
	Server ServerConfig `yaml:"server" validate:"required"`
	Search SearchConfig `yaml:"search"`
	Feeds  []Feed       `yaml:"feeds" validate:"required,min=1,dive"`
}
