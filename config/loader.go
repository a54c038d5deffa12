package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// ErrUnknownFeed is returned by SelectFeed when no feed has the requested id.
var ErrUnknownFeed = errors.New("unknown feed")

// Config is the global application configuration
var Config AppConfig

// DefaultPaths are tried in order by LoadAppConfig.
var DefaultPaths = []string{"config.yml", "./config/config.yml"}

// LoadAppConfig loads and validates the application configuration. An empty
// path means DefaultPaths are tried in order.
func LoadAppConfig(path string) error {
	paths := DefaultPaths
	if path != "" {
		paths = []string{path}
	}
	var data []byte
	var err error
	for _, p := range paths {
		data, err = os.ReadFile(p)
		if err == nil {
			break
		}
	}
	if err != nil {
		return err
	}
	cfg, err := Parse(data)
	if err != nil {
		return err
	}
	Config = *cfg
	return nil
}

// Parse decodes YAML, applies defaults and validates the result.
func Parse(data []byte) (*AppConfig, error) {
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)
	v := validator.New()
	if err := v.Struct(cfg); err != nil {
		return nil, err
	}
	seen := map[string]struct{}{}
	for _, f := range cfg.Feeds {
		if _, dup := seen[f.ID]; dup {
			return nil, fmt.Errorf("duplicate feed id %q", f.ID)
		}
		seen[f.ID] = struct{}{}
	}
	return &cfg, nil
}

func applyDefaults(cfg *AppConfig) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 16181
	}
	if cfg.Search.MaxVisitedNodes == 0 {
		cfg.Search.MaxVisitedNodes = 1_000_000
	}
	if cfg.Search.MaxWalkDistancePerLeg == 0 {
		cfg.Search.MaxWalkDistancePerLeg = 1000
	}
	if cfg.Search.MaxTransferDistancePerLeg == 0 {
		cfg.Search.MaxTransferDistancePerLeg = 300
	}
	if cfg.Search.WalkSpeedKmh == 0 {
		cfg.Search.WalkSpeedKmh = 5
	}
	if cfg.Search.MaxFootpathMeters == 0 {
		cfg.Search.MaxFootpathMeters = 300
	}
	for i := range cfg.Feeds {
		if cfg.Feeds[i].GTFSRT.ReadIntervalMS == 0 {
			cfg.Feeds[i].GTFSRT.ReadIntervalMS = 60_000
		}
		if cfg.Feeds[i].GTFSRT.TimeoutMS == 0 {
			cfg.Feeds[i].GTFSRT.TimeoutMS = 10_000
		}
	}
}

// SelectFeed chooses a feed by id; an empty id selects the first feed.
func SelectFeed(id string) (Feed, error) {
	if id == "" && len(Config.Feeds) > 0 {
		return Config.Feeds[0], nil
	}
	for _, f := range Config.Feeds {
		if f.ID == id {
			return f, nil
		}
	}
	return Feed{}, fmt.Errorf("%w: %q", ErrUnknownFeed, id)
}
