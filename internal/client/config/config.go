// Package config loads runtime configuration for the Versemark CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file, whose path the caller passes in (the CLI exposes
//     it as --config).
//  3. Environment variables prefixed VERSEMARK_, which override everything.
//
// # JSON schema
//
// Interval fields accept either strings like "3s" or integer nanoseconds:
//
//	{
//	  "server_url": "http://127.0.0.1:8080",
//	  "database_path": "versemark.db",
//	  "online_check_interval": "30s"
//	}
package config

import (
	"time"

	"github.com/versemark/versemark/internal/client/netcheck"
)

// Config holds runtime settings for the Versemark CLI.
//
// Units: ProbeTimeout and OnlineCheckInterval are time.Durations
// (e.g., 3*time.Second).
type Config struct {
	// ServerURL is the base URL of the annotation backend.
	ServerURL string
	// Token is the bearer token presented to the backend. Usually set via
	// VERSEMARK_TOKEN rather than stored in a file.
	Token string
	// DatabasePath is the SQLite file holding the local annotation store.
	DatabasePath string
	// ProbeURL is the connectivity probe endpoint; it only needs to answer,
	// not to answer well.
	ProbeURL string
	// ProbeTimeout bounds a single connectivity probe.
	ProbeTimeout time.Duration
	// OnlineCheckInterval is how often the background watcher probes
	// connectivity and drains the outbox.
	OnlineCheckInterval time.Duration
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerURL = "http://127.0.0.1:8080"
	c.DatabasePath = "versemark.db"
	c.ProbeURL = netcheck.DefaultProbeURL
	c.ProbeTimeout = 3 * time.Second
	c.OnlineCheckInterval = 30 * time.Second
}

// Load constructs a Config, applies defaults, then overlays values from the
// JSON file at path (if path is non-empty) and finally from the environment.
// Later sources take precedence over earlier ones.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := parseJSON(cfg, path); err != nil {
		return nil, err
	}
	parseEnv(cfg)
	return cfg, nil
}
