package config

import (
	"os"
	"time"
)

// Environment variables recognised by parseEnv. Interval values use Go
// duration syntax ("30s", "1m").
const (
	EnvServerURL           = "VERSEMARK_SERVER_URL"
	EnvToken               = "VERSEMARK_TOKEN"
	EnvDatabasePath        = "VERSEMARK_DB_PATH"
	EnvProbeURL            = "VERSEMARK_PROBE_URL"
	EnvProbeTimeout        = "VERSEMARK_PROBE_TIMEOUT"
	EnvOnlineCheckInterval = "VERSEMARK_ONLINE_CHECK_INTERVAL"
)

// parseEnv overlays cfg with values from the environment. Unset variables
// leave the existing value alone; a malformed duration is ignored rather
// than aborting startup.
func parseEnv(cfg *Config) {
	if v, ok := os.LookupEnv(EnvServerURL); ok {
		cfg.ServerURL = v
	}
	if v, ok := os.LookupEnv(EnvToken); ok {
		cfg.Token = v
	}
	if v, ok := os.LookupEnv(EnvDatabasePath); ok {
		cfg.DatabasePath = v
	}
	if v, ok := os.LookupEnv(EnvProbeURL); ok {
		cfg.ProbeURL = v
	}
	if v, ok := os.LookupEnv(EnvProbeTimeout); ok {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.ProbeTimeout = d
		}
	}
	if v, ok := os.LookupEnv(EnvOnlineCheckInterval); ok {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.OnlineCheckInterval = d
		}
	}
}
