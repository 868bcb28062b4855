package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// Duration wraps time.Duration so JSON can specify intervals either as
// strings like "3s" or as integer nanoseconds.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	switch value := v.(type) {
	case float64:
		d.Duration = time.Duration(value)
		return nil
	case string:
		parsed, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("parse duration %q: %w", value, err)
		}
		d.Duration = parsed
		return nil
	default:
		return fmt.Errorf("invalid duration value %v", v)
	}
}

// jsonConfig is a DTO used exclusively for JSON unmarshalling. After parsing,
// values are copied into the runtime Config (which uses time.Duration).
type jsonConfig struct {
	ServerURL           *string   `json:"server_url"`
	Token               *string   `json:"token"`
	DatabasePath        *string   `json:"database_path"`
	ProbeURL            *string   `json:"probe_url"`
	ProbeTimeout        *Duration `json:"probe_timeout"`
	OnlineCheckInterval *Duration `json:"online_check_interval"`
}

// parseJSON overlays cfg with values from the JSON file at path. An empty
// path means no file is loaded. Absent keys leave the existing value alone,
// which is what makes defaults -> JSON -> env a clean precedence chain.
func parseJSON(cfg *Config, path string) error {
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	var jc jsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	if jc.ServerURL != nil {
		cfg.ServerURL = *jc.ServerURL
	}
	if jc.Token != nil {
		cfg.Token = *jc.Token
	}
	if jc.DatabasePath != nil {
		cfg.DatabasePath = *jc.DatabasePath
	}
	if jc.ProbeURL != nil {
		cfg.ProbeURL = *jc.ProbeURL
	}
	if jc.ProbeTimeout != nil {
		cfg.ProbeTimeout = jc.ProbeTimeout.Duration
	}
	if jc.OnlineCheckInterval != nil {
		cfg.OnlineCheckInterval = jc.OnlineCheckInterval.Duration
	}
	return nil
}
