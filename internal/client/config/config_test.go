package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsOnly(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "http://127.0.0.1:8080", cfg.ServerURL)
	assert.Equal(t, "versemark.db", cfg.DatabasePath)
	assert.Equal(t, 30*time.Second, cfg.OnlineCheckInterval)
}

func TestLoad_JSONOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"server_url": "https://sync.versemark.app",
		"database_path": "/var/lib/versemark/notes.db",
		"online_check_interval": "5s"
	}`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://sync.versemark.app", cfg.ServerURL)
	assert.Equal(t, "/var/lib/versemark/notes.db", cfg.DatabasePath)
	assert.Equal(t, 5*time.Second, cfg.OnlineCheckInterval)
	// Keys absent from the file keep their defaults.
	assert.Equal(t, 3*time.Second, cfg.ProbeTimeout)
}

func TestLoad_JSONIntervalAsNanoseconds(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"probe_timeout": 2000000000}`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2*time.Second, cfg.ProbeTimeout)
}

func TestLoad_EnvOverridesJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"server_url": "https://from-file.example"}`), 0o600))

	t.Setenv(EnvServerURL, "https://from-env.example")
	t.Setenv(EnvToken, "tok-123")
	t.Setenv(EnvOnlineCheckInterval, "1m")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://from-env.example", cfg.ServerURL)
	assert.Equal(t, "tok-123", cfg.Token)
	assert.Equal(t, time.Minute, cfg.OnlineCheckInterval)
}

func TestLoad_BadEnvDurationIgnored(t *testing.T) {
	t.Setenv(EnvProbeTimeout, "soon-ish")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 3*time.Second, cfg.ProbeTimeout)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"probe_timeout": true}`), 0o600))
	_, err = Load(path)
	assert.Error(t, err)
}
