package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := defaultConfig()
	require.NoError(t, cfg.Validate())
	require.Contains(t, cfg.HTTP.Retry.Exclude, "/api/v1/auth/register")
}

func TestLoadFileThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
monitor:
  uvDeltaThreshold: 50
  recalcInterval: 10m
advice:
  timeout: 12s
`), 0o600))

	t.Setenv("CONFIG_PATH", path)
	t.Setenv("MONITOR_RECALC_INTERVAL", "5m")
	t.Setenv("HTTP_ALLOWED_ORIGINS", "https://a.example.com, https://b.example.com")
	t.Setenv("NOTIFY_SERVER_SESSION", "false")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, 50, cfg.Monitor.UVDeltaThreshold)
	require.Equal(t, 5*time.Minute, cfg.Monitor.RecalcInterval)
	require.Equal(t, 12*time.Second, cfg.Advice.Timeout)
	require.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.HTTP.AllowedOrigins)
	require.False(t, cfg.Notifications.ServerSession)
	require.Equal(t, 8, cfg.Monitor.WriteConcurrency)
}

func TestValidateRejects(t *testing.T) {
	cases := map[string]func(*Config){
		"empty secret":         func(c *Config) { c.Auth.Secret = " " },
		"unknown feed":         func(c *Config) { c.Sensor.Feed = "mqtt" },
		"valkey feed disabled": func(c *Config) { c.Sensor.Feed = SensorFeedValkey },
		"valkey no addr":       func(c *Config) { c.Valkey.Enabled = true; c.Valkey.Addr = "" },
		"zero concurrency":     func(c *Config) { c.Monitor.WriteConcurrency = 0 },
		"zero threshold":       func(c *Config) { c.Notifications.UVThreshold = 0 },
		"poller no scale":      func(c *Config) { c.Sensor.Poller.Enabled = true; c.Sensor.Poller.Scale = 0 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := defaultConfig()
			mutate(cfg)
			require.Error(t, cfg.Validate())
		})
	}
}
