package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(New())
	require.NoError(t, err)

	assert.Equal(t, 2000, cfg.Probe.TimeoutMS)
	assert.True(t, cfg.Probe.Liveness)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "portpulse.db", cfg.Server.DBPath)
	assert.Equal(t, 5, cfg.Server.Workers)
	assert.Zero(t, cfg.Server.RateLimitPerMinute)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Empty(t, cfg.Alert.Type)
	assert.Equal(t, 5, cfg.Alert.Threshold)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("PORTPULSE_PROBE_TIMEOUT_MS", "750")
	t.Setenv("PORTPULSE_PROBE_LIVENESS", "false")
	t.Setenv("PORTPULSE_SERVER_WORKERS", "12")
	t.Setenv("PORTPULSE_LOG_LEVEL", "debug")
	t.Setenv("PORTPULSE_ALERT_WEBHOOK_URL", "https://hooks.example.com/x")

	cfg, err := Load(New())
	require.NoError(t, err)

	assert.Equal(t, 750, cfg.Probe.TimeoutMS)
	assert.False(t, cfg.Probe.Liveness)
	assert.Equal(t, 12, cfg.Server.Workers)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "https://hooks.example.com/x", cfg.Alert.WebhookURL)
}

func TestReadInConfig_File(t *testing.T) {
	path := writeFile(t, "portpulse.yaml", `
probe:
  timeout_ms: 300
server:
  addr: "127.0.0.1:9090"
  rate_limit_per_minute: 60
`)

	v := New()
	require.NoError(t, ReadInConfig(v, path))
	cfg, err := Load(v)
	require.NoError(t, err)

	assert.Equal(t, 300, cfg.Probe.TimeoutMS)
	assert.Equal(t, "127.0.0.1:9090", cfg.Server.Addr)
	assert.Equal(t, 60, cfg.Server.RateLimitPerMinute)
	assert.Equal(t, 5, cfg.Server.Workers, "unset keys keep their defaults")
}

func TestReadInConfig_EnvBeatsFile(t *testing.T) {
	path := writeFile(t, "portpulse.yaml", "probe:\n  timeout_ms: 300\n")
	t.Setenv("PORTPULSE_PROBE_TIMEOUT_MS", "900")

	v := New()
	require.NoError(t, ReadInConfig(v, path))
	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, 900, cfg.Probe.TimeoutMS)
}

func TestReadInConfig_MissingExplicitFile(t *testing.T) {
	err := ReadInConfig(New(), filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_RejectsInvalidValues(t *testing.T) {
	tests := []struct {
		key   string
		value any
	}{
		{key: "probe.timeout_ms", value: 0},
		{key: "probe.timeout_ms", value: -5},
		{key: "server.workers", value: 0},
		{key: "server.rate_limit_per_minute", value: -1},
		{key: "alert.threshold", value: 0},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			v := New()
			v.Set(tt.key, tt.value)
			_, err := Load(v)
			assert.ErrorContains(t, err, tt.key)
		})
	}
}

func TestLoadDotEnv(t *testing.T) {
	t.Run("missing file is ignored", func(t *testing.T) {
		assert.NoError(t, LoadDotEnv(filepath.Join(t.TempDir(), ".env")))
	})

	t.Run("values reach viper", func(t *testing.T) {
		// Registered first so t.Setenv restores the variable once the test ends.
		t.Setenv("PORTPULSE_SERVER_ADDR", "")
		require.NoError(t, os.Unsetenv("PORTPULSE_SERVER_ADDR"))

		path := writeFile(t, ".env", "PORTPULSE_SERVER_ADDR=:7070\n")
		require.NoError(t, LoadDotEnv(path))

		cfg, err := Load(New())
		require.NoError(t, err)
		assert.Equal(t, ":7070", cfg.Server.Addr)
	})

	t.Run("existing env wins", func(t *testing.T) {
		t.Setenv("PORTPULSE_SERVER_ADDR", ":6060")

		path := writeFile(t, ".env", "PORTPULSE_SERVER_ADDR=:7070\n")
		require.NoError(t, LoadDotEnv(path))

		cfg, err := Load(New())
		require.NoError(t, err)
		assert.Equal(t, ":6060", cfg.Server.Addr)
	})
}
