package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoad_NonExistent(t *testing.T) {
	cfg, err := Load("/nonexistent/path/config.yaml")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, "localhost:51411", cfg.Address())
}

func TestLoad_ValidConfig(t *testing.T) {
	path := writeConfig(t, `
remote:
  host: a.chiro.work
  port: 6000
dispatch:
  poll_interval: 25ms
executor:
  mode: cooperative
fetch:
  timeout: 5s
ui:
  run_mode: continuous
  granularity: daily
  predict_length: 4
logging:
  level: debug
  format: json
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "a.chiro.work:6000", cfg.Address())
	assert.Equal(t, 25*time.Millisecond, cfg.Dispatch.PollInterval)
	assert.Equal(t, "cooperative", cfg.Executor.Mode)
	assert.Equal(t, 5*time.Second, cfg.Fetch.Timeout)
	assert.Equal(t, "continuous", cfg.UI.RunMode)
	assert.Equal(t, "daily", cfg.UI.Granularity)
	assert.Equal(t, 4, cfg.UI.PredictLength)
	assert.Equal(t, "json", cfg.Logging.Format)
	// untouched sections keep their defaults
	assert.Equal(t, DefaultRefreshInterval, cfg.UI.RefreshInterval)
	assert.Equal(t, DefaultKnownHosts, cfg.Remote.KnownHosts)
}

func TestLoad_InvalidYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "remote: [not: valid"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse")
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := writeConfig(t, "remote:\n  host: localhost\n")
	t.Setenv("STOCKVIEW_REMOTE_HOST", "a.chiro.work")
	t.Setenv("STOCKVIEW_DISPATCH_POLL_INTERVAL", "50ms")
	t.Setenv("STOCKVIEW_EXECUTOR_WORKERS", "3")
	t.Setenv("STOCKVIEW_UI_RUN_MODE", "continuous")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "a.chiro.work", cfg.Remote.Host)
	assert.Equal(t, 50*time.Millisecond, cfg.Dispatch.PollInterval)
	assert.Equal(t, 3, cfg.Executor.Workers)
	assert.Equal(t, "continuous", cfg.UI.RunMode)
	assert.Equal(t, DefaultPort, cfg.Remote.Port)
}

func TestLoad_BadEnvValue(t *testing.T) {
	t.Setenv("STOCKVIEW_REMOTE_PORT", "not-a-number")
	_, err := Load("/nonexistent/config.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read environment")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mut     func(*Config)
		wantErr string
	}{
		{"defaults", func(*Config) {}, ""},
		{"unknown host", func(c *Config) { c.Remote.Host = "evil.example.com" }, "not one of the known hosts"},
		{"bad port", func(c *Config) { c.Remote.Port = 0 }, "remote.port"},
		{"zero poll interval", func(c *Config) { c.Dispatch.PollInterval = 0 }, "poll_interval"},
		{"bad executor mode", func(c *Config) { c.Executor.Mode = "threads" }, "executor.mode"},
		{"bad run mode", func(c *Config) { c.UI.RunMode = "lazy" }, "ui.run_mode"},
		{"negative predict length", func(c *Config) { c.UI.PredictLength = -1 }, "predict_length"},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }, "logging.format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mut(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := Default()
	cfg.Remote.Host = "a.chiro.work"
	cfg.Dispatch.PollInterval = 20 * time.Millisecond

	require.NoError(t, Save(path, cfg))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestLoadEnvFile(t *testing.T) {
	require.NoError(t, LoadEnvFile(filepath.Join(t.TempDir(), ".env")))

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("STOCKVIEW_TEST_DOTENV=loaded\n"), 0600))
	t.Cleanup(func() { _ = os.Unsetenv("STOCKVIEW_TEST_DOTENV") })

	require.NoError(t, LoadEnvFile(path))
	assert.Equal(t, "loaded", os.Getenv("STOCKVIEW_TEST_DOTENV"))
}

func TestConfigDir(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/custom/config")
	assert.Equal(t, "/custom/config/stockview", ConfigDir())
	assert.Equal(t, "/custom/config/stockview/config.yaml", DefaultPath())
	assert.Equal(t, "/custom/config/stockview/log.txt", Default().LogFile())
}
