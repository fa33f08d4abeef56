package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "/usr/bin/duply", cfg.Backup.Command)
	assert.Equal(t, []string{"binky", "backup"}, cfg.Backup.Args)
	assert.Equal(t, BackendCommand, cfg.ScreenSaver.Backend)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{name: "missing backup command", mutate: func(c *Config) { c.Backup.Command = "" }, wantErr: true},
		{name: "dbus without command", mutate: func(c *Config) {
			c.Power = ToolConfig{Backend: BackendDBus}
		}},
		{name: "command backend without command", mutate: func(c *Config) {
			c.ScreenSaver.Command = ""
		}, wantErr: true},
		{name: "unknown backend", mutate: func(c *Config) { c.Power.Backend = "smoke-signals" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yml"))
	require.NoError(t, err)
	assert.Equal(t, Default().Backup, cfg.Backup)
}

func TestLoad_OverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	data := []byte(`backup:
  command: /usr/local/bin/restic-wrapper
  args: [nightly]
power:
  backend: dbus
log:
  level: debug
`)
	require.NoError(t, os.WriteFile(path, data, 0600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/usr/local/bin/restic-wrapper", cfg.Backup.Command)
	assert.Equal(t, []string{"nightly"}, cfg.Backup.Args)
	assert.Equal(t, BackendDBus, cfg.Power.Backend)
	assert.Equal(t, "/usr/bin/xdg-screensaver", cfg.ScreenSaver.Command)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte("backup: [unclosed"), 0600))

	_, err := Load(path)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "parse config file")
}

func TestLoad_InvalidValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte("screensaver:\n  backend: carrier-pigeon\n"), 0600))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_EnvOverridesLogLevel(t *testing.T) {
	t.Setenv(EnvLogLevel, "warn")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yml"))
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.Log.Level)
}
