// Package config loads the backup reminder settings from a YAML file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const (
	BackendCommand = "command"
	BackendDBus    = "dbus"

	// EnvLogLevel overrides the configured log level.
	EnvLogLevel = "BACKUP_REMINDER_LOG_LEVEL"
)

// DefaultConfigPath returns ~/.config/backup-reminder/config.yml.
func DefaultConfigPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("get config directory: %w", err)
	}
	return filepath.Join(dir, "backup-reminder", "config.yml"), nil
}

// Config holds everything the reminder needs to run.
type Config struct {
	Backup      CommandConfig `yaml:"backup"`
	ScreenSaver ToolConfig    `yaml:"screensaver"`
	Power       ToolConfig    `yaml:"power"`
	Log         LogConfig     `yaml:"log"`
}

// CommandConfig describes the external backup command.
type CommandConfig struct {
	Command string   `yaml:"command"`
	Args    []string `yaml:"args"`
}

// ToolConfig selects how a side tool is reached. With the command backend,
// Command is executed with the action arguments appended.
type ToolConfig struct {
	Backend string `yaml:"backend"`
	Command string `yaml:"command"`
}

type LogConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file,omitempty"`
	MaxSizeMB  int    `yaml:"max_size_mb,omitempty"`
	MaxBackups int    `yaml:"max_backups,omitempty"`
}

// Default mirrors the tools a stock desktop install provides.
func Default() *Config {
	return &Config{
		Backup: CommandConfig{
			Command: "/usr/bin/duply",
			Args:    []string{"binky", "backup"},
		},
		ScreenSaver: ToolConfig{
			Backend: BackendCommand,
			Command: "/usr/bin/xdg-screensaver",
		},
		Power: ToolConfig{
			Backend: BackendCommand,
			Command: "/usr/bin/systemctl",
		},
		Log: LogConfig{
			Level:      "info",
			MaxSizeMB:  5,
			MaxBackups: 3,
		},
	}
}

// Validate checks that the configuration can drive a session.
func (c *Config) Validate() error {
	if c.Backup.Command == "" {
		return errors.New("backup.command is required")
	}
	for name, tool := range map[string]ToolConfig{"screensaver": c.ScreenSaver, "power": c.Power} {
		switch tool.Backend {
		case BackendCommand:
			if tool.Command == "" {
				return fmt.Errorf("%s.command is required for the command backend", name)
			}
		case BackendDBus:
		default:
			return fmt.Errorf("%s.backend %q is not supported", name, tool.Backend)
		}
	}
	return nil
}

// Load reads the configuration from path on top of the defaults.
// A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnv()
			return cfg, nil
		}
		return nil, fmt.Errorf("read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// LoadDefault loads the configuration from the default path.
func LoadDefault() (*Config, error) {
	path, err := DefaultConfigPath()
	if err != nil {
		return nil, err
	}
	return Load(path)
}

func (c *Config) applyEnv() {
	if level := os.Getenv(EnvLogLevel); level != "" {
		c.Log.Level = level
	}
}
