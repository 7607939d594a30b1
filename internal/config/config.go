package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/go-mclib/server/pkg/window"
)

// Config holds the inspector configuration
type Config struct {
	Player      string          `yaml:"player"`
	ShieldID    int32           `yaml:"shield_id"`
	MaxLogLines int             `yaml:"max_log_lines"`
	Log         LogConfig       `yaml:"log"`
	ActionLog   ActionLogConfig `yaml:"action_log"`
	Windows     []WindowConfig  `yaml:"windows"`
}

// LogConfig holds logger settings
type LogConfig struct {
	Level   string `yaml:"level"`
	Console bool   `yaml:"console"`
	NoColor bool   `yaml:"no_color"`
}

// ActionLogConfig holds action log storage settings
type ActionLogConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// WindowConfig describes a window opened for the player on startup
type WindowConfig struct {
	Kind string `yaml:"kind"`
	Size int    `yaml:"size"` // 0 = default for kind
}

// Default returns the configuration used when no file is given
func Default() Config {
	return Config{
		Player:      "Steve",
		MaxLogLines: 500,
		Log: LogConfig{
			Level:   "info",
			Console: true,
		},
		ActionLog: ActionLogConfig{
			Path: "data/actions.db",
		},
	}
}

// Load reads configuration from a YAML file
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	// Set defaults if emptied by the file
	if strings.TrimSpace(cfg.Player) == "" {
		cfg.Player = "Steve"
	}
	if cfg.MaxLogLines == 0 {
		cfg.MaxLogLines = 500
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.ActionLog.Path == "" {
		cfg.ActionLog.Path = "data/actions.db"
	}

	if err := Validate(cfg); err != nil {
		return Config{}, fmt.Errorf("invalid config file %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks values that cannot be defaulted
func Validate(cfg Config) error {
	if cfg.MaxLogLines < 0 {
		return fmt.Errorf("max_log_lines must not be negative")
	}
	if cfg.ShieldID < 0 {
		return fmt.Errorf("shield_id must not be negative")
	}
	for i, w := range cfg.Windows {
		kind, err := window.ParseKind(w.Kind)
		if err != nil {
			return fmt.Errorf("windows[%d]: %w", i, err)
		}
		if err := kind.CheckSize(w.Size); err != nil {
			return fmt.Errorf("windows[%d]: %w", i, err)
		}
	}
	return nil
}
