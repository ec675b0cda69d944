package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Timer    TimerConfig    `yaml:"timer"`
}

type ServerConfig struct {
	Addr      string `yaml:"addr"`
	StaticDir string `yaml:"static_dir"`
}

type DatabaseConfig struct {
	Driver string `yaml:"driver"` // sqlite3 or postgres
	Path   string `yaml:"path"`   // sqlite3 file path
	DSN    string `yaml:"dsn"`    // postgres connection string
}

type TimerConfig struct {
	TickInterval    Duration `yaml:"tick_interval"`
	SessionTTL      Duration `yaml:"session_ttl"`
	PauseDir        string   `yaml:"pause_dir"`
	ClearOnComplete bool     `yaml:"clear_on_complete"`
}

// Duration accepts human-readable values like "2s" or "1h" in YAML.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// Default returns the configuration used when no file is supplied.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:      ":8080",
			StaticDir: "web/dist",
		},
		Database: DatabaseConfig{
			Driver: "sqlite3",
			Path:   "data/lifetrack.db",
		},
		Timer: TimerConfig{
			TickInterval:    Duration(time.Second),
			SessionTTL:      Duration(time.Hour),
			PauseDir:        "data/pauses",
			ClearOnComplete: false,
		},
	}
}

// Load reads the YAML file at path over the defaults. An empty path yields
// the defaults; a missing or unreadable file is an error so a typoed path
// does not silently fall back.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if cfg.Timer.TickInterval <= 0 {
		cfg.Timer.TickInterval = Duration(time.Second)
	}
	if cfg.Timer.SessionTTL <= 0 {
		cfg.Timer.SessionTTL = Duration(time.Hour)
	}
	return cfg, nil
}
