// Package config loads layered runtime configuration: struct defaults,
// then an optional YAML file, then ZONECAL_* environment variables.
// Command-line flags override on top of this in cmd/app.
package config

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

type Config struct {
	Server     Server     `yaml:"server"`
	Storage    Storage    `yaml:"storage"`
	Scheduling Scheduling `yaml:"scheduling"`
	Audit      Audit      `yaml:"audit"`
	Log        Log        `yaml:"log"`
}

type Server struct {
	Addr            string        `yaml:"addr" env:"ZONECAL_LISTEN_ADDR" env-default:":8080"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"ZONECAL_SHUTDOWN_TIMEOUT" env-default:"10s"`
}

// Storage selects the backend: a non-empty DBPath opens that SQLite file,
// an empty one keeps everything in process memory.
type Storage struct {
	DBPath string `yaml:"db_path" env:"ZONECAL_DB_PATH"`
}

type Scheduling struct {
	DefaultTimezone string `yaml:"default_timezone" env:"ZONECAL_DEFAULT_TIMEZONE" env-default:"UTC"`
}

type Audit struct {
	// RetentionEntries caps the audit log; 0 disables pruning.
	RetentionEntries int           `yaml:"retention_entries" env:"ZONECAL_AUDIT_RETENTION" env-default:"10000"`
	PruneInterval    time.Duration `yaml:"prune_interval" env:"ZONECAL_AUDIT_PRUNE_INTERVAL" env-default:"1m"`
}

type Log struct {
	Level  string `yaml:"level" env:"ZONECAL_LOG_LEVEL" env-default:"info"`
	Format string `yaml:"format" env:"ZONECAL_LOG_FORMAT" env-default:"json"`
}

// Load reads configuration from the YAML file at path (optional, "" skips
// it) and the environment. A .env file in the working directory is loaded
// first when present.
func Load(path string) (Config, error) {
	// A missing .env file is fine; the environment may be set directly.
	_ = godotenv.Load()

	var cfg Config
	if path != "" {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	} else {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return Config{}, fmt.Errorf("read environment: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("server addr must not be empty")
	}
	if c.Audit.RetentionEntries < 0 {
		return fmt.Errorf("audit retention must not be negative, got %d", c.Audit.RetentionEntries)
	}
	if c.Scheduling.DefaultTimezone == "" {
		return fmt.Errorf("default timezone must not be empty")
	}
	if _, err := time.LoadLocation(c.Scheduling.DefaultTimezone); err != nil {
		return fmt.Errorf("default timezone %q is not a valid IANA zone", c.Scheduling.DefaultTimezone)
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log level %q is not one of debug, info, warn, error", c.Log.Level)
	}
	switch c.Log.Format {
	case "json", "text":
	default:
		return fmt.Errorf("log format %q is not one of json, text", c.Log.Format)
	}
	return nil
}
