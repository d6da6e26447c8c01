package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
	_ "time/tzdata"

	"github.com/ilyakaznacheev/cleanenv"
)

type Remote struct {
	URI      string        `toml:"uri" env:"HQ_REMOTE_URI"`
	Database string        `toml:"database" env:"HQ_REMOTE_DB" env-default:"habitquest"`
	Timeout  time.Duration `toml:"timeout" env:"HQ_REMOTE_TIMEOUT" env-default:"10s"`
}

type Log struct {
	Level  string `toml:"level" env:"HQ_LOG_LEVEL" env-default:"warn"`
	Format string `toml:"format" env:"HQ_LOG_FORMAT" env-default:"text"`
}

type Config struct {
	DBPath          string `toml:"db_path" env:"HQ_DB_PATH"`
	Timezone        string `toml:"timezone" env:"HQ_TIMEZONE"`
	WriteWorkers    int    `toml:"write_workers" env:"HQ_WRITE_WORKERS" env-default:"2"`
	IndicatorPolicy string `toml:"indicator_policy" env:"HQ_INDICATOR_POLICY" env-default:"first"`
	Remote          Remote `toml:"remote"`
	Log             Log    `toml:"log"`
}

// DefaultPath returns ~/.habitquest/config.toml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	return filepath.Join(home, ".habitquest", "config.toml"), nil
}

// Load reads the TOML file at path, then applies HQ_* environment
// overrides. A missing file is not an error; env and defaults apply.
func Load(path string) (*Config, error) {
	var cfg Config
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}

	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		var pe *os.PathError
		if !errors.As(err, &pe) {
			return nil, fmt.Errorf("read config %q: %w", path, err)
		}
		cfg = Config{}
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("read env: %w", err)
		}
	}

	if cfg.DBPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home dir: %w", err)
		}
		cfg.DBPath = filepath.Join(home, ".habitquest", "habitquest.db")
	}
	if cfg.WriteWorkers <= 0 {
		return nil, fmt.Errorf("write_workers must be positive, got %d", cfg.WriteWorkers)
	}
	return &cfg, nil
}

// Location resolves Timezone; empty means the system zone.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// Online reports whether a remote store is configured.
func (c *Config) Online() bool { return c.Remote.URI != "" }

// Usage lists the environment variables understood by Load.
func Usage() (string, error) {
	return cleanenv.GetDescription(&Config{}, nil)
}
