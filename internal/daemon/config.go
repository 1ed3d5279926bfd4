// Package daemon holds process configuration: the TOML file under the
// foundation home directory, overlaid by .env and FOUNDATION_* variables.
package daemon

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Config is the full configuration tree, one struct per TOML section.
type Config struct {
	API      APIConfig      `toml:"api"`
	Storage  StorageConfig  `toml:"storage"`
	Log      LogConfig      `toml:"log"`
	Calendar CalendarConfig `toml:"calendar"`
	Metrics  MetricsConfig  `toml:"metrics"`
}

// APIConfig configures the localhost HTTP surface.
type APIConfig struct {
	Host           string   `toml:"host"`
	Port           int      `toml:"port"`
	AllowedOrigins []string `toml:"allowed_origins"`
}

// StorageConfig selects the persistence backend.
type StorageConfig struct {
	Driver       string `toml:"driver"` // sqlite | redis
	RedisURL     string `toml:"redis_url"`
	JournalLimit int    `toml:"journal_limit"`
}

// LogConfig configures zerolog.
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // pretty | json
}

// CalendarConfig configures the Google Calendar panel. Disabled by default.
type CalendarConfig struct {
	Enabled         bool   `toml:"enabled"`
	CredentialsFile string `toml:"credentials_file"`
	MaxResults      int    `toml:"max_results"`
	RefreshInterval string `toml:"refresh_interval"`
	Timeout         string `toml:"timeout"`
}

// MetricsConfig toggles the /metrics endpoint.
type MetricsConfig struct {
	Enabled bool `toml:"enabled"`
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() Config {
	return Config{
		API: APIConfig{
			Host: "127.0.0.1",
			Port: 7717,
		},
		Storage: StorageConfig{
			Driver:       "sqlite",
			RedisURL:     "redis://localhost:6379/0",
			JournalLimit: 200,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "pretty",
		},
		Calendar: CalendarConfig{
			MaxResults:      10,
			RefreshInterval: "15m",
			Timeout:         "10s",
		},
		Metrics: MetricsConfig{Enabled: true},
	}
}

// Home returns the data directory: $FOUNDATION_HOME or ~/.foundation.
func Home() string {
	if h := os.Getenv("FOUNDATION_HOME"); h != "" {
		return h
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".foundation"
	}
	return filepath.Join(home, ".foundation")
}

// ConfigPath is the TOML file inside dir.
func ConfigPath(dir string) string {
	return filepath.Join(dir, "config.toml")
}

// Load reads config.toml from dir (a missing file is not an error), then
// applies .env and environment overrides.
func Load(dir string) (Config, error) {
	_ = godotenv.Load() // .env is optional

	cfg := DefaultConfig()
	path := ConfigPath(dir)
	if _, err := toml.DecodeFile(path, &cfg); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate rejects values the server cannot start with.
func (c Config) Validate() error {
	switch c.Storage.Driver {
	case "sqlite", "redis":
	default:
		return fmt.Errorf("storage.driver %q: want sqlite or redis", c.Storage.Driver)
	}
	if c.API.Port <= 0 || c.API.Port > 65535 {
		return fmt.Errorf("api.port %d out of range", c.API.Port)
	}
	if c.Calendar.Enabled && c.Calendar.CredentialsFile == "" {
		return errors.New("calendar.enabled requires calendar.credentials_file")
	}
	return nil
}

// Addr is the listen address host:port.
func (c APIConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Interval parses refresh_interval, defaulting to 15m.
func (c CalendarConfig) Interval() time.Duration {
	return parseDuration(c.RefreshInterval, 15*time.Minute)
}

// FetchTimeout parses timeout, defaulting to 10s.
func (c CalendarConfig) FetchTimeout() time.Duration {
	return parseDuration(c.Timeout, 10*time.Second)
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

// ─── Environment Overrides ──────────────────────────────────────────────────

func applyEnv(c *Config) {
	setString(&c.API.Host, "FOUNDATION_API_HOST")
	setInt(&c.API.Port, "FOUNDATION_API_PORT")
	if v := os.Getenv("FOUNDATION_ALLOWED_ORIGINS"); v != "" {
		c.API.AllowedOrigins = parseList(v)
	}
	setString(&c.Storage.Driver, "FOUNDATION_STORAGE_DRIVER")
	setString(&c.Storage.RedisURL, "FOUNDATION_REDIS_URL")
	setInt(&c.Storage.JournalLimit, "FOUNDATION_JOURNAL_LIMIT")
	setString(&c.Log.Level, "FOUNDATION_LOG_LEVEL")
	setString(&c.Log.Format, "FOUNDATION_LOG_FORMAT")
	setBool(&c.Calendar.Enabled, "FOUNDATION_CALENDAR_ENABLED")
	setString(&c.Calendar.CredentialsFile, "FOUNDATION_CALENDAR_CREDENTIALS")
	setBool(&c.Metrics.Enabled, "FOUNDATION_METRICS_ENABLED")
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if n, err := strconv.Atoi(os.Getenv(key)); err == nil {
		*dst = n
	}
}

func setBool(dst *bool, key string) {
	if b, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		*dst = b
	}
}

// parseList splits a comma-separated list into trimmed, non-empty items.
func parseList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
