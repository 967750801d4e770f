// Package config loads the service configuration from a YAML file and the
// environment.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultFile is read when no --config flag is given and it exists.
const DefaultFile = "plank.yaml"

// Storage drivers.
const (
	DriverMemory   = "memory"
	DriverFile     = "file"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverRedis    = "redis"
)

// Camera drivers.
const (
	CameraVirtual = "virtual"
	CameraDevice  = "device"
)

// Config represents the complete service configuration.
type Config struct {
	Server   ServerConfig  `yaml:"server"`
	Storage  StorageConfig `yaml:"storage"`
	Session  SessionConfig `yaml:"session"`
	Auth     AuthConfig    `yaml:"auth"`
	Log      LogConfig     `yaml:"log"`
	Timezone string        `yaml:"timezone"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	WebDir          string        `yaml:"web_dir"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// StorageConfig selects and configures the key-value backend.
type StorageConfig struct {
	// Driver is one of memory, file, sqlite, postgres, redis.
	Driver      string      `yaml:"driver"`
	SQLitePath  string      `yaml:"sqlite_path"`
	DataDir     string      `yaml:"data_dir"`
	DatabaseURL string      `yaml:"database_url"`
	Redis       RedisConfig `yaml:"redis"`
}

// RedisConfig configures the redis backend.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Prefix   string `yaml:"prefix"`
}

// SessionConfig tunes the attempt controller.
type SessionConfig struct {
	Quota      int          `yaml:"quota"`
	MinSeconds int          `yaml:"min_seconds"`
	Countdown  int          `yaml:"countdown"`
	Camera     CameraConfig `yaml:"camera"`
}

// CameraConfig selects the camera adapter.
type CameraConfig struct {
	// Driver is virtual (the browser owns the preview) or device.
	Driver string `yaml:"driver"`
	// Device is the preferred (front) video node, e.g. /dev/video0.
	Device string `yaml:"device"`
}

// AuthConfig configures the owner access gate.
type AuthConfig struct {
	Enabled      bool       `yaml:"enabled"`
	Owner        string     `yaml:"owner"`
	PasswordHash string     `yaml:"password_hash"`
	OIDC         OIDCConfig `yaml:"oidc"`
}

// OIDCConfig configures SSO.
type OIDCConfig struct {
	Issuer       string `yaml:"issuer"`
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	RedirectURL  string `yaml:"redirect_url"`
}

// Enabled reports whether enough is configured to offer SSO.
func (o OIDCConfig) Enabled() bool {
	return o.Issuer != "" && o.ClientID != ""
}

// LogConfig configures logging.
type LogConfig struct {
	Level string `yaml:"level"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":8080",
			WebDir:          "web",
			ShutdownTimeout: 10 * time.Second,
		},
		Storage: StorageConfig{
			Driver:     DriverSQLite,
			SQLitePath: "data/plank.db",
			DataDir:    "data",
			Redis:      RedisConfig{Addr: "localhost:6379", Prefix: "plank:"},
		},
		Session: SessionConfig{
			Quota:      3,
			MinSeconds: 5,
			Countdown:  3,
			Camera:     CameraConfig{Driver: CameraVirtual},
		},
		Log: LogConfig{Level: "info"},
	}
}

// Load reads path over the defaults (path may be empty), then applies
// environment overrides and validates the result.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ResolvePath returns explicit when set, otherwise DefaultFile when it
// exists, otherwise "".
func ResolvePath(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if _, err := os.Stat(DefaultFile); err == nil {
		return DefaultFile
	}
	return ""
}

// ApplyEnv overrides fields from environment variables looked up with lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	num := func(key string, dst *int) error {
		v, ok := lookup(key)
		if !ok || v == "" {
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*dst = n
		return nil
	}

	str("PLANK_ADDR", &c.Server.Addr)
	str("PLANK_WEB_DIR", &c.Server.WebDir)
	str("PLANK_STORAGE_DRIVER", &c.Storage.Driver)
	str("DATABASE_URL", &c.Storage.DatabaseURL)
	str("PLANK_SQLITE_PATH", &c.Storage.SQLitePath)
	str("PLANK_DATA_DIR", &c.Storage.DataDir)
	str("REDIS_ADDR", &c.Storage.Redis.Addr)
	str("REDIS_PASSWORD", &c.Storage.Redis.Password)
	str("PLANK_TIMEZONE", &c.Timezone)
	str("PLANK_LOG_LEVEL", &c.Log.Level)
	str("PLANK_CAMERA_DRIVER", &c.Session.Camera.Driver)
	str("PLANK_CAMERA_DEVICE", &c.Session.Camera.Device)
	str("PLANK_OWNER", &c.Auth.Owner)
	str("PLANK_PASSWORD_HASH", &c.Auth.PasswordHash)
	str("OIDC_ISSUER", &c.Auth.OIDC.Issuer)
	str("OIDC_CLIENT_ID", &c.Auth.OIDC.ClientID)
	str("OIDC_CLIENT_SECRET", &c.Auth.OIDC.ClientSecret)
	str("OIDC_REDIRECT_URL", &c.Auth.OIDC.RedirectURL)

	if err := num("PLANK_DAILY_QUOTA", &c.Session.Quota); err != nil {
		return err
	}
	if v, ok := lookup("PLANK_AUTH_ENABLED"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("PLANK_AUTH_ENABLED: %w", err)
		}
		c.Auth.Enabled = b
	}
	return nil
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	var errs []error
	switch c.Storage.Driver {
	case DriverMemory:
	case DriverFile:
		if c.Storage.DataDir == "" {
			errs = append(errs, errors.New("storage.data_dir is required for the file driver"))
		}
	case DriverSQLite:
		if c.Storage.SQLitePath == "" {
			errs = append(errs, errors.New("storage.sqlite_path is required for the sqlite driver"))
		}
	case DriverPostgres:
		if c.Storage.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required for the postgres driver"))
		}
	case DriverRedis:
		if c.Storage.Redis.Addr == "" {
			errs = append(errs, errors.New("storage.redis.addr is required for the redis driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown storage.driver %q", c.Storage.Driver))
	}

	if c.Session.Quota < 1 {
		errs = append(errs, errors.New("session.quota must be at least 1"))
	}
	if c.Session.MinSeconds < 1 {
		errs = append(errs, errors.New("session.min_seconds must be at least 1"))
	}
	if c.Session.Countdown < 1 {
		errs = append(errs, errors.New("session.countdown must be at least 1"))
	}
	switch c.Session.Camera.Driver {
	case CameraVirtual, CameraDevice:
	default:
		errs = append(errs, fmt.Errorf("unknown session.camera.driver %q", c.Session.Camera.Driver))
	}

	if c.Auth.Enabled && c.Auth.PasswordHash == "" && !c.Auth.OIDC.Enabled() {
		errs = append(errs, errors.New("auth is enabled but neither password_hash nor oidc is configured"))
	}
	if c.Auth.OIDC.Enabled() && c.Auth.Owner == "" {
		errs = append(errs, errors.New("auth.owner is required when oidc is configured"))
	}

	if _, err := c.Location(); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.LogLevel(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Location returns the configured time zone, or time.Local.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("timezone: %w", err)
	}
	return loc, nil
}

// LogLevel parses the configured log level.
func (c *Config) LogLevel() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(c.Log.Level))); err != nil {
		return 0, fmt.Errorf("log.level: %w", err)
	}
	return lvl, nil
}

// Redacted returns a copy safe to print.
func (c *Config) Redacted() Config {
	out := *c
	if out.Storage.DatabaseURL != "" {
		out.Storage.DatabaseURL = "***"
	}
	if out.Storage.Redis.Password != "" {
		out.Storage.Redis.Password = "***"
	}
	if out.Auth.PasswordHash != "" {
		out.Auth.PasswordHash = "***"
	}
	if out.Auth.OIDC.ClientSecret != "" {
		out.Auth.OIDC.ClientSecret = "***"
	}
	return out
}
