package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envMap(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func TestDefaultConfig_Valid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, DriverSQLite, cfg.Storage.Driver)
	assert.Equal(t, 3, cfg.Session.Quota)
	assert.Equal(t, 5, cfg.Session.MinSeconds)
	assert.Equal(t, CameraVirtual, cfg.Session.Camera.Driver)
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plank.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  addr: ":9000"
storage:
  driver: file
  data_dir: /var/lib/plank
session:
  quota: 5
timezone: Europe/Berlin
log:
  level: debug
`), 0o644))

	t.Setenv("PLANK_ADDR", ":9100")
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9100", cfg.Server.Addr, "env wins over file")
	assert.Equal(t, DriverFile, cfg.Storage.Driver)
	assert.Equal(t, "/var/lib/plank", cfg.Storage.DataDir)
	assert.Equal(t, 5, cfg.Session.Quota)
	assert.Equal(t, 5, cfg.Session.MinSeconds, "defaults kept for unset fields")
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, "Europe/Berlin", loc.String())
	lvl, err := cfg.LogLevel()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, lvl)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestApplyEnv(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.ApplyEnv(envMap(map[string]string{
		"PLANK_STORAGE_DRIVER": "postgres",
		"DATABASE_URL":         "postgres://u:p@db/plank",
		"PLANK_DAILY_QUOTA":    "4",
		"PLANK_AUTH_ENABLED":   "true",
		"PLANK_PASSWORD_HASH":  "$2a$10$abc",
		"OIDC_ISSUER":          "",
	})))

	assert.Equal(t, DriverPostgres, cfg.Storage.Driver)
	assert.Equal(t, "postgres://u:p@db/plank", cfg.Storage.DatabaseURL)
	assert.Equal(t, 4, cfg.Session.Quota)
	assert.True(t, cfg.Auth.Enabled)
	require.NoError(t, cfg.Validate())

	err := cfg.ApplyEnv(envMap(map[string]string{"PLANK_DAILY_QUOTA": "three"}))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"unknown driver", func(c *Config) { c.Storage.Driver = "mongo" }},
		{"postgres without url", func(c *Config) { c.Storage.Driver = DriverPostgres }},
		{"zero quota", func(c *Config) { c.Session.Quota = 0 }},
		{"zero min seconds", func(c *Config) { c.Session.MinSeconds = 0 }},
		{"negative min seconds", func(c *Config) { c.Session.MinSeconds = -1 }},
		{"bad camera", func(c *Config) { c.Session.Camera.Driver = "webcam" }},
		{"auth without credentials", func(c *Config) { c.Auth.Enabled = true }},
		{"oidc without owner", func(c *Config) { c.Auth.OIDC = OIDCConfig{Issuer: "https://id", ClientID: "plank"} }},
		{"bad timezone", func(c *Config) { c.Timezone = "Mars/Olympus" }},
		{"bad log level", func(c *Config) { c.Log.Level = "chatty" }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestRedacted(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Storage.DatabaseURL = "postgres://secret"
	cfg.Auth.PasswordHash = "hash"

	r := cfg.Redacted()
	assert.Equal(t, "***", r.Storage.DatabaseURL)
	assert.Equal(t, "***", r.Auth.PasswordHash)
	assert.Equal(t, "postgres://secret", cfg.Storage.DatabaseURL)
}

func TestResolvePath(t *testing.T) {
	assert.Equal(t, "x.yaml", ResolvePath("x.yaml"))
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	assert.Equal(t, "", ResolvePath(""))
	require.NoError(t, os.WriteFile(DefaultFile, []byte("{}"), 0o644))
	assert.Equal(t, DefaultFile, ResolvePath(""))
}
