package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadFile_Defaults(t *testing.T) {
	cfg, err := LoadFile(writeConfig(t, ""))
	require.NoError(t, err)

	assert.Equal(t, "minimart-storefront", cfg.App.Name)
	assert.Equal(t, "3000", cfg.App.Port)
	assert.Equal(t, "http://localhost:5000", cfg.Backend.BaseURL)
	assert.Equal(t, 10*time.Second, cfg.Backend.Timeout)
	assert.Equal(t, "memory", cfg.Session.Store)
	assert.Equal(t, "minimart_sid", cfg.Session.CookieName)
	assert.Equal(t, 5, cfg.Catalog.FeaturedCount)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr())
	assert.Equal(t, 1.0, cfg.Telemetry.SamplingRatio)
}

func TestLoadFile_ReadsToml(t *testing.T) {
	path := writeConfig(t, `
[app]
port = "8081"

[backend]
base_url = "https://api.minimart.test"
timeout = "3s"
rate_limit = 50

[session]
store = "redis"
idle_timeout = "10m"

[catalog]
featured_count = 8
`)

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, "8081", cfg.App.Port)
	assert.Equal(t, "https://api.minimart.test", cfg.Backend.BaseURL)
	assert.Equal(t, 3*time.Second, cfg.Backend.Timeout)
	assert.Equal(t, 50.0, cfg.Backend.RateLimit)
	assert.Equal(t, "redis", cfg.Session.Store)
	assert.Equal(t, 10*time.Minute, cfg.Session.IdleTimeout)
	assert.Equal(t, 8, cfg.Catalog.FeaturedCount)
}

func TestLoadFile_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, `
[backend]
base_url = "https://from-file.test"
`)
	t.Setenv("MINIMART_BACKEND_BASE_URL", "https://from-env.test")
	t.Setenv("MINIMART_LOG_LEVEL", "debug")

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, "https://from-env.test", cfg.Backend.BaseURL)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadFile_MissingFile(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "nope.toml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		cfg := &Config{}
		applyDefaults(cfg)
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid defaults", func(*Config) {}, ""},
		{"relative backend url", func(c *Config) { c.Backend.BaseURL = "/api" }, "backend.base_url"},
		{"unknown session store", func(c *Config) { c.Session.Store = "postgres" }, "session.store"},
		{"negative sweep interval", func(c *Config) { c.Session.SweepInterval = -time.Second }, "session.sweep_interval"},
		{"negative idle timeout", func(c *Config) { c.Session.IdleTimeout = -time.Minute }, "session.idle_timeout"},
		{"negative session ttl", func(c *Config) { c.Session.TTL = -time.Hour }, "session.ttl"},
		{"same site none needs secure", func(c *Config) { c.Session.SameSite = "none" }, "cookie_secure"},
		{"storage without bucket", func(c *Config) { c.Storage.Enabled = true }, "storage.bucket"},
		{"production needs secure cookie", func(c *Config) { c.App.Env = "production" }, "cookie_secure"},
		{"production wildcard cors", func(c *Config) {
			c.App.Env = "production"
			c.Session.CookieSecure = true
			c.HTTP.CORSAllowOrigins = []string{"*"}
		}, "cors_allow_origins"},
		{"sampling ratio out of range", func(c *Config) { c.Telemetry.SamplingRatio = 1.5 }, "sampling_ratio"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			err := cfg.validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadFile_RejectsNegativeSweepInterval(t *testing.T) {
	path := writeConfig(t, `
[session]
sweep_interval = "-1m"
`)

	_, err := LoadFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "session.sweep_interval")
}
