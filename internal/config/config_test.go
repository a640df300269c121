package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"POLYGON_API_KEY", "POLYGON_BASE_URL", "HTTPS_PROXY", "LISTEN_ADDR",
		"DISPLAY_TIMEZONE", "LOG_LEVEL", "WATCH_ENABLED", "WATCH_CRON",
		"TELEGRAM_BOT_TOKEN", "TELEGRAM_CHAT_ID",
	} {
		t.Setenv(k, "")
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "https://api.polygon.io", cfg.Polygon.BaseURL)
	assert.Equal(t, 30*time.Second, cfg.Polygon.Timeout)
	assert.Equal(t, 50000, cfg.Polygon.Limit)
	assert.Equal(t, 10, cfg.Polygon.MaxPages)
	assert.Equal(t, "America/New_York", cfg.Display.Timezone)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "NVDA", cfg.Watch.Ticker)
	assert.Equal(t, 850.0, cfg.Watch.Strike)
	assert.False(t, cfg.Watch.Enabled)
}

func TestLoad_FileThenEnvOverride(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
polygon:
  base_url: https://example.test/
  api_key: from-file
  timeout: 5s
  max_pages: 2
display:
  timezone: UTC
watch:
  enabled: true
  ticker: TSLA
  strike: 200.5
`)
	t.Setenv("POLYGON_API_KEY", "from-env")
	t.Setenv("LISTEN_ADDR", ":9090")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "https://example.test", cfg.Polygon.BaseURL)
	assert.Equal(t, "from-env", cfg.Polygon.APIKey)
	assert.Equal(t, 5*time.Second, cfg.Polygon.Timeout)
	assert.Equal(t, 2, cfg.Polygon.MaxPages)
	assert.Equal(t, "UTC", cfg.Display.Timezone)
	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.True(t, cfg.Watch.Enabled)
	assert.Equal(t, "TSLA", cfg.Watch.Ticker)
	assert.Equal(t, 200.5, cfg.Watch.Strike)
	require.NoError(t, cfg.Validate())
}

func TestLoad_BadYAML(t *testing.T) {
	clearEnv(t)
	_, err := Load(writeConfig(t, "polygon: [unclosed"))
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	clearEnv(t)
	base := func() *Config {
		cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
		require.NoError(t, err)
		cfg.Polygon.APIKey = "key"
		return cfg
	}

	tests := []struct {
		name   string
		mutate func(c *Config)
		want   error
	}{
		{"ok", func(c *Config) {}, nil},
		{"missing key", func(c *Config) { c.Polygon.APIKey = "  " }, ErrMissingAPIKey},
		{"bad url", func(c *Config) { c.Polygon.BaseURL = "not a url" }, ErrInvalidConfig},
		{"zero timeout", func(c *Config) { c.Polygon.Timeout = -time.Second }, ErrInvalidConfig},
		{"bad limit", func(c *Config) { c.Polygon.Limit = -1 }, ErrInvalidConfig},
		{"bad pages", func(c *Config) { c.Polygon.MaxPages = -1 }, ErrInvalidConfig},
		{"bad timezone", func(c *Config) { c.Display.Timezone = "Mars/Olympus" }, ErrInvalidConfig},
		{"proxy ok", func(c *Config) { c.Proxy = "http://127.0.0.1:3128" }, nil},
		{"proxy unparsable", func(c *Config) { c.Proxy = "http://[::1" }, ErrInvalidConfig},
		{"proxy without scheme", func(c *Config) { c.Proxy = "proxy.local:3128" }, ErrInvalidConfig},
		{"telegram token only", func(c *Config) { c.Telegram.BotToken = "123:abc" }, ErrInvalidConfig},
		{"telegram pair", func(c *Config) { c.Telegram.BotToken, c.Telegram.ChatID = "123:abc", "42" }, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.want == nil {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}

func TestLoad_TelegramFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("TELEGRAM_BOT_TOKEN", "123:abc")
	t.Setenv("TELEGRAM_CHAT_ID", "42")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "https://api.telegram.org", cfg.Telegram.BaseURL)
	assert.True(t, cfg.NotifyEnabled())
}
