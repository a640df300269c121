package config

import (
	"net/url"
	"os"
	"strings"
	"time"
	_ "time/tzdata" // display timezone must resolve on hosts without zoneinfo

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"OptionsIntraday/internal/logger"
)

var (
	// ErrMissingAPIKey is fatal at startup: every upstream call needs the key.
	ErrMissingAPIKey = errors.New("polygon api key is required")
	// ErrInvalidConfig wraps every other validation failure.
	ErrInvalidConfig = errors.New("invalid config")
)

// Config holds all application configuration.
type Config struct {
	Polygon struct {
		BaseURL  string        `yaml:"base_url"`
		APIKey   string        `yaml:"api_key"`
		Timeout  time.Duration `yaml:"timeout"`
		Limit    int           `yaml:"limit"`
		MaxPages int           `yaml:"max_pages"`
	} `yaml:"polygon"`
	Display struct {
		Timezone string `yaml:"timezone"`
	} `yaml:"display"`
	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`
	Watch struct {
		Enabled    bool    `yaml:"enabled"`
		Cron       string  `yaml:"cron"`
		Ticker     string  `yaml:"ticker"`
		Expiry     string  `yaml:"expiry"`
		OptionType string  `yaml:"option_type"`
		Strike     float64 `yaml:"strike"`
		Interval   int     `yaml:"interval"`
		Unit       string  `yaml:"unit"`
	} `yaml:"watch"`
	Telegram struct {
		BaseURL  string `yaml:"base_url"`
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Log   logger.Config `yaml:"log"`
	Proxy string        `yaml:"proxy"`
}

// Load reads an optional .env file and config from a YAML file, then applies
// environment variable overrides and defaults.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(errors.Cause(err)) {
		return nil, errors.Wrap(err, "load .env")
	}

	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, errors.Wrap(err, "read config")
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, errors.Wrap(err, "parse config")
		}
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("POLYGON_API_KEY"); v != "" {
		c.Polygon.APIKey = v
	}
	if v := os.Getenv("POLYGON_BASE_URL"); v != "" {
		c.Polygon.BaseURL = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		c.Proxy = v
	}
	if v := os.Getenv("LISTEN_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("DISPLAY_TIMEZONE"); v != "" {
		c.Display.Timezone = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("WATCH_ENABLED"); v != "" {
		c.Watch.Enabled = v == "1" || strings.EqualFold(v, "true")
	}
	if v := os.Getenv("WATCH_CRON"); v != "" {
		c.Watch.Cron = v
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		c.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		c.Telegram.ChatID = v
	}
}

func (c *Config) applyDefaults() {
	if c.Polygon.BaseURL == "" {
		c.Polygon.BaseURL = "https://api.polygon.io"
	}
	c.Polygon.BaseURL = strings.TrimRight(c.Polygon.BaseURL, "/")
	if c.Polygon.Timeout == 0 {
		c.Polygon.Timeout = 30 * time.Second
	}
	if c.Polygon.Limit == 0 {
		c.Polygon.Limit = 50000
	}
	if c.Polygon.MaxPages == 0 {
		c.Polygon.MaxPages = 10
	}
	if c.Display.Timezone == "" {
		c.Display.Timezone = "America/New_York"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Watch.Cron == "" {
		c.Watch.Cron = "0 */5 9-16 * * 1-5"
	}
	if c.Watch.Ticker == "" {
		c.Watch.Ticker = "NVDA"
	}
	if c.Watch.OptionType == "" {
		c.Watch.OptionType = "C"
	}
	if c.Watch.Strike == 0 {
		c.Watch.Strike = 850
	}
	if c.Watch.Interval == 0 {
		c.Watch.Interval = 1
	}
	if c.Watch.Unit == "" {
		c.Watch.Unit = "minute"
	}
	if c.Telegram.BaseURL == "" {
		c.Telegram.BaseURL = "https://api.telegram.org"
	}
	c.Telegram.BaseURL = strings.TrimRight(c.Telegram.BaseURL, "/")
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "console"
	}
}

// Validate checks that all required fields are set.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Polygon.APIKey) == "" {
		return ErrMissingAPIKey
	}
	u, err := url.Parse(c.Polygon.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return errors.Wrapf(ErrInvalidConfig, "polygon.base_url %q", c.Polygon.BaseURL)
	}
	if c.Polygon.Timeout <= 0 {
		return errors.Wrap(ErrInvalidConfig, "polygon.timeout must be positive")
	}
	if c.Polygon.Limit <= 0 {
		return errors.Wrap(ErrInvalidConfig, "polygon.limit must be positive")
	}
	if c.Polygon.MaxPages <= 0 {
		return errors.Wrap(ErrInvalidConfig, "polygon.max_pages must be positive")
	}
	if _, err := c.ProxyURL(); err != nil {
		return err
	}
	if (c.Telegram.BotToken == "") != (c.Telegram.ChatID == "") {
		return errors.Wrap(ErrInvalidConfig, "telegram.bot_token and telegram.chat_id must be set together")
	}
	if _, err := c.Location(); err != nil {
		return errors.Wrapf(ErrInvalidConfig, "display.timezone %q: %v", c.Display.Timezone, err)
	}
	return nil
}

// ProxyURL parses the outbound proxy. It returns nil when no proxy is set.
func (c *Config) ProxyURL() (*url.URL, error) {
	if c.Proxy == "" {
		return nil, nil
	}
	u, err := url.Parse(c.Proxy)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, errors.Wrapf(ErrInvalidConfig, "proxy %q", c.Proxy)
	}
	return u, nil
}

// NotifyEnabled reports whether watch summaries are pushed to Telegram.
func (c *Config) NotifyEnabled() bool {
	return c.Telegram.BotToken != "" && c.Telegram.ChatID != ""
}

// Location resolves the display timezone.
func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Display.Timezone)
}
