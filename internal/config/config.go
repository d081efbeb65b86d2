package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the main configuration structure
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	API      APIConfig      `yaml:"api"`
	Upstream UpstreamConfig `yaml:"upstream"`
	Search   SearchConfig   `yaml:"search"`
	Themes   ThemesConfig   `yaml:"themes"`
	History  HistoryConfig  `yaml:"history"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ServerConfig contains server-wide settings
type ServerConfig struct {
	Hostname string `yaml:"hostname"`
}

// APIConfig contains HTTP API settings
type APIConfig struct {
	ListenAddr     string        `yaml:"listen_addr"`
	APIKey         string        `yaml:"api_key"` // Optional key protecting our own API
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
	IdleTimeout    time.Duration `yaml:"idle_timeout"`
	MaxHeaderBytes int           `yaml:"max_header_bytes"`
	Debug          bool          `yaml:"debug"` // Include stack traces in internal error responses
}

// UpstreamConfig contains settings for the email-marketing platform API
type UpstreamConfig struct {
	BaseURL  string        `yaml:"base_url"`
	APIKey   string        `yaml:"api_key"`
	Revision string        `yaml:"revision"`
	Timeout  time.Duration `yaml:"timeout"`
}

// SearchConfig contains pipeline defaults and limits
type SearchConfig struct {
	DefaultDays  int `yaml:"default_days"`
	DefaultLimit int `yaml:"default_limit"`
	MaxLimit     int `yaml:"max_limit"`
	Workers      int `yaml:"workers"` // Concurrent per-campaign enrichment workers
}

// ThemesConfig contains theme extraction settings
type ThemesConfig struct {
	MaxThemes int `yaml:"max_themes"`
	// StopWords replaces the built-in English stop-word set when non-empty
	StopWords []string `yaml:"stop_words"`
	// BannedSubstrings drops any token containing one of these substrings
	BannedSubstrings []string `yaml:"banned_substrings"`
}

// HistoryConfig contains search history storage settings
type HistoryConfig struct {
	Enabled    bool   `yaml:"enabled"`
	Path       string `yaml:"path"`
	MaxEntries int    `yaml:"max_entries"`
}

// MetricsConfig contains Prometheus metrics settings
type MetricsConfig struct {
	Enabled    bool   `yaml:"enabled"`
	ListenAddr string `yaml:"listen_addr"`
	Path       string `yaml:"path"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text or json
}

// Load reads configuration from a YAML file, applies defaults and
// environment overrides, and validates the result. An empty path yields
// a default configuration driven entirely by environment variables.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	cfg.setDefaults()
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func (c *Config) setDefaults() {
	if c.Server.Hostname == "" {
		hostname, _ := os.Hostname()
		c.Server.Hostname = hostname
	}

	if c.API.ListenAddr == "" {
		c.API.ListenAddr = ":8080"
	}
	if c.API.ReadTimeout == 0 {
		c.API.ReadTimeout = 30 * time.Second
	}
	if c.API.WriteTimeout == 0 {
		// Searches fan out to the upstream API; give handlers room
		c.API.WriteTimeout = 120 * time.Second
	}
	if c.API.IdleTimeout == 0 {
		c.API.IdleTimeout = 60 * time.Second
	}
	if c.API.MaxHeaderBytes == 0 {
		c.API.MaxHeaderBytes = 1 << 20 // 1 MB
	}

	if c.Upstream.BaseURL == "" {
		c.Upstream.BaseURL = "https://a.klaviyo.com/api"
	}
	if c.Upstream.Revision == "" {
		c.Upstream.Revision = "2024-10-15"
	}
	if c.Upstream.Timeout == 0 {
		c.Upstream.Timeout = 30 * time.Second
	}

	if c.Search.DefaultDays == 0 {
		c.Search.DefaultDays = 90
	}
	if c.Search.DefaultLimit == 0 {
		c.Search.DefaultLimit = 25
	}
	if c.Search.MaxLimit == 0 {
		c.Search.MaxLimit = 200
	}
	if c.Search.Workers == 0 {
		c.Search.Workers = 4
	}

	if c.Themes.MaxThemes == 0 {
		c.Themes.MaxThemes = 5
	}
	if len(c.Themes.BannedSubstrings) == 0 {
		c.Themes.BannedSubstrings = []string{"klaviyo", "unsubscribe"}
	}

	if c.History.Path == "" {
		c.History.Path = "/var/lib/campsight/history.db"
	}
	if c.History.MaxEntries == 0 {
		c.History.MaxEntries = 1000
	}

	if c.Metrics.ListenAddr == "" {
		c.Metrics.ListenAddr = ":9090"
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}

	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}
}

// applyEnv overrides secrets from the environment so keys can stay out of
// config files.
func (c *Config) applyEnv() {
	if v := os.Getenv("CAMPSIGHT_UPSTREAM_API_KEY"); v != "" {
		c.Upstream.APIKey = v
	}
	if v := os.Getenv("CAMPSIGHT_API_KEY"); v != "" {
		c.API.APIKey = v
	}
}

// Validate checks configuration consistency
func (c *Config) Validate() error {
	if c.Upstream.BaseURL == "" {
		return fmt.Errorf("upstream.base_url is required")
	}

	if c.Search.DefaultDays < 1 {
		return fmt.Errorf("search.default_days must be positive")
	}
	if c.Search.MaxLimit < 1 {
		return fmt.Errorf("search.max_limit must be positive")
	}
	if c.Search.DefaultLimit < 1 || c.Search.DefaultLimit > c.Search.MaxLimit {
		return fmt.Errorf("search.default_limit must be in [1, %d]", c.Search.MaxLimit)
	}
	if c.Search.Workers < 1 {
		return fmt.Errorf("search.workers must be positive")
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("invalid logging.level: %s (must be debug, info, warn, or error)", c.Logging.Level)
	}

	validLogFormats := map[string]bool{"json": true, "text": true}
	if !validLogFormats[c.Logging.Format] {
		return fmt.Errorf("invalid logging.format: %s (must be json or text)", c.Logging.Format)
	}

	return nil
}
