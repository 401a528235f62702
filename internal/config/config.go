package config

import (
	"embed"
	"fmt"
	"os"
	"sort"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed states.yaml
var defaultYAML embed.FS

// ConnectionConfig holds the global HTTP defaults applied when a state has no
// override of its own.
type ConnectionConfig struct {
	TimeoutMillis     int64  `yaml:"timeout_millis"`
	ReadTimeoutMillis int64  `yaml:"read_timeout_millis"`
	UserAgent         string `yaml:"user_agent"`
	MaxRetries        int    `yaml:"max_retries"`
	RetryDelayMillis  int64  `yaml:"retry_delay_millis"`
	MaxConcurrent     int    `yaml:"max_concurrent_extractions"`
}

// CacheConfig holds the extraction-result cache defaults.
type CacheConfig struct {
	Enabled              bool             `yaml:"enabled"`
	TTLMinutes           int64            `yaml:"ttl_minutes"`
	MaxSize              int              `yaml:"max_size"`
	CleanupIntervalHours int              `yaml:"cleanup_interval_hours"`
	StateTTLMinutes      map[string]int64 `yaml:"state_ttl_minutes,omitempty"`
}

// TTLForState returns the per-state TTL override, or the global default.
func (c CacheConfig) TTLForState(stateCode string) time.Duration {
	minutes := c.TTLMinutes
	if v, ok := c.StateTTLMinutes[stateCode]; ok {
		minutes = v
	}
	return time.Duration(minutes) * time.Minute
}

// StateConfig is the static per-state source configuration. It is loaded once
// at startup and read-only afterwards.
type StateConfig struct {
	Enabled           bool              `yaml:"enabled"`
	Priority          int               `yaml:"priority"`
	SourceURL         string            `yaml:"source_url,omitempty"`
	FallbackURLs      []string          `yaml:"fallback_urls,omitempty"`
	CustomTimeout     int64             `yaml:"custom_timeout_millis,omitempty"`
	CustomReadTimeout int64             `yaml:"custom_read_timeout_millis,omitempty"`
	CustomMaxRetries  int               `yaml:"custom_max_retries,omitempty"`
	CustomHeaders     map[string]string `yaml:"custom_headers,omitempty"`
	ForceCache        bool              `yaml:"force_cache,omitempty"`
	CustomCacheTTL    int64             `yaml:"custom_cache_ttl_minutes,omitempty"`
}

// Config is the full library configuration: global connection defaults, cache
// policy, and the per-state source registry.
type Config struct {
	Connection ConnectionConfig        `yaml:"connection"`
	Cache      CacheConfig             `yaml:"cache"`
	States     map[string]*StateConfig `yaml:"states"`
}

// Load reads configuration from the given path, falling back to the embedded
// defaults when the path is empty or unreadable. Environment variables inside
// the YAML (e.g. ${CBENEF_SC_URL}) are expanded before parsing.
func Load(path string) (*Config, error) {
	var data []byte
	var err error

	if path != "" {
		data, err = os.ReadFile(path)
	}
	if path == "" || err != nil {
		data, err = defaultYAML.ReadFile("states.yaml")
		if err != nil {
			return nil, err
		}
	}

	expanded := os.ExpandEnv(string(data))

	cfg := Default()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

// Default returns the built-in configuration before any YAML is applied.
func Default() *Config {
	return &Config{
		Connection: ConnectionConfig{
			TimeoutMillis:     30000,
			ReadTimeoutMillis: 60000,
			UserAgent:         "CBenef-Go/1.0",
			MaxRetries:        3,
			RetryDelayMillis:  1000,
			MaxConcurrent:     3,
		},
		Cache: CacheConfig{
			Enabled:              false,
			TTLMinutes:           1440,
			MaxSize:              1000,
			CleanupIntervalHours: 1,
		},
		States: map[string]*StateConfig{},
	}
}

// EnabledStates lists the states with extraction enabled, sorted by code.
func (c *Config) EnabledStates() []string {
	var out []string
	for code, sc := range c.States {
		if sc.Enabled {
			out = append(out, code)
		}
	}
	sort.Strings(out)
	return out
}

// IsStateEnabled reports whether extraction is enabled for the state.
func (c *Config) IsStateEnabled(stateCode string) bool {
	sc := c.States[stateCode]
	return sc != nil && sc.Enabled
}

// SourceURL returns the primary document URL for the state, or "".
func (c *Config) SourceURL(stateCode string) string {
	if sc := c.States[stateCode]; sc != nil {
		return sc.SourceURL
	}
	return ""
}

// FallbackURLs returns the ordered alternate URLs for the state.
func (c *Config) FallbackURLs(stateCode string) []string {
	if sc := c.States[stateCode]; sc != nil {
		return sc.FallbackURLs
	}
	return nil
}

// ConnectionTimeout resolves the connect timeout for the state.
func (c *Config) ConnectionTimeout(stateCode string) time.Duration {
	if sc := c.States[stateCode]; sc != nil && sc.CustomTimeout > 0 {
		return time.Duration(sc.CustomTimeout) * time.Millisecond
	}
	return time.Duration(c.Connection.TimeoutMillis) * time.Millisecond
}

// ReadTimeout resolves the read timeout for the state.
func (c *Config) ReadTimeout(stateCode string) time.Duration {
	if sc := c.States[stateCode]; sc != nil && sc.CustomReadTimeout > 0 {
		return time.Duration(sc.CustomReadTimeout) * time.Millisecond
	}
	return time.Duration(c.Connection.ReadTimeoutMillis) * time.Millisecond
}

// MaxRetries resolves the retry budget for the state.
func (c *Config) MaxRetries(stateCode string) int {
	if sc := c.States[stateCode]; sc != nil && sc.CustomMaxRetries > 0 {
		return sc.CustomMaxRetries
	}
	return c.Connection.MaxRetries
}

// RetryDelay is the base delay of the linear backoff between attempts.
func (c *Config) RetryDelay() time.Duration {
	return time.Duration(c.Connection.RetryDelayMillis) * time.Millisecond
}

// CustomHeaders returns the extra request headers configured for the state.
func (c *Config) CustomHeaders(stateCode string) map[string]string {
	if sc := c.States[stateCode]; sc != nil {
		return sc.CustomHeaders
	}
	return nil
}

// Priority returns the state's configured rank; unconfigured states sort last.
func (c *Config) Priority(stateCode string) int {
	if sc := c.States[stateCode]; sc != nil {
		return sc.Priority
	}
	return 99
}

// CacheEnabledFor reports whether results for the state should be cached,
// honoring the per-state force_cache override.
func (c *Config) CacheEnabledFor(stateCode string) bool {
	if c.Cache.Enabled {
		return true
	}
	sc := c.States[stateCode]
	return sc != nil && sc.ForceCache
}

// CacheTTLFor resolves the cache TTL for the state: per-state override first,
// then the per-state map in the cache section, then the global default.
func (c *Config) CacheTTLFor(stateCode string) time.Duration {
	if sc := c.States[stateCode]; sc != nil && sc.CustomCacheTTL > 0 {
		return time.Duration(sc.CustomCacheTTL) * time.Minute
	}
	return c.Cache.TTLForState(stateCode)
}
