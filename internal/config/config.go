// Package config loads freightdash settings from YAML files and the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/rshade/freightdash/internal/cache"
	"github.com/rshade/freightdash/internal/drill"
	"github.com/rshade/freightdash/internal/pagination"
)

// Defaults.
const (
	DefaultModule           = "outstanding"
	DefaultTimeout          = "15s"
	DefaultBackCacheTTL     = "5m"
	DefaultBackCacheEntries = 64
	DefaultSnapshotTTL      = "24h"
	DefaultLocale           = "en-IN"
	DefaultCurrency         = "INR"

	// FixturesDemo selects the embedded demo dataset.
	FixturesDemo = "demo"

	dirName    = ".freightdash"
	configFile = "config.yaml"
)

// Config is the complete freightdash configuration.
type Config struct {
	Gateway    GatewayConfig    `yaml:"gateway"    json:"gateway"`
	Dashboard  DashboardConfig  `yaml:"dashboard"  json:"dashboard"`
	Navigation NavigationConfig `yaml:"navigation" json:"navigation"`
	Logging    LoggingConfig    `yaml:"logging"    json:"logging"`

	// path is the file the config was loaded from, if any.
	path string
}

// GatewayConfig selects where level data comes from. When URL is empty the
// fixture dataset is used.
type GatewayConfig struct {
	URL      string `yaml:"url,omitempty"      json:"url,omitempty"`
	Token    string `yaml:"token,omitempty"    json:"-"`
	Timeout  string `yaml:"timeout,omitempty"  json:"timeout,omitempty"`
	Fixtures string `yaml:"fixtures,omitempty" json:"fixtures,omitempty"`

	// Latency delays fixture responses, to make loading states visible.
	Latency string `yaml:"latency,omitempty" json:"latency,omitempty"`
}

// DashboardConfig holds presentation settings.
type DashboardConfig struct {
	DefaultModule    string `yaml:"default_module"     json:"default_module"`
	DefaultView      string `yaml:"default_view"       json:"default_view"`
	PageSize         int    `yaml:"page_size"          json:"page_size"`
	BackCacheTTL     string `yaml:"back_cache_ttl"     json:"back_cache_ttl"`
	BackCacheEntries int    `yaml:"back_cache_entries" json:"back_cache_entries"`
	Locale           string `yaml:"locale"             json:"locale"`
	Currency         string `yaml:"currency"           json:"currency"`
}

// NavigationConfig controls where resumable positions are kept.
type NavigationConfig struct {
	StateDir    string `yaml:"state_dir,omitempty" json:"state_dir,omitempty"`
	SnapshotTTL string `yaml:"snapshot_ttl"        json:"snapshot_ttl"`
}

// LoggingConfig mirrors logging.Config in YAML form.
type LoggingConfig struct {
	Level  string `yaml:"level"            json:"level"`
	Format string `yaml:"format"           json:"format"`
	Output string `yaml:"output"           json:"output"`
	File   string `yaml:"file,omitempty"   json:"file,omitempty"`
	Caller bool   `yaml:"caller,omitempty" json:"caller,omitempty"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Gateway: GatewayConfig{
			Timeout:  DefaultTimeout,
			Fixtures: FixturesDemo,
		},
		Dashboard: DashboardConfig{
			DefaultModule:    DefaultModule,
			DefaultView:      drill.ViewSummary,
			PageSize:         pagination.DefaultPageSize,
			BackCacheTTL:     DefaultBackCacheTTL,
			BackCacheEntries: DefaultBackCacheEntries,
			Locale:           DefaultLocale,
			Currency:         DefaultCurrency,
		},
		Navigation: NavigationConfig{
			SnapshotTTL: DefaultSnapshotTTL,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
			Output: "stderr",
		},
	}
}

// fillDefaults sets fields left empty by a section overlay.
func (c *Config) fillDefaults() {
	d := Default()
	if c.Gateway.Timeout == "" {
		c.Gateway.Timeout = d.Gateway.Timeout
	}
	if c.Gateway.Fixtures == "" {
		c.Gateway.Fixtures = d.Gateway.Fixtures
	}
	if c.Dashboard.DefaultModule == "" {
		c.Dashboard.DefaultModule = d.Dashboard.DefaultModule
	}
	if c.Dashboard.DefaultView == "" {
		c.Dashboard.DefaultView = d.Dashboard.DefaultView
	}
	if c.Dashboard.PageSize == 0 {
		c.Dashboard.PageSize = d.Dashboard.PageSize
	}
	if c.Dashboard.BackCacheTTL == "" {
		c.Dashboard.BackCacheTTL = d.Dashboard.BackCacheTTL
	}
	if c.Dashboard.BackCacheEntries == 0 {
		c.Dashboard.BackCacheEntries = d.Dashboard.BackCacheEntries
	}
	if c.Dashboard.Locale == "" {
		c.Dashboard.Locale = d.Dashboard.Locale
	}
	if c.Navigation.SnapshotTTL == "" {
		c.Navigation.SnapshotTTL = d.Navigation.SnapshotTTL
	}
	if c.Logging.Level == "" {
		c.Logging.Level = d.Logging.Level
	}
	if c.Logging.Format == "" {
		c.Logging.Format = d.Logging.Format
	}
	if c.Logging.Output == "" {
		c.Logging.Output = d.Logging.Output
	}
}

// Dir returns the user config directory: $FREIGHTDASH_HOME or ~/.freightdash.
func Dir() string {
	if home := os.Getenv(EnvHome); home != "" {
		return home
	}
	userHome, err := os.UserHomeDir()
	if err != nil || userHome == "" {
		return filepath.Join(os.TempDir(), dirName)
	}
	return filepath.Join(userHome, dirName)
}

// DefaultPath is the user config file.
func DefaultPath() string {
	return filepath.Join(Dir(), configFile)
}

// New loads the user config file over the defaults and applies environment
// overrides. A missing or unreadable file leaves the defaults in place.
func New() *Config {
	cfg := Default()
	if _, err := os.Stat(DefaultPath()); err == nil {
		if mergeErr := ShallowMergeYAML(cfg, DefaultPath()); mergeErr == nil {
			cfg.path = DefaultPath()
		}
	}
	cfg.fillDefaults()
	cfg.ApplyEnv()
	return cfg
}

// Load reads path over the defaults and applies environment overrides.
// Unlike New, a missing or invalid file is an error.
func Load(path string) (*Config, error) {
	cfg := Default()
	if err := ShallowMergeYAML(cfg, path); err != nil {
		return nil, err
	}
	cfg.path = path
	cfg.fillDefaults()
	cfg.ApplyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Path returns the file the config was loaded from, or "".
func (c *Config) Path() string {
	return c.path
}

// Save writes the config to path atomically.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err = os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	tmp := path + ".tmp"
	if err = os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	if err = os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replacing config: %w", err)
	}
	return nil
}

// Validate checks durations, view names and sizes.
func (c *Config) Validate() error {
	var errs []error
	if _, err := c.Gateway.TimeoutDuration(); err != nil {
		errs = append(errs, fmt.Errorf("gateway.timeout: %w", err))
	}
	if _, err := c.Gateway.LatencyDuration(); err != nil {
		errs = append(errs, fmt.Errorf("gateway.latency: %w", err))
	}
	if c.Gateway.URL != "" && !strings.HasPrefix(c.Gateway.URL, "http://") &&
		!strings.HasPrefix(c.Gateway.URL, "https://") {
		errs = append(errs, fmt.Errorf("gateway.url: must be http or https, got %q", c.Gateway.URL))
	}
	if _, err := c.Dashboard.BackCacheDuration(); err != nil {
		errs = append(errs, fmt.Errorf("dashboard.back_cache_ttl: %w", err))
	}
	if _, err := c.Navigation.SnapshotDuration(); err != nil {
		errs = append(errs, fmt.Errorf("navigation.snapshot_ttl: %w", err))
	}
	if v := c.Dashboard.DefaultView; v != drill.ViewSummary && v != drill.ViewDetail {
		errs = append(errs, fmt.Errorf("dashboard.default_view: must be summary or detail, got %q", v))
	}
	if c.Dashboard.PageSize < pagination.MinPageSize || c.Dashboard.PageSize > pagination.MaxPageSize {
		errs = append(errs, fmt.Errorf("dashboard.page_size: %w", pagination.ErrInvalidPageSize))
	}
	return errors.Join(errs...)
}

// TimeoutDuration parses Timeout.
func (g GatewayConfig) TimeoutDuration() (time.Duration, error) {
	if g.Timeout == "" {
		return cache.ParseTTL(DefaultTimeout)
	}
	return cache.ParseTTL(g.Timeout)
}

// LatencyDuration parses Latency; empty means none.
func (g GatewayConfig) LatencyDuration() (time.Duration, error) {
	if g.Latency == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(g.Latency)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("negative latency %s", d)
	}
	return d, nil
}

// UsesFixtures reports whether data comes from the fixture dataset.
func (g GatewayConfig) UsesFixtures() bool {
	return g.URL == ""
}

// BackCacheDuration parses BackCacheTTL.
func (d DashboardConfig) BackCacheDuration() (time.Duration, error) {
	if d.BackCacheTTL == "" {
		return cache.ParseTTL(DefaultBackCacheTTL)
	}
	return cache.ParseTTL(d.BackCacheTTL)
}

// SnapshotDuration parses SnapshotTTL.
func (n NavigationConfig) SnapshotDuration() (time.Duration, error) {
	if n.SnapshotTTL == "" {
		return cache.ParseTTL(DefaultSnapshotTTL)
	}
	return cache.ParseTTL(n.SnapshotTTL)
}

// StateDirectory returns where navigation state is stored.
func (n NavigationConfig) StateDirectory() string {
	if n.StateDir != "" {
		return n.StateDir
	}
	return filepath.Join(Dir(), "state")
}

//nolint:gochecknoglobals // Process-wide config, set once by the CLI.
var (
	globalConfig *Config
	globalMu     sync.RWMutex
)

// GetGlobalConfig returns the process config, loading it on first use.
func GetGlobalConfig() *Config {
	globalMu.RLock()
	cfg := globalConfig
	globalMu.RUnlock()
	if cfg != nil {
		return cfg
	}

	globalMu.Lock()
	defer globalMu.Unlock()
	if globalConfig == nil {
		globalConfig = New()
	}
	return globalConfig
}

// SetGlobalConfig replaces the process config.
func SetGlobalConfig(cfg *Config) {
	globalMu.Lock()
	defer globalMu.Unlock()
	globalConfig = cfg
}
