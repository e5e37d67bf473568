// Package config loads and validates crawler configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Portal  PortalConfig  `mapstructure:"portal"`
	Store   StoreConfig   `mapstructure:"store"`
	Storage StorageConfig `mapstructure:"storage"`
	Logging LoggingConfig `mapstructure:"logging"`
	Metrics MetricsConfig `mapstructure:"metrics"`
}

// PortalConfig identifies the target portal deployment and governs how the
// crawl session talks to it.
type PortalConfig struct {
	BaseURL           string `mapstructure:"base_url"`
	ListingPath       string `mapstructure:"listing_path"`
	Council           string `mapstructure:"council"`
	ActorID           string `mapstructure:"actor_id"`
	UserAgent         string `mapstructure:"user_agent"`
	TimeoutSeconds    int    `mapstructure:"timeout_seconds"`
	RequestIntervalMs int    `mapstructure:"request_interval_ms"`
	ResultsPerPage    int    `mapstructure:"results_per_page"`
	ValidatedKeyword  string `mapstructure:"validated_keyword"`
	DecidedKeyword    string `mapstructure:"decided_keyword"`
}

// StoreConfig controls access to the case record store.
type StoreConfig struct {
	Provider   string `mapstructure:"provider"`
	URI        string `mapstructure:"uri"`
	Database   string `mapstructure:"database"`
	Collection string `mapstructure:"collection"`
}

// StorageConfig selects and parameterizes blob persistence.
type StorageConfig struct {
	Provider  string `mapstructure:"provider"`
	GCSBucket string `mapstructure:"gcs_bucket"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("CRAWLER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	// Required keys get empty defaults so environment overrides are seen
	// during Unmarshal.
	v.SetDefault("portal.base_url", "")
	v.SetDefault("portal.council", "")
	v.SetDefault("store.uri", "")
	v.SetDefault("storage.gcs_bucket", "")

	v.SetDefault("portal.listing_path", "/online-applications/search.do?action=weeklyList")
	v.SetDefault("portal.actor_id", "6539157ef8be4d62ea02ed6b")
	v.SetDefault("portal.user_agent", "planportal-crawler/0.1")
	v.SetDefault("portal.timeout_seconds", 30)
	v.SetDefault("portal.request_interval_ms", 1000)
	v.SetDefault("portal.results_per_page", 100)
	v.SetDefault("portal.validated_keyword", "DC_Validated")
	v.SetDefault("portal.decided_keyword", "DC_Decided")
	v.SetDefault("store.provider", "mongo")
	v.SetDefault("store.database", "planning")
	v.SetDefault("store.collection", "cases")
	v.SetDefault("storage.provider", "gcs")
	v.SetDefault("logging.development", true)
	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.addr", ":9090")
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Portal.BaseURL == "" {
		return fmt.Errorf("portal.base_url must be set")
	}
	if c.Portal.Council == "" {
		return fmt.Errorf("portal.council must be set")
	}
	if c.Portal.TimeoutSeconds <= 0 {
		return fmt.Errorf("portal.timeout_seconds must be > 0")
	}
	if c.Portal.ResultsPerPage <= 0 {
		return fmt.Errorf("portal.results_per_page must be > 0")
	}
	switch c.Store.Provider {
	case "mongo":
		if c.Store.URI == "" {
			return fmt.Errorf("store.uri must be set when store.provider is mongo")
		}
	case "memory":
	default:
		return fmt.Errorf("store.provider must be mongo or memory, got %q", c.Store.Provider)
	}
	switch c.Storage.Provider {
	case "gcs":
		if c.Storage.GCSBucket == "" {
			return fmt.Errorf("storage.gcs_bucket must be set when storage.provider is gcs")
		}
	case "memory":
	default:
		return fmt.Errorf("storage.provider must be gcs or memory, got %q", c.Storage.Provider)
	}
	if c.Metrics.Enabled && c.Metrics.Addr == "" {
		return fmt.Errorf("metrics.addr must be set when metrics are enabled")
	}
	return nil
}

// RequestTimeout converts the configured portal timeout into a duration.
func (c Config) RequestTimeout() time.Duration {
	return time.Duration(c.Portal.TimeoutSeconds) * time.Second
}

// RequestInterval converts the configured pacing interval into a duration.
// Zero disables pacing.
func (c Config) RequestInterval() time.Duration {
	return time.Duration(c.Portal.RequestIntervalMs) * time.Millisecond
}
