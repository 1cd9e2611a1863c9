package runtimeconfig

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-blog/internal/markdown"
	"github.com/goliatone/go-blog/pkg/interfaces"
)

var (
	ErrContentDirRequired     = errors.New("blog config: content directory is required")
	ErrMarkdownExtension      = errors.New("blog config: markdown extension is unknown")
	ErrWorkersInvalid         = errors.New("blog config: listing workers must be zero or positive")
	ErrFeaturedLimitInvalid   = errors.New("blog config: featured limit must be positive")
	ErrCacheTTLInvalid        = errors.New("blog config: cache ttl must be zero or positive")
	ErrWatchRequiresCache     = errors.New("blog config: watching content requires the cache to be enabled")
	ErrWatchDebounceInvalid   = errors.New("blog config: watch debounce must be positive")
	ErrLoggingProviderUnknown = errors.New("blog config: logging provider is invalid")
	ErrLoggingLevelInvalid    = errors.New("blog config: logging level is invalid")
	ErrLoggingFormatInvalid   = errors.New("blog config: logging format is invalid")
	ErrMetricsNamespace       = errors.New("blog config: metrics namespace is required when metrics are enabled")
)

// Config aggregates the settings of the blog runtime. Zero values of
// optional sections keep the defaults applied by DefaultConfig.
type Config struct {
	ContentDir string                   `yaml:"content_dir"`
	Markdown   interfaces.RenderOptions `yaml:"markdown"`
	Listing    ListingConfig            `yaml:"listing"`
	Cache      CacheConfig              `yaml:"cache"`
	Watch      WatchConfig              `yaml:"watch"`
	Logging    LoggingConfig            `yaml:"logging"`
	Metrics    MetricsConfig            `yaml:"metrics"`
}

// ListingConfig tunes aggregate listings.
type ListingConfig struct {
	// Workers bounds concurrent post loads. Zero uses GOMAXPROCS.
	Workers int `yaml:"workers"`
	// FeaturedLimit is the default size of the featured listing.
	FeaturedLimit int `yaml:"featured_limit"`
}

// CacheConfig controls the memoizing repository.
type CacheConfig struct {
	Enabled bool `yaml:"enabled"`
	// TTL expires cached listings. Zero keeps them until invalidated.
	TTL time.Duration `yaml:"ttl"`
}

// WatchConfig controls content directory watching.
type WatchConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Debounce time.Duration `yaml:"debounce"`
}

// LoggingConfig captures provider-specific options for runtime logging.
type LoggingConfig struct {
	Provider  string   `yaml:"provider"`
	Level     string   `yaml:"level"`
	Format    string   `yaml:"format"`
	AddSource bool     `yaml:"add_source"`
	Focus     []string `yaml:"focus"`
}

// MetricsConfig controls Prometheus collectors.
type MetricsConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Namespace string `yaml:"namespace"`
}

// DefaultConfig returns the settings used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		ContentDir: "content/posts",
		Listing: ListingConfig{
			FeaturedLimit: 3,
		},
		Watch: WatchConfig{
			Debounce: 250 * time.Millisecond,
		},
		Logging: LoggingConfig{
			Provider: "console",
			Level:    "info",
		},
		Metrics: MetricsConfig{
			Namespace: "blog",
		},
	}
}

// LoadFile reads a YAML file over DefaultConfig. Keys absent from the file
// keep their default values.
func LoadFile(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("blog config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("blog config: parse %s: %w", path, err)
	}
	return cfg, nil
}

// Validate performs consistency checks.
func (cfg Config) Validate() error {
	if strings.TrimSpace(cfg.ContentDir) == "" {
		return ErrContentDirRequired
	}
	for _, name := range cfg.Markdown.Extensions {
		if !markdown.KnownExtension(name) {
			return fmt.Errorf("%w: %s", ErrMarkdownExtension, name)
		}
	}
	if cfg.Listing.Workers < 0 {
		return ErrWorkersInvalid
	}
	if cfg.Listing.FeaturedLimit <= 0 {
		return ErrFeaturedLimitInvalid
	}
	if cfg.Cache.TTL < 0 {
		return ErrCacheTTLInvalid
	}
	if cfg.Watch.Enabled {
		if !cfg.Cache.Enabled {
			return ErrWatchRequiresCache
		}
		if cfg.Watch.Debounce <= 0 {
			return ErrWatchDebounceInvalid
		}
	}
	provider := NormalizeProvider(cfg.Logging.Provider)
	if !isSupportedProvider(provider) {
		return fmt.Errorf("%w: %s", ErrLoggingProviderUnknown, cfg.Logging.Provider)
	}
	if level := strings.TrimSpace(cfg.Logging.Level); level != "" && !isSupportedLevel(level) {
		return fmt.Errorf("%w: %s", ErrLoggingLevelInvalid, level)
	}
	if provider == "gologger" {
		if format := strings.TrimSpace(cfg.Logging.Format); format != "" && !isSupportedFormat(format) {
			return fmt.Errorf("%w: %s", ErrLoggingFormatInvalid, format)
		}
	}
	if cfg.Metrics.Enabled && strings.TrimSpace(cfg.Metrics.Namespace) == "" {
		return ErrMetricsNamespace
	}
	return nil
}

// NormalizeProvider lower-cases provider, treating empty as "console".
func NormalizeProvider(provider string) string {
	provider = strings.ToLower(strings.TrimSpace(provider))
	if provider == "" {
		return "console"
	}
	return provider
}

func isSupportedProvider(provider string) bool {
	switch provider {
	case "console", "gologger":
		return true
	default:
		return false
	}
}

func isSupportedLevel(level string) bool {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal":
		return true
	default:
		return false
	}
}

func isSupportedFormat(format string) bool {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "json", "console", "pretty":
		return true
	default:
		return false
	}
}
