package blog

import "github.com/goliatone/go-blog/internal/runtimeconfig"

var (
	ErrContentDirRequired     = runtimeconfig.ErrContentDirRequired
	ErrMarkdownExtension      = runtimeconfig.ErrMarkdownExtension
	ErrWorkersInvalid         = runtimeconfig.ErrWorkersInvalid
	ErrFeaturedLimitInvalid   = runtimeconfig.ErrFeaturedLimitInvalid
	ErrCacheTTLInvalid        = runtimeconfig.ErrCacheTTLInvalid
	ErrWatchRequiresCache     = runtimeconfig.ErrWatchRequiresCache
	ErrWatchDebounceInvalid   = runtimeconfig.ErrWatchDebounceInvalid
	ErrLoggingProviderUnknown = runtimeconfig.ErrLoggingProviderUnknown
	ErrLoggingLevelInvalid    = runtimeconfig.ErrLoggingLevelInvalid
	ErrLoggingFormatInvalid   = runtimeconfig.ErrLoggingFormatInvalid
	ErrMetricsNamespace       = runtimeconfig.ErrMetricsNamespace
)

type (
	Config        = runtimeconfig.Config
	ListingConfig = runtimeconfig.ListingConfig
	CacheConfig   = runtimeconfig.CacheConfig
	WatchConfig   = runtimeconfig.WatchConfig
	LoggingConfig = runtimeconfig.LoggingConfig
	MetricsConfig = runtimeconfig.MetricsConfig
)

func DefaultConfig() Config {
	return runtimeconfig.DefaultConfig()
}

// LoadConfig reads a YAML configuration file over the defaults.
func LoadConfig(path string) (Config, error) {
	return runtimeconfig.LoadFile(path)
}
