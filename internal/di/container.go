package di

import (
	"context"
	"fmt"
	"io/fs"
	"os"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/goliatone/go-blog/internal/audit"
	"github.com/goliatone/go-blog/internal/logging"
	"github.com/goliatone/go-blog/internal/logging/console"
	"github.com/goliatone/go-blog/internal/logging/gologger"
	"github.com/goliatone/go-blog/internal/markdown"
	"github.com/goliatone/go-blog/internal/posts"
	"github.com/goliatone/go-blog/internal/runtimeconfig"
	"github.com/goliatone/go-blog/pkg/interfaces"
)

// Container wires module dependencies from a validated configuration.
type Container struct {
	Config runtimeconfig.Config

	loggerProvider interfaces.LoggerProvider
	logger         interfaces.Logger
	renderer       interfaces.MarkdownRenderer
	contentFS      fs.FS
	injectedFS     bool

	registry prometheus.Registerer
	gatherer prometheus.Gatherer
	metrics  *posts.Metrics

	base    *posts.Repository
	cache   *posts.CachedRepository
	repo    interfaces.PostRepository
	watcher *posts.Watcher
	auditor *audit.Auditor
}

// Option mutates the container before it is finalised.
type Option func(*Container)

// WithLoggerProvider overrides the provider built from Config.Logging.
func WithLoggerProvider(provider interfaces.LoggerProvider) Option {
	return func(c *Container) {
		if provider != nil {
			c.loggerProvider = provider
		}
	}
}

// WithRenderer overrides the goldmark renderer built from Config.Markdown.
func WithRenderer(renderer interfaces.MarkdownRenderer) Option {
	return func(c *Container) {
		if renderer != nil {
			c.renderer = renderer
		}
	}
}

// WithContentFS reads posts from fsys instead of Config.ContentDir. The
// watcher only observes Config.ContentDir, so it is not configured for an
// injected filesystem even when Watch.Enabled is set.
func WithContentFS(fsys fs.FS) Option {
	return func(c *Container) {
		if fsys != nil {
			c.contentFS = fsys
			c.injectedFS = true
		}
	}
}

// WithMetricsRegistry registers collectors on reg. It also serves as the
// gatherer when reg implements prometheus.Gatherer.
func WithMetricsRegistry(reg prometheus.Registerer) Option {
	return func(c *Container) {
		if reg == nil {
			return
		}
		c.registry = reg
		if gatherer, ok := reg.(prometheus.Gatherer); ok {
			c.gatherer = gatherer
		}
	}
}

// NewContainer validates cfg and builds the services.
func NewContainer(cfg runtimeconfig.Config, opts ...Option) (*Container, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := &Container{Config: cfg}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}

	if err := c.configureLogging(); err != nil {
		return nil, err
	}
	if err := c.configureMetrics(); err != nil {
		return nil, err
	}
	if err := c.configureRepositories(); err != nil {
		return nil, err
	}
	c.configureWatcher()

	c.logger.Info("blog.container.configured",
		"content_dir", cfg.ContentDir,
		"cache", c.cache != nil,
		"watch", c.watcher != nil,
		"metrics", c.metrics != nil,
	)
	return c, nil
}

func (c *Container) configureLogging() error {
	if c.loggerProvider == nil {
		provider, err := buildLoggerProvider(c.Config.Logging)
		if err != nil {
			return err
		}
		c.loggerProvider = provider
	}
	c.logger = logging.ModuleLogger(c.loggerProvider, "blog")
	return nil
}

func buildLoggerProvider(cfg runtimeconfig.LoggingConfig) (interfaces.LoggerProvider, error) {
	switch runtimeconfig.NormalizeProvider(cfg.Provider) {
	case "gologger":
		provider, err := gologger.NewProvider(gologger.Config{
			Level:     cfg.Level,
			Format:    cfg.Format,
			AddSource: cfg.AddSource,
			Focus:     cfg.Focus,
		})
		if err != nil {
			return nil, fmt.Errorf("di: configure go-logger: %w", err)
		}
		return provider, nil
	default:
		opts := console.Options{Writer: os.Stderr}
		if level, ok := console.ParseLevel(cfg.Level); ok {
			opts.MinLevel = &level
		}
		return console.NewProvider(opts), nil
	}
}

func (c *Container) configureMetrics() error {
	if !c.Config.Metrics.Enabled {
		return nil
	}
	if c.registry == nil {
		reg := prometheus.NewRegistry()
		c.registry = reg
		c.gatherer = reg
	}
	metrics, err := posts.NewMetrics(c.registry, c.Config.Metrics.Namespace)
	if err != nil {
		return fmt.Errorf("di: register metrics: %w", err)
	}
	c.metrics = metrics
	return nil
}

func (c *Container) configureRepositories() error {
	if c.renderer == nil {
		c.renderer = markdown.NewGoldmarkRenderer(c.Config.Markdown)
	}

	postsLogger := logging.PostsLogger(c.loggerProvider)
	repoOpts := []posts.Option{
		posts.WithRenderer(c.renderer),
		posts.WithMetrics(c.metrics),
		posts.WithWorkers(c.Config.Listing.Workers),
		posts.WithFeaturedLimit(c.Config.Listing.FeaturedLimit),
	}
	if c.contentFS != nil {
		c.base = posts.NewRepository(c.contentFS, append(repoOpts, posts.WithLogger(postsLogger))...)
	} else {
		c.contentFS = os.DirFS(c.Config.ContentDir)
		c.base = posts.NewDirRepository(c.Config.ContentDir, append(repoOpts, posts.WithLogger(postsLogger))...)
	}
	c.repo = c.base

	if c.Config.Cache.Enabled {
		c.cache = posts.NewCachedRepository(c.base,
			posts.WithTTL(c.Config.Cache.TTL),
			posts.WithCacheLogger(postsLogger),
			posts.WithCacheFeaturedLimit(c.Config.Listing.FeaturedLimit),
		)
		c.repo = c.cache
	}

	auditor, err := audit.NewAuditor(c.contentFS, audit.WithLogger(logging.AuditLogger(c.loggerProvider)))
	if err != nil {
		return fmt.Errorf("di: configure audit: %w", err)
	}
	c.auditor = auditor
	return nil
}

func (c *Container) configureWatcher() {
	if !c.Config.Watch.Enabled || c.cache == nil {
		return
	}
	if c.injectedFS {
		c.logger.Warn("blog.watch.skipped",
			"reason", "content filesystem injected",
			"content_dir", c.Config.ContentDir,
		)
		return
	}
	cache := c.cache
	c.watcher = posts.NewWatcher(c.Config.ContentDir,
		func([]string) { cache.Invalidate() },
		posts.WithDebounce(c.Config.Watch.Debounce),
		posts.WithWatchLogger(logging.WatchLogger(c.loggerProvider)),
	)
}

// LoggerProvider returns the provider every module logger is drawn from.
func (c *Container) LoggerProvider() interfaces.LoggerProvider {
	return c.loggerProvider
}

// Logger returns the root module logger.
func (c *Container) Logger() interfaces.Logger {
	return c.logger
}

// Renderer returns the markdown renderer used by the repository.
func (c *Container) Renderer() interfaces.MarkdownRenderer {
	return c.renderer
}

// PostRepository returns the repository served to callers, memoized when
// caching is enabled.
func (c *Container) PostRepository() interfaces.PostRepository {
	return c.repo
}

// BaseRepository returns the uncached repository.
func (c *Container) BaseRepository() *posts.Repository {
	return c.base
}

// Cache returns the memoizing repository or nil when caching is disabled.
func (c *Container) Cache() *posts.CachedRepository {
	return c.cache
}

// Watcher returns the content watcher or nil when watching is disabled.
func (c *Container) Watcher() *posts.Watcher {
	return c.watcher
}

// Auditor returns the content auditor.
func (c *Container) Auditor() *audit.Auditor {
	return c.auditor
}

// MetricsGatherer returns the gatherer backing repository metrics, or nil
// when metrics are disabled or the registry cannot be gathered.
func (c *Container) MetricsGatherer() prometheus.Gatherer {
	if c.metrics == nil {
		return nil
	}
	return c.gatherer
}

// Start launches background services. It is a no-op without a watcher.
func (c *Container) Start(ctx context.Context) error {
	if c.watcher == nil {
		return nil
	}
	if err := c.watcher.Start(ctx); err != nil {
		return fmt.Errorf("di: start watcher: %w", err)
	}
	return nil
}

// Close stops background services.
func (c *Container) Close() {
	if c.watcher != nil {
		c.watcher.Stop()
	}
}
