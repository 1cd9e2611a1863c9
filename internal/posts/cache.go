package posts

import (
	"context"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/goliatone/go-blog/internal/logging"
	"github.com/goliatone/go-blog/pkg/interfaces"
)

// CachedRepository memoizes a PostRepository. The sorted listing, the slug
// list and single posts are kept until they expire or Invalidate is called.
// Concurrent rebuilds of the same entry share one call to the wrapped
// repository. Posts handed out are copies of the cached values.
type CachedRepository struct {
	base          interfaces.PostRepository
	ttl           time.Duration
	now           func() time.Time
	logger        interfaces.Logger
	featuredLimit int

	mu         sync.RWMutex
	generation uint64
	listing    *cacheEntry[[]*interfaces.Post]
	slugs      *cacheEntry[[]string]
	loaded     map[string]cacheEntry[*interfaces.Post]

	group singleflight.Group
}

var _ interfaces.PostRepository = (*CachedRepository)(nil)

type cacheEntry[T any] struct {
	value   T
	expires time.Time
}

// CacheOption configures a CachedRepository.
type CacheOption func(*CachedRepository)

// WithTTL expires entries after ttl. Zero keeps them until Invalidate.
func WithTTL(ttl time.Duration) CacheOption {
	return func(c *CachedRepository) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithCacheClock overrides the clock used for expiry.
func WithCacheClock(now func() time.Time) CacheOption {
	return func(c *CachedRepository) {
		if now != nil {
			c.now = now
		}
	}
}

// WithCacheLogger sets the logger used for cache events.
func WithCacheLogger(logger interfaces.Logger) CacheOption {
	return func(c *CachedRepository) {
		c.logger = logging.OrNoOp(logger)
	}
}

// WithCacheFeaturedLimit sets the default size of FeaturedPosts.
func WithCacheFeaturedLimit(limit int) CacheOption {
	return func(c *CachedRepository) {
		if limit > 0 {
			c.featuredLimit = limit
		}
	}
}

// NewCachedRepository wraps base.
func NewCachedRepository(base interfaces.PostRepository, opts ...CacheOption) *CachedRepository {
	c := &CachedRepository{
		base:          base,
		now:           time.Now,
		logger:        logging.NoOp(),
		featuredLimit: DefaultFeaturedLimit,
		loaded:        map[string]cacheEntry[*interfaces.Post]{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// Invalidate drops every cached entry. Rebuilds already in flight are not
// stored.
func (c *CachedRepository) Invalidate() {
	c.mu.Lock()
	c.generation++
	c.listing = nil
	c.slugs = nil
	c.loaded = map[string]cacheEntry[*interfaces.Post]{}
	c.mu.Unlock()
	c.logger.Debug("posts.cache.invalidated")
}

// ListAllSlugs returns the memoized slug list.
func (c *CachedRepository) ListAllSlugs(ctx context.Context) []string {
	c.mu.RLock()
	if c.slugs != nil && c.fresh(c.slugs.expires) {
		slugs := c.slugs.value
		c.mu.RUnlock()
		return append([]string{}, slugs...)
	}
	gen := c.generation
	c.mu.RUnlock()

	value, _, err := c.share(ctx, c.key("slugs", gen), func(ctx context.Context) (any, error) {
		slugs := c.base.ListAllSlugs(ctx)
		c.store(gen, func() {
			c.slugs = &cacheEntry[[]string]{value: slugs, expires: c.expiry()}
		})
		return slugs, nil
	})
	if err != nil {
		return []string{}
	}
	slugs, _ := value.([]string)
	return append([]string{}, slugs...)
}

// LoadPost returns a cached copy of the post, loading it on a miss. Absent
// results are not cached.
func (c *CachedRepository) LoadPost(ctx context.Context, slug string) (*interfaces.Post, bool) {
	c.mu.RLock()
	if entry, ok := c.loaded[slug]; ok && c.fresh(entry.expires) {
		c.mu.RUnlock()
		return entry.value.Clone(), true
	}
	if c.listing != nil && c.fresh(c.listing.expires) {
		for _, post := range c.listing.value {
			if post.Slug == slug {
				c.mu.RUnlock()
				return post.Clone(), true
			}
		}
	}
	gen := c.generation
	c.mu.RUnlock()

	value, _, err := c.share(ctx, c.key("post:"+slug, gen), func(ctx context.Context) (any, error) {
		post, ok := c.base.LoadPost(ctx, slug)
		if !ok {
			return (*interfaces.Post)(nil), nil
		}
		c.store(gen, func() {
			c.loaded[slug] = cacheEntry[*interfaces.Post]{value: post, expires: c.expiry()}
		})
		return post, nil
	})
	post, _ := value.(*interfaces.Post)
	if err != nil || post == nil {
		return nil, false
	}
	return post.Clone(), true
}

// ListAllPosts returns copies of the memoized listing.
func (c *CachedRepository) ListAllPosts(ctx context.Context) ([]*interfaces.Post, error) {
	posts, err := c.allPosts(ctx)
	if err != nil {
		return nil, err
	}
	return clonePosts(posts), nil
}

// ListPostsByCategory filters the memoized listing by category name.
func (c *CachedRepository) ListPostsByCategory(ctx context.Context, name string) ([]*interfaces.Post, error) {
	posts, err := c.allPosts(ctx)
	if err != nil {
		return nil, err
	}
	return clonePosts(FilterByCategory(posts, name)), nil
}

// ListPostsByCategorySlug filters the memoized listing by category slug.
func (c *CachedRepository) ListPostsByCategorySlug(ctx context.Context, slug string) ([]*interfaces.Post, error) {
	posts, err := c.allPosts(ctx)
	if err != nil {
		return nil, err
	}
	return clonePosts(FilterByCategorySlug(posts, slug)), nil
}

// ListAllCategories derives categories from the memoized listing.
func (c *CachedRepository) ListAllCategories(ctx context.Context) ([]string, error) {
	posts, err := c.allPosts(ctx)
	if err != nil {
		return nil, err
	}
	return Categories(posts), nil
}

// ListAllCategorySlugs derives category slugs from the memoized listing.
func (c *CachedRepository) ListAllCategorySlugs(ctx context.Context) ([]string, error) {
	categories, err := c.ListAllCategories(ctx)
	if err != nil {
		return nil, err
	}
	return CategorySlugs(categories), nil
}

// ResolveCategory maps slug to a category name using the memoized listing.
func (c *CachedRepository) ResolveCategory(ctx context.Context, slug string) (string, bool) {
	categories, err := c.ListAllCategories(ctx)
	if err != nil {
		return "", false
	}
	return ResolveCategorySlug(categories, slug)
}

// FeaturedPosts returns the head of the memoized listing.
func (c *CachedRepository) FeaturedPosts(ctx context.Context, limit int) ([]*interfaces.Post, error) {
	if limit <= 0 {
		limit = c.featuredLimit
	}
	posts, err := c.allPosts(ctx)
	if err != nil {
		return nil, err
	}
	return clonePosts(Featured(posts, limit)), nil
}

func (c *CachedRepository) allPosts(ctx context.Context) ([]*interfaces.Post, error) {
	c.mu.RLock()
	if c.listing != nil && c.fresh(c.listing.expires) {
		posts := c.listing.value
		c.mu.RUnlock()
		return posts, nil
	}
	gen := c.generation
	c.mu.RUnlock()

	value, shared, err := c.share(ctx, c.key("posts", gen), func(ctx context.Context) (any, error) {
		posts, err := c.base.ListAllPosts(ctx)
		if err != nil {
			return nil, err
		}
		c.store(gen, func() {
			c.listing = &cacheEntry[[]*interfaces.Post]{value: posts, expires: c.expiry()}
		})
		c.logger.Debug("posts.cache.rebuilt", "posts", len(posts))
		return posts, nil
	})
	if err != nil {
		return nil, err
	}
	if shared {
		c.logger.Trace("posts.cache.rebuild_shared")
	}
	posts, _ := value.([]*interfaces.Post)
	return posts, nil
}

// share runs fn once per key for all concurrent callers. fn receives a
// context that keeps ctx's values but not its cancellation, so one caller
// giving up does not fail the others; each caller stops waiting when its own
// ctx is done.
func (c *CachedRepository) share(ctx context.Context, key string, fn func(context.Context) (any, error)) (any, bool, error) {
	detached := context.WithoutCancel(ctx)
	ch := c.group.DoChan(key, func() (any, error) {
		return fn(detached)
	})
	select {
	case <-ctx.Done():
		return nil, false, ctx.Err()
	case res := <-ch:
		return res.Val, res.Shared, res.Err
	}
}

// store applies fn under the write lock unless the cache was invalidated
// after gen was read.
func (c *CachedRepository) store(gen uint64, fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.generation != gen {
		return
	}
	fn()
}

func (c *CachedRepository) key(name string, gen uint64) string {
	return strconv.FormatUint(gen, 10) + ":" + name
}

func (c *CachedRepository) expiry() time.Time {
	if c.ttl <= 0 {
		return time.Time{}
	}
	return c.now().Add(c.ttl)
}

func (c *CachedRepository) fresh(expires time.Time) bool {
	return expires.IsZero() || c.now().Before(expires)
}

func clonePosts(posts []*interfaces.Post) []*interfaces.Post {
	out := make([]*interfaces.Post, len(posts))
	for i, post := range posts {
		out[i] = post.Clone()
	}
	return out
}
