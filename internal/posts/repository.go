package posts

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/goliatone/go-blog/internal/logging"
	"github.com/goliatone/go-blog/internal/markdown"
	"github.com/goliatone/go-blog/pkg/interfaces"
)

// DefaultFeaturedLimit is used by FeaturedPosts when no positive limit is given.
const DefaultFeaturedLimit = 3

// Repository reads posts from an fs.FS holding <slug>.md files. It keeps no
// state between calls and is safe for concurrent use.
type Repository struct {
	fsys          fs.FS
	renderer      interfaces.MarkdownRenderer
	logger        interfaces.Logger
	metrics       *Metrics
	workers       int
	featuredLimit int
}

var _ interfaces.PostRepository = (*Repository)(nil)

// Option configures a Repository.
type Option func(*Repository)

// WithLogger sets the repository logger. Defaults to a no-op logger.
func WithLogger(logger interfaces.Logger) Option {
	return func(r *Repository) {
		r.logger = logging.OrNoOp(logger)
	}
}

// WithRenderer sets the Markdown renderer. Defaults to goldmark with GFM.
func WithRenderer(renderer interfaces.MarkdownRenderer) Option {
	return func(r *Repository) {
		if renderer != nil {
			r.renderer = renderer
		}
	}
}

// WithMetrics records load outcomes on m.
func WithMetrics(m *Metrics) Option {
	return func(r *Repository) {
		r.metrics = m
	}
}

// WithWorkers bounds the number of posts loaded concurrently by listings.
// Values below one fall back to GOMAXPROCS.
func WithWorkers(workers int) Option {
	return func(r *Repository) {
		if workers > 0 {
			r.workers = workers
		}
	}
}

// WithFeaturedLimit sets the default size of FeaturedPosts.
func WithFeaturedLimit(limit int) Option {
	return func(r *Repository) {
		if limit > 0 {
			r.featuredLimit = limit
		}
	}
}

// NewRepository constructs a repository over fsys, whose root is the content
// directory.
func NewRepository(fsys fs.FS, opts ...Option) *Repository {
	r := &Repository{
		fsys:          fsys,
		logger:        logging.NoOp(),
		workers:       runtime.GOMAXPROCS(0),
		featuredLimit: DefaultFeaturedLimit,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	if r.renderer == nil {
		r.renderer = markdown.NewGoldmarkRenderer(interfaces.RenderOptions{})
	}
	return r
}

// NewDirRepository constructs a repository reading the directory dir.
func NewDirRepository(dir string, opts ...Option) *Repository {
	r := NewRepository(os.DirFS(dir), opts...)
	r.logger = logging.WithContentRoot(r.logger, dir)
	return r
}

// Load reads and renders a single post. Errors wrap ErrInvalidSlug,
// ErrPostNotFound, ErrMalformedFrontmatter or ErrRenderFailed, or carry the
// underlying read failure.
func (r *Repository) Load(ctx context.Context, slug string) (*interfaces.Post, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := ValidatePostSlug(slug); err != nil {
		r.metrics.postAbsent(ReasonInvalidSlug)
		return nil, err
	}

	data, err := fs.ReadFile(r.fsys, postFileName(slug))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			r.metrics.postAbsent(ReasonNotFound)
			return nil, fmt.Errorf("%w: %s", ErrPostNotFound, slug)
		}
		r.metrics.postAbsent(ReasonReadError)
		return nil, fmt.Errorf("posts: read %s: %w", slug, err)
	}

	post, reason, err := r.assemble(slug, data)
	if err != nil {
		r.metrics.postAbsent(reason)
		return nil, err
	}
	r.metrics.postLoaded()
	return post, nil
}

func (r *Repository) assemble(slug string, data []byte) (*interfaces.Post, string, error) {
	fm, body, err := markdown.ParseFrontMatter(data)
	if err != nil {
		return nil, ReasonParseError, fmt.Errorf("posts: parse %s: %w", slug, err)
	}

	meta, issues := fm.Metadata()
	logger := logging.WithPostContext(r.logger, slug, meta.Category)
	for _, issue := range issues {
		logger.Warn("posts.frontmatter.field_malformed", "field", issue.Key, "value", issue.Value)
	}

	publishedAt, ok := ParsePublishedAt(meta.Date)
	if !ok && meta.Date != "" {
		logger.Warn("posts.frontmatter.date_unparsable", "date", meta.Date)
	}

	html, err := r.renderer.Render(body)
	if err != nil {
		return nil, ReasonRenderError, fmt.Errorf("%w: %s: %v", ErrRenderFailed, slug, err)
	}

	return &interfaces.Post{
		PostMetadata: meta,
		Slug:         slug,
		Content:      string(html),
		PublishedAt:  publishedAt,
	}, "", nil
}

// LoadPost loads a single post, reporting absent instead of failing. Missing
// posts are logged at debug level, every other failure as a warning.
func (r *Repository) LoadPost(ctx context.Context, slug string) (*interfaces.Post, bool) {
	post, err := r.Load(ctx, slug)
	if err == nil {
		return post, true
	}

	logger := logging.WithPostContext(r.logger, slug, "")
	if errors.Is(err, ErrPostNotFound) {
		logger.Debug("posts.load.not_found")
	} else {
		logger.Warn("posts.load.failed", "error", err)
	}
	return nil, false
}

// ListAllPosts loads every post concurrently and returns them most recent
// first. Posts that fail to load are skipped. It only fails when ctx is done.
func (r *Repository) ListAllPosts(ctx context.Context) ([]*interfaces.Post, error) {
	start := time.Now()
	defer func() { r.metrics.observeList(time.Since(start)) }()

	slugs := r.ListAllSlugs(ctx)
	loaded := make([]*interfaces.Post, len(slugs))

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(r.workers)
	for i, slug := range slugs {
		group.Go(func() error {
			if err := groupCtx.Err(); err != nil {
				return err
			}
			if post, ok := r.LoadPost(groupCtx, slug); ok {
				loaded[i] = post
			}
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	posts := make([]*interfaces.Post, 0, len(loaded))
	for _, post := range loaded {
		if post != nil {
			posts = append(posts, post)
		}
	}
	SortPosts(posts)
	return posts, nil
}

// ListPostsByCategory returns the posts in category name, ignoring case.
func (r *Repository) ListPostsByCategory(ctx context.Context, name string) ([]*interfaces.Post, error) {
	posts, err := r.ListAllPosts(ctx)
	if err != nil {
		return nil, err
	}
	return FilterByCategory(posts, name), nil
}

// ListPostsByCategorySlug returns the posts whose category maps to slug.
func (r *Repository) ListPostsByCategorySlug(ctx context.Context, slug string) ([]*interfaces.Post, error) {
	posts, err := r.ListAllPosts(ctx)
	if err != nil {
		return nil, err
	}
	return FilterByCategorySlug(posts, slug), nil
}

// ListAllCategories returns the distinct category names in date order of
// their first post.
func (r *Repository) ListAllCategories(ctx context.Context) ([]string, error) {
	posts, err := r.ListAllPosts(ctx)
	if err != nil {
		return nil, err
	}
	return Categories(posts), nil
}

// ListAllCategorySlugs returns the distinct category slugs.
func (r *Repository) ListAllCategorySlugs(ctx context.Context) ([]string, error) {
	categories, err := r.ListAllCategories(ctx)
	if err != nil {
		return nil, err
	}
	return CategorySlugs(categories), nil
}

// ResolveCategory maps slug back to the first known category using it.
func (r *Repository) ResolveCategory(ctx context.Context, slug string) (string, bool) {
	categories, err := r.ListAllCategories(ctx)
	if err != nil {
		return "", false
	}
	return ResolveCategorySlug(categories, slug)
}

// FeaturedPosts returns the most recent posts, at most limit of them. A
// non-positive limit uses the configured default.
func (r *Repository) FeaturedPosts(ctx context.Context, limit int) ([]*interfaces.Post, error) {
	if limit <= 0 {
		limit = r.featuredLimit
	}
	posts, err := r.ListAllPosts(ctx)
	if err != nil {
		return nil, err
	}
	return Featured(posts, limit), nil
}
