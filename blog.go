package blog

import (
	"context"

	"github.com/goliatone/go-blog/internal/audit"
	"github.com/goliatone/go-blog/internal/di"
	"github.com/goliatone/go-blog/internal/excerpt"
	"github.com/goliatone/go-blog/internal/posts"
	"github.com/goliatone/go-blog/pkg/interfaces"
)

// Post exports the post record served to page renderers.
type Post = interfaces.Post

// PostMetadata exports the frontmatter attributes of a post.
type PostMetadata = interfaces.PostMetadata

// PostRepository exports the content store contract.
type PostRepository = interfaces.PostRepository

// RenderOptions exports the markdown rendering options.
type RenderOptions = interfaces.RenderOptions

// SortOption exports the listing orderings accepted by SortPosts.
type SortOption = posts.SortOption

// Listing orderings.
const (
	SortDateDesc  = posts.SortDateDesc
	SortDateAsc   = posts.SortDateAsc
	SortTitleAsc  = posts.SortTitleAsc
	SortTitleDesc = posts.SortTitleDesc
)

// AuditReport exports the result of a content audit.
type AuditReport = audit.Report

// AuditFinding exports a single audit finding.
type AuditFinding = audit.Finding

// Error sentinels returned by post loading.
var (
	ErrPostNotFound         = posts.ErrPostNotFound
	ErrInvalidSlug          = posts.ErrInvalidSlug
	ErrStoreUnavailable     = posts.ErrStoreUnavailable
	ErrMalformedFrontmatter = posts.ErrMalformedFrontmatter
	ErrRenderFailed         = posts.ErrRenderFailed
	ErrSortOptionUnknown    = posts.ErrSortOptionUnknown
)

// Module represents the top level blog runtime façade.
type Module struct {
	container *di.Container
}

// New constructs a blog module using the provided configuration and optional DI overrides.
func New(cfg Config, opts ...di.Option) (*Module, error) {
	container, err := di.NewContainer(cfg, opts...)
	if err != nil {
		return nil, err
	}
	return &Module{container: container}, nil
}

// Container exposes the underlying DI container for advanced integrations.
func (m *Module) Container() *di.Container {
	return m.container
}

// Posts returns the configured post repository.
func (m *Module) Posts() PostRepository {
	return m.container.PostRepository()
}

// Audit checks every post file in the content directory.
func (m *Module) Audit(ctx context.Context) (*AuditReport, error) {
	return m.container.Auditor().Run(ctx)
}

// Invalidate drops memoized listings. It is a no-op without caching.
func (m *Module) Invalidate() {
	if cache := m.container.Cache(); cache != nil {
		cache.Invalidate()
	}
}

// Start launches background services such as the content watcher.
func (m *Module) Start(ctx context.Context) error {
	return m.container.Start(ctx)
}

// Close stops background services.
func (m *Module) Close() {
	m.container.Close()
}

// CategoryToSlug maps a category name to its URL slug.
func CategoryToSlug(name string) string {
	return posts.CategoryToSlug(name)
}

// SortOptions lists the supported orderings, default first.
var SortOptions = posts.SortOptions

// ParseSortOption maps a name such as "title-asc" onto a SortOption.
func ParseSortOption(value string) (SortOption, error) {
	return posts.ParseSortOption(value)
}

// SortPosts returns a reordered copy of list.
func SortPosts(list []*Post, option SortOption) []*Post {
	return posts.SortBy(list, option)
}

// Excerpt derives a plain-text summary of a post's rendered content of at
// most limit characters. A non-positive limit uses the default length.
func Excerpt(post *Post, limit int) string {
	if post == nil {
		return ""
	}
	return excerpt.Describe(post.Content, limit)
}
