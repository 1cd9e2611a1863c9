package interfaces

import (
	"context"
	"time"
)

// PostMetadata holds the attributes read from a post's frontmatter. Values
// are kept as written; missing keys are empty strings.
type PostMetadata struct {
	Title    string `yaml:"title" json:"title"`
	Date     string `yaml:"date" json:"date"`
	ReadTime string `yaml:"readTime" json:"readTime"`
	Category string `yaml:"category" json:"category"`
}

// Post is a single article loaded from the content store.
type Post struct {
	PostMetadata
	// Slug is derived from the file name and is the post's URL key.
	Slug string `json:"slug"`
	// Content is the Markdown body rendered to HTML.
	Content string `json:"content"`
	// PublishedAt is Date parsed for ordering. It is zero when Date is empty
	// or could not be parsed.
	PublishedAt time.Time `json:"publishedAt,omitempty"`
}

// Clone returns a copy of the post that shares no mutable state.
func (p *Post) Clone() *Post {
	if p == nil {
		return nil
	}
	cloned := *p
	return &cloned
}

// PostRepository exposes the read side of the content store to page
// renderers and tooling. Listing methods only fail when ctx is done; a post
// that cannot be loaded is skipped and a missing store yields empty results.
type PostRepository interface {
	// ListAllSlugs enumerates the slugs of every post file.
	ListAllSlugs(ctx context.Context) []string
	// LoadPost loads a single post. The boolean is false when the post is
	// absent, including invalid slugs and unreadable files.
	LoadPost(ctx context.Context, slug string) (*Post, bool)
	// ListAllPosts returns every post, most recent first.
	ListAllPosts(ctx context.Context) ([]*Post, error)
	// ListPostsByCategory returns the posts whose category equals name,
	// ignoring case, most recent first.
	ListPostsByCategory(ctx context.Context, name string) ([]*Post, error)
	// ListPostsByCategorySlug returns the posts whose category maps to slug.
	ListPostsByCategorySlug(ctx context.Context, slug string) ([]*Post, error)
	// ListAllCategories returns the distinct category names.
	ListAllCategories(ctx context.Context) ([]string, error)
	// ListAllCategorySlugs returns the distinct category slugs.
	ListAllCategorySlugs(ctx context.Context) ([]string, error)
	// ResolveCategory maps a category slug back to a known category name.
	ResolveCategory(ctx context.Context, slug string) (string, bool)
	// FeaturedPosts returns at most limit of the most recent posts.
	FeaturedPosts(ctx context.Context, limit int) ([]*Post, error)
}
