package posts

import (
	"errors"

	"github.com/goliatone/go-blog/internal/markdown"
)

var (
	// ErrPostNotFound is returned when no file backs the requested slug.
	ErrPostNotFound = errors.New("posts: post not found")
	// ErrInvalidSlug is returned for slugs that could escape the content directory.
	ErrInvalidSlug = errors.New("posts: invalid post slug")
	// ErrStoreUnavailable is logged when the content directory cannot be listed.
	ErrStoreUnavailable = errors.New("posts: content store unavailable")
	// ErrMalformedFrontmatter is returned when a post's metadata block cannot be decoded.
	ErrMalformedFrontmatter = markdown.ErrMalformedFrontmatter
	// ErrRenderFailed is returned when the Markdown body cannot be rendered.
	ErrRenderFailed = errors.New("posts: render failed")
)

const invalidSlugCode = "POST_SLUG_INVALID"
