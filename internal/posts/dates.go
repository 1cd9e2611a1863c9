package posts

import (
	"strings"
	"time"

	"github.com/goliatone/go-blog/pkg/interfaces"
)

var publishedLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	time.DateOnly,
}

// ParsePublishedAt parses a frontmatter date. Values without a zone are
// read as UTC. The boolean is false for empty or unrecognised input.
func ParsePublishedAt(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range publishedLayouts {
		if parsed, err := time.Parse(layout, value); err == nil {
			return parsed, true
		}
	}
	return time.Time{}, false
}

// comparePublishedDesc orders posts most recent first. Posts without a
// publish date sort after every dated post.
func comparePublishedDesc(a, b *interfaces.Post) int {
	aZero, bZero := a.PublishedAt.IsZero(), b.PublishedAt.IsZero()
	switch {
	case aZero && bZero:
		return 0
	case aZero:
		return 1
	case bZero:
		return -1
	}
	return b.PublishedAt.Compare(a.PublishedAt)
}
