package posts

import (
	"context"
	"fmt"
	"io/fs"
	"strings"
)

// ListAllSlugs enumerates the post files in the content directory in the
// order fs.ReadDir returns them. An unreadable directory yields an empty
// slice; the failure is logged and counted, never returned.
func (r *Repository) ListAllSlugs(_ context.Context) []string {
	entries, err := fs.ReadDir(r.fsys, ".")
	if err != nil {
		r.metrics.storeFailed()
		r.logger.Error("posts.scan.failed", "error", fmt.Errorf("%w: %v", ErrStoreUnavailable, err))
		return []string{}
	}

	slugs := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasSuffix(name, postSuffix) {
			continue
		}
		slug := strings.TrimSuffix(name, postSuffix)
		if slug == "" {
			continue
		}
		slugs = append(slugs, slug)
	}
	return slugs
}
