package posts

import (
	"slices"
	"strings"

	"github.com/goliatone/go-blog/pkg/interfaces"
)

// SortPosts orders posts most recent first in place. The sort is stable so
// posts sharing a date keep their relative order.
func SortPosts(posts []*interfaces.Post) {
	slices.SortStableFunc(posts, comparePublishedDesc)
}

// FilterByCategory returns the posts whose category equals name, ignoring
// case and surrounding whitespace. Order is preserved.
func FilterByCategory(posts []*interfaces.Post, name string) []*interfaces.Post {
	name = strings.TrimSpace(name)
	out := make([]*interfaces.Post, 0)
	for _, post := range posts {
		if strings.EqualFold(strings.TrimSpace(post.Category), name) {
			out = append(out, post)
		}
	}
	return out
}

// FilterByCategorySlug returns the posts whose category maps to slug. Distinct
// names sharing a slug are merged into one listing.
func FilterByCategorySlug(posts []*interfaces.Post, slug string) []*interfaces.Post {
	out := make([]*interfaces.Post, 0)
	if slug == "" {
		return out
	}
	for _, post := range posts {
		if CategoryToSlug(post.Category) == slug {
			out = append(out, post)
		}
	}
	return out
}

// Categories returns the distinct non-empty category names of posts. Names
// differing only in case collapse to the first one seen.
func Categories(posts []*interfaces.Post) []string {
	seen := map[string]struct{}{}
	out := make([]string, 0)
	for _, post := range posts {
		name := strings.TrimSpace(post.Category)
		if name == "" {
			continue
		}
		key := strings.ToLower(name)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, name)
	}
	return out
}

// CategorySlugs maps categories to their slugs, dropping duplicates and
// categories that slugify to nothing.
func CategorySlugs(categories []string) []string {
	seen := map[string]struct{}{}
	out := make([]string, 0, len(categories))
	for _, name := range categories {
		slug := CategoryToSlug(name)
		if slug == "" {
			continue
		}
		if _, ok := seen[slug]; ok {
			continue
		}
		seen[slug] = struct{}{}
		out = append(out, slug)
	}
	return out
}

// ResolveCategorySlug returns the first category whose slug equals slug.
func ResolveCategorySlug(categories []string, slug string) (string, bool) {
	if slug == "" {
		return "", false
	}
	for _, name := range categories {
		if CategoryToSlug(name) == slug {
			return name, true
		}
	}
	return "", false
}

// CategoryCollisions groups distinct category names by shared slug. Only
// slugs claimed by more than one name are returned.
func CategoryCollisions(categories []string) map[string][]string {
	bySlug := map[string][]string{}
	for _, name := range categories {
		slug := CategoryToSlug(name)
		if slug == "" {
			continue
		}
		bySlug[slug] = append(bySlug[slug], name)
	}
	for slug, names := range bySlug {
		if len(names) < 2 {
			delete(bySlug, slug)
		}
	}
	return bySlug
}

// Featured returns at most limit posts from the head of posts.
func Featured(posts []*interfaces.Post, limit int) []*interfaces.Post {
	if limit < 0 {
		limit = 0
	}
	if limit > len(posts) {
		limit = len(posts)
	}
	out := make([]*interfaces.Post, limit)
	copy(out, posts[:limit])
	return out
}
