package posts

import (
	"fmt"
	"io/fs"
	"regexp"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

var nonSlugRun = regexp.MustCompile(`[^a-z0-9]+`)

// CategoryToSlug maps a category name to its URL token: the name is lower
// cased, every run of characters outside [a-z0-9] becomes a single "-" and
// leading or trailing separators are trimmed.
func CategoryToSlug(name string) string {
	slug := nonSlugRun.ReplaceAllString(strings.ToLower(name), "-")
	return strings.Trim(slug, "-")
}

// ValidatePostSlug rejects slugs that cannot name a file directly inside the
// content directory. The returned error is categorised as a validation
// failure and wraps ErrInvalidSlug.
func ValidatePostSlug(slug string) error {
	reason := ""
	switch {
	case slug == "":
		reason = "slug is empty"
	case slug == "." || slug == "..":
		reason = "slug is a relative directory reference"
	case strings.ContainsAny(slug, `/\`):
		reason = "slug contains a path separator"
	case strings.Contains(slug, ".."):
		reason = "slug contains a parent directory sequence"
	case strings.ContainsRune(slug, 0):
		reason = "slug contains a NUL byte"
	case !fs.ValidPath(postFileName(slug)):
		reason = "slug is not a valid file name"
	}
	if reason == "" {
		return nil
	}
	return goerrors.Wrap(ErrInvalidSlug, goerrors.CategoryValidation, fmt.Sprintf("post slug %q rejected: %s", slug, reason)).
		WithTextCode(invalidSlugCode)
}

const postSuffix = ".md"

func postFileName(slug string) string {
	return slug + postSuffix
}
