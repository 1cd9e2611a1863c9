package posts

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/goliatone/go-blog/pkg/interfaces"
)

// SortOption names an ordering for a post listing.
type SortOption string

const (
	SortDateDesc  SortOption = "date-desc"
	SortDateAsc   SortOption = "date-asc"
	SortTitleAsc  SortOption = "title-asc"
	SortTitleDesc SortOption = "title-desc"
)

// SortOptions lists the supported orderings, default first.
var SortOptions = []SortOption{SortDateDesc, SortDateAsc, SortTitleAsc, SortTitleDesc}

var ErrSortOptionUnknown = errors.New("posts: sort option is unknown")

// ParseSortOption maps a name onto a SortOption. Empty selects SortDateDesc.
func ParseSortOption(value string) (SortOption, error) {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "" {
		return SortDateDesc, nil
	}
	option := SortOption(value)
	if !slices.Contains(SortOptions, option) {
		return "", fmt.Errorf("%w: %q", ErrSortOptionUnknown, value)
	}
	return option, nil
}

// SortBy returns a copy of posts ordered by option. The sort is stable.
// Posts without a publish date come last in both date orders. Titles are
// compared with a case-insensitive collator. Unknown options keep the
// input order.
func SortBy(posts []*interfaces.Post, option SortOption) []*interfaces.Post {
	out := make([]*interfaces.Post, len(posts))
	copy(out, posts)

	switch option {
	case SortDateDesc:
		slices.SortStableFunc(out, comparePublishedDesc)
	case SortDateAsc:
		slices.SortStableFunc(out, comparePublishedAsc)
	case SortTitleAsc, SortTitleDesc:
		collator := collate.New(language.Und, collate.IgnoreCase)
		slices.SortStableFunc(out, func(a, b *interfaces.Post) int {
			if option == SortTitleDesc {
				a, b = b, a
			}
			return collator.CompareString(a.Title, b.Title)
		})
	}
	return out
}

func comparePublishedAsc(a, b *interfaces.Post) int {
	aZero, bZero := a.PublishedAt.IsZero(), b.PublishedAt.IsZero()
	switch {
	case aZero && bZero:
		return 0
	case aZero:
		return 1
	case bZero:
		return -1
	}
	return a.PublishedAt.Compare(b.PublishedAt)
}
