package markdown

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/adrg/frontmatter"

	"github.com/goliatone/go-blog/pkg/interfaces"
)

// ErrMalformedFrontmatter is returned when the metadata block cannot be decoded.
var ErrMalformedFrontmatter = errors.New("markdown: malformed frontmatter")

const (
	keyTitle    = "title"
	keyDate     = "date"
	keyReadTime = "readTime"
	keyCategory = "category"
)

// FrontMatter is the decoded metadata block of a post. Raw keeps every key
// with JSON friendly values (nested maps keyed by string, times formatted).
type FrontMatter struct {
	Raw map[string]any
}

// FieldIssue reports a metadata key that was present but not a scalar.
type FieldIssue struct {
	Key   string
	Value any
}

// ParseFrontMatter extracts metadata and the Markdown body from source.
// YAML (---), TOML (+++) and JSON (;;;) blocks are accepted. A source without
// a metadata block yields an empty FrontMatter and the full source as body.
func ParseFrontMatter(source []byte) (FrontMatter, []byte, error) {
	var raw map[string]any

	body, err := frontmatter.Parse(bytes.NewReader(source), &raw)
	if err != nil {
		return FrontMatter{}, nil, fmt.Errorf("%w: %v", ErrMalformedFrontmatter, err)
	}

	normalized := make(map[string]any, len(raw))
	for key, value := range raw {
		normalized[key] = normalizeValue(value)
	}
	return FrontMatter{Raw: normalized}, body, nil
}

// Metadata maps the well-known keys onto interfaces.PostMetadata. Missing
// keys become empty strings. Scalars of other types are stringified; lists
// and maps are stringified too and reported as issues.
func (fm FrontMatter) Metadata() (interfaces.PostMetadata, []FieldIssue) {
	var issues []FieldIssue
	field := func(key string) string {
		value, ok := fm.Raw[key]
		if !ok {
			return ""
		}
		text, scalar := stringify(value)
		if !scalar {
			issues = append(issues, FieldIssue{Key: key, Value: value})
		}
		return text
	}

	meta := interfaces.PostMetadata{
		Title:    field(keyTitle),
		Date:     field(keyDate),
		ReadTime: field(keyReadTime),
		Category: field(keyCategory),
	}
	return meta, issues
}

func stringify(value any) (string, bool) {
	switch v := value.(type) {
	case nil:
		return "", true
	case string:
		return v, true
	case bool:
		return strconv.FormatBool(v), true
	case int:
		return strconv.Itoa(v), true
	case int64:
		return strconv.FormatInt(v, 10), true
	case uint64:
		return strconv.FormatUint(v, 10), true
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	case []any, map[string]any:
		return fmt.Sprint(v), false
	default:
		return fmt.Sprint(v), true
	}
}

// normalizeValue converts decoder specific shapes into JSON friendly values:
// map[any]any becomes map[string]any and time.Time is formatted, keeping
// date-only values as YYYY-MM-DD.
func normalizeValue(value any) any {
	switch v := value.(type) {
	case time.Time:
		return formatTime(v)
	case map[any]any:
		out := make(map[string]any, len(v))
		for key, item := range v {
			out[fmt.Sprint(key)] = normalizeValue(item)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(v))
		for key, item := range v {
			out[key] = normalizeValue(item)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = normalizeValue(item)
		}
		return out
	case int8, int16, int32:
		return fmt.Sprint(v)
	default:
		return v
	}
}

func formatTime(t time.Time) string {
	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
		return t.Format(time.DateOnly)
	}
	return strings.TrimSpace(t.Format(time.RFC3339))
}
