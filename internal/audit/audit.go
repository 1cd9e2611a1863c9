// Package audit inspects the content store for defects that the repository
// tolerates silently: malformed metadata, unparsable dates, non-canonical
// file names and category names that collide on one slug.
package audit

import (
	"cmp"
	"context"
	"fmt"
	"io/fs"
	"slices"
	"strings"

	"github.com/goliatone/go-slug"
	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/goliatone/go-blog/internal/logging"
	"github.com/goliatone/go-blog/internal/markdown"
	"github.com/goliatone/go-blog/internal/posts"
	"github.com/goliatone/go-blog/pkg/interfaces"
)

// Kind classifies a finding.
type Kind string

const (
	KindInvalidSlug          Kind = "invalid_slug"
	KindNonCanonicalSlug     Kind = "non_canonical_slug"
	KindUnreadable           Kind = "unreadable"
	KindMalformedFrontmatter Kind = "malformed_frontmatter"
	KindSchemaViolation      Kind = "schema_violation"
	KindUnparsableDate       Kind = "unparsable_date"
	KindCategoryCollision    Kind = "category_collision"
)

// Finding is a single defect. Slug is the post slug, or the shared category
// slug for collisions.
type Finding struct {
	Slug    string `json:"slug"`
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
}

// Report is the outcome of an audit run.
type Report struct {
	Posts    int       `json:"posts"`
	Findings []Finding `json:"findings"`
}

// HasFindings reports whether any defect was found.
func (r *Report) HasFindings() bool {
	return r != nil && len(r.Findings) > 0
}

// Auditor runs audits over a content directory.
type Auditor struct {
	fsys   fs.FS
	schema *jsonschema.Schema
	logger interfaces.Logger
}

// Option configures an Auditor.
type Option func(*Auditor)

// WithLogger sets the auditor logger.
func WithLogger(logger interfaces.Logger) Option {
	return func(a *Auditor) {
		a.logger = logging.OrNoOp(logger)
	}
}

// NewAuditor constructs an auditor over fsys.
func NewAuditor(fsys fs.FS, opts ...Option) (*Auditor, error) {
	schema, err := compileSchema(frontmatterSchema)
	if err != nil {
		return nil, fmt.Errorf("audit: compile frontmatter schema: %w", err)
	}
	a := &Auditor{fsys: fsys, schema: schema, logger: logging.NoOp()}
	for _, opt := range opts {
		if opt != nil {
			opt(a)
		}
	}
	return a, nil
}

// Run audits every post file. Unlike the repository, an unreadable content
// directory is reported as an error wrapping posts.ErrStoreUnavailable.
func (a *Auditor) Run(ctx context.Context) (*Report, error) {
	entries, err := fs.ReadDir(a.fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", posts.ErrStoreUnavailable, err)
	}

	report := &Report{Findings: []Finding{}}
	var categories []string
	seenCategory := map[string]struct{}{}

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".md") {
			continue
		}
		postSlug := strings.TrimSuffix(name, ".md")
		report.Posts++

		findings, category := a.auditFile(postSlug, name)
		report.Findings = append(report.Findings, findings...)

		if key := strings.ToLower(category); key != "" {
			if _, ok := seenCategory[key]; !ok {
				seenCategory[key] = struct{}{}
				categories = append(categories, category)
			}
		}
	}

	for categorySlug, names := range posts.CategoryCollisions(categories) {
		report.Findings = append(report.Findings, Finding{
			Slug:    categorySlug,
			Kind:    KindCategoryCollision,
			Message: fmt.Sprintf("categories %s share slug %q", quoteAll(names), categorySlug),
		})
	}

	slices.SortFunc(report.Findings, func(x, y Finding) int {
		return cmp.Or(
			cmp.Compare(x.Slug, y.Slug),
			cmp.Compare(x.Kind, y.Kind),
			cmp.Compare(x.Message, y.Message),
		)
	})

	for _, finding := range report.Findings {
		a.logger.Debug("audit.finding", "slug", finding.Slug, "kind", string(finding.Kind), "message", finding.Message)
	}
	a.logger.Info("audit.run.completed", "posts", report.Posts, "findings", len(report.Findings))
	return report, nil
}

func (a *Auditor) auditFile(postSlug, name string) ([]Finding, string) {
	var findings []Finding
	add := func(kind Kind, format string, args ...any) {
		findings = append(findings, Finding{Slug: postSlug, Kind: kind, Message: fmt.Sprintf(format, args...)})
	}

	if err := posts.ValidatePostSlug(postSlug); err != nil {
		add(KindInvalidSlug, "file name cannot be served: %v", err)
		return findings, ""
	}
	if !slug.IsValid(postSlug) {
		if normalized, err := slug.Normalize(postSlug); err == nil && normalized != "" {
			add(KindNonCanonicalSlug, "file name is not a canonical slug, expected %q", normalized)
		} else {
			add(KindNonCanonicalSlug, "file name is not a canonical slug")
		}
	}

	data, err := fs.ReadFile(a.fsys, name)
	if err != nil {
		add(KindUnreadable, "read failed: %v", err)
		return findings, ""
	}

	fm, _, err := markdown.ParseFrontMatter(data)
	if err != nil {
		add(KindMalformedFrontmatter, "%v", err)
		return findings, ""
	}

	issues, err := validateFrontmatter(a.schema, fm.Raw)
	if err != nil {
		add(KindSchemaViolation, "frontmatter could not be validated: %v", err)
	}
	for _, issue := range issues {
		add(KindSchemaViolation, "%s", issue.String())
	}

	meta, _ := fm.Metadata()
	if meta.Date != "" {
		if _, ok := posts.ParsePublishedAt(meta.Date); !ok {
			add(KindUnparsableDate, "date %q is not a recognised layout", meta.Date)
		}
	}
	return findings, strings.TrimSpace(meta.Category)
}

func quoteAll(names []string) string {
	quoted := make([]string, len(names))
	for i, name := range names {
		quoted[i] = fmt.Sprintf("%q", name)
	}
	return strings.Join(quoted, ", ")
}
