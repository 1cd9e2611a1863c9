package markdown

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/renderer/html"

	"github.com/goliatone/go-blog/pkg/interfaces"
)

// GoldmarkRenderer implements interfaces.MarkdownRenderer with goldmark.
// The engine for the default options is built once and shared; goldmark
// engines are safe for concurrent use.
type GoldmarkRenderer struct {
	defaults interfaces.RenderOptions
	engine   goldmark.Markdown
}

var _ interfaces.MarkdownRenderer = (*GoldmarkRenderer)(nil)

// NewGoldmarkRenderer constructs a renderer. With zero options it enables
// GFM (tables, strikethrough, linkify, task lists), automatic heading IDs and
// raw HTML pass-through.
func NewGoldmarkRenderer(defaults interfaces.RenderOptions) *GoldmarkRenderer {
	return &GoldmarkRenderer{
		defaults: defaults,
		engine:   newGoldmarkEngine(defaults),
	}
}

// Render converts markdown using the renderer defaults.
func (r *GoldmarkRenderer) Render(markdown []byte) ([]byte, error) {
	return convert(r.engine, markdown)
}

// RenderWithOptions converts markdown using opts instead of the defaults.
func (r *GoldmarkRenderer) RenderWithOptions(markdown []byte, opts interfaces.RenderOptions) ([]byte, error) {
	if sameOptions(opts, r.defaults) {
		return convert(r.engine, markdown)
	}
	return convert(newGoldmarkEngine(opts), markdown)
}

func convert(engine goldmark.Markdown, markdown []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := engine.Convert(markdown, &buf); err != nil {
		return nil, fmt.Errorf("markdown render: %w", err)
	}
	return buf.Bytes(), nil
}

func newGoldmarkEngine(opts interfaces.RenderOptions) goldmark.Markdown {
	rendererOptions := []renderer.Option{}
	if opts.HardWraps {
		rendererOptions = append(rendererOptions, html.WithHardWraps())
	}
	if !opts.SafeMode {
		rendererOptions = append(rendererOptions, html.WithUnsafe())
	}

	engineOptions := []goldmark.Option{
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
	}
	if len(rendererOptions) > 0 {
		engineOptions = append(engineOptions, goldmark.WithRendererOptions(rendererOptions...))
	}
	if exts := collectExtensions(opts.Extensions); len(exts) > 0 {
		engineOptions = append(engineOptions, goldmark.WithExtensions(exts...))
	}
	return goldmark.New(engineOptions...)
}

var extensionRegistry = map[string]goldmark.Extender{
	"gfm":           extension.GFM,
	"table":         extension.Table,
	"tables":        extension.Table,
	"strikethrough": extension.Strikethrough,
	"linkify":       extension.Linkify,
	"autolink":      extension.Linkify,
	"tasklist":      extension.TaskList,
	"definition":    extension.DefinitionList,
	"footnote":      extension.Footnote,
	"typographer":   extension.Typographer,
}

// KnownExtension reports whether name selects a registered extension.
func KnownExtension(name string) bool {
	_, ok := extensionRegistry[normalizeExtension(name)]
	return ok
}

func collectExtensions(names []string) []goldmark.Extender {
	if len(names) == 0 {
		return []goldmark.Extender{extension.GFM}
	}

	var extenders []goldmark.Extender
	seen := map[string]struct{}{}
	for _, name := range names {
		key := normalizeExtension(name)
		if key == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		ext, ok := extensionRegistry[key]
		if !ok {
			continue
		}
		extenders = append(extenders, ext)
		seen[key] = struct{}{}
	}
	return extenders
}

func normalizeExtension(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func sameOptions(a, b interfaces.RenderOptions) bool {
	if a.HardWraps != b.HardWraps || a.SafeMode != b.SafeMode || len(a.Extensions) != len(b.Extensions) {
		return false
	}
	for i := range a.Extensions {
		if a.Extensions[i] != b.Extensions[i] {
			return false
		}
	}
	return true
}
