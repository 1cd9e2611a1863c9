package interfaces

// MarkdownRenderer converts a post body from Markdown into HTML.
// Implementations must be safe for concurrent use: the repository renders
// many posts in parallel with a single instance.
type MarkdownRenderer interface {
	// Render converts Markdown into HTML using the renderer's default settings.
	Render(markdown []byte) ([]byte, error)
	// RenderWithOptions converts Markdown into HTML using the supplied overrides.
	RenderWithOptions(markdown []byte, opts RenderOptions) ([]byte, error)
}

// RenderOptions customises Markdown rendering, keeping option names
// readable for configuration unmarshalling and CLI flags.
type RenderOptions struct {
	// Extensions selects goldmark extensions by name. Empty means the GFM
	// defaults (tables, strikethrough, linkify, task lists).
	Extensions []string `yaml:"extensions" json:"extensions"`
	// HardWraps renders soft line breaks as <br>.
	HardWraps bool `yaml:"hard_wraps" json:"hard_wraps"`
	// SafeMode drops raw HTML found in the source instead of passing it through.
	SafeMode bool `yaml:"safe_mode" json:"safe_mode"`
}
