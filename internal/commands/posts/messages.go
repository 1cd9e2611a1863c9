package postscmd

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

const (
	exportPathsMessageType = "blog.posts.export_paths"
	auditMessageType       = "blog.posts.audit"
)

// StdoutPath selects standard output as the export destination.
const StdoutPath = "-"

// Report formats accepted by AuditCommand.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// ExportPathsCommand writes the post and category slugs that static page
// generation must cover.
type ExportPathsCommand struct {
	// OutputPath is the destination file, or "-" for standard output.
	OutputPath string `json:"output_path"`
}

// Type implements command.Message.
func (ExportPathsCommand) Type() string { return exportPathsMessageType }

// Validate ensures an output destination is present.
func (cmd ExportPathsCommand) Validate() error {
	return validation.ValidateStruct(&cmd,
		validation.Field(&cmd.OutputPath, validation.Required, validation.By(func(value any) error {
			if strings.TrimSpace(value.(string)) == "" {
				return validation.NewError("blog.posts.export_paths.output_required", "output path is required")
			}
			return nil
		})),
	)
}

// AuditCommand runs a content audit and writes the report.
type AuditCommand struct {
	// Strict turns findings into a validation error.
	Strict bool `json:"strict,omitempty"`
	// Format selects the report encoding, text (default) or json.
	Format string `json:"format,omitempty"`
}

// Type implements command.Message.
func (AuditCommand) Type() string { return auditMessageType }

// Validate ensures the report format is supported.
func (cmd AuditCommand) Validate() error {
	return validation.ValidateStruct(&cmd,
		validation.Field(&cmd.Format, validation.In(FormatText, FormatJSON).
			ErrorObject(validation.NewError("blog.posts.audit.format_invalid", "format must be text or json"))),
	)
}
