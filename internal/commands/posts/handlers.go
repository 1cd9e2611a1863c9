package postscmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"text/tabwriter"

	command "github.com/goliatone/go-command"
	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-blog/internal/audit"
	"github.com/goliatone/go-blog/internal/commands"
	"github.com/goliatone/go-blog/internal/logging"
	"github.com/goliatone/go-blog/pkg/interfaces"
)

const (
	exportOperation = "posts.export_paths"
	auditOperation  = "posts.audit"

	auditFindingsCode = "AUDIT_FINDINGS"
)

// ErrAuditFindings is wrapped by the error a strict audit returns when the
// report is not clean.
var ErrAuditFindings = errors.New("posts audit: findings reported")

var (
	_ command.Commander[ExportPathsCommand] = (*ExportPathsHandler)(nil)
	_ command.Commander[AuditCommand]       = (*AuditHandler)(nil)
)

// StaticPaths lists the slugs page generation must render.
type StaticPaths struct {
	Posts      []string `json:"posts"`
	Categories []string `json:"categories"`
}

// AuditRunner produces audit reports.
type AuditRunner interface {
	Run(ctx context.Context) (*audit.Report, error)
}

// ExportPathsHandler writes StaticPaths as JSON.
type ExportPathsHandler struct {
	inner *commands.Handler[ExportPathsCommand]
}

// NewExportPathsHandler creates an export handler reading from repo.
// stdout receives the document when the output path is "-".
func NewExportPathsHandler(repo interfaces.PostRepository, logger interfaces.Logger, stdout io.Writer, opts ...commands.HandlerOption[ExportPathsCommand]) *ExportPathsHandler {
	baseLogger := logging.OrNoOp(logger)
	if stdout == nil {
		stdout = os.Stdout
	}

	exec := func(ctx context.Context, msg ExportPathsCommand) error {
		paths, err := CollectStaticPaths(ctx, repo)
		if err != nil {
			return err
		}
		encoded, err := json.MarshalIndent(paths, "", "  ")
		if err != nil {
			return fmt.Errorf("encode static paths: %w", err)
		}
		encoded = append(encoded, '\n')

		if msg.OutputPath == StdoutPath {
			if _, err := stdout.Write(encoded); err != nil {
				return fmt.Errorf("write static paths: %w", err)
			}
		} else if err := writeFile(msg.OutputPath, encoded); err != nil {
			return err
		}

		logging.WithFields(baseLogger, map[string]any{
			"posts":      len(paths.Posts),
			"categories": len(paths.Categories),
		}).Info("posts.command.export_paths.completed")
		return nil
	}

	handlerOpts := []commands.HandlerOption[ExportPathsCommand]{
		commands.WithLogger[ExportPathsCommand](baseLogger),
		commands.WithOperation[ExportPathsCommand](exportOperation),
		commands.WithMessageFields(func(msg ExportPathsCommand) map[string]any {
			return map[string]any{"output_path": msg.OutputPath}
		}),
		commands.WithTelemetry(commands.DefaultTelemetry[ExportPathsCommand](baseLogger)),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &ExportPathsHandler{inner: commands.NewHandler(exec, handlerOpts...)}
}

// Execute satisfies command.Commander[ExportPathsCommand].
func (h *ExportPathsHandler) Execute(ctx context.Context, msg ExportPathsCommand) error {
	return h.inner.Execute(ctx, msg)
}

// CLIHandler satisfies command.CLICommand by returning the handler.
func (h *ExportPathsHandler) CLIHandler() any {
	return h
}

// CLIOptions describes the CLI metadata for the export.
func (h *ExportPathsHandler) CLIOptions() command.CLIConfig {
	return command.CLIConfig{
		Path:        []string{"posts", "export-paths"},
		Group:       "posts",
		Description: "Export post and category slugs for static page generation",
	}
}

// CollectStaticPaths gathers the sorted post and category slugs of repo.
func CollectStaticPaths(ctx context.Context, repo interfaces.PostRepository) (StaticPaths, error) {
	slugs := repo.ListAllSlugs(ctx)
	categories, err := repo.ListAllCategorySlugs(ctx)
	if err != nil {
		return StaticPaths{}, err
	}
	posts := slices.Clone(slugs)
	if posts == nil {
		posts = []string{}
	}
	categorySlugs := slices.Clone(categories)
	if categorySlugs == nil {
		categorySlugs = []string{}
	}
	slices.Sort(posts)
	slices.Sort(categorySlugs)
	return StaticPaths{Posts: posts, Categories: categorySlugs}, nil
}

func writeFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write static paths: %w", err)
	}
	return nil
}

// AuditHandler runs a content audit and writes the report to its output.
type AuditHandler struct {
	inner *commands.Handler[AuditCommand]
}

// NewAuditHandler creates an audit handler writing reports to out.
func NewAuditHandler(runner AuditRunner, logger interfaces.Logger, out io.Writer, opts ...commands.HandlerOption[AuditCommand]) *AuditHandler {
	baseLogger := logging.OrNoOp(logger)
	if out == nil {
		out = os.Stdout
	}

	exec := func(ctx context.Context, msg AuditCommand) error {
		report, err := runner.Run(ctx)
		if err != nil {
			return err
		}
		if err := writeReport(out, report, msg.Format); err != nil {
			return err
		}

		logging.WithFields(baseLogger, map[string]any{
			"posts":    report.Posts,
			"findings": len(report.Findings),
			"strict":   msg.Strict,
		}).Info("posts.command.audit.completed")

		if msg.Strict && report.HasFindings() {
			return goerrors.Wrap(ErrAuditFindings, goerrors.CategoryValidation,
				fmt.Sprintf("audit reported %d findings", len(report.Findings))).
				WithTextCode(auditFindingsCode)
		}
		return nil
	}

	handlerOpts := []commands.HandlerOption[AuditCommand]{
		commands.WithLogger[AuditCommand](baseLogger),
		commands.WithOperation[AuditCommand](auditOperation),
		commands.WithMessageFields(func(msg AuditCommand) map[string]any {
			return map[string]any{"strict": msg.Strict}
		}),
		commands.WithTelemetry(commands.DefaultTelemetry[AuditCommand](baseLogger)),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &AuditHandler{inner: commands.NewHandler(exec, handlerOpts...)}
}

// Execute satisfies command.Commander[AuditCommand].
func (h *AuditHandler) Execute(ctx context.Context, msg AuditCommand) error {
	return h.inner.Execute(ctx, msg)
}

// CLIHandler satisfies command.CLICommand by returning the handler.
func (h *AuditHandler) CLIHandler() any {
	return h
}

// CLIOptions describes the CLI metadata for the audit.
func (h *AuditHandler) CLIOptions() command.CLIConfig {
	return command.CLIConfig{
		Path:        []string{"posts", "audit"},
		Group:       "posts",
		Description: "Audit post files for metadata and naming defects",
	}
}

func writeReport(out io.Writer, report *audit.Report, format string) error {
	if format == FormatJSON {
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(report); err != nil {
			return fmt.Errorf("write audit report: %w", err)
		}
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	for _, finding := range report.Findings {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", finding.Slug, finding.Kind, finding.Message)
	}
	fmt.Fprintf(tw, "%d posts audited, %d findings\n", report.Posts, len(report.Findings))
	if err := tw.Flush(); err != nil {
		return fmt.Errorf("write audit report: %w", err)
	}
	return nil
}
