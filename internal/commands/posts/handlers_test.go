package postscmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-blog/internal/audit"
	"github.com/goliatone/go-blog/internal/commands"
	"github.com/goliatone/go-blog/internal/commands/fixtures"
	"github.com/goliatone/go-blog/internal/logging"
	"github.com/goliatone/go-blog/internal/posts"
	"github.com/goliatone/go-blog/pkg/testsupport"
)

func newRepository() *posts.Repository {
	return posts.NewRepository(fstest.MapFS{
		"zeta.md":  &fstest.MapFile{Data: []byte(testsupport.PostFile("Zeta", "2024-03-15", "", "Getting Started", ""))},
		"alpha.md": &fstest.MapFile{Data: []byte(testsupport.PostFile("Alpha", "2024-03-12", "", "AI & Innovation", ""))},
		"beta.md":  &fstest.MapFile{Data: []byte(testsupport.PostFile("Beta", "2024-03-10", "", "getting started", ""))},
	})
}

type stubRunner struct {
	report *audit.Report
	err    error
}

func (s stubRunner) Run(context.Context) (*audit.Report, error) {
	return s.report, s.err
}

func TestExportPathsToStdout(t *testing.T) {
	var out bytes.Buffer
	handler := NewExportPathsHandler(newRepository(), logging.NoOp(), &out)

	if err := handler.Execute(context.Background(), ExportPathsCommand{OutputPath: StdoutPath}); err != nil {
		t.Fatalf("execute: %v", err)
	}

	var paths StaticPaths
	if err := json.Unmarshal(out.Bytes(), &paths); err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if strings.Join(paths.Posts, ",") != "alpha,beta,zeta" {
		t.Fatalf("unexpected posts %v", paths.Posts)
	}
	if strings.Join(paths.Categories, ",") != "ai-innovation,getting-started" {
		t.Fatalf("unexpected categories %v", paths.Categories)
	}
}

func TestExportPathsToFile(t *testing.T) {
	target := filepath.Join(t.TempDir(), "build", "paths.json")
	handler := NewExportPathsHandler(newRepository(), nil, nil)

	if err := handler.Execute(context.Background(), ExportPathsCommand{OutputPath: target}); err != nil {
		t.Fatalf("execute: %v", err)
	}
	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if !strings.Contains(string(data), `"zeta"`) {
		t.Fatalf("unexpected file contents %s", data)
	}
}

func TestExportPathsEmptyStoreWritesEmptyLists(t *testing.T) {
	var out bytes.Buffer
	handler := NewExportPathsHandler(posts.NewRepository(fstest.MapFS{}), nil, &out)

	if err := handler.Execute(context.Background(), ExportPathsCommand{OutputPath: StdoutPath}); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !strings.Contains(out.String(), `"posts": []`) || !strings.Contains(out.String(), `"categories": []`) {
		t.Fatalf("expected empty lists, got %s", out.String())
	}
}

func TestExportPathsValidation(t *testing.T) {
	handler := NewExportPathsHandler(newRepository(), nil, &bytes.Buffer{})

	err := handler.Execute(context.Background(), ExportPathsCommand{OutputPath: "  "})
	if !goerrors.IsCategory(err, goerrors.CategoryValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestAuditHandlerWritesReport(t *testing.T) {
	report := &audit.Report{Posts: 2, Findings: []audit.Finding{
		{Slug: "bad-date", Kind: audit.KindUnparsableDate, Message: `date "soon" is not a recognised layout`},
	}}
	var out bytes.Buffer
	handler := NewAuditHandler(stubRunner{report: report}, nil, &out)

	if err := handler.Execute(context.Background(), AuditCommand{}); err != nil {
		t.Fatalf("non-strict audit should not fail: %v", err)
	}
	if !strings.Contains(out.String(), "bad-date") || !strings.Contains(out.String(), "2 posts audited, 1 findings") {
		t.Fatalf("unexpected text report %q", out.String())
	}

	out.Reset()
	if err := handler.Execute(context.Background(), AuditCommand{Format: FormatJSON}); err != nil {
		t.Fatalf("json audit: %v", err)
	}
	var decoded audit.Report
	if err := json.Unmarshal(out.Bytes(), &decoded); err != nil {
		t.Fatalf("decode json report: %v", err)
	}
	if decoded.Posts != 2 || len(decoded.Findings) != 1 {
		t.Fatalf("unexpected decoded report %#v", decoded)
	}
}

func TestAuditHandlerStrict(t *testing.T) {
	report := &audit.Report{Posts: 1, Findings: []audit.Finding{{Slug: "x", Kind: audit.KindSchemaViolation}}}
	handler := NewAuditHandler(stubRunner{report: report}, nil, &bytes.Buffer{})

	err := handler.Execute(context.Background(), AuditCommand{Strict: true})
	if !errors.Is(err, ErrAuditFindings) {
		t.Fatalf("expected ErrAuditFindings, got %v", err)
	}
	if !goerrors.IsCategory(err, goerrors.CategoryValidation) {
		t.Fatalf("expected validation category, got %v", err)
	}

	clean := NewAuditHandler(stubRunner{report: &audit.Report{Posts: 1}}, nil, &bytes.Buffer{})
	if err := clean.Execute(context.Background(), AuditCommand{Strict: true}); err != nil {
		t.Fatalf("clean strict audit should pass: %v", err)
	}
}

func TestAuditHandlerRunnerError(t *testing.T) {
	runErr := errors.New("store gone")
	handler := NewAuditHandler(stubRunner{err: runErr}, nil, &bytes.Buffer{})

	err := handler.Execute(context.Background(), AuditCommand{})
	if !errors.Is(err, runErr) {
		t.Fatalf("expected runner error, got %v", err)
	}
	if !goerrors.IsCategory(err, goerrors.CategoryCommand) {
		t.Fatalf("expected command category, got %v", err)
	}
}

func TestAuditCommandRejectsUnknownFormat(t *testing.T) {
	handler := NewAuditHandler(stubRunner{report: &audit.Report{}}, nil, &bytes.Buffer{})

	err := handler.Execute(context.Background(), AuditCommand{Format: "yaml"})
	if !goerrors.IsCategory(err, goerrors.CategoryValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestRegisterPostCommands(t *testing.T) {
	reg := fixtures.NewRecordingRegistry()
	applied := false

	set, err := RegisterPostCommands(reg, newRepository(), stubRunner{report: &audit.Report{}}, nil,
		WithOutput(&bytes.Buffer{}),
		WithExportHandlerOptions(func(*commands.Handler[ExportPathsCommand]) { applied = true }),
	)
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if !applied {
		t.Fatal("expected export handler options applied")
	}
	if len(reg.Handlers) != 2 || reg.Handlers[0] != set.Export || reg.Handlers[1] != set.Audit {
		t.Fatalf("unexpected registrations %#v", reg.Handlers)
	}
	if got := set.Export.CLIOptions().Path; strings.Join(got, " ") != "posts export-paths" {
		t.Fatalf("unexpected CLI path %v", got)
	}
}

func TestRegisterPostCommandsErrors(t *testing.T) {
	if _, err := RegisterPostCommands(nil, nil, stubRunner{}, nil); err == nil {
		t.Fatal("expected error for nil repository")
	}
	if _, err := RegisterPostCommands(nil, newRepository(), nil, nil); err == nil {
		t.Fatal("expected error for nil runner")
	}

	reg := fixtures.NewRecordingRegistry()
	reg.Fail(errors.New("closed"))
	if _, err := RegisterPostCommands(reg, newRepository(), stubRunner{}, nil); err == nil {
		t.Fatal("expected registry error")
	}
}
