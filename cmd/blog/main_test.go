package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	blog "github.com/goliatone/go-blog"
	postscmd "github.com/goliatone/go-blog/internal/commands/posts"
	"github.com/goliatone/go-blog/internal/di"
	"github.com/goliatone/go-blog/pkg/testsupport"
)

func fixtureDir(t *testing.T) string {
	t.Helper()
	return testsupport.WriteContentDir(t, map[string]string{
		"hello-world.md": testsupport.PostFile("Hello World", "2024-01-15", "3 min", "Go Tips",
			"This opening paragraph is comfortably longer than fifty characters in total.\n"),
		"newer.md":  testsupport.PostFile("Newer", "2024-03-01", "1 min", "Rust", "Short body.\n"),
		"oldest.md": testsupport.PostFile("Oldest", "2023-06-01", "2 min", "go tips", "Old body.\n"),
	})
}

func execute(t *testing.T, provider *testsupport.RecordingProvider, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := rootCmd(&out, di.WithLoggerProvider(provider))
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, testsupport.NewRecordingProvider(), "version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.Contains(out, "blog version "+Version) {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestSlugsCommandAttachesRunID(t *testing.T) {
	provider := testsupport.NewRecordingProvider()
	out, err := execute(t, provider, "--content-dir", fixtureDir(t), "slugs")
	if err != nil {
		t.Fatalf("slugs: %v", err)
	}
	if got := strings.Fields(out); strings.Join(got, ",") != "hello-world,newer,oldest" {
		t.Fatalf("unexpected slugs %v", got)
	}

	entry := provider.Find("blog.cli.command")
	if entry == nil {
		t.Fatalf("expected blog.cli.command entry, got %#v", provider.Entries())
	}
	if runID, _ := entry.Fields["run_id"].(string); runID == "" {
		t.Fatalf("expected run_id field, got %#v", entry.Fields)
	}
}

func TestPostCommand(t *testing.T) {
	dir := fixtureDir(t)

	out, err := execute(t, testsupport.NewRecordingProvider(), "--content-dir", dir, "post", "hello-world")
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	var post blog.Post
	if err := json.Unmarshal([]byte(out), &post); err != nil {
		t.Fatalf("decode post: %v", err)
	}
	if post.Slug != "hello-world" || post.Title != "Hello World" || !strings.Contains(post.Content, "<p>") {
		t.Fatalf("unexpected post %#v", post)
	}

	_, err = execute(t, testsupport.NewRecordingProvider(), "--content-dir", dir, "post", "../secret")
	if !errors.Is(err, blog.ErrPostNotFound) {
		t.Fatalf("expected ErrPostNotFound, got %v", err)
	}
}

func TestPostsCommandFiltersByCategory(t *testing.T) {
	dir := fixtureDir(t)

	out, err := execute(t, testsupport.NewRecordingProvider(), "--content-dir", dir, "posts")
	if err != nil {
		t.Fatalf("posts: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 3 || !strings.Contains(lines[0], "newer") || !strings.Contains(lines[2], "oldest") {
		t.Fatalf("unexpected listing %q", out)
	}

	out, err = execute(t, testsupport.NewRecordingProvider(), "--content-dir", dir, "posts", "--category", "GO TIPS")
	if err != nil {
		t.Fatalf("posts --category: %v", err)
	}
	if strings.Contains(out, "newer") || !strings.Contains(out, "hello-world") || !strings.Contains(out, "oldest") {
		t.Fatalf("unexpected category listing %q", out)
	}
}

func slugColumn(out string) []string {
	var slugs []string
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		if fields := strings.Fields(line); len(fields) > 1 && !strings.HasPrefix(line, "#") {
			slugs = append(slugs, fields[1])
		}
	}
	return slugs
}

func TestPostsCommandSortOptions(t *testing.T) {
	dir := fixtureDir(t)
	cases := map[string]string{
		"date-desc":  "newer,hello-world,oldest",
		"date-asc":   "oldest,hello-world,newer",
		"title-asc":  "hello-world,newer,oldest",
		"title-desc": "oldest,newer,hello-world",
	}
	for option, want := range cases {
		t.Run(option, func(t *testing.T) {
			out, err := execute(t, testsupport.NewRecordingProvider(), "--content-dir", dir, "posts", "--sort", option)
			if err != nil {
				t.Fatalf("posts --sort %s: %v", option, err)
			}
			if got := strings.Join(slugColumn(out), ","); got != want {
				t.Fatalf("posts --sort %s = %s, want %s", option, got, want)
			}
		})
	}

	_, err := execute(t, testsupport.NewRecordingProvider(), "--content-dir", dir, "posts", "--sort", "popular")
	if !errors.Is(err, blog.ErrSortOptionUnknown) {
		t.Fatalf("expected ErrSortOptionUnknown, got %v", err)
	}
}

func TestCategoryCommandSortOption(t *testing.T) {
	out, err := execute(t, testsupport.NewRecordingProvider(), "--content-dir", fixtureDir(t), "category", "go-tips", "--sort", "date-asc")
	if err != nil {
		t.Fatalf("category --sort: %v", err)
	}
	if got := strings.Join(slugColumn(out), ","); got != "oldest,hello-world" {
		t.Fatalf("unexpected category order %s", got)
	}
}

func TestCategoryCommands(t *testing.T) {
	dir := fixtureDir(t)

	out, err := execute(t, testsupport.NewRecordingProvider(), "--content-dir", dir, "categories")
	if err != nil {
		t.Fatalf("categories: %v", err)
	}
	if !strings.Contains(out, "go-tips") || !strings.Contains(out, "rust") {
		t.Fatalf("unexpected categories %q", out)
	}

	out, err = execute(t, testsupport.NewRecordingProvider(), "--content-dir", dir, "category", "go-tips")
	if err != nil {
		t.Fatalf("category: %v", err)
	}
	if !strings.Contains(out, "hello-world") || !strings.Contains(out, "oldest") {
		t.Fatalf("unexpected category output %q", out)
	}

	_, err = execute(t, testsupport.NewRecordingProvider(), "--content-dir", dir, "category", "python")
	if !errors.Is(err, errCategoryNotFound) {
		t.Fatalf("expected errCategoryNotFound, got %v", err)
	}
}

func TestFeaturedCommandHonoursLimit(t *testing.T) {
	out, err := execute(t, testsupport.NewRecordingProvider(), "--content-dir", fixtureDir(t), "featured", "--limit", "2")
	if err != nil {
		t.Fatalf("featured: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 2 || !strings.HasPrefix(lines[0], "newer") || !strings.HasPrefix(lines[1], "hello-world") {
		t.Fatalf("unexpected featured output %q", out)
	}
	if !strings.Contains(lines[1], "This opening paragraph") {
		t.Fatalf("expected excerpt in output, got %q", lines[1])
	}
}

func TestExportCommandWritesStaticPaths(t *testing.T) {
	dir := fixtureDir(t)
	target := filepath.Join(t.TempDir(), "paths.json")

	if _, err := execute(t, testsupport.NewRecordingProvider(), "--content-dir", dir, "export", "--output", target); err != nil {
		t.Fatalf("export: %v", err)
	}
	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	var paths postscmd.StaticPaths
	if err := json.Unmarshal(data, &paths); err != nil {
		t.Fatalf("decode export: %v", err)
	}
	if strings.Join(paths.Posts, ",") != "hello-world,newer,oldest" {
		t.Fatalf("unexpected post paths %v", paths.Posts)
	}
	if strings.Join(paths.Categories, ",") != "go-tips,rust" {
		t.Fatalf("unexpected category paths %v", paths.Categories)
	}
}

func TestAuditCommandStrict(t *testing.T) {
	dir := testsupport.WriteContentDir(t, map[string]string{
		"Bad Name.md": testsupport.PostFile("Bad", "2024-01-01", "1 min", "Go", "body\n"),
	})

	out, err := execute(t, testsupport.NewRecordingProvider(), "--content-dir", dir, "audit")
	if err != nil {
		t.Fatalf("audit: %v", err)
	}
	if !strings.Contains(out, "1 posts audited") {
		t.Fatalf("unexpected report %q", out)
	}

	_, err = execute(t, testsupport.NewRecordingProvider(), "--content-dir", dir, "audit", "--strict")
	if !errors.Is(err, postscmd.ErrAuditFindings) {
		t.Fatalf("expected ErrAuditFindings, got %v", err)
	}
}

func TestConfigFileWithFlagOverride(t *testing.T) {
	dir := fixtureDir(t)
	path := filepath.Join(t.TempDir(), "blog.yaml")
	if err := os.WriteFile(path, []byte("content_dir: /does/not/exist\nlisting:\n  featured_limit: 1\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	var captured blog.Config
	build := moduleBuilder
	moduleBuilder = func(cfg blog.Config, opts ...di.Option) (*blog.Module, error) {
		captured = cfg
		return build(cfg, opts...)
	}
	t.Cleanup(func() { moduleBuilder = build })

	out, err := execute(t, testsupport.NewRecordingProvider(), "--config", path, "--content-dir", dir, "--safe-mode", "featured")
	if err != nil {
		t.Fatalf("featured: %v", err)
	}
	if captured.ContentDir != dir || !captured.Markdown.SafeMode || captured.Listing.FeaturedLimit != 1 {
		t.Fatalf("unexpected config %#v", captured)
	}
	if lines := strings.Split(strings.TrimSpace(out), "\n"); len(lines) != 1 {
		t.Fatalf("expected one featured post, got %q", out)
	}
}

func TestWatchCommandStopsOnCancel(t *testing.T) {
	var out bytes.Buffer
	provider := testsupport.NewRecordingProvider()
	cmd := rootCmd(&out, di.WithLoggerProvider(provider))
	cmd.SetArgs([]string{"--content-dir", fixtureDir(t), "watch", "--debounce", "10ms"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := cmd.ExecuteContext(ctx); err != nil {
		t.Fatalf("watch: %v", err)
	}
	if provider.Find("blog.watch.ready") == nil {
		t.Fatalf("expected blog.watch.ready entry, got %#v", provider.Entries())
	}
}

type registererOnly struct {
	prometheus.Registerer
}

func TestWatchCommandRequiresGatherableMetrics(t *testing.T) {
	var out bytes.Buffer
	cmd := rootCmd(&out,
		di.WithLoggerProvider(testsupport.NewRecordingProvider()),
		di.WithMetricsRegistry(registererOnly{prometheus.NewRegistry()}),
	)
	cmd.SetArgs([]string{"--content-dir", fixtureDir(t), "watch", "--metrics-addr", "127.0.0.1:0"})

	if err := cmd.ExecuteContext(context.Background()); !errors.Is(err, errMetricsUnavailable) {
		t.Fatalf("expected errMetricsUnavailable, got %v", err)
	}
}
