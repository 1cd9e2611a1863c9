package posts

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"testing"
	"time"
)

type changeRecorder struct {
	mu      sync.Mutex
	batches [][]string
}

func (r *changeRecorder) record(slugs []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.batches = append(r.batches, slugs)
}

func (r *changeRecorder) seen(slug string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, batch := range r.batches {
		if slices.Contains(batch, slug) {
			return true
		}
	}
	return false
}

func (r *changeRecorder) all() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, batch := range r.batches {
		out = append(out, batch...)
	}
	return out
}

func (r *changeRecorder) count(slug string) int {
	n := 0
	for _, seen := range r.all() {
		if seen == slug {
			n++
		}
	}
	return n
}

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestWatcherReportsMarkdownChanges(t *testing.T) {
	dir := t.TempDir()
	recorder := &changeRecorder{}
	watcher := NewWatcher(dir, recorder.record, WithDebounce(20*time.Millisecond))

	if err := watcher.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer watcher.Stop()

	writeFile(t, filepath.Join(dir, "new-post.md"), "---\ntitle: New\n---\n")
	writeFile(t, filepath.Join(dir, "notes.txt"), "ignored")

	waitFor(t, func() bool { return recorder.seen("new-post") })
	if slices.Contains(recorder.all(), "notes") {
		t.Fatalf("expected non-markdown files to be ignored, got %v", recorder.all())
	}

	if err := os.Remove(filepath.Join(dir, "new-post.md")); err != nil {
		t.Fatalf("remove: %v", err)
	}
	waitFor(t, func() bool { return recorder.count("new-post") >= 2 })
}

func TestWatcherStartTwiceFails(t *testing.T) {
	watcher := NewWatcher(t.TempDir(), nil)
	if err := watcher.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer watcher.Stop()

	if err := watcher.Start(context.Background()); !errors.Is(err, ErrWatcherRunning) {
		t.Fatalf("expected ErrWatcherRunning, got %v", err)
	}
}

func TestWatcherStartMissingDirectory(t *testing.T) {
	watcher := NewWatcher(filepath.Join(t.TempDir(), "missing"), nil)
	if err := watcher.Start(context.Background()); err == nil {
		t.Fatal("expected an error for a missing directory")
	}

	watcher.Stop()
}

func TestWatcherInvalidatesCache(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "first.md"), "---\ntitle: First\ndate: 2024-01-01\n---\n")

	cache := NewCachedRepository(NewDirRepository(dir))
	watcher := NewWatcher(dir, func([]string) { cache.Invalidate() }, WithDebounce(20*time.Millisecond))
	if err := watcher.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer watcher.Stop()

	posts, err := cache.ListAllPosts(context.Background())
	if err != nil || len(posts) != 1 {
		t.Fatalf("expected one post, got %d (%v)", len(posts), err)
	}

	writeFile(t, filepath.Join(dir, "second.md"), "---\ntitle: Second\ndate: 2024-01-02\n---\n")

	waitFor(t, func() bool {
		posts, err := cache.ListAllPosts(context.Background())
		return err == nil && len(posts) == 2
	})
}

func TestWatcherStopWithoutStart(t *testing.T) {
	NewWatcher(t.TempDir(), nil).Stop()
}
