package posts

import (
	"context"
	"errors"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/goliatone/go-blog/internal/logging"
	"github.com/goliatone/go-blog/pkg/interfaces"
)

// DefaultDebounce is how long the watcher collects changes before notifying.
const DefaultDebounce = 250 * time.Millisecond

// ErrWatcherRunning is returned by Start when the watcher is already active.
var ErrWatcherRunning = errors.New("posts: watcher already running")

// ChangeFunc receives the sorted slugs of post files changed since the last
// notification.
type ChangeFunc func(slugs []string)

// Watcher notifies a ChangeFunc when post files in the content directory
// are created, written, removed or renamed. Bursts of events are collected
// and flushed once per debounce interval.
type Watcher struct {
	dir      string
	debounce time.Duration
	onChange ChangeFunc
	logger   interfaces.Logger

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	pending map[string]struct{}
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithDebounce overrides DefaultDebounce.
func WithDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithWatchLogger sets the watcher logger.
func WithWatchLogger(logger interfaces.Logger) WatcherOption {
	return func(w *Watcher) {
		w.logger = logging.OrNoOp(logger)
	}
}

// NewWatcher creates a watcher for dir. onChange is called from the
// watcher goroutine.
func NewWatcher(dir string, onChange ChangeFunc, opts ...WatcherOption) *Watcher {
	w := &Watcher{
		dir:      dir,
		debounce: DefaultDebounce,
		onChange: onChange,
		logger:   logging.NoOp(),
		pending:  map[string]struct{}{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(w)
		}
	}
	return w
}

// Start begins watching until ctx is done or Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.cancel != nil {
		return ErrWatcherRunning
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := fsw.Add(w.dir); err != nil {
		fsw.Close()
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.done = make(chan struct{})
	go w.run(ctx, fsw, w.done)

	w.logger.Info("posts.watch.started", "dir", w.dir, "debounce", w.debounce.String())
	return nil
}

// Stop ends watching and waits for the watcher goroutine to exit. Pending
// changes are flushed first. Stop on an idle watcher is a no-op.
func (w *Watcher) Stop() {
	w.mu.Lock()
	cancel, done := w.cancel, w.done
	w.cancel, w.done = nil, nil
	w.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (w *Watcher) run(ctx context.Context, fsw *fsnotify.Watcher, done chan struct{}) {
	defer close(done)
	defer fsw.Close()

	ticker := time.NewTicker(w.debounce)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.flush()
			w.logger.Info("posts.watch.stopped", "dir", w.dir)
			return
		case event, ok := <-fsw.Events:
			if !ok {
				return
			}
			w.handle(event)
		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("posts.watch.error", "error", err)
		case <-ticker.C:
			w.flush()
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return
	}
	name := filepath.Base(event.Name)
	if !strings.HasSuffix(name, postSuffix) {
		return
	}
	slug := strings.TrimSuffix(name, postSuffix)
	if slug == "" {
		return
	}

	w.mu.Lock()
	w.pending[slug] = struct{}{}
	w.mu.Unlock()
	w.logger.Debug("posts.watch.change", "slug", slug, "op", event.Op.String())
}

func (w *Watcher) flush() {
	w.mu.Lock()
	if len(w.pending) == 0 {
		w.mu.Unlock()
		return
	}
	slugs := make([]string, 0, len(w.pending))
	for slug := range w.pending {
		slugs = append(slugs, slug)
	}
	w.pending = map[string]struct{}{}
	w.mu.Unlock()

	slices.Sort(slugs)
	w.logger.Debug("posts.watch.flush", "changed", len(slugs))
	if w.onChange != nil {
		w.onChange(slugs)
	}
}
