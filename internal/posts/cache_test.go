package posts

import (
	"context"
	"errors"
	"slices"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/goliatone/go-blog/pkg/interfaces"
)

type countingRepository struct {
	interfaces.PostRepository
	lists    atomic.Int32
	loads    atomic.Int32
	gate     chan struct{}
	loadGate chan struct{}
}

func (c *countingRepository) ListAllPosts(ctx context.Context) ([]*interfaces.Post, error) {
	c.lists.Add(1)
	if c.gate != nil {
		<-c.gate
	}
	return c.PostRepository.ListAllPosts(ctx)
}

func (c *countingRepository) LoadPost(ctx context.Context, slug string) (*interfaces.Post, bool) {
	c.loads.Add(1)
	if c.loadGate != nil {
		<-c.loadGate
	}
	return c.PostRepository.LoadPost(ctx, slug)
}

func newCountingRepository() *countingRepository {
	fsys := mapFS(map[string]string{
		"first.md":  "---\ntitle: First\ndate: 2024-02-01\ncategory: Design\n---\nfirst",
		"second.md": "---\ntitle: Second\ndate: 2024-02-02\ncategory: Development\n---\nsecond",
	})
	return &countingRepository{PostRepository: NewRepository(fsys)}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met before deadline")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestCachedRepositoryMemoizesListing(t *testing.T) {
	base := newCountingRepository()
	cache := NewCachedRepository(base)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		posts, err := cache.ListAllPosts(ctx)
		if err != nil {
			t.Fatalf("ListAllPosts: %v", err)
		}
		if got := slugsOf(posts); !slices.Equal(got, []string{"second", "first"}) {
			t.Fatalf("unexpected order %v", got)
		}
	}

	categories, err := cache.ListAllCategories(ctx)
	if err != nil {
		t.Fatalf("ListAllCategories: %v", err)
	}
	if !slices.Equal(categories, []string{"Development", "Design"}) {
		t.Fatalf("unexpected categories %v", categories)
	}

	design, err := cache.ListPostsByCategory(ctx, "DESIGN")
	if err != nil || !slices.Equal(slugsOf(design), []string{"first"}) {
		t.Fatalf("unexpected category listing %v (%v)", slugsOf(design), err)
	}

	bySlug, err := cache.ListPostsByCategorySlug(ctx, "development")
	if err != nil || !slices.Equal(slugsOf(bySlug), []string{"second"}) {
		t.Fatalf("unexpected slug listing %v (%v)", slugsOf(bySlug), err)
	}

	if name, ok := cache.ResolveCategory(ctx, "design"); !ok || name != "Design" {
		t.Fatalf("expected Design, got %q %v", name, ok)
	}

	featured, err := cache.FeaturedPosts(ctx, 1)
	if err != nil || !slices.Equal(slugsOf(featured), []string{"second"}) {
		t.Fatalf("unexpected featured %v (%v)", slugsOf(featured), err)
	}

	if got := base.lists.Load(); got != 1 {
		t.Fatalf("expected one base listing, got %d", got)
	}
}

func TestCachedRepositoryReturnsCopies(t *testing.T) {
	cache := NewCachedRepository(newCountingRepository())
	ctx := context.Background()

	posts, err := cache.ListAllPosts(ctx)
	if err != nil {
		t.Fatalf("ListAllPosts: %v", err)
	}
	posts[0].Title = "mutated"
	posts[0] = nil

	again, err := cache.ListAllPosts(ctx)
	if err != nil {
		t.Fatalf("ListAllPosts: %v", err)
	}
	if again[0] == nil || again[0].Title != "Second" {
		t.Fatalf("cached listing was mutated: %#v", again[0])
	}

	post, ok := cache.LoadPost(ctx, "first")
	if !ok {
		t.Fatal("expected first to load")
	}
	post.Content = "mutated"
	post, _ = cache.LoadPost(ctx, "first")
	if post.Content == "mutated" {
		t.Fatal("cached post was mutated")
	}
}

func TestCachedRepositoryLoadPostMemoizesAndSkipsAbsent(t *testing.T) {
	base := newCountingRepository()
	cache := NewCachedRepository(base)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, ok := cache.LoadPost(ctx, "first"); !ok {
			t.Fatal("expected first to load")
		}
	}
	if got := base.loads.Load(); got != 1 {
		t.Fatalf("expected one base load, got %d", got)
	}

	for i := 0; i < 2; i++ {
		if _, ok := cache.LoadPost(ctx, "missing"); ok {
			t.Fatal("expected missing to be absent")
		}
	}
	if got := base.loads.Load(); got != 3 {
		t.Fatalf("expected absent results to skip the cache, got %d loads", got)
	}
}

func TestCachedRepositoryInvalidateAndTTL(t *testing.T) {
	base := newCountingRepository()
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	cache := NewCachedRepository(base, WithTTL(time.Minute), WithCacheClock(func() time.Time { return now }))
	ctx := context.Background()

	list := func(want int32) {
		t.Helper()
		if _, err := cache.ListAllPosts(ctx); err != nil {
			t.Fatalf("ListAllPosts: %v", err)
		}
		if got := base.lists.Load(); got != want {
			t.Fatalf("expected %d base listings, got %d", want, got)
		}
	}

	list(1)
	list(1)

	now = now.Add(2 * time.Minute)
	list(2)

	cache.Invalidate()
	list(3)
}

func TestCachedRepositoryCoalescesConcurrentRebuilds(t *testing.T) {
	base := newCountingRepository()
	base.gate = make(chan struct{})
	cache := NewCachedRepository(base)
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			posts, err := cache.ListAllPosts(ctx)
			if err == nil && len(posts) != 2 {
				err = errors.New("unexpected listing length")
			}
			errs <- err
		}()
	}

	waitFor(t, func() bool { return base.lists.Load() == 1 })
	time.Sleep(50 * time.Millisecond)
	close(base.gate)
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Fatalf("concurrent ListAllPosts: %v", err)
		}
	}
	if got := base.lists.Load(); got != 1 {
		t.Fatalf("expected rebuilds to be coalesced, got %d", got)
	}
}

func TestCachedRepositoryCancelledCallerDoesNotFailSharedRebuild(t *testing.T) {
	base := newCountingRepository()
	base.gate = make(chan struct{})
	cache := NewCachedRepository(base)

	cancelCtx, cancel := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := cache.ListAllPosts(cancelCtx)
		firstErr <- err
	}()
	waitFor(t, func() bool { return base.lists.Load() == 1 })

	type result struct {
		posts []*interfaces.Post
		err   error
	}
	second := make(chan result, 1)
	go func() {
		posts, err := cache.ListAllPosts(context.Background())
		second <- result{posts, err}
	}()
	time.Sleep(20 * time.Millisecond)

	cancel()
	select {
	case err := <-firstErr:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected cancelled caller to see context.Canceled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("cancelled caller kept waiting on the shared rebuild")
	}

	close(base.gate)
	got := <-second
	if got.err != nil {
		t.Fatalf("live caller failed: %v", got.err)
	}
	if !slices.Equal(slugsOf(got.posts), []string{"second", "first"}) {
		t.Fatalf("unexpected listing %v", slugsOf(got.posts))
	}
	if calls := base.lists.Load(); calls != 1 {
		t.Fatalf("expected one shared rebuild, got %d", calls)
	}

	if _, err := cache.ListAllPosts(context.Background()); err != nil {
		t.Fatalf("ListAllPosts after rebuild: %v", err)
	}
	if calls := base.lists.Load(); calls != 1 {
		t.Fatalf("expected the shared rebuild to be cached, got %d calls", calls)
	}
}

func TestCachedRepositoryLoadPostSurvivesCancelledCaller(t *testing.T) {
	base := newCountingRepository()
	base.loadGate = make(chan struct{})
	cache := NewCachedRepository(base)

	cancelCtx, cancel := context.WithCancel(context.Background())
	firstOK := make(chan bool, 1)
	go func() {
		_, ok := cache.LoadPost(cancelCtx, "first")
		firstOK <- ok
	}()
	waitFor(t, func() bool { return base.loads.Load() == 1 })

	secondOK := make(chan bool, 1)
	go func() {
		post, ok := cache.LoadPost(context.Background(), "first")
		secondOK <- ok && post.Title == "First"
	}()
	time.Sleep(20 * time.Millisecond)

	cancel()
	if ok := <-firstOK; ok {
		t.Fatal("expected cancelled caller to report absent")
	}

	close(base.loadGate)
	if ok := <-secondOK; !ok {
		t.Fatal("expected live caller to receive the post")
	}
	if calls := base.loads.Load(); calls != 1 {
		t.Fatalf("expected one shared load, got %d", calls)
	}
}

func TestCachedRepositoryListAllSlugs(t *testing.T) {
	cache := NewCachedRepository(newCountingRepository())

	slugs := cache.ListAllSlugs(context.Background())
	if !slices.Equal(slugs, []string{"first", "second"}) {
		t.Fatalf("unexpected slugs %v", slugs)
	}
	slugs[0] = "mutated"
	if again := cache.ListAllSlugs(context.Background()); !slices.Equal(again, []string{"first", "second"}) {
		t.Fatalf("cached slugs were mutated: %v", again)
	}
}
