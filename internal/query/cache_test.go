package query

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestCache(clock *fakeClock) *Cache {
	return NewCache(Options{Freshness: 60 * time.Second, Clock: clock.Now})
}

func TestRunCachesWithinFreshnessWindow(t *testing.T) {
	clock := newFakeClock()
	cache := newTestCache(clock)

	var calls atomic.Int32
	fetch := func(ctx context.Context) (any, error) {
		calls.Add(1)
		return []string{"a"}, nil
	}

	for i := 0; i < 3; i++ {
		value, err := cache.Run(context.Background(), "k", fetch)
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
		if got := value.([]string); len(got) != 1 {
			t.Fatalf("unexpected value %v", got)
		}
	}
	if calls.Load() != 1 {
		t.Fatalf("expected a single fetch within the freshness window, got %d", calls.Load())
	}

	clock.Advance(61 * time.Second)
	if _, err := cache.Run(context.Background(), "k", fetch); err != nil {
		t.Fatalf("Run after expiry: %v", err)
	}
	if calls.Load() != 2 {
		t.Fatalf("expected a refetch after the window elapsed, got %d", calls.Load())
	}
}

func TestRunStatusTransitions(t *testing.T) {
	clock := newFakeClock()
	cache := newTestCache(clock)

	if got := cache.Status("k"); got != StatusIdle {
		t.Fatalf("expected idle before any run, got %s", got)
	}

	started := make(chan struct{})
	release := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = cache.Run(context.Background(), "k", func(ctx context.Context) (any, error) {
			close(started)
			<-release
			return "v", nil
		})
	}()

	<-started
	if got := cache.Status("k"); got != StatusPending {
		t.Fatalf("expected pending while in flight, got %s", got)
	}
	close(release)
	<-done
	if got := cache.Status("k"); got != StatusSuccess {
		t.Fatalf("expected success after settlement, got %s", got)
	}

	boom := errors.New("boom")
	clock.Advance(2 * time.Minute)
	if _, err := cache.Run(context.Background(), "k", func(ctx context.Context) (any, error) {
		return nil, boom
	}); !errors.Is(err, boom) {
		t.Fatalf("expected fetch error, got %v", err)
	}
	if got := cache.Status("k"); got != StatusError {
		t.Fatalf("expected error status, got %s", got)
	}
}

func TestRunDoesNotFreshnessCacheErrors(t *testing.T) {
	clock := newFakeClock()
	cache := newTestCache(clock)

	var calls atomic.Int32
	boom := errors.New("boom")
	fetch := func(ctx context.Context) (any, error) {
		calls.Add(1)
		return nil, boom
	}

	for i := 0; i < 2; i++ {
		if _, err := cache.Run(context.Background(), "k", fetch); !errors.Is(err, boom) {
			t.Fatalf("expected boom, got %v", err)
		}
	}
	if calls.Load() != 2 {
		t.Fatalf("errored queries must refetch, got %d calls", calls.Load())
	}
}

func TestRunDiscardsResultOnCancel(t *testing.T) {
	clock := newFakeClock()
	cache := newTestCache(clock)

	ctx, cancel := context.WithCancel(context.Background())
	_, err := cache.Run(ctx, "k", func(ctx context.Context) (any, error) {
		cancel()
		return "late", nil
	})
	if err == nil {
		t.Fatal("expected a cancellation error")
	}
	if got := cache.Status("k"); got != StatusIdle {
		t.Fatalf("cancelled fetch must leave no trace, got status %s", got)
	}
	if _, ok := cache.Peek("k"); ok {
		t.Fatal("cancelled fetch must not populate the cache")
	}
}

func TestRunCoalescesConcurrentFetches(t *testing.T) {
	clock := newFakeClock()
	cache := newTestCache(clock)

	var calls atomic.Int32
	release := make(chan struct{})
	fetch := func(ctx context.Context) (any, error) {
		calls.Add(1)
		<-release
		return "v", nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := cache.Run(context.Background(), "k", fetch); err != nil {
				t.Errorf("Run: %v", err)
			}
		}()
	}
	// Give the goroutines a moment to queue on the same key.
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	if calls.Load() != 1 {
		t.Fatalf("expected concurrent invocations to share one fetch, got %d", calls.Load())
	}
}

func TestPeekOnlyExposesSuccess(t *testing.T) {
	clock := newFakeClock()
	cache := newTestCache(clock)

	if _, ok := cache.Peek("k"); ok {
		t.Fatal("peek before any run should miss")
	}
	if _, err := cache.Run(context.Background(), "k", func(ctx context.Context) (any, error) {
		return 42, nil
	}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	value, ok := cache.Peek("k")
	if !ok || value.(int) != 42 {
		t.Fatalf("unexpected peek result (%v, %v)", value, ok)
	}

	cache.Invalidate("k")
	if _, ok := cache.Peek("k"); ok {
		t.Fatal("peek after invalidate should miss")
	}
}

func TestRunTyped(t *testing.T) {
	clock := newFakeClock()
	cache := newTestCache(clock)

	list, err := RunTyped(context.Background(), cache, "k", func(ctx context.Context) ([]string, error) {
		return []string{"a", "b"}, nil
	})
	if err != nil {
		t.Fatalf("RunTyped: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("unexpected list %v", list)
	}

	boom := errors.New("boom")
	clock.Advance(2 * time.Minute)
	if _, err := RunTyped(context.Background(), cache, "k", func(ctx context.Context) ([]string, error) {
		return nil, boom
	}); !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
}
