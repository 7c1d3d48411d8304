package cache

import (
	"context"
	"testing"
	"time"
)

type fakeClock struct{ t time.Time }

func (f *fakeClock) now() time.Time          { return f.t }
func (f *fakeClock) advance(d time.Duration) { f.t = f.t.Add(d) }

func newTestCache(size int, ttl time.Duration) (*LRUCache[string], *fakeClock) {
	clock := &fakeClock{t: time.Date(2025, 11, 5, 0, 0, 0, 0, time.UTC)}
	c := NewLRUCache[string](size, ttl)
	c.now = clock.now
	return c, clock
}

func TestLRUCacheEviction(t *testing.T) {
	c, _ := newTestCache(3, time.Hour)

	c.Set("key1", "value1")
	c.Set("key2", "value2")
	c.Set("key3", "value3")
	// Touch key1 so key2 becomes the oldest.
	c.Get("key1")
	c.Set("key4", "value4")

	if _, found := c.Get("key2"); found {
		t.Error("key2 should have been evicted")
	}
	for _, k := range []string{"key1", "key3", "key4"} {
		if _, found := c.Get(k); !found {
			t.Errorf("%s should still exist", k)
		}
	}
	if c.Size() != 3 {
		t.Errorf("Size() = %d, want 3", c.Size())
	}
}

func TestLRUCacheOverwrite(t *testing.T) {
	c, _ := newTestCache(2, time.Hour)

	c.Set("k", "a")
	c.Set("k", "b")

	if v, _ := c.Get("k"); v != "b" {
		t.Errorf("Get() = %q, want b", v)
	}
	if c.Size() != 1 {
		t.Errorf("Size() = %d, want 1", c.Size())
	}
}

func TestLRUCacheTTLExpiration(t *testing.T) {
	c, clock := newTestCache(100, 50*time.Millisecond)

	c.Set("key1", "value1")
	if _, found := c.Get("key1"); !found {
		t.Fatal("key1 should exist immediately")
	}

	clock.advance(60 * time.Millisecond)

	if _, found := c.Get("key1"); found {
		t.Error("key1 should have expired")
	}
	stats := c.Stats()
	if stats.Hits != 1 || stats.Misses != 1 || stats.Size != 0 {
		t.Errorf("Stats() = %+v", stats)
	}
}

func TestLRUCacheCleanExpired(t *testing.T) {
	c, clock := newTestCache(10, time.Minute)

	c.Set("old1", "a")
	c.Set("old2", "b")
	clock.advance(45 * time.Second)
	c.Set("fresh", "c")
	clock.advance(30 * time.Second)

	m := NewManager(c)
	if removed := m.Sweep(); removed != 2 {
		t.Errorf("Sweep() = %d, want 2", removed)
	}
	if _, found := c.Get("fresh"); !found {
		t.Error("fresh entry should survive the sweep")
	}
}

func TestManagerRunStopsOnContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	m := NewManager()
	finished := make(chan struct{})
	go func() {
		m.Run(ctx, time.Millisecond)
		close(finished)
	}()

	cancel()
	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
