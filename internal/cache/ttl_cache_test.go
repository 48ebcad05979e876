package cache

import (
	"strconv"
	"sync"
	"testing"
	"time"
)

// withClock drives c from a manually advanced clock.
func withClock[K comparable, V any](c *TTLCache[K, V]) *time.Time {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	return &now
}

func TestSetAndGet(t *testing.T) {
	cache := New[string, int](time.Minute, 0)
	cache.Set("key1", 42)

	value, ok := cache.Get("key1")
	if !ok || value != 42 {
		t.Errorf("Get(key1) = %d, %v; want 42, true", value, ok)
	}
	if _, ok := cache.Get("nonexistent"); ok {
		t.Error("Get returned ok=true for non-existent key")
	}
}

func TestPerEntryExpiry(t *testing.T) {
	cache := New[string, int](time.Minute, 0)
	now := withClock(cache)

	cache.Set("old", 1)
	*now = now.Add(40 * time.Second)
	cache.Set("new", 2)
	*now = now.Add(30 * time.Second)

	if _, ok := cache.Get("old"); ok {
		t.Error("old entry should have expired")
	}
	if !cache.IsExpired("old") {
		t.Error("IsExpired(old) = false")
	}
	if v, ok := cache.Get("new"); !ok || v != 2 {
		t.Errorf("Get(new) = %d, %v; want 2, true", v, ok)
	}
	if cache.IsExpired("new") {
		t.Error("IsExpired(new) = true")
	}
	if !cache.IsExpired("missing") {
		t.Error("IsExpired(missing) = false")
	}
}

func TestSetRefreshesTimestamp(t *testing.T) {
	cache := New[string, int](time.Minute, 0)
	now := withClock(cache)

	cache.Set("k", 1)
	*now = now.Add(50 * time.Second)
	cache.Set("k", 2)
	*now = now.Add(50 * time.Second)

	if v, ok := cache.Get("k"); !ok || v != 2 {
		t.Errorf("Get(k) = %d, %v; want 2, true", v, ok)
	}
}

func TestPurge(t *testing.T) {
	cache := New[string, int](time.Minute, 0)
	now := withClock(cache)

	cache.Set("a", 1)
	cache.Set("b", 2)
	*now = now.Add(2 * time.Minute)
	cache.Set("c", 3)

	if n := cache.Purge(); n != 2 {
		t.Errorf("Purge() = %d, want 2", n)
	}
	if cache.Len() != 1 {
		t.Errorf("Len() = %d, want 1", cache.Len())
	}
}

func TestMaxEntriesEvictsOldest(t *testing.T) {
	cache := New[string, int](time.Hour, 2)
	now := withClock(cache)

	cache.Set("a", 1)
	*now = now.Add(time.Second)
	cache.Set("b", 2)
	*now = now.Add(time.Second)
	cache.Set("c", 3)

	if cache.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", cache.Len())
	}
	if _, ok := cache.Get("a"); ok {
		t.Error("oldest entry a should have been evicted")
	}
	for _, k := range []string{"b", "c"} {
		if _, ok := cache.Get(k); !ok {
			t.Errorf("Get(%s) missing", k)
		}
	}

	// Overwriting an existing key never evicts.
	cache.Set("b", 20)
	if cache.Len() != 2 {
		t.Errorf("Len() = %d after overwrite, want 2", cache.Len())
	}
	if _, ok := cache.Get("c"); !ok {
		t.Error("overwrite evicted c")
	}
}

func TestMaxEntriesPrefersExpired(t *testing.T) {
	cache := New[string, int](time.Minute, 2)
	now := withClock(cache)

	cache.Set("stale", 1)
	*now = now.Add(2 * time.Minute)
	cache.Set("fresh", 2)
	*now = now.Add(time.Second)
	cache.Set("newest", 3)

	if _, ok := cache.Get("fresh"); !ok {
		t.Error("fresh entry evicted while an expired one existed")
	}
	if cache.Len() != 2 {
		t.Errorf("Len() = %d, want 2", cache.Len())
	}
}

func TestZeroTTLDisablesCache(t *testing.T) {
	cache := New[string, int](0, 10)
	cache.Set("k", 1)
	if _, ok := cache.Get("k"); ok {
		t.Error("zero TTL cache returned a value")
	}
	if cache.Len() != 0 {
		t.Errorf("Len() = %d, want 0", cache.Len())
	}
}

func TestInvalidate(t *testing.T) {
	cache := New[string, int](time.Minute, 0)
	cache.Set("a", 1)
	cache.Set("b", 2)
	cache.Invalidate()

	if cache.Len() != 0 {
		t.Errorf("Len() = %d after Invalidate, want 0", cache.Len())
	}
	if _, ok := cache.Get("a"); ok {
		t.Error("Get returned value after Invalidate")
	}
}

func TestConcurrentAccess(t *testing.T) {
	cache := New[string, int](time.Minute, 64)
	var wg sync.WaitGroup

	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				cache.Set(strconv.Itoa(n*100+j), j)
			}
		}(i)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				cache.Get(strconv.Itoa(n*100 + j))
			}
		}(i)
	}
	wg.Wait()

	if cache.Len() > 64 {
		t.Errorf("Len() = %d, exceeds cap 64", cache.Len())
	}
}
