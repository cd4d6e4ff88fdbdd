// v1
// internal/cache/cache_test.go
package cache

import (
	"testing"
	"time"
)

type countingObserver struct {
	hits, misses int
}

func (o *countingObserver) CacheHit()  { o.hits++ }
func (o *countingObserver) CacheMiss() { o.misses++ }

func TestGetSetRoundTrip(t *testing.T) {
	obs := &countingObserver{}
	c := New[string](time.Minute, obs)

	if _, ok := c.Get("k"); ok {
		t.Fatalf("expected miss on empty cache")
	}
	c.Set("k", "v")
	got, ok := c.Get("k")
	if !ok || got != "v" {
		t.Fatalf("expected hit with stored value, got %q %v", got, ok)
	}
	if obs.hits != 1 || obs.misses != 1 {
		t.Fatalf("observer counts wrong: %+v", obs)
	}
}

func TestExpiry(t *testing.T) {
	c := New[int](10*time.Millisecond, nil)
	c.Set("k", 42)
	time.Sleep(25 * time.Millisecond)
	if _, ok := c.Get("k"); ok {
		t.Fatalf("expected entry to expire")
	}
}

func TestInvalidateDropsEverything(t *testing.T) {
	c := New[int](time.Minute, nil)
	c.Set("a", 1)
	c.Set("b", 2)
	c.Invalidate()
	if _, ok := c.Get("a"); ok {
		t.Fatalf("expected a to be gone")
	}
	if _, ok := c.Get("b"); ok {
		t.Fatalf("expected b to be gone")
	}
}

func TestNilObserverIsSafe(t *testing.T) {
	c := New[int](time.Minute, nil)
	c.Set("k", 1)
	if v, ok := c.Get("k"); !ok || v != 1 {
		t.Fatalf("cache without observer broken")
	}
}
