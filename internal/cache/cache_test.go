package cache

import (
	"testing"
	"time"
)

func TestGetSet(t *testing.T) {
	c := New[int](10, time.Minute)

	if _, ok := c.Get("missing"); ok {
		t.Error("Get(missing) ok = true, want false")
	}

	c.Set("a", 1)
	v, ok := c.Get("a")
	if !ok || v != 1 {
		t.Errorf("Get(a) = %d, %v; want 1, true", v, ok)
	}

	c.Set("a", 2)
	if v, _ := c.Get("a"); v != 2 {
		t.Errorf("Get(a) after overwrite = %d, want 2", v)
	}
	if c.Len() != 1 {
		t.Errorf("Len() = %d, want 1", c.Len())
	}
}

func TestTTLExpiry(t *testing.T) {
	c := New[string](10, 10*time.Millisecond)

	c.Set("k", "v")
	time.Sleep(20 * time.Millisecond)

	if _, ok := c.Get("k"); ok {
		t.Error("Get() returned expired entry")
	}
}

func TestSizeEviction(t *testing.T) {
	c := New[int](2, time.Minute)

	c.Set("a", 1)
	c.Set("b", 2)
	c.Get("a") // make "b" the least recently used
	c.Set("c", 3)

	if _, ok := c.Get("b"); ok {
		t.Error("least recently used entry survived eviction")
	}
	if _, ok := c.Get("a"); !ok {
		t.Error("recently used entry was evicted")
	}
	if _, ok := c.Get("c"); !ok {
		t.Error("newest entry was evicted")
	}
}

func TestDelete(t *testing.T) {
	c := New[int](10, time.Minute)

	c.Set("a", 1)
	c.Delete("a")
	if _, ok := c.Get("a"); ok {
		t.Error("Get() returned deleted entry")
	}
	c.Delete("a") // deleting twice is a no-op
}

func TestPurge(t *testing.T) {
	c := New[int](10, 10*time.Millisecond)

	c.Set("a", 1)
	c.Set("b", 2)
	time.Sleep(20 * time.Millisecond)
	c.Set("fresh", 3)

	if n := c.Purge(); n != 2 {
		t.Errorf("Purge() = %d, want 2", n)
	}
	if c.Len() != 1 {
		t.Errorf("Len() after purge = %d, want 1", c.Len())
	}
}
