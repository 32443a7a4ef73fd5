package cache

import (
	"testing"
	"time"
)

func TestTTLCacheSetGetDelete(t *testing.T) {
	c, err := NewTTLCache[int64](100, time.Minute)
	if err != nil {
		t.Fatalf("NewTTLCache: %v", err)
	}
	defer c.Close()

	if _, ok := c.Get("total"); ok {
		t.Fatal("expected miss on empty cache")
	}

	c.Set("total", 3550)
	c.Wait()

	got, ok := c.Get("total")
	if !ok || got != 3550 {
		t.Fatalf("Get = %d, %v; want 3550, true", got, ok)
	}

	c.Delete("total")
	if _, ok := c.Get("total"); ok {
		t.Error("expected miss after Delete")
	}

	c.Set("a", 1)
	c.Set("b", 2)
	c.Wait()
	c.Clear()
	if _, ok := c.Get("a"); ok {
		t.Error("expected miss after Clear")
	}
}

func TestTTLCacheExpiry(t *testing.T) {
	c, err := NewTTLCache[string](10, 50*time.Millisecond)
	if err != nil {
		t.Fatalf("NewTTLCache: %v", err)
	}
	defer c.Close()

	c.Set("k", "v")
	c.Wait()
	if _, ok := c.Get("k"); !ok {
		t.Fatal("expected hit before expiry")
	}

	time.Sleep(120 * time.Millisecond)
	if _, ok := c.Get("k"); ok {
		t.Error("expected miss after ttl")
	}
}
